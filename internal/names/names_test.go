package names

import (
	"testing"

	"github.com/robert-malhotra/go-gadgethdf/internal/config"
	"github.com/stretchr/testify/assert"
)

func TestToNative(t *testing.T) {
	tr := Default()

	tests := []struct {
		canonical string
		want      []string
	}{
		{"pos", []string{"Coordinates"}},
		{"vel", []string{"Velocities", "Velocity"}},
		{"Fe", []string{"ElementAbundance/Iron"}},
		{"unmapped", []string{"unmapped"}},
	}

	for _, tt := range tests {
		t.Run(tt.canonical, func(t *testing.T) {
			assert.Equal(t, tt.want, tr.ToNative(tt.canonical))
		})
	}
}

func TestToCanonical(t *testing.T) {
	tr := Default()

	assert.Equal(t, "pos", tr.ToCanonical("Coordinates"))
	assert.Equal(t, "mass", tr.ToCanonical("Masses"))
	assert.Equal(t, "Fe", tr.ToCanonical("ElementAbundance/Iron"))
	assert.Equal(t, "SomethingNew", tr.ToCanonical("SomethingNew"))
}

func TestAdaptivePreference(t *testing.T) {
	tr := New([]config.NameEntry{
		{Name: "vel", Native: []string{"Velocities", "Velocity", "Vel"}},
	})

	assert.Equal(t, []string{"Velocities", "Velocity", "Vel"}, tr.ToNative("vel"))

	assert.Equal(t, "vel", tr.ToCanonical("Vel"))
	assert.Equal(t, []string{"Vel", "Velocities", "Velocity"}, tr.ToNative("vel"))

	assert.Equal(t, "vel", tr.ToCanonical("Velocity"))
	assert.Equal(t, []string{"Velocity", "Vel", "Velocities"}, tr.ToNative("vel"))
}

func TestFirstEntryOwnsNative(t *testing.T) {
	tr := New([]config.NameEntry{
		{Name: "a", Native: []string{"Shared"}},
		{Name: "b", Native: []string{"Shared", "Own"}},
	})

	assert.Equal(t, "a", tr.ToCanonical("Shared"))
	assert.Equal(t, []string{"Own"}, tr.ToNative("b"))
	assert.Equal(t, []string{"a", "b"}, tr.Canonical())
}

func TestToNativeReturnsCopy(t *testing.T) {
	tr := Default()
	got := tr.ToNative("vel")
	got[0] = "mutated"
	assert.Equal(t, "Velocities", tr.ToNative("vel")[0])
}
