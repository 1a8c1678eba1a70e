package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/robert-malhotra/go-gadgethdf/family"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	c := Default()

	order, groups := c.Families()
	assert.Equal(t, []family.Family{family.Gas, family.DarkMatter, family.Star, family.BlackHole}, order)
	assert.Equal(t, []string{"PartType1", "PartType2", "PartType3"}, groups[family.DarkMatter])
	assert.Contains(t, c.AllGroups(), "PartType5")

	assert.Equal(t, 1.0e5, c.DefaultUnits.Velocity.CGS)
	assert.Equal(t, 0.5, c.DefaultUnits.Velocity.A)
	assert.Equal(t, -1.0, c.DefaultUnits.Mass.H)
}

func TestDefaultIsACopy(t *testing.T) {
	c := Default()
	c.TypeMapping[0].Groups[0] = "Mutated"
	c.NameMapping = nil

	d := Default()
	assert.Equal(t, "PartType0", d.TypeMapping[0].Groups[0])
	assert.NotEmpty(t, d.NameMapping)
}

func TestLoadOverlay(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tables.yaml")
	doc := `
type_mapping:
  - family: gas
    groups: [Type0]
name_mapping:
  - name: pos
    native: [Position, Coordinates]
  - name: custom
    native: [MyField]
default_units:
  mass: {cgs: 2.0e33}
`
	require.NoError(t, os.WriteFile(path, []byte(doc), 0o644))

	c, err := Load(path)
	require.NoError(t, err)

	require.Len(t, c.TypeMapping, 1)
	assert.Equal(t, []string{"Type0"}, c.TypeMapping[0].Groups)

	names := make(map[string][]string)
	for _, e := range c.NameMapping {
		names[e.Name] = e.Native
	}
	assert.Equal(t, []string{"Position", "Coordinates"}, names["pos"])
	assert.Equal(t, []string{"MyField"}, names["custom"])
	assert.Equal(t, []string{"Velocities", "Velocity"}, names["vel"])

	assert.Equal(t, 2.0e33, c.DefaultUnits.Mass.CGS)
	assert.Equal(t, 1.0e5, c.DefaultUnits.Velocity.CGS)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name string
		doc  string
	}{
		{"unknown family", "type_mapping:\n  - family: ghosts\n    groups: [PartType9]\n"},
		{"empty groups", "type_mapping:\n  - family: gas\n    groups: []\n"},
		{"group claimed twice", "type_mapping:\n  - family: gas\n    groups: [PartType0]\n  - family: dm\n    groups: [PartType0]\n"},
		{"incomplete name entry", "name_mapping:\n  - name: pos\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.doc))
			assert.Error(t, err)
		})
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}
