package family

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGet(t *testing.T) {
	tests := []struct {
		name    string
		want    Family
		wantErr bool
	}{
		{"gas", Gas, false},
		{"g", Gas, false},
		{"dm", DarkMatter, false},
		{"stars", Star, false},
		{"bh", BlackHole, false},
		{"neutrino", Neutrino, false},
		{"ghost", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Get(tt.name)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestString(t *testing.T) {
	assert.Equal(t, "all", Family("").String())
	assert.Equal(t, "dm", DarkMatter.String())
}

func TestNames(t *testing.T) {
	assert.Equal(t, []string{"bh", "dm", "gas", "neutrino", "star"}, Names())
}
