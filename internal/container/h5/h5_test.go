package h5

import (
	"path/filepath"
	"reflect"
	"testing"

	"github.com/robert-malhotra/go-gadgethdf/internal/container"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeSnapshot(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "snap.hdf5")

	w, err := Create(path)
	require.NoError(t, err)
	require.NoError(t, w.Dataset("PartType0/Coordinates", []float32{0, 1, 2, 3, 4, 5},
		Attr{"aexp-scale-exponent", 1.0},
		Attr{"h-scale-exponent", -1.0},
		Attr{"VarDescription", "Co-moving coordinates. Physical position: r = ax = Coordinates h^-1 a U_L [cm]"},
	))
	require.NoError(t, w.Dataset("PartType0/ParticleIDs", []int64{10, 11}))
	require.NoError(t, w.Dataset("PartType1/ParticleIDs", []int64{20, 21, 22}))
	require.NoError(t, w.Close())
	return path
}

func TestBackendRead(t *testing.T) {
	path := writeSnapshot(t)

	var b Backend
	assert.True(t, b.IsContainer(path))
	assert.False(t, b.IsContainer(filepath.Join(t.TempDir(), "absent.hdf5")))

	f, err := b.Open(path, container.ReadOnly)
	require.NoError(t, err)
	defer f.Close()

	keys, err := f.Root().Keys()
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"PartType0", "PartType1"}, keys)

	pt0, err := f.Root().OpenGroup("PartType0")
	require.NoError(t, err)
	assert.Equal(t, "/PartType0", pt0.Path())

	pos, err := pt0.OpenDataset("Coordinates")
	require.NoError(t, err)
	assert.Equal(t, []int{6}, pos.Shape())
	assert.Equal(t, reflect.TypeOf(float32(0)), pos.Type())

	v, err := pos.Read()
	require.NoError(t, err)
	assert.Equal(t, []float32{0, 1, 2, 3, 4, 5}, v)

	aexp, ok := container.Float(pos, "aexp-scale-exponent")
	assert.True(t, ok)
	assert.Equal(t, 1.0, aexp)
	desc, ok := container.String(pos, "VarDescription")
	assert.True(t, ok)
	assert.Contains(t, desc, "U_L")

	ids, err := f.Root().OpenDataset("PartType1/ParticleIDs")
	require.NoError(t, err)
	assert.Equal(t, 3, container.Len(ids))

	_, err = f.Root().OpenDataset("PartType0/Missing")
	assert.ErrorIs(t, err, container.ErrNotFound)
	_, err = f.Root().OpenGroup("PartType0/ParticleIDs")
	assert.Error(t, err)

	dsKeys, err := container.DatasetKeys(pt0)
	require.NoError(t, err)
	assert.Equal(t, []string{"Coordinates", "ParticleIDs"}, dsKeys)
}

func TestBackendWrites(t *testing.T) {
	path := writeSnapshot(t)

	var b Backend
	ro, err := b.Open(path, container.ReadOnly)
	require.NoError(t, err)
	_, err = ro.Root().RequireDataset("x", []int{1}, reflect.TypeOf(int64(0)))
	assert.ErrorIs(t, err, container.ErrReadOnly)
	require.NoError(t, ro.Close())

	rw, err := b.Open(path, container.ReadWrite)
	require.NoError(t, err)
	defer rw.Close()

	pt0, err := rw.Root().OpenGroup("PartType0")
	require.NoError(t, err)

	ds, err := pt0.RequireDataset("ParticleIDs", []int{2}, reflect.TypeOf(int64(0)))
	require.NoError(t, err)
	assert.ErrorIs(t, ds.Write([]int64{1, 2}), container.ErrUnsupported)

	_, err = pt0.RequireDataset("ParticleIDs", []int{3}, reflect.TypeOf(int64(0)))
	assert.ErrorIs(t, err, container.ErrShape)

	_, err = pt0.RequireDataset("Density", []int{2}, reflect.TypeOf(float32(0)))
	assert.ErrorIs(t, err, container.ErrUnsupported)

	_, err = pt0.CreateGroup("Extra")
	assert.ErrorIs(t, err, container.ErrUnsupported)
}

func TestWriterRejectsNestedGroups(t *testing.T) {
	w, err := Create(filepath.Join(t.TempDir(), "nested.hdf5"))
	require.NoError(t, err)
	defer w.Close()

	require.NoError(t, w.Group("PartType0"))
	require.NoError(t, w.Group("PartType0"))
	assert.ErrorIs(t, w.Group("PartType0/ElementAbundance"), container.ErrUnsupported)
	assert.ErrorIs(t, w.Dataset("PartType0/ElementAbundance/Iron", []float32{1}), container.ErrUnsupported)
}
