package snapshot

import (
	"reflect"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/robert-malhotra/go-gadgethdf/family"
	"github.com/robert-malhotra/go-gadgethdf/internal/container"
	"github.com/robert-malhotra/go-gadgethdf/internal/container/memfile"
	"github.com/robert-malhotra/go-gadgethdf/units"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestOpenLayout(t *testing.T) {
	s := openTest(t, gadgetSnapshot(), "snap")

	assert.Equal(t, "gadget", s.Variant().Name)
	assert.Equal(t, 3, s.NumShards())
	assert.Equal(t, []family.Family{family.Gas, family.DarkMatter}, s.Families())
	assert.Equal(t, 165, s.Len())
	assert.Equal(t, 150, s.FamilyLen(family.Gas))
	assert.Equal(t, 15, s.FamilyLen(family.DarkMatter))
	assert.Equal(t, 0, s.FamilyLen(family.Star))

	r, ok := s.Range(family.DarkMatter)
	require.True(t, ok)
	assert.Equal(t, Range{Start: 150, Stop: 165}, r)
	r, ok = s.GroupRange("PartType0")
	require.True(t, ok)
	assert.Equal(t, Range{Start: 0, Stop: 150}, r)
	assert.Equal(t, reflect.TypeOf(float32(0)), s.MassType())
}

func TestLoadableKeys(t *testing.T) {
	s := openTest(t, gadgetSnapshot(), "snap")

	tests := []struct {
		fam  family.Family
		want []string
	}{
		{family.Gas, []string{"eps", "iord", "mass", "pos", "rho"}},
		{family.DarkMatter, []string{"eps", "iord", "mass", "pos"}},
		{"", []string{"eps", "iord", "mass", "pos"}},
	}
	for _, tt := range tests {
		if diff := cmp.Diff(tt.want, s.LoadableKeys(tt.fam)); diff != "" {
			t.Errorf("LoadableKeys(%q) mismatch (-want +got):\n%s", tt.fam, diff)
		}
	}
}

func TestLoadAcrossShards(t *testing.T) {
	s := openTest(t, gadgetSnapshot(), "snap")

	pos, err := s.Load("pos", family.Gas)
	require.NoError(t, err)
	assert.Equal(t, 150, pos.Len())
	assert.Equal(t, 3, pos.Dim)
	assert.Equal(t, reflect.TypeOf(float32(0)), pos.Type)

	data := pos.Data.([]float32)
	assert.Equal(t, posValue(0, 99, 2), data[3*99+2])
	for j := 0; j < 50; j++ {
		for c := 0; c < 3; c++ {
			require.Equal(t, posValue(2, j, c), data[3*(100+j)+c], "particle %d", 100+j)
		}
	}

	want := units.Cm.Scale(kpc).Mul(units.ScaleFactor).Mul(units.Hubble.Pow(units.Int(-1)))
	assert.Truef(t, pos.Unit.Close(want, 1e-9), "unit %v", pos.Unit)
	assert.InEpsilon(t, kpc*0.5/0.7, pos.Unit.Eval(0.5, 0.7), 1e-9)
}

func TestLoadIsIdempotent(t *testing.T) {
	s := openTest(t, gadgetSnapshot(), "snap")

	first, err := s.Load("rho", family.Gas)
	require.NoError(t, err)
	again, err := s.Load("rho", family.Gas)
	require.NoError(t, err)
	assert.Same(t, first, again)

	reloaded, err := s.Reload("rho", family.Gas)
	require.NoError(t, err)
	assert.NotSame(t, first, reloaded)
	assert.Equal(t, first.Data, reloaded.Data)

	want := units.Gram.Scale(uMass).Div(units.Cm.Scale(kpc).Pow(units.Int(3))).
		Mul(units.ScaleFactor.Pow(units.Int(-3))).Mul(units.Hubble.Pow(units.Int(2)))
	assert.Truef(t, reloaded.Unit.Close(want, 1e-9), "unit %v", reloaded.Unit)
}

func TestLoadWholeSnapshot(t *testing.T) {
	s := openTest(t, gadgetSnapshot(), "snap")

	pos, err := s.Load("pos", "")
	require.NoError(t, err)
	assert.Equal(t, 165, pos.Len())
	data := pos.Data.([]float32)
	assert.Equal(t, -posValue(0, 0, 0), data[3*150])
	assert.Equal(t, -posValue(1, 4, 2), data[3*164+2])

	// family requests are views of the whole array
	dm, err := s.Load("pos", family.DarkMatter)
	require.NoError(t, err)
	assert.Equal(t, 15, dm.Len())
	assert.Equal(t, family.DarkMatter, dm.Family)
	dm.Data.([]float32)[0] = 42
	assert.Equal(t, float32(42), data[3*150])
}

func TestLoadHeaderMass(t *testing.T) {
	s := openTest(t, gadgetSnapshot(), "snap")

	mass, err := s.Load("mass", family.DarkMatter)
	require.NoError(t, err)
	assert.Equal(t, reflect.TypeOf(float32(0)), mass.Type)
	assert.Equal(t, 15, mass.Len())
	for _, m := range mass.Data.([]float32) {
		require.Equal(t, float32(2), m)
	}
	assert.True(t, mass.Unit.Close(s.Units().Mass, 1e-12))

	all, err := s.Load("mass", "")
	require.NoError(t, err)
	data := all.Data.([]float32)
	assert.Equal(t, float32(0.25), data[0])
	assert.Equal(t, float32(0.25), data[149])
	assert.Equal(t, float32(2), data[150])
	assert.Equal(t, float32(2), data[164])
}

func TestLoadSoftening(t *testing.T) {
	s := openTest(t, gadgetSnapshot(), "snap")

	gas, err := s.Load("eps", family.Gas)
	require.NoError(t, err)
	// comoving 2.0 capped at max physical 0.5 / a
	assert.Equal(t, float32(1), gas.Data.([]float32)[0])

	dm, err := s.Load("eps", family.DarkMatter)
	require.NoError(t, err)
	assert.Equal(t, float32(0.5), dm.Data.([]float32)[14])
	assert.True(t, dm.Unit.Close(s.Units().Length, 1e-12))
}

func TestLoadNotLoadable(t *testing.T) {
	s := openTest(t, gadgetSnapshot(), "snap")

	_, err := s.Load("rho", "")
	assert.ErrorIs(t, err, ErrNotLoadable)
	_, err = s.Load("rho", family.DarkMatter)
	assert.ErrorIs(t, err, ErrNotLoadable)
	_, err = s.Load("nonsense", family.Gas)
	assert.ErrorIs(t, err, ErrNotLoadable)
}

func TestProperties(t *testing.T) {
	s := openTest(t, gadgetSnapshot(), "snap")
	p := s.Properties()

	for name, want := range map[string]float64{"a": 0.5, "z": 1, "h": 0.7, "omegaM0": 0.3, "omegaL0": 0.7, "Redshift": 1} {
		got, ok := p.Float(name)
		if assert.True(t, ok, name) {
			assert.InDelta(t, want, got, 1e-12, name)
		}
	}
	_, ok := p.Float("omegaB0")
	assert.False(t, ok)
	_, ok = p["ExpansionFactor"]
	assert.False(t, ok, "consumed header attributes are not copied")
	_, ok = p.Quantity("time")
	assert.False(t, ok)

	box, ok := p.Quantity("boxsize")
	require.True(t, ok)
	assert.InEpsilon(t, 100*kpc*0.5/0.7, box.In(0.5, 0.7), 1e-9)
	assert.Contains(t, p.AttrNames(), "MassTable")
}

func TestStoreRoundTrip(t *testing.T) {
	fs := gadgetSnapshot()
	s := openTest(t, fs, "snap")

	rho, err := s.Load("rho", family.Gas)
	require.NoError(t, err)
	data := rho.Data.([]float32)
	for i := range data {
		data[i] = float32(i) * 2
	}
	require.NoError(t, s.Store("rho", family.Gas))
	assert.Equal(t, container.ReadOnly, s.shards.Mode())

	fresh := openTest(t, fs, "snap")
	got, err := fresh.Load("rho", family.Gas)
	require.NoError(t, err)
	assert.Equal(t, data, got.Data)
}

func TestStoreCreatesDatasets(t *testing.T) {
	fs := gadgetSnapshot()
	reg := NewRegistry()
	reg.Register(Derived{Name: "Extra/Twice", Compute: func(s *Snapshot, f family.Family) (*Array, error) {
		iord, err := s.Load("iord", f)
		if err != nil {
			return nil, err
		}
		v, err := iord.Float64s()
		if err != nil {
			return nil, err
		}
		for i := range v {
			v[i] *= 2
		}
		return NewFloatArray("", f, v, 1, units.Dimensionless), nil
	}})
	s := openTest(t, fs, "snap", WithRegistry(reg))

	_, err := s.Get("Extra/Twice", "")
	require.NoError(t, err)
	require.NoError(t, s.Store("Extra/Twice", ""))

	fresh := openTest(t, fs, "snap")
	assert.Contains(t, fresh.LoadableKeys(""), "Extra/Twice")
	got, err := fresh.Load("Extra/Twice", family.DarkMatter)
	require.NoError(t, err)
	assert.Equal(t, reflect.TypeOf(float64(0)), got.Type)
	// dark matter ids start after the 100 gas particles of shard 0
	assert.Equal(t, float64(2*101), got.Data.([]float64)[0])
}

func TestStoreRejections(t *testing.T) {
	s := openTest(t, gadgetSnapshot(), "snap")

	for _, f := range []family.Family{"", family.Gas, family.DarkMatter} {
		_, err := s.Load("mass", f)
		require.NoError(t, err)
		assert.ErrorIs(t, s.Store("mass", f), ErrReadOnlyArray)
	}
	assert.ErrorIs(t, s.Store("pos", family.Gas), ErrNotLoaded)

	// an existing dataset of another type is not replaced
	s.keep(NewFloatArray("iord", family.Gas, make([]float64, 150), 1, units.NoUnit))
	assert.ErrorIs(t, s.Store("iord", family.Gas), ErrShape)
	assert.Equal(t, container.ReadOnly, s.shards.Mode())
}

func TestGetPrefersFiles(t *testing.T) {
	reg := NewRegistry()
	called := false
	reg.Register(Derived{Name: "pos", Compute: func(*Snapshot, family.Family) (*Array, error) {
		called = true
		return nil, nil
	}})
	reg.Register(Derived{Name: "rho2", Family: family.Gas, Compute: func(s *Snapshot, f family.Family) (*Array, error) {
		rho, err := s.Get("rho", f)
		if err != nil {
			return nil, err
		}
		v, err := rho.Float64s()
		if err != nil {
			return nil, err
		}
		for i := range v {
			v[i] *= v[i]
		}
		return NewFloatArray("", f, v, 1, rho.Unit.Pow(units.Int(2))), nil
	}})
	s := openTest(t, gadgetSnapshot(), "snap", WithRegistry(reg))

	_, err := s.Get("pos", family.Gas)
	require.NoError(t, err)
	assert.False(t, called)

	rho2, err := s.Get("rho2", family.Gas)
	require.NoError(t, err)
	assert.Equal(t, "rho2", rho2.Name)
	assert.InDelta(t, float64(rhoValue(2, 1))*float64(rhoValue(2, 1)), rho2.Float(101, 0), 1e-9)
	assert.True(t, s.Loaded("rho2", family.Gas))

	_, err = s.Get("rho2", family.DarkMatter)
	assert.ErrorIs(t, err, ErrNotLoadable)
}

func TestFoldedVectors(t *testing.T) {
	fs := memfile.New()
	root := fs.Create("folded.hdf5")
	root.Dataset("PartType1/ParticleIDs", []int64{1, 2, 3, 4})
	root.Dataset("PartType1/Coordinates", make([]float64, 12))
	root.Dataset("PartType1/Velocities", make([]float32, 10))

	s := openTest(t, fs, "folded.hdf5")
	pos, err := s.Load("pos", family.DarkMatter)
	require.NoError(t, err)
	assert.Equal(t, 3, pos.Dim)
	assert.Equal(t, 4, pos.Len())

	_, err = s.Load("vel", family.DarkMatter)
	assert.ErrorIs(t, err, ErrShape)
}

func TestUnitMismatchIsFatal(t *testing.T) {
	fs := memfile.New()
	root := fs.Create("bad.hdf5")
	root.Group("Units").
		SetAttr("UnitLength_in_cm", kpc).
		SetAttr("UnitMass_in_g", uMass).
		SetAttr("UnitVelocity_in_cm_per_s", 1e5)
	root.Dataset("PartType0/ParticleIDs", []int64{1})
	root.Dataset("PartType0/Coordinates", []float32{1, 2, 3}, 1, 3).
		SetAttr("VarDescription", "U_L [cm]").
		SetAttr("CGSConversionFactor", 1.0)

	s := openTest(t, fs, "bad.hdf5")
	_, err := s.Load("pos", family.Gas)
	assert.ErrorIs(t, err, ErrUnitInference)
}

func TestDefaultUnitsWarn(t *testing.T) {
	fs := memfile.New()
	root := fs.Create("plain.hdf5")
	root.Group("Header").SetAttr("Redshift", 0.0)
	root.Dataset("PartType1/ParticleIDs", []int64{1, 2})
	root.Dataset("PartType1/Coordinates", make([]float32, 6), 2, 3)

	core, logs := observer.New(zapcore.WarnLevel)
	s, err := Open("plain.hdf5", WithBackend(fs), WithLogger(zap.New(core)))
	require.NoError(t, err)
	defer s.Close()

	assert.True(t, s.Units().Defaulted)
	assert.Equal(t, 1, logs.FilterMessageSnippet("default units").Len())

	pos, err := s.Load("pos", family.DarkMatter)
	require.NoError(t, err)
	// no unit metadata: the missing description warns and pos falls back to the length unit
	assert.True(t, pos.Unit.Close(s.Units().Length, 1e-12))
	assert.Equal(t, 1, logs.FilterMessageSnippet("VarDescription").Len())
	a, ok := s.Properties().Float("a")
	require.True(t, ok)
	assert.InDelta(t, 1, a, 0)
}

func TestArepoExponents(t *testing.T) {
	fs := memfile.New()
	root := fs.Create("arepo.hdf5")
	root.Group("Config").SetAttr("VORONOI", int64(1))
	root.Group("Parameters").
		SetAttr("UnitLength_in_cm", kpc).
		SetAttr("UnitMass_in_g", uMass).
		SetAttr("UnitVelocity_in_cm_per_s", 1e5)
	root.Group("Header").SetAttr("Time", 1.0)
	root.Dataset("PartType0/ParticleIDs", []int64{1, 2})
	root.Dataset("PartType0/Coordinates", make([]float64, 6), 2, 3).
		SetAttr("length_scaling", 1.0).
		SetAttr("mass_scaling", 0.0).
		SetAttr("velocity_scaling", 0.0).
		SetAttr("a_scaling", 1.0).
		SetAttr("h_scaling", -1.0).
		SetAttr("to_cgs", kpc)

	s := openTest(t, fs, "arepo.hdf5")
	assert.Equal(t, "arepo", s.Variant().Name)
	pos, err := s.Load("pos", family.Gas)
	require.NoError(t, err)
	want := units.Scalar(kpc).Mul(units.Cm).Mul(units.ScaleFactor).Mul(units.Hubble.Pow(units.Int(-1)))
	assert.Truef(t, pos.Unit.Close(want, 1e-9), "unit %v", pos.Unit)
}

func TestSubFindLayout(t *testing.T) {
	fs := memfile.New()
	for i, n := range []int{2, 3} {
		root := fs.Create("subfind." + string(rune('0'+i)) + ".hdf5")
		fof := root.Group("FOF").SetAttr("NTask", int64(2))
		ids := make([]int64, n)
		for j := range ids {
			ids[j] = int64(10*i + j)
		}
		fof.Dataset("PartType4/ParticleIDs", ids)
	}

	s := openTest(t, fs, "subfind")
	assert.Equal(t, "subfind", s.Variant().Name)
	assert.Equal(t, 5, s.FamilyLen(family.Star))

	iord, err := s.Load("iord", family.Star)
	require.NoError(t, err)
	assert.Equal(t, []int64{0, 1, 10, 11, 12}, iord.Data)
}

func TestOpenErrors(t *testing.T) {
	fs := memfile.New()
	fs.Create("empty.hdf5").Group("Header")

	_, err := Open("missing", WithBackend(fs), WithLogger(zap.NewNop()))
	assert.ErrorIs(t, err, ErrFormat)
	_, err = Open("empty.hdf5", WithBackend(fs), WithLogger(zap.NewNop()))
	assert.ErrorIs(t, err, ErrNoVariant)
	s, err := Open("empty.hdf5", WithBackend(fs), WithVariant(Gadget), WithLogger(zap.NewNop()))
	require.NoError(t, err)
	defer s.Close()
	assert.Empty(t, s.Families())
	assert.Empty(t, s.LoadableKeys(""))
	_, err = s.Load("pos", "")
	assert.ErrorIs(t, err, ErrNotLoadable)
}
