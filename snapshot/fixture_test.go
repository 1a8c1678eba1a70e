package snapshot

import (
	"fmt"
	"testing"

	"github.com/robert-malhotra/go-gadgethdf/internal/container/memfile"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const (
	kpc   = 3.085678e21
	uMass = 1.989e43
)

var (
	gasCounts = []int{100, 0, 50}
	dmCounts  = []int{10, 5, 0}
)

// posValue is component c of particle j in shard i.
func posValue(i, j, c int) float32 {
	return float32(i*1000 + j*3 + c)
}

func rhoValue(i, j int) float32 {
	return float32(i) + float32(j)/1000
}

// gadgetSnapshot builds a cosmological three-shard snapshot "snap" with
// gas in PartType0 (100, 0 and 50 particles) and dark matter in PartType1
// (10, 5 and none) whose masses live in the header mass table.
func gadgetSnapshot() *memfile.FS {
	fs := memfile.New()
	idBase := int64(1)
	for i := 0; i < 3; i++ {
		root := fs.Create(fmt.Sprintf("snap.%d.hdf5", i))
		root.Group("Header").
			SetAttr("NumFilesPerSnapshot", []int64{3}).
			SetAttr("MassTable", []float64{0, 2.0, 0, 0, 0, 0}).
			SetAttr("ExpansionFactor", 0.5).
			SetAttr("Redshift", 1.0).
			SetAttr("HubbleParam", 0.7).
			SetAttr("Omega0", 0.3).
			SetAttr("OmegaLambda", 0.7).
			SetAttr("BoxSize", 100.0).
			SetAttr("SofteningClassOfPartType0", int64(0)).
			SetAttr("SofteningClassOfPartType1", int64(1)).
			SetAttr("SofteningComovingClass0", 2.0).
			SetAttr("SofteningMaxPhysClass0", 0.5).
			SetAttr("SofteningComovingClass1", 0.5).
			SetAttr("SofteningMaxPhysClass1", 1.0)
		root.Group("Units").
			SetAttr("UnitLength_in_cm", kpc).
			SetAttr("UnitMass_in_g", uMass).
			SetAttr("UnitVelocity_in_cm_per_s", 1e5)

		n := gasCounts[i]
		ids := make([]int64, n)
		pos := make([]float32, 3*n)
		mass := make([]float32, n)
		rho := make([]float32, n)
		for j := 0; j < n; j++ {
			ids[j] = idBase
			idBase++
			for c := 0; c < 3; c++ {
				pos[3*j+c] = posValue(i, j, c)
			}
			mass[j] = 0.25
			rho[j] = rhoValue(i, j)
		}
		gas := root.Group("PartType0")
		gas.Dataset("ParticleIDs", ids)
		gas.Dataset("Coordinates", pos, n, 3).
			SetAttr("VarDescription", "Co-moving coordinates. Physical position: r = ax = Coordinates h^-1 a U_L [cm]").
			SetAttr("CGSConversionFactor", kpc).
			SetAttr("aexp-scale-exponent", 1.0).
			SetAttr("h-scale-exponent", -1.0)
		gas.Dataset("Masses", mass).
			SetAttr("VarDescription", "Particle mass. Physical mass: m = Masses h^-1 U_M [g]").
			SetAttr("CGSConversionFactor", uMass).
			SetAttr("aexp-scale-exponent", 0.0).
			SetAttr("h-scale-exponent", -1.0)
		gas.Dataset("Density", rho).
			SetAttr("VarDescription", "Co-moving mass density. Physical rho = Density h^2 a^-3 U_M U_L^-3 [g cm^-3]").
			SetAttr("CGSConversionFactor", uMass/(kpc*kpc*kpc)).
			SetAttr("aexp-scale-exponent", -3.0).
			SetAttr("h-scale-exponent", 2.0)

		if m := dmCounts[i]; m > 0 {
			ids := make([]int64, m)
			pos := make([]float32, 3*m)
			for j := 0; j < m; j++ {
				ids[j] = idBase
				idBase++
				for c := 0; c < 3; c++ {
					pos[3*j+c] = -posValue(i, j, c)
				}
			}
			dm := root.Group("PartType1")
			dm.Dataset("ParticleIDs", ids)
			dm.Dataset("Coordinates", pos, m, 3).
				SetAttr("VarDescription", "Co-moving coordinates. Physical position: r = ax = Coordinates h^-1 a U_L [cm]").
				SetAttr("CGSConversionFactor", kpc).
				SetAttr("aexp-scale-exponent", 1.0).
				SetAttr("h-scale-exponent", -1.0)
		}
	}
	return fs
}

func openTest(t *testing.T, fs *memfile.FS, path string, opts ...Option) *Snapshot {
	t.Helper()
	opts = append([]Option{WithBackend(fs), WithLogger(zap.NewNop())}, opts...)
	s, err := Open(path, opts...)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}
