package snapshot

import (
	"fmt"
	"reflect"

	"github.com/robert-malhotra/go-gadgethdf/family"
	"github.com/robert-malhotra/go-gadgethdf/internal/container"
	"github.com/robert-malhotra/go-gadgethdf/units"
)

// Array is a loaded per-particle quantity. Data is a flat slice ([]float32,
// []int64, ...) of Len()*Dim elements in particle-major order.
type Array struct {
	Name string
	// Family is the scope the array was loaded for; empty means the whole
	// snapshot.
	Family family.Family
	Type   reflect.Type
	Dim    int
	Data   interface{}
	Unit   units.Unit
}

func newArray(name string, fam family.Family, elem reflect.Type, n, dim int, unit units.Unit) *Array {
	return &Array{
		Name:   name,
		Family: fam,
		Type:   elem,
		Dim:    dim,
		Data:   container.MakeSlice(elem, n*dim),
		Unit:   unit,
	}
}

// NewFloatArray wraps data, which must hold a multiple of dim values.
func NewFloatArray(name string, fam family.Family, data []float64, dim int, unit units.Unit) *Array {
	if dim < 1 {
		dim = 1
	}
	return &Array{
		Name:   name,
		Family: fam,
		Type:   reflect.TypeOf(float64(0)),
		Dim:    dim,
		Data:   data,
		Unit:   unit,
	}
}

// Len is the number of particles.
func (a *Array) Len() int {
	if a.Dim == 0 {
		return 0
	}
	return container.SliceLen(a.Data) / a.Dim
}

// Rows returns the sub-slice of Data covering particles [start, stop).
// It shares memory with a.
func (a *Array) Rows(start, stop int) interface{} {
	return container.Slice(a.Data, start*a.Dim, stop*a.Dim)
}

// view returns the particles [start, stop) as an Array sharing memory with a.
func (a *Array) view(fam family.Family, start, stop int) *Array {
	v := *a
	v.Family = fam
	v.Data = a.Rows(start, stop)
	return &v
}

// Float64s returns a converted copy of Data.
func (a *Array) Float64s() ([]float64, error) {
	out := make([]float64, container.SliceLen(a.Data))
	if err := container.CopyInto(out, 0, a.Data); err != nil {
		return nil, fmt.Errorf("array %s: %w", a.Name, err)
	}
	return out, nil
}

// Float returns element j of particle i converted to float64.
func (a *Array) Float(i, j int) float64 {
	v := reflect.ValueOf(a.Data).Index(i*a.Dim + j)
	switch v.Kind() {
	case reflect.Float32, reflect.Float64:
		return v.Float()
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return float64(v.Int())
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return float64(v.Uint())
	}
	return 0
}

func (a *Array) String() string {
	return fmt.Sprintf("%s[%d×%d %s] (%s)", a.Name, a.Len(), a.Dim, a.Type, a.Unit)
}
