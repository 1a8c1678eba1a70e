package container

import (
	"fmt"
	"reflect"
)

// constDataset is a virtual one-dimensional dataset whose every element
// holds the same value. It stands in for per-particle values a file stores
// once, such as header mass tables.
type constDataset struct {
	path  string
	value float64
	n     int
	elem  reflect.Type
	attrs Attrs
}

// NewConst returns a read-only dataset of n copies of value with element type elem.
func NewConst(path string, value float64, n int, elem reflect.Type) Dataset {
	return &constDataset{path: CleanPath(path), value: value, n: n, elem: elem, attrs: NoAttrs}
}

func (c *constDataset) Name() string {
	_, name := SplitDir(c.path)
	return name
}

func (c *constDataset) Path() string                         { return c.path }
func (c *constDataset) Shape() []int                         { return []int{c.n} }
func (c *constDataset) Type() reflect.Type                   { return c.elem }
func (c *constDataset) AttrNames() []string                  { return nil }
func (c *constDataset) Attr(name string) (interface{}, bool) { return c.attrs.Attr(name) }

func (c *constDataset) Read() (interface{}, error) {
	out := reflect.MakeSlice(reflect.SliceOf(c.elem), c.n, c.n)
	v := reflect.ValueOf(c.value).Convert(c.elem)
	for i := 0; i < c.n; i++ {
		out.Index(i).Set(v)
	}
	return out.Interface(), nil
}

func (c *constDataset) Write(interface{}) error {
	return fmt.Errorf("%s is derived from header values: %w", c.path, ErrReadOnly)
}

// IsConst reports whether d is a virtual constant dataset.
func IsConst(d Dataset) bool {
	_, ok := d.(*constDataset)
	return ok
}
