// Package h5 adapts github.com/robert-malhotra/go-hdf5 to the container
// interfaces.
//
// go-hdf5 only links new objects correctly into files it is creating: a
// file reopened for writing loses its root links when a subgroup is
// extended. Backend therefore opens every file read-only and reports
// ErrUnsupported for writes; new files are produced with a Writer.
package h5

import (
	"errors"
	"fmt"
	"reflect"

	"github.com/robert-malhotra/go-gadgethdf/internal/container"
	"github.com/robert-malhotra/go-hdf5/hdf5"
)

// Backend opens HDF5 files.
type Backend struct{}

// IsContainer reports whether path is a readable HDF5 file.
func (Backend) IsContainer(path string) bool {
	f, err := hdf5.Open(path)
	if err != nil {
		return false
	}
	f.Close()
	return true
}

// Open opens path. ReadWrite is accepted so a snapshot can switch modes,
// but writes through the returned file fail with ErrUnsupported.
func (Backend) Open(path string, mode container.Mode) (container.File, error) {
	f, err := hdf5.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	return &file{h: f, mode: mode}, nil
}

type file struct {
	h    *hdf5.File
	mode container.Mode
}

func (f *file) Root() container.Group {
	return &group{g: f.h.Root(), f: f}
}

func (f *file) Close() error {
	return f.h.Close()
}

type group struct {
	g *hdf5.Group
	f *file
}

func (g *group) Name() string { return g.g.Name() }
func (g *group) Path() string { return g.g.Path() }

func (g *group) AttrNames() []string { return g.g.Attrs() }

func (g *group) Attr(name string) (interface{}, bool) {
	return attrValue(g.g.Attr(name))
}

func (g *group) Keys() ([]string, error) {
	return g.g.Members()
}

func (g *group) OpenGroup(path string) (container.Group, error) {
	child, err := g.g.OpenGroup(path)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", container.JoinPath(g.Path(), path), translate(err))
	}
	return &group{g: child, f: g.f}, nil
}

func (g *group) OpenDataset(path string) (container.Dataset, error) {
	ds, err := g.g.OpenDataset(path)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", container.JoinPath(g.Path(), path), translate(err))
	}
	t, err := ds.GoType()
	if err != nil {
		return nil, fmt.Errorf("%s: %w: %v", ds.Path(), container.ErrUnsupported, err)
	}
	return &dataset{d: ds, elem: t, f: g.f}, nil
}

func (g *group) CreateGroup(name string) (container.Group, error) {
	if g.f.mode != container.ReadWrite {
		return nil, container.ErrReadOnly
	}
	return nil, fmt.Errorf("creating group %s in existing file: %w", container.JoinPath(g.Path(), name), container.ErrUnsupported)
}

func (g *group) RequireDataset(name string, shape []int, elem reflect.Type) (container.Dataset, error) {
	if g.f.mode != container.ReadWrite {
		return nil, container.ErrReadOnly
	}
	existing, err := g.OpenDataset(name)
	if err != nil {
		if errors.Is(err, container.ErrNotFound) {
			return nil, fmt.Errorf("creating dataset %s in existing file: %w", container.JoinPath(g.Path(), name), container.ErrUnsupported)
		}
		return nil, err
	}
	if !sameShape(existing.Shape(), shape) || existing.Type() != elem {
		return nil, fmt.Errorf("%s has shape %v of %s, want %v of %s: %w",
			existing.Path(), existing.Shape(), existing.Type(), shape, elem, container.ErrShape)
	}
	return existing, nil
}

type dataset struct {
	d    *hdf5.Dataset
	elem reflect.Type
	f    *file
}

func (d *dataset) Name() string       { return d.d.Name() }
func (d *dataset) Path() string       { return d.d.Path() }
func (d *dataset) Type() reflect.Type { return d.elem }

func (d *dataset) Shape() []int {
	s := d.d.Shape()
	if s == nil {
		return nil
	}
	out := make([]int, len(s))
	for i, v := range s {
		out[i] = int(v)
	}
	return out
}

func (d *dataset) AttrNames() []string { return d.d.Attrs() }

func (d *dataset) Attr(name string) (interface{}, bool) {
	return attrValue(d.d.Attr(name))
}

func (d *dataset) Read() (interface{}, error) {
	ptr := reflect.New(reflect.SliceOf(d.elem))
	if err := d.d.Read(ptr.Interface()); err != nil {
		return nil, fmt.Errorf("reading %s: %w", d.Path(), err)
	}
	return ptr.Elem().Interface(), nil
}

func (d *dataset) Write(interface{}) error {
	if d.f.mode != container.ReadWrite {
		return container.ErrReadOnly
	}
	return fmt.Errorf("rewriting %s: %w", d.Path(), container.ErrUnsupported)
}

func attrValue(a *hdf5.Attribute) (interface{}, bool) {
	if a == nil {
		return nil, false
	}
	v, err := a.Value()
	if err != nil {
		return nil, false
	}
	return v, true
}

func sameShape(a, b []int) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// translate maps go-hdf5 errors onto the container sentinels.
func translate(err error) error {
	switch {
	case errors.Is(err, hdf5.ErrNotFound):
		return fmt.Errorf("%w: %w", container.ErrNotFound, err)
	case errors.Is(err, hdf5.ErrNotGroup):
		return fmt.Errorf("%w: %w", container.ErrNotGroup, err)
	case errors.Is(err, hdf5.ErrNotDataset):
		return fmt.Errorf("%w: %w", container.ErrNotDataset, err)
	}
	// unresolvable links and malformed paths read as absent
	return fmt.Errorf("%w: %w", container.ErrNotFound, err)
}
