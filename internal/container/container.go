// Package container abstracts the hierarchical files a snapshot is stored
// in: groups of named datasets, both carrying attributes. Backends adapt a
// concrete file format (HDF5, in-memory) to these interfaces.
package container

import (
	"errors"
	"reflect"
)

// Common errors
var (
	ErrNotFound    = errors.New("object not found")
	ErrNotGroup    = errors.New("object is not a group")
	ErrNotDataset  = errors.New("object is not a dataset")
	ErrExists      = errors.New("object already exists")
	ErrReadOnly    = errors.New("container opened read-only")
	ErrShape       = errors.New("shape or type mismatch")
	ErrUnsupported = errors.New("unsupported by backend")
)

// Mode is the access mode of an open file.
type Mode int

const (
	ReadOnly Mode = iota
	ReadWrite
)

func (m Mode) String() string {
	if m == ReadWrite {
		return "r+"
	}
	return "r"
}

// Backend opens files of one concrete format.
type Backend interface {
	// IsContainer reports whether path opens as a file of this format.
	IsContainer(path string) bool
	Open(path string, mode Mode) (File, error)
}

// File is an open container file.
type File interface {
	Root() Group
	Close() error
}

// Attrs gives access to the attributes of a group or dataset. Values are
// int64, uint64, float64, string, or slices of those.
type Attrs interface {
	AttrNames() []string
	Attr(name string) (interface{}, bool)
}

// Node is the part common to groups and datasets.
type Node interface {
	Attrs
	Name() string
	Path() string
}

// Group is a named collection of groups and datasets.
type Group interface {
	Node
	// Keys returns the names of the direct members.
	Keys() ([]string, error)
	// OpenGroup and OpenDataset accept relative paths with '/' separators.
	OpenGroup(path string) (Group, error)
	OpenDataset(path string) (Dataset, error)
	CreateGroup(name string) (Group, error)
	// RequireDataset returns the dataset called name, creating it when
	// absent. An existing dataset must match shape and element type exactly.
	RequireDataset(name string, shape []int, elem reflect.Type) (Dataset, error)
}

// Dataset is an n-dimensional array of one element type, read and written
// as a flat Go slice in row-major order.
type Dataset interface {
	Node
	// Shape is nil for scalar datasets.
	Shape() []int
	Type() reflect.Type
	Read() (interface{}, error)
	Write(data interface{}) error
}

// Len is the extent of the first axis, 1 for scalars.
func Len(d Dataset) int {
	s := d.Shape()
	if len(s) == 0 {
		return 1
	}
	return s[0]
}

// Size is the total number of elements.
func Size(d Dataset) int {
	n := 1
	for _, s := range d.Shape() {
		n *= s
	}
	return n
}

// Has reports whether path names a group or a dataset below g.
func Has(g Group, path string) bool {
	if _, err := g.OpenGroup(path); err == nil {
		return true
	}
	_, err := g.OpenDataset(path)
	return err == nil
}

// HasGroup reports whether path names a group below g.
func HasGroup(g Group, path string) bool {
	_, err := g.OpenGroup(path)
	return err == nil
}

// HasDataset reports whether path names a dataset below g.
func HasDataset(g Group, path string) bool {
	_, err := g.OpenDataset(path)
	return err == nil
}
