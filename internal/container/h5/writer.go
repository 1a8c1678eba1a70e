package h5

import (
	"fmt"

	"github.com/robert-malhotra/go-gadgethdf/internal/container"
	"github.com/robert-malhotra/go-hdf5/hdf5"
)

// Attr is a dataset attribute written with Writer.Dataset.
type Attr struct {
	Name  string
	Value interface{}
}

// Writer creates a new HDF5 file. Groups may be nested one level below the
// root; datasets are one-dimensional and may carry attributes.
type Writer struct {
	f      *hdf5.File
	groups map[string]*hdf5.Group
}

// Create creates path, truncating any existing file.
func Create(path string) (*Writer, error) {
	f, err := hdf5.Create(path)
	if err != nil {
		return nil, fmt.Errorf("creating %s: %w", path, err)
	}
	return &Writer{f: f, groups: map[string]*hdf5.Group{"": f.Root()}}, nil
}

// Group creates a group directly below the root. Creating an existing
// group is a no-op.
func (w *Writer) Group(name string) error {
	_, err := w.group(name)
	return err
}

func (w *Writer) group(name string) (*hdf5.Group, error) {
	parts := container.SplitPath(name)
	if len(parts) > 1 {
		return nil, fmt.Errorf("group %s: nested groups: %w", name, container.ErrUnsupported)
	}
	key := ""
	if len(parts) == 1 {
		key = parts[0]
	}
	if g, ok := w.groups[key]; ok {
		return g, nil
	}
	g, err := w.f.Root().CreateGroup(key)
	if err != nil {
		return nil, fmt.Errorf("creating group %s: %w", key, err)
	}
	w.groups[key] = g
	return g, nil
}

// Dataset writes data, a flat slice, at path. The parent group is created
// if needed.
func (w *Writer) Dataset(path string, data interface{}, attrs ...Attr) error {
	dir, name := container.SplitDir(path)
	if name == "" {
		return fmt.Errorf("empty dataset path: %w", container.ErrNotFound)
	}
	g, err := w.group(dir)
	if err != nil {
		return err
	}
	opts := make([]hdf5.DatasetOption, 0, len(attrs))
	for _, a := range attrs {
		opts = append(opts, hdf5.WithAttribute(a.Name, a.Value))
	}
	if _, err := g.CreateDataset(name, data, opts...); err != nil {
		return fmt.Errorf("writing %s: %w", container.CleanPath(path), err)
	}
	return nil
}

// Close flushes and closes the file.
func (w *Writer) Close() error {
	return w.f.Close()
}
