// Package memfile is an in-memory container backend. Files are registered
// under a path in an FS and built with the Group and Dataset builders; the
// FS then opens them like any other backend.
package memfile

import (
	"fmt"
	"reflect"
	"sort"

	"github.com/robert-malhotra/go-gadgethdf/internal/container"
)

// FS is a set of in-memory files keyed by path.
type FS struct {
	files map[string]*Group
	opens map[string]int
}

// New returns an empty FS.
func New() *FS {
	return &FS{
		files: make(map[string]*Group),
		opens: make(map[string]int),
	}
}

// Create registers an empty file at path, replacing any previous one, and
// returns its root group for building.
func (fs *FS) Create(path string) *Group {
	root := newGroup("/")
	fs.files[path] = root
	return root
}

// Lookup returns the root of the file at path.
func (fs *FS) Lookup(path string) (*Group, bool) {
	g, ok := fs.files[path]
	return g, ok
}

// Remove forgets the file at path.
func (fs *FS) Remove(path string) {
	delete(fs.files, path)
}

// Paths lists the registered files, sorted.
func (fs *FS) Paths() []string {
	out := make([]string, 0, len(fs.files))
	for p := range fs.files {
		out = append(out, p)
	}
	sort.Strings(out)
	return out
}

// Opens reports how many times the file at path has been opened.
func (fs *FS) Opens(path string) int {
	return fs.opens[path]
}

// IsContainer reports whether a file was created at path.
func (fs *FS) IsContainer(path string) bool {
	_, ok := fs.files[path]
	return ok
}

// Open returns a handle on the file at path. Handles share the file's data.
func (fs *FS) Open(path string, mode container.Mode) (container.File, error) {
	root, ok := fs.files[path]
	if !ok {
		return nil, fmt.Errorf("memfile %s: %w", path, container.ErrNotFound)
	}
	fs.opens[path]++
	return &file{root: root, mode: mode}, nil
}

type file struct {
	root   *Group
	mode   container.Mode
	closed bool
}

func (f *file) Root() container.Group {
	return &groupHandle{g: f.root, f: f}
}

func (f *file) Close() error {
	f.closed = true
	return nil
}

// Group is a buildable in-memory group.
type Group struct {
	path     string
	attrs    *container.MapAttrs
	order    []string
	children map[string]interface{}
}

func newGroup(path string) *Group {
	return &Group{
		path:     path,
		attrs:    container.NewMapAttrs(),
		children: make(map[string]interface{}),
	}
}

// Group returns the group at the relative path, creating missing groups.
// It panics if a dataset is in the way.
func (g *Group) Group(path string) *Group {
	cur := g
	for _, part := range container.SplitPath(path) {
		child, ok := cur.children[part]
		if !ok {
			ng := newGroup(container.JoinPath(cur.path, part))
			cur.add(part, ng)
			cur = ng
			continue
		}
		next, ok := child.(*Group)
		if !ok {
			panic(fmt.Sprintf("memfile: %s is a dataset", container.JoinPath(cur.path, part)))
		}
		cur = next
	}
	return cur
}

// Dataset stores data, a flat slice, under the relative path. shape
// defaults to the slice length. A previous object of that name is replaced.
func (g *Group) Dataset(path string, data interface{}, shape ...int) *Dataset {
	dir, name := container.SplitDir(path)
	parent := g.Group(dir)
	if len(shape) == 0 {
		shape = []int{container.SliceLen(data)}
	}
	d := &Dataset{
		path:  container.JoinPath(parent.path, name),
		shape: append([]int(nil), shape...),
		data:  data,
		attrs: container.NewMapAttrs(),
	}
	parent.add(name, d)
	return d
}

// Path returns the absolute path of the group.
func (g *Group) Path() string {
	return g.path
}

// SetAttr sets an attribute on the group.
func (g *Group) SetAttr(name string, value interface{}) *Group {
	g.attrs.Set(name, value)
	return g
}

func (g *Group) add(name string, child interface{}) {
	if _, ok := g.children[name]; !ok {
		g.order = append(g.order, name)
	}
	g.children[name] = child
}

func (g *Group) lookup(path string) (interface{}, error) {
	var cur interface{} = g
	for _, part := range container.SplitPath(path) {
		grp, ok := cur.(*Group)
		if !ok {
			return nil, fmt.Errorf("%s: %w", path, container.ErrNotGroup)
		}
		child, ok := grp.children[part]
		if !ok {
			return nil, fmt.Errorf("%s: %w", container.JoinPath(grp.path, part), container.ErrNotFound)
		}
		cur = child
	}
	return cur, nil
}

// Dataset is a buildable in-memory dataset.
type Dataset struct {
	path  string
	shape []int
	data  interface{}
	attrs *container.MapAttrs
}

// SetAttr sets an attribute on the dataset.
func (d *Dataset) SetAttr(name string, value interface{}) *Dataset {
	d.attrs.Set(name, value)
	return d
}

// Data returns the stored slice.
func (d *Dataset) Data() interface{} {
	return d.data
}

// Shape returns the stored shape.
func (d *Dataset) Shape() []int {
	return append([]int(nil), d.shape...)
}

type groupHandle struct {
	g *Group
	f *file
}

func (h *groupHandle) Name() string {
	_, name := container.SplitDir(h.g.path)
	return name
}

func (h *groupHandle) Path() string                         { return h.g.path }
func (h *groupHandle) AttrNames() []string                  { return h.g.attrs.AttrNames() }
func (h *groupHandle) Attr(name string) (interface{}, bool) { return h.g.attrs.Attr(name) }

func (h *groupHandle) Keys() ([]string, error) {
	return append([]string(nil), h.g.order...), nil
}

func (h *groupHandle) OpenGroup(path string) (container.Group, error) {
	obj, err := h.g.lookup(path)
	if err != nil {
		return nil, err
	}
	g, ok := obj.(*Group)
	if !ok {
		return nil, fmt.Errorf("%s: %w", path, container.ErrNotGroup)
	}
	return &groupHandle{g: g, f: h.f}, nil
}

func (h *groupHandle) OpenDataset(path string) (container.Dataset, error) {
	obj, err := h.g.lookup(path)
	if err != nil {
		return nil, err
	}
	d, ok := obj.(*Dataset)
	if !ok {
		return nil, fmt.Errorf("%s: %w", path, container.ErrNotDataset)
	}
	return &datasetHandle{d: d, f: h.f}, nil
}

func (h *groupHandle) CreateGroup(name string) (container.Group, error) {
	if h.f.mode != container.ReadWrite {
		return nil, container.ErrReadOnly
	}
	if _, ok := h.g.children[name]; ok {
		return nil, fmt.Errorf("%s: %w", container.JoinPath(h.g.path, name), container.ErrExists)
	}
	return &groupHandle{g: h.g.Group(name), f: h.f}, nil
}

func (h *groupHandle) RequireDataset(name string, shape []int, elem reflect.Type) (container.Dataset, error) {
	if h.f.mode != container.ReadWrite {
		return nil, container.ErrReadOnly
	}
	if child, ok := h.g.children[name]; ok {
		d, ok := child.(*Dataset)
		if !ok {
			return nil, fmt.Errorf("%s: %w", container.JoinPath(h.g.path, name), container.ErrNotDataset)
		}
		if !reflect.DeepEqual(d.shape, shape) || reflect.TypeOf(d.data).Elem() != elem {
			return nil, fmt.Errorf("%s has shape %v of %s, want %v of %s: %w",
				d.path, d.shape, reflect.TypeOf(d.data).Elem(), shape, elem, container.ErrShape)
		}
		return &datasetHandle{d: d, f: h.f}, nil
	}
	n := 1
	for _, s := range shape {
		n *= s
	}
	d := h.g.Dataset(name, container.MakeSlice(elem, n), shape...)
	return &datasetHandle{d: d, f: h.f}, nil
}

type datasetHandle struct {
	d *Dataset
	f *file
}

func (h *datasetHandle) Name() string {
	_, name := container.SplitDir(h.d.path)
	return name
}

func (h *datasetHandle) Path() string                         { return h.d.path }
func (h *datasetHandle) Shape() []int                         { return h.d.Shape() }
func (h *datasetHandle) Type() reflect.Type                   { return reflect.TypeOf(h.d.data).Elem() }
func (h *datasetHandle) AttrNames() []string                  { return h.d.attrs.AttrNames() }
func (h *datasetHandle) Attr(name string) (interface{}, bool) { return h.d.attrs.Attr(name) }

// Read returns a copy so callers never alias file contents.
func (h *datasetHandle) Read() (interface{}, error) {
	out := container.MakeSlice(h.Type(), container.SliceLen(h.d.data))
	if err := container.CopyInto(out, 0, h.d.data); err != nil {
		return nil, err
	}
	return out, nil
}

func (h *datasetHandle) Write(data interface{}) error {
	if h.f.mode != container.ReadWrite {
		return container.ErrReadOnly
	}
	if n := container.SliceLen(data); n != container.SliceLen(h.d.data) {
		return fmt.Errorf("%s: writing %d elements into %d: %w", h.d.path, n, container.SliceLen(h.d.data), container.ErrShape)
	}
	return container.CopyInto(h.d.data, 0, data)
}
