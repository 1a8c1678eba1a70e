package container

import (
	"errors"
	"sort"
	"strings"
)

// WalkFunc is called for each object during traversal.
// path is the object's path relative to the walk root.
// node is either a Group or a Dataset.
// err is any error encountered opening the object.
// Return nil to continue walking, SkipGroup to skip a group's members,
// or another error to stop.
type WalkFunc func(path string, node Node, err error) error

// SkipGroup can be returned from a WalkFunc on a group to skip its members.
var SkipGroup = errors.New("skip this group")

// Walk traverses every group and dataset below g. The callback is not
// called for g itself.
//
// Example:
//
//	Walk(root, func(path string, node Node, err error) error {
//	    if err != nil {
//	        return err
//	    }
//	    if ds, ok := node.(Dataset); ok {
//	        fmt.Println(path, ds.Shape())
//	    }
//	    return nil
//	})
func Walk(g Group, fn WalkFunc) error {
	return walkGroup(g, "", fn)
}

func walkGroup(g Group, prefix string, fn WalkFunc) error {
	members, err := g.Keys()
	if err != nil {
		return err
	}

	for _, name := range members {
		rel := name
		if prefix != "" {
			rel = prefix + "/" + name
		}

		if child, err := g.OpenGroup(name); err == nil {
			err := fn(rel, child, nil)
			if errors.Is(err, SkipGroup) {
				continue
			}
			if err != nil {
				return err
			}
			if err := walkGroup(child, rel, fn); err != nil {
				return err
			}
			continue
		}

		ds, err := g.OpenDataset(name)
		if err == nil {
			if err := fn(rel, ds, nil); err != nil {
				return err
			}
			continue
		}

		if err := fn(rel, nil, err); err != nil {
			return err
		}
	}
	return nil
}

// DatasetKeys returns the relative paths of every dataset below g, sorted.
// Objects that cannot be opened are skipped.
func DatasetKeys(g Group) ([]string, error) {
	var keys []string
	err := Walk(g, func(path string, node Node, err error) error {
		if err != nil {
			return nil
		}
		if _, ok := node.(Dataset); ok {
			keys = append(keys, path)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Strings(keys)
	return keys, nil
}

// GroupsWithPrefix returns the direct member groups of g whose names begin
// with prefix, in member order.
func GroupsWithPrefix(g Group, prefix string) ([]Group, error) {
	members, err := g.Keys()
	if err != nil {
		return nil, err
	}
	var out []Group
	for _, name := range members {
		if !strings.HasPrefix(name, prefix) {
			continue
		}
		if child, err := g.OpenGroup(name); err == nil {
			out = append(out, child)
		}
	}
	return out, nil
}
