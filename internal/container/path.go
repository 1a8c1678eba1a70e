package container

import (
	"fmt"
	"reflect"
	"strings"
)

// SplitPath splits a path into its components. Leading and trailing slashes
// are dropped along with empty components.
//
// Examples:
//   - "/" -> []string{}
//   - "PartType0" -> []string{"PartType0"}
//   - "ElementAbundance//Iron/" -> []string{"ElementAbundance", "Iron"}
func SplitPath(path string) []string {
	parts := strings.Split(path, "/")
	out := parts[:0]
	for _, p := range parts {
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

// CleanPath normalizes a path so it starts with "/" and has no trailing slash.
func CleanPath(path string) string {
	return "/" + strings.Join(SplitPath(path), "/")
}

// JoinPath joins a parent path and a member name.
func JoinPath(parent, name string) string {
	if parent == "" || parent == "/" {
		return CleanPath(name)
	}
	return CleanPath(parent + "/" + name)
}

// SplitDir returns the group part and the final component of a relative path.
func SplitDir(path string) (dir, name string) {
	parts := SplitPath(path)
	if len(parts) == 0 {
		return "", ""
	}
	return strings.Join(parts[:len(parts)-1], "/"), parts[len(parts)-1]
}

// RequireGroup opens the group at path below g, creating every missing
// intermediate group.
func RequireGroup(g Group, path string) (Group, error) {
	cur := g
	for _, part := range SplitPath(path) {
		next, err := cur.OpenGroup(part)
		if err == nil {
			cur = next
			continue
		}
		if HasDataset(cur, part) {
			return nil, fmt.Errorf("%s: %w", JoinPath(cur.Path(), part), ErrNotGroup)
		}
		next, err = cur.CreateGroup(part)
		if err != nil {
			return nil, fmt.Errorf("creating group %s: %w", JoinPath(cur.Path(), part), err)
		}
		cur = next
	}
	return cur, nil
}

// RequireDatasetAt resolves the group part of a relative path with
// RequireGroup and then requires the dataset in it.
func RequireDatasetAt(g Group, path string, shape []int, elem reflect.Type) (Dataset, error) {
	dir, name := SplitDir(path)
	if name == "" {
		return nil, fmt.Errorf("empty dataset path: %w", ErrNotFound)
	}
	parent, err := RequireGroup(g, dir)
	if err != nil {
		return nil, err
	}
	return parent.RequireDataset(name, shape, elem)
}
