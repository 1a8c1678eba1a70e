package snapshot

import "github.com/robert-malhotra/go-gadgethdf/family"

// ComputeFunc computes a derived array for family f, or for the whole
// snapshot when f is empty. The returned array's name and family are set
// by the caller.
type ComputeFunc func(s *Snapshot, f family.Family) (*Array, error)

// Derived is a named quantity computed from other arrays. An empty Family
// makes it available for every scope.
type Derived struct {
	Name    string
	Family  family.Family
	Compute ComputeFunc
}

// Registry is an ordered list of derived arrays. Get consults it only for
// names that are not loadable from the files, so an array on disk always
// wins over a derived one of the same name.
type Registry struct {
	entries []Derived
}

// DefaultRegistry is used by snapshots opened without WithRegistry.
var DefaultRegistry = NewRegistry()

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{}
}

// Register appends d. Earlier registrations of the same name take priority.
func (r *Registry) Register(d Derived) {
	r.entries = append(r.entries, d)
}

// Lookup returns the first entry for name that applies to f.
func (r *Registry) Lookup(name string, f family.Family) (Derived, bool) {
	for _, d := range r.entries {
		if d.Name == name && (d.Family == "" || d.Family == f) {
			return d, true
		}
	}
	return Derived{}, false
}

// Names lists the registered names in registration order, without repeats.
func (r *Registry) Names() []string {
	seen := make(map[string]bool)
	var out []string
	for _, d := range r.entries {
		if !seen[d.Name] {
			seen[d.Name] = true
			out = append(out, d.Name)
		}
	}
	return out
}
