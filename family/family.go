// Package family defines the abstract particle families a snapshot is
// partitioned into.
package family

import (
	"fmt"
	"sort"
)

// Family is a schema-independent particle class such as gas or dark matter.
// The zero value means "no family", i.e. the whole snapshot.
type Family string

// Known families.
const (
	Gas        Family = "gas"
	DarkMatter Family = "dm"
	Star       Family = "star"
	BlackHole  Family = "bh"
	Neutrino   Family = "neutrino"
)

// All is the fixed enumeration of families, in canonical order.
var All = []Family{Gas, DarkMatter, Star, BlackHole, Neutrino}

var aliases = map[string]Family{
	"gas":        Gas,
	"g":          Gas,
	"dm":         DarkMatter,
	"d":          DarkMatter,
	"darkmatter": DarkMatter,
	"star":       Star,
	"stars":      Star,
	"s":          Star,
	"bh":         BlackHole,
	"blackhole":  BlackHole,
	"neutrino":   Neutrino,
}

// Get returns the family with the given name or alias.
func Get(name string) (Family, error) {
	f, ok := aliases[name]
	if !ok {
		return "", fmt.Errorf("unknown family %q", name)
	}
	return f, nil
}

// String returns the family name.
func (f Family) String() string {
	if f == "" {
		return "all"
	}
	return string(f)
}

// Names returns the canonical names of all known families, sorted.
func Names() []string {
	names := make([]string, 0, len(All))
	for _, f := range All {
		names = append(names, string(f))
	}
	sort.Strings(names)
	return names
}
