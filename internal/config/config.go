// Package config holds the static tables that drive snapshot assembly:
// which native particle groups make up each family, how native dataset
// names map to canonical array names, and the units assumed for files
// without unit metadata.
package config

import (
	_ "embed"
	"fmt"
	"os"

	"github.com/robert-malhotra/go-gadgethdf/family"
	"gopkg.in/yaml.v3"
)

//go:embed default.yaml
var defaultYAML []byte

// Config is the full set of static tables.
type Config struct {
	TypeMapping  []FamilyGroups `yaml:"type_mapping"`
	NameMapping  []NameEntry    `yaml:"name_mapping"`
	DefaultUnits DefaultUnits   `yaml:"default_units"`
}

// FamilyGroups lists the candidate native groups of one family, in layout order.
type FamilyGroups struct {
	Family string   `yaml:"family"`
	Groups []string `yaml:"groups"`
}

// NameEntry maps one canonical array name to its native spellings.
type NameEntry struct {
	Name   string   `yaml:"name"`
	Native []string `yaml:"native"`
}

// UnitSpec is a cgs multiplier with scale-factor and Hubble exponents.
type UnitSpec struct {
	CGS float64 `yaml:"cgs"`
	A   float64 `yaml:"a"`
	H   float64 `yaml:"h"`
}

// DefaultUnits is the fallback base unit set.
type DefaultUnits struct {
	Velocity UnitSpec `yaml:"velocity"`
	Length   UnitSpec `yaml:"length"`
	Mass     UnitSpec `yaml:"mass"`
}

var defaultConfig = mustParse(defaultYAML)

func mustParse(data []byte) *Config {
	c, err := Parse(data)
	if err != nil {
		panic(fmt.Sprintf("config: embedded defaults: %v", err))
	}
	return c
}

// Default returns a copy of the embedded default tables.
func Default() *Config {
	return defaultConfig.Clone()
}

// Parse decodes and validates a YAML document.
func Parse(data []byte) (*Config, error) {
	var c Config
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

// Load reads a YAML file and overlays it on the defaults. A type mapping in
// the file replaces the default one wholesale; name entries replace the
// default entry of the same name or are appended; unit specs with a
// non-zero cgs value replace the default.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	var overlay Config
	if err := yaml.Unmarshal(data, &overlay); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}
	c := Default()
	c.Merge(&overlay)
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	return c, nil
}

// Merge overlays o onto c.
func (c *Config) Merge(o *Config) {
	if len(o.TypeMapping) > 0 {
		c.TypeMapping = append([]FamilyGroups(nil), o.TypeMapping...)
	}
	for _, e := range o.NameMapping {
		replaced := false
		for i := range c.NameMapping {
			if c.NameMapping[i].Name == e.Name {
				c.NameMapping[i] = e
				replaced = true
				break
			}
		}
		if !replaced {
			c.NameMapping = append(c.NameMapping, e)
		}
	}
	if o.DefaultUnits.Velocity.CGS != 0 {
		c.DefaultUnits.Velocity = o.DefaultUnits.Velocity
	}
	if o.DefaultUnits.Length.CGS != 0 {
		c.DefaultUnits.Length = o.DefaultUnits.Length
	}
	if o.DefaultUnits.Mass.CGS != 0 {
		c.DefaultUnits.Mass = o.DefaultUnits.Mass
	}
}

// Validate checks that every family is known and no native group is
// claimed by two families.
func (c *Config) Validate() error {
	owner := make(map[string]string)
	for _, fg := range c.TypeMapping {
		if _, err := family.Get(fg.Family); err != nil {
			return fmt.Errorf("type mapping: %w", err)
		}
		if len(fg.Groups) == 0 {
			return fmt.Errorf("type mapping: family %q has no groups", fg.Family)
		}
		for _, g := range fg.Groups {
			if prev, ok := owner[g]; ok {
				return fmt.Errorf("type mapping: group %q mapped to both %q and %q", g, prev, fg.Family)
			}
			owner[g] = fg.Family
		}
	}
	for _, e := range c.NameMapping {
		if e.Name == "" || len(e.Native) == 0 {
			return fmt.Errorf("name mapping: incomplete entry %+v", e)
		}
	}
	return nil
}

// Families returns the type mapping keyed by family, preserving table order
// in the returned slice.
func (c *Config) Families() ([]family.Family, map[family.Family][]string) {
	order := make([]family.Family, 0, len(c.TypeMapping))
	groups := make(map[family.Family][]string, len(c.TypeMapping))
	for _, fg := range c.TypeMapping {
		f, _ := family.Get(fg.Family)
		if _, seen := groups[f]; !seen {
			order = append(order, f)
		}
		groups[f] = append(groups[f], fg.Groups...)
	}
	return order, groups
}

// AllGroups returns every native group named in the type mapping.
func (c *Config) AllGroups() []string {
	var out []string
	for _, fg := range c.TypeMapping {
		out = append(out, fg.Groups...)
	}
	return out
}

// Clone returns a deep copy.
func (c *Config) Clone() *Config {
	out := &Config{DefaultUnits: c.DefaultUnits}
	for _, fg := range c.TypeMapping {
		out.TypeMapping = append(out.TypeMapping, FamilyGroups{
			Family: fg.Family,
			Groups: append([]string(nil), fg.Groups...),
		})
	}
	for _, e := range c.NameMapping {
		out.NameMapping = append(out.NameMapping, NameEntry{
			Name:   e.Name,
			Native: append([]string(nil), e.Native...),
		})
	}
	return out
}
