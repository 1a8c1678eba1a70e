package snapshot

import (
	"sort"
	"strconv"

	"github.com/robert-malhotra/go-gadgethdf/internal/container"
	"github.com/robert-malhotra/go-gadgethdf/internal/layout"
	"github.com/robert-malhotra/go-gadgethdf/units"
	"go.uber.org/zap"
)

// Properties holds scalar simulation properties: "a", "z", "h",
// "omegaM0", "omegaL0", "omegaB0", "boxsize" and "time" when the file
// provides them, plus every other header attribute under its own name.
// Properties satisfies container.Attrs so the usual attribute helpers
// read it.
type Properties map[string]interface{}

// AttrNames returns the property names, sorted.
func (p Properties) AttrNames() []string {
	out := make([]string, 0, len(p))
	for k := range p {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// Attr returns a property value.
func (p Properties) Attr(name string) (interface{}, bool) {
	v, ok := p[name]
	return v, ok
}

// Float reads a numeric property.
func (p Properties) Float(name string) (float64, bool) {
	return container.Float(p, name)
}

// Quantity reads a property carrying a unit, such as "boxsize" or "time".
func (p Properties) Quantity(name string) (units.Quantity, bool) {
	q, ok := p[name].(units.Quantity)
	return q, ok
}

// header attributes consumed into named properties
var consumedHeaderAttrs = map[string]bool{
	"ExpansionFactor": true,
	"Time_GYR":        true,
	"Time":            true,
	"Omega0":          true,
	"OmegaBaryon":     true,
	"OmegaLambda":     true,
	"BoxSize":         true,
	"HubbleParam":     true,
}

func (s *Snapshot) initProperties() error {
	header, err := s.headerAttrs()
	if err != nil {
		return err
	}
	params, err := s.parameterAttrs()
	if err != nil {
		return err
	}
	p := make(Properties)

	if a, ok := container.Float(header, "ExpansionFactor"); ok {
		p["a"] = a
	} else if z, ok := container.Float(header, "Redshift"); ok {
		p["a"] = 1 / (1 + z)
	}

	for attr, prop := range map[string]string{
		"OmegaBaryon": "omegaB0",
		"Omega0":      "omegaM0",
		"OmegaLambda": "omegaL0",
		"HubbleParam": "h",
	} {
		if v, ok := container.Float(params, attr); ok {
			p[prop] = v
		}
	}
	if box, ok := container.Float(params, "BoxSize"); ok {
		p["boxsize"] = units.Quantity{Value: box, Unit: s.system.Length}
	}
	if a, ok := p.Float("a"); ok {
		p["z"] = 1/a - 1
	}
	if t, ok := container.Float(params, "Time_GYR"); ok {
		p["time"] = units.Quantity{Value: t, Unit: units.Second.Scale(units.Gigayear)}
	}

	for _, name := range header.AttrNames() {
		if consumedHeaderAttrs[name] {
			continue
		}
		if v, ok := header.Attr(name); ok {
			p[name] = v
		}
	}
	s.props = p
	s.log.Debug("read properties", zap.Strings("names", p.AttrNames()))
	return nil
}

// scaleFactor is the expansion factor, 1 when the header records none.
func (s *Snapshot) scaleFactor() float64 {
	if a, ok := s.props.Float("a"); ok && a > 0 {
		return a
	}
	return 1
}

func (s *Snapshot) haveSoftening(params container.Attrs, group string) bool {
	typ, ok := layout.TypeNumber(group)
	if !ok {
		return false
	}
	_, ok = params.Attr(s.variant.Softening.Class + strconv.Itoa(typ))
	return ok
}

// softening returns the softening length of a native group: the comoving
// length of its class, capped at the maximum physical length divided by a.
func (s *Snapshot) softening(group string) (float64, bool) {
	params, err := s.parameterAttrs()
	if err != nil {
		return 0, false
	}
	typ, ok := layout.TypeNumber(group)
	if !ok {
		return 0, false
	}
	keys := s.variant.Softening
	class, ok := container.Int(params, keys.Class+strconv.Itoa(typ))
	if !ok {
		return 0, false
	}
	suffix := strconv.FormatInt(class, 10)
	comoving, ok := container.Float(params, keys.Comoving+suffix)
	if !ok {
		return 0, false
	}
	maxPhys, ok := container.Float(params, keys.MaxPhys+suffix)
	if !ok {
		return 0, false
	}
	if limit := maxPhys / s.scaleFactor(); comoving > limit {
		comoving = limit
	}
	return comoving, true
}

// massTable returns the header mass of a native group's particles in the
// shard whose particle root is shardRoot. Zero means masses are stored per
// particle.
func massTable(shardRoot container.Group, group string) float64 {
	typ, ok := layout.TypeNumber(group)
	if !ok {
		return 0
	}
	header, err := shardRoot.OpenGroup("Header")
	if err != nil {
		return 0
	}
	table, ok := container.Floats(header, "MassTable")
	if !ok || typ >= len(table) {
		return 0
	}
	return table[typ]
}
