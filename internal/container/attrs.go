package container

import "reflect"

// Float reads a numeric attribute as float64. A one-element array is
// unwrapped; longer arrays and non-numeric values report false.
func Float(a Attrs, name string) (float64, bool) {
	v, ok := a.Attr(name)
	if !ok {
		return 0, false
	}
	return scalar(v)
}

// Int reads a numeric attribute as int64, truncating floats.
func Int(a Attrs, name string) (int64, bool) {
	f, ok := Float(a, name)
	return int64(f), ok
}

// Floats reads a numeric scalar or array attribute as []float64.
func Floats(a Attrs, name string) ([]float64, bool) {
	v, ok := a.Attr(name)
	if !ok {
		return nil, false
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		f, ok := toFloat(rv)
		if !ok {
			return nil, false
		}
		return []float64{f}, true
	}
	out := make([]float64, rv.Len())
	for i := range out {
		f, ok := toFloat(rv.Index(i))
		if !ok {
			return nil, false
		}
		out[i] = f
	}
	return out, true
}

// String reads a string attribute. A one-element string array is unwrapped
// and byte slices are decoded.
func String(a Attrs, name string) (string, bool) {
	v, ok := a.Attr(name)
	if !ok {
		return "", false
	}
	switch s := v.(type) {
	case string:
		return s, true
	case []byte:
		return string(s), true
	case []string:
		if len(s) == 1 {
			return s[0], true
		}
	}
	return "", false
}

func scalar(v interface{}) (float64, bool) {
	rv := reflect.ValueOf(v)
	if rv.Kind() == reflect.Slice || rv.Kind() == reflect.Array {
		if rv.Len() != 1 {
			return 0, false
		}
		rv = rv.Index(0)
	}
	return toFloat(rv)
}

func toFloat(rv reflect.Value) (float64, bool) {
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return float64(rv.Int()), true
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return float64(rv.Uint()), true
	case reflect.Float32, reflect.Float64:
		return rv.Float(), true
	case reflect.Bool:
		if rv.Bool() {
			return 1, true
		}
		return 0, true
	case reflect.Interface:
		if rv.IsNil() {
			return 0, false
		}
		return toFloat(rv.Elem())
	}
	return 0, false
}

// MapAttrs is an Attrs backed by a map with a fixed name order.
type MapAttrs struct {
	names  []string
	values map[string]interface{}
}

// NewMapAttrs returns an empty attribute set.
func NewMapAttrs() *MapAttrs {
	return &MapAttrs{values: make(map[string]interface{})}
}

// Set adds or replaces an attribute, keeping first-insertion order.
func (m *MapAttrs) Set(name string, value interface{}) {
	if _, ok := m.values[name]; !ok {
		m.names = append(m.names, name)
	}
	m.values[name] = value
}

// AttrNames returns the names in insertion order.
func (m *MapAttrs) AttrNames() []string {
	return append([]string(nil), m.names...)
}

// Attr returns the named value.
func (m *MapAttrs) Attr(name string) (interface{}, bool) {
	v, ok := m.values[name]
	return v, ok
}

// NoAttrs is an empty attribute set.
var NoAttrs Attrs = NewMapAttrs()
