package container

import (
	"fmt"
	"reflect"
)

// MakeSlice returns a zeroed []elem of length n.
func MakeSlice(elem reflect.Type, n int) interface{} {
	return reflect.MakeSlice(reflect.SliceOf(elem), n, n).Interface()
}

// IsNumeric reports whether t is an integer, unsigned or floating kind.
func IsNumeric(t reflect.Type) bool {
	switch t.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return true
	}
	return false
}

// CopyInto converts the elements of the slice src into the slice dst
// starting at index off.
func CopyInto(dst interface{}, off int, src interface{}) error {
	// common cases without reflection
	switch d := dst.(type) {
	case []float64:
		switch s := src.(type) {
		case []float64:
			if off+len(s) > len(d) {
				return overflow(off, len(s), len(d))
			}
			copy(d[off:], s)
			return nil
		case []float32:
			if off+len(s) > len(d) {
				return overflow(off, len(s), len(d))
			}
			for i, v := range s {
				d[off+i] = float64(v)
			}
			return nil
		}
	case []float32:
		switch s := src.(type) {
		case []float32:
			if off+len(s) > len(d) {
				return overflow(off, len(s), len(d))
			}
			copy(d[off:], s)
			return nil
		case []float64:
			if off+len(s) > len(d) {
				return overflow(off, len(s), len(d))
			}
			for i, v := range s {
				d[off+i] = float32(v)
			}
			return nil
		}
	}

	dv := reflect.ValueOf(dst)
	sv := reflect.ValueOf(src)
	if dv.Kind() != reflect.Slice || sv.Kind() != reflect.Slice {
		return fmt.Errorf("copy %T into %T: %w", src, dst, ErrShape)
	}
	n := sv.Len()
	if off+n > dv.Len() {
		return overflow(off, n, dv.Len())
	}
	dt, st := dv.Type().Elem(), sv.Type().Elem()
	if dt == st {
		reflect.Copy(dv.Slice(off, off+n), sv)
		return nil
	}
	if !IsNumeric(dt) || !IsNumeric(st) {
		return fmt.Errorf("cannot convert %s to %s: %w", st, dt, ErrShape)
	}
	for i := 0; i < n; i++ {
		dv.Index(off + i).Set(sv.Index(i).Convert(dt))
	}
	return nil
}

// Convert returns src as a new []elem.
func Convert(src interface{}, elem reflect.Type) (interface{}, error) {
	sv := reflect.ValueOf(src)
	if sv.Kind() != reflect.Slice {
		return nil, fmt.Errorf("convert %T: %w", src, ErrShape)
	}
	if sv.Type().Elem() == elem {
		return src, nil
	}
	out := MakeSlice(elem, sv.Len())
	if err := CopyInto(out, 0, src); err != nil {
		return nil, err
	}
	return out, nil
}

// Slice returns v[start:stop] for a slice held in an interface.
func Slice(v interface{}, start, stop int) interface{} {
	return reflect.ValueOf(v).Slice(start, stop).Interface()
}

// SliceLen returns the length of a slice held in an interface, 0 for nil.
func SliceLen(v interface{}) int {
	if v == nil {
		return 0
	}
	return reflect.ValueOf(v).Len()
}

func overflow(off, n, size int) error {
	return fmt.Errorf("%d elements at offset %d exceed destination of %d: %w", n, off, size, ErrShape)
}
