// Package names translates between canonical array names ("pos", "vel")
// and the dataset names the schema variants use on disk.
package names

import "github.com/robert-malhotra/go-gadgethdf/internal/config"

// Translator maps canonical names to native dataset names and back. Names
// absent from the table pass through unchanged in both directions.
//
// When a native name is seen through ToCanonical, it moves to the front of
// the ToNative list for its canonical name, so a file's own spelling is
// tried first on later lookups.
type Translator struct {
	order    []string
	toNative map[string][]string
	toCanon  map[string]string
}

// New builds a translator from name entries. If two entries claim the
// same native name, the first one wins.
func New(entries []config.NameEntry) *Translator {
	t := &Translator{
		toNative: make(map[string][]string),
		toCanon:  make(map[string]string),
	}
	for _, e := range entries {
		if _, ok := t.toNative[e.Name]; !ok {
			t.order = append(t.order, e.Name)
		}
		for _, n := range e.Native {
			if _, taken := t.toCanon[n]; taken {
				continue
			}
			t.toCanon[n] = e.Name
			t.toNative[e.Name] = append(t.toNative[e.Name], n)
		}
	}
	return t
}

// ToNative returns the native candidates for a canonical name in priority
// order. An unmapped name is its own single candidate.
func (t *Translator) ToNative(canonical string) []string {
	if natives, ok := t.toNative[canonical]; ok && len(natives) > 0 {
		return append([]string(nil), natives...)
	}
	return []string{canonical}
}

// ToCanonical returns the canonical name for a native one.
func (t *Translator) ToCanonical(native string) string {
	canon, ok := t.toCanon[native]
	if !ok {
		return native
	}
	t.prefer(canon, native)
	return canon
}

func (t *Translator) prefer(canon, native string) {
	natives := t.toNative[canon]
	for i, n := range natives {
		if n != native {
			continue
		}
		if i > 0 {
			copy(natives[1:i+1], natives[:i])
			natives[0] = native
		}
		return
	}
}

// Canonical lists the mapped canonical names in table order.
func (t *Translator) Canonical() []string {
	return append([]string(nil), t.order...)
}

// Default returns a translator over the embedded name table.
func Default() *Translator {
	return New(config.Default().NameMapping)
}
