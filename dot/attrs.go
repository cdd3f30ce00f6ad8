// ABOUTME: Attrs is an insertion-ordered string map used for every DOT attribute mapping.
// ABOUTME: Overwrites keep a key's original position; Merge applies another mapping key by key.
package dot

import (
	"iter"
	"sort"
)

// Attrs maintains attribute keys in first-insertion order.
// The zero value is not usable for writes; use NewAttrs. Readers are nil-safe.
type Attrs struct {
	data map[string]string
	keys []string
}

// NewAttrs creates an Attrs from alternating key, value arguments.
// A trailing key without a value is ignored.
func NewAttrs(kv ...string) *Attrs {
	a := &Attrs{data: make(map[string]string, len(kv)/2)}
	for i := 0; i+1 < len(kv); i += 2 {
		a.Set(kv[i], kv[i+1])
	}
	return a
}

// AttrsFromMap builds an Attrs from a plain map, ordering keys alphabetically.
func AttrsFromMap(m map[string]string) *Attrs {
	a := NewAttrs()
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		a.Set(k, m[k])
	}
	return a
}

// Set inserts or overwrites a key. An overwritten key keeps its position.
func (a *Attrs) Set(key, val string) {
	if a.data == nil {
		a.data = make(map[string]string)
	}
	if _, exists := a.data[key]; !exists {
		a.keys = append(a.keys, key)
	}
	a.data[key] = val
}

// Get retrieves a value by key. Returns the value and whether it was found.
func (a *Attrs) Get(key string) (string, bool) {
	if a == nil {
		return "", false
	}
	v, ok := a.data[key]
	return v, ok
}

// Value returns the value for key, or "" when absent.
func (a *Attrs) Value(key string) string {
	v, _ := a.Get(key)
	return v
}

// Has reports whether key is present.
func (a *Attrs) Has(key string) bool {
	_, ok := a.Get(key)
	return ok
}

// Delete removes a key. Deleting an absent key is a no-op and returns false.
func (a *Attrs) Delete(key string) bool {
	if a == nil {
		return false
	}
	if _, exists := a.data[key]; !exists {
		return false
	}
	delete(a.data, key)
	for i, k := range a.keys {
		if k == key {
			a.keys = append(a.keys[:i], a.keys[i+1:]...)
			break
		}
	}
	return true
}

// Len returns the number of entries.
func (a *Attrs) Len() int {
	if a == nil {
		return 0
	}
	return len(a.keys)
}

// Keys returns all keys in insertion order.
func (a *Attrs) Keys() []string {
	if a == nil {
		return []string{}
	}
	result := make([]string, len(a.keys))
	copy(result, a.keys)
	return result
}

// All iterates over entries in insertion order.
func (a *Attrs) All() iter.Seq2[string, string] {
	return func(yield func(string, string) bool) {
		if a == nil {
			return
		}
		for _, k := range a.keys {
			if !yield(k, a.data[k]) {
				return
			}
		}
	}
}

// Merge sets every entry of other onto a, in other's order.
// Keys missing from other are left untouched.
func (a *Attrs) Merge(other *Attrs) {
	for k, v := range other.All() {
		a.Set(k, v)
	}
}

// Clone returns an independent copy. Cloning nil yields an empty Attrs.
func (a *Attrs) Clone() *Attrs {
	c := &Attrs{data: make(map[string]string, a.Len())}
	if a == nil {
		return c
	}
	c.keys = make([]string, len(a.keys))
	copy(c.keys, a.keys)
	for k, v := range a.data {
		c.data[k] = v
	}
	return c
}

// Equal reports mapping equality, ignoring key order.
func (a *Attrs) Equal(other *Attrs) bool {
	if a.Len() != other.Len() {
		return false
	}
	for k, v := range a.All() {
		ov, ok := other.Get(k)
		if !ok || ov != v {
			return false
		}
	}
	return true
}

// Map returns a plain map copy of the entries.
func (a *Attrs) Map() map[string]string {
	m := make(map[string]string, a.Len())
	for k, v := range a.All() {
		m[k] = v
	}
	return m
}
