// Package treemap provides a plain ordered map over interface{} keys with a
// pluggable comparison function.  It is a deliberately simple sorted-slice
// structure: lookups are binary searches, inserts and deletes shift the
// slice.  sharingmap uses it for backing stores, overlays and the throwaway
// snapshots its navigation operations are answered from.
package treemap

import (
	"fmt"
	"sort"
)

// CompareFunc returns a negative number if a sorts before b, a positive
// number if after, and 0 if they are equal.  It returns an error if the two
// keys cannot be compared.
type CompareFunc func(a, b interface{}) (int, error)

// Entry is a key and its associated value.
type Entry struct {
	Key   interface{}
	Value interface{}
}

// Map is an ordered map.  The zero value is not usable; create instances
// with New.
type Map struct {
	keys   []interface{}
	values []interface{}
	cmp    CompareFunc
}

// New returns an empty map ordered by the given comparison function.
func New(cmp CompareFunc) *Map {
	return &Map{cmp: cmp}
}

// Comparator returns the comparison function the map was created with.
func (m *Map) Comparator() CompareFunc {
	return m.cmp
}

// Len returns the number of entries.
func (m *Map) Len() int {
	return len(m.keys)
}

// search returns the index of the first key >= the given key, and whether
// the key at that index is equal to it.
func (m *Map) search(key interface{}) (int, bool, error) {
	var err error
	i := sort.Search(len(m.keys), func(i int) bool {
		if err != nil {
			return true
		}
		var cmp int
		cmp, err = m.cmp(m.keys[i], key)
		return cmp >= 0
	})
	if err != nil {
		return 0, false, fmt.Errorf("compare: %w", err)
	}
	if i >= len(m.keys) {
		return i, false, nil
	}
	cmp, err := m.cmp(m.keys[i], key)
	if err != nil {
		return 0, false, fmt.Errorf("compare: %w", err)
	}
	return i, cmp == 0, nil
}

// Put adds or replaces the value for the given key.
func (m *Map) Put(key, value interface{}) error {
	i, found, err := m.search(key)
	if err != nil {
		return err
	}
	if found {
		m.values[i] = value
		return nil
	}
	m.keys = append(m.keys, nil)
	copy(m.keys[i+1:], m.keys[i:])
	m.keys[i] = key
	m.values = append(m.values, nil)
	copy(m.values[i+1:], m.values[i:])
	m.values[i] = value
	return nil
}

// Delete removes the entry with the given key, returning its value and
// whether it was present.
func (m *Map) Delete(key interface{}) (interface{}, bool, error) {
	i, found, err := m.search(key)
	if err != nil {
		return nil, false, err
	}
	if !found {
		return nil, false, nil
	}
	value := m.values[i]
	m.keys = append(m.keys[:i], m.keys[i+1:]...)
	m.values = append(m.values[:i], m.values[i+1:]...)
	return value, true, nil
}

// Get returns the value for the given key and whether it was present.
func (m *Map) Get(key interface{}) (interface{}, bool, error) {
	i, found, err := m.search(key)
	if err != nil {
		return nil, false, err
	}
	if !found {
		return nil, false, nil
	}
	return m.values[i], true, nil
}

// Contains indicates whether the map has an entry with the given key.
func (m *Map) Contains(key interface{}) (bool, error) {
	_, found, err := m.search(key)
	return found, err
}

// First returns the entry with the least key.
func (m *Map) First() (Entry, bool) {
	if len(m.keys) == 0 {
		return Entry{}, false
	}
	return Entry{m.keys[0], m.values[0]}, true
}

// Last returns the entry with the greatest key.
func (m *Map) Last() (Entry, bool) {
	if len(m.keys) == 0 {
		return Entry{}, false
	}
	n := len(m.keys) - 1
	return Entry{m.keys[n], m.values[n]}, true
}

// Lower returns the entry with the greatest key strictly less than the given
// key.
func (m *Map) Lower(key interface{}) (Entry, bool, error) {
	i, _, err := m.search(key)
	if err != nil {
		return Entry{}, false, err
	}
	if i == 0 {
		return Entry{}, false, nil
	}
	return Entry{m.keys[i-1], m.values[i-1]}, true, nil
}

// Floor returns the entry with the greatest key less than or equal to the
// given key.
func (m *Map) Floor(key interface{}) (Entry, bool, error) {
	i, found, err := m.search(key)
	if err != nil {
		return Entry{}, false, err
	}
	if found {
		return Entry{m.keys[i], m.values[i]}, true, nil
	}
	if i == 0 {
		return Entry{}, false, nil
	}
	return Entry{m.keys[i-1], m.values[i-1]}, true, nil
}

// Ceiling returns the entry with the least key greater than or equal to the
// given key.
func (m *Map) Ceiling(key interface{}) (Entry, bool, error) {
	i, _, err := m.search(key)
	if err != nil {
		return Entry{}, false, err
	}
	if i >= len(m.keys) {
		return Entry{}, false, nil
	}
	return Entry{m.keys[i], m.values[i]}, true, nil
}

// Higher returns the entry with the least key strictly greater than the
// given key.
func (m *Map) Higher(key interface{}) (Entry, bool, error) {
	i, found, err := m.search(key)
	if err != nil {
		return Entry{}, false, err
	}
	if found {
		i++
	}
	if i >= len(m.keys) {
		return Entry{}, false, nil
	}
	return Entry{m.keys[i], m.values[i]}, true, nil
}

// Keys returns the keys in ascending order.
func (m *Map) Keys() []interface{} {
	keys := make([]interface{}, len(m.keys))
	copy(keys, m.keys)
	return keys
}

// Values returns the values in ascending key order.
func (m *Map) Values() []interface{} {
	values := make([]interface{}, len(m.values))
	copy(values, m.values)
	return values
}

// Entries returns the entries in ascending key order.
func (m *Map) Entries() []Entry {
	entries := make([]Entry, len(m.keys))
	for i := range m.keys {
		entries[i] = Entry{m.keys[i], m.values[i]}
	}
	return entries
}

// Ascend invokes the given callback for every entry in ascending key order,
// stopping at the first error.
func (m *Map) Ascend(f func(key, value interface{}) error) error {
	for i := range m.keys {
		if err := f(m.keys[i], m.values[i]); err != nil {
			return err
		}
	}
	return nil
}

// Descend invokes the given callback for every entry in descending key
// order, stopping at the first error.
func (m *Map) Descend(f func(key, value interface{}) error) error {
	for i := len(m.keys) - 1; i >= 0; i-- {
		if err := f(m.keys[i], m.values[i]); err != nil {
			return err
		}
	}
	return nil
}

// Copy returns an independent copy of the map.
func (m *Map) Copy() *Map {
	return &Map{
		keys:   append([]interface{}{}, m.keys...),
		values: append([]interface{}{}, m.values...),
		cmp:    m.cmp,
	}
}

// Range returns an independent copy of the entries within the given bounds.
// A nil bound leaves that side unbounded.
func (m *Map) Range(lower interface{}, lowerInclusive bool, upper interface{}, upperInclusive bool) (*Map, error) {
	from := 0
	if lower != nil {
		i, found, err := m.search(lower)
		if err != nil {
			return nil, err
		}
		from = i
		if found && !lowerInclusive {
			from++
		}
	}
	to := len(m.keys)
	if upper != nil {
		i, found, err := m.search(upper)
		if err != nil {
			return nil, err
		}
		to = i
		if found && upperInclusive {
			to++
		}
	}
	if to < from {
		to = from
	}
	return &Map{
		keys:   append([]interface{}{}, m.keys[from:to]...),
		values: append([]interface{}{}, m.values[from:to]...),
		cmp:    m.cmp,
	}, nil
}
