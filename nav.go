package sharingmap

import (
	"fmt"
	"reflect"

	"github.com/tryexceptelse/sharingmap/treemap"
)

// Entry is a key and its associated value.
type Entry = treemap.Entry

// effectiveMap materializes the instance's logical content as a plain
// ordered map: the in-bounds backing store entries, overwritten by the
// in-bounds overlay entries, minus the removed keys.  The result is built
// fresh on every call and never cached; navigation queries pay this cost by
// design so that copies and mutations stay cheap.
func (m *Map) effectiveMap() (*treemap.Map, error) {
	var lower, upper interface{}
	var lowerInclusive, upperInclusive bool
	if m.bounds != nil {
		lower, lowerInclusive = m.bounds.lower, m.bounds.lowerInclusive
		upper, upperInclusive = m.bounds.upper, m.bounds.upperInclusive
	}
	effective, err := m.base.entries.Range(lower, lowerInclusive, upper, upperInclusive)
	if err != nil {
		return nil, fmt.Errorf("copy backing store: %w", err)
	}
	if m.ov.changes == nil {
		return effective, nil
	}
	changed, err := m.ov.changes.Range(lower, lowerInclusive, upper, upperInclusive)
	if err != nil {
		return nil, fmt.Errorf("copy overlay: %w", err)
	}
	err = changed.Ascend(func(key, value interface{}) error {
		return effective.Put(key, value)
	})
	if err != nil {
		return nil, err
	}
	err = m.ov.removed.Ascend(func(key, _ interface{}) error {
		_, _, err := effective.Delete(key)
		return err
	})
	if err != nil {
		return nil, err
	}
	return effective, nil
}

// Len returns the number of entries.
func (m *Map) Len() (int, error) {
	effective, err := m.effectiveMap()
	if err != nil {
		return 0, err
	}
	return effective.Len(), nil
}

// IsEmpty indicates whether the map has no entries.
func (m *Map) IsEmpty() (bool, error) {
	n, err := m.Len()
	return n == 0, err
}

// First returns the entry with the least key.
func (m *Map) First() (Entry, bool, error) {
	effective, err := m.effectiveMap()
	if err != nil {
		return Entry{}, false, err
	}
	e, ok := effective.First()
	return e, ok, nil
}

// Last returns the entry with the greatest key.
func (m *Map) Last() (Entry, bool, error) {
	effective, err := m.effectiveMap()
	if err != nil {
		return Entry{}, false, err
	}
	e, ok := effective.Last()
	return e, ok, nil
}

// FirstKey returns the least key.
func (m *Map) FirstKey() (interface{}, bool, error) {
	e, ok, err := m.First()
	return e.Key, ok, err
}

// LastKey returns the greatest key.
func (m *Map) LastKey() (interface{}, bool, error) {
	e, ok, err := m.Last()
	return e.Key, ok, err
}

// Lower returns the entry with the greatest key strictly less than the given
// key.
func (m *Map) Lower(key interface{}) (Entry, bool, error) {
	effective, err := m.effectiveMap()
	if err != nil {
		return Entry{}, false, err
	}
	return effective.Lower(key)
}

// Floor returns the entry with the greatest key less than or equal to the
// given key.
func (m *Map) Floor(key interface{}) (Entry, bool, error) {
	effective, err := m.effectiveMap()
	if err != nil {
		return Entry{}, false, err
	}
	return effective.Floor(key)
}

// Ceiling returns the entry with the least key greater than or equal to the
// given key.
func (m *Map) Ceiling(key interface{}) (Entry, bool, error) {
	effective, err := m.effectiveMap()
	if err != nil {
		return Entry{}, false, err
	}
	return effective.Ceiling(key)
}

// Higher returns the entry with the least key strictly greater than the
// given key.
func (m *Map) Higher(key interface{}) (Entry, bool, error) {
	effective, err := m.effectiveMap()
	if err != nil {
		return Entry{}, false, err
	}
	return effective.Higher(key)
}

// LowerKey returns the greatest key strictly less than the given key.
func (m *Map) LowerKey(key interface{}) (interface{}, bool, error) {
	e, ok, err := m.Lower(key)
	return e.Key, ok, err
}

// FloorKey returns the greatest key less than or equal to the given key.
func (m *Map) FloorKey(key interface{}) (interface{}, bool, error) {
	e, ok, err := m.Floor(key)
	return e.Key, ok, err
}

// CeilingKey returns the least key greater than or equal to the given key.
func (m *Map) CeilingKey(key interface{}) (interface{}, bool, error) {
	e, ok, err := m.Ceiling(key)
	return e.Key, ok, err
}

// HigherKey returns the least key strictly greater than the given key.
func (m *Map) HigherKey(key interface{}) (interface{}, bool, error) {
	e, ok, err := m.Higher(key)
	return e.Key, ok, err
}

// PollFirst removes and returns the entry with the least key.
func (m *Map) PollFirst() (Entry, bool, error) {
	e, ok, err := m.First()
	if err != nil || !ok {
		return Entry{}, false, err
	}
	if _, err := m.Remove(e.Key); err != nil {
		return Entry{}, false, err
	}
	return e, true, nil
}

// PollLast removes and returns the entry with the greatest key.
func (m *Map) PollLast() (Entry, bool, error) {
	e, ok, err := m.Last()
	if err != nil || !ok {
		return Entry{}, false, err
	}
	if _, err := m.Remove(e.Key); err != nil {
		return Entry{}, false, err
	}
	return e, true, nil
}

// Keys returns the keys in ascending order.
func (m *Map) Keys() ([]interface{}, error) {
	effective, err := m.effectiveMap()
	if err != nil {
		return nil, err
	}
	return effective.Keys(), nil
}

// Values returns the values in ascending key order.
func (m *Map) Values() ([]interface{}, error) {
	effective, err := m.effectiveMap()
	if err != nil {
		return nil, err
	}
	return effective.Values(), nil
}

// Entries returns the entries in ascending key order.
func (m *Map) Entries() ([]Entry, error) {
	effective, err := m.effectiveMap()
	if err != nil {
		return nil, err
	}
	return effective.Entries(), nil
}

// Descending returns the entries in descending key order.
func (m *Map) Descending() ([]Entry, error) {
	entries, err := m.Entries()
	if err != nil {
		return nil, err
	}
	for i, j := 0, len(entries)-1; i < j; i, j = i+1, j-1 {
		entries[i], entries[j] = entries[j], entries[i]
	}
	return entries, nil
}

// DescendingKeys returns the keys in descending order.
func (m *Map) DescendingKeys() ([]interface{}, error) {
	keys, err := m.Keys()
	if err != nil {
		return nil, err
	}
	for i, j := 0, len(keys)-1; i < j; i, j = i+1, j-1 {
		keys[i], keys[j] = keys[j], keys[i]
	}
	return keys, nil
}

// ContainsValue indicates whether any entry has the given value.
func (m *Map) ContainsValue(value interface{}) (bool, error) {
	effective, err := m.effectiveMap()
	if err != nil {
		return false, err
	}
	found := false
	effective.Ascend(func(_, v interface{}) error {
		if reflect.DeepEqual(v, value) {
			found = true
		}
		return nil
	})
	return found, nil
}
