package sharingmap

import (
	"fmt"
	"reflect"
)

// DiffIter invokes the given callback for every entry that is different from
// the given instance.  The iteration is in ascending key order and stops if
// the callback returns keepGoing==false or an error.  Callback invocation
// with added==removed==true signifies entries whose values have changed.
func (m *Map) DiffIter(
	old *Map,
	f func(added, removed bool,
		key, addedValue, removedValue interface{},
	) (bool, error),
) error {
	newEntries, err := m.Entries()
	if err != nil {
		return fmt.Errorf("materialize new: %w", err)
	}
	oldEntries, err := old.Entries()
	if err != nil {
		return fmt.Errorf("materialize old: %w", err)
	}
	i, j := 0, 0
	for i < len(newEntries) || j < len(oldEntries) {
		var cmp int
		switch {
		case i >= len(newEntries):
			cmp = 1
		case j >= len(oldEntries):
			cmp = -1
		default:
			cmp, err = m.cmp(newEntries[i].Key, oldEntries[j].Key)
			if err != nil {
				return fmt.Errorf("compare: %w", err)
			}
		}
		var keepGoing bool
		switch {
		case cmp < 0:
			keepGoing, err = f(true, false, newEntries[i].Key, newEntries[i].Value, nil)
			i++
		case cmp > 0:
			keepGoing, err = f(false, true, oldEntries[j].Key, nil, oldEntries[j].Value)
			j++
		default:
			keepGoing = true
			if !reflect.DeepEqual(newEntries[i].Value, oldEntries[j].Value) {
				keepGoing, err = f(true, true, newEntries[i].Key, newEntries[i].Value, oldEntries[j].Value)
			}
			i++
			j++
		}
		if err != nil {
			return fmt.Errorf("callback: %w", err)
		}
		if !keepGoing {
			return nil
		}
	}
	return nil
}
