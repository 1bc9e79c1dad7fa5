package sharingmap

import (
	"fmt"

	"github.com/tryexceptelse/sharingmap/treemap"
)

// maxChangeRatio is the divergence past which an instance stops accumulating
// overlay entries and rebases onto a fresh backing store of its own.
const maxChangeRatio = 0.1

// base is an ordered map shared by every instance that diverged from the
// same ancestor state.  refs counts the live instances (range views
// included) pointing at it; it may only be written in place while refs is 1.
type base struct {
	entries *treemap.Map
	refs    int
}

// overlay records an instance's divergence from its backing store: entries
// inserted or updated, and keys logically deleted.  Both maps are nil until
// the first mutation performed while the backing store is shared.  A key is
// never present in both at once.
//
// The holder itself always exists, and is shared by identity with range
// views spawned from this instance, so divergence started by either side is
// seen by both until one of them rebases.
type overlay struct {
	changes *treemap.Map
	removed *treemap.Map
}

// bounds restricts the keys an instance considers in scope.  A nil lower or
// upper leaves that side unbounded.
type bounds struct {
	lower          interface{}
	lowerInclusive bool
	upper          interface{}
	upperInclusive bool
}

// Map is a sorted map that can be copied cheaply: copies share one backing
// store and keep their divergent edits in a small private overlay until the
// divergence is large enough to warrant a backing store of their own.
//
// Instances sharing a backing store must not be mutated concurrently; see
// the package documentation.
type Map struct {
	base    *base
	ov      *overlay
	bounds  *bounds
	cmp     treemap.CompareFunc
	marshal func(interface{}) ([]byte, error)
}

// Config sets parameters for a new Map.
type Config struct {
	// KeyCompare orders keys.  Defaults to DefaultKeyCompare over Marshal.
	KeyCompare treemap.CompareFunc

	// Marshal serializes keys of unknown types for ordering, and entries
	// for Fingerprint.  Defaults to JSON.
	Marshal func(interface{}) ([]byte, error)
}

// New returns an empty Map with default key ordering.
func New() *Map {
	return NewWithConfig(Config{})
}

// NewWithConfig returns an empty Map with the given parameters.
func NewWithConfig(config Config) *Map {
	marshal := config.Marshal
	if marshal == nil {
		marshal = defaultMarshal
	}
	cmp := config.KeyCompare
	if cmp == nil {
		cmp = DefaultKeyCompare(marshal)
	}
	return &Map{
		base:    &base{entries: treemap.New(cmp), refs: 1},
		ov:      &overlay{},
		cmp:     cmp,
		marshal: marshal,
	}
}

// NewFromMap returns a Map holding a deep copy of the given ordered map.
// The new instance owns its backing store exclusively.
func NewFromMap(src *treemap.Map) *Map {
	return &Map{
		base:    &base{entries: src.Copy(), refs: 1},
		ov:      &overlay{},
		cmp:     src.Comparator(),
		marshal: defaultMarshal,
	}
}

// Copy returns a new instance with the same logical content.  The backing
// store is shared, not copied; the overlay, if any, is deep-copied since
// overlays are private to an instance (range views excepted).
func (m *Map) Copy() *Map {
	m.base.refs++
	ov := &overlay{}
	if m.ov.changes != nil {
		ov.changes = m.ov.changes.Copy()
		ov.removed = m.ov.removed.Copy()
	}
	return &Map{
		base:    m.base,
		ov:      ov,
		bounds:  m.bounds,
		cmp:     m.cmp,
		marshal: m.marshal,
	}
}

// Release gives up this instance's reference to the shared backing store.
// Call it when the instance goes out of use; a released instance must not be
// used again.  Skipping Release is safe, it only keeps the remaining
// siblings routing their writes through overlays.
func (m *Map) Release() {
	if m.base == nil {
		return
	}
	m.base.refs--
	m.base = nil
}

// Clear empties the map, detaching it from the shared backing store.
func (m *Map) Clear() {
	m.base.refs--
	m.base = &base{entries: treemap.New(m.cmp), refs: 1}
	m.ov = &overlay{}
	m.bounds = nil
}

// activeStore returns the ordered map mutations should land in.  While the
// backing store is shared it is the overlay, allocated on first use;
// otherwise any outstanding overlay is folded down first and the backing
// store itself is returned.
func (m *Map) activeStore() (*treemap.Map, error) {
	if m.base.refs > 1 {
		if m.ov.changes == nil {
			m.ov.changes = treemap.New(m.cmp)
			m.ov.removed = treemap.New(m.cmp)
		}
		return m.ov.changes, nil
	}
	if m.ov.changes != nil {
		if err := m.flatten(); err != nil {
			return nil, fmt.Errorf("flatten: %w", err)
		}
	}
	return m.base.entries, nil
}

// flatten folds the overlay into the exclusively-owned backing store.  Keys
// outside the view bounds are dropped from the store first: once exclusive,
// shared history outside the view is no longer needed.  Afterwards the
// instance is unbounded and overlay-free.
func (m *Map) flatten() error {
	if m.base.refs != 1 {
		panic(fmt.Sprintf("flatten with %d backing store refs", m.base.refs))
	}
	if m.bounds != nil {
		narrowed, err := m.base.entries.Range(
			m.bounds.lower, m.bounds.lowerInclusive,
			m.bounds.upper, m.bounds.upperInclusive,
		)
		if err != nil {
			return fmt.Errorf("narrow: %w", err)
		}
		m.base.entries = narrowed
	}
	if m.ov.changes != nil {
		err := m.ov.changes.Ascend(func(key, value interface{}) error {
			return m.base.entries.Put(key, value)
		})
		if err != nil {
			return fmt.Errorf("apply changes: %w", err)
		}
		err = m.ov.removed.Ascend(func(key, _ interface{}) error {
			_, _, err := m.base.entries.Delete(key)
			return err
		})
		if err != nil {
			return fmt.Errorf("apply removals: %w", err)
		}
	}
	// Detach rather than clear in place: range views may still share the
	// old overlay holder, and keep their divergence.
	m.bounds = nil
	m.ov = &overlay{}
	return nil
}

// makeUniqueBase rebases the instance onto a fresh, exclusively-owned copy
// of the backing store and folds all divergence into it.
func (m *Map) makeUniqueBase() error {
	old := m.base
	m.base = &base{entries: old.entries.Copy(), refs: 1}
	old.refs--
	return m.flatten()
}

// changeRatio is the instance's divergence relative to its backing store.
func (m *Map) changeRatio() float64 {
	if m.ov.changes == nil {
		return 0
	}
	return float64(m.ov.changes.Len()+m.ov.removed.Len()) / float64(m.base.entries.Len())
}

func (m *Map) checkDivergence() error {
	if m.changeRatio() > maxChangeRatio {
		if err := m.makeUniqueBase(); err != nil {
			return fmt.Errorf("makeUniqueBase: %w", err)
		}
	}
	return nil
}

func (m *Map) withinBounds(key interface{}) (bool, error) {
	if m.bounds == nil {
		return true, nil
	}
	if m.bounds.lower != nil {
		cmp, err := m.cmp(key, m.bounds.lower)
		if err != nil {
			return false, fmt.Errorf("compare: %w", err)
		}
		if cmp < 0 || cmp == 0 && !m.bounds.lowerInclusive {
			return false, nil
		}
	}
	if m.bounds.upper != nil {
		cmp, err := m.cmp(key, m.bounds.upper)
		if err != nil {
			return false, fmt.Errorf("compare: %w", err)
		}
		if cmp > 0 || cmp == 0 && !m.bounds.upperInclusive {
			return false, nil
		}
	}
	return true, nil
}

// Get returns the value for the given key and whether it is present.  It
// short-circuits without materializing: removed keys, then the overlay, then
// the backing store, with keys outside the view bounds treated as absent.
func (m *Map) Get(key interface{}) (interface{}, bool, error) {
	ok, err := m.withinBounds(key)
	if err != nil || !ok {
		return nil, false, err
	}
	if m.ov.removed != nil {
		gone, err := m.ov.removed.Contains(key)
		if err != nil {
			return nil, false, err
		}
		if gone {
			return nil, false, nil
		}
	}
	if m.ov.changes != nil {
		value, found, err := m.ov.changes.Get(key)
		if err != nil || found {
			return value, found, err
		}
	}
	return m.base.entries.Get(key)
}

// Contains indicates whether the map has an entry with the given key.
func (m *Map) Contains(key interface{}) (bool, error) {
	_, found, err := m.Get(key)
	return found, err
}

// Put adds or replaces the value for the given key and returns the value it
// logically replaced, if any.  Putting a key outside the view bounds is a
// no-op returning no prior value.
func (m *Map) Put(key, value interface{}) (interface{}, error) {
	ok, err := m.withinBounds(key)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, nil
	}
	prior, _, err := m.Get(key)
	if err != nil {
		return nil, err
	}
	store, err := m.activeStore()
	if err != nil {
		return nil, err
	}
	if err := store.Put(key, value); err != nil {
		return nil, err
	}
	if m.ov.removed != nil {
		if _, _, err := m.ov.removed.Delete(key); err != nil {
			return nil, err
		}
	}
	if err := m.checkDivergence(); err != nil {
		return nil, err
	}
	return prior, nil
}

// Remove deletes the entry with the given key and returns the value it
// logically removed, if any.
func (m *Map) Remove(key interface{}) (interface{}, error) {
	prior, found, err := m.Get(key)
	if err != nil {
		return nil, err
	}
	store, err := m.activeStore()
	if err != nil {
		return nil, err
	}
	if _, _, err := store.Delete(key); err != nil {
		return nil, err
	}
	if m.ov.removed != nil {
		if err := m.ov.removed.Put(key, nil); err != nil {
			return nil, err
		}
	}
	if err := m.checkDivergence(); err != nil {
		return nil, err
	}
	if !found {
		return nil, nil
	}
	return prior, nil
}

// PutAll puts every entry of the given ordered map.
func (m *Map) PutAll(other *treemap.Map) error {
	return other.Ascend(func(key, value interface{}) error {
		_, err := m.Put(key, value)
		return err
	})
}

// Comparator returns the comparison function ordering the map's keys.
func (m *Map) Comparator() treemap.CompareFunc {
	return m.cmp
}

func (m *Map) String() string {
	changed, removed := 0, 0
	if m.ov.changes != nil {
		changed = m.ov.changes.Len()
		removed = m.ov.removed.Len()
	}
	return fmt.Sprintf("Map{base=%p refs=%d baseSize=%d changed=%d removed=%d bounds=%v}",
		m.base, m.base.refs, m.base.entries.Len(), changed, removed, m.bounds)
}
