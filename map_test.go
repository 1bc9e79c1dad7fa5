package sharingmap

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tryexceptelse/sharingmap/treemap"
)

func newTestMap(t testing.TB, keys ...int) *Map {
	m := New()
	for _, k := range keys {
		_, err := m.Put(k, k*10)
		require.NoError(t, err)
	}
	return m
}

func requireKeys(t *testing.T, m *Map, expected ...interface{}) {
	t.Helper()
	keys, err := m.Keys()
	require.NoError(t, err)
	if expected == nil {
		expected = []interface{}{}
	}
	require.Equal(t, expected, keys)
}

func TestNew(t *testing.T) {
	t.Parallel()
	m := New()
	n, err := m.Len()
	require.NoError(t, err)
	require.Equal(t, 0, n)
	empty, err := m.IsEmpty()
	require.NoError(t, err)
	require.True(t, empty)
	require.Equal(t, 1, m.base.refs)
	require.Nil(t, m.ov.changes)
}

func TestPutReturnsPriorValue(t *testing.T) {
	t.Parallel()
	m := New()
	prior, err := m.Put(1, "one")
	require.NoError(t, err)
	require.Nil(t, prior)
	prior, err = m.Put(1, "uno")
	require.NoError(t, err)
	require.Equal(t, "one", prior)
	v, found, err := m.Get(1)
	require.NoError(t, err)
	require.True(t, found)
	require.Equal(t, "uno", v)
}

func TestRemoveReturnsPriorValue(t *testing.T) {
	t.Parallel()
	m := New()
	_, err := m.Put(1, "one")
	require.NoError(t, err)
	removed, err := m.Remove(1)
	require.NoError(t, err)
	require.Equal(t, "one", removed)
	found, err := m.Contains(1)
	require.NoError(t, err)
	require.False(t, found)
	removed, err = m.Remove(1)
	require.NoError(t, err)
	require.Nil(t, removed)
}

func TestRemoveAfterRemoveOnSharedBase(t *testing.T) {
	t.Parallel()
	a := newTestMap(t, 1, 2, 3)
	b := a.Copy()
	removed, err := b.Remove(2)
	require.NoError(t, err)
	require.Equal(t, 20, removed)
	// already logically deleted; the base's value must not leak back out
	removed, err = b.Remove(2)
	require.NoError(t, err)
	require.Nil(t, removed)
}

// The three-generation scenario: removals in one copy are invisible to the
// others, in both directions.
func TestCopyGenerations(t *testing.T) {
	t.Parallel()
	a := New()
	for k, v := range map[int]string{10: "a", 20: "b", 30: "c", 40: "d", 50: "e"} {
		_, err := a.Put(k, v)
		require.NoError(t, err)
	}
	b := a.Copy()
	c := b.Copy()

	_, err := b.Remove(20)
	require.NoError(t, err)
	_, err = c.Remove(40)
	require.NoError(t, err)

	requireKeys(t, a, 10, 20, 30, 40, 50)
	requireKeys(t, b, 10, 30, 40, 50)
	requireKeys(t, c, 10, 20, 30, 50)
}

func TestCopyIsolation(t *testing.T) {
	t.Parallel()
	a := newTestMap(t, 1, 2, 3)
	b := a.Copy()

	_, err := b.Put(4, "new")
	require.NoError(t, err)
	_, err = b.Put(2, "changed")
	require.NoError(t, err)
	_, err = b.Remove(1)
	require.NoError(t, err)

	requireKeys(t, a, 1, 2, 3)
	v, _, err := a.Get(2)
	require.NoError(t, err)
	require.Equal(t, 20, v)

	_, err = a.Put(5, "fromA")
	require.NoError(t, err)
	found, err := b.Contains(5)
	require.NoError(t, err)
	require.False(t, found)
}

func TestTransitiveIsolation(t *testing.T) {
	t.Parallel()
	a := newTestMap(t, 1, 2, 3)
	b := a.Copy()
	c := b.Copy()

	_, err := b.Put(4, 40)
	require.NoError(t, err)
	found, err := c.Contains(4)
	require.NoError(t, err)
	require.False(t, found)

	_, err = c.Put(5, 50)
	require.NoError(t, err)
	for _, m := range []*Map{a, b} {
		found, err := m.Contains(5)
		require.NoError(t, err)
		require.False(t, found)
	}
}

func TestCopyHasEqualContent(t *testing.T) {
	t.Parallel()
	a := newTestMap(t, 3, 1, 4, 1, 5)
	b := a.Copy()
	aEntries, err := a.Entries()
	require.NoError(t, err)
	bEntries, err := b.Entries()
	require.NoError(t, err)
	require.Equal(t, aEntries, bEntries)

	fa, err := a.Fingerprint()
	require.NoError(t, err)
	fb, err := b.Fingerprint()
	require.NoError(t, err)
	require.Equal(t, fa, fb)
}

func TestCopyOfDivergedInstance(t *testing.T) {
	t.Parallel()
	a := newTestMap(t, 1, 2, 3)
	b := a.Copy()
	_, err := b.Put(4, 40)
	require.NoError(t, err)
	_, err = b.Remove(1)
	require.NoError(t, err)

	// copy of a diverged instance must carry both the changed entries and
	// the removed keys
	c := b.Copy()
	requireKeys(t, c, 2, 3, 4)

	// and stay isolated from its source afterwards
	_, err = b.Put(9, 90)
	require.NoError(t, err)
	requireKeys(t, c, 2, 3, 4)
}

func TestOverlayOnlyWhenShared(t *testing.T) {
	t.Parallel()
	a := New()
	// large enough that a single change stays under the rebase threshold
	for i := 1; i <= 20; i++ {
		_, err := a.Put(i, i*10)
		require.NoError(t, err)
	}
	require.Nil(t, a.ov.changes, "sole owner writes in place")
	require.Equal(t, 1, a.base.refs)

	b := a.Copy()
	require.Equal(t, 2, a.base.refs)
	_, err := b.Put(100, 1000)
	require.NoError(t, err)
	require.NotNil(t, b.ov.changes)
	require.Nil(t, a.ov.changes)
	require.Same(t, a.base, b.base)
}

func TestFoldAfterSiblingsReleased(t *testing.T) {
	t.Parallel()
	a := New()
	for i := 1; i <= 20; i++ {
		_, err := a.Put(i, i*10)
		require.NoError(t, err)
	}
	b := a.Copy()
	_, err := b.Put(100, 1000)
	require.NoError(t, err)
	_, err = b.Remove(1)
	require.NoError(t, err)
	require.NotNil(t, b.ov.changes)
	require.Same(t, a.base, b.base)

	a.Release()
	require.Equal(t, 1, b.base.refs)

	// next mutation folds the overlay into the now-exclusive base
	_, err = b.Put(101, 1010)
	require.NoError(t, err)
	require.Nil(t, b.ov.changes)
	expected := []interface{}{2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12, 13, 14, 15, 16, 17, 18, 19, 20, 100, 101}
	require.Equal(t, expected, b.base.entries.Keys())
	keys, err := b.Keys()
	require.NoError(t, err)
	require.Equal(t, expected, keys)
}

func TestRebasePastThreshold(t *testing.T) {
	t.Parallel()
	a := New()
	for i := 0; i < 100; i++ {
		_, err := a.Put(i, i)
		require.NoError(t, err)
	}
	b := a.Copy()
	oldBase := b.base

	// stay below the threshold: 10 changes over 100 base entries
	for i := 100; i < 110; i++ {
		_, err := b.Put(i, i)
		require.NoError(t, err)
	}
	require.Same(t, oldBase, b.base)
	require.NotNil(t, b.ov.changes)

	// the 11th change crosses 0.1 and forces a rebase
	_, err := b.Put(110, 110)
	require.NoError(t, err)
	require.NotSame(t, oldBase, b.base)
	require.Nil(t, b.ov.changes)
	require.Equal(t, 1, b.base.refs)
	require.Equal(t, 1, a.base.refs, "rebased instance released the shared store")

	// rebase transparency: only storage topology changed
	n, err := b.Len()
	require.NoError(t, err)
	require.Equal(t, 111, n)
	for i := 0; i < 111; i++ {
		found, err := b.Contains(i)
		require.NoError(t, err)
		require.True(t, found)
	}
	n, err = a.Len()
	require.NoError(t, err)
	require.Equal(t, 100, n)
}

func TestRebaseOnRemovals(t *testing.T) {
	t.Parallel()
	a := New()
	for i := 0; i < 40; i++ {
		_, err := a.Put(i, i)
		require.NoError(t, err)
	}
	b := a.Copy()
	for i := 0; i < 10; i++ {
		_, err := b.Remove(i)
		require.NoError(t, err)
	}
	require.Nil(t, b.ov.changes, "divergence past threshold should have rebased")
	n, err := b.Len()
	require.NoError(t, err)
	require.Equal(t, 30, n)
	n, err = a.Len()
	require.NoError(t, err)
	require.Equal(t, 40, n)
}

func TestCopyOfEmptyMapDiverges(t *testing.T) {
	t.Parallel()
	a := New()
	b := a.Copy()
	_, err := b.Put(1, 1)
	require.NoError(t, err)
	requireKeys(t, b, 1)
	requireKeys(t, a)
}

func TestPollFirstAndLast(t *testing.T) {
	t.Parallel()
	m := newTestMap(t, 10, 20, 30)

	e, ok, err := m.PollFirst()
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, Entry{Key: 10, Value: 100}, e)
	requireKeys(t, m, 20, 30)

	e, ok, err = m.PollLast()
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, Entry{Key: 30, Value: 300}, e)
	requireKeys(t, m, 20)

	m.Clear()
	_, ok, err = m.PollFirst()
	require.NoError(t, err)
	require.False(t, ok)
	_, ok, err = m.PollLast()
	require.NoError(t, err)
	require.False(t, ok)
}

func TestNavigationOperations(t *testing.T) {
	t.Parallel()
	m := newTestMap(t, 10, 20, 30)

	k, ok, err := m.FirstKey()
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, 10, k)
	k, ok, err = m.LastKey()
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, 30, k)

	k, ok, err = m.LowerKey(20)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, 10, k)
	k, ok, err = m.FloorKey(25)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, 20, k)
	k, ok, err = m.CeilingKey(25)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, 30, k)
	k, ok, err = m.HigherKey(20)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, 30, k)

	_, ok, err = m.HigherKey(30)
	require.NoError(t, err)
	assert.False(t, ok)
}

// Navigation must see through overlays and removals.
func TestNavigationOnDivergedInstance(t *testing.T) {
	t.Parallel()
	a := newTestMap(t, 10, 20, 30, 40)
	b := a.Copy()
	_, err := b.Remove(40)
	require.NoError(t, err)
	_, err = b.Put(35, 350)
	require.NoError(t, err)

	e, ok, err := b.Last()
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, Entry{Key: 35, Value: 350}, e)

	_, ok, err = b.Ceiling(36)
	require.NoError(t, err)
	require.False(t, ok, "removed 40 must not be reported")

	e, ok, err = a.Last()
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, Entry{Key: 40, Value: 400}, e)
}

func TestDescending(t *testing.T) {
	t.Parallel()
	m := newTestMap(t, 1, 2, 3)
	entries, err := m.Descending()
	require.NoError(t, err)
	require.Equal(t, []Entry{{Key: 3, Value: 30}, {Key: 2, Value: 20}, {Key: 1, Value: 10}}, entries)
	keys, err := m.DescendingKeys()
	require.NoError(t, err)
	require.Equal(t, []interface{}{3, 2, 1}, keys)
}

func TestContainsValue(t *testing.T) {
	t.Parallel()
	m := newTestMap(t, 1, 2)
	found, err := m.ContainsValue(20)
	require.NoError(t, err)
	require.True(t, found)
	found, err = m.ContainsValue(99)
	require.NoError(t, err)
	require.False(t, found)
}

func TestClearDetachesFromSharedBase(t *testing.T) {
	t.Parallel()
	a := newTestMap(t, 1, 2, 3)
	b := a.Copy()
	require.Equal(t, 2, a.base.refs)
	b.Clear()
	require.Equal(t, 1, a.base.refs)
	requireKeys(t, a, 1, 2, 3)
	requireKeys(t, b)
	empty, err := b.IsEmpty()
	require.NoError(t, err)
	require.True(t, empty)
}

func TestPutAll(t *testing.T) {
	t.Parallel()
	src := treemap.New(DefaultKeyCompare(defaultMarshal))
	require.NoError(t, src.Put(2, "b"))
	require.NoError(t, src.Put(1, "a"))
	m := newTestMap(t, 3)
	require.NoError(t, m.PutAll(src))
	requireKeys(t, m, 1, 2, 3)
}

func TestNewFromMapIsDeepCopy(t *testing.T) {
	t.Parallel()
	src := treemap.New(DefaultKeyCompare(defaultMarshal))
	require.NoError(t, src.Put(1, "a"))
	m := NewFromMap(src)
	require.NoError(t, src.Put(2, "b"))
	requireKeys(t, m, 1)
	require.Equal(t, 1, m.base.refs)
}

func TestReleaseDecrementsRefs(t *testing.T) {
	t.Parallel()
	a := newTestMap(t, 1)
	b := a.Copy()
	c := a.Copy()
	require.Equal(t, 3, a.base.refs)
	b.Release()
	require.Equal(t, 2, a.base.refs)
	b.Release() // idempotent
	require.Equal(t, 2, a.base.refs)
	c.Release()
	require.Equal(t, 1, a.base.refs)
}

func TestStringKeys(t *testing.T) {
	t.Parallel()
	m := New()
	_, err := m.Put("bravo", 2)
	require.NoError(t, err)
	_, err = m.Put("alpha", 1)
	require.NoError(t, err)
	requireKeys(t, m, "alpha", "bravo")
	e, ok, err := m.First()
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "alpha", e.Key)
}

func TestMismatchedKeyTypesError(t *testing.T) {
	t.Parallel()
	m := newTestMap(t, 1)
	_, err := m.Put("oops", 0)
	require.Error(t, err)
}

func TestFingerprintReflectsContent(t *testing.T) {
	t.Parallel()
	a := newTestMap(t, 1, 2, 3)
	b := a.Copy()
	fa, err := a.Fingerprint()
	require.NoError(t, err)

	_, err = b.Put(4, 40)
	require.NoError(t, err)
	fb, err := b.Fingerprint()
	require.NoError(t, err)
	require.NotEqual(t, fa, fb)

	_, err = b.Remove(4)
	require.NoError(t, err)
	fb, err = b.Fingerprint()
	require.NoError(t, err)
	require.Equal(t, fa, fb, "fingerprint depends on logical content, not storage topology")
}
