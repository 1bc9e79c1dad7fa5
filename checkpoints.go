package sharingmap

import lru "github.com/hashicorp/golang-lru"

// Checkpoints retains a bounded number of saved versions of a map for
// snapshot-per-version workloads.  Saving is cheap: each checkpoint is a
// Copy sharing the backing store.  When the capacity is exceeded the least
// recently used checkpoint is evicted and its backing store reference
// released.
type Checkpoints struct {
	cache *lru.Cache
}

// NewCheckpoints creates a checkpoint registry retaining up to the given
// number of versions.
func NewCheckpoints(capacity int) *Checkpoints {
	cache, err := lru.NewWithEvict(capacity, func(_, value interface{}) {
		value.(*Map).Release()
	})
	if err != nil {
		panic(err)
	}
	return &Checkpoints{cache: cache}
}

// Save records the current content of the given map under the given id,
// replacing any earlier checkpoint with that id.
func (c *Checkpoints) Save(id interface{}, m *Map) {
	// Remove first so an existing checkpoint is released via the eviction
	// callback; Add alone would overwrite it silently.
	c.cache.Remove(id)
	c.cache.Add(id, m.Copy())
}

// Get returns an independent copy of the checkpoint saved under the given
// id.  The caller owns the returned instance and should Release it when
// done.
func (c *Checkpoints) Get(id interface{}) (*Map, bool) {
	value, ok := c.cache.Get(id)
	if !ok {
		return nil, false
	}
	return value.(*Map).Copy(), true
}

// Len returns the number of retained checkpoints.
func (c *Checkpoints) Len() int {
	return c.cache.Len()
}

// Release drops every retained checkpoint, releasing their backing store
// references.
func (c *Checkpoints) Release() {
	c.cache.Purge()
}
