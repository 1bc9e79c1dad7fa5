/*
Package sharingmap provides a sorted map built for workloads that copy the
whole map many times: snapshot-per-version stores, speculative edits,
branching interpreters.  Copies share one reference-counted backing store,
and each copy keeps only its divergent edits in a small private overlay, so
a copy costs O(1) rather than O(n) while staying logically independent.

Uses

- Cheap full-map snapshots of configuration or session state per version

- Speculative edits that are either kept or thrown away

- A drop-in alternative to deep-copying an ordered map per branch

How it works

Every mutation checks the backing store's reference count.  A sole owner
writes in place; a sharer redirects the write into its overlay (changed
entries plus a removed-key set).  When an instance's divergence exceeds a
tenth of the backing store it rebases: it takes a fresh private copy of the
backing store, folds the overlay in, and continues as sole owner.  An
instance whose siblings have all released their references folds its overlay
back into the store on its next mutation.

Navigation queries (first/last, floor/ceiling, key ranges, iteration order)
are answered from a plain ordered map materialized per call.  That cost is
the deliberate trade-off of the design: mutation-heavy branching is cheap,
range-query-heavy use is not.

Range views made with SubMap share the parent's backing store and overlay,
so mutations through either side are visible to both until one of them
rebases.

Instances sharing a backing store belong to one goroutine.  The reference
count and the in-place write decision are unsynchronized; confine a family
of copies to a single owner, or guard them externally.
*/
package sharingmap
