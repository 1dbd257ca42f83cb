// Package state provides the single source-of-truth store for the gallery.
//
// # Overview
//
// The Store holds the image list, selection, filters, view mode and status
// flags. Components never share mutable state: they read deep-copied
// snapshots and write through SetState, which merges a typed Patch and then
// notifies subscribers synchronously.
//
//	Producer (network reply, key press):    Consumers:
//	┌─────────────────────┐                ┌──────────────────────┐
//	│ store.SetState(p)   │──── notify ───→│ renderer reconcile   │
//	│   merge Patch       │                │ navigation retarget  │
//	│   normalize         │                │ edit preview refresh │
//	└─────────────────────┘                └──────────────────────┘
//
// # Merge Semantics
//
// Patch fields wrapped in Opt replace the target wholesale: the image list,
// the selection set, the active image pointer and scalar flags. The nested
// plain structs (Filters, Counts, Status) have their own patch types and
// merge field by field, so a patch that only sets Filters.Search leaves the
// folder allow-list alone.
//
// After every merge the store restores its invariants:
//
//   - NavIndex points at ActiveImage within Images, or is -1
//   - replacing Images prunes the selection to paths still listed
//   - the range-selection anchor is dropped when its path disappears
//
// # Events
//
// Bus carries notifications that are not state, such as "this thumbnail
// must be regenerated". Its Event variants form a closed set.
//
// # Concurrency
//
// The store is guarded by a mutex so network callbacks running on other
// goroutines can write safely. Listeners run outside the lock, in
// registration order, on the goroutine that performed the write.
package state
