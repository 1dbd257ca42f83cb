// Package thumbs implements thumbnail loading: the per-placeholder load
// state machine, a debounced prioritization pipeline driven by visibility
// reports, and a fetcher that reads through the local cache.
package thumbs
