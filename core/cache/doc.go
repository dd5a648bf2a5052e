// Package cache holds the client-side copy of every entity collection.
//
// Each key has a fetcher, a staleness window and a subscriber list. Reads
// never block: a read past the window returns the cached value and refreshes
// in the background. Concurrent refreshes of a key share one fetch. A failed
// refresh keeps the last good value and marks the entry as errored.
//
// Listeners run synchronously on the goroutine that changed the entry. A
// listener must not write to the key it observes.
package cache
