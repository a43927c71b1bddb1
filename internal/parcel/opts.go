package parcel

import (
	"github.com/dgraph-io/badger/v4"
)

// dbOptions returns badger options for a memory-only database. Nothing
// outlives the process, so a single version per key and one compaction
// goroutine are enough.
func dbOptions() badger.Options {
	return badger.DefaultOptions("").
		WithInMemory(true).
		WithNumVersionsToKeep(1).
		WithNumGoroutines(1).
		WithLogger(nil) // badger's own logger is noisy
}
