package testutil

import (
	"testing"

	"ttfs/internal/safe"

	"github.com/dgraph-io/badger/v4"
	"github.com/stretchr/testify/require"
)

// NewSafe returns a Safe over an in-memory badger closed with the test.
func NewSafe(t *testing.T) *safe.Safe {
	t.Helper()

	opts := badger.DefaultOptions("").WithInMemory(true)
	opts.Logger = nil // Disable logging for tests

	db, err := badger.Open(opts)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	s, err := safe.New(db, safe.Options{})
	require.NoError(t, err)
	return s
}
