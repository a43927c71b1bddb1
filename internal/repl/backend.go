package repl

import (
	"ttfs/internal/filestore"
	"ttfs/internal/safe"
	"ttfs/internal/version"
	"ttfs/shared/types"
)

// Backend is what a console session drives: a local store or a remote
// server through the client.
type Backend interface {
	CreateFile(name string) error
	ReadFile(name string) (string, error)
	Insert(name, text string) error
	Update(name, text string) error
	Snapshot(name, message string) error
	Rollback(name string, target version.Target) error
	History(name string) ([]version.Entry, error)
	TopRecent(count int) ([]filestore.RecentFile, error)
	TopBySize(count int) ([]filestore.SizedFile, error)
	Stats() (*shared.Stats, error)
}

type local struct {
	*filestore.Store
	blobs safe.BlobStats
}

// Local adapts an in-process store to Backend.
func Local(store *filestore.Store, blobs safe.BlobStats) Backend {
	return local{Store: store, blobs: blobs}
}

func (l local) TopRecent(count int) ([]filestore.RecentFile, error) {
	return l.Store.TopRecent(count), nil
}

func (l local) TopBySize(count int) ([]filestore.SizedFile, error) {
	return l.Store.TopBySize(count), nil
}

func (l local) Stats() (*shared.Stats, error) {
	blobs, err := l.blobs.Stats()
	if err != nil {
		return nil, err
	}
	return &shared.Stats{
		Stats:       l.Store.Stats(),
		Blobs:       blobs.Blobs,
		BlobBytes:   blobs.Bytes,
		StoredBytes: blobs.StoredBytes,
	}, nil
}
