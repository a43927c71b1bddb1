// Package shared holds the request and response bodies exchanged between the
// HTTP API and its client.
package shared

import (
	"ttfs/internal/filestore"
	"ttfs/internal/validation"
	"ttfs/internal/version"
)

type CreateFileRequest struct {
	Name string `json:"name"`
}

func (r *CreateFileRequest) Validate() error {
	return validation.Filename(r.Name)
}

// WriteRequest is the body of both insert and update.
type WriteRequest struct {
	Text string `json:"text"`
}

func (r *WriteRequest) Validate() error { return nil }

type SnapshotRequest struct {
	Message string `json:"message"`
}

func (r *SnapshotRequest) Validate() error { return nil }

// RollbackRequest targets the parent of the active version when Version is
// nil.
type RollbackRequest struct {
	Version *int `json:"version,omitempty"`
}

func (r *RollbackRequest) Validate() error { return nil }

func (r *RollbackRequest) Target() version.Target {
	if r.Version == nil {
		return version.Parent()
	}
	return version.At(*r.Version)
}

type FileContent struct {
	Name    string `json:"name"`
	Content string `json:"content"`
}

type History struct {
	Name    string          `json:"name"`
	Entries []version.Entry `json:"entries"`
}

type RecentFiles struct {
	Files []filestore.RecentFile `json:"files"`
}

type SizedFiles struct {
	Files []filestore.SizedFile `json:"files"`
}

type Stats struct {
	filestore.Stats
	Blobs       int   `json:"blobs"`
	BlobBytes   int64 `json:"blob_bytes"`
	StoredBytes int64 `json:"stored_bytes"`
}
