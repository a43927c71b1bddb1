// internal/safe/safe.go
package safe

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"ttfs/shared/utils"

	"github.com/dgraph-io/badger/v4"
	lru "github.com/hashicorp/golang-lru/v2"
)

var (
	ErrContentNotFound = errors.New("content not found")
	ErrInvalidHash     = errors.New("invalid content hash")
)

// ContentMeta stores metadata about stored content
type ContentMeta struct {
	Hash       string    `json:"hash"`
	Size       int64     `json:"size"`
	StoredSize int64     `json:"stored_size"`
	RefCount   uint32    `json:"ref_count"`
	Compressed bool      `json:"compressed"`
	CreatedAt  time.Time `json:"created_at"`
}

// Safe is a deduplicated, reference-counted payload store. Payloads are
// addressed by their sha256 and live in badger next to their metadata.
type Safe struct {
	db    *badger.DB
	metas metaTable
	cache *lru.Cache[string, []byte]
	cm    *compressionManager
	mu    sync.Mutex
}

// Options configures Safe behavior
type Options struct {
	CacheSize   int // Number of decoded payloads to cache
	Compression CompressionOptions
}

func New(db *badger.DB, opts Options) (*Safe, error) {
	if db == nil {
		return nil, fmt.Errorf("database cannot be nil")
	}
	if opts.CacheSize == 0 {
		opts.CacheSize = 256
	}
	if opts.Compression.Level == 0 {
		opts.Compression = DefaultCompressionOptions()
	}

	cache, err := lru.New[string, []byte](opts.CacheSize)
	if err != nil {
		return nil, fmt.Errorf("creating cache: %w", err)
	}

	cm, err := newCompressionManager(opts.Compression)
	if err != nil {
		return nil, fmt.Errorf("creating compression manager: %w", err)
	}

	return &Safe{
		db:    db,
		metas: metaTable{db: db},
		cache: cache,
		cm:    cm,
	}, nil
}

// Store saves content on behalf of the named file and returns its hash. Each
// call takes one reference; Delete gives it back.
func (s *Safe) Store(name string, content []byte) (string, error) {
	if content == nil {
		content = []byte{}
	}
	hash := utils.HashContent(content)

	s.mu.Lock()
	defer s.mu.Unlock()

	meta, err := s.metas.get(hash)
	switch {
	case err == nil:
		meta.RefCount++
		if err := s.db.Update(func(txn *badger.Txn) error {
			return s.metas.put(txn, meta)
		}); err != nil {
			return "", fmt.Errorf("incrementing ref count: %w", err)
		}
		return hash, nil
	case !errors.Is(err, ErrContentNotFound):
		return "", err
	}

	stored, compressed := s.cm.compress(name, content)
	meta = ContentMeta{
		Hash:       hash,
		Size:       int64(len(content)),
		StoredSize: int64(len(stored)),
		RefCount:   1,
		Compressed: compressed,
		CreatedAt:  time.Now(),
	}

	if err := s.db.Update(func(txn *badger.Txn) error {
		if err := txn.Set(blobKey(hash), stored); err != nil {
			return err
		}
		return s.metas.put(txn, meta)
	}); err != nil {
		return "", fmt.Errorf("writing content: %w", err)
	}

	s.cache.Add(hash, content)
	return hash, nil
}

// Get retrieves content by hash
func (s *Safe) Get(hash string) ([]byte, error) {
	if !utils.IsHash(hash) {
		return nil, ErrInvalidHash
	}

	if content, ok := s.cache.Get(hash); ok {
		return content, nil
	}

	meta, err := s.metas.get(hash)
	if err != nil {
		return nil, err
	}

	var content []byte
	err = s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(blobKey(hash))
		if err != nil {
			return err
		}
		content, err = item.ValueCopy(nil)
		return err
	})
	if err == badger.ErrKeyNotFound {
		return nil, ErrContentNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("reading content: %w", err)
	}

	if meta.Compressed {
		content, err = s.cm.decompress(content)
		if err != nil {
			return nil, fmt.Errorf("decompressing content: %w", err)
		}
	}

	if utils.HashContent(content) != hash {
		return nil, fmt.Errorf("content hash mismatch")
	}

	s.cache.Add(hash, content)
	return content, nil
}

// Delete drops one reference and removes the payload with the last one.
func (s *Safe) Delete(hash string) error {
	if !utils.IsHash(hash) {
		return ErrInvalidHash
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	meta, err := s.metas.get(hash)
	if err != nil {
		return err
	}

	meta.RefCount--
	if err := s.db.Update(func(txn *badger.Txn) error {
		if meta.RefCount > 0 {
			return s.metas.put(txn, meta)
		}
		if err := txn.Delete(blobKey(hash)); err != nil {
			return err
		}
		return s.metas.remove(txn, hash)
	}); err != nil {
		return fmt.Errorf("releasing content: %w", err)
	}
	if meta.RefCount > 0 {
		return nil
	}
	s.cache.Remove(hash)
	return nil
}

// Exists checks if content exists
func (s *Safe) Exists(hash string) (bool, error) {
	if !utils.IsHash(hash) {
		return false, ErrInvalidHash
	}
	if s.cache.Contains(hash) {
		return true, nil
	}

	_, err := s.metas.get(hash)
	if errors.Is(err, ErrContentNotFound) {
		return false, nil
	}
	return err == nil, err
}

// Meta returns the metadata recorded for hash.
func (s *Safe) Meta(hash string) (ContentMeta, error) {
	if !utils.IsHash(hash) {
		return ContentMeta{}, ErrInvalidHash
	}
	return s.metas.get(hash)
}

// BlobStats is implemented by anything that can report what a Safe holds.
type BlobStats interface {
	Stats() (Stats, error)
}

var _ BlobStats = (*Safe)(nil)

// Stats summarises everything currently held.
type Stats struct {
	Blobs       int   `json:"blobs"`
	Bytes       int64 `json:"bytes"`
	StoredBytes int64 `json:"stored_bytes"`
}

func (s *Safe) Stats() (Stats, error) {
	metas, err := s.metas.all()
	if err != nil {
		return Stats{}, err
	}

	var st Stats
	for _, m := range metas {
		st.Blobs++
		st.Bytes += m.Size
		st.StoredBytes += m.StoredSize
	}
	return st, nil
}

func blobKey(hash string) []byte {
	return []byte("blob:" + hash)
}
