// Package parcel assembles a running file store: the in-memory database,
// the content safe over it and the store on top.
package parcel

import (
	"fmt"

	"ttfs/internal/config"
	"ttfs/internal/filestore"
	"ttfs/internal/safe"

	"github.com/dgraph-io/badger/v4"
	"go.uber.org/zap"
)

type Parcel struct {
	DB     *badger.DB
	Safe   *safe.Safe
	Store  *filestore.Store
	Logger *zap.Logger
}

func New(cfg *config.Config, logger *zap.Logger, opts ...filestore.Option) (*Parcel, error) {
	db, err := badger.Open(dbOptions())
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	compression := safe.DefaultCompressionOptions()
	compression.MinSize = cfg.Store.Compression.MinSize
	compression.Level = cfg.Store.Compression.Level

	contentSafe, err := safe.New(db, safe.Options{
		CacheSize:   cfg.Store.CacheSize,
		Compression: compression,
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("initializing content safe: %w", err)
	}

	logger.Debug("parcel ready",
		zap.Int("cache_size", cfg.Store.CacheSize),
		zap.Int("compression_min_size", compression.MinSize),
		zap.Int("compression_level", compression.Level))

	return &Parcel{
		DB:     db,
		Safe:   contentSafe,
		Store:  filestore.New(contentSafe, logger.Named("store"), opts...),
		Logger: logger,
	}, nil
}

func (p *Parcel) Close() error {
	if p.DB == nil {
		return nil
	}
	if err := p.DB.Close(); err != nil {
		return fmt.Errorf("closing database: %w", err)
	}
	return nil
}
