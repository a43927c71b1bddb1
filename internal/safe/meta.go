package safe

import (
	"encoding/json"
	"fmt"

	"github.com/dgraph-io/badger/v4"
)

const metaPrefix = "meta:"

// metaTable keeps one JSON-encoded ContentMeta per payload under
// "meta:<hash>". Writes take the caller's transaction so a payload and its
// metadata change together.
type metaTable struct {
	db *badger.DB
}

func metaKey(hash string) []byte {
	return []byte(metaPrefix + hash)
}

func (t metaTable) get(hash string) (ContentMeta, error) {
	var meta ContentMeta
	err := t.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(metaKey(hash))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &meta)
		})
	})
	if err == badger.ErrKeyNotFound {
		return ContentMeta{}, ErrContentNotFound
	}
	if err != nil {
		return ContentMeta{}, fmt.Errorf("getting metadata: %w", err)
	}
	return meta, nil
}

func (t metaTable) put(txn *badger.Txn, meta ContentMeta) error {
	data, err := json.Marshal(meta)
	if err != nil {
		return fmt.Errorf("marshaling metadata: %w", err)
	}
	return txn.Set(metaKey(meta.Hash), data)
}

func (t metaTable) remove(txn *badger.Txn, hash string) error {
	return txn.Delete(metaKey(hash))
}

// all returns every record in key order.
func (t metaTable) all() ([]ContentMeta, error) {
	var metas []ContentMeta
	err := t.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		prefix := []byte(metaPrefix)
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			var meta ContentMeta
			if err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &meta)
			}); err != nil {
				return err
			}
			metas = append(metas, meta)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("listing metadata: %w", err)
	}
	return metas, nil
}
