package store

import (
	"encoding/binary"
	"time"

	jsoniter "github.com/json-iterator/go"
	"github.com/pkg/errors"
	"go.etcd.io/bbolt"
	"go.uber.org/zap"

	"github.com/talkincode/papeleria/internal/domain"
)

var productosBucket = []byte("productos")

// BoltProductStore keeps the product collection in a bbolt bucket keyed
// by product identifier.
type BoltProductStore struct {
	db *bbolt.DB
}

// OpenBolt opens or creates the structured store file. A locked or
// unreadable file yields ErrStorageUnavailable so callers can fall back
// to the flat store.
func OpenBolt(path string) (*BoltProductStore, error) {
	db, err := bbolt.Open(path, 0600, &bbolt.Options{Timeout: 3 * time.Second})
	if err != nil {
		return nil, errors.Wrap(ErrStorageUnavailable, err.Error())
	}
	err = db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(productosBucket)
		return err
	})
	if err != nil {
		_ = db.Close()
		return nil, errors.Wrap(ErrStorageUnavailable, err.Error())
	}
	return &BoltProductStore{db: db}, nil
}

func (s *BoltProductStore) Close() error {
	return s.db.Close()
}

func (s *BoltProductStore) GetAll() ([]domain.Product, error) {
	var items []domain.Product
	err := s.db.View(func(tx *bbolt.Tx) error {
		b := tx.Bucket(productosBucket)
		if b == nil {
			return nil
		}
		return b.ForEach(func(k, v []byte) error {
			var p domain.Product
			if err := jsoniter.Unmarshal(v, &p); err != nil {
				zap.L().Warn("boltstore: skipping undecodable record", zap.Error(err))
				return nil
			}
			items = append(items, p)
			return nil
		})
	})
	if err != nil {
		return nil, errors.Wrap(ErrStorageUnavailable, err.Error())
	}
	return items, nil
}

// ReplaceAll clears the bucket and reinserts every record in one
// transaction. A failed clear aborts; a failed individual insert is
// logged and skipped, trading full-replace atomicity for availability.
func (s *BoltProductStore) ReplaceAll(items []domain.Product) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		if err := tx.DeleteBucket(productosBucket); err != nil && err != bbolt.ErrBucketNotFound {
			return err
		}
		b, err := tx.CreateBucket(productosBucket)
		if err != nil {
			return err
		}
		for _, p := range items {
			data, err := jsoniter.Marshal(p)
			if err != nil {
				zap.L().Warn("boltstore: skipping unencodable record",
					zap.Int64("id", p.ID), zap.Error(err))
				continue
			}
			if err := b.Put(productKey(p.ID), data); err != nil {
				zap.L().Warn("boltstore: record insert failed",
					zap.Int64("id", p.ID), zap.Error(err))
			}
		}
		return nil
	})
}

func productKey(id int64) []byte {
	var k [8]byte
	binary.BigEndian.PutUint64(k[:], uint64(id))
	return k[:]
}
