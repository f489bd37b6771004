package repository

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/boltdb/bolt"
	"github.com/smallbiznis/formpay/internal/analytics/domain"
	"github.com/smallbiznis/formpay/internal/analytics/rollup"
	paymentdomain "github.com/smallbiznis/formpay/internal/payment/domain"
)

var (
	recordsBucket   = []byte("records")
	formIndexBucket = []byte("form_index")
)

const indexSep = 0x00

// boltRepo keeps one JSON document per provider payment id plus a
// form_id/date index for range scans.
type boltRepo struct {
	db *bolt.DB
}

// OpenBolt opens (or creates) the store at path.
func OpenBolt(path string) (*bolt.DB, error) {
	if dir := filepath.Dir(path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create bolt dir: %w", err)
		}
	}
	store, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: 2 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("open bolt store: %w", err)
	}
	err = store.Update(func(tx *bolt.Tx) error {
		if _, err := tx.CreateBucketIfNotExists(recordsBucket); err != nil {
			return err
		}
		_, err := tx.CreateBucketIfNotExists(formIndexBucket)
		return err
	})
	if err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("init bolt buckets: %w", err)
	}
	return store, nil
}

func NewBolt(store *bolt.DB) domain.Repository {
	return &boltRepo{db: store}
}

// Insert runs the existence check and the put inside a single write
// transaction. Bolt serializes writers, so a concurrent duplicate observes
// the first write.
func (r *boltRepo) Insert(ctx context.Context, record *domain.Record) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	value, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("encode analytics record: %w", err)
	}
	key := []byte(record.ProviderPaymentID)

	return r.db.Update(func(tx *bolt.Tx) error {
		records := tx.Bucket(recordsBucket)
		if records.Get(key) != nil {
			return domain.ErrDuplicateKey
		}
		if err := records.Put(key, value); err != nil {
			return err
		}
		return tx.Bucket(formIndexBucket).Put(indexKey(record.FormID, record.Date, record.ProviderPaymentID), key)
	})
}

func (r *boltRepo) FindByProviderPaymentID(ctx context.Context, providerPaymentID string) (*domain.Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var record *domain.Record
	err := r.db.View(func(tx *bolt.Tx) error {
		raw := tx.Bucket(recordsBucket).Get([]byte(providerPaymentID))
		if raw == nil {
			return domain.ErrNotFound
		}
		var decoded domain.Record
		if err := json.Unmarshal(raw, &decoded); err != nil {
			return fmt.Errorf("decode analytics record: %w", err)
		}
		record = &decoded
		return nil
	})
	if err != nil {
		return nil, err
	}
	return record, nil
}

func (r *boltRepo) ListSucceeded(ctx context.Context, formID string, dateRange domain.DateRange) ([]domain.Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	prefix := append([]byte(formID), indexSep)
	seek := prefix
	if dateRange.Start != nil {
		seek = append(append([]byte{}, prefix...), dateKey(*dateRange.Start)...)
	}

	var out []domain.Record
	err := r.db.View(func(tx *bolt.Tx) error {
		records := tx.Bucket(recordsBucket)
		cursor := tx.Bucket(formIndexBucket).Cursor()
		for k, v := cursor.Seek(seek); k != nil && bytes.HasPrefix(k, prefix); k, v = cursor.Next() {
			raw := records.Get(v)
			if raw == nil {
				continue
			}
			var record domain.Record
			if err := json.Unmarshal(raw, &record); err != nil {
				return fmt.Errorf("decode analytics record: %w", err)
			}
			if dateRange.End != nil && record.Date.After(*dateRange.End) {
				break
			}
			if record.Status != string(paymentdomain.EventKindSucceeded) || !rollup.InRange(record.Date, dateRange) {
				continue
			}
			out = append(out, record)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func indexKey(formID string, date time.Time, paymentID string) []byte {
	key := make([]byte, 0, len(formID)+len(paymentID)+32)
	key = append(key, formID...)
	key = append(key, indexSep)
	key = append(key, dateKey(date)...)
	key = append(key, indexSep)
	key = append(key, paymentID...)
	return key
}

// dateKey is fixed width so byte order matches time order.
func dateKey(t time.Time) []byte {
	return []byte(t.UTC().Format("20060102T150405.000000000"))
}
