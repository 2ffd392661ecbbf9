// Package badger provides a Badger-backed storage provider for single-node
// deployments and local development.
package badger

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	bdb "github.com/dgraph-io/badger/v4"

	"github.com/iamharada/stepwise-system/pkg/storage"
)

// Config configures the Badger provider.
type Config struct {
	// Dir is the database directory. Ignored when InMemory is set.
	Dir string

	// InMemory keeps all data in memory.
	InMemory bool
}

// Provider implements storage.Provider on a Badger key/value database.
type Provider struct {
	db  *bdb.DB
	now func() time.Time
}

// Open opens (or creates) the Badger database.
func Open(cfg Config) (*Provider, error) {
	if !cfg.InMemory && cfg.Dir == "" {
		return nil, fmt.Errorf("badger dir is required")
	}

	opts := bdb.DefaultOptions(cfg.Dir).WithLoggingLevel(bdb.ERROR)
	if cfg.InMemory {
		opts = bdb.DefaultOptions("").WithInMemory(true).WithLoggingLevel(bdb.ERROR)
	}

	db, err := bdb.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("opening badger: %w", err)
	}
	return &Provider{db: db, now: time.Now}, nil
}

// Name returns the provider name.
func (*Provider) Name() string {
	return "badger"
}

// Objects are stored as two entries written in one transaction: the raw
// body under dataPrefix and a small metadata record under metaPrefix, so
// List never reads object bodies.
const (
	dataPrefix = "d/"
	metaPrefix = "m/"
)

// meta is the per-object record List decodes.
type meta struct {
	Size         int64     `json:"size"`
	LastModified time.Time `json:"last_modified"`
	ContentType  string    `json:"content_type,omitempty"`
}

// Put stores data with its metadata under key.
func (p *Provider) Put(ctx context.Context, key string, data []byte, contentType string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	record, err := json.Marshal(meta{
		Size:         int64(len(data)),
		LastModified: p.now().UTC(),
		ContentType:  contentType,
	})
	if err != nil {
		return fmt.Errorf("encoding metadata: %w", err)
	}

	err = p.db.Update(func(txn *bdb.Txn) error {
		if err := txn.Set([]byte(dataPrefix+key), data); err != nil {
			return err
		}
		return txn.Set([]byte(metaPrefix+key), record)
	})
	if err != nil {
		return fmt.Errorf("writing %s: %w", key, err)
	}
	return nil
}

// List iterates keys under prefix in key order, reading only metadata.
func (p *Provider) List(ctx context.Context, prefix string) ([]storage.ObjectInfo, error) {
	objects := make([]storage.ObjectInfo, 0)
	seek := []byte(metaPrefix + prefix)
	err := p.db.View(func(txn *bdb.Txn) error {
		opts := bdb.DefaultIteratorOptions
		opts.Prefix = seek

		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Seek(seek); it.ValidForPrefix(seek); it.Next() {
			if err := ctx.Err(); err != nil {
				return err
			}
			item := it.Item()
			var m meta
			if err := item.Value(func(val []byte) error {
				return json.Unmarshal(val, &m)
			}); err != nil {
				return fmt.Errorf("decoding metadata for %s: %w", item.Key(), err)
			}
			objects = append(objects, storage.ObjectInfo{
				Key:          string(item.Key()[len(metaPrefix):]),
				Size:         m.Size,
				LastModified: m.LastModified,
			})
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("listing objects: %w", err)
	}
	return objects, nil
}

// Get fetches a single object.
func (p *Provider) Get(ctx context.Context, key string) (*storage.Object, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	obj := &storage.Object{ObjectInfo: storage.ObjectInfo{Key: key}}
	err := p.db.View(func(txn *bdb.Txn) error {
		item, err := txn.Get([]byte(metaPrefix + key))
		if err != nil {
			return err
		}
		var m meta
		if err := item.Value(func(val []byte) error {
			return json.Unmarshal(val, &m)
		}); err != nil {
			return fmt.Errorf("decoding metadata: %w", err)
		}
		obj.Size = m.Size
		obj.LastModified = m.LastModified
		obj.ContentType = m.ContentType

		item, err = txn.Get([]byte(dataPrefix + key))
		if err != nil {
			return err
		}
		obj.Data, err = item.ValueCopy(nil)
		return err
	})
	if errors.Is(err, bdb.ErrKeyNotFound) {
		return nil, storage.ErrObjectNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", key, err)
	}
	return obj, nil
}

// Ping reports whether the database is open.
func (p *Provider) Ping(context.Context) error {
	if p.db == nil || p.db.IsClosed() {
		return errors.New("badger database is closed")
	}
	return nil
}

// Close closes the database.
func (p *Provider) Close() error {
	if p.db != nil {
		return p.db.Close()
	}
	return nil
}

// Verify interface compliance.
var (
	_ storage.Provider = (*Provider)(nil)
	_ storage.Pinger   = (*Provider)(nil)
)
