package cache

import (
	"encoding/json"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	badger "github.com/dgraph-io/badger/v4"
)

// DiskOptions configures a Disk cache.
type DiskOptions struct {
	// Dir is the BadgerDB directory. It is created if missing.
	Dir string
	// TTL expires entries after this long. Zero keeps them forever.
	TTL time.Duration
}

// Disk persists JSON-encoded values in BadgerDB so results survive
// between runs. Errors on Get count as misses and errors on Set are
// dropped; a broken cache only costs a re-review.
type Disk[V any] struct {
	db  *badger.DB
	ttl time.Duration

	hits   atomic.Int64
	misses atomic.Int64
}

// OpenDisk opens or creates the cache in opts.Dir.
func OpenDisk[V any](opts DiskOptions) (*Disk[V], error) {
	if opts.Dir == "" {
		return nil, errors.New("cache directory is required")
	}
	bopts := badger.DefaultOptions(opts.Dir).WithLogger(nil)
	db, err := badger.Open(bopts)
	if err != nil {
		return nil, fmt.Errorf("opening cache %s: %w", opts.Dir, err)
	}
	return &Disk[V]{db: db, ttl: opts.TTL}, nil
}

func (d *Disk[V]) Get(key string) (V, bool) {
	var value V
	err := d.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(key))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &value)
		})
	})
	if err != nil {
		var zero V
		d.misses.Add(1)
		return zero, false
	}
	d.hits.Add(1)
	return value, true
}

func (d *Disk[V]) Set(key string, value V) {
	data, err := json.Marshal(value)
	if err != nil {
		return
	}
	_ = d.db.Update(func(txn *badger.Txn) error {
		e := badger.NewEntry([]byte(key), data)
		if d.ttl > 0 {
			e = e.WithTTL(d.ttl)
		}
		return txn.SetEntry(e)
	})
}

func (d *Disk[V]) Clear() {
	_ = d.db.DropAll()
}

// Stats returns hit and miss counts. Entries is not tracked on disk.
func (d *Disk[V]) Stats() Stats {
	return Stats{Hits: d.hits.Load(), Misses: d.misses.Load()}
}

// Close reclaims value-log space and closes the database.
func (d *Disk[V]) Close() error {
	_ = d.db.RunValueLogGC(0.5)
	return d.db.Close()
}

// Layered checks a fast cache before a slow one and promotes hits from
// the slow one. Writes go to both.
type Layered[V any] struct {
	front Cache[V]
	back  Cache[V]
}

// NewLayered returns a cache reading front first, then back.
func NewLayered[V any](front, back Cache[V]) *Layered[V] {
	return &Layered[V]{front: front, back: back}
}

func (l *Layered[V]) Get(key string) (V, bool) {
	if v, ok := l.front.Get(key); ok {
		return v, true
	}
	v, ok := l.back.Get(key)
	if ok {
		l.front.Set(key, v)
	}
	return v, ok
}

func (l *Layered[V]) Set(key string, value V) {
	l.front.Set(key, value)
	l.back.Set(key, value)
}

func (l *Layered[V]) Clear() {
	l.front.Clear()
	l.back.Clear()
}
