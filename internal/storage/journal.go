// Package storage keeps a bounded on-disk journal of emitted positions so a
// session can be inspected or replayed after the fact.
package storage

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"go.etcd.io/bbolt"

	"github.com/thyrook/fentrack/internal/diff"
	"github.com/thyrook/fentrack/internal/session"
)

const (
	// BucketName holds the entries, keyed by slot
	BucketName = "positions"

	// MetaBucket holds the running count
	MetaBucket = "meta"

	// CountKey for tracking total entries ever appended
	CountKey = "count"
)

// ErrClosed is returned by every method after Close
var ErrClosed = errors.New("journal is closed")

// Entry is one emitted position
type Entry struct {
	Seq uint64 `json:"seq"`
	// FEN is in standard orientation whatever the viewer's side
	FEN string `json:"fen"`
	// View is the FEN as displayed, kept only when it differs from FEN
	View      string `json:"view,omitempty"`
	Move      string `json:"move,omitempty"`
	Shape     string `json:"shape,omitempty"`
	Kind      string `json:"kind"`
	POV       string `json:"pov"`
	Timestamp int64  `json:"timestamp"` // Unix milliseconds
}

// Journal is a circular buffer of entries in a bbolt file. Once full, each
// append overwrites the oldest entry.
type Journal struct {
	db      *bbolt.DB
	dbPath  string
	maxSize int
	count   uint64
	mu      sync.Mutex
	closed  bool
}

// Open opens or creates the journal at dbPath
func Open(dbPath string, maxSize int) (*Journal, error) {
	if maxSize < 1 {
		return nil, fmt.Errorf("invalid journal size %d", maxSize)
	}
	if dir := filepath.Dir(dbPath); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create journal directory: %w", err)
		}
	}

	db, err := bbolt.Open(dbPath, 0600, &bbolt.Options{
		Timeout: 5 * time.Second,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	var count uint64
	err = db.Update(func(tx *bbolt.Tx) error {
		if _, err := tx.CreateBucketIfNotExists([]byte(BucketName)); err != nil {
			return fmt.Errorf("create bucket: %w", err)
		}
		meta, err := tx.CreateBucketIfNotExists([]byte(MetaBucket))
		if err != nil {
			return fmt.Errorf("create meta bucket: %w", err)
		}
		if v := meta.Get([]byte(CountKey)); v != nil {
			count = binary.BigEndian.Uint64(v)
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, err
	}

	return &Journal{
		db:      db,
		dbPath:  dbPath,
		maxSize: maxSize,
		count:   count,
	}, nil
}

func slotKey(slot uint64) []byte {
	key := make([]byte, 8)
	binary.BigEndian.PutUint64(key, slot)
	return key
}

// Append stores e in the next slot
func (j *Journal) Append(e Entry) error {
	j.mu.Lock()
	defer j.mu.Unlock()

	if j.closed {
		return ErrClosed
	}

	data, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("failed to marshal entry: %w", err)
	}

	return j.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket([]byte(BucketName))
		meta := tx.Bucket([]byte(MetaBucket))
		if b == nil || meta == nil {
			return fmt.Errorf("bucket not found")
		}

		if err := b.Put(slotKey(j.count%uint64(j.maxSize)), data); err != nil {
			return err
		}

		next := j.count + 1
		countBytes := make([]byte, 8)
		binary.BigEndian.PutUint64(countBytes, next)
		if err := meta.Put([]byte(CountKey), countBytes); err != nil {
			return err
		}

		j.count = next
		return nil
	})
}

// Emit journals a session emission
func (j *Journal) Emit(ctx context.Context, e session.Emission) error {
	entry := Entry{
		Seq:       e.Seq,
		FEN:       e.Position,
		Move:      e.Move,
		Kind:      e.Kind.String(),
		POV:       e.POV.String(),
		Timestamp: e.At.UnixMilli(),
	}
	if entry.FEN == "" {
		entry.FEN = e.FEN
	} else if e.FEN != entry.FEN {
		entry.View = e.FEN
	}
	if e.Shape != diff.NoChange {
		entry.Shape = e.Shape.String()
	}
	return j.Append(entry)
}

// Recent returns up to n of the newest entries, oldest first
func (j *Journal) Recent(n int) ([]Entry, error) {
	j.mu.Lock()
	defer j.mu.Unlock()

	if j.closed {
		return nil, ErrClosed
	}

	held := j.held()
	if n > held || n <= 0 {
		n = held
	}

	entries := make([]Entry, 0, n)
	err := j.db.View(func(tx *bbolt.Tx) error {
		b := tx.Bucket([]byte(BucketName))
		if b == nil {
			return fmt.Errorf("bucket not found")
		}

		for i := j.count - uint64(n); i < j.count; i++ {
			data := b.Get(slotKey(i % uint64(j.maxSize)))
			if data == nil {
				continue
			}
			var e Entry
			if err := json.Unmarshal(data, &e); err != nil {
				return fmt.Errorf("corrupt entry %d: %w", i, err)
			}
			entries = append(entries, e)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return entries, nil
}

func (j *Journal) held() int {
	if j.count > uint64(j.maxSize) {
		return j.maxSize
	}
	return int(j.count)
}

// Count returns how many entries were ever appended
func (j *Journal) Count() (uint64, error) {
	j.mu.Lock()
	defer j.mu.Unlock()

	if j.closed {
		return 0, ErrClosed
	}
	return j.count, nil
}

// Stats describes the journal
type Stats struct {
	Total     uint64
	Held      int
	MaxSize   int
	DBPath    string
	IsWrapped bool
}

// Stats returns current statistics
func (j *Journal) Stats() (Stats, error) {
	j.mu.Lock()
	defer j.mu.Unlock()

	if j.closed {
		return Stats{}, ErrClosed
	}
	return Stats{
		Total:     j.count,
		Held:      j.held(),
		MaxSize:   j.maxSize,
		DBPath:    j.dbPath,
		IsWrapped: j.count > uint64(j.maxSize),
	}, nil
}

// Close closes the database
func (j *Journal) Close() error {
	j.mu.Lock()
	defer j.mu.Unlock()

	if j.closed {
		return nil
	}
	j.closed = true
	return j.db.Close()
}
