package log

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	api "github.com/andrwkng/recordstore/api/v1"
)

// ErrNoLog is returned by reads before the first record was appended.
var ErrNoLog = errors.New("log file does not exist")

// Log is the record store: a single append-only file of fixed-size slots.
//
// Appends take the write lock, so no two records ever share an offset and
// no slot is torn. Reads take the read lock and therefore never observe a
// slot that is still being written.
type Log struct {
	mu sync.RWMutex

	Dir    string // location where the log file is stored
	Config Config

	store *store
}

// NewLog prepares a log in dir. The log file itself is created by the
// first Append.
func NewLog(dir string, c Config) (*Log, error) {
	// set defaults for the configs
	if c.Store.FileName == "" {
		c.Store.FileName = defaultFileName
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, err
	}
	l := &Log{
		Dir:    dir,
		Config: c,
	}
	l.store = newStore(
		filepath.Join(dir, c.Store.FileName),
		!c.Store.NoSync,
	)
	return l, nil
}

// Append validates the record and writes it as the newest slot.
func (l *Log) Append(record api.Record) error {
	if err := record.Validate(); err != nil {
		return fmt.Errorf("append %d: %w", record.ID, err)
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	if _, err := l.store.Append(record); err != nil {
		return fmt.Errorf("append %d: %w", record.ID, err)
	}
	return nil
}

// FindLatest returns the most recently appended record with the given id.
// The log is scanned from the newest slot backward, so the first match is
// the current value.
func (l *Log) FindLatest(id uint32) (api.Record, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	idx, err := openIndex(l.store.Name())
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return api.Record{}, ErrNoLog
		}
		return api.Record{}, fmt.Errorf("find %d: %w", id, err)
	}
	defer idx.Close()

	for n := idx.Len(); n > 0; n-- {
		got, err := idx.ID(n - 1)
		if err != nil {
			return api.Record{}, err
		}
		if got == id {
			return idx.Read(n - 1)
		}
	}
	return api.Record{}, api.ErrRecordNotFound{ID: id}
}

// Count returns the number of records in the log, superseded ones
// included.
func (l *Log) Count() (uint64, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	size, err := l.store.Size()
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return 0, nil
		}
		return 0, err
	}
	return size / slotWidth, nil
}

// Path returns the location of the log file.
func (l *Log) Path() string {
	return l.store.Name()
}

// Close waits for in-flight operations. The log holds no descriptors
// between operations, so there is nothing else to release.
func (l *Log) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return nil
}
