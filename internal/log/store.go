package log

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"os"

	api "github.com/andrwkng/recordstore/api/v1"
)

var enc = binary.LittleEndian

const (
	idWidth   = 4
	nameWidth = api.NameCapacity
	slotWidth = idWidth + nameWidth
)

// ErrShortWrite is returned when a slot could not be written in full.
var ErrShortWrite = errors.New("short write")

// store represents the file records are appended to. It holds no open
// descriptor: every append opens the file, writes one slot and closes it.
type store struct {
	path string
	sync bool
}

func newStore(path string, sync bool) *store {
	return &store{path: path, sync: sync}
}

// Append writes r as one slot at the logical end of the file and returns
// the slot's byte position. The logical end is the file size rounded down
// to a whole slot, so a torn slot left by a crash is overwritten. Callers
// must serialize Append.
func (s *store) Append(r api.Record) (pos uint64, err error) {
	f, err := os.OpenFile(s.path, os.O_WRONLY|os.O_CREATE, 0644)
	if err != nil {
		return 0, err
	}
	defer func() {
		if cerr := f.Close(); err == nil && cerr != nil {
			err = cerr
		}
	}()

	fi, err := f.Stat()
	if err != nil {
		return 0, err
	}
	size := uint64(fi.Size())
	pos = size - size%slotWidth
	if pos != size {
		if err = f.Truncate(int64(pos)); err != nil {
			return 0, fmt.Errorf("drop torn slot at %d: %w", pos, err)
		}
	}

	var b [slotWidth]byte
	encodeSlot(b[:], r)
	n, err := f.WriteAt(b[:], int64(pos))
	if err != nil || n != slotWidth {
		// a partial slot must never become visible
		_ = f.Truncate(int64(pos))
		if err == nil {
			err = ErrShortWrite
		}
		return 0, err
	}
	if s.sync {
		if err = f.Sync(); err != nil {
			return 0, err
		}
	}
	return pos, nil
}

// Size returns the number of bytes held in whole slots.
func (s *store) Size() (uint64, error) {
	fi, err := os.Stat(s.path)
	if err != nil {
		return 0, err
	}
	size := uint64(fi.Size())
	return size - size%slotWidth, nil
}

func (s *store) Name() string {
	return s.path
}

func encodeSlot(b []byte, r api.Record) {
	for i := range b[:slotWidth] {
		b[i] = 0
	}
	enc.PutUint32(b[:idWidth], r.ID)
	copy(b[idWidth:slotWidth], r.Name)
}

func decodeSlot(b []byte) api.Record {
	name := b[idWidth:slotWidth]
	if n := bytes.IndexByte(name, 0); n >= 0 {
		name = name[:n]
	}
	return api.Record{
		ID:   enc.Uint32(b[:idWidth]),
		Name: string(name),
	}
}
