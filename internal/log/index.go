package log

import (
	"io"
	"os"

	api "github.com/andrwkng/recordstore/api/v1"
	"github.com/tysontate/gommap"
)

// index is a read-only memory mapped view of the log file, addressed by
// slot number. It is opened for a single scan and closed afterwards.
type index struct {
	file *os.File    // persistent file
	mmap gommap.MMap // memory mapped file
	size uint64      // bytes in whole slots
}

// openIndex maps the log file at path. A trailing partial slot is left
// out of the view.
func openIndex(path string) (*index, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	fi, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, err
	}
	i := &index{file: f}
	size := uint64(fi.Size())
	i.size = size - size%slotWidth
	// mmap of an empty file fails; an empty log is just an empty view
	if i.size == 0 {
		return i, nil
	}
	i.mmap, err = gommap.Map(
		i.file.Fd(),
		gommap.PROT_READ,
		gommap.MAP_SHARED,
	)
	if err != nil {
		f.Close()
		return nil, err
	}
	return i, nil
}

// Len returns the number of slots in the view.
func (i *index) Len() uint64 {
	return i.size / slotWidth
}

// ID returns the id stored in slot n without decoding the name.
func (i *index) ID(n uint64) (uint32, error) {
	if n >= i.Len() {
		return 0, io.EOF
	}
	pos := n * slotWidth
	return enc.Uint32(i.mmap[pos : pos+idWidth]), nil
}

// Read decodes the record stored in slot n.
func (i *index) Read(n uint64) (api.Record, error) {
	if n >= i.Len() {
		return api.Record{}, io.EOF
	}
	pos := n * slotWidth
	return decodeSlot(i.mmap[pos : pos+slotWidth]), nil
}

func (i *index) Name() string {
	return i.file.Name()
}

// Close unmaps the view and closes the file.
func (i *index) Close() error {
	if i.mmap != nil {
		if err := i.mmap.UnsafeUnmap(); err != nil {
			i.file.Close()
			return err
		}
		i.mmap = nil
	}
	return i.file.Close()
}
