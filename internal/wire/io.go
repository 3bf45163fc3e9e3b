package wire

import (
	"errors"
	"io"
	"syscall"
)

// ReadMessage reads and decodes exactly one message from r.
//
// It returns io.EOF only if the peer closed before sending any byte, and
// io.ErrUnexpectedEOF if it closed mid-message. Interrupted reads are
// retried. Decode errors are returned with the fully consumed message, so
// the stream stays aligned on message boundaries.
func ReadMessage(r io.Reader) (Message, error) {
	var b [MessageSize]byte
	if err := readFull(r, b[:]); err != nil {
		return Message{}, err
	}
	return Decode(b[:])
}

// WriteMessage encodes m and writes it to w in full.
func WriteMessage(w io.Writer, m Message) error {
	var b [MessageSize]byte
	if err := EncodeTo(b[:], m); err != nil {
		return err
	}
	return writeFull(w, b[:])
}

func readFull(r io.Reader, b []byte) error {
	var read int
	for read < len(b) {
		n, err := r.Read(b[read:])
		read += n
		if err == nil {
			continue
		}
		if isInterrupt(err) {
			continue
		}
		if errors.Is(err, io.EOF) {
			if read == 0 {
				return io.EOF
			}
			if read < len(b) {
				return io.ErrUnexpectedEOF
			}
			return nil
		}
		return err
	}
	return nil
}

func writeFull(w io.Writer, b []byte) error {
	var written int
	for written < len(b) {
		n, err := w.Write(b[written:])
		written += n
		if err == nil {
			if n == 0 {
				return io.ErrShortWrite
			}
			continue
		}
		if isInterrupt(err) {
			continue
		}
		return err
	}
	return nil
}

// isInterrupt reports whether err is a transient signal interruption,
// the only condition that is retried.
func isInterrupt(err error) bool {
	return errors.Is(err, syscall.EINTR)
}
