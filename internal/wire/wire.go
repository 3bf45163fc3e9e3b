// Package wire implements the fixed-size binary message exchanged between
// client and server. Every message is exactly MessageSize bytes, so a read
// of MessageSize bytes always yields one complete message and no framing
// is needed.
package wire

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"

	api "github.com/andrwkng/recordstore/api/v1"
)

// Tag identifies the kind of a message.
type Tag uint8

const (
	Put     Tag = 1
	Get     Tag = 2
	Success Tag = 3
	Fail    Tag = 4
)

func (t Tag) String() string {
	switch t {
	case Put:
		return "PUT"
	case Get:
		return "GET"
	case Success:
		return "SUCCESS"
	case Fail:
		return "FAIL"
	}
	return fmt.Sprintf("Tag(%d)", uint8(t))
}

// Valid reports whether t is one of the four known tags.
func (t Tag) Valid() bool {
	return t >= Put && t <= Fail
}

var enc = binary.LittleEndian

// Layout of a message, matching the C struct msg on x86-64:
// tag, three bytes of padding, the name field, then the id.
const (
	tagWidth  = 1
	padWidth  = 3
	nameWidth = api.NameCapacity
	idWidth   = 4

	nameOff = tagWidth + padWidth
	idOff   = nameOff + nameWidth

	MessageSize = idOff + idWidth
)

var (
	ErrUnknownTag        = errors.New("unknown message tag")
	ErrNameNotTerminated = errors.New("name field is not NUL terminated")
	ErrShortMessage      = errors.New("short message")
)

// Message is a decoded request or response. Name is only meaningful for
// PUT requests and SUCCESS responses.
type Message struct {
	Tag    Tag
	Record api.Record
}

// Encode lays m out in a MessageSize buffer.
func Encode(m Message) ([]byte, error) {
	b := make([]byte, MessageSize)
	if err := EncodeTo(b, m); err != nil {
		return nil, err
	}
	return b, nil
}

// EncodeTo writes m into b, which must hold at least MessageSize bytes.
func EncodeTo(b []byte, m Message) error {
	if len(b) < MessageSize {
		return ErrShortMessage
	}
	if !m.Tag.Valid() {
		return fmt.Errorf("encode %v: %w", m.Tag, ErrUnknownTag)
	}
	if err := m.Record.Validate(); err != nil {
		return fmt.Errorf("encode %v: %w", m.Tag, err)
	}
	b = b[:MessageSize]
	for i := range b {
		b[i] = 0
	}
	b[0] = byte(m.Tag)
	copy(b[nameOff:idOff], m.Record.Name)
	enc.PutUint32(b[idOff:], m.Record.ID)
	return nil
}

// Decode parses one message from the first MessageSize bytes of b.
//
// An unknown tag yields ErrUnknownTag together with a Message whose Tag is
// the raw value read, so that callers can still answer the peer.
func Decode(b []byte) (Message, error) {
	if len(b) < MessageSize {
		return Message{}, ErrShortMessage
	}
	m := Message{Tag: Tag(b[0])}
	m.Record.ID = enc.Uint32(b[idOff:])
	if !m.Tag.Valid() {
		return m, ErrUnknownTag
	}
	// GET and FAIL carry no name; whatever the peer left there is ignored.
	if m.Tag != Put && m.Tag != Success {
		return m, nil
	}
	field := b[nameOff:idOff]
	n := bytes.IndexByte(field, 0)
	if n < 0 {
		return m, ErrNameNotTerminated
	}
	m.Record.Name = string(field[:n])
	return m, nil
}
