package log_v1

import (
	"errors"
	"strings"
)

// NameCapacity is the size of the fixed name field, terminator included.
const NameCapacity = 128

// MaxNameLen is the longest name that fits next to its NUL terminator.
const MaxNameLen = NameCapacity - 1

var (
	ErrNameTooLong = errors.New("name exceeds capacity")
	ErrNameInvalid = errors.New("name contains NUL byte")
)

// Record is one {id, name} entry of the record log. Records are never
// modified; a later record with the same ID shadows earlier ones.
type Record struct {
	ID   uint32 `json:"id"`
	Name string `json:"name"`
}

// Validate reports whether the name fits the fixed-size field. Oversized
// names are rejected rather than truncated.
func (r Record) Validate() error {
	if len(r.Name) > MaxNameLen {
		return ErrNameTooLong
	}
	if strings.IndexByte(r.Name, 0) >= 0 {
		return ErrNameInvalid
	}
	return nil
}
