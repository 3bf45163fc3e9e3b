// Package client talks to a record store server over its fixed-size
// binary protocol.
package client

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"sync"

	api "github.com/andrwkng/recordstore/api/v1"
	"github.com/andrwkng/recordstore/internal/wire"
)

var (
	// ErrFailed is returned when the server answers FAIL. The operation
	// must be treated as having had no effect.
	ErrFailed = errors.New("operation failed")
	// ErrClosedPrematurely is returned when the server hangs up before
	// answering.
	ErrClosedPrematurely = errors.New("socket closed prematurely")
	// ErrInvalidResponse is returned for responses that are neither
	// SUCCESS nor FAIL.
	ErrInvalidResponse = errors.New("invalid response")
)

// Client issues one request at a time over a single connection.
type Client struct {
	mu   sync.Mutex
	conn net.Conn
}

// Dial connects to the server at addr.
func Dial(ctx context.Context, addr string) (*Client, error) {
	var d net.Dialer
	conn, err := d.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, err
	}
	return New(conn), nil
}

// New wraps an established connection.
func New(conn net.Conn) *Client {
	return &Client{conn: conn}
}

// Put stores record and returns what the server stored.
func (c *Client) Put(record api.Record) (api.Record, error) {
	if err := record.Validate(); err != nil {
		return api.Record{}, err
	}
	return c.roundTrip(wire.Message{Tag: wire.Put, Record: record})
}

// Get returns the latest record stored under id.
func (c *Client) Get(id uint32) (api.Record, error) {
	return c.roundTrip(wire.Message{Tag: wire.Get, Record: api.Record{ID: id}})
}

func (c *Client) roundTrip(req wire.Message) (api.Record, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := wire.WriteMessage(c.conn, req); err != nil {
		return api.Record{}, fmt.Errorf("write %v: %w", req.Tag, err)
	}
	res, err := wire.ReadMessage(c.conn)
	if err != nil {
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			return api.Record{}, ErrClosedPrematurely
		}
		if errors.Is(err, wire.ErrUnknownTag) {
			return api.Record{}, ErrInvalidResponse
		}
		return api.Record{}, fmt.Errorf("read %v response: %w", req.Tag, err)
	}
	switch res.Tag {
	case wire.Success:
		return res.Record, nil
	case wire.Fail:
		return api.Record{}, ErrFailed
	}
	return api.Record{}, ErrInvalidResponse
}

func (c *Client) Close() error {
	return c.conn.Close()
}
