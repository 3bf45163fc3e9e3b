package client

import (
	"errors"
	"net"
	"strings"
	"testing"

	api "github.com/andrwkng/recordstore/api/v1"
	"github.com/andrwkng/recordstore/internal/wire"
	"github.com/stretchr/testify/require"
)

// fakeServer answers every request on conn with respond.
func fakeServer(t *testing.T, conn net.Conn, respond func(wire.Message) []byte) {
	t.Helper()
	go func() {
		defer conn.Close()
		for {
			req, err := wire.ReadMessage(conn)
			if err != nil {
				return
			}
			b := respond(req)
			if b == nil {
				return
			}
			if _, err := conn.Write(b); err != nil {
				return
			}
		}
	}()
}

func encode(m wire.Message) []byte {
	b, err := wire.Encode(m)
	if err != nil {
		panic(err)
	}
	return b
}

func TestClient(t *testing.T) {
	for scenario, tc := range map[string]struct {
		respond func(wire.Message) []byte
		check   func(t *testing.T, c *Client)
	}{
		"put echoes record": {
			respond: func(req wire.Message) []byte {
				return encode(wire.Message{Tag: wire.Success, Record: req.Record})
			},
			check: func(t *testing.T, c *Client) {
				got, err := c.Put(api.Record{ID: 1, Name: "A"})
				require.NoError(t, err)
				require.Equal(t, api.Record{ID: 1, Name: "A"}, got)
			},
		},
		"get sends id": {
			respond: func(req wire.Message) []byte {
				if req.Tag != wire.Get {
					return encode(wire.Message{Tag: wire.Fail})
				}
				return encode(wire.Message{Tag: wire.Success, Record: api.Record{ID: req.Record.ID, Name: "found"}})
			},
			check: func(t *testing.T, c *Client) {
				got, err := c.Get(9)
				require.NoError(t, err)
				require.Equal(t, api.Record{ID: 9, Name: "found"}, got)
			},
		},
		"fail": {
			respond: func(wire.Message) []byte {
				return encode(wire.Message{Tag: wire.Fail})
			},
			check: func(t *testing.T, c *Client) {
				_, err := c.Get(1)
				require.Equal(t, ErrFailed, err)
			},
		},
		"invalid response tag": {
			respond: func(wire.Message) []byte {
				return encode(wire.Message{Tag: wire.Put})
			},
			check: func(t *testing.T, c *Client) {
				_, err := c.Get(1)
				require.Equal(t, ErrInvalidResponse, err)
			},
		},
		"unknown response tag": {
			respond: func(wire.Message) []byte {
				b := make([]byte, wire.MessageSize)
				b[0] = 42
				return b
			},
			check: func(t *testing.T, c *Client) {
				_, err := c.Get(1)
				require.Equal(t, ErrInvalidResponse, err)
			},
		},
		"server hangs up": {
			respond: func(wire.Message) []byte { return nil },
			check: func(t *testing.T, c *Client) {
				_, err := c.Get(1)
				require.Equal(t, ErrClosedPrematurely, err)
			},
		},
		"oversized name never leaves the client": {
			respond: func(wire.Message) []byte {
				panic("unexpected request")
			},
			check: func(t *testing.T, c *Client) {
				_, err := c.Put(api.Record{ID: 1, Name: strings.Repeat("a", 200)})
				require.True(t, errors.Is(err, api.ErrNameTooLong))
			},
		},
	} {
		t.Run(scenario, func(t *testing.T) {
			cli, srv := net.Pipe()
			fakeServer(t, srv, tc.respond)
			c := New(cli)
			defer c.Close()
			tc.check(t, c)
		})
	}
}
