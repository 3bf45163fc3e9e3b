package main

import (
	"bytes"
	"context"
	"net"
	"strings"
	"testing"
	"time"

	"github.com/andrwkng/recordstore/internal/client"
	"github.com/andrwkng/recordstore/internal/log"
	"github.com/andrwkng/recordstore/internal/server"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/require"
)

func TestRepl(t *testing.T) {
	c := log.Config{}
	c.Store.NoSync = true
	l, err := log.NewLog(t.TempDir(), c)
	require.NoError(t, err)
	logger, _ := test.NewNullLogger()
	srv, err := server.NewServer(&server.Config{RecordLog: l, Logger: logger})
	require.NoError(t, err)

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	go func() {
		_ = srv.Serve(ln)
	}()
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	cl, err := client.Dial(ctx, ln.Addr().String())
	require.NoError(t, err)
	defer cl.Close()

	in := strings.Join([]string{
		"2", "1", // get before any put
		"1", "", "alice", "x", "5", // put with an empty name and a bad id first
		"2", "5",
		"1", strings.Repeat("n", 200), "bob", "5",
		"2", "5",
		"0",
	}, "\n") + "\n"
	var out bytes.Buffer
	require.NoError(t, repl(cl, strings.NewReader(in), &out))

	got := out.String()
	require.Contains(t, got, "Operation failed\n")
	require.Contains(t, got, "Name cannot be empty\n")
	require.Contains(t, got, "ID must be a number\n")
	require.Contains(t, got, "Name cannot be longer than 127 bytes\n")
	require.Equal(t, 2, strings.Count(got, "Put success.\n"))
	require.Contains(t, got, "name: alice\nid: 5\n")
	require.Contains(t, got, "name: bob\nid: 5\n")
	require.Less(t, strings.Index(got, "name: alice"), strings.Index(got, "name: bob"))
}

func TestReplEndOfInput(t *testing.T) {
	cli, srv := net.Pipe()
	defer srv.Close()
	var out bytes.Buffer
	require.NoError(t, repl(client.New(cli), strings.NewReader(""), &out))
	require.Equal(t, "Enter your choice (1 to put, 2 to get, 0 to quit): ", out.String())
}
