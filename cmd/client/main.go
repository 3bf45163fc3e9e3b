package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"net"
	"os"
	"strconv"
	"strings"
	"time"

	api "github.com/andrwkng/recordstore/api/v1"
	"github.com/andrwkng/recordstore/internal/client"
	"github.com/sirupsen/logrus"
)

func main() {
	var (
		host = flag.String("host", "", "server hostname")
		port = flag.Int("port", 0, "server port")
	)
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "usage: %s hostname port\n", os.Args[0])
		flag.PrintDefaults()
	}
	flag.Parse()
	if *host == "" && *port == 0 && flag.NArg() == 2 {
		*host = flag.Arg(0)
		p, err := strconv.Atoi(flag.Arg(1))
		if err != nil {
			flag.Usage()
			os.Exit(1)
		}
		*port = p
	}
	if *host == "" || *port <= 0 || *port > 65535 {
		flag.Usage()
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	c, err := client.Dial(ctx, net.JoinHostPort(*host, strconv.Itoa(*port)))
	cancel()
	if err != nil {
		logrus.WithError(err).Error("connect failed")
		os.Exit(1)
	}
	defer c.Close()

	if err := repl(c, os.Stdin, os.Stdout); err != nil {
		logrus.WithError(err).Error("connection lost")
		c.Close()
		os.Exit(1)
	}
}

// repl prompts for operations until the user quits or input ends.
func repl(c *client.Client, in io.Reader, out io.Writer) error {
	p := &prompter{sc: bufio.NewScanner(in), out: out}
	for {
		choice, ok := p.line("Enter your choice (1 to put, 2 to get, 0 to quit): ")
		if !ok {
			return nil
		}
		switch strings.TrimSpace(choice) {
		case "1":
			name, ok := p.name()
			if !ok {
				return nil
			}
			id, ok := p.id()
			if !ok {
				return nil
			}
			_, err := c.Put(api.Record{ID: id, Name: name})
			if ok, err := report(out, err); !ok {
				if err != nil {
					return err
				}
				continue
			}
			fmt.Fprintln(out, "Put success.")
		case "2":
			id, ok := p.id()
			if !ok {
				return nil
			}
			rec, err := c.Get(id)
			if ok, err := report(out, err); !ok {
				if err != nil {
					return err
				}
				continue
			}
			fmt.Fprintf(out, "name: %s\nid: %d\n", rec.Name, rec.ID)
		default:
			return nil
		}
	}
}

// report prints failures the session survives. It returns ok when the
// operation succeeded and a non-nil error when the connection is unusable.
func report(out io.Writer, err error) (ok bool, fatal error) {
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, client.ErrFailed):
		fmt.Fprintln(out, "Operation failed")
	case errors.Is(err, client.ErrInvalidResponse):
		fmt.Fprintln(out, "Invalid response")
	default:
		return false, err
	}
	return false, nil
}

type prompter struct {
	sc  *bufio.Scanner
	out io.Writer
}

func (p *prompter) line(prompt string) (string, bool) {
	fmt.Fprint(p.out, prompt)
	if !p.sc.Scan() {
		return "", false
	}
	return p.sc.Text(), true
}

func (p *prompter) name() (string, bool) {
	for {
		s, ok := p.line("Enter the name: ")
		if !ok {
			return "", false
		}
		switch {
		case s == "":
			fmt.Fprintln(p.out, "Name cannot be empty")
		case len(s) > api.MaxNameLen:
			fmt.Fprintf(p.out, "Name cannot be longer than %d bytes\n", api.MaxNameLen)
		case strings.IndexByte(s, 0) >= 0:
			fmt.Fprintln(p.out, "Name cannot contain NUL bytes")
		default:
			return s, true
		}
	}
}

func (p *prompter) id() (uint32, bool) {
	for {
		s, ok := p.line("Enter the id: ")
		if !ok {
			return 0, false
		}
		if s == "" {
			fmt.Fprintln(p.out, "ID must not be empty")
			continue
		}
		id, err := strconv.ParseUint(s, 10, 32)
		if err != nil {
			fmt.Fprintln(p.out, "ID must be a number")
			continue
		}
		return uint32(id), true
	}
}
