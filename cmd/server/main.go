package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/andrwkng/recordstore/internal/admin"
	"github.com/andrwkng/recordstore/internal/log"
	"github.com/andrwkng/recordstore/internal/server"
	"github.com/sirupsen/logrus"
)

func main() {
	var (
		port       = flag.Int("port", 0, "TCP port to accept clients on")
		dir        = flag.String("dir", ".", "directory holding the record log")
		file       = flag.String("file", "records.db", "record log file name")
		noSync     = flag.Bool("nosync", false, "skip fsync after each append")
		adminAddr  = flag.String("admin", "", "address of the HTTP admin endpoint (disabled when empty)")
		healthAddr = flag.String("health", "", "address of the gRPC health endpoint (disabled when empty)")
		verbose    = flag.Bool("verbose", false, "log every connection and failed lookup")
	)
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "usage: %s [flags] port\n", os.Args[0])
		flag.PrintDefaults()
	}
	flag.Parse()

	// the port may also be given positionally
	if *port == 0 && flag.NArg() == 1 {
		p, err := strconv.Atoi(flag.Arg(0))
		if err != nil {
			flag.Usage()
			os.Exit(1)
		}
		*port = p
	}
	if *port <= 0 || *port > 65535 {
		flag.Usage()
		os.Exit(1)
	}

	logger := logrus.New()
	if *verbose {
		logger.SetLevel(logrus.DebugLevel)
	}

	c := log.Config{}
	c.Store.FileName = *file
	c.Store.NoSync = *noSync

	if err := run(logger, *port, *dir, c, *adminAddr, *healthAddr); err != nil {
		logger.WithError(err).Error("server stopped")
		os.Exit(1)
	}
}

func run(logger *logrus.Logger, port int, dir string, c log.Config, adminAddr, healthAddr string) error {
	l, err := log.NewLog(dir, c)
	if err != nil {
		return fmt.Errorf("open log: %w", err)
	}
	defer l.Close()

	srv, err := server.NewServer(&server.Config{
		RecordLog: l,
		Logger:    logger,
	})
	if err != nil {
		return err
	}

	ln, err := net.Listen("tcp", fmt.Sprintf(":%d", port))
	if err != nil {
		return fmt.Errorf("couldn't bind to any addresses: %w", err)
	}
	logger.WithField("log", l.Path()).Info("record store ready")

	var adminSrv *http.Server
	if adminAddr != "" {
		adminSrv = admin.NewHTTPServer(adminAddr, &admin.Config{
			Log:    l,
			Server: srv,
			Logger: logger,
		})
		go func() {
			if err := adminSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.WithError(err).Error("admin endpoint stopped")
			}
		}()
	}

	if healthAddr != "" {
		hl, err := net.Listen("tcp", healthAddr)
		if err != nil {
			ln.Close()
			return fmt.Errorf("health listener: %w", err)
		}
		gsrv, hsrv := server.NewHealthServer(logger)
		go func() {
			if err := gsrv.Serve(hl); err != nil {
				logger.WithError(err).Error("health endpoint stopped")
			}
		}()
		defer func() {
			hsrv.Shutdown()
			gsrv.GracefulStop()
		}()
	}

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	errc := make(chan error, 1)
	go func() {
		errc <- srv.Serve(ln)
	}()

	select {
	case s := <-sig:
		logger.WithField("signal", s.String()).Info("shutting down")
	case err := <-errc:
		return err
	}

	if adminSrv != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := adminSrv.Shutdown(ctx); err != nil {
			logger.WithError(err).Warn("admin shutdown")
		}
	}
	if err := srv.Close(); err != nil {
		return err
	}
	if err := <-errc; !errors.Is(err, server.ErrServerClosed) {
		return err
	}
	return nil
}
