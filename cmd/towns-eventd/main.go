package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"net"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"google.golang.org/grpc"

	"github.com/towns-protocol/towns-sub022/config"
	"github.com/towns-protocol/towns-sub022/storage"
	"github.com/towns-protocol/towns-sub022/storage/grpccas"
	"github.com/towns-protocol/towns-sub022/storage/localfs"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	os.Exit(run(ctx, os.Args[1:], os.Stderr))
}

type stringList []string

func (s *stringList) String() string { return strings.Join(*s, ",") }
func (s *stringList) Set(v string) error {
	*s = append(*s, v)
	return nil
}

func run(ctx context.Context, args []string, errOut io.Writer) int {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(errOut, err)
		return 2
	}

	fs := flag.NewFlagSet("towns-eventd", flag.ContinueOnError)
	fs.SetOutput(errOut)
	listen := fs.String("listen", cfg.Listen, "listen address")
	verify := fs.Bool("verify", true, "Only accept canonical, correctly signed event envelopes")
	var dirs stringList
	fs.Var(&dirs, "cas-dir", "Event store directory (repeatable; writes replicate to all of them)")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if len(dirs) == 0 {
		dirs = cfg.CASDirs
	}

	cas, err := openBackend(dirs)
	if err != nil {
		fmt.Fprintln(errOut, err)
		return 2
	}

	lis, err := net.Listen("tcp", *listen)
	if err != nil {
		fmt.Fprintln(errOut, err)
		return 1
	}
	defer lis.Close()

	logger := config.NewLogger(errOut, cfg.LogLevel, cfg.LogFormat).With("component", "eventstore")
	logger.Info("towns-eventd listening", "addr", lis.Addr().String(), "dirs", len(dirs), "verify", *verify)

	srv := &grpccas.Server{CAS: cas, VerifyEvents: *verify, Logger: logger}
	if err := serve(ctx, lis, srv); err != nil {
		logger.Error("serve failed", "error", err)
		return 1
	}
	logger.Info("towns-eventd stopped")
	return 0
}

// openBackend returns a single localfs store, or a replicating store over
// several directories.
func openBackend(dirs []string) (storage.CAS, error) {
	if len(dirs) == 0 {
		return nil, fmt.Errorf("no event store configured: use --cas-dir or TOWNS_CAS_DIRS")
	}
	backends := make([]storage.NamedCAS, 0, len(dirs))
	for _, dir := range dirs {
		cas, err := localfs.New(dir)
		if err != nil {
			return nil, fmt.Errorf("open %s: %w", dir, err)
		}
		backends = append(backends, storage.NamedCAS{Name: dir, CAS: cas})
	}
	if len(backends) == 1 {
		return backends[0].CAS, nil
	}
	return storage.ReplicatingCAS{Backends: backends}, nil
}

// serve runs the EventStore on lis until ctx is cancelled.
func serve(ctx context.Context, lis net.Listener, srv *grpccas.Server) error {
	s := grpc.NewServer()
	grpccas.RegisterEventStoreServer(s, srv)

	errCh := make(chan error, 1)
	go func() {
		errCh <- s.Serve(lis)
	}()
	select {
	case <-ctx.Done():
		s.GracefulStop()
		return nil
	case err := <-errCh:
		return err
	}
}
