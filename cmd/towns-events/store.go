package main

import (
	"flag"
	"fmt"
	"time"

	"github.com/ipfs/go-cid"

	"github.com/towns-protocol/towns-sub022/events"
	"github.com/towns-protocol/towns-sub022/model"
	"github.com/towns-protocol/towns-sub022/storage"
	"github.com/towns-protocol/towns-sub022/storage/grpccas"
	"github.com/towns-protocol/towns-sub022/storage/localfs"
)

// stores is the ordered backend list of one invocation: local directories
// first, then remote event stores.
type stores struct {
	backends []storage.NamedCAS
	clients  []*grpccas.Client
}

func (s *stores) Close() {
	for _, c := range s.clients {
		_ = c.Close()
	}
}

func (s *stores) adapters() []storage.CAS {
	out := make([]storage.CAS, 0, len(s.backends))
	for _, b := range s.backends {
		out = append(out, b.CAS)
	}
	return out
}

// openStores opens every directory as a localfs CAS and dials every remote.
func openStores(dirs, remotes []string, timeout time.Duration) (*stores, error) {
	if len(dirs) == 0 && len(remotes) == 0 {
		return nil, fmt.Errorf("no event store configured: use --cas-dir, --cas-remote, TOWNS_CAS_DIRS or TOWNS_CAS_REMOTES")
	}
	s := &stores{}
	for _, dir := range dirs {
		cas, err := localfs.New(dir)
		if err != nil {
			s.Close()
			return nil, fmt.Errorf("open %s: %w", dir, err)
		}
		s.backends = append(s.backends, storage.NamedCAS{Name: dir, CAS: cas})
	}
	for _, addr := range remotes {
		client, err := grpccas.Dial(addr, grpccas.DialOptions{Timeout: timeout})
		if err != nil {
			s.Close()
			return nil, err
		}
		s.clients = append(s.clients, client)
		s.backends = append(s.backends, storage.NamedCAS{Name: "grpc:" + addr, CAS: client})
	}
	return s, nil
}

// openFlagStores applies the config fallback per store kind.
func (c *cli) openFlagStores(flagDirs, flagRemotes stringList) (*stores, error) {
	dirs := []string(flagDirs)
	remotes := []string(flagRemotes)
	if len(dirs) == 0 && len(remotes) == 0 {
		dirs, remotes = c.cfg.CASDirs, c.cfg.CASRemotes
	}
	return openStores(dirs, remotes, c.cfg.RPCTimeout)
}

func (c *cli) cmdPut(args []string) int {
	fs := flag.NewFlagSet("put", flag.ContinueOnError)
	fs.SetOutput(c.errOut)

	var dirs, remotes stringList
	var format string

	fs.Var(&dirs, "cas-dir", "Event store directory (repeatable; writes go to all of them)")
	fs.Var(&remotes, "cas-remote", "EventStore gRPC address (repeatable; writes go to all of them)")
	fs.StringVar(&format, "format", c.cfg.Output, "Output format: json or yaml")

	if err := fs.Parse(args); err != nil {
		return 2
	}
	if fs.NArg() != 1 {
		fmt.Fprintln(c.errOut, "usage: towns-events put [--cas-dir <dir> ...] [--cas-remote <addr> ...] <event.json>")
		return 2
	}
	st, err := c.openFlagStores(dirs, remotes)
	if err != nil {
		fmt.Fprintf(c.errOut, "%v\n", err)
		return 2
	}
	defer st.Close()
	e, err := readEvent(fs.Arg(0))
	if err != nil {
		return c.fail(format, err)
	}
	if err := events.CheckEvent(e, ""); err != nil {
		return c.fail(format, err)
	}

	replicas := storage.ReplicatingCAS{Backends: st.backends}
	id, err := storage.PutEvent(replicas, e)
	if err != nil {
		return c.fail(format, err)
	}
	c.logger.Info("event stored", "cid", id.String(), "hash", e.Hash, "replicas", replicas.Locate(id))
	if werr := writeOutput(c.out, format, model.StoredEvent{CID: id.String(), Hash: e.Hash}); werr != nil {
		fmt.Fprintf(c.errOut, "write result: %v\n", werr)
		return 1
	}
	return 0
}

func (c *cli) cmdGet(args []string) int {
	fs := flag.NewFlagSet("get", flag.ContinueOnError)
	fs.SetOutput(c.errOut)

	var dirs, remotes stringList
	fs.Var(&dirs, "cas-dir", "Event store directory (repeatable; read in order)")
	fs.Var(&remotes, "cas-remote", "EventStore gRPC address (repeatable; read after directories)")

	if err := fs.Parse(args); err != nil {
		return 2
	}
	if fs.NArg() != 1 {
		fmt.Fprintln(c.errOut, "usage: towns-events get [--cas-dir <dir> ...] [--cas-remote <addr> ...] <cid>")
		return 2
	}
	id, err := cid.Decode(fs.Arg(0))
	if err != nil {
		fmt.Fprintf(c.errOut, "invalid cid: %v\n", err)
		return 2
	}
	st, err := c.openFlagStores(dirs, remotes)
	if err != nil {
		fmt.Fprintf(c.errOut, "%v\n", err)
		return 2
	}
	defer st.Close()

	e, err := storage.GetEvent(storage.MultiCAS{Adapters: st.adapters()}, id)
	if err != nil {
		return c.fail("json", err)
	}
	if err := events.CheckEvent(e, ""); err != nil {
		return c.fail("json", err)
	}
	b, err := events.EncodeEvent(e)
	if err != nil {
		return c.fail("json", err)
	}
	_, _ = c.out.Write(b)
	return 0
}
