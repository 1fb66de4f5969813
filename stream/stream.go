// Package stream keeps live, verified views of streams.
//
// A Stream serializes every mutation of its rollup.StreamStateView and tracks
// the sync cookie of the last applied response. A Registry holds many streams
// and applies updates for different streams in parallel.
package stream

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/towns-protocol/towns-sub022/events"
	"github.com/towns-protocol/towns-sub022/rollup"
)

var (
	ErrSyncCookieMismatch = errors.New("stream: sync cookie mismatch")
	ErrStreamExists       = errors.New("stream: already exists")
)

// StreamAndCookie is one already-deserialized sync response for a stream.
//
// OriginalSyncCookie is the cookie the response was computed from; it must match
// the stream's current cookie for the response to apply.
type StreamAndCookie struct {
	Events             []*events.FullEvent `json:"events"`
	SyncCookie         string              `json:"syncCookie"`
	OriginalSyncCookie string              `json:"originalSyncCookie,omitempty"`
}

type config struct {
	observer    rollup.Observer
	logger      *slog.Logger
	rollupOpts  []rollup.Option
	verifyLimit int
}

// Option configures New and NewRegistry.
type Option func(*config)

// WithObserver sets the observer notified by every applied batch.
func WithObserver(o rollup.Observer) Option {
	return func(c *config) { c.observer = o }
}

func WithLogger(l *slog.Logger) Option {
	return func(c *config) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithRollupOptions passes options through to the underlying view.
func WithRollupOptions(opts ...rollup.Option) Option {
	return func(c *config) { c.rollupOpts = append(c.rollupOpts, opts...) }
}

// WithVerifyLimit bounds concurrent signature checks per batch (0 means no limit).
func WithVerifyLimit(n int) Option {
	return func(c *config) { c.verifyLimit = n }
}

func newConfig(opts []Option) config {
	c := config{logger: slog.Default().With("component", "stream")}
	for _, opt := range opts {
		opt(&c)
	}
	return c
}

// Stream is a verified, mutex-guarded stream view.
type Stream struct {
	id  string
	cfg config

	mu         sync.Mutex
	view       *rollup.StreamStateView
	syncCookie string
}

// New verifies sc.Events and rolls them up into a fresh view.
func New(ctx context.Context, streamID string, sc StreamAndCookie, opts ...Option) (*Stream, error) {
	cfg := newConfig(opts)
	if err := events.CheckEventsConcurrently(ctx, sc.Events, cfg.verifyLimit); err != nil {
		return nil, fmt.Errorf("verify %s: %w", streamID, err)
	}
	rollupOpts := append([]rollup.Option{rollup.WithLogger(cfg.logger)}, cfg.rollupOpts...)
	view, err := rollup.RollupStream(streamID, sc.Events, cfg.observer, rollupOpts...)
	if err != nil {
		return nil, fmt.Errorf("rollup %s: %w", streamID, err)
	}
	cfg.logger.Debug("stream initialized", "stream_id", streamID, "events", len(sc.Events), "sync_cookie", sc.SyncCookie)
	return &Stream{id: streamID, cfg: cfg, view: view, syncCookie: sc.SyncCookie}, nil
}

func (s *Stream) ID() string { return s.id }

// Apply verifies sc.Events and adds them to the view.
//
// sc.OriginalSyncCookie must equal the current cookie. The cookie advances only
// when the whole batch applies; a failed batch may leave a prefix applied.
func (s *Stream) Apply(ctx context.Context, sc StreamAndCookie) error {
	if err := events.CheckEventsConcurrently(ctx, sc.Events, s.cfg.verifyLimit); err != nil {
		return fmt.Errorf("verify %s: %w", s.id, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if sc.OriginalSyncCookie != s.syncCookie {
		return fmt.Errorf("%w: %s has %q, response was computed from %q",
			ErrSyncCookieMismatch, s.id, s.syncCookie, sc.OriginalSyncCookie)
	}
	if err := s.view.AddEvents(sc.Events, s.cfg.observer, false); err != nil {
		return fmt.Errorf("apply %s: %w", s.id, err)
	}
	s.syncCookie = sc.SyncCookie
	s.cfg.logger.Debug("stream updated", "stream_id", s.id, "events", len(sc.Events), "sync_cookie", sc.SyncCookie)
	return nil
}

// View runs fn with the view while holding the stream lock. fn must not retain
// the view or call back into s.
func (s *Stream) View(fn func(*rollup.StreamStateView)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fn(s.view)
}

func (s *Stream) SyncCookie() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.syncCookie
}

// LeafEventHashes returns the current DAG tips, sorted.
func (s *Stream) LeafEventHashes() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.view.Leaves()
}

// MakeEvent builds an event whose prevEvents are the stream's current leaves.
// The event is not applied; it reaches the view through a later Apply.
func (s *Stream) MakeEvent(signer events.Signer, payload events.Payload, opts ...events.MakeOption) (*events.FullEvent, error) {
	return events.MakeEvent(signer, payload, s.LeafEventHashes(), opts...)
}
