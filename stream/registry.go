package stream

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"golang.org/x/sync/errgroup"
)

// Registry holds streams by id. Different streams are independent and are
// updated in parallel; each Stream serializes its own updates.
type Registry struct {
	opts []Option

	mu      sync.RWMutex
	streams map[string]*Stream
}

func NewRegistry(opts ...Option) *Registry {
	return &Registry{opts: opts, streams: make(map[string]*Stream)}
}

func (r *Registry) Get(streamID string) (*Stream, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.streams[streamID]
	return s, ok
}

// IDs returns the registered stream ids, sorted.
func (r *Registry) IDs() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.streams))
	for id := range r.streams {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

// Add creates and registers a stream from its initial events.
func (r *Registry) Add(ctx context.Context, streamID string, sc StreamAndCookie) (*Stream, error) {
	if _, ok := r.Get(streamID); ok {
		return nil, fmt.Errorf("%w: %s", ErrStreamExists, streamID)
	}
	s, err := New(ctx, streamID, sc, r.opts...)
	if err != nil {
		return nil, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.streams[streamID]; ok {
		return nil, fmt.Errorf("%w: %s", ErrStreamExists, streamID)
	}
	r.streams[streamID] = s
	return s, nil
}

// Apply applies one sync response per stream. Known streams are updated and
// unknown ones are created. Streams are processed in parallel; the first error
// cancels the remaining work and is returned.
func (r *Registry) Apply(ctx context.Context, updates map[string]StreamAndCookie) error {
	g, ctx := errgroup.WithContext(ctx)
	for id, sc := range updates {
		g.Go(func() error {
			if s, ok := r.Get(id); ok {
				return s.Apply(ctx, sc)
			}
			_, err := r.Add(ctx, id, sc)
			return err
		})
	}
	return g.Wait()
}
