package events

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// CheckEvent verifies a single event.
//
// It requires every prevEvents entry to be a canonical hash, the stored hash to
// equal the recomputed hash of Base, and the signature to recover to
// Base.CreatorAddress. If expectedPrevHash is non-empty it must appear in
// Base.PrevEvents. CheckEvent never mutates event.
func CheckEvent(event *FullEvent, expectedPrevHash string) error {
	if event == nil {
		return NewError(KindBadEvent, "", "nil event")
	}
	for i, prev := range event.Base.PrevEvents {
		if !IsValidHash(prev) {
			return newErrorf(KindInvalidPrevEventHash, event.Hash, "prevEvents[%d] %q is not a canonical event hash", i, prev)
		}
	}

	hash, _, err := HashEvent(&event.Base)
	if err != nil {
		return AtIndex(err, NoIndex, event.Hash)
	}
	if hash != event.Hash {
		return newErrorf(KindHashMismatch, event.Hash, "hash mismatch: recomputed %s", hash)
	}

	addr, err := RecoverAddress(event.Hash, event.Signature)
	if err != nil {
		return WrapError(KindSignatureMismatch, event.Hash, "signature does not recover", err)
	}
	if addr != event.Base.CreatorAddress {
		return newErrorf(KindSignatureMismatch, event.Hash, "signature recovers to %s, creator is %s", addr, event.Base.CreatorAddress)
	}

	if expectedPrevHash != "" && !contains(event.Base.PrevEvents, expectedPrevHash) {
		return newErrorf(KindPrevEventMismatch, event.Hash, "prevEvents does not reference %s", expectedPrevHash)
	}
	return nil
}

// CheckEvents verifies events as a causal chain: each event after the first must
// reference its predecessor in prevEvents. The first failure is returned with
// its index and hash.
func CheckEvents(events []*FullEvent) error {
	prev := ""
	for i, e := range events {
		if err := CheckEvent(e, prev); err != nil {
			return AtIndex(err, i, hashOf(e))
		}
		prev = e.Hash
	}
	return nil
}

// CheckEventsConcurrently verifies unrelated events in parallel, with at most
// limit checks in flight (no limit when limit <= 0). No causal chaining is
// enforced. On failure the lowest-index error is returned, independent of
// scheduling.
func CheckEventsConcurrently(ctx context.Context, events []*FullEvent, limit int) error {
	errs := make([]error, len(events))
	var g errgroup.Group
	if limit > 0 {
		g.SetLimit(limit)
	}
	for i := range events {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			if err := CheckEvent(events[i], ""); err != nil {
				errs[i] = AtIndex(err, i, hashOf(events[i]))
			}
			return nil
		})
	}
	waitErr := g.Wait()
	for _, err := range errs {
		if err != nil {
			return err
		}
	}
	return waitErr
}

func hashOf(e *FullEvent) string {
	if e == nil {
		return ""
	}
	return e.Hash
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
