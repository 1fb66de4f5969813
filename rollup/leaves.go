package rollup

import (
	"sort"

	"github.com/towns-protocol/towns-sub022/events"
)

// FindLeafEventHashes returns the hashes of events that no other event in the
// collection names in prevEvents. Input order does not matter; the result is
// sorted.
//
// An empty collection, or one in which every event is referenced, is an error.
func FindLeafEventHashes(streamID string, list []*events.FullEvent) ([]string, error) {
	if len(list) == 0 {
		return nil, events.NewError(events.KindBadEvent, "", "stream is empty "+streamID)
	}
	referenced := make(map[string]struct{})
	for i, e := range list {
		if e == nil {
			return nil, events.AtIndex(events.NewError(events.KindBadEvent, "", "nil event"), i, "")
		}
		for _, prev := range e.Base.PrevEvents {
			referenced[prev] = struct{}{}
		}
	}
	leaves := make(map[string]struct{})
	for _, e := range list {
		if _, ok := referenced[e.Hash]; !ok {
			leaves[e.Hash] = struct{}{}
		}
	}
	if len(leaves) == 0 {
		return nil, events.NewError(events.KindBadEvent, "", "no leaf event found in "+streamID)
	}
	return sortedKeys(leaves), nil
}

func sortedKeys[V any](m map[string]V) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
