// Package membership defines the tablet-server membership-watch
// collaborator (spec.md sections 1 and 6): a swappable feed of which
// tablet servers are currently alive, expressed as deltas so
// MembershipReactor can apply them one at a time.
package membership

import (
	"context"
	"sort"

	"github.com/devrev/compactcoord/internal/model"
)

// Delta describes a change to the live tablet-server set. Current is the
// full membership as of this event; Added and Removed are the tservers
// that newly appeared or disappeared since the previous Delta.
type Delta struct {
	Current []model.TabletServerID
	Added   []model.TabletServerID
	Removed []model.TabletServerID
}

// Watcher is the interface MembershipReactor consumes. ZooKeeper is one
// concrete implementation (zk_watcher.go); the interface is the real
// contract spec.md treats as an opaque external collaborator.
type Watcher interface {
	// Watch starts observing membership and returns a channel of deltas.
	// The channel is closed when ctx is done or the watch cannot continue.
	Watch(ctx context.Context) (<-chan Delta, error)
}

// diff computes Added/Removed between a previous and current membership
// set, in the id's natural string order for determinism.
func diff(previous, current map[model.TabletServerID]struct{}) (added, removed []model.TabletServerID) {
	for tsi := range current {
		if _, ok := previous[tsi]; !ok {
			added = append(added, tsi)
		}
	}
	for tsi := range previous {
		if _, ok := current[tsi]; !ok {
			removed = append(removed, tsi)
		}
	}
	sort.Slice(added, func(i, j int) bool { return added[i].String() < added[j].String() })
	sort.Slice(removed, func(i, j int) bool { return removed[i].String() < removed[j].String() })
	return added, removed
}
