// Package store holds the coordinator's in-memory scheduling state:
// JobIndex (pending advertisements) and RunningTable (in-flight jobs).
package store

import (
	"sort"
	"sync"

	"github.com/devrev/compactcoord/internal/model"
)

// orderedSet is an insertion-ordered set of tablet server IDs. Removal from
// the middle is O(n); this is acceptable because PickHighest only ever
// removes the head and RemoveTserver events are rare (spec.md 4.2 tolerates
// linear scans for the equivalent case in RunningTable).
type orderedSet struct {
	order []model.TabletServerID
	index map[model.TabletServerID]int
}

func newOrderedSet() *orderedSet {
	return &orderedSet{index: make(map[model.TabletServerID]int)}
}

func (s *orderedSet) add(tsi model.TabletServerID) {
	if _, ok := s.index[tsi]; ok {
		return
	}
	s.index[tsi] = len(s.order)
	s.order = append(s.order, tsi)
}

func (s *orderedSet) remove(tsi model.TabletServerID) bool {
	i, ok := s.index[tsi]
	if !ok {
		return false
	}
	s.order = append(s.order[:i], s.order[i+1:]...)
	delete(s.index, tsi)
	for j := i; j < len(s.order); j++ {
		s.index[s.order[j]] = j
	}
	return true
}

func (s *orderedSet) first() (model.TabletServerID, bool) {
	if len(s.order) == 0 {
		return model.TabletServerID{}, false
	}
	return s.order[0], true
}

func (s *orderedSet) empty() bool {
	return len(s.order) == 0
}

// priorityBucket pairs a priority with the tservers advertising work at
// that priority.
type priorityBucket struct {
	priority model.Priority
	tservers *orderedSet
}

// JobIndex is the priority-ordered multiset of (queue, priority,
// tablet-server) advertisements described in spec.md section 3. A single
// mutex guards both the forward map (queue -> descending priority buckets)
// and the reverse map (tserver -> set of queue/priority pairs it appears
// in), which is what makes invariants 1-3 locally enforceable.
type JobIndex struct {
	mu      sync.Mutex
	forward map[model.QueueName][]*priorityBucket
	reverse map[model.TabletServerID]map[model.QueueAndPriority]struct{}
	intern  map[string]model.QueueName
}

// NewJobIndex constructs an empty JobIndex.
func NewJobIndex() *JobIndex {
	return &JobIndex{
		forward: make(map[model.QueueName][]*priorityBucket),
		reverse: make(map[model.TabletServerID]map[model.QueueAndPriority]struct{}),
		intern:  make(map[string]model.QueueName),
	}
}

// Intern canonicalizes a queue name (spec.md 9: "hold a
// canonicalized-string table guarded by the JobIndex mutex").
func (idx *JobIndex) Intern(name string) model.QueueName {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	return idx.internLocked(name)
}

func (idx *JobIndex) internLocked(name string) model.QueueName {
	if q, ok := idx.intern[name]; ok {
		return q
	}
	q := model.QueueName(name)
	idx.intern[name] = q
	return q
}

// Add ensures the (tsi, q, p) advertisement is present in both the forward
// and reverse maps. Idempotent.
func (idx *JobIndex) Add(tsi model.TabletServerID, queue string, priority model.Priority) {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	q := idx.internLocked(queue)
	qp := model.QueueAndPriority{Queue: q, Priority: priority}

	bucket := idx.bucketLocked(q, priority, true)
	bucket.tservers.add(tsi)

	if idx.reverse[tsi] == nil {
		idx.reverse[tsi] = make(map[model.QueueAndPriority]struct{})
	}
	idx.reverse[tsi][qp] = struct{}{}
}

// bucketLocked finds (or, if create is true, creates in sorted position)
// the bucket for (queue, priority). Callers must hold idx.mu.
func (idx *JobIndex) bucketLocked(queue model.QueueName, priority model.Priority, create bool) *priorityBucket {
	buckets := idx.forward[queue]
	i := sort.Search(len(buckets), func(i int) bool {
		return buckets[i].priority <= priority
	})
	if i < len(buckets) && buckets[i].priority == priority {
		return buckets[i]
	}
	if !create {
		return nil
	}
	nb := &priorityBucket{priority: priority, tservers: newOrderedSet()}
	buckets = append(buckets, nil)
	copy(buckets[i+1:], buckets[i:])
	buckets[i] = nb
	idx.forward[queue] = buckets
	return nb
}

// PickHighest removes and returns the earliest-inserted tablet server from
// the highest non-empty priority bucket of queue, pruning empty buckets as
// it goes. Returns ok=false if the queue has no entries.
func (idx *JobIndex) PickHighest(queue model.QueueName) (priority model.Priority, tsi model.TabletServerID, ok bool) {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	buckets := idx.forward[queue]
	for len(buckets) > 0 {
		top := buckets[0]
		candidate, has := top.tservers.first()
		if !has {
			buckets = buckets[1:]
			idx.forward[queue] = buckets
			continue
		}
		top.tservers.remove(candidate)
		qp := model.QueueAndPriority{Queue: queue, Priority: top.priority}
		if rev := idx.reverse[candidate]; rev != nil {
			delete(rev, qp)
			if len(rev) == 0 {
				delete(idx.reverse, candidate)
			}
		}
		if top.tservers.empty() {
			buckets = buckets[1:]
		}
		idx.forward[queue] = buckets
		if len(idx.forward[queue]) == 0 {
			delete(idx.forward, queue)
		}
		return top.priority, candidate, true
	}
	delete(idx.forward, queue)
	return 0, model.TabletServerID{}, false
}

// RemoveTserver excises tsi from every bucket it appears in, pruning
// emptied buckets, and returns what was removed so callers can log it.
func (idx *JobIndex) RemoveTserver(tsi model.TabletServerID) []model.QueueAndPriority {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	pairs := idx.reverse[tsi]
	if len(pairs) == 0 {
		return nil
	}
	removed := make([]model.QueueAndPriority, 0, len(pairs))
	for qp := range pairs {
		removed = append(removed, qp)
		buckets := idx.forward[qp.Queue]
		for i, b := range buckets {
			if b.priority != qp.Priority {
				continue
			}
			b.tservers.remove(tsi)
			if b.tservers.empty() {
				buckets = append(buckets[:i], buckets[i+1:]...)
			}
			break
		}
		if len(buckets) == 0 {
			delete(idx.forward, qp.Queue)
		} else {
			idx.forward[qp.Queue] = buckets
		}
	}
	delete(idx.reverse, tsi)
	return removed
}

// Snapshot is a read-only view for diagnostics: queue -> priority ->
// ordered tablet servers.
type Snapshot map[model.QueueName]map[model.Priority][]model.TabletServerID

// Snapshot copies the current forward map for inspection.
func (idx *JobIndex) Snapshot() Snapshot {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	out := make(Snapshot, len(idx.forward))
	for q, buckets := range idx.forward {
		byPriority := make(map[model.Priority][]model.TabletServerID, len(buckets))
		for _, b := range buckets {
			tservers := make([]model.TabletServerID, len(b.tservers.order))
			copy(tservers, b.tservers.order)
			byPriority[b.priority] = tservers
		}
		out[q] = byPriority
	}
	return out
}
