package store

import (
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/devrev/compactcoord/internal/model"
)

func tsi(port int) model.TabletServerID {
	return model.TabletServerID{Host: "tserver", Port: port, Session: "s"}
}

func TestJobIndex_PickHighest_PriorityOrder(t *testing.T) {
	idx := NewJobIndex()
	q := idx.Intern("small")

	idx.Add(tsi(1), string(q), 10)
	idx.Add(tsi(2), string(q), 50)
	idx.Add(tsi(3), string(q), 30)

	p, got, ok := idx.PickHighest(q)
	require.True(t, ok)
	assert.Equal(t, model.Priority(50), p)
	assert.Equal(t, tsi(2), got)

	p, got, ok = idx.PickHighest(q)
	require.True(t, ok)
	assert.Equal(t, model.Priority(30), p)
	assert.Equal(t, tsi(3), got)

	p, got, ok = idx.PickHighest(q)
	require.True(t, ok)
	assert.Equal(t, model.Priority(10), p)
	assert.Equal(t, tsi(1), got)

	_, _, ok = idx.PickHighest(q)
	assert.False(t, ok)
}

func TestJobIndex_PickHighest_FIFOWithinPriority(t *testing.T) {
	idx := NewJobIndex()
	q := idx.Intern("small")

	idx.Add(tsi(1), string(q), 10)
	idx.Add(tsi(2), string(q), 10)
	idx.Add(tsi(3), string(q), 10)

	_, first, _ := idx.PickHighest(q)
	_, second, _ := idx.PickHighest(q)
	_, third, _ := idx.PickHighest(q)

	assert.Equal(t, tsi(1), first)
	assert.Equal(t, tsi(2), second)
	assert.Equal(t, tsi(3), third)
}

func TestJobIndex_Add_IdempotentPerQueuePriority(t *testing.T) {
	idx := NewJobIndex()
	q := idx.Intern("small")

	idx.Add(tsi(1), string(q), 10)
	idx.Add(tsi(1), string(q), 10)

	snap := idx.Snapshot()
	assert.Len(t, snap[q][10], 1)
}

func TestJobIndex_RemoveTserver(t *testing.T) {
	idx := NewJobIndex()
	q1 := idx.Intern("small")
	q2 := idx.Intern("large")

	idx.Add(tsi(1), string(q1), 10)
	idx.Add(tsi(1), string(q2), 20)
	idx.Add(tsi(2), string(q1), 10)

	removed := idx.RemoveTserver(tsi(1))
	assert.Len(t, removed, 2)

	snap := idx.Snapshot()
	assert.NotContains(t, snap[q1][10], tsi(1))
	_, hasLarge := snap[q2]
	assert.False(t, hasLarge)

	_, got, ok := idx.PickHighest(q1)
	require.True(t, ok)
	assert.Equal(t, tsi(2), got)
}

func TestJobIndex_Intern_ReturnsSameValue(t *testing.T) {
	idx := NewJobIndex()
	a := idx.Intern("compaction")
	b := idx.Intern("compaction")
	assert.Equal(t, a, b)
}

func TestJobIndex_EmptyQueue(t *testing.T) {
	idx := NewJobIndex()
	_, _, ok := idx.PickHighest(model.QueueName("nonexistent"))
	assert.False(t, ok)
}

// checkForwardReverseBijection asserts spec.md 8 invariants 1 and 2: every
// (tsi, queue, priority) triple recorded in the forward map has a matching
// entry in the reverse map and vice versa, and no bucket in either map is
// empty.
func checkForwardReverseBijection(t *testing.T, idx *JobIndex) {
	t.Helper()
	idx.mu.Lock()
	defer idx.mu.Unlock()

	forwardPairs := make(map[model.QueueAndPriority]map[model.TabletServerID]struct{})
	for q, buckets := range idx.forward {
		require.NotEmpty(t, buckets, "forward[%v] must not map to an empty bucket slice", q)
		for _, b := range buckets {
			require.False(t, b.tservers.empty(), "forward[%v][%d] must not be an empty bucket", q, b.priority)
			qp := model.QueueAndPriority{Queue: q, Priority: b.priority}
			set := make(map[model.TabletServerID]struct{}, len(b.tservers.order))
			for _, id := range b.tservers.order {
				set[id] = struct{}{}
			}
			forwardPairs[qp] = set
		}
	}

	for id, pairs := range idx.reverse {
		require.NotEmpty(t, pairs, "reverse[%v] must not map to an empty set", id)
		for qp := range pairs {
			set, ok := forwardPairs[qp]
			require.Truef(t, ok, "reverse says %v is in %v but forward has no such bucket", id, qp)
			_, present := set[id]
			require.Truef(t, present, "reverse says %v is in %v but forward bucket does not contain it", id, qp)
		}
	}

	for qp, set := range forwardPairs {
		for id := range set {
			_, ok := idx.reverse[id][qp]
			require.Truef(t, ok, "forward says %v is in %v but reverse has no matching entry", id, qp)
		}
	}
}

// advert mirrors one pending (tsi, queue, priority) entry with the
// insertion order it was added in, so a reference model can predict
// PickHighest's outcome independently of the JobIndex implementation.
type advert struct {
	tsi      model.TabletServerID
	queue    model.QueueName
	priority model.Priority
	seq      int
}

// TestJobIndex_PropertyInvariants runs a generated sequence of
// add/pickHighest/removeTserver calls and checks, after every step, the
// universal invariants of spec.md 8 items 1-4: forward/reverse bijection,
// no empty buckets, highest-priority-wins, and FIFO ordering within a
// priority. A parallel reference model of live adverts predicts what
// PickHighest must return; any divergence fails the test.
func TestJobIndex_PropertyInvariants(t *testing.T) {
	seed := time.Now().UnixNano()
	rng := rand.New(rand.NewSource(seed))
	t.Logf("seed = %d", seed)

	idx := NewJobIndex()
	queues := []string{"q0", "q1", "q2"}
	tservers := make([]model.TabletServerID, 12)
	for i := range tservers {
		tservers[i] = tsi(i)
	}

	var live []advert
	nextSeq := 0

	removeAdvert := func(id model.TabletServerID, queue model.QueueName, priority model.Priority) {
		for i, a := range live {
			if a.tsi == id && a.queue == queue && a.priority == priority {
				live = append(live[:i], live[i+1:]...)
				return
			}
		}
	}

	const iterations = 500
	for i := 0; i < iterations; i++ {
		switch rng.Intn(3) {
		case 0: // add
			id := tservers[rng.Intn(len(tservers))]
			queueName := queues[rng.Intn(len(queues))]
			priority := model.Priority(rng.Intn(5))
			q := idx.Intern(queueName)

			duplicate := false
			for _, a := range live {
				if a.tsi == id && a.queue == q && a.priority == priority {
					duplicate = true
					break
				}
			}
			idx.Add(id, queueName, priority)
			if !duplicate {
				live = append(live, advert{tsi: id, queue: q, priority: priority, seq: nextSeq})
				nextSeq++
			}

		case 1: // pickHighest
			q := idx.Intern(queues[rng.Intn(len(queues))])

			bestPriority := model.Priority(-1)
			bestSeq := -1
			bestIdx := -1
			for j, a := range live {
				if a.queue != q {
					continue
				}
				if a.priority > bestPriority || (a.priority == bestPriority && a.seq < bestSeq) {
					bestPriority = a.priority
					bestSeq = a.seq
					bestIdx = j
				}
			}

			priority, id, ok := idx.PickHighest(q)
			if bestIdx < 0 {
				assert.False(t, ok, "PickHighest(%v) returned an entry but no advert is live for it", q)
			} else {
				require.True(t, ok, "PickHighest(%v) reported empty but the reference model has a live entry", q)
				assert.Equalf(t, bestPriority, priority, "highest-priority-rule violated on iteration %d", i)
				assert.Equalf(t, live[bestIdx].tsi, id, "FIFO-within-priority violated on iteration %d", i)
				live = append(live[:bestIdx], live[bestIdx+1:]...)
			}

		case 2: // removeTserver
			id := tservers[rng.Intn(len(tservers))]
			removed := idx.RemoveTserver(id)
			for _, qp := range removed {
				removeAdvert(id, qp.Queue, qp.Priority)
			}
		}

		checkForwardReverseBijection(t, idx)
	}

	// Drain what remains and confirm the count matches the reference model.
	drained := 0
	for _, q := range queues {
		qn := idx.Intern(q)
		for {
			_, _, ok := idx.PickHighest(qn)
			if !ok {
				break
			}
			drained++
		}
	}
	assert.Equal(t, len(live), drained, "seed %d: full drain must remove exactly the reference model's live adverts", seed)
}
