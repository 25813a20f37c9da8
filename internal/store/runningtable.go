package store

import (
	"sync"

	"github.com/devrev/compactcoord/internal/model"
)

// RunningTable is the set of external compactions currently reserved or
// in progress, keyed by ExternalCompactionID (spec.md 3-4.2). It is backed
// by sync.Map because RemoveIf needs a compare-and-delete against a
// specific *RunningCompaction pointer identity, which sync.Map.CompareAndDelete
// supports directly.
type RunningTable struct {
	m sync.Map // external compaction id (string) -> *model.RunningCompaction
}

// NewRunningTable constructs an empty RunningTable.
func NewRunningTable() *RunningTable {
	return &RunningTable{}
}

// ErrAlreadyRunning is returned by Insert when the id is already present.
type ErrAlreadyRunning struct {
	ID string
}

func (e *ErrAlreadyRunning) Error() string {
	return "compaction already running: " + e.ID
}

// Insert adds rc under id, failing if an entry already exists (spec.md 4.2
// invariant: a given ExternalCompactionID is reserved at most once).
func (rt *RunningTable) Insert(id string, rc *model.RunningCompaction) error {
	if _, loaded := rt.m.LoadOrStore(id, rc); loaded {
		return &ErrAlreadyRunning{ID: id}
	}
	return nil
}

// Get returns the RunningCompaction for id, if any.
func (rt *RunningTable) Get(id string) (*model.RunningCompaction, bool) {
	v, ok := rt.m.Load(id)
	if !ok {
		return nil, false
	}
	return v.(*model.RunningCompaction), true
}

// Remove unconditionally deletes id.
func (rt *RunningTable) Remove(id string) {
	rt.m.Delete(id)
}

// RemoveIf deletes id only if the stored entry is still rc, guarding
// against a concurrent replacement racing the caller's decision to remove.
func (rt *RunningTable) RemoveIf(id string, rc *model.RunningCompaction) bool {
	return rt.m.CompareAndDelete(id, rc)
}

// ByTserver returns the ids of all compactions currently assigned to tsi.
// This is a linear scan of the whole table, acceptable per spec.md 4.2 for
// the membership-reactor's infrequent tserver-departure path.
func (rt *RunningTable) ByTserver(tsi model.TabletServerID) []string {
	var ids []string
	rt.m.Range(func(key, value interface{}) bool {
		rc := value.(*model.RunningCompaction)
		if rc.Tserver == tsi {
			ids = append(ids, key.(string))
		}
		return true
	})
	return ids
}

// Range visits every entry currently in the table.
func (rt *RunningTable) Range(fn func(id string, rc *model.RunningCompaction) bool) {
	rt.m.Range(func(key, value interface{}) bool {
		return fn(key.(string), value.(*model.RunningCompaction))
	})
}
