package server

import (
	"github.com/edirooss/searchd/internal/index"
	"github.com/edirooss/searchd/pkg/wire"
)

// TaskID identifies a deferred write task. 0 is never assigned.
type TaskID uint64

// taskRegistry is the deferred-write status board: every mutating command
// registers a task before its closure is enqueued, and clients poll the
// status by ID. Statuses are wire response codes, so polling replies need no
// translation. Entries live until process exit; IDs are never reused.
type taskRegistry struct {
	table *index.Table[TaskID, wire.Response]
}

func newTaskRegistry() *taskRegistry {
	return &taskRegistry{table: index.NewOneWayTable[TaskID, wire.Response]()}
}

// Register allocates a fresh task in the not_processed state.
func (r *taskRegistry) Register() TaskID {
	id, _ := r.table.Add(wire.RespNotProcessed)
	return id
}

// Set advances the task's status. Transitions are monotone:
// not_processed → in_progress → terminal; the runner never writes a
// non-terminal code after a terminal one.
func (r *taskRegistry) Set(id TaskID, status wire.Response) {
	_ = r.table.ModifyByID(id, status)
}

// Get returns the task's latest status, or ErrUnknownID.
func (r *taskRegistry) Get(id TaskID) (wire.Response, error) {
	return r.table.Value(id)
}
