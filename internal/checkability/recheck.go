// Deferred recheck registry. A classification performed while a sealed
// hierarchy is incomplete is provisional; the registry holds the tasks
// that re-derive those results once the hierarchy is closed.

package checkability

import (
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/orizon-lang/matchcheck/internal/types"
)

// ErrAlreadyDrained is returned when the registry's single drain has
// already happened.
var ErrAlreadyDrained = errors.New("recheck registry already drained")

// Task is one pending recheck. The ID ties trace output of the schedule
// site to the drain site.
type Task struct {
	ID  uuid.UUID
	Run func()
}

// Registry collects recheck tasks during elaboration. It is append-only
// until the single drain at the hierarchy checkpoint; tasks of an
// abandoned run are simply never drained.
type Registry struct {
	mu      sync.Mutex
	tasks   []Task
	drained bool
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{}
}

// Schedule appends a task and returns its ID.
func (r *Registry) Schedule(run func()) (uuid.UUID, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.drained {
		return uuid.Nil, fmt.Errorf("schedule after checkpoint: %w", ErrAlreadyDrained)
	}

	id := uuid.New()
	r.tasks = append(r.tasks, Task{ID: id, Run: run})

	return id, nil
}

// Pending returns the number of tasks not yet drained.
func (r *Registry) Pending() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.drained {
		return 0
	}

	return len(r.tasks)
}

// Drain runs every pending task in schedule order, exactly once.
func (r *Registry) Drain() error {
	r.mu.Lock()

	if r.drained {
		r.mu.Unlock()

		return ErrAlreadyDrained
	}

	tasks := r.tasks
	r.tasks = nil
	r.drained = true
	r.mu.Unlock()

	for _, t := range tasks {
		t.Run()
	}

	return nil
}

// Elaboration is the explicit elaboration context threaded through the
// engines: it tracks which symbols are still open (their sealed children
// may be incomplete) and owns the registry drained at the checkpoint.
type Elaboration struct {
	mu     sync.Mutex
	active map[*types.Symbol]bool
	reg    *Registry
}

// NewElaboration creates a context with an empty registry and no open
// symbols.
func NewElaboration() *Elaboration {
	return &Elaboration{
		active: make(map[*types.Symbol]bool),
		reg:    NewRegistry(),
	}
}

// Begin marks a symbol as being elaborated: results that depend on its
// sealed children are provisional until Finalize.
func (e *Elaboration) Begin(sym *types.Symbol) {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.active[sym] = true
}

// IsBeingElaborated reports whether the symbol's children may still be
// an undercount.
func (e *Elaboration) IsBeingElaborated(sym *types.Symbol) bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	return e.active[sym]
}

// Schedule queues a task for after the checkpoint and returns its ID.
func (e *Elaboration) Schedule(run func()) (uuid.UUID, error) {
	return e.reg.Schedule(run)
}

// ScheduleAfterElaboration implements ElaborationContext. Scheduling
// after the checkpoint is a driver ordering bug.
func (e *Elaboration) ScheduleAfterElaboration(task func()) {
	if _, err := e.reg.Schedule(task); err != nil {
		panic(err)
	}
}

// Registry exposes the underlying registry, mainly for tests.
func (e *Elaboration) Registry() *Registry {
	return e.reg
}

// Finalize closes every open symbol and drains the registry. The driver
// must guarantee this happens after all elaboration of the affected
// symbols.
func (e *Elaboration) Finalize() error {
	e.mu.Lock()
	e.active = make(map[*types.Symbol]bool)
	e.mu.Unlock()

	return e.reg.Drain()
}
