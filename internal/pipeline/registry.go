package pipeline

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// State tracks a request through its lifecycle.
type State string

const (
	StatePending   State = "pending"
	StateRunning   State = "running"
	StateCompleted State = "completed"
	StateFailed    State = "failed"
)

// Record is the registry's view of one subtitle request. Result is set only
// once the state is completed; Error only once it is failed.
type Record struct {
	ID        string    `json:"id"`
	State     State     `json:"state"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
	Result    *Result   `json:"result,omitempty"`
	Error     string    `json:"error,omitempty"`
}

// Registry holds request records in memory. Records live for the lifetime of
// the process; there is no persistence layer behind it.
type Registry struct {
	mu      sync.RWMutex
	records map[string]*Record
}

func NewRegistry() *Registry {
	return &Registry{records: make(map[string]*Record)}
}

// Create registers a new pending record and returns a copy of it. The live
// record stays private to the registry; callers only ever see snapshots, so
// later state transitions never race with a caller reading the result.
func (r *Registry) Create() Record {
	now := time.Now().UTC()
	rec := &Record{
		ID:        uuid.NewString(),
		State:     StatePending,
		CreatedAt: now,
		UpdatedAt: now,
	}
	r.mu.Lock()
	r.records[rec.ID] = rec
	r.mu.Unlock()
	return *rec
}

// Get returns a copy of the record, or false if the ID is unknown.
func (r *Registry) Get(id string) (Record, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	rec, ok := r.records[id]
	if !ok {
		return Record{}, false
	}
	return *rec, true
}

func (r *Registry) setRunning(id string) {
	r.update(id, func(rec *Record) {
		rec.State = StateRunning
	})
}

func (r *Registry) setCompleted(id string, res *Result) {
	r.update(id, func(rec *Record) {
		rec.State = StateCompleted
		rec.Result = res
	})
}

func (r *Registry) setFailed(id string, err error) {
	r.update(id, func(rec *Record) {
		rec.State = StateFailed
		rec.Error = err.Error()
	})
}

func (r *Registry) update(id string, fn func(*Record)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	rec, ok := r.records[id]
	if !ok {
		return
	}
	fn(rec)
	rec.UpdatedAt = time.Now().UTC()
}
