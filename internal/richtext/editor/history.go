package editor

import (
	"sync"
	"time"

	"github.com/gofrs/uuid"

	"github.com/aisa-it/aiplan-richtext/internal/richtext/editor/transforms"
	"github.com/aisa-it/aiplan-richtext/internal/richtext/editor/tree"
)

// Change - зафиксированное изменение документа.
type Change struct {
	ID     uuid.UUID
	Action string
	Ops    []transforms.Op
	Before *tree.Snapshot
	After  *tree.Snapshot
	At     time.Time
}

// HistoryRecorder получает каждое зафиксированное изменение.
type HistoryRecorder interface {
	Record(c Change)
}

// MemoryRecorder хранит последние limit изменений в памяти.
type MemoryRecorder struct {
	mu      sync.Mutex
	limit   int
	changes []Change
}

// NewMemoryRecorder создает MemoryRecorder. limit <= 0 снимает ограничение.
func NewMemoryRecorder(limit int) *MemoryRecorder {
	return &MemoryRecorder{limit: limit}
}

func (r *MemoryRecorder) Record(c Change) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.changes = append(r.changes, c)
	if r.limit > 0 && len(r.changes) > r.limit {
		r.changes = append(r.changes[:0:0], r.changes[len(r.changes)-r.limit:]...)
	}
}

// Changes возвращает копию записанных изменений, от старых к новым.
func (r *MemoryRecorder) Changes() []Change {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Change(nil), r.changes...)
}

func (r *MemoryRecorder) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.changes)
}

// Last возвращает последнее изменение.
func (r *MemoryRecorder) Last() (Change, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.changes) == 0 {
		return Change{}, false
	}
	return r.changes[len(r.changes)-1], true
}

func newChangeID() uuid.UUID {
	id, _ := uuid.NewV4()
	return id
}
