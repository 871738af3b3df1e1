// Package checkpoint persists serialized scanner states at token
// boundaries so that an engine can resume lexing from the nearest point
// before an edit instead of from the start of the file.
package checkpoint

import (
	"context"
	"sort"
	"sync"

	"github.com/funvibe/pyretscan/internal/scanner"
	"github.com/funvibe/pyretscan/internal/token"
)

// Checkpoint is the scanner state as it was just before lexing the token
// that starts at Offset, together with enough history to rebuild the token
// stream up to Offset without lexing it again.
type Checkpoint struct {
	Offset int
	State  []byte
	// Prev is the last token emitted before Offset; zero at start of file.
	// Stores only guarantee its Type, Start and End: the rest follows from
	// the source text.
	Prev token.Token
	// Decision is the scanner call made at Offset, nil when the scanner was
	// not consulted.
	Decision *scanner.Decision
}

func (cp Checkpoint) clone() Checkpoint {
	cp.State = append([]byte(nil), cp.State...)
	if cp.Decision != nil {
		d := *cp.Decision
		cp.Decision = &d
	}
	return cp
}

type Store interface {
	// Save records a checkpoint, replacing any previous one at the same offset.
	Save(ctx context.Context, session string, cp Checkpoint) error
	// Nearest returns the checkpoint with the greatest offset <= offset.
	Nearest(ctx context.Context, session string, offset int) (Checkpoint, bool, error)
	// History returns every checkpoint at or before offset, in offset order.
	History(ctx context.Context, session string, offset int) ([]Checkpoint, error)
	// Truncate drops every checkpoint at or after from.
	Truncate(ctx context.Context, session string, from int) error
	// Drop forgets a session entirely.
	Drop(ctx context.Context, session string) error
	Close() error
}

// MemoryStore keeps checkpoints in process memory.
type MemoryStore struct {
	mu       sync.Mutex
	sessions map[string][]Checkpoint // sorted by offset
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{sessions: make(map[string][]Checkpoint)}
}

func (m *MemoryStore) Save(_ context.Context, session string, cp Checkpoint) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	cp = cp.clone()
	cps := m.sessions[session]
	i := sort.Search(len(cps), func(i int) bool { return cps[i].Offset >= cp.Offset })
	if i < len(cps) && cps[i].Offset == cp.Offset {
		cps[i] = cp
		return nil
	}
	cps = append(cps, Checkpoint{})
	copy(cps[i+1:], cps[i:])
	cps[i] = cp
	m.sessions[session] = cps
	return nil
}

func (m *MemoryStore) Nearest(_ context.Context, session string, offset int) (Checkpoint, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	cps := m.sessions[session]
	i := sort.Search(len(cps), func(i int) bool { return cps[i].Offset > offset }) - 1
	if i < 0 {
		return Checkpoint{}, false, nil
	}
	return cps[i].clone(), true, nil
}

func (m *MemoryStore) History(_ context.Context, session string, offset int) ([]Checkpoint, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	cps := m.sessions[session]
	n := sort.Search(len(cps), func(i int) bool { return cps[i].Offset > offset })
	out := make([]Checkpoint, n)
	for i := range out {
		out[i] = cps[i].clone()
	}
	return out, nil
}

func (m *MemoryStore) Truncate(_ context.Context, session string, from int) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	cps := m.sessions[session]
	i := sort.Search(len(cps), func(i int) bool { return cps[i].Offset >= from })
	m.sessions[session] = cps[:i]
	return nil
}

func (m *MemoryStore) Drop(_ context.Context, session string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, session)
	return nil
}

// Len reports the number of checkpoints held for a session.
func (m *MemoryStore) Len(session string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions[session])
}

func (m *MemoryStore) Close() error { return nil }
