// Package memory is an in-process store. All state lives behind one RWMutex:
// writes validate every precondition before touching the maps, so a failed
// call leaves the store unchanged.
package memory

import (
	"context"
	"sync"

	"rolodex/internal/store"
	"rolodex/internal/textindex"
)

var _ store.Store = (*Memory)(nil)

type interactionRecord struct {
	interaction store.Interaction
	transcript  store.Transcript
}

type state struct {
	persons      map[string]store.Person
	interactions map[int64]interactionRecord
	connections  map[store.Connection]struct{}
	followups    map[int64]store.Followup

	nextInteractionID int64
	nextFollowupID    int64

	interactionText *textindex.Index[int64]
	personText      *textindex.Index[string]
}

type Memory struct {
	mu sync.RWMutex
	st *state
}

func New() *Memory {
	return &Memory{
		st: &state{
			persons:           make(map[string]store.Person),
			interactions:      make(map[int64]interactionRecord),
			connections:       make(map[store.Connection]struct{}),
			followups:         make(map[int64]store.Followup),
			nextInteractionID: 1,
			nextFollowupID:    1,
			interactionText:   textindex.New(func(a, b int64) bool { return a < b }),
			personText:        textindex.New(func(a, b string) bool { return a < b }),
		},
	}
}

func (m *Memory) View(ctx context.Context, fn func(r store.Reader) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	return fn(snapshot{st: m.st})
}

func (m *Memory) EnsureSchema(ctx context.Context) error {
	return nil
}

func (m *Memory) Close(ctx context.Context) error {
	return nil
}

func (m *Memory) read(ctx context.Context) (snapshot, func(), error) {
	if err := ctx.Err(); err != nil {
		return snapshot{}, nil, err
	}
	m.mu.RLock()
	return snapshot{st: m.st}, m.mu.RUnlock, nil
}

func (m *Memory) write(ctx context.Context) (*state, func(), error) {
	if err := ctx.Err(); err != nil {
		return nil, nil, err
	}
	m.mu.Lock()
	return m.st, m.mu.Unlock, nil
}

// Reader methods on Memory take the read lock and delegate to a snapshot.

func (m *Memory) GetPerson(ctx context.Context, name string) (*store.Person, error) {
	s, unlock, err := m.read(ctx)
	if err != nil {
		return nil, err
	}
	defer unlock()
	return s.GetPerson(ctx, name)
}

func (m *Memory) ListPersons(ctx context.Context) ([]store.Person, error) {
	s, unlock, err := m.read(ctx)
	if err != nil {
		return nil, err
	}
	defer unlock()
	return s.ListPersons(ctx)
}

func (m *Memory) InteractionIDs(ctx context.Context, personName string) ([]int64, error) {
	s, unlock, err := m.read(ctx)
	if err != nil {
		return nil, err
	}
	defer unlock()
	return s.InteractionIDs(ctx, personName)
}

func (m *Memory) Connections(ctx context.Context, personName string) ([]string, error) {
	s, unlock, err := m.read(ctx)
	if err != nil {
		return nil, err
	}
	defer unlock()
	return s.Connections(ctx, personName)
}

func (m *Memory) ListConnections(ctx context.Context) ([]store.Connection, error) {
	s, unlock, err := m.read(ctx)
	if err != nil {
		return nil, err
	}
	defer unlock()
	return s.ListConnections(ctx)
}

func (m *Memory) GetInteraction(ctx context.Context, id int64) (*store.Interaction, error) {
	s, unlock, err := m.read(ctx)
	if err != nil {
		return nil, err
	}
	defer unlock()
	return s.GetInteraction(ctx, id)
}

func (m *Memory) ListInteractions(ctx context.Context, personName string) ([]store.Interaction, error) {
	s, unlock, err := m.read(ctx)
	if err != nil {
		return nil, err
	}
	defer unlock()
	return s.ListInteractions(ctx, personName)
}

func (m *Memory) ListAllInteractions(ctx context.Context) ([]store.Interaction, error) {
	s, unlock, err := m.read(ctx)
	if err != nil {
		return nil, err
	}
	defer unlock()
	return s.ListAllInteractions(ctx)
}

func (m *Memory) GetTranscript(ctx context.Context, interactionID int64) (*store.Transcript, error) {
	s, unlock, err := m.read(ctx)
	if err != nil {
		return nil, err
	}
	defer unlock()
	return s.GetTranscript(ctx, interactionID)
}

func (m *Memory) SourceHashes(ctx context.Context) (map[string]int64, error) {
	s, unlock, err := m.read(ctx)
	if err != nil {
		return nil, err
	}
	defer unlock()
	return s.SourceHashes(ctx)
}

func (m *Memory) ListFollowups(ctx context.Context, personName string, status store.FollowupStatus) ([]store.Followup, error) {
	s, unlock, err := m.read(ctx)
	if err != nil {
		return nil, err
	}
	defer unlock()
	return s.ListFollowups(ctx, personName, status)
}

func (m *Memory) ListAllFollowups(ctx context.Context) ([]store.Followup, error) {
	s, unlock, err := m.read(ctx)
	if err != nil {
		return nil, err
	}
	defer unlock()
	return s.ListAllFollowups(ctx)
}

func (m *Memory) SearchInteractionText(ctx context.Context, query string) ([]store.InteractionHit, error) {
	s, unlock, err := m.read(ctx)
	if err != nil {
		return nil, err
	}
	defer unlock()
	return s.SearchInteractionText(ctx, query)
}

func (m *Memory) SearchPersonText(ctx context.Context, query string) ([]store.PersonHit, error) {
	s, unlock, err := m.read(ctx)
	if err != nil {
		return nil, err
	}
	defer unlock()
	return s.SearchPersonText(ctx, query)
}
