package chat

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"securechat/internal/ratchet"
	"securechat/internal/store"
)

// RatchetManager owns one ratchet.State per conversation, persisting a
// snapshot to the blob store on every mutation so a process restart
// resumes mid-chain rather than re-establishing a session. A single mutex
// serializes access to the map itself; ratchet.State already serializes
// concurrent sends and receives against a single conversation internally.
type RatchetManager struct {
	mu        sync.Mutex
	db        store.BlobStore
	masterKey [32]byte
	states    map[uuid.UUID]*ratchet.State
}

func newRatchetManager(db store.BlobStore, masterKey [32]byte) *RatchetManager {
	return &RatchetManager{
		db:        db,
		masterKey: masterKey,
		states:    make(map[uuid.UUID]*ratchet.State),
	}
}

func ratchetStateKey(conversationID uuid.UUID) string {
	return store.PrefixRatchetState + conversationID.String()
}

// Put registers an already-established ratchet.State for conversationID
// (typically right after session.EstablishInitial/RespondInitial) and
// persists its initial snapshot.
func (m *RatchetManager) Put(ctx context.Context, conversationID uuid.UUID, state *ratchet.State) error {
	m.mu.Lock()
	m.states[conversationID] = state
	m.mu.Unlock()
	return m.persist(ctx, conversationID, state)
}

// Get returns the live ratchet.State for conversationID, transparently
// loading and caching it from the store on first access within this
// process if it isn't already in memory.
func (m *RatchetManager) Get(ctx context.Context, conversationID uuid.UUID) (*ratchet.State, error) {
	m.mu.Lock()
	state, ok := m.states[conversationID]
	m.mu.Unlock()
	if ok {
		return state, nil
	}

	raw, err := m.db.Get(ctx, ratchetStateKey(conversationID))
	if err != nil {
		return nil, fmt.Errorf("chat: load ratchet state: %w", err)
	}
	var snap ratchet.Snapshot
	if err := unsealBlob(raw, m.masterKey, &snap); err != nil {
		return nil, err
	}
	state = ratchet.Import(snap)

	m.mu.Lock()
	m.states[conversationID] = state
	m.mu.Unlock()
	return state, nil
}

// PersistAfter persists the current snapshot of conversationID's ratchet
// state; callers invoke this after every Send or Receive so the on-disk
// copy never falls behind the in-memory one.
func (m *RatchetManager) PersistAfter(ctx context.Context, conversationID uuid.UUID) error {
	m.mu.Lock()
	state, ok := m.states[conversationID]
	m.mu.Unlock()
	if !ok {
		return fmt.Errorf("chat: no ratchet state for conversation %s", conversationID)
	}
	return m.persist(ctx, conversationID, state)
}

func (m *RatchetManager) persist(ctx context.Context, conversationID uuid.UUID, state *ratchet.State) error {
	blob, err := sealBlob(state.Export(), m.masterKey)
	if err != nil {
		return err
	}
	return m.db.Put(ctx, ratchetStateKey(conversationID), blob)
}

// Forget drops a conversation's in-memory ratchet state and its persisted
// snapshot, e.g. when the conversation itself is deleted.
func (m *RatchetManager) Forget(ctx context.Context, conversationID uuid.UUID) error {
	m.mu.Lock()
	delete(m.states, conversationID)
	m.mu.Unlock()
	return m.db.Delete(ctx, ratchetStateKey(conversationID))
}
