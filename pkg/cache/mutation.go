package cache

import "fmt"

// MutationState tracks one mutation instance through its lifecycle. A mutation
// stages speculative edits against the store, then either commits (edits stand)
// or rolls back (every touched key is restored to its pre-mutation snapshot).
type MutationState string

const (
	MutationIdle       MutationState = "idle"
	MutationPending    MutationState = "pending"
	MutationCommitted  MutationState = "committed"
	MutationRolledBack MutationState = "rolledback"
)

type snapshotEntry struct {
	key     string
	value   any
	existed bool
}

// Mutation is a single-use optimistic edit session over a Store. Snapshots are
// captured per instance at the moment a key is first staged; two concurrent
// mutations never share snapshot state even when they touch the same keys.
type Mutation struct {
	store     *Store
	state     MutationState
	snapshots []snapshotEntry
	touched   map[string]struct{}
}

func NewMutation(store *Store) *Mutation {
	return &Mutation{
		store:   store,
		state:   MutationIdle,
		touched: make(map[string]struct{}),
	}
}

func (m *Mutation) State() MutationState {
	return m.state
}

func (m *Mutation) Begin() error {
	if m.state != MutationIdle {
		return fmt.Errorf("mutation: begin from state %s", m.state)
	}
	m.state = MutationPending
	return nil
}

// Stage applies an edit to key, snapshotting the current entry the first time
// the key is touched so Rollback can restore it exactly. The edit follows the
// Patch contract: it returns the replacement value and whether the entry keeps
// existing.
func (m *Mutation) Stage(key string, edit func(value any, ok bool) (any, bool)) error {
	if m.state != MutationPending {
		return fmt.Errorf("mutation: stage from state %s", m.state)
	}
	if _, seen := m.touched[key]; !seen {
		value, ok := m.store.Get(key)
		m.snapshots = append(m.snapshots, snapshotEntry{key: key, value: value, existed: ok})
		m.touched[key] = struct{}{}
	}
	m.store.Patch(key, edit)
	return nil
}

// StageDelete removes the entry at key, snapshotting it first.
func (m *Mutation) StageDelete(key string) error {
	return m.Stage(key, func(any, bool) (any, bool) {
		return nil, false
	})
}

func (m *Mutation) Commit() error {
	if m.state != MutationPending {
		return fmt.Errorf("mutation: commit from state %s", m.state)
	}
	m.state = MutationCommitted
	m.snapshots = nil
	return nil
}

// Rollback restores every touched key to its snapshot, newest first.
func (m *Mutation) Rollback() error {
	if m.state != MutationPending {
		return fmt.Errorf("mutation: rollback from state %s", m.state)
	}
	for i := len(m.snapshots) - 1; i >= 0; i-- {
		entry := m.snapshots[i]
		if entry.existed {
			m.store.Set(entry.key, entry.value)
		} else {
			m.store.Delete(entry.key)
		}
	}
	m.state = MutationRolledBack
	m.snapshots = nil
	return nil
}
