package testhelpers

import (
	"context"
	"sync"

	"github.com/jackc/pgx/v5"
)

// FakeTx stands in for a pgx.Tx in unit tests where repositories are mocked.
// Only Commit and Rollback are implemented; any other method panics.
type FakeTx struct {
	pgx.Tx

	CommitErr error

	mu         sync.Mutex
	committed  bool
	rolledBack bool
}

func (t *FakeTx) Commit(_ context.Context) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.CommitErr != nil {
		return t.CommitErr
	}
	t.committed = true
	return nil
}

// Rollback after a successful Commit is a no-op, matching how services defer it.
func (t *FakeTx) Rollback(_ context.Context) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.committed {
		t.rolledBack = true
	}
	return nil
}

func (t *FakeTx) Committed() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.committed
}

func (t *FakeTx) RolledBack() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.rolledBack
}

// FakeTxManager hands out a fresh FakeTx per BeginTx and remembers them.
type FakeTxManager struct {
	BeginErr  error
	CommitErr error

	mu  sync.Mutex
	txs []*FakeTx
}

func NewFakeTxManager() *FakeTxManager {
	return &FakeTxManager{}
}

func (m *FakeTxManager) BeginTx(_ context.Context) (pgx.Tx, error) {
	if m.BeginErr != nil {
		return nil, m.BeginErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	tx := &FakeTx{CommitErr: m.CommitErr}
	m.txs = append(m.txs, tx)
	return tx, nil
}

// Begun returns how many transactions were started.
func (m *FakeTxManager) Begun() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.txs)
}

// LastTx returns the most recent transaction, or nil if none was started.
func (m *FakeTxManager) LastTx() *FakeTx {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.txs) == 0 {
		return nil
	}
	return m.txs[len(m.txs)-1]
}

// Committed reports how many of the started transactions committed.
func (m *FakeTxManager) Committed() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, tx := range m.txs {
		if tx.Committed() {
			n++
		}
	}
	return n
}
