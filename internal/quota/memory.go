package quota

import (
	"context"
	"sync"

	"docconvert/internal/domain"
)

type memoryEntry struct {
	used    int
	pending int
	budget  int
	paid    bool
}

// MemoryLedger keeps quota state in process memory. Sessions materialize
// with the free allowance on first access and live until the process
// exits; session expiry is an external concern.
type MemoryLedger struct {
	freeLimit int

	mu      sync.Mutex
	entries map[string]*memoryEntry
}

// NewMemoryLedger builds an in-memory ledger with the given free
// allowance per session.
func NewMemoryLedger(freeLimit int) *MemoryLedger {
	return &MemoryLedger{freeLimit: freeLimit, entries: make(map[string]*memoryEntry)}
}

func (l *MemoryLedger) entry(session string) *memoryEntry {
	e, ok := l.entries[session]
	if !ok {
		e = &memoryEntry{budget: l.freeLimit}
		l.entries[session] = e
	}
	return e
}

func (l *MemoryLedger) Check(_ context.Context, session string) (domain.QuotaState, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	e := l.entry(session)
	return domain.QuotaState{Used: e.used, Budget: e.budget, Paid: e.paid}, nil
}

func (l *MemoryLedger) Reserve(_ context.Context, session string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	e := l.entry(session)
	if e.used+e.pending >= e.budget {
		return domain.ErrQuotaExceeded
	}
	e.pending++
	return nil
}

func (l *MemoryLedger) Commit(_ context.Context, session string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	e := l.entry(session)
	if e.pending > 0 {
		e.pending--
	}
	e.used++
	return nil
}

func (l *MemoryLedger) Cancel(_ context.Context, session string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	e := l.entry(session)
	if e.pending > 0 {
		e.pending--
	}
	return nil
}

func (l *MemoryLedger) GrantTopUp(_ context.Context, session string, amount int) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	e := l.entry(session)
	e.budget += amount
	e.paid = true
	return nil
}
