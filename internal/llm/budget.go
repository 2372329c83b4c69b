package llm

import (
	"sync"
)

// Budget is the run-wide cap on AI provider invocations. Once exhausted,
// remaining tickers take the heuristic path instead of blocking; the cap
// is enforced centrally so no worker can oversubscribe it.
type Budget struct {
	mu    sync.Mutex
	limit int
	used  int
}

// NewBudget creates a budget allowing limit calls. A zero or negative
// limit means every caller falls back immediately.
func NewBudget(limit int) *Budget {
	return &Budget{limit: limit}
}

// Acquire consumes one call from the budget, reporting whether the caller
// may proceed.
func (b *Budget) Acquire() bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.used >= b.limit {
		return false
	}
	b.used++
	return true
}

// Used returns how many calls have been consumed.
func (b *Budget) Used() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.used
}

// Remaining returns how many calls are left.
func (b *Budget) Remaining() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.limit < b.used {
		return 0
	}
	return b.limit - b.used
}
