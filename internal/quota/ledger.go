// Package quota tracks per-session conversion usage against a budget of
// free and paid conversions.
//
// Admission is a two-phase reservation: Reserve atomically claims a slot
// while used+pending < budget, Commit turns the claim into consumed usage
// after a successful conversion, and Cancel releases it on any other
// outcome. This closes the window where two concurrent requests from one
// session could both pass a read-only pre-check and overrun the budget.
package quota

import (
	"context"

	"docconvert/internal/domain"
)

// Ledger is the per-session quota store.
type Ledger interface {
	// Check reports current usage without mutating anything.
	Check(ctx context.Context, session string) (domain.QuotaState, error)
	// Reserve atomically claims one conversion slot, returning
	// domain.ErrQuotaExceeded when the budget is exhausted.
	Reserve(ctx context.Context, session string) error
	// Commit converts a prior reservation into consumed usage.
	Commit(ctx context.Context, session string) error
	// Cancel releases a prior reservation without consuming usage.
	Cancel(ctx context.Context, session string) error
	// GrantTopUp raises the budget by amount and marks the session paid.
	// At-most-once semantics per payment are the caller's responsibility,
	// enforced through the pending-payment nonce.
	GrantTopUp(ctx context.Context, session string, amount int) error
}
