package quota

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"docconvert/internal/domain"
)

// DBTX is the subset of pgx pool behavior the ledger needs.
type DBTX interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

const (
	qEnsureSchema = `CREATE TABLE IF NOT EXISTS quota_sessions (
		session_key TEXT PRIMARY KEY,
		used        INTEGER NOT NULL DEFAULT 0,
		pending     INTEGER NOT NULL DEFAULT 0,
		budget      INTEGER NOT NULL,
		paid        BOOLEAN NOT NULL DEFAULT FALSE,
		created_at  TIMESTAMPTZ NOT NULL DEFAULT now()
	)`
	qEnsureSession = `INSERT INTO quota_sessions (session_key, budget)
		VALUES ($1, $2) ON CONFLICT (session_key) DO NOTHING`
	qSelectState = `SELECT used, budget, paid FROM quota_sessions WHERE session_key = $1`
	qReserve     = `UPDATE quota_sessions SET pending = pending + 1
		WHERE session_key = $1 AND used + pending < budget`
	qCommit = `UPDATE quota_sessions
		SET used = used + 1, pending = GREATEST(pending - 1, 0)
		WHERE session_key = $1`
	qCancel = `UPDATE quota_sessions SET pending = GREATEST(pending - 1, 0)
		WHERE session_key = $1`
	qGrantTopUp = `UPDATE quota_sessions SET budget = budget + $2, paid = TRUE
		WHERE session_key = $1`
)

// PostgresLedger persists quota state so usage survives restarts and is
// shared between replicas. Reservation atomicity comes from conditional
// single-row updates.
type PostgresLedger struct {
	db        DBTX
	freeLimit int
}

// NewPostgresLedger builds a Postgres-backed ledger with the given free
// allowance per session.
func NewPostgresLedger(db DBTX, freeLimit int) *PostgresLedger {
	return &PostgresLedger{db: db, freeLimit: freeLimit}
}

// EnsureSchema creates the quota table when it does not exist yet.
func (l *PostgresLedger) EnsureSchema(ctx context.Context) error {
	if _, err := l.db.Exec(ctx, qEnsureSchema); err != nil {
		return fmt.Errorf("quota: ensure schema: %w", err)
	}
	return nil
}

func (l *PostgresLedger) ensure(ctx context.Context, session string) error {
	if _, err := l.db.Exec(ctx, qEnsureSession, session, l.freeLimit); err != nil {
		return fmt.Errorf("quota: ensure session: %w", err)
	}
	return nil
}

func (l *PostgresLedger) Check(ctx context.Context, session string) (domain.QuotaState, error) {
	if err := l.ensure(ctx, session); err != nil {
		return domain.QuotaState{}, err
	}
	var st domain.QuotaState
	row := l.db.QueryRow(ctx, qSelectState, session)
	if err := row.Scan(&st.Used, &st.Budget, &st.Paid); err != nil {
		return domain.QuotaState{}, fmt.Errorf("quota: read session: %w", err)
	}
	return st, nil
}

func (l *PostgresLedger) Reserve(ctx context.Context, session string) error {
	if err := l.ensure(ctx, session); err != nil {
		return err
	}
	tag, err := l.db.Exec(ctx, qReserve, session)
	if err != nil {
		return fmt.Errorf("quota: reserve: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrQuotaExceeded
	}
	return nil
}

func (l *PostgresLedger) Commit(ctx context.Context, session string) error {
	if _, err := l.db.Exec(ctx, qCommit, session); err != nil {
		return fmt.Errorf("quota: commit: %w", err)
	}
	return nil
}

func (l *PostgresLedger) Cancel(ctx context.Context, session string) error {
	if _, err := l.db.Exec(ctx, qCancel, session); err != nil {
		return fmt.Errorf("quota: cancel: %w", err)
	}
	return nil
}

func (l *PostgresLedger) GrantTopUp(ctx context.Context, session string, amount int) error {
	if err := l.ensure(ctx, session); err != nil {
		return err
	}
	if _, err := l.db.Exec(ctx, qGrantTopUp, session, amount); err != nil {
		return fmt.Errorf("quota: grant top-up: %w", err)
	}
	return nil
}
