package exchange

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"aiga/internal/adapters/storage"
)

// SQLiteLedger implements Ledger using SQLite.
type SQLiteLedger struct {
	db  storage.SQLDB
	now func() time.Time
}

// NewSQLiteLedger creates a new exchange ledger.
func NewSQLiteLedger(db storage.SQLDB) *SQLiteLedger {
	return &SQLiteLedger{db: db, now: time.Now}
}

// Claim reserves code for a single exchange attempt.
// PRE: code is non-empty
// POST: Returns nil exactly once per code; every later call returns ErrAlreadyClaimed
// INVARIANT: A claimed code stays claimed whatever its outcome
func (l *SQLiteLedger) Claim(ctx context.Context, code string) error {
	if code == "" {
		return errors.New("code is required")
	}
	res, err := l.db.ExecContext(ctx, `
		INSERT OR IGNORE INTO exchanged_code (code_hash, outcome, claimed_at)
		VALUES (?, ?, ?)
	`, Digest(code), OutcomePending, l.now().UTC().Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("claim exchanged_code: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("claim exchanged_code: %w", err)
	}
	if n == 0 {
		return ErrAlreadyClaimed
	}
	return nil
}

// Settle records the result of the exchange for a claimed code.
// PRE: code was claimed; outcome is OutcomeSucceeded or OutcomeFailed
// POST: OutcomeOf(code) returns outcome
func (l *SQLiteLedger) Settle(ctx context.Context, code, outcome string) error {
	if outcome != OutcomeSucceeded && outcome != OutcomeFailed {
		return fmt.Errorf("invalid exchange outcome %q", outcome)
	}
	res, err := l.db.ExecContext(ctx, `
		UPDATE exchanged_code SET outcome = ?, settled_at = ?
		WHERE code_hash = ?
	`, outcome, l.now().UTC().Format(time.RFC3339), Digest(code))
	if err != nil {
		return fmt.Errorf("settle exchanged_code: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrUnknownCode
	}
	return nil
}

// OutcomeOf returns the recorded outcome for code.
// POST: Returns ErrUnknownCode when the code was never claimed
// INVARIANT: Ledger state is not mutated
func (l *SQLiteLedger) OutcomeOf(ctx context.Context, code string) (string, error) {
	var outcome string
	err := l.db.QueryRowContext(ctx, `SELECT outcome FROM exchanged_code WHERE code_hash = ?`, Digest(code)).Scan(&outcome)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrUnknownCode
	}
	if err != nil {
		return "", fmt.Errorf("get exchanged_code: %w", err)
	}
	return outcome, nil
}
