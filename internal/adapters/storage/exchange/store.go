package exchange

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
)

// Outcome values recorded against a claimed code.
const (
	OutcomePending   = "pending"
	OutcomeSucceeded = "succeeded"
	OutcomeFailed    = "failed"
)

// ErrAlreadyClaimed is returned when a code has been claimed before.
var ErrAlreadyClaimed = errors.New("auth code already exchanged")

// ErrUnknownCode is returned when settling a code that was never claimed.
var ErrUnknownCode = errors.New("auth code was never claimed")

// Ledger records which one-time auth codes have been handed to the academy.
// Only SHA-256 digests are stored, never the codes themselves.
type Ledger interface {
	Claim(ctx context.Context, code string) error
	Settle(ctx context.Context, code, outcome string) error
	OutcomeOf(ctx context.Context, code string) (string, error)
}

// Digest returns the hex SHA-256 digest under which a code is recorded.
func Digest(code string) string {
	sum := sha256.Sum256([]byte(code))
	return hex.EncodeToString(sum[:])
}
