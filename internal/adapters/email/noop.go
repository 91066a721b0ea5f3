package email

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"
)

// NoopSender logs mail instead of delivering it. The portal uses it when no
// provider key is configured.
type NoopSender struct {
	sent atomic.Int64
}

// NewNoopSender creates a new NoopSender.
func NewNoopSender() *NoopSender {
	return &NoopSender{}
}

// Send logs req and reports success.
func (s *NoopSender) Send(_ context.Context, req SendRequest) (SendResult, error) {
	if len(req.To) == 0 {
		return SendResult{}, ErrNoRecipients
	}
	n := s.sent.Add(1)
	slog.Info("noop_email_send", "recipients", len(req.To), "category", req.Tags["category"], "subject", req.Subject)
	return SendResult{
		MessageID: fmt.Sprintf("noop-%d", n),
		SentAt:    time.Now(),
	}, nil
}

// Sent returns how many messages have been accepted.
func (s *NoopSender) Sent() int64 {
	return s.sent.Load()
}
