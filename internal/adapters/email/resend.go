package email

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/resend/resend-go/v2"
)

// ErrNoRecipients is returned when a request names nobody to deliver to.
var ErrNoRecipients = errors.New("email has no recipients")

// ResendSender delivers booking mail through the Resend API.
type ResendSender struct {
	client *resend.Client
	from   string
}

// NewResendSender creates a sender for apiKey that mails from the given address
// unless a request overrides it.
// PRE: apiKey is a valid Resend API key; from is a valid sender address
func NewResendSender(apiKey, from string) *ResendSender {
	return &ResendSender{
		client: resend.NewClient(apiKey),
		from:   from,
	}
}

// Send delivers req.
// POST: Email is queued for delivery; returns the Resend message ID
func (s *ResendSender) Send(ctx context.Context, req SendRequest) (SendResult, error) {
	params, err := resendParams(req, s.from)
	if err != nil {
		return SendResult{}, err
	}

	sent, err := s.client.Emails.SendWithContext(ctx, params)
	if err != nil {
		slog.Error("resend_send_failed", "error", err, "category", req.Tags["category"])
		return SendResult{}, fmt.Errorf("resend send failed: %w", err)
	}

	slog.Info("resend_sent", "message_id", sent.Id, "category", req.Tags["category"])
	return SendResult{
		MessageID: sent.Id,
		SentAt:    time.Now(),
	}, nil
}

// resendParams maps req onto the Resend payload. Tags are emitted in name
// order so payloads are deterministic.
func resendParams(req SendRequest, defaultFrom string) (*resend.SendEmailRequest, error) {
	if len(req.To) == 0 {
		return nil, ErrNoRecipients
	}
	from := req.From
	if from == "" {
		from = defaultFrom
	}

	params := &resend.SendEmailRequest{
		From:    from,
		To:      req.To,
		Subject: req.Subject,
		Html:    req.HTML,
		Text:    req.Text,
		ReplyTo: req.ReplyTo,
	}

	names := make([]string, 0, len(req.Tags))
	for name := range req.Tags {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		if req.Tags[name] == "" {
			continue
		}
		params.Tags = append(params.Tags, resend.Tag{Name: name, Value: req.Tags[name]})
	}
	return params, nil
}
