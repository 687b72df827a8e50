// Package payment implements trackpro.PaymentService and payment progress
// helpers.
package payment

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	trackpro "github.com/chimerakang/trackpro-go"
	"github.com/chimerakang/trackpro-go/internal/validation"
)

// Status summarises how much of a project's price has been paid.
type Status string

const (
	StatusUnpaid   Status = "unpaid"
	StatusProgress Status = "progress"
	StatusPaid     Status = "paid"
)

// Service records payments through a session-aware requester.
type Service struct {
	rc trackpro.Requester
}

// compile-time check
var _ trackpro.PaymentService = (*Service)(nil)

// New creates a payment service.
func New(rc trackpro.Requester) *Service {
	return &Service{rc: rc}
}

// Add records a payment of p.Amount (millions of VND) against the project
// owned by userID. Administrators only.
func (s *Service) Add(ctx context.Context, projectID, userID string, p trackpro.PaymentCreate) (*trackpro.Payment, error) {
	if err := validation.Struct(p); err != nil {
		return nil, fmt.Errorf("trackpro/payment: add: %w", err)
	}
	resp, err := s.rc.Do(ctx, &trackpro.PendingRequest{
		Method: http.MethodPost,
		Path:   "/payment",
		Query:  url.Values{"pid": {projectID}, "uid": {userID}},
		Body:   p,
	})
	if err != nil {
		return nil, fmt.Errorf("trackpro/payment: add: %w", err)
	}
	var out trackpro.Payment
	if err := resp.Decode(&out); err != nil {
		return nil, fmt.Errorf("trackpro/payment: add: decode: %w", err)
	}
	return &out, nil
}

// Total sums the payment amounts.
func Total(payments []trackpro.Payment) float64 {
	var sum float64
	for _, p := range payments {
		sum += p.Amount
	}
	return sum
}

// StatusOf compares the amount paid with the project price.
func StatusOf(price, paid float64) Status {
	switch {
	case paid == 0:
		return StatusUnpaid
	case paid == price:
		return StatusPaid
	default:
		return StatusProgress
	}
}

// Progress returns the status and remaining balance of a project.
func Progress(p trackpro.Project) (Status, float64) {
	paid := Total(p.Payments)
	return StatusOf(p.Price, paid), p.Price - paid
}
