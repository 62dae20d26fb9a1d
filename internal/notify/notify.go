// Package notify delivers best-effort order events to the configured sink.
// Delivery failure never affects the order state that triggered the event.
package notify

import (
	"context"
	"time"
)

const (
	StageEmailSubmitted = "email_submitted"
	StageCodeSubmitted  = "code_submitted"
)

type Event struct {
	OrderID   string         `json:"orderId"`
	Email     string         `json:"email"`
	Items     map[string]int `json:"items"`
	Amount    int64          `json:"amount"`
	Code      string         `json:"code,omitempty"`
	Stage     string         `json:"stage"`
	Secret    string         `json:"secret,omitempty"`
	Timestamp time.Time      `json:"timestamp"`
}

type Notifier interface {
	OrderEvent(ctx context.Context, e Event) error
}

// Noop is used when no sink is configured.
type Noop struct{}

func (Noop) OrderEvent(context.Context, Event) error { return nil }
