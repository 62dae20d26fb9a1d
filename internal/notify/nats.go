package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"
)

// NATSSink publishes order events to a NATS subject for deployments that
// run the fulfillment bot off a message bus instead of a webhook.
type NATSSink struct {
	nc      *nats.Conn
	subject string
	secret  string
}

func NewNATSSink(url, subject, secret string) (*NATSSink, error) {
	nc, err := nats.Connect(url,
		nats.Name("storefront"),
		nats.MaxReconnects(5),
		nats.ReconnectWait(2*time.Second),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			slog.Warn("nats disconnected", "error", err)
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			slog.Info("nats reconnected", "url", nc.ConnectedUrl())
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("connect nats: %w", err)
	}
	return &NATSSink{nc: nc, subject: subject, secret: secret}, nil
}

func (s *NATSSink) OrderEvent(_ context.Context, e Event) error {
	e.Secret = s.secret
	e.Timestamp = time.Now().UTC()

	body, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}
	if err := s.nc.Publish(s.subject, body); err != nil {
		return fmt.Errorf("publish event: %w", err)
	}
	return nil
}

func (s *NATSSink) Close() {
	if s.nc != nil {
		s.nc.Drain()
	}
}
