package worker

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"storefront/internal/metrics"
	"storefront/internal/model"
	"storefront/internal/store"
)

// Sweeper periodically scans pending orders and reports the ones that look
// stuck: sitting in an email/code state past the age threshold, or carrying
// a zero amount (every product id in the cart was unknown). It never
// mutates orders; the webhook and admin paths own transitions.
type Sweeper struct {
	orders   store.OrderStore
	metrics  *metrics.Metrics
	interval time.Duration
	maxAge   time.Duration
}

func NewSweeper(orders store.OrderStore, m *metrics.Metrics, interval, maxAge time.Duration) *Sweeper {
	return &Sweeper{orders: orders, metrics: m, interval: interval, maxAge: maxAge}
}

func (s *Sweeper) Start(ctx context.Context) {
	slog.Info("starting order sweeper", "interval", s.interval, "max_age", s.maxAge)
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			slog.Info("order sweeper stopped")
			return
		case <-ticker.C:
			if err := s.sweep(ctx); err != nil {
				slog.Error("sweep failed", "error", err)
			}
		}
	}
}

func (s *Sweeper) sweep(ctx context.Context) error {
	stuck := 0
	cutoff := time.Now().Add(-s.maxAge)

	for _, status := range []model.Status{model.StatusPendingEmail, model.StatusPendingCode} {
		orders, err := s.orders.List(ctx, store.ListFilter{Status: status})
		if err != nil {
			return fmt.Errorf("list %s orders: %w", status, err)
		}
		for _, o := range orders {
			if o.UpdatedAt.Before(cutoff) {
				stuck++
				slog.Warn("order stuck in pending state",
					"id", o.ID, "status", o.Status, "age", time.Since(o.UpdatedAt).Round(time.Minute))
			}
			if o.Amount == 0 {
				slog.Warn("pending order has zero amount, cart may reference unknown products",
					"id", o.ID, "cart", o.Cart)
			}
		}
	}

	s.metrics.SetStuckOrders(stuck)
	return nil
}
