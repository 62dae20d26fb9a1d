package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/mail"
	"time"

	"github.com/google/uuid"

	"storefront/internal/metrics"
	"storefront/internal/model"
	"storefront/internal/notify"
	"storefront/internal/store"
)

var (
	ErrOrderNotFound        = errors.New("order not found")
	ErrOrderFinalized       = errors.New("order is finalized")
	ErrInvalidTransition    = errors.New("operation not allowed in current order state")
	ErrEmailMismatch        = errors.New("email does not match the one on the order")
	ErrInvalidEmail         = errors.New("invalid email address")
	ErrEmailRequired        = errors.New("email must be submitted before the code")
	ErrCodeRequired         = errors.New("verification code is required")
	ErrInvalidCart          = errors.New("cart must contain positive quantities")
	ErrEmptyCart            = errors.New("cart is empty or has zero value")
	ErrCartLimitExceeded    = errors.New("cart amount exceeds the configured ceiling")
	ErrPaymentNotConfigured = errors.New("payment is not configured")
)

// Payments is the slice of the gateway adapter the engine needs.
type Payments interface {
	Configured() bool
	InitiatePayment(ctx context.Context, o *model.Order, methodSlug string) (string, error)
}

// Lifecycle is the order state machine. It is the sole writer of order
// state; every mutation goes through the store's per-id serialized Update.
type Lifecycle struct {
	orders   store.OrderStore
	settings store.SettingsStore
	catalog  *Catalog
	payments Payments
	notifier notify.Notifier
	metrics  *metrics.Metrics
}

func NewLifecycle(orders store.OrderStore, settings store.SettingsStore, catalog *Catalog,
	payments Payments, notifier notify.Notifier, m *metrics.Metrics) *Lifecycle {
	if notifier == nil {
		notifier = notify.Noop{}
	}
	return &Lifecycle{
		orders:   orders,
		settings: settings,
		catalog:  catalog,
		payments: payments,
		notifier: notifier,
		metrics:  m,
	}
}

func validateCart(cart map[string]int) error {
	if len(cart) == 0 {
		return ErrEmptyCart
	}
	for _, qty := range cart {
		if qty < 1 {
			return ErrInvalidCart
		}
	}
	return nil
}

// Create registers a new order in the created state. A zero computed amount
// is tolerated here (unknown product ids contribute nothing); payment
// initiation is the hard gate against zero-value carts.
func (l *Lifecycle) Create(ctx context.Context, cart map[string]int) (*model.Order, error) {
	if err := validateCart(cart); err != nil {
		return nil, err
	}

	amount, err := l.catalog.CartTotal(ctx, cart)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	o := &model.Order{
		ID:        uuid.NewString(),
		Cart:      cart,
		Amount:    amount,
		Status:    model.StatusCreated,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := l.orders.Create(ctx, o); err != nil {
		return nil, fmt.Errorf("create order: %w", err)
	}

	l.metrics.OrderTransition(string(model.StatusCreated))
	slog.Info("order created", "id", o.ID, "amount", o.Amount)
	return o, nil
}

// SubmitEmail binds contact info to the order and moves it to
// pending_email. Resubmission is an idempotent overwrite of email, cart and
// amount. Returns the updated order and whether the sink was notified.
func (l *Lifecycle) SubmitEmail(ctx context.Context, orderID, email string, cart map[string]int) (*model.Order, bool, error) {
	if _, err := mail.ParseAddress(email); err != nil {
		return nil, false, ErrInvalidEmail
	}
	if cart != nil {
		if err := validateCart(cart); err != nil {
			return nil, false, err
		}
	}

	ceiling, err := l.settings.CartCeiling(ctx)
	if err != nil {
		return nil, false, fmt.Errorf("read cart ceiling: %w", err)
	}

	o, err := l.orders.Update(ctx, orderID, func(o *model.Order) error {
		if o.Status.Terminal() {
			return ErrOrderFinalized
		}
		if o.Status != model.StatusCreated && o.Status != model.StatusPendingEmail {
			return ErrInvalidTransition
		}
		if cart != nil {
			o.Cart = cart
		}
		amount, err := l.catalog.CartTotal(ctx, o.Cart)
		if err != nil {
			return err
		}
		if ceiling > 0 && amount > ceiling {
			return ErrCartLimitExceeded
		}
		o.Amount = amount
		o.Email = email
		o.Status = model.StatusPendingEmail
		o.UpdatedAt = time.Now().UTC()
		return nil
	})
	if err != nil {
		return nil, false, l.orderErr(err)
	}

	l.metrics.OrderTransition(string(model.StatusPendingEmail))
	notified := l.notifyStage(ctx, o, notify.StageEmailSubmitted)
	return o, notified, nil
}

// SubmitCode stores the verification code relayed by the client. The
// submitted email must equal the stored one exactly; a mismatch leaves the
// order untouched. Resubmitting in pending_code overwrites the code and
// re-timestamps without recomputing the amount.
func (l *Lifecycle) SubmitCode(ctx context.Context, orderID, email, code string) (*model.Order, bool, error) {
	if code == "" {
		return nil, false, ErrCodeRequired
	}

	o, err := l.orders.Update(ctx, orderID, func(o *model.Order) error {
		if o.Status.Terminal() {
			return ErrOrderFinalized
		}
		if o.Email == "" {
			return ErrEmailRequired
		}
		if o.Email != email {
			return ErrEmailMismatch
		}
		if o.Status != model.StatusPendingEmail && o.Status != model.StatusPendingCode {
			return ErrInvalidTransition
		}
		o.Code = code
		o.Status = model.StatusPendingCode
		o.UpdatedAt = time.Now().UTC()
		return nil
	})
	if err != nil {
		return nil, false, l.orderErr(err)
	}

	l.metrics.OrderTransition(string(model.StatusPendingCode))
	notified := l.notifyStage(ctx, o, notify.StageCodeSubmitted)
	return o, notified, nil
}

// Decide applies the operator's verdict on an order awaiting approval.
func (l *Lifecycle) Decide(ctx context.Context, orderID string, status model.Status, comment string) (*model.Order, error) {
	if status != model.StatusCompleted && status != model.StatusRejected {
		return nil, ErrInvalidTransition
	}

	o, err := l.orders.Update(ctx, orderID, func(o *model.Order) error {
		if o.Status.Terminal() {
			return ErrOrderFinalized
		}
		if o.Status != model.StatusPendingCode {
			return ErrInvalidTransition
		}
		now := time.Now().UTC()
		o.Status = status
		switch status {
		case model.StatusCompleted:
			o.CompletedAt = &now
		case model.StatusRejected:
			o.RejectedAt = &now
		}
		if comment != "" {
			o.AdminComment = comment
		}
		o.UpdatedAt = now
		return nil
	})
	if err != nil {
		return nil, l.orderErr(err)
	}

	l.metrics.OrderTransition(string(status))
	slog.Info("order decided", "id", o.ID, "status", o.Status)
	return o, nil
}

// Comment attaches an operator annotation; allowed in any state, including
// terminal ones.
func (l *Lifecycle) Comment(ctx context.Context, orderID, text string) (*model.Order, error) {
	o, err := l.orders.Update(ctx, orderID, func(o *model.Order) error {
		o.AdminComment = text
		o.UpdatedAt = time.Now().UTC()
		return nil
	})
	if err != nil {
		return nil, l.orderErr(err)
	}
	return o, nil
}

// ApplyPayment records the gateway-reported side-status. paid_at is set
// exactly once, on the first success report. Finalized orders are not
// touched; the caller logs and acknowledges.
func (l *Lifecycle) ApplyPayment(ctx context.Context, orderID string, success bool) (*model.Order, error) {
	o, err := l.orders.Update(ctx, orderID, func(o *model.Order) error {
		if o.Status.Terminal() {
			return ErrOrderFinalized
		}
		if success {
			o.PaymentStatus = model.PaymentPaid
			if o.PaidAt == nil {
				now := time.Now().UTC()
				o.PaidAt = &now
			}
		} else {
			o.PaymentStatus = model.PaymentFailed
		}
		o.UpdatedAt = time.Now().UTC()
		return nil
	})
	if err != nil {
		return nil, l.orderErr(err)
	}

	l.metrics.OrderTransition(string(o.PaymentStatus))
	slog.Info("payment status applied", "id", o.ID, "payment_status", o.PaymentStatus)
	return o, nil
}

// InitiatePayment recomputes the amount from current prices, persists the
// chosen method, then calls the gateway. The outbound call happens after the
// store write, never under the per-order lock.
func (l *Lifecycle) InitiatePayment(ctx context.Context, orderID, methodSlug string) (string, *model.Order, error) {
	if l.payments == nil || !l.payments.Configured() {
		return "", nil, ErrPaymentNotConfigured
	}

	ceiling, err := l.settings.CartCeiling(ctx)
	if err != nil {
		return "", nil, fmt.Errorf("read cart ceiling: %w", err)
	}

	o, err := l.orders.Update(ctx, orderID, func(o *model.Order) error {
		if o.Status.Terminal() {
			return ErrOrderFinalized
		}
		amount, err := l.catalog.CartTotal(ctx, o.Cart)
		if err != nil {
			return err
		}
		if amount == 0 {
			return ErrEmptyCart
		}
		if ceiling > 0 && amount > ceiling {
			return ErrCartLimitExceeded
		}
		o.Amount = amount
		o.PaymentMethod = methodSlug
		o.UpdatedAt = time.Now().UTC()
		return nil
	})
	if err != nil {
		return "", nil, l.orderErr(err)
	}

	url, err := l.payments.InitiatePayment(ctx, o, methodSlug)
	if err != nil {
		return "", nil, err
	}
	slog.Info("payment initiated", "id", o.ID, "method", methodSlug, "amount", o.Amount)
	return url, o, nil
}

func (l *Lifecycle) Get(ctx context.Context, orderID string) (*model.Order, error) {
	o, err := l.orders.Get(ctx, orderID)
	if err != nil {
		return nil, l.orderErr(err)
	}
	return o, nil
}

func (l *Lifecycle) List(ctx context.Context, f store.ListFilter) ([]model.Order, error) {
	return l.orders.List(ctx, f)
}

// notifyStage pushes a best-effort event to the sink after the transition is
// durable. The surrounding request may already be cancelled; the committed
// state must not be affected, so the notification runs on a detached context
// with its own bound.
func (l *Lifecycle) notifyStage(ctx context.Context, o *model.Order, stage string) bool {
	nctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
	defer cancel()

	err := l.notifier.OrderEvent(nctx, notify.Event{
		OrderID: o.ID,
		Email:   o.Email,
		Items:   o.Cart,
		Amount:  o.Amount,
		Code:    o.Code,
		Stage:   stage,
	})
	if err != nil {
		slog.Warn("order notification failed", "id", o.ID, "stage", stage, "error", err)
		return false
	}
	return true
}

func (l *Lifecycle) orderErr(err error) error {
	if errors.Is(err, store.ErrNotFound) {
		return ErrOrderNotFound
	}
	return err
}
