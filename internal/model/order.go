package model

import (
	"time"
)

type Status string

const (
	StatusCreated      Status = "created"
	StatusPendingEmail Status = "pending_email"
	StatusPendingCode  Status = "pending_code"
	StatusCompleted    Status = "completed"
	StatusRejected     Status = "rejected"
)

// Terminal reports whether no further lifecycle transitions are allowed.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusRejected
}

func ValidStatus(s Status) bool {
	switch s {
	case StatusCreated, StatusPendingEmail, StatusPendingCode, StatusCompleted, StatusRejected:
		return true
	}
	return false
}

// PaymentStatus is the gateway-reported side-status. It coexists with the
// lifecycle status: an order can be pending_code and paid at the same time.
type PaymentStatus string

const (
	PaymentNone   PaymentStatus = ""
	PaymentPaid   PaymentStatus = "paid"
	PaymentFailed PaymentStatus = "failed"
)

type Order struct {
	ID            string         `json:"id"`
	Cart          map[string]int `json:"cart"`
	Amount        int64          `json:"amount"` // smallest currency unit
	Email         string         `json:"email,omitempty"`
	Code          string         `json:"code,omitempty"`
	Status        Status         `json:"status"`
	PaymentMethod string         `json:"payment_method,omitempty"`
	PaymentStatus PaymentStatus  `json:"payment_status,omitempty"`
	AdminComment  string         `json:"admin_comment,omitempty"`
	CreatedAt     time.Time      `json:"created_at"`
	UpdatedAt     time.Time      `json:"updated_at"`
	PaidAt        *time.Time     `json:"paid_at,omitempty"`
	CompletedAt   *time.Time     `json:"completed_at,omitempty"`
	RejectedAt    *time.Time     `json:"rejected_at,omitempty"`
}

// PublicOrder is the projection returned to unauthenticated callers: no
// verification code, no operator annotations.
type PublicOrder struct {
	ID            string         `json:"id"`
	Cart          map[string]int `json:"cart"`
	Amount        int64          `json:"amount"`
	Email         string         `json:"email,omitempty"`
	Status        Status         `json:"status"`
	PaymentMethod string         `json:"payment_method,omitempty"`
	PaymentStatus PaymentStatus  `json:"payment_status,omitempty"`
	CreatedAt     time.Time      `json:"created_at"`
	UpdatedAt     time.Time      `json:"updated_at"`
	PaidAt        *time.Time     `json:"paid_at,omitempty"`
}

func (o *Order) Public() PublicOrder {
	return PublicOrder{
		ID:            o.ID,
		Cart:          o.Cart,
		Amount:        o.Amount,
		Email:         o.Email,
		Status:        o.Status,
		PaymentMethod: o.PaymentMethod,
		PaymentStatus: o.PaymentStatus,
		CreatedAt:     o.CreatedAt,
		UpdatedAt:     o.UpdatedAt,
		PaidAt:        o.PaidAt,
	}
}

// Clone returns a deep copy; stores hand out clones so callers cannot
// mutate persisted state behind the store's back.
func (o *Order) Clone() *Order {
	cp := *o
	if o.Cart != nil {
		cp.Cart = make(map[string]int, len(o.Cart))
		for k, v := range o.Cart {
			cp.Cart[k] = v
		}
	}
	return &cp
}
