package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"storefront/internal/gateway"
	"storefront/internal/model"
	"storefront/internal/service"
	"storefront/internal/sign"
	"storefront/internal/store"
)

const gwSecret = "gw-secret"

type webhookFixture struct {
	engine  *service.Lifecycle
	orders  *store.MemOrderStore
	handler http.HandlerFunc
}

func newWebhookFixture(t *testing.T) *webhookFixture {
	t.Helper()
	ctx := context.Background()

	products := store.NewMemProductStore()
	require.NoError(t, products.Create(ctx, &model.Product{ID: "c30", Name: "Card 30", Price: 200}))

	orders := store.NewMemOrderStore()
	settings := store.NewMemSettingsStore(0)
	gw := gateway.New(gateway.Config{ShopID: "shop-1", Secret: gwSecret, BaseURL: "https://pay.example"})
	engine := service.NewLifecycle(orders, settings, service.NewCatalog(products), gw, nil, nil)

	return &webhookFixture{
		engine:  engine,
		orders:  orders,
		handler: WebhookHandler(engine, gw),
	}
}

func (f *webhookFixture) post(t *testing.T, payload map[string]any) *httptest.ResponseRecorder {
	t.Helper()
	body, err := json.Marshal(payload)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/api/payment/webhook", bytes.NewReader(body))
	rec := httptest.NewRecorder()
	f.handler(rec, req)
	return rec
}

func signedPayload(orderID, status string, amount int64) map[string]any {
	p := map[string]any{"order_id": orderID, "status": status, "amount": amount}
	p["signature"] = sign.Sign(p, gwSecret)
	return p
}

func TestWebhookSuccess(t *testing.T) {
	f := newWebhookFixture(t)
	o, err := f.engine.Create(context.Background(), map[string]int{"c30": 2})
	require.NoError(t, err)

	rec := f.post(t, signedPayload(o.ID, "success", o.Amount))
	assert.Equal(t, http.StatusOK, rec.Code)

	got, err := f.engine.Get(context.Background(), o.ID)
	require.NoError(t, err)
	assert.Equal(t, model.PaymentPaid, got.PaymentStatus)
	require.NotNil(t, got.PaidAt)
}

func TestWebhookFailureStatus(t *testing.T) {
	f := newWebhookFixture(t)
	o, err := f.engine.Create(context.Background(), map[string]int{"c30": 1})
	require.NoError(t, err)

	rec := f.post(t, signedPayload(o.ID, "fail", o.Amount))
	assert.Equal(t, http.StatusOK, rec.Code)

	got, err := f.engine.Get(context.Background(), o.ID)
	require.NoError(t, err)
	assert.Equal(t, model.PaymentFailed, got.PaymentStatus)
	assert.Nil(t, got.PaidAt)
}

// Tampering with a signed field must be rejected before any state change.
func TestWebhookTamperedPayload(t *testing.T) {
	f := newWebhookFixture(t)
	o, err := f.engine.Create(context.Background(), map[string]int{"c30": 2})
	require.NoError(t, err)

	payload := signedPayload(o.ID, "success", o.Amount)
	payload["amount"] = int64(1)

	rec := f.post(t, payload)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	var resp map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "invalid_signature", resp["code"])

	got, err := f.engine.Get(context.Background(), o.ID)
	require.NoError(t, err)
	assert.Equal(t, model.PaymentNone, got.PaymentStatus)
}

func TestWebhookMissingSignature(t *testing.T) {
	f := newWebhookFixture(t)
	rec := f.post(t, map[string]any{"order_id": "o-1", "status": "success"})
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

// Unknown orders are acknowledged so the gateway stops retrying.
func TestWebhookUnknownOrderAcknowledged(t *testing.T) {
	f := newWebhookFixture(t)
	rec := f.post(t, signedPayload("no-such-order", "success", 100))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestWebhookFinalizedOrderAcknowledged(t *testing.T) {
	f := newWebhookFixture(t)
	ctx := context.Background()

	o, err := f.engine.Create(ctx, map[string]int{"c30": 1})
	require.NoError(t, err)
	_, _, err = f.engine.SubmitEmail(ctx, o.ID, "a@b.com", nil)
	require.NoError(t, err)
	_, _, err = f.engine.SubmitCode(ctx, o.ID, "a@b.com", "123")
	require.NoError(t, err)
	_, err = f.engine.Decide(ctx, o.ID, model.StatusRejected, "")
	require.NoError(t, err)

	rec := f.post(t, signedPayload(o.ID, "success", o.Amount))
	assert.Equal(t, http.StatusOK, rec.Code)

	got, err := f.engine.Get(ctx, o.ID)
	require.NoError(t, err)
	assert.Equal(t, model.PaymentNone, got.PaymentStatus, "finalized orders stay untouched")
}

func TestWebhookUnknownStatusIgnored(t *testing.T) {
	f := newWebhookFixture(t)
	o, err := f.engine.Create(context.Background(), map[string]int{"c30": 1})
	require.NoError(t, err)

	rec := f.post(t, signedPayload(o.ID, "refund_pending", o.Amount))
	assert.Equal(t, http.StatusOK, rec.Code)

	got, err := f.engine.Get(context.Background(), o.ID)
	require.NoError(t, err)
	assert.Equal(t, model.PaymentNone, got.PaymentStatus)
}
