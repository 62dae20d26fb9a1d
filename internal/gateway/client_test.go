package gateway

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"storefront/internal/model"
	"storefront/internal/sign"
)

func testConfig(baseURL string) Config {
	return Config{
		ShopID:      "shop-1",
		Secret:      "gw-secret",
		BaseURL:     baseURL,
		SuccessURL:  "https://shop.example/ok",
		FailURL:     "https://shop.example/fail",
		NotifyURL:   "https://shop.example/api/payment/webhook",
		Description: "storefront order",
	}
}

func testOrder() *model.Order {
	return &model.Order{ID: "o-1", Cart: map[string]int{"c30": 2}, Amount: 400, Status: model.StatusCreated}
}

func TestInitiatePaymentSignsPayload(t *testing.T) {
	var received map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/payment/init", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&received))
		json.NewEncoder(w).Encode(map[string]string{"url": "https://pay.example/redirect/abc"})
	}))
	defer srv.Close()

	c := New(testConfig(srv.URL))
	url, err := c.InitiatePayment(context.Background(), testOrder(), "card")
	require.NoError(t, err)
	assert.Equal(t, "https://pay.example/redirect/abc", url)

	sig, _ := received["signature"].(string)
	require.NotEmpty(t, sig)
	assert.True(t, sign.Verify(received, sig, "gw-secret"))
	assert.Equal(t, "o-1", received["order_id"])
	assert.Equal(t, "card", received["method_slug"])
	assert.Equal(t, float64(400), received["amount"])
	assert.Equal(t, "shop-1", received["shop_id"])
}

func TestInitiatePaymentUpstreamError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "shop disabled", http.StatusForbidden)
	}))
	defer srv.Close()

	c := New(testConfig(srv.URL))
	_, err := c.InitiatePayment(context.Background(), testOrder(), "card")

	var up *UpstreamError
	require.ErrorAs(t, err, &up)
	assert.Equal(t, http.StatusForbidden, up.StatusCode)
	assert.Contains(t, up.Body, "shop disabled")
}

func TestInitiatePaymentMissingRedirectURL(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
	}))
	defer srv.Close()

	c := New(testConfig(srv.URL))
	_, err := c.InitiatePayment(context.Background(), testOrder(), "card")
	assert.ErrorIs(t, err, ErrNoRedirectURL)
}

func TestInitiatePaymentNotConfigured(t *testing.T) {
	c := New(Config{})
	assert.False(t, c.Configured())

	_, err := c.InitiatePayment(context.Background(), testOrder(), "card")
	assert.ErrorIs(t, err, ErrNotConfigured)
}

func TestVerifyWebhook(t *testing.T) {
	c := New(testConfig("https://pay.example"))

	payload := map[string]any{"order_id": "o-1", "status": "success", "amount": float64(400)}
	payload["signature"] = sign.Sign(payload, "gw-secret")
	assert.True(t, c.VerifyWebhook(payload))

	payload["amount"] = float64(1)
	assert.False(t, c.VerifyWebhook(payload))

	delete(payload, "signature")
	assert.False(t, c.VerifyWebhook(payload))
}
