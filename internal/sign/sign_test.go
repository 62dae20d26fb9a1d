package sign

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Digests pinned against the live gateway contract: sorted keys of
// {amount, order_id, password} concatenate to "100" + "x" + "s".
func TestSignKnownVectors(t *testing.T) {
	got := Sign(map[string]any{"order_id": "x", "amount": 100}, "s")
	assert.Equal(t, "5d95f1600e3bcdd69e6cdad4c20f767478166c3546139a30ac03abf8e3412e1d", got)

	got = Sign(map[string]any{"order_id": "abc", "amount": 400}, "secret")
	assert.Equal(t, "37ccae24752a84fc433180d87f8401f58fdfa0888aad4ff79f1c6e6faf4f5512", got)
}

func TestSignDeterministic(t *testing.T) {
	payload := map[string]any{"order_id": "o-1", "amount": int64(1500), "method_slug": "card"}
	first := Sign(payload, "k")
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, Sign(payload, "k"))
	}
}

func TestSignNumericCoercion(t *testing.T) {
	// float64 is what webhook JSON decodes into; it must render the same
	// as the int the gateway signed.
	asInt := Sign(map[string]any{"order_id": "x", "amount": 100}, "s")
	asFloat := Sign(map[string]any{"order_id": "x", "amount": float64(100)}, "s")
	assert.Equal(t, asInt, asFloat)
}

func TestSignExcludesSignatureAndMetadata(t *testing.T) {
	base := map[string]any{"order_id": "o-2", "amount": 300}
	withNoise := map[string]any{
		"order_id":  "o-2",
		"amount":    300,
		"signature": "deadbeef",
		"metadata":  map[string]any{"note": "ignored"},
	}
	assert.Equal(t, Sign(base, "k"), Sign(withNoise, "k"))
}

func TestSignBoolAndNil(t *testing.T) {
	a := Sign(map[string]any{"test": true, "extra": nil}, "k")
	b := Sign(map[string]any{"test": true}, "extra_irrelevant_when_nil")
	assert.NotEqual(t, a, b)
	// nil coerces to empty string, so presence vs absence of a nil field
	// only matters through... nothing: same digest.
	c := Sign(map[string]any{"test": true, "extra": ""}, "k")
	assert.Equal(t, a, c)
}

func TestSignPasswordKeyReserved(t *testing.T) {
	// A payload smuggling its own "password" must not displace the secret.
	forged := Sign(map[string]any{"order_id": "x", "amount": 100, "password": "attacker"}, "s")
	honest := Sign(map[string]any{"order_id": "x", "amount": 100}, "s")
	assert.Equal(t, honest, forged)
}

func TestVerifyRoundTrip(t *testing.T) {
	payload := map[string]any{"order_id": "o-3", "amount": 999, "status": "success"}
	sig := Sign(payload, "topsecret")
	require.True(t, Verify(payload, sig, "topsecret"))

	tampered := map[string]any{"order_id": "o-3", "amount": 1, "status": "success"}
	assert.False(t, Verify(tampered, sig, "topsecret"))
	assert.False(t, Verify(payload, sig, "othersecret"))
	assert.False(t, Verify(payload, "", "topsecret"))
}

func TestSignKeyOrderIndependent(t *testing.T) {
	// Maps have no insertion order in Go, so build the payloads in
	// different textual orders and rely on repeated runs to shuffle.
	a := map[string]any{"b": "2", "a": "1", "c": "3"}
	b := map[string]any{"c": "3", "a": "1", "b": "2"}
	assert.Equal(t, Sign(a, "k"), Sign(b, "k"))
}

func TestSignEmptySecret(t *testing.T) {
	// Signer never fails; an absent secret signs against "".
	got := Sign(map[string]any{"order_id": "x"}, "")
	require.Len(t, got, 64)
	assert.True(t, Verify(map[string]any{"order_id": "x"}, got, ""))
}
