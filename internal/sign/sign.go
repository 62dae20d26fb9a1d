// Package sign implements the payment gateway's request signing scheme.
//
// The gateway contract is fixed: the shared secret is merged into the payload
// under the reserved key "password", the keys "signature" and "metadata" are
// excluded, the remaining values are concatenated in byte-wise sorted key
// order with no separators and no key names, and the result is hashed with
// plain SHA-256. This is not an HMAC; do not "fix" it without a coordinated
// breaking change on the gateway side.
package sign

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
)

const (
	secretKey = "password"
)

var excludedKeys = map[string]struct{}{
	"signature": {},
	"metadata":  {},
}

// Sign computes the lowercase hex digest for payload under secret. An empty
// secret signs against the empty string; callers reject unconfigured secrets
// before getting here.
func Sign(payload map[string]any, secret string) string {
	keys := make([]string, 0, len(payload)+1)
	for k := range payload {
		if _, skip := excludedKeys[k]; skip {
			continue
		}
		if k == secretKey {
			continue // overwritten by the secret below
		}
		keys = append(keys, k)
	}
	keys = append(keys, secretKey)
	sort.Strings(keys)

	var buf []byte
	for _, k := range keys {
		if k == secretKey {
			buf = append(buf, secret...)
			continue
		}
		buf = append(buf, coerce(payload[k])...)
	}

	sum := sha256.Sum256(buf)
	return hex.EncodeToString(sum[:])
}

// Verify recomputes the digest over payload (any "signature" field is already
// excluded by Sign) and compares it to signature in constant time.
func Verify(payload map[string]any, signature, secret string) bool {
	want := Sign(payload, secret)
	return subtle.ConstantTimeCompare([]byte(want), []byte(signature)) == 1
}

// coerce renders a value in its natural string form: decimal numbers without
// exponent notation, "true"/"false" booleans, empty string for nil.
func coerce(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case bool:
		return strconv.FormatBool(x)
	case json.Number:
		return x.String()
	case int:
		return strconv.FormatInt(int64(x), 10)
	case int8:
		return strconv.FormatInt(int64(x), 10)
	case int16:
		return strconv.FormatInt(int64(x), 10)
	case int32:
		return strconv.FormatInt(int64(x), 10)
	case int64:
		return strconv.FormatInt(x, 10)
	case uint:
		return strconv.FormatUint(uint64(x), 10)
	case uint8:
		return strconv.FormatUint(uint64(x), 10)
	case uint16:
		return strconv.FormatUint(uint64(x), 10)
	case uint32:
		return strconv.FormatUint(uint64(x), 10)
	case uint64:
		return strconv.FormatUint(x, 10)
	case float32:
		return strconv.FormatFloat(float64(x), 'f', -1, 32)
	case float64:
		// JSON numbers decode as float64; integral values must render
		// as "100", never "1e+02".
		return strconv.FormatFloat(x, 'f', -1, 64)
	default:
		return fmt.Sprint(x)
	}
}
