package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// HTTPSink posts order events as JSON to a relay URL (historically a
// Telegram bot webhook). The response body is ignored.
type HTTPSink struct {
	url    string
	secret string
	client *http.Client
}

func NewHTTPSink(url, secret string) *HTTPSink {
	return &HTTPSink{
		url:    url,
		secret: secret,
		client: &http.Client{Timeout: 10 * time.Second},
	}
}

func (s *HTTPSink) OrderEvent(ctx context.Context, e Event) error {
	e.Secret = s.secret
	e.Timestamp = time.Now().UTC()

	body, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return fmt.Errorf("sink returned status %d", resp.StatusCode)
	}
	return nil
}
