package alert

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// WebhookNotifier delivers events by POSTing to the check's alert URL.
// The timeout is injected from config so a slow receiver cannot stall
// the worker that fired the alert.
type WebhookNotifier struct {
	httpClient *http.Client
}

func NewWebhookNotifier(timeout time.Duration) *WebhookNotifier {
	return &WebhookNotifier{
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// Notify posts the event to url and accepts any 2xx response.
// Receivers vary (Slack, PagerDuty bridges, bespoke hooks), so no
// response body is expected.
func (n *WebhookNotifier) Notify(ctx context.Context, url string, ev Event) error {
	body, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("unexpected receiver status: %d", resp.StatusCode)
	}

	return nil
}

// compile-time check that WebhookNotifier implements Notifier
var _ Notifier = (*WebhookNotifier)(nil)
