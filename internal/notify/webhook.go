package notify

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"
)

// WebhookSink posts each notification as JSON to a URL.
type WebhookSink struct {
	client *resty.Client
	url    string
}

// NewWebhookSink returns a sink posting to url.
func NewWebhookSink(url string) *WebhookSink {
	client := resty.New().
		SetHeader("Content-Type", "application/json").
		SetTimeout(10 * time.Second).
		SetRetryCount(2).
		SetRetryWaitTime(500 * time.Millisecond)
	return &WebhookSink{client: client, url: url}
}

func (s *WebhookSink) Notify(ctx context.Context, n Notification) error {
	resp, err := s.client.R().
		SetContext(ctx).
		SetBody(n).
		Post(s.url)
	if err != nil {
		return fmt.Errorf("posting notification: %w", err)
	}
	if resp.StatusCode() >= http.StatusBadRequest {
		return fmt.Errorf("notification webhook: status %d", resp.StatusCode())
	}
	return nil
}
