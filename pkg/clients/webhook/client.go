package webhook

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"
)

// Client posts farm notifications to an operator-configured webhook endpoint
// (Slack-style incoming hook, n8n flow, etc.).
type Client interface {
	SendNotification(ctx context.Context, n Notification) error
}

// Notification is the JSON payload delivered to the webhook.
type Notification struct {
	Title   string `json:"title"`
	Message string `json:"message"`
	Level   string `json:"level,omitempty"` // "info" | "warning"
}

// APIClient is a resty-backed implementation of Client.
type APIClient struct {
	httpClient *resty.Client
	url        string
}

// NewClient builds a webhook client targeting the provided URL.
func NewClient(url string) *APIClient {
	restyClient := resty.New()
	restyClient.
		SetHeader("Content-Type", "application/json").
		SetTimeout(15 * time.Second)

	return &APIClient{
		httpClient: restyClient,
		url:        url,
	}
}

// SendNotification delivers the payload, treating any non-2xx response as an
// error.
func (c *APIClient) SendNotification(ctx context.Context, n Notification) error {
	resp, err := c.httpClient.R().
		SetContext(ctx).
		SetBody(n).
		Post(c.url)
	if err != nil {
		return fmt.Errorf("send webhook notification: %w", err)
	}

	if resp.StatusCode() >= http.StatusBadRequest {
		return fmt.Errorf("webhook endpoint error: status=%d body=%s", resp.StatusCode(), resp.String())
	}

	return nil
}
