package notify

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"
)

// Notifier delivers digests to an external channel.
type Notifier interface {
	SendDigest(ctx context.Context, req DigestRequest) error
}

// DigestRequest is the JSON body posted to the webhook.
type DigestRequest struct {
	App   string    `json:"app"`
	Text  string    `json:"text"`
	Since time.Time `json:"since"`
	Until time.Time `json:"until"`
	Total int       `json:"total"`
}

// WebhookClient is a resty-backed Notifier posting to a single URL.
type WebhookClient struct {
	httpClient *resty.Client
	url        string
}

// NewWebhookClient builds a client posting JSON to url.
func NewWebhookClient(url string) *WebhookClient {
	restyClient := resty.New()
	restyClient.
		SetHeader("Content-Type", "application/json").
		SetTimeout(15 * time.Second)

	return &WebhookClient{httpClient: restyClient, url: url}
}

type webhookError struct {
	Message string `json:"message"`
	Error   string `json:"error"`
}

// SendDigest posts the digest and fails on any non-2xx answer.
func (c *WebhookClient) SendDigest(ctx context.Context, req DigestRequest) error {
	apiErr := new(webhookError)

	resp, err := c.httpClient.R().
		SetContext(ctx).
		SetBody(req).
		SetError(apiErr).
		Post(c.url)
	if err != nil {
		return fmt.Errorf("post digest: %w", err)
	}

	if resp.StatusCode() >= http.StatusBadRequest {
		message := apiErr.Message
		if message == "" {
			message = apiErr.Error
		}
		return fmt.Errorf("digest webhook error: status=%d, message=%s", resp.StatusCode(), message)
	}
	return nil
}
