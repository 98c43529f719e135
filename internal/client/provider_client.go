package client

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/LeventeLantos/sms-faas/internal/model"
)

// ProviderClient posts rendered messages to the SMS relay.
type ProviderClient struct {
	url    string
	apiKey string
	client *http.Client
}

// NewProviderClient returns a client for the relay at url. A zero timeout keeps
// the transport defaults.
func NewProviderClient(url, apiKey string, timeout time.Duration) *ProviderClient {
	return &ProviderClient{
		url:    url,
		apiKey: apiKey,
		client: &http.Client{
			Timeout: timeout,
		},
	}
}

type sendRequest struct {
	To       string `json:"to"`
	Text     string `json:"text"`
	SenderID string `json:"senderId,omitempty"`
}

// SendResult is the normalized relay response. Body is nil when the response
// was not JSON.
type SendResult struct {
	OK         bool
	StatusCode int
	Body       json.RawMessage
}

func (c *ProviderClient) Send(ctx context.Context, to, text, senderID string) (SendResult, error) {
	if c.url == "" {
		return SendResult{}, fmt.Errorf("%w: missing SMS_API_URL", model.ErrConfiguration)
	}

	reqBody, err := json.Marshal(sendRequest{
		To:       to,
		Text:     text,
		SenderID: senderID,
	})
	if err != nil {
		return SendResult{}, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(reqBody))
	if err != nil {
		return SendResult{}, err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Basic "+base64.StdEncoding.EncodeToString([]byte(c.apiKey)))
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return SendResult{}, fmt.Errorf("provider request failed: %w", err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)

	res := SendResult{
		OK:         resp.StatusCode >= 200 && resp.StatusCode < 300,
		StatusCode: resp.StatusCode,
	}
	if json.Valid(body) {
		res.Body = json.RawMessage(body)
	}
	return res, nil
}
