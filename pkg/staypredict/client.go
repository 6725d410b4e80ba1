// Package staypredict calls the external length-of-stay collaborator. The
// collaborator receives the merged risk result and answers with a JSON object
// whose keys are passed through to API callers untouched.
package staypredict

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/synaptica-ai/mobility-risk/pkg/common/models"
	"github.com/synaptica-ai/mobility-risk/pkg/gateway/httpclient"
)

const (
	defaultAttempts = 2
	retryDelay      = 100 * time.Millisecond
	maxResponseBody = 1 << 20
)

var ErrEmptyEndpoint = errors.New("staypredict: endpoint is required")

// StatusError reports a non-2xx response from the collaborator.
type StatusError struct {
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("staypredict: unexpected status %d", e.StatusCode)
}

type Client struct {
	endpoint string
	http     *http.Client
	attempts int
}

type Option func(*Client)

func WithHTTPClient(c *http.Client) Option {
	return func(cl *Client) {
		if c != nil {
			cl.http = c
		}
	}
}

func WithAttempts(n int) Option {
	return func(cl *Client) {
		if n > 0 {
			cl.attempts = n
		}
	}
}

func NewClient(endpoint string, timeout time.Duration, opts ...Option) (*Client, error) {
	if endpoint == "" {
		return nil, ErrEmptyEndpoint
	}
	c := &Client{
		endpoint: endpoint,
		http:     httpclient.New(timeout),
		attempts: defaultAttempts,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Predict posts base and decodes the collaborator's keys. Server errors and
// transport failures are retried; client errors are not.
func (c *Client) Predict(ctx context.Context, base models.RiskAssessmentResult) (map[string]interface{}, error) {
	payload, err := json.Marshal(base)
	if err != nil {
		return nil, fmt.Errorf("staypredict: encode request: %w", err)
	}

	var out map[string]interface{}
	err = httpclient.Retry(ctx, c.attempts, retryDelay, func() error {
		extra, callErr := c.call(ctx, payload)
		if callErr != nil {
			return callErr
		}
		out = extra
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) call(ctx context.Context, payload []byte) (map[string]interface{}, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, httpclient.Permanent(fmt.Errorf("staypredict: build request: %w", err))
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		if httpclient.IsRetriable(err) {
			return nil, fmt.Errorf("staypredict: %w", err)
		}
		return nil, httpclient.Permanent(fmt.Errorf("staypredict: %w", err))
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusInternalServerError {
		return nil, &StatusError{StatusCode: resp.StatusCode}
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, httpclient.Permanent(&StatusError{StatusCode: resp.StatusCode})
	}

	var extra map[string]interface{}
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxResponseBody)).Decode(&extra); err != nil {
		return nil, httpclient.Permanent(fmt.Errorf("staypredict: decode response: %w", err))
	}
	return extra, nil
}
