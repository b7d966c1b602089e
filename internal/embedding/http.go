package embedding

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"golang.org/x/time/rate"
)

// httpClient is the shared transport for hosted providers: one JSON POST per call,
// throttled by an optional token bucket and retried with backoff.
type httpClient struct {
	client  *http.Client
	limiter *rate.Limiter
	retry   RetryConfig
	headers map[string]string
}

func newHTTPClient(timeout time.Duration, requestsPerSecond float64, maxRetries int) *httpClient {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	retry := DefaultRetryConfig()
	if maxRetries > 0 {
		retry.MaxRetries = maxRetries
	}
	c := &httpClient{
		client:  &http.Client{Timeout: timeout},
		retry:   retry,
		headers: map[string]string{"Content-Type": "application/json"},
	}
	if requestsPerSecond > 0 {
		burst := int(requestsPerSecond)
		if burst < 1 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(rate.Limit(requestsPerSecond), burst)
	}
	return c
}

// postJSON sends in as JSON to url and decodes the response into out.
func (c *httpClient) postJSON(ctx context.Context, url string, in, out interface{}) error {
	body, err := json.Marshal(in)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}
	_, err = retryWithBackoff(ctx, c.retry, func() (struct{}, error) {
		return struct{}{}, c.do(ctx, http.MethodPost, url, body, out)
	})
	return err
}

func (c *httpClient) do(ctx context.Context, method, url string, body []byte, out interface{}) error {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return err
		}
	}
	var reader io.Reader = http.NoBody
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return &permanentError{fmt.Errorf("create request: %w", err)}
	}
	for k, v := range c.headers {
		req.Header.Set(k, v)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("send request: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		err := fmt.Errorf("status %d: %s", resp.StatusCode, bytes.TrimSpace(msg))
		if resp.StatusCode >= 400 && resp.StatusCode < 500 && resp.StatusCode != http.StatusTooManyRequests {
			return &permanentError{err}
		}
		return err
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
