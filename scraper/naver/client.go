package naver

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/valyala/fasthttp"

	"naver-trends/utils"
)

// StatusError is returned when an API answers with a non-200 status.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status %d: %s", e.Code, e.Body)
}

// retryable reports whether err is worth another attempt: transport
// failures, rate limiting and server errors.
func retryable(err error) bool {
	var se *StatusError
	if errors.As(err, &se) {
		return se.Code == fasthttp.StatusTooManyRequests || se.Code >= 500
	}
	return true
}

// apiClient sends throttled, retried requests with a shared fasthttp client.
type apiClient struct {
	client   *fasthttp.Client
	timeout  time.Duration
	retry    *utils.RetryConfig
	throttle *utils.Throttle
}

// do builds a fresh request with prepare for each attempt and returns the
// response body of the first 200 answer.
func (c *apiClient) do(ctx context.Context, name string, prepare func(req *fasthttp.Request)) ([]byte, error) {
	var body []byte

	err := c.retry.Do(ctx, name, func() error {
		req := fasthttp.AcquireRequest()
		resp := fasthttp.AcquireResponse()
		defer fasthttp.ReleaseRequest(req)
		defer fasthttp.ReleaseResponse(resp)

		prepare(req)
		c.throttle.Wait()

		if err := c.client.DoTimeout(req, resp, c.timeout); err != nil {
			return fmt.Errorf("request failed: %w", err)
		}
		if resp.StatusCode() != fasthttp.StatusOK {
			return &StatusError{Code: resp.StatusCode(), Body: truncate(string(resp.Body()), 200)}
		}

		body = append(body[:0], resp.Body()...)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return body, nil
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max-3] + "..."
}
