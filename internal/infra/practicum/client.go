// Package practicum talks to the homework status endpoint.
package practicum

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"homework_status_bot/internal/domain/homework"

	"github.com/sirupsen/logrus"
)

const maxResponseBodySize = 1 << 20 // 1MB

// Client fetches homework statuses. Every call is a single request bounded by
// the configured timeout; retries are left to the poll loop.
type Client struct {
	httpClient *http.Client
	endpoint   string
	token      string
	timeout    time.Duration
	logger     *logrus.Entry
}

func NewClient(httpClient *http.Client, endpoint, token string, timeout time.Duration, logger *logrus.Entry) *Client {
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	return &Client{
		httpClient: httpClient,
		endpoint:   endpoint,
		token:      token,
		timeout:    timeout,
		logger:     logger,
	}
}

// FetchStatuses requests statuses updated since the given moment and returns
// the raw body. It fails with *homework.TransportError when no response was
// received and with *homework.RemoteError on a non-200 status.
func (c *Client) FetchStatuses(ctx context.Context, since time.Time) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	u, err := url.Parse(c.endpoint)
	if err != nil {
		return nil, fmt.Errorf("invalid endpoint %q: %w", c.endpoint, err)
	}
	q := u.Query()
	q.Set("from_date", strconv.FormatInt(since.Unix(), 10))
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "OAuth "+c.token)

	logCtx := c.logger.WithField("from_date", since.Unix())
	logCtx.Debug("Requesting homework statuses")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		logCtx.WithError(err).Warn("Status request failed")
		return nil, &homework.TransportError{Err: err}
	}
	defer func() { _ = resp.Body.Close() }()

	logCtx = logCtx.WithFields(logrus.Fields{
		"status_code": resp.StatusCode,
		"latency":     time.Since(start).String(),
	})

	if resp.StatusCode != http.StatusOK {
		logCtx.Warn("Endpoint returned unexpected status code")
		return nil, &homework.RemoteError{StatusCode: resp.StatusCode}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBodySize))
	if err != nil {
		logCtx.WithError(err).Warn("Failed to read status response body")
		return nil, &homework.TransportError{Err: err}
	}
	logCtx.Debug("Homework statuses received")
	return body, nil
}
