// Package mask talks to the local bodypix-style segmentation service and
// turns its raw responses into per-pixel blend weights.
//
// The service owns the wire contract: it accepts a JPEG-encoded frame via
// POST and answers with one byte per pixel, row-major, matching the
// frame's dimensions.
package mask

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"math/rand"
	"net/http"
	"time"

	"gocv.io/x/gocv"

	"github.com/fakecam/go-fakecam/internal/httpc"
	"github.com/fakecam/go-fakecam/internal/log"
)

// DefaultBaseURL is where the companion segmentation service listens.
const DefaultBaseURL = "http://localhost:13165"

// RetryPolicy controls how Client.GetWithRetry behaves between failed
// attempts. The zero value retries forever with no delay, which is the
// historical "busy-wait until the service warms up" behavior.
type RetryPolicy struct {
	// Interval is the pause between attempts.
	Interval time.Duration

	// Jitter, if non-zero, adds a uniformly random duration in
	// [0, Jitter) to each pause so restarting daemons don't sync up.
	Jitter time.Duration

	// MaxAttempts bounds the number of attempts. Zero means unlimited.
	MaxAttempts int
}

// DefaultRetryPolicy retries forever with a small pause so a warming-up
// service doesn't cost a full core.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{Interval: 50 * time.Millisecond}
}

// Config holds the mask client configuration.
type Config struct {
	// BaseURL is the service endpoint. Defaults to DefaultBaseURL.
	BaseURL string

	// HTTPClient overrides the shared httpc client. The per-request
	// timeout bounds one attempt, never the retry loop around it.
	HTTPClient *http.Client

	// Retry is the policy applied by GetWithRetry.
	Retry RetryPolicy
}

// Client fetches segmentation masks over HTTP. It keeps no state
// between calls; it is safe for use from a single goroutine, which is
// all the capture loop needs.
type Client struct {
	baseURL string
	http    *http.Client
	retry   RetryPolicy
}

// NewClient creates a mask client.
func NewClient(cfg Config) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.HTTPClient == nil {
		cfg.HTTPClient = httpc.Client
	}
	return &Client{
		baseURL: cfg.BaseURL,
		http:    cfg.HTTPClient,
		retry:   cfg.Retry,
	}
}

// Get performs a single segmentation request. The frame is JPEG-encoded
// and POSTed as an opaque byte buffer; the response body must contain
// exactly rows*cols bytes, which become a single-channel 8-bit Mat of
// the frame's dimensions. The caller owns the returned Mat.
func (c *Client) Get(ctx context.Context, frame gocv.Mat) (gocv.Mat, error) {
	if frame.Empty() {
		return gocv.Mat{}, ErrEmptyFrame
	}
	rows, cols := frame.Rows(), frame.Cols()

	buf, err := gocv.IMEncode(gocv.JPEGFileExt, frame)
	if err != nil {
		return gocv.Mat{}, fmt.Errorf("mask: encode frame: %w", err)
	}
	defer buf.Close()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL, bytes.NewReader(buf.GetBytes()))
	if err != nil {
		return gocv.Mat{}, fmt.Errorf("mask: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/octet-stream")

	resp, err := c.http.Do(req)
	if err != nil {
		return gocv.Mat{}, fmt.Errorf("mask: request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return gocv.Mat{}, fmt.Errorf("mask: read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		msg := string(body)
		if len(msg) > 200 {
			msg = msg[:200]
		}
		return gocv.Mat{}, &ServiceError{StatusCode: resp.StatusCode, Message: msg}
	}
	if len(body) != rows*cols {
		return gocv.Mat{}, fmt.Errorf("%w: got %d bytes for %dx%d frame",
			ErrBadMaskSize, len(body), cols, rows)
	}

	m, err := gocv.NewMatFromBytes(rows, cols, gocv.MatTypeCV8U, body)
	if err != nil {
		return gocv.Mat{}, fmt.Errorf("mask: wrap response: %w", err)
	}
	return m, nil
}

// GetWithRetry calls Get under the client's retry policy. With the
// default unlimited policy it blocks until the service produces a mask,
// matching the original behavior toward a slowly warming service. The
// context is observed between attempts, so a supervising shutdown never
// deadlocks on it.
func (c *Client) GetWithRetry(ctx context.Context, frame gocv.Mat) (gocv.Mat, error) {
	var lastErr error
	for attempt := 1; ; attempt++ {
		if err := ctx.Err(); err != nil {
			return gocv.Mat{}, err
		}

		m, err := c.Get(ctx, frame)
		if err == nil {
			return m, nil
		}
		lastErr = err
		log.Component("mask").Debug("mask attempt failed",
			"attempt", attempt,
			"error", err,
		)

		if c.retry.MaxAttempts > 0 && attempt >= c.retry.MaxAttempts {
			return gocv.Mat{}, fmt.Errorf("%w after %d attempts: %v",
				ErrRetriesExhausted, attempt, lastErr)
		}

		pause := c.retry.Interval
		if c.retry.Jitter > 0 {
			pause += time.Duration(rand.Int63n(int64(c.retry.Jitter)))
		}
		if pause <= 0 {
			continue
		}
		timer := time.NewTimer(pause)
		select {
		case <-ctx.Done():
			timer.Stop()
			return gocv.Mat{}, ctx.Err()
		case <-timer.C:
		}
	}
}
