package httpclient

import (
	"context"
	"errors"
	"io"
	"net"
	"net/http"
	"syscall"
	"time"
)

// New returns a client for identity-provider calls. The transport starts
// from http.DefaultTransport so proxy settings from the environment apply.
func New(timeout time.Duration) *http.Client {
	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.MaxIdleConnsPerHost = 4
	transport.IdleConnTimeout = 60 * time.Second
	transport.TLSHandshakeTimeout = 5 * time.Second
	transport.ResponseHeaderTimeout = timeout

	return &http.Client{
		Timeout:   timeout,
		Transport: transport,
	}
}

// Policy bounds a Retry loop.
type Policy struct {
	Attempts  int
	BaseDelay time.Duration
	MaxDelay  time.Duration
	// Retriable decides whether an error is worth another attempt. Nil
	// retries every error.
	Retriable func(error) bool
}

// Retry calls fn until it succeeds, returns an error the policy does not
// retry, or runs out of attempts. Delays double up to MaxDelay.
func Retry(ctx context.Context, policy Policy, fn func() error) error {
	delay := policy.BaseDelay
	maxDelay := policy.MaxDelay
	if maxDelay <= 0 {
		maxDelay = 2 * time.Second
	}

	var err error
	for attempt := 1; ; attempt++ {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}

		if err = fn(); err == nil {
			return nil
		}
		if attempt >= policy.Attempts {
			return err
		}
		if policy.Retriable != nil && !policy.Retriable(err) {
			return err
		}

		timer := time.NewTimer(delay)
		select {
		case <-timer.C:
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		}

		delay *= 2
		if delay > maxDelay {
			delay = maxDelay
		}
	}
}

// IsRetriable reports transient network failures: timeouts, refused or
// reset connections and truncated responses.
func IsRetriable(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}
	return errors.Is(err, syscall.ECONNREFUSED) ||
		errors.Is(err, syscall.ECONNRESET) ||
		errors.Is(err, io.ErrUnexpectedEOF)
}
