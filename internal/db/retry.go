package db

import (
	"errors"
	"io"
	"net"
	"strings"
	"syscall"
	"time"

	"excos_backend/internal/logger"
)

const (
	maxAttempts = 3
	retryDelay  = 1 * time.Second
)

// WithRetry re-runs fn on connection-class errors up to 3 attempts with a
// fixed delay. The driver re-establishes connections from the pool on the
// next use, so a plain re-run is enough. Any other error propagates
// immediately.
func WithRetry(fn func() error) error {
	var err error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		err = fn()
		if err == nil {
			return nil
		}
		if !IsConnError(err) {
			return err
		}
		if attempt < maxAttempts {
			logger.Warn("database connection error, retrying",
				"attempt", attempt,
				"error", err.Error(),
			)
			time.Sleep(retryDelay)
		}
	}
	return err
}

// IsConnError reports whether err looks like a connection failure (reset,
// timeout, refused, closed) rather than a query error.
func IsConnError(err error) bool {
	if err == nil {
		return false
	}

	if errors.Is(err, syscall.ECONNRESET) ||
		errors.Is(err, syscall.ECONNREFUSED) ||
		errors.Is(err, syscall.EPIPE) ||
		errors.Is(err, io.EOF) {
		return true
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}

	// Driver errors that do not wrap a syscall error
	msg := strings.ToLower(err.Error())
	for _, fragment := range []string{
		"connection reset",
		"connection refused",
		"connection timed out",
		"broken pipe",
		"unexpected eof",
		"conn closed",
		"bad connection",
	} {
		if strings.Contains(msg, fragment) {
			return true
		}
	}

	return false
}
