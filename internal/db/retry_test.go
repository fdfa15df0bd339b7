package db

import (
	"errors"
	"fmt"
	"io"
	"syscall"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsConnError(t *testing.T) {
	t.Run("syscall errors are connection errors", func(t *testing.T) {
		assert.True(t, IsConnError(syscall.ECONNRESET))
		assert.True(t, IsConnError(syscall.ECONNREFUSED))
		assert.True(t, IsConnError(syscall.EPIPE))
		assert.True(t, IsConnError(io.EOF))
	})

	t.Run("wrapped syscall errors are detected", func(t *testing.T) {
		err := fmt.Errorf("query failed: %w", syscall.ECONNRESET)
		assert.True(t, IsConnError(err))
	})

	t.Run("driver message fragments are detected", func(t *testing.T) {
		assert.True(t, IsConnError(errors.New("read tcp 127.0.0.1:5432: connection reset by peer")))
		assert.True(t, IsConnError(errors.New("driver: bad connection")))
		assert.True(t, IsConnError(errors.New("pq: unexpected EOF on connection")))
	})

	t.Run("query errors are not connection errors", func(t *testing.T) {
		assert.False(t, IsConnError(errors.New("pq: syntax error at or near SELECT")))
		assert.False(t, IsConnError(errors.New("record not found")))
		assert.False(t, IsConnError(nil))
	})
}

func TestWithRetry(t *testing.T) {
	t.Run("succeeds without retry", func(t *testing.T) {
		calls := 0
		err := WithRetry(func() error {
			calls++
			return nil
		})
		assert.NoError(t, err)
		assert.Equal(t, 1, calls)
	})

	t.Run("retries connection errors and succeeds", func(t *testing.T) {
		calls := 0
		err := WithRetry(func() error {
			calls++
			if calls < 2 {
				return syscall.ECONNRESET
			}
			return nil
		})
		assert.NoError(t, err)
		assert.Equal(t, 2, calls)
	})

	t.Run("gives up after three attempts", func(t *testing.T) {
		calls := 0
		err := WithRetry(func() error {
			calls++
			return syscall.ECONNREFUSED
		})
		assert.Error(t, err)
		assert.Equal(t, 3, calls)
	})

	t.Run("non-connection errors propagate immediately", func(t *testing.T) {
		calls := 0
		queryErr := errors.New("pq: column does not exist")
		err := WithRetry(func() error {
			calls++
			return queryErr
		})
		assert.Equal(t, queryErr, err)
		assert.Equal(t, 1, calls)
	})
}
