package database

import (
	"context"
	"errors"
	"io"
	"sync/atomic"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func quietLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

// flakyPing fails the first n calls.
func flakyPing(n int32, calls *atomic.Int32) func(context.Context) error {
	return func(context.Context) error {
		if calls.Add(1) <= n {
			return errors.New("server selection timeout")
		}
		return nil
	}
}

func TestWaitReady_KeepsRetryingUntilReachable(t *testing.T) {
	var pings atomic.Int32
	db := &MongoDB{ping: flakyPing(8, &pings), logger: quietLogger()}

	setups := 0
	err := db.WaitReady(context.Background(), time.Millisecond, 4*time.Millisecond, func(context.Context) error {
		setups++
		return nil
	})

	require.NoError(t, err)
	assert.True(t, db.Ready())
	assert.Equal(t, int32(9), pings.Load())
	assert.Equal(t, 1, setups)
}

func TestWaitReady_RetriesFailedSetup(t *testing.T) {
	var pings atomic.Int32
	db := &MongoDB{ping: flakyPing(0, &pings), logger: quietLogger()}

	setups := 0
	err := db.WaitReady(context.Background(), time.Millisecond, time.Millisecond, func(context.Context) error {
		setups++
		if setups < 3 {
			return errors.New("index build interrupted")
		}
		return nil
	})

	require.NoError(t, err)
	assert.True(t, db.Ready())
	assert.Equal(t, 3, setups)
}

func TestWaitReady_StopsWhenCancelled(t *testing.T) {
	db := &MongoDB{
		ping:   func(context.Context) error { return errors.New("connection refused") },
		logger: quietLogger(),
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()

	err := db.WaitReady(ctx, time.Millisecond, 5*time.Millisecond, nil)

	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.False(t, db.Ready())
}
