package runlock

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNilLockerAcquireAlwaysSucceeds(t *testing.T) {
	var l *Locker
	assert.False(t, l.Enabled())

	release, ok, err := l.Acquire(context.Background(), "k", time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)
	require.NoError(t, release(context.Background()))

	_, _, err = l.TryLock(context.Background(), "k", time.Minute)
	assert.True(t, errors.Is(err, ErrLockNotConfigured))
	assert.NoError(t, l.Release(context.Background(), "k", "token"))
}

func TestNewLockerWithoutClient(t *testing.T) {
	assert.Nil(t, NewLocker(nil))
}

func TestKeys(t *testing.T) {
	start := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2026, 3, 31, 23, 59, 59, 0, time.UTC)

	assert.Equal(t, "settlement:run:engine:20260301-20260331", EngineRunKey(start, end))
	assert.Equal(t, "settlement:run:automation:2026-03", AutomationRunKey(2026, 3))
	assert.Equal(t, "settlement:run:cascade:2026-00", CascadeRunKey(2026, 0))
}
