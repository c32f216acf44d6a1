package service

import (
	"context"
	"errors"
	"testing"
	"time"

	auditdomain "github.com/smallbiznis/settlement/internal/audit/domain"
	settlementdomain "github.com/smallbiznis/settlement/internal/settlement/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func generateOne(t *testing.T, env *testEnv) string {
	t.Helper()
	env.seedOrder(t, "o-1", time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC), sellerLine("oi-1", "p1", "10000"))
	result, err := NewEngine(env.params).GenerateSettlements(context.Background(), sellerConfig())
	require.NoError(t, err)
	require.Len(t, result.Settlements, 1)
	return result.Settlements[0].ID.String()
}

func TestLifecycleHappyPath(t *testing.T) {
	env := newTestEnv(t)
	id := generateOne(t, env)
	lc := NewLifecycle(env.params)
	ctx := context.Background()

	confirmed, err := lc.Confirm(ctx, id, "ops-1")
	require.NoError(t, err)
	assert.Equal(t, settlementdomain.StatusConfirmed, confirmed.Status)
	require.NotNil(t, confirmed.ConfirmedBy)
	assert.Equal(t, "ops-1", *confirmed.ConfirmedBy)

	remitted, err := lc.MarkRemitted(ctx, id, "TRX-001", "ops-1")
	require.NoError(t, err)
	assert.Equal(t, settlementdomain.StatusRemitted, remitted.Status)
	assert.Equal(t, "TRX-001", *remitted.RemittanceReference)

	completed, err := lc.Complete(ctx, id, "ops-1")
	require.NoError(t, err)
	assert.Equal(t, settlementdomain.StatusCompleted, completed.Status)
	assert.NotNil(t, completed.CompletedAt)

	stored, items, err := lc.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, settlementdomain.StatusCompleted, stored.Status)
	assert.Len(t, items, 1)

	var n int64
	require.NoError(t, env.db.Model(&auditdomain.AuditLog{}).Where("target_type = ?", "settlement").Count(&n).Error)
	assert.EqualValues(t, 3, n)
}

func TestLifecycleCompleteRequiresRemitted(t *testing.T) {
	env := newTestEnv(t)
	id := generateOne(t, env)
	lc := NewLifecycle(env.params)

	_, err := lc.Complete(context.Background(), id, "ops-1")
	require.Error(t, err)

	var terr *settlementdomain.TransitionError
	require.True(t, errors.As(err, &terr))
	assert.Equal(t, settlementdomain.StatusPending, terr.From)
	assert.Equal(t, settlementdomain.StatusCompleted, terr.To)

	stored, _, err := lc.Get(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, settlementdomain.StatusPending, stored.Status)
}

func TestLifecycleCompleteFromConfirmedIsRejected(t *testing.T) {
	env := newTestEnv(t)
	id := generateOne(t, env)
	lc := NewLifecycle(env.params)
	ctx := context.Background()

	_, err := lc.Confirm(ctx, id, "ops-1")
	require.NoError(t, err)

	_, err = lc.Complete(ctx, id, "ops-1")
	require.Error(t, err)
	assert.True(t, errors.Is(err, settlementdomain.ErrInvalidTransition))

	var terr *settlementdomain.TransitionError
	require.True(t, errors.As(err, &terr))
	assert.Equal(t, settlementdomain.StatusConfirmed, terr.From)
	assert.Equal(t, settlementdomain.StatusCompleted, terr.To)

	stored, _, err := lc.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, settlementdomain.StatusConfirmed, stored.Status)
	assert.Nil(t, stored.CompletedAt)
}

func TestLifecycleCancelIsTerminal(t *testing.T) {
	env := newTestEnv(t)
	id := generateOne(t, env)
	lc := NewLifecycle(env.params)
	ctx := context.Background()

	cancelled, err := lc.Cancel(ctx, id, "ops-1", "duplicate payout")
	require.NoError(t, err)
	assert.Equal(t, "duplicate payout", *cancelled.CancelReason)

	_, err = lc.Confirm(ctx, id, "ops-1")
	assert.True(t, errors.Is(err, settlementdomain.ErrInvalidTransition))
}

func TestLifecycleRejectsBadInput(t *testing.T) {
	env := newTestEnv(t)
	id := generateOne(t, env)
	lc := NewLifecycle(env.params)
	ctx := context.Background()

	_, err := lc.Confirm(ctx, "not-a-number", "ops")
	assert.ErrorIs(t, err, settlementdomain.ErrInvalidID)

	_, err = lc.Confirm(ctx, "12345", "ops")
	assert.ErrorIs(t, err, settlementdomain.ErrNotFound)

	_, err = lc.Confirm(ctx, id, "ops")
	require.NoError(t, err)
	_, err = lc.MarkRemitted(ctx, id, "  ", "ops")
	assert.ErrorIs(t, err, settlementdomain.ErrInvalidConfiguration)
}
