package rpcretry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDo_SucceedsFirstTry(t *testing.T) {
	calls := 0
	err := Do(context.Background(), time.Millisecond, time.Millisecond, 3, func(ctx context.Context) error {
		calls++
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 1, calls)
}

func TestDo_RetriesUntilBudgetExhausted(t *testing.T) {
	calls := 0
	wantErr := errors.New("boom")
	err := Do(context.Background(), time.Millisecond, 2*time.Millisecond, 3, func(ctx context.Context) error {
		calls++
		return wantErr
	})
	assert.ErrorIs(t, err, wantErr)
	assert.Equal(t, 3, calls)
}

func TestDo_UnlimitedBudgetStopsOnContextDone(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	calls := 0
	err := Do(ctx, time.Millisecond, time.Second, 0, func(ctx context.Context) error {
		calls++
		return errors.New("still failing")
	})
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Greater(t, calls, 1)
}

func TestDo_SucceedsPartwayThrough(t *testing.T) {
	calls := 0
	err := Do(context.Background(), time.Millisecond, time.Millisecond, 5, func(ctx context.Context) error {
		calls++
		if calls < 3 {
			return errors.New("transient")
		}
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 3, calls)
}
