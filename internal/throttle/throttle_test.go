package throttle

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestEveryFirstCallDoesNotBlock(t *testing.T) {
	l := Every(time.Hour)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	start := time.Now()
	require.NoError(t, l.Wait(ctx))
	require.Less(t, time.Since(start), 500*time.Millisecond)
}

func TestEverySpacesCalls(t *testing.T) {
	l := Every(50 * time.Millisecond)
	ctx := context.Background()

	start := time.Now()
	for i := 0; i < 3; i++ {
		require.NoError(t, l.Wait(ctx))
	}
	// three calls, two intervals
	require.GreaterOrEqual(t, time.Since(start), 90*time.Millisecond)
}

func TestEveryZeroIsUnlimited(t *testing.T) {
	l := Every(0)
	ctx := context.Background()

	start := time.Now()
	for i := 0; i < 100; i++ {
		require.NoError(t, l.Wait(ctx))
	}
	require.Less(t, time.Since(start), 500*time.Millisecond)
}

func TestEveryHonoursCancellation(t *testing.T) {
	l := Every(time.Hour)
	require.NoError(t, l.Wait(context.Background()))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	require.Error(t, l.Wait(ctx))
}
