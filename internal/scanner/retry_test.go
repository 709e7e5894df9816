package scanner_test

import (
	"bucketscan/internal/scanner"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestDefaultRetryPolicy(t *testing.T) {
	want := []time.Duration{0, 100 * time.Millisecond, 200 * time.Millisecond, 0, 100 * time.Millisecond, 200 * time.Millisecond, 0}
	for i, delay := range want {
		giveUp, got := scanner.DefaultRetryPolicy(i + 1)
		require.False(t, giveUp, "failure %d", i+1)
		require.Equal(t, delay, got, "failure %d", i+1)
	}

	for _, failures := range []int{10, 100, 1_000_000} {
		giveUp, _ := scanner.DefaultRetryPolicy(failures)
		require.False(t, giveUp)
	}
}

func TestDefaultRetryPolicy_ClampsBelowOne(t *testing.T) {
	giveUp, delay := scanner.DefaultRetryPolicy(0)
	require.False(t, giveUp)
	require.Zero(t, delay)

	giveUp, delay = scanner.DefaultRetryPolicy(-5)
	require.False(t, giveUp)
	require.Zero(t, delay)
}

func TestCappedRetryPolicy(t *testing.T) {
	p := scanner.CappedRetryPolicy(3, scanner.DefaultRetryPolicy)

	giveUp, delay := p(1)
	require.False(t, giveUp)
	require.Zero(t, delay)

	giveUp, delay = p(2)
	require.False(t, giveUp)
	require.Equal(t, 100*time.Millisecond, delay)

	giveUp, _ = p(3)
	require.True(t, giveUp)

	giveUp, _ = p(4)
	require.True(t, giveUp)
}

func TestCappedRetryPolicy_NoCap(t *testing.T) {
	p := scanner.CappedRetryPolicy(0, nil)
	for failures := 1; failures < 50; failures++ {
		giveUp, delay := p(failures)
		_, want := scanner.DefaultRetryPolicy(failures)
		require.False(t, giveUp)
		require.Equal(t, want, delay)
	}
}
