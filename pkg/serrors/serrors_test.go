package serrors_test

import (
	"bucketscan/pkg/serrors"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
)

type customError struct{ msg string }

func (e customError) Error() string { return e.msg }

func TestProbeKindsDistinct(t *testing.T) {
	seen := map[string]bool{}
	for i, k := range serrors.ProbeKinds {
		require.NotNil(t, k, "kind at index %d is nil", i)
		require.False(t, seen[k.Error()], "kind at index %d is duplicate: %v", i, k)
		seen[k.Error()] = true
	}
}

func TestRetryable(t *testing.T) {
	for _, k := range []serrors.Kind{
		serrors.ErrConnect,
		serrors.ErrTimeout,
		serrors.ErrSocket,
		serrors.ErrTooManyRedirects,
		serrors.ErrServerDisconnected,
	} {
		require.True(t, k.Retryable(), "%s should be retryable", k)
	}

	require.False(t, serrors.ErrGeneric.Retryable())
	require.False(t, serrors.ErrNotFound.Retryable())
	require.False(t, serrors.ErrBadRequest.Retryable())
}

func TestErrorFormatting(t *testing.T) {
	base := errors.New("connection refused")

	e1 := serrors.With(serrors.ErrNotFound, "file %q not found", "domains.txt")
	require.Equal(t, `file "domains.txt" not found`, e1.Error())

	e2 := serrors.Wrap(serrors.ErrConnect, base, "dial")
	require.Equal(t, "dial: connection refused", e2.Error())

	e3 := serrors.Wrap(serrors.ErrTimeout, base, "")
	require.Equal(t, "connection refused", e3.Error())

	e4 := serrors.With(serrors.ErrGeneric, "")
	require.Equal(t, "Error", e4.Error())
}

func TestIsMatchesKindAndWrapped(t *testing.T) {
	base := customError{"root cause"}
	e := serrors.Wrap(serrors.ErrSocket, base, "reading")

	require.ErrorIs(t, e, serrors.ErrSocket)
	require.ErrorIs(t, e, base)
	require.NotErrorIs(t, e, serrors.ErrTimeout)
}

func TestAsMatchesKindAndWrapped(t *testing.T) {
	base := &customError{"root cause"}
	e := fmt.Errorf("outer: %w", serrors.Wrap(serrors.ErrServerDisconnected, base, "reading"))

	var k serrors.Kind
	require.ErrorAs(t, e, &k)
	require.Equal(t, serrors.ErrServerDisconnected, k)

	var ce *customError
	require.ErrorAs(t, e, &ce)
	require.Equal(t, base, ce)
}

func TestKindOf(t *testing.T) {
	require.Equal(t, serrors.ErrGeneric, serrors.KindOf(nil))
	require.Equal(t, serrors.ErrGeneric, serrors.KindOf(errors.New("plain")))
	require.Equal(t, serrors.ErrTooManyRedirects,
		serrors.KindOf(fmt.Errorf("get: %w", serrors.Wrap(serrors.ErrTooManyRedirects, nil, "stopped"))))
}

func TestAccessors(t *testing.T) {
	base := errors.New("boom")
	e := serrors.Wrap(serrors.ErrTimeout, base, "deadline")
	require.Equal(t, serrors.ErrTimeout, e.Kind())
	require.Equal(t, base, e.Cause())
}

// The kind names end up verbatim in the errors output and are parsed by
// downstream tooling.
func TestProbeKindNames(t *testing.T) {
	require.Equal(t, "ClientConnectorError", serrors.ErrConnect.Error())
	require.Equal(t, "TimeoutError", serrors.ErrTimeout.Error())
	require.Equal(t, "ClientOSError", serrors.ErrSocket.Error())
	require.Equal(t, "TooManyRedirects", serrors.ErrTooManyRedirects.Error())
	require.Equal(t, "ServerDisconnectedError", serrors.ErrServerDisconnected.Error())
	require.Equal(t, "Error", serrors.ErrGeneric.Error())
}
