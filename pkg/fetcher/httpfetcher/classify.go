package httpfetcher

import (
	"bucketscan/pkg/serrors"
	"context"
	"errors"
	"io"
	"net"
	"syscall"
)

// Classify maps a transport error to exactly one probe kind. The order of the
// checks matters: a dial timeout is a timeout, a lookup failure is a connect
// failure and an EOF is a disconnect even though all of them are wrapped in
// *net.OpError or *url.Error. Anything unrecognised is ErrGeneric.
func Classify(err error) serrors.Kind {
	var (
		kind   serrors.Kind
		netErr net.Error
		dnsErr *net.DNSError
		opErr  *net.OpError
		errno  syscall.Errno
	)

	switch {
	case err == nil:
		return serrors.ErrGeneric
	case errors.As(err, &kind) && kind != nil:
		// already classified, e.g. by CheckRedirect
		return kind
	case errors.Is(err, context.DeadlineExceeded),
		errors.As(err, &netErr) && netErr.Timeout():
		return serrors.ErrTimeout
	case errors.As(err, &dnsErr):
		return serrors.ErrConnect
	case errors.As(err, &opErr) && opErr.Op == "dial":
		return serrors.ErrConnect
	case errors.Is(err, io.EOF), errors.Is(err, io.ErrUnexpectedEOF):
		return serrors.ErrServerDisconnected
	case errors.As(err, &opErr), errors.As(err, &errno):
		return serrors.ErrSocket
	default:
		return serrors.ErrGeneric
	}
}
