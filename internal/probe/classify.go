package probe

import (
	"context"
	"errors"
	"net"
	"net/url"
	"syscall"
	"time"

	"github.com/hamed0406/apimonitor/internal/domain"
)

// connErrnos are socket errors meaning the connection could not be
// established or was torn down by the peer.
var connErrnos = []error{
	syscall.ECONNREFUSED,
	syscall.ECONNRESET,
	syscall.ECONNABORTED,
	syscall.EHOSTUNREACH,
	syscall.ENETUNREACH,
	syscall.EHOSTDOWN,
}

// Kind maps a request error to a failure status. Order matters: a deadline
// wins over everything, so a dial that runs out of time is a Timeout.
func Kind(err error) domain.Status {
	if errors.Is(err, context.DeadlineExceeded) {
		return domain.StatusTimeout
	}

	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return domain.StatusConnectionError
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return domain.StatusTimeout
	}

	for _, errno := range connErrnos {
		if errors.Is(err, errno) {
			return domain.StatusConnectionError
		}
	}

	var opErr *net.OpError
	if errors.As(err, &opErr) && opErr.Op == "dial" {
		return domain.StatusConnectionError
	}

	return domain.StatusUnexpectedError
}

// Classify turns a request error into the matching Outcome.
func Classify(err error, timeout time.Duration) domain.Outcome {
	switch Kind(err) {
	case domain.StatusTimeout:
		return domain.TimedOut(timeout)
	case domain.StatusConnectionError:
		return domain.ConnectionFailed()
	default:
		return domain.Unexpected(shortError(err))
	}
}

// shortError drops the "Get \"url\":" prefix net/http puts on errors.
func shortError(err error) string {
	if err == nil {
		return ""
	}
	var uerr *url.Error
	if errors.As(err, &uerr) && uerr.Err != nil {
		return uerr.Err.Error()
	}
	return err.Error()
}
