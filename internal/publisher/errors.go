package publisher

import (
	"context"
	"errors"
	"net"
	"strings"
	"syscall"
)

var (
	// ErrConnect wraps every failure to establish the broker session.
	ErrConnect = errors.New("broker connect failed")
	// ErrUnreachable marks a broker that could not be reached on the network.
	ErrUnreachable = errors.New("broker unreachable")
	// ErrAuthentication marks a broker that rejected the credentials.
	ErrAuthentication = errors.New("broker rejected credentials")
	// ErrConnectTimeout marks a connect attempt that ran out of time.
	ErrConnectTimeout = errors.New("broker connect timed out")

	// ErrPublish wraps every failure while the session is open.
	ErrPublish = errors.New("publish failed")
	// ErrAckTimeout marks a publish the broker never acknowledged in time.
	ErrAckTimeout = errors.New("broker acknowledgment timed out")
)

// FailureReason classifies a connect failure.
type FailureReason string

const (
	ReasonNone           FailureReason = ""
	ReasonUnreachable    FailureReason = "unreachable"
	ReasonAuthentication FailureReason = "authentication"
	ReasonTimeout        FailureReason = "timeout"
	ReasonOther          FailureReason = "other"
)

var unreachableHints = []string{
	"connection refused",
	"no route to host",
	"network is unreachable",
	"no such host",
	"host is down",
}

// Classify maps a connect error to a FailureReason. Classification is for
// diagnostics only.
func Classify(err error) FailureReason {
	if err == nil {
		return ReasonNone
	}
	switch {
	case errors.Is(err, ErrAuthentication):
		return ReasonAuthentication
	case errors.Is(err, ErrUnreachable):
		return ReasonUnreachable
	case errors.Is(err, ErrConnectTimeout), errors.Is(err, context.DeadlineExceeded):
		return ReasonTimeout
	}

	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return ReasonUnreachable
	}
	if errors.Is(err, syscall.ECONNREFUSED) ||
		errors.Is(err, syscall.EHOSTUNREACH) ||
		errors.Is(err, syscall.ENETUNREACH) ||
		errors.Is(err, syscall.EHOSTDOWN) {
		return ReasonUnreachable
	}

	var opErr *net.OpError
	if errors.As(err, &opErr) && opErr.Op == "dial" {
		return ReasonUnreachable
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return ReasonTimeout
	}

	msg := strings.ToLower(err.Error())
	for _, hint := range unreachableHints {
		if strings.Contains(msg, hint) {
			return ReasonUnreachable
		}
	}
	if strings.Contains(msg, "i/o timeout") {
		return ReasonTimeout
	}
	return ReasonOther
}

func connectMessage(reason FailureReason) string {
	switch reason {
	case ReasonUnreachable:
		return "broker unreachable"
	case ReasonAuthentication:
		return "broker rejected credentials"
	case ReasonTimeout:
		return "broker connect timed out"
	default:
		return "broker connection failed"
	}
}

func connectHint(reason FailureReason) string {
	switch reason {
	case ReasonUnreachable:
		return "check broker.host, broker.port and that the broker is running"
	case ReasonAuthentication:
		return "check broker.username and broker.password"
	case ReasonTimeout:
		return "check network latency or raise broker.connect_timeout"
	default:
		return "check broker logs for details"
	}
}
