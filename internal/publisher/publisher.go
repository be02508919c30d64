package publisher

import (
	"context"
	"time"
)

// Message is a single publish request.
type Message struct {
	Topic    string
	Payload  []byte
	Retained bool
	QoS      byte
}

// Dialer opens one broker session.
type Dialer interface {
	Dial(ctx context.Context) (Conn, error)
}

// Conn is an open broker session. Publish returns once the broker has
// acknowledged the message at the requested QoS.
type Conn interface {
	Publish(ctx context.Context, msg Message) error
	Close()
}

// ConnectionOutcome records how the connect step ended.
type ConnectionOutcome struct {
	Connected bool
	Cause     error
	Reason    FailureReason
}

// PublishOutcome records how the publish step ended.
type PublishOutcome struct {
	Delivered bool
	Cause     error
	// Attempts counts publish calls issued, including the failed one.
	Attempts int
	Duration time.Duration
}

// Report is the immutable result of one session.
type Report struct {
	RunID      string
	Started    time.Time
	Finished   time.Time
	Connection ConnectionOutcome
	// Publish is nil when the session never connected.
	Publish *PublishOutcome
}

// Succeeded reports whether every message was delivered.
func (r Report) Succeeded() bool {
	return r.Connection.Connected && r.Publish != nil && r.Publish.Delivered
}

// Err returns the failure that ended the session, or nil.
func (r Report) Err() error {
	if !r.Connection.Connected {
		return r.Connection.Cause
	}
	if r.Publish != nil && !r.Publish.Delivered {
		return r.Publish.Cause
	}
	return nil
}

// FailedStage names the step that failed: "connect", "publish", or "".
func (r Report) FailedStage() string {
	switch {
	case !r.Connection.Connected:
		return "connect"
	case r.Publish == nil || !r.Publish.Delivered:
		return "publish"
	default:
		return ""
	}
}
