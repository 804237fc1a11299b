package chat

import (
	"errors"
	"fmt"
)

// ErrSendInFlight is returned when a second send is attempted against a
// conversation that already has a streaming session open. Sends are never
// interleaved against one transcript.
var ErrSendInFlight = errors.New("a send is already in flight for this conversation")

// TransportError wraps a network failure or a non-success HTTP status while
// opening or reading the upstream stream. It reaches the orchestrator as the
// Failed outcome's cause; partial transcript content is preserved.
type TransportError struct {
	Status int // HTTP status, 0 when the failure happened below HTTP
	Err    error
}

func (e *TransportError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("upstream returned status %d: %v", e.Status, e.Err)
	}
	return fmt.Sprintf("upstream transport error: %v", e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}
