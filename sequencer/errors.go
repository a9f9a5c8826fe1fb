package sequencer

import (
	"errors"
	"fmt"

	"github.com/moffa90/go-hciseq/hci"
)

// ErrFatal is matched by errors the sequencer cannot recover from.
// Callers should abort startup or teardown rather than retry.
var ErrFatal = errors.New("fatal transport error")

// ErrInvalidArgument is matched by rejected submissions. No state is changed.
var ErrInvalidArgument = errors.New("invalid argument")

var (
	// ErrTooManyCommands indicates a sequence longer than MaxCommands
	ErrTooManyCommands = fmt.Errorf("%w: too many commands", ErrInvalidArgument)

	// ErrEmptySequence indicates a sequence with no commands
	ErrEmptySequence = fmt.Errorf("%w: empty sequence", ErrInvalidArgument)

	// ErrMissingPrepare indicates a command slot without a PrepareFunc
	ErrMissingPrepare = fmt.Errorf("%w: command slot has no prepare function", ErrInvalidArgument)
)

// TransportError indicates that client registration or deregistration failed.
type TransportError struct {
	Op     string
	Core   hci.Core
	Status Status
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s on %s core: transport returned %s", e.Op, e.Core, e.Status)
}

// Unwrap makes every TransportError match ErrFatal.
func (e *TransportError) Unwrap() error {
	return ErrFatal
}
