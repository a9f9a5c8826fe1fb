package hci

import (
	"errors"
	"fmt"
)

// StatusError represents a non-success status returned by the controller.
type StatusError struct {
	// Operation is the command that failed
	Operation string

	// Opcode is the opcode of the failed command
	Opcode Opcode

	// Status is the controller error code
	Status Status
}

func (e *StatusError) Error() string {
	op := e.Operation
	if op == "" {
		op = "command " + e.Opcode.String()
	}
	return fmt.Sprintf("%s failed: %s (0x%02X)", op, getStatusName(e.Status), uint8(e.Status))
}

// IsStatusError returns true if err is or wraps a StatusError.
func IsStatusError(err error) bool {
	var se *StatusError
	return errors.As(err, &se)
}

// getStatusName returns a human-readable name for a status code.
func getStatusName(code Status) string {
	switch code {
	case StatusSuccess:
		return "success"
	case StatusUnknownCommand:
		return "unknown command"
	case StatusUnknownConnectionID:
		return "unknown connection identifier"
	case StatusHardwareFailure:
		return "hardware failure"
	case StatusMemoryCapacityExceeded:
		return "memory capacity exceeded"
	case StatusConnectionTimeout:
		return "connection timeout"
	case StatusCommandDisallowed:
		return "command disallowed"
	case StatusUnsupportedFeature:
		return "unsupported feature or parameter value"
	case StatusInvalidParameters:
		return "invalid command parameters"
	case StatusUnspecifiedError:
		return "unspecified error"
	case StatusControllerBusy:
		return "controller busy"
	default:
		return fmt.Sprintf("unknown status code 0x%02X", uint8(code))
	}
}
