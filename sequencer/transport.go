package sequencer

import (
	"fmt"

	"github.com/moffa90/go-hciseq/hci"
)

// Status is the outcome reported by a transport or by Run.
type Status int

const (
	// StatusSuccess indicates the operation completed
	StatusSuccess Status = iota

	// StatusPending indicates the command was accepted and will complete asynchronously
	StatusPending

	// StatusFailed indicates the command failed
	StatusFailed

	// StatusInvalidArgument indicates a rejected submission
	StatusInvalidArgument

	// StatusInternalError indicates an unexpected condition in the transport or sequencer
	StatusInternalError
)

func (s Status) String() string {
	switch s {
	case StatusSuccess:
		return "success"
	case StatusPending:
		return "pending"
	case StatusFailed:
		return "failed"
	case StatusInvalidArgument:
		return "invalid argument"
	case StatusInternalError:
		return "internal error"
	default:
		return fmt.Sprintf("status(%d)", int(s))
	}
}

// ClientHandle identifies a client registered with a ClientTransport.
type ClientHandle uint32

// ClientTransport is the registered-client transport used for the BT core.
//
// Every SendCommand that returns StatusPending must be followed by exactly one
// call to the registered handler carrying the userData passed to SendCommand.
// A send that fails must report it through its return value, not the handler.
type ClientTransport interface {
	RegisterClient(handler EventHandler) (ClientHandle, Status)
	DeregisterClient(handle ClientHandle) Status
	SendCommand(handle ClientHandle, opcode hci.Opcode, params []byte, completionEvent hci.EventCode, userData any) Status
}

// VACTransport is the one-shot transport used for the FM core.
// The handler is supplied with every command; the completion contract is the
// same as for ClientTransport.
type VACTransport interface {
	SendVACCommand(params []byte, handler EventHandler, userData any) Status
}
