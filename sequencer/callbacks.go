package sequencer

import "github.com/moffa90/go-hciseq/hci"

// Event is a completion event delivered by a transport when a sent command finishes.
// The same value is forwarded to the step's Callback with UserData replaced by
// the step's own user data.
type Event struct {
	// Status is the transport outcome of the command
	Status Status

	// Code is the event that completed the command
	Code hci.EventCode

	// Opcode is the opcode of the completed command
	Opcode hci.Opcode

	// Params holds the raw event parameters, if any
	Params []byte

	// UserData is the context supplied when the command was sent
	UserData any
}

// EventHandler receives completion events from a transport.
type EventHandler func(ev *Event)

// Callback is invoked when a sequence step completes.
// It runs in the same execution context as the completion handler and may call
// Run or Cancel on the sequencer that invoked it.
type Callback func(ev *Event)

// PreparedCommand is the command currently being executed.
// It is filled in by the current step's PrepareFunc.
type PreparedCommand struct {
	// Opcode is the HCI opcode (ignored by the FM transport)
	Opcode hci.Opcode

	// Params is the parameter block sent with the command
	Params []byte

	// CompletionEvent is the event expected to complete the command
	CompletionEvent hci.EventCode

	// Callback is notified when the command completes (optional)
	Callback Callback

	// UserData is handed back to Callback in Event.UserData
	UserData any
}

// PrepareFunc fills in cmd for one step given that step's user data.
// It must not block and must fully populate cmd.
type PrepareFunc func(cmd *PreparedCommand, userData any)

// CommandSlot is one scheduled step of a sequence.
type CommandSlot struct {
	Prepare  PrepareFunc
	UserData any
}

// SlotFor returns a CommandSlot that sends cmd and reports its completion to cb.
//
// Example:
//
//	slots := []sequencer.CommandSlot{
//	    sequencer.SlotFor(hci.Reset(), onStep, nil),
//	    sequencer.SlotFor(hci.ReadLocalVersion(), onStep, nil),
//	}
func SlotFor(cmd hci.Command, cb Callback, userData any) CommandSlot {
	return CommandSlot{
		Prepare: func(pc *PreparedCommand, ud any) {
			pc.Opcode = cmd.Opcode
			pc.Params = cmd.Params
			pc.CompletionEvent = cmd.CompletionEvent
			pc.Callback = cb
			pc.UserData = ud
		},
		UserData: userData,
	}
}

// SlotsFor builds one slot per command, passing each command as the step's user data.
func SlotsFor(cmds []hci.Command, cb Callback) []CommandSlot {
	slots := make([]CommandSlot, len(cmds))
	for i, cmd := range cmds {
		slots[i] = SlotFor(cmd, cb, cmd)
	}
	return slots
}

// Logger is an optional logging interface that can be provided to the sequencer.
// This allows integration with any logging framework.
//
// Example with standard log package:
//
//	type StdLogger struct{}
//	func (l *StdLogger) Debug(msg string, kv ...interface{}) { log.Println(msg, kv) }
//	func (l *StdLogger) Info(msg string, kv ...interface{})  { log.Println(msg, kv) }
//	func (l *StdLogger) Error(msg string, kv ...interface{}) { log.Println(msg, kv) }
//
//	seq, err := sequencer.NewBT(transport, sequencer.WithLogger(&StdLogger{}))
type Logger interface {
	// Debug logs a debug message with optional key-value pairs
	Debug(msg string, keysAndValues ...interface{})

	// Info logs an info message with optional key-value pairs
	Info(msg string, keysAndValues ...interface{})

	// Error logs an error message with optional key-value pairs
	Error(msg string, keysAndValues ...interface{})
}
