package sequencer

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/moffa90/go-hciseq/hci"
)

// MaxCommands is the capacity of a sequencer's command buffer.
const MaxCommands = 30

// Sequencer executes an ordered list of commands one at a time over an
// asynchronous transport, advancing on each completion event.
//
// A Sequencer is not safe for concurrent use. Run, Cancel, Destroy and the
// transport's completion handler must all execute in one context; use a Loop
// when they originate from different goroutines.
type Sequencer struct {
	core   hci.Core
	client ClientTransport
	vac    VACTransport
	handle ClientHandle
	config Config

	commands          [MaxCommands]CommandSlot
	commandCount      int
	currentIndex      int
	cancelFlag        bool
	suppressUntilLast bool

	// inFlight is true between a pending send and its completion.
	inFlight bool

	command PreparedCommand
	runID   string
}

// NewBT creates a sequencer for the BT core and registers its completion
// handler with the transport.
//
// A registration failure is returned as a *TransportError matching ErrFatal.
//
// Example:
//
//	seq, err := sequencer.NewBT(hciTransport, sequencer.WithLogger(logger))
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer seq.Destroy()
func NewBT(transport ClientTransport, opts ...Option) (*Sequencer, error) {
	if transport == nil {
		panic("transport cannot be nil")
	}

	s := newSequencer(hci.CoreBT, opts)
	s.client = transport

	handle, status := transport.RegisterClient(completionHandler)
	if status != StatusSuccess {
		s.logError("register client failed", "core", s.core.String(), "status", status.String())
		return nil, &TransportError{Op: "register client", Core: s.core, Status: status}
	}
	s.handle = handle

	s.logDebug("sequencer created", "core", s.core.String(), "handle", handle)
	return s, nil
}

// NewFM creates a sequencer for the FM core. The VAC transport takes the
// completion handler with every command, so nothing is registered.
func NewFM(transport VACTransport, opts ...Option) (*Sequencer, error) {
	if transport == nil {
		panic("transport cannot be nil")
	}

	s := newSequencer(hci.CoreFM, opts)
	s.vac = transport

	s.logDebug("sequencer created", "core", s.core.String())
	return s, nil
}

func newSequencer(core hci.Core, opts []Option) *Sequencer {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}

	return &Sequencer{
		core:   core,
		config: cfg,
	}
}

// Destroy deregisters the completion handler from the transport.
// A deregistration failure is returned as a *TransportError matching ErrFatal.
func (s *Sequencer) Destroy() error {
	if s.core != hci.CoreBT {
		return nil
	}

	if status := s.client.DeregisterClient(s.handle); status != StatusSuccess {
		s.logError("deregister client failed", "core", s.core.String(), "status", status.String())
		return &TransportError{Op: "deregister client", Core: s.core, Status: status}
	}

	s.logDebug("sequencer destroyed", "core", s.core.String(), "handle", s.handle)
	return nil
}

// Run starts executing commands, or replaces the sequence already running.
//
// On an idle sequencer the first step is prepared and sent immediately and the
// transport's status is returned. Anything other than StatusPending means the
// sequence never started and the sequencer stays idle.
//
// On a running sequencer nothing is sent: the remaining steps of the old
// sequence are discarded, the completion of the command in flight is
// swallowed without calling its callback, and the new first step is sent when
// that completion arrives. Run returns StatusPending in that case.
//
// With suppressUntilLast set only the final step's callback is delivered.
//
// A sequence that is empty, longer than MaxCommands, or contains a slot
// without a PrepareFunc is rejected with StatusInvalidArgument and an error
// matching ErrInvalidArgument; the sequencer is left untouched.
func (s *Sequencer) Run(commands []CommandSlot, suppressUntilLast bool) (Status, error) {
	if len(commands) > MaxCommands {
		return StatusInvalidArgument, fmt.Errorf("%w: got %d, maximum is %d", ErrTooManyCommands, len(commands), MaxCommands)
	}
	if len(commands) == 0 {
		return StatusInvalidArgument, ErrEmptySequence
	}
	for i, slot := range commands {
		if slot.Prepare == nil {
			return StatusInvalidArgument, fmt.Errorf("%w: slot %d", ErrMissingPrepare, i)
		}
	}

	s.suppressUntilLast = suppressUntilLast
	copy(s.commands[:], commands)
	s.currentIndex = 0
	s.runID = uuid.NewString()

	if s.commandCount > 0 || s.inFlight {
		s.commandCount = len(commands)

		// Inside a callback delivered by the completion handler nothing is in
		// flight and the handler itself sends the new first step.
		if s.inFlight {
			s.cancelFlag = true
		}

		s.logDebug("sequence replaced",
			"core", s.core.String(),
			"run_id", s.runID,
			"commands", len(commands),
			"deferred", s.inFlight,
		)
		return StatusPending, nil
	}

	s.commandCount = len(commands)
	s.logDebug("sequence started",
		"core", s.core.String(),
		"run_id", s.runID,
		"commands", len(commands),
		"suppress_until_last", suppressUntilLast,
	)

	status := s.sendCurrent()
	if status != StatusPending {
		s.logError("first command rejected",
			"core", s.core.String(),
			"run_id", s.runID,
			"opcode", s.command.Opcode.String(),
			"status", status.String(),
		)
		s.idle()
	}

	return status, nil
}

// Cancel abandons the running sequence. The completion of the command in
// flight is absorbed without calling its callback and nothing further is
// sent. Cancel on an idle sequencer does nothing.
func (s *Sequencer) Cancel() {
	if s.commandCount == 0 {
		return
	}

	if s.inFlight {
		s.cancelFlag = true
	}
	s.commandCount = 0
	s.currentIndex = 0

	s.logDebug("sequence cancelled", "core", s.core.String(), "run_id", s.runID)
}

// Core returns the core this sequencer drives.
func (s *Sequencer) Core() hci.Core {
	return s.core
}

// Running reports whether a sequence is in progress.
func (s *Sequencer) Running() bool {
	return s.commandCount > 0
}

// InFlight reports whether a command is awaiting its completion event.
func (s *Sequencer) InFlight() bool {
	return s.inFlight
}

// Position returns the index of the step awaiting completion and the number
// of steps in the current sequence.
func (s *Sequencer) Position() (index, count int) {
	return s.currentIndex, s.commandCount
}

// RunID returns the identifier assigned to the most recent accepted Run.
func (s *Sequencer) RunID() string {
	return s.runID
}

// completionHandler is the EventHandler given to transports. The sequencer
// travels in the event's user data.
func completionHandler(ev *Event) {
	s, ok := ev.UserData.(*Sequencer)
	if !ok || s == nil {
		return
	}
	s.handleCompletion(ev)
}

// handleCompletion advances the sequence after the command in flight completed.
func (s *Sequencer) handleCompletion(ev *Event) {
	if !s.inFlight {
		s.logError("unexpected completion", "core", s.core.String(), "opcode", ev.Opcode.String())
		return
	}
	s.inFlight = false

	if s.cancelFlag {
		// Completion of a replaced or cancelled command.
		s.cancelFlag = false
		s.logDebug("completion absorbed", "core", s.core.String(), "opcode", ev.Opcode.String())
	} else {
		s.currentIndex++

		cb, userData := s.command.Callback, s.command.UserData
		last := s.currentIndex >= s.commandCount
		failed := ev.Status != StatusSuccess

		s.logDebug("command completed",
			"core", s.core.String(),
			"run_id", s.runID,
			"opcode", s.command.Opcode.String(),
			"step", s.currentIndex,
			"of", s.commandCount,
			"status", ev.Status.String(),
		)

		if failed && s.config.AbortOnError {
			s.logError("sequence aborted",
				"core", s.core.String(),
				"run_id", s.runID,
				"opcode", s.command.Opcode.String(),
				"status", ev.Status.String(),
			)
			s.idle()
			s.deliver(cb, userData, ev)
			return
		}

		if !s.suppressUntilLast || last {
			s.deliver(cb, userData, ev)
		}
	}

	// The callback cancelled, or cancelled and started a new sequence
	// whose first step is already on the wire.
	if s.commandCount == 0 || s.inFlight {
		return
	}

	if s.currentIndex < s.commandCount {
		status := s.sendCurrent()
		if status == StatusPending {
			return
		}

		// No completion will follow a rejected send, so report it now.
		cb, userData := s.command.Callback, s.command.UserData
		failure := &Event{
			Status:   status,
			Code:     s.command.CompletionEvent,
			Opcode:   s.command.Opcode,
			UserData: userData,
		}
		s.logError("command rejected",
			"core", s.core.String(),
			"run_id", s.runID,
			"opcode", s.command.Opcode.String(),
			"status", status.String(),
		)
		s.idle()
		s.deliver(cb, userData, failure)
		return
	}

	s.logInfo("sequence finished", "core", s.core.String(), "run_id", s.runID, "commands", s.commandCount)
	s.idle()
}

// sendCurrent prepares the step at currentIndex and hands it to the transport.
func (s *Sequencer) sendCurrent() Status {
	slot := s.commands[s.currentIndex]
	s.command = PreparedCommand{}
	slot.Prepare(&s.command, slot.UserData)

	s.inFlight = true

	var status Status
	switch s.core {
	case hci.CoreBT:
		status = s.client.SendCommand(s.handle, s.command.Opcode, s.command.Params, s.command.CompletionEvent, s)
	case hci.CoreFM:
		status = s.vac.SendVACCommand(s.command.Params, completionHandler, s)
	default:
		status = StatusInternalError
	}

	if status != StatusPending {
		s.inFlight = false
	}
	return status
}

func (s *Sequencer) deliver(cb Callback, userData any, ev *Event) {
	if cb == nil {
		return
	}
	ev.UserData = userData
	cb(ev)
}

func (s *Sequencer) idle() {
	s.commandCount = 0
	s.currentIndex = 0
}

// logDebug logs a debug message if a logger is configured.
func (s *Sequencer) logDebug(msg string, keysAndValues ...interface{}) {
	if s.config.Logger != nil {
		s.config.Logger.Debug(msg, keysAndValues...)
	}
}

// logInfo logs an info message if a logger is configured.
func (s *Sequencer) logInfo(msg string, keysAndValues ...interface{}) {
	if s.config.Logger != nil {
		s.config.Logger.Info(msg, keysAndValues...)
	}
}

// logError logs an error message if a logger is configured.
func (s *Sequencer) logError(msg string, keysAndValues ...interface{}) {
	if s.config.Logger != nil {
		s.config.Logger.Error(msg, keysAndValues...)
	}
}
