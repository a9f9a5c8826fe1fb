// Package simulator provides an in-process controller for exercising
// sequencers without hardware.
//
// A Controller implements both sequencer transports. BT commands go through
// a registered client, FM commands through the one-shot VAC path. Each
// accepted command is answered with a Command Complete (or Command Status)
// event after a fixed latency, and a few commands update simulated state:
//   - Reset clears the local name
//   - Read Local Version and Read BD_ADDR return the configured values
//   - Write Local Name and the vendor Write BD_ADDR update them
//
// Failures are injected per opcode. RejectOpcode makes the send itself fail,
// FailOpcode makes the completion carry a controller error status.
//
// Completions are delivered on their own goroutines, so a Sequencer driven
// by a Controller should be wrapped in a sequencer.Loop. Tests that need
// exact ordering use WithManualCompletion and call Complete.
//
// Close must not be called from inside a completion handler.
package simulator
