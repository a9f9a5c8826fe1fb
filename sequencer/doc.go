// Package sequencer drives an ordered chain of asynchronous controller commands.
//
// # Overview
//
// A Sequencer executes a list of command steps one at a time. Each step is
// prepared, sent over a transport, and the next step is sent only after the
// transport delivers the previous step's completion event:
//   - Run submits a sequence, or replaces the one running
//   - Cancel abandons the running sequence
//   - the completion handler advances the sequence and delivers callbacks
//
// Exactly one command is in flight per Sequencer at any time.
//
// # Basic Usage
//
//	seq, err := sequencer.NewBT(transport)
//	if err != nil {
//	    log.Fatal(err) // registration failures match sequencer.ErrFatal
//	}
//	defer seq.Destroy()
//
//	onStep := func(ev *sequencer.Event) {
//	    cmd := ev.UserData.(hci.Command)
//	    fmt.Printf("%s: %s\n", cmd.Name, ev.Status)
//	}
//
//	slots := sequencer.SlotsFor([]hci.Command{
//	    hci.Reset(),
//	    hci.ReadLocalVersion(),
//	}, onStep)
//
//	status, err := seq.Run(slots, false)
//	if err != nil || status != sequencer.StatusPending {
//	    // the sequence never started
//	}
//
// # Replacing a Sequence
//
// Calling Run while a command is in flight does not send anything. The old
// sequence's remaining steps are dropped, the completion of the command in
// flight is absorbed without calling its callback, and the new sequence's
// first step is sent as soon as that completion arrives. Only the latest
// replacement is kept.
//
// # Callbacks
//
// Each step's callback receives the completion event with UserData set to the
// step's own user data. The step index is advanced before the callback runs,
// so a callback may call Run or Cancel. With suppressUntilLast only the final
// step's callback is delivered.
//
// If the transport rejects a command synchronously the step's callback is
// invoked immediately with the failure status and the sequencer becomes idle.
// A failure reported through a completion event is delivered like any other
// completion and the sequence continues, unless WithAbortOnError is set.
//
// # Execution Context
//
// A Sequencer holds no locks. All calls and completion events must be
// serialized by the caller, for example with a Loop:
//
//	loop := sequencer.NewLoop(0)
//	go loop.Run(ctx)
//	seq, err := sequencer.NewFM(loop.VACTransport(fmTransport))
//
//	err = loop.Do(ctx, func() { seq.Cancel() })
package sequencer
