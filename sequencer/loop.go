package sequencer

import (
	"context"
	"errors"

	"github.com/moffa90/go-hciseq/hci"
)

// ErrLoopStopped is returned when work is submitted to a Loop that has exited.
var ErrLoopStopped = errors.New("sequencer loop stopped")

// DefaultLoopQueueSize is the request buffer used when NewLoop is given a non-positive size.
const DefaultLoopQueueSize = 64

// Loop runs submitted functions one at a time on a single goroutine.
//
// Wrapping a transport with ClientTransport or VACTransport re-posts its
// completion events onto the loop, so the Sequencer's completion handler and
// every Run or Cancel submitted through Do execute in one context.
//
// Example:
//
//	loop := sequencer.NewLoop(0)
//	go loop.Run(ctx)
//
//	seq, err := sequencer.NewBT(loop.ClientTransport(transport))
//	...
//	err = loop.Do(ctx, func() {
//	    status, runErr = seq.Run(slots, false)
//	})
//
// Functions running on the loop, including step callbacks, must call the
// Sequencer directly; calling Do from the loop goroutine deadlocks.
type Loop struct {
	requests chan func()
	stopped  chan struct{}
}

// NewLoop creates a loop with the given request queue size.
func NewLoop(queueSize int) *Loop {
	if queueSize <= 0 {
		queueSize = DefaultLoopQueueSize
	}
	return &Loop{
		requests: make(chan func(), queueSize),
		stopped:  make(chan struct{}),
	}
}

// Run processes submitted functions until ctx is done. It must be called once.
func (l *Loop) Run(ctx context.Context) error {
	defer close(l.stopped)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case fn := <-l.requests:
			fn()
		}
	}
}

// Post queues fn without waiting for it to run.
func (l *Loop) Post(ctx context.Context, fn func()) error {
	select {
	case <-l.stopped:
		return ErrLoopStopped
	default:
	}

	select {
	case l.requests <- fn:
		return nil
	case <-l.stopped:
		return ErrLoopStopped
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Do runs fn on the loop and waits for it to return.
func (l *Loop) Do(ctx context.Context, fn func()) error {
	done := make(chan struct{})
	if err := l.Post(ctx, func() {
		defer close(done)
		fn()
	}); err != nil {
		return err
	}

	select {
	case <-done:
		return nil
	case <-l.stopped:
		return ErrLoopStopped
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Stopped is closed when Run returns.
func (l *Loop) Stopped() <-chan struct{} {
	return l.stopped
}

// ClientTransport wraps t so its completion events are delivered on the loop.
func (l *Loop) ClientTransport(t ClientTransport) ClientTransport {
	return &loopClientTransport{loop: l, next: t}
}

// VACTransport wraps t so its completion events are delivered on the loop.
func (l *Loop) VACTransport(t VACTransport) VACTransport {
	return &loopVACTransport{loop: l, next: t}
}

// forward returns a handler that re-posts events to h on the loop.
// Events arriving after the loop stopped are dropped.
//
// A transport may call the handler from inside SendCommand, which then runs
// on the loop goroutine. When the queue is full at that point the event is
// handed to a new goroutine, since blocking would stall the loop on itself.
func (l *Loop) forward(h EventHandler) EventHandler {
	return func(ev *Event) {
		fn := func() { h(ev) }

		select {
		case l.requests <- fn:
			return
		case <-l.stopped:
			return
		default:
		}

		go func() { _ = l.Post(context.Background(), fn) }()
	}
}

type loopClientTransport struct {
	loop *Loop
	next ClientTransport
}

func (t *loopClientTransport) RegisterClient(handler EventHandler) (ClientHandle, Status) {
	return t.next.RegisterClient(t.loop.forward(handler))
}

func (t *loopClientTransport) DeregisterClient(handle ClientHandle) Status {
	return t.next.DeregisterClient(handle)
}

func (t *loopClientTransport) SendCommand(handle ClientHandle, opcode hci.Opcode, params []byte, completionEvent hci.EventCode, userData any) Status {
	return t.next.SendCommand(handle, opcode, params, completionEvent, userData)
}

type loopVACTransport struct {
	loop *Loop
	next VACTransport
}

func (t *loopVACTransport) SendVACCommand(params []byte, handler EventHandler, userData any) Status {
	return t.next.SendVACCommand(params, t.loop.forward(handler), userData)
}
