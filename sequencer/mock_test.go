package sequencer

import (
	"github.com/moffa90/go-hciseq/hci"
)

// sentCommand is one command handed to MockTransport.
type sentCommand struct {
	opcode hci.Opcode
	params []byte
	event  hci.EventCode
}

type pendingCompletion struct {
	handler  EventHandler
	opcode   hci.Opcode
	event    hci.EventCode
	userData any
}

// MockTransport implements ClientTransport and VACTransport.
// Completions are delivered only when the test calls Complete.
type MockTransport struct {
	registerStatus   Status
	deregisterStatus Status
	sendStatuses     []Status

	handler      EventHandler
	registered   int
	deregistered []ClientHandle
	sent         []sentCommand
	pending      []pendingCompletion
}

func NewMockTransport() *MockTransport {
	return &MockTransport{}
}

func (m *MockTransport) RegisterClient(handler EventHandler) (ClientHandle, Status) {
	m.registered++
	if m.registerStatus != StatusSuccess {
		return 0, m.registerStatus
	}
	m.handler = handler
	return ClientHandle(7), StatusSuccess
}

func (m *MockTransport) DeregisterClient(handle ClientHandle) Status {
	m.deregistered = append(m.deregistered, handle)
	return m.deregisterStatus
}

func (m *MockTransport) SendCommand(handle ClientHandle, opcode hci.Opcode, params []byte, completionEvent hci.EventCode, userData any) Status {
	return m.send(m.handler, opcode, params, completionEvent, userData)
}

func (m *MockTransport) SendVACCommand(params []byte, handler EventHandler, userData any) Status {
	return m.send(handler, 0, params, hci.EventCommandComplete, userData)
}

func (m *MockTransport) send(handler EventHandler, opcode hci.Opcode, params []byte, event hci.EventCode, userData any) Status {
	m.sent = append(m.sent, sentCommand{opcode: opcode, params: params, event: event})

	status := StatusPending
	if len(m.sendStatuses) > 0 {
		status = m.sendStatuses[0]
		m.sendStatuses = m.sendStatuses[1:]
	}

	if status == StatusPending {
		m.pending = append(m.pending, pendingCompletion{
			handler:  handler,
			opcode:   opcode,
			event:    event,
			userData: userData,
		})
	}
	return status
}

// FailNextSends makes the next sends return the given statuses in order.
func (m *MockTransport) FailNextSends(statuses ...Status) {
	m.sendStatuses = append(m.sendStatuses, statuses...)
}

// Complete delivers the oldest outstanding completion with the given status.
func (m *MockTransport) Complete(status Status) bool {
	if len(m.pending) == 0 {
		return false
	}
	p := m.pending[0]
	m.pending = m.pending[1:]

	p.handler(&Event{
		Status:   status,
		Code:     p.event,
		Opcode:   p.opcode,
		UserData: p.userData,
	})
	return true
}

// SentParams returns the params of every sent command as strings.
func (m *MockTransport) SentParams() []string {
	out := make([]string, len(m.sent))
	for i, c := range m.sent {
		out[i] = string(c.params)
	}
	return out
}

// delivery is one callback observed by a recorder.
type delivery struct {
	step   string
	status Status
	index  int
	count  int
}

// recorder collects step callbacks and the sequencer position seen inside them.
type recorder struct {
	seq        *Sequencer
	deliveries []delivery

	// onDeliver runs inside the callback after the delivery is recorded.
	onDeliver func(d delivery)
}

func (r *recorder) callback(ev *Event) {
	d := delivery{step: ev.UserData.(string), status: ev.Status}
	if r.seq != nil {
		d.index, d.count = r.seq.Position()
	}
	r.deliveries = append(r.deliveries, d)
	if r.onDeliver != nil {
		r.onDeliver(d)
	}
}

func (r *recorder) steps() []string {
	out := make([]string, len(r.deliveries))
	for i, d := range r.deliveries {
		out[i] = d.step
	}
	return out
}

// stepSlots builds one slot per name. The name is both the step's user data
// and its parameter block, so tests can see which step went on the wire.
func stepSlots(r *recorder, names ...string) []CommandSlot {
	slots := make([]CommandSlot, len(names))
	for i, name := range names {
		cmd := hci.Command{
			Name:            name,
			Opcode:          hci.NewOpcode(hci.OGFVendor, uint16(i+1)),
			Params:          []byte(name),
			CompletionEvent: hci.EventCommandComplete,
		}
		slots[i] = SlotFor(cmd, r.callback, name)
	}
	return slots
}

// MockLogger records messages by level.
type MockLogger struct {
	debugMsgs []string
	infoMsgs  []string
	errorMsgs []string
}

func (l *MockLogger) Debug(msg string, kv ...interface{}) {
	l.debugMsgs = append(l.debugMsgs, msg)
}

func (l *MockLogger) Info(msg string, kv ...interface{}) {
	l.infoMsgs = append(l.infoMsgs, msg)
}

func (l *MockLogger) Error(msg string, kv ...interface{}) {
	l.errorMsgs = append(l.errorMsgs, msg)
}

func equalStrings(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
