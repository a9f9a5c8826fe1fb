package simulator

import (
	"encoding/binary"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/moffa90/go-hciseq/hci"
	"github.com/moffa90/go-hciseq/sequencer"
)

// DefaultLatency is the delay before a completion event is delivered.
const DefaultLatency = 5 * time.Millisecond

// Packet is one command accepted or rejected by the Controller.
type Packet struct {
	Core   hci.Core
	Opcode hci.Opcode
	Params []byte
	Status sequencer.Status
	Time   time.Time
}

type completion struct {
	handler EventHandler
	event   *sequencer.Event
}

// EventHandler is the handler type shared with the sequencer transports.
type EventHandler = sequencer.EventHandler

// Controller simulates a combined BT/FM controller. It implements
// sequencer.ClientTransport and sequencer.VACTransport.
//
// Accepted commands complete asynchronously after the configured latency, or
// when Complete is called in manual mode.
type Controller struct {
	mu sync.Mutex

	latency time.Duration
	manual  bool
	logger  zerolog.Logger

	clients    map[sequencer.ClientHandle]EventHandler
	nextHandle sequencer.ClientHandle
	regStatus  sequencer.Status

	rejects  map[hci.Opcode]sequencer.Status
	failures map[hci.Opcode]hci.Status

	version   hci.LocalVersion
	bdAddr    hci.BDAddr
	localName string

	sent    []Packet
	events  [][]byte
	queue   []completion
	closed  bool
	stop    chan struct{}
	wg      sync.WaitGroup
	onEvent func(Packet, *sequencer.Event)
}

// New creates a simulated controller.
//
// Example:
//
//	ctrl := simulator.New(simulator.WithLatency(time.Millisecond))
//	defer ctrl.Close()
//
//	seq, err := sequencer.NewBT(loop.ClientTransport(ctrl))
func New(opts ...Option) *Controller {
	c := &Controller{
		latency:    DefaultLatency,
		logger:     zerolog.Nop(),
		clients:    make(map[sequencer.ClientHandle]EventHandler),
		nextHandle: 1,
		rejects:    make(map[hci.Opcode]sequencer.Status),
		failures:   make(map[hci.Opcode]hci.Status),
		version: hci.LocalVersion{
			HCIVersion:    0x06,
			HCIRevision:   0x0000,
			LMPVersion:    0x06,
			Manufacturer:  0x000D,
			LMPSubversion: 0x1B0F,
		},
		bdAddr: hci.BDAddr{0x00, 0x17, 0xE9, 0x00, 0x00, 0x01},
		stop:   make(chan struct{}),
	}

	for _, opt := range opts {
		opt(c)
	}
	return c
}

// RegisterClient implements sequencer.ClientTransport.
func (c *Controller) RegisterClient(handler EventHandler) (sequencer.ClientHandle, sequencer.Status) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.regStatus != sequencer.StatusSuccess {
		c.logger.Warn().Str("status", c.regStatus.String()).Msg("client registration refused")
		return 0, c.regStatus
	}

	handle := c.nextHandle
	c.nextHandle++
	c.clients[handle] = handler

	c.logger.Debug().Uint32("handle", uint32(handle)).Msg("client registered")
	return handle, sequencer.StatusSuccess
}

// DeregisterClient implements sequencer.ClientTransport.
func (c *Controller) DeregisterClient(handle sequencer.ClientHandle) sequencer.Status {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.clients[handle]; !ok {
		return sequencer.StatusInvalidArgument
	}
	delete(c.clients, handle)

	c.logger.Debug().Uint32("handle", uint32(handle)).Msg("client deregistered")
	return sequencer.StatusSuccess
}

// SendCommand implements sequencer.ClientTransport.
func (c *Controller) SendCommand(handle sequencer.ClientHandle, opcode hci.Opcode, params []byte, completionEvent hci.EventCode, userData any) sequencer.Status {
	c.mu.Lock()
	defer c.mu.Unlock()

	handler, ok := c.clients[handle]
	if !ok {
		c.record(hci.CoreBT, opcode, params, sequencer.StatusInvalidArgument)
		return sequencer.StatusInvalidArgument
	}
	return c.accept(hci.CoreBT, handler, opcode, params, completionEvent, userData)
}

// SendVACCommand implements sequencer.VACTransport.
func (c *Controller) SendVACCommand(params []byte, handler EventHandler, userData any) sequencer.Status {
	c.mu.Lock()
	defer c.mu.Unlock()

	if handler == nil {
		c.record(hci.CoreFM, 0, params, sequencer.StatusInvalidArgument)
		return sequencer.StatusInvalidArgument
	}
	return c.accept(hci.CoreFM, handler, 0, params, hci.EventCommandComplete, userData)
}

// accept validates a command, records it and schedules its completion.
// c.mu must be held.
func (c *Controller) accept(core hci.Core, handler EventHandler, opcode hci.Opcode, params []byte, event hci.EventCode, userData any) sequencer.Status {
	if c.closed {
		c.record(core, opcode, params, sequencer.StatusInternalError)
		return sequencer.StatusInternalError
	}
	if len(params) > hci.MaxParamSize {
		c.record(core, opcode, params, sequencer.StatusInvalidArgument)
		return sequencer.StatusInvalidArgument
	}
	if status, ok := c.rejects[opcode]; ok {
		c.record(core, opcode, params, status)
		c.logger.Info().
			Str("core", core.String()).
			Str("opcode", opcode.String()).
			Str("status", status.String()).
			Msg("command rejected")
		return status
	}

	pkt := c.record(core, opcode, params, sequencer.StatusPending)
	ev := c.execute(opcode, params, event)
	ev.UserData = userData

	c.logger.Debug().
		Str("core", core.String()).
		Str("opcode", opcode.String()).
		Int("params", len(params)).
		Str("result", ev.Status.String()).
		Msg("command accepted")

	if c.onEvent != nil {
		c.onEvent(pkt, ev)
	}

	comp := completion{handler: handler, event: ev}
	if c.manual {
		c.queue = append(c.queue, comp)
		return sequencer.StatusPending
	}

	c.wg.Add(1)
	go c.deliverAfter(comp, c.latency)
	return sequencer.StatusPending
}

// execute applies a command to the simulated controller state and builds
// the completion event. c.mu must be held.
func (c *Controller) execute(opcode hci.Opcode, params []byte, event hci.EventCode) *sequencer.Event {
	status := hci.StatusSuccess
	if st, ok := c.failures[opcode]; ok {
		status = st
	}

	var ret []byte
	if status == hci.StatusSuccess {
		ret = c.apply(opcode, params)
	}

	ev := &sequencer.Event{
		Status: sequencer.StatusSuccess,
		Code:   event,
		Opcode: opcode,
	}
	if status != hci.StatusSuccess {
		ev.Status = sequencer.StatusFailed
	}

	var evParams []byte
	if event == hci.EventCommandStatus {
		evParams = make([]byte, hci.CommandStatusSize)
		evParams[0] = byte(status)
		evParams[1] = 1
		binary.LittleEndian.PutUint16(evParams[2:4], uint16(opcode))
	} else {
		evParams = hci.CommandCompleteParams(opcode, status, ret)
	}

	// The event goes through the H4 codec as it would on a UART.
	wire, err := hci.EncodeEvent(event, evParams)
	if err != nil {
		c.logger.Error().Err(err).Str("opcode", opcode.String()).Msg("encode event")
		ev.Status = sequencer.StatusInternalError
		return ev
	}
	c.events = append(c.events, wire)

	pkt, err := hci.DecodeEvent(wire)
	if err != nil {
		c.logger.Error().Err(err).Str("opcode", opcode.String()).Msg("decode event")
		ev.Status = sequencer.StatusInternalError
		return ev
	}
	ev.Code = pkt.Code
	ev.Params = pkt.Params
	return ev
}

// apply updates controller state and returns the command's return parameters.
func (c *Controller) apply(opcode hci.Opcode, params []byte) []byte {
	switch opcode {
	case hci.OpReset:
		c.localName = ""
	case hci.OpReadLocalVersion:
		ret := make([]byte, hci.LocalVersionSize)
		ret[0] = c.version.HCIVersion
		binary.LittleEndian.PutUint16(ret[1:3], c.version.HCIRevision)
		ret[3] = c.version.LMPVersion
		binary.LittleEndian.PutUint16(ret[4:6], c.version.Manufacturer)
		binary.LittleEndian.PutUint16(ret[6:8], c.version.LMPSubversion)
		return ret
	case hci.OpReadBDAddr:
		ret := make([]byte, hci.BDAddrSize)
		for i := range ret {
			ret[i] = c.bdAddr[hci.BDAddrSize-1-i]
		}
		return ret
	case hci.OpVSWriteBDAddr:
		if len(params) == hci.BDAddrSize {
			for i := range c.bdAddr {
				c.bdAddr[i] = params[hci.BDAddrSize-1-i]
			}
		}
	case hci.OpWriteLocalName:
		name := params
		for i, b := range params {
			if b == 0 {
				name = params[:i]
				break
			}
		}
		c.localName = string(name)
	}
	return nil
}

func (c *Controller) deliverAfter(comp completion, delay time.Duration) {
	defer c.wg.Done()

	if delay > 0 {
		timer := time.NewTimer(delay)
		defer timer.Stop()
		select {
		case <-timer.C:
		case <-c.stop:
			return
		}
	}

	c.mu.Lock()
	closed := c.closed
	c.mu.Unlock()
	if closed {
		return
	}

	comp.handler(comp.event)
}

// record appends a packet to the send log. c.mu must be held.
func (c *Controller) record(core hci.Core, opcode hci.Opcode, params []byte, status sequencer.Status) Packet {
	pkt := Packet{
		Core:   core,
		Opcode: opcode,
		Params: append([]byte(nil), params...),
		Status: status,
		Time:   time.Now(),
	}
	c.sent = append(c.sent, pkt)
	return pkt
}

// Complete delivers the oldest queued completion in manual mode, on the
// calling goroutine. It reports whether a completion was delivered.
func (c *Controller) Complete() bool {
	c.mu.Lock()
	if len(c.queue) == 0 || c.closed {
		c.mu.Unlock()
		return false
	}
	comp := c.queue[0]
	c.queue = c.queue[1:]
	c.mu.Unlock()

	comp.handler(comp.event)
	return true
}

// Outstanding returns the number of completions queued in manual mode.
func (c *Controller) Outstanding() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.queue)
}

// RejectOpcode makes every send of opcode fail synchronously with status.
func (c *Controller) RejectOpcode(opcode hci.Opcode, status sequencer.Status) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.rejects[opcode] = status
}

// FailOpcode makes opcode complete with the given controller status.
func (c *Controller) FailOpcode(opcode hci.Opcode, status hci.Status) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.failures[opcode] = status
}

// FailRegistration makes RegisterClient return status.
func (c *Controller) FailRegistration(status sequencer.Status) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.regStatus = status
}

// Sent returns a copy of the packet log.
func (c *Controller) Sent() []Packet {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]Packet(nil), c.sent...)
}

// Events returns a copy of every H4 event packet the controller produced.
func (c *Controller) Events() [][]byte {
	c.mu.Lock()
	defer c.mu.Unlock()

	out := make([][]byte, len(c.events))
	for i, e := range c.events {
		out[i] = append([]byte(nil), e...)
	}
	return out
}

// BDAddr returns the controller's current device address.
func (c *Controller) BDAddr() hci.BDAddr {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.bdAddr
}

// LocalName returns the name last written with Write Local Name.
func (c *Controller) LocalName() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.localName
}

// Close stops delivery of pending completions and waits for in-progress
// deliveries to finish. Later sends fail with StatusInternalError.
func (c *Controller) Close() error {
	c.mu.Lock()
	if !c.closed {
		c.closed = true
		close(c.stop)
	}
	c.queue = nil
	c.mu.Unlock()

	c.wg.Wait()
	return nil
}
