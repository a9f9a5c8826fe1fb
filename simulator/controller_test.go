package simulator

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/moffa90/go-hciseq/hci"
	"github.com/moffa90/go-hciseq/sequencer"
)

type result struct {
	name   string
	status sequencer.Status
	code   hci.EventCode
	params []byte
}

func collect(results *[]result) sequencer.Callback {
	return func(ev *sequencer.Event) {
		*results = append(*results, result{
			name:   ev.UserData.(hci.Command).Name,
			status: ev.Status,
			code:   ev.Code,
			params: ev.Params,
		})
	}
}

func drain(c *Controller) int {
	n := 0
	for c.Complete() {
		n++
	}
	return n
}

func TestControllerBTSequence(t *testing.T) {
	ctrl := New(WithManualCompletion())
	defer ctrl.Close()

	seq, err := sequencer.NewBT(ctrl)
	require.NoError(t, err)

	var results []result
	slots := sequencer.SlotsFor([]hci.Command{
		hci.Reset(),
		hci.ReadLocalVersion(),
		hci.ReadBDAddr(),
	}, collect(&results))

	status, err := seq.Run(slots, false)
	require.NoError(t, err)
	require.Equal(t, sequencer.StatusPending, status)
	assert.Equal(t, 1, ctrl.Outstanding())

	assert.Equal(t, 3, drain(ctrl))
	require.Len(t, results, 3)

	for _, r := range results {
		assert.Equal(t, sequencer.StatusSuccess, r.status, r.name)
		assert.Equal(t, hci.EventCommandComplete, r.code, r.name)
	}

	cc, err := hci.ParseCommandComplete(results[1].params)
	require.NoError(t, err)
	assert.Equal(t, hci.OpReadLocalVersion, cc.Opcode)
	assert.Equal(t, hci.StatusSuccess, cc.Status)

	version, err := hci.ParseLocalVersion(cc.ReturnParams)
	require.NoError(t, err)
	assert.Equal(t, uint16(0x000D), version.Manufacturer)
	assert.Equal(t, uint16(0x1B0F), version.LMPSubversion)

	cc, err = hci.ParseCommandComplete(results[2].params)
	require.NoError(t, err)
	addr, err := hci.ParseBDAddr(cc.ReturnParams)
	require.NoError(t, err)
	assert.Equal(t, "00:17:E9:00:00:01", addr.String())

	sent := ctrl.Sent()
	require.Len(t, sent, 3)
	assert.Equal(t, hci.OpReset, sent[0].Opcode)
	assert.Equal(t, hci.CoreBT, sent[0].Core)
	assert.Equal(t, sequencer.StatusPending, sent[0].Status)

	require.NoError(t, seq.Destroy())
}

func TestControllerStateCommands(t *testing.T) {
	ctrl := New(WithManualCompletion())
	defer ctrl.Close()

	seq, err := sequencer.NewBT(ctrl)
	require.NoError(t, err)

	name, err := hci.WriteLocalName("hciseq")
	require.NoError(t, err)
	newAddr := hci.BDAddr{0xAA, 0xBB, 0xCC, 0xDD, 0xEE, 0xFF}

	var results []result
	_, err = seq.Run(sequencer.SlotsFor([]hci.Command{
		name,
		hci.VSWriteBDAddr(newAddr),
		hci.ReadBDAddr(),
	}, collect(&results)), true)
	require.NoError(t, err)
	drain(ctrl)

	require.Len(t, results, 1, "only the last step reports")
	assert.Equal(t, "hciseq", ctrl.LocalName())
	assert.Equal(t, newAddr, ctrl.BDAddr())

	cc, err := hci.ParseCommandComplete(results[0].params)
	require.NoError(t, err)
	addr, err := hci.ParseBDAddr(cc.ReturnParams)
	require.NoError(t, err)
	assert.Equal(t, newAddr, addr)

	_, err = seq.Run(sequencer.SlotsFor([]hci.Command{hci.Reset()}, collect(&results)), false)
	require.NoError(t, err)
	drain(ctrl)
	assert.Empty(t, ctrl.LocalName())
}

func TestControllerFailOpcode(t *testing.T) {
	ctrl := New(WithManualCompletion())
	defer ctrl.Close()
	ctrl.FailOpcode(hci.OpReadLocalVersion, hci.StatusHardwareFailure)

	seq, err := sequencer.NewBT(ctrl)
	require.NoError(t, err)

	var results []result
	_, err = seq.Run(sequencer.SlotsFor([]hci.Command{
		hci.ReadLocalVersion(),
		hci.Reset(),
	}, collect(&results)), false)
	require.NoError(t, err)
	drain(ctrl)

	require.Len(t, results, 2, "failures do not stop the sequence by default")
	assert.Equal(t, sequencer.StatusFailed, results[0].status)
	assert.Equal(t, sequencer.StatusSuccess, results[1].status)

	cc, err := hci.ParseCommandComplete(results[0].params)
	require.NoError(t, err)
	assert.Equal(t, hci.StatusHardwareFailure, cc.Status)
	assert.Empty(t, cc.ReturnParams)
}

func TestControllerRejectOpcode(t *testing.T) {
	ctrl := New(WithManualCompletion())
	defer ctrl.Close()
	ctrl.RejectOpcode(hci.OpReset, sequencer.StatusFailed)

	seq, err := sequencer.NewBT(ctrl)
	require.NoError(t, err)

	var results []result
	status, err := seq.Run(sequencer.SlotsFor([]hci.Command{hci.Reset()}, collect(&results)), false)
	require.NoError(t, err)
	assert.Equal(t, sequencer.StatusFailed, status)
	assert.Zero(t, ctrl.Outstanding())
	assert.False(t, seq.Running())

	sent := ctrl.Sent()
	require.Len(t, sent, 1)
	assert.Equal(t, sequencer.StatusFailed, sent[0].Status)

	// A rejection mid-sequence is reported through the step callback.
	status, err = seq.Run(sequencer.SlotsFor([]hci.Command{hci.ReadBDAddr(), hci.Reset()}, collect(&results)), false)
	require.NoError(t, err)
	require.Equal(t, sequencer.StatusPending, status)
	drain(ctrl)

	require.Len(t, results, 2)
	assert.Equal(t, "read_bd_addr", results[0].name)
	assert.Equal(t, "reset", results[1].name)
	assert.Equal(t, sequencer.StatusFailed, results[1].status)
}

func TestControllerCommandStatusEvent(t *testing.T) {
	ctrl := New(WithManualCompletion())
	defer ctrl.Close()

	seq, err := sequencer.NewBT(ctrl)
	require.NoError(t, err)

	cmd, err := hci.VSUpdateUARTBaudRate(921600)
	require.NoError(t, err)
	cmd.CompletionEvent = hci.EventCommandStatus

	var results []result
	_, err = seq.Run(sequencer.SlotsFor([]hci.Command{cmd}, collect(&results)), false)
	require.NoError(t, err)
	drain(ctrl)

	require.Len(t, results, 1)
	assert.Equal(t, hci.EventCommandStatus, results[0].code)

	cs, err := hci.ParseCommandStatus(results[0].params)
	require.NoError(t, err)
	assert.Equal(t, hci.OpVSUpdateUARTBaudRate, cs.Opcode)
	assert.Equal(t, hci.StatusSuccess, cs.Status)
}

func TestControllerRegistration(t *testing.T) {
	ctrl := New()
	defer ctrl.Close()
	ctrl.FailRegistration(sequencer.StatusInternalError)

	_, err := sequencer.NewBT(ctrl)
	require.ErrorIs(t, err, sequencer.ErrFatal)

	assert.Equal(t, sequencer.StatusInvalidArgument, ctrl.DeregisterClient(42))
	assert.Equal(t, sequencer.StatusInvalidArgument, ctrl.SendCommand(42, hci.OpReset, nil, hci.EventCommandComplete, nil))
}

func TestControllerVAC(t *testing.T) {
	ctrl := New(WithManualCompletion())
	defer ctrl.Close()

	seq, err := sequencer.NewFM(ctrl)
	require.NoError(t, err)

	var got []string
	cb := func(ev *sequencer.Event) { got = append(got, ev.UserData.(hci.Command).Name) }
	_, err = seq.Run(sequencer.SlotsFor([]hci.Command{
		{Name: "power", Params: []byte{0x01}},
		{Name: "tune", Params: []byte{0x02, 0x9C}},
	}, cb), false)
	require.NoError(t, err)
	drain(ctrl)

	assert.Equal(t, []string{"power", "tune"}, got)

	sent := ctrl.Sent()
	require.Len(t, sent, 2)
	assert.Equal(t, hci.CoreFM, sent[1].Core)
	assert.Equal(t, []byte{0x02, 0x9C}, sent[1].Params)

	assert.Equal(t, sequencer.StatusInvalidArgument, ctrl.SendVACCommand([]byte{0x01}, nil, nil))
}

func TestControllerClose(t *testing.T) {
	ctrl := New(WithManualCompletion())
	handle, status := ctrl.RegisterClient(func(*sequencer.Event) {})
	require.Equal(t, sequencer.StatusSuccess, status)

	require.Equal(t, sequencer.StatusPending, ctrl.SendCommand(handle, hci.OpReset, nil, hci.EventCommandComplete, nil))
	require.NoError(t, ctrl.Close())

	assert.False(t, ctrl.Complete(), "queued completions are dropped on close")
	assert.Equal(t, sequencer.StatusInternalError, ctrl.SendCommand(handle, hci.OpReset, nil, hci.EventCommandComplete, nil))
}

func TestControllerParamsTooLong(t *testing.T) {
	ctrl := New(WithManualCompletion())
	defer ctrl.Close()

	status := ctrl.SendVACCommand(make([]byte, hci.MaxParamSize+1), func(*sequencer.Event) {}, nil)
	assert.Equal(t, sequencer.StatusInvalidArgument, status)
}

func TestControllerEventHook(t *testing.T) {
	var seen []hci.Opcode
	ctrl := New(WithManualCompletion(), WithEventHook(func(p Packet, ev *sequencer.Event) {
		seen = append(seen, p.Opcode)
	}))
	defer ctrl.Close()

	seq, err := sequencer.NewBT(ctrl)
	require.NoError(t, err)
	_, err = seq.Run(sequencer.SlotsFor([]hci.Command{hci.Reset(), hci.ReadBDAddr()}, nil), false)
	require.NoError(t, err)
	drain(ctrl)

	assert.Equal(t, []hci.Opcode{hci.OpReset, hci.OpReadBDAddr}, seen)
}

func TestControllerAsyncWithLoop(t *testing.T) {
	ctrl := New(WithLatency(time.Millisecond))
	defer ctrl.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	loop := sequencer.NewLoop(0)
	go func() { _ = loop.Run(ctx) }()

	seq, err := sequencer.NewBT(loop.ClientTransport(ctrl))
	require.NoError(t, err)

	done := make(chan sequencer.Status, 1)
	slots := sequencer.SlotsFor([]hci.Command{
		hci.Reset(),
		hci.ReadLocalVersion(),
		hci.ReadBDAddr(),
	}, func(ev *sequencer.Event) {
		if ev.UserData.(hci.Command).Opcode == hci.OpReadBDAddr {
			done <- ev.Status
		}
	})

	var status sequencer.Status
	require.NoError(t, loop.Do(ctx, func() { status, err = seq.Run(slots, true) }))
	require.NoError(t, err)
	require.Equal(t, sequencer.StatusPending, status)

	select {
	case st := <-done:
		assert.Equal(t, sequencer.StatusSuccess, st)
	case <-time.After(2 * time.Second):
		t.Fatal("sequence did not finish")
	}

	assert.Len(t, ctrl.Sent(), 3)
}

func TestControllerLocalVersion(t *testing.T) {
	want := hci.LocalVersion{
		HCIVersion:    0x0B,
		HCIRevision:   0x0102,
		LMPVersion:    0x0B,
		Manufacturer:  0x0046,
		LMPSubversion: 0x2211,
	}
	ctrl := New(WithManualCompletion(), WithLocalVersion(want))
	defer ctrl.Close()

	seq, err := sequencer.NewBT(ctrl)
	require.NoError(t, err)

	var results []result
	_, err = seq.Run(sequencer.SlotsFor([]hci.Command{hci.ReadLocalVersion()}, collect(&results)), false)
	require.NoError(t, err)
	require.Equal(t, 1, drain(ctrl))
	require.Len(t, results, 1)

	cc, err := hci.ParseCommandComplete(results[0].params)
	require.NoError(t, err)
	got, err := hci.ParseLocalVersion(cc.ReturnParams)
	require.NoError(t, err)
	assert.Equal(t, want, *got)
}

func TestControllerEventsOnTheWire(t *testing.T) {
	ctrl := New(WithManualCompletion())
	defer ctrl.Close()

	seq, err := sequencer.NewBT(ctrl)
	require.NoError(t, err)

	var results []result
	_, err = seq.Run(sequencer.SlotsFor([]hci.Command{hci.Reset(), hci.ReadBDAddr()}, collect(&results)), false)
	require.NoError(t, err)
	drain(ctrl)

	events := ctrl.Events()
	require.Len(t, events, 2)
	require.Len(t, results, 2)

	// Reset: Command Complete with one packet credit, opcode 0x0C03, success.
	assert.Equal(t, []byte{hci.PacketTypeEvent, byte(hci.EventCommandComplete), 0x04, 0x01, 0x03, 0x0C, 0x00}, events[0])

	for i, raw := range events {
		pkt, err := hci.DecodeEvent(raw)
		require.NoError(t, err)
		assert.Equal(t, pkt.Code, results[i].code)
		assert.Equal(t, pkt.Params, results[i].params)
	}
}
