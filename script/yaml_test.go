package script

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/moffa90/go-hciseq/hci"
)

func TestParseYAML(t *testing.T) {
	data := []byte(`
name: bt-init
core: bt
suppress_until_last: true
commands:
  - name: reset
  - name: read_local_version
  - name: write_scan_enable
    opcode: "0x0C1A"
    params: "03"
  - opcode: "0xFF36"
    params: "00 C2 01 00"
    event: command_status
  - name: vendor_event
    opcode: "64512"
    event: event_0x3E
`)

	s, err := ParseYAML(data)
	require.NoError(t, err)

	assert.Equal(t, "bt-init", s.Name)
	assert.Equal(t, hci.CoreBT, s.Core)
	assert.True(t, s.SuppressUntilLast)

	want := []hci.Command{
		{Name: "reset", Opcode: hci.OpReset, CompletionEvent: hci.EventCommandComplete},
		{Name: "read_local_version", Opcode: hci.OpReadLocalVersion, CompletionEvent: hci.EventCommandComplete},
		{Name: "write_scan_enable", Opcode: hci.OpWriteScanEnable, Params: []byte{0x03}, CompletionEvent: hci.EventCommandComplete},
		{Name: "0xFF36", Opcode: hci.OpVSUpdateUARTBaudRate, Params: []byte{0x00, 0xC2, 0x01, 0x00}, CompletionEvent: hci.EventCommandStatus},
		{Name: "vendor_event", Opcode: hci.Opcode(0xFC00), CompletionEvent: hci.EventCode(0x3E)},
	}
	assert.Equal(t, want, s.Commands)
}

func TestParseYAMLFM(t *testing.T) {
	data := []byte(`
core: FM
commands:
  - name: power_on
    params: "01 01"
  - params: "02"
`)

	s, err := ParseYAML(data)
	require.NoError(t, err)

	assert.Equal(t, hci.CoreFM, s.Core)
	require.Len(t, s.Commands, 2)
	assert.Equal(t, "power_on", s.Commands[0].Name)
	assert.Equal(t, []byte{0x01, 0x01}, s.Commands[0].Params)
	assert.Equal(t, "0x0000", s.Commands[1].Name)
	assert.Equal(t, []byte{0x02}, s.Commands[1].Params)
}

func TestParseYAMLErrors(t *testing.T) {
	tests := []struct {
		name   string
		data   string
		errMsg string
	}{
		{name: "malformed", data: "commands: [", errMsg: "yaml"},
		{name: "no commands", data: "name: x\n", errMsg: "script commands are required"},
		{name: "bad core", data: "core: wifi\ncommands:\n  - name: reset\n", errMsg: "unknown core"},
		{name: "unknown builtin", data: "commands:\n  - name: reset\n  - name: frobnicate\n", errMsg: "script command 2: opcode is required"},
		{name: "bad opcode", data: "commands:\n  - opcode: \"0x1FFFF\"\n", errMsg: "invalid opcode"},
		{name: "bad params", data: "commands:\n  - name: reset\n    params: \"0G\"\n", errMsg: "invalid params"},
		{name: "bad event", data: "commands:\n  - name: reset\n    event: nope\n", errMsg: "unknown event"},
		{name: "fm without params", data: "core: fm\ncommands:\n  - name: tune\n", errMsg: "VAC command params are required"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseYAML([]byte(tt.data))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errMsg)
		})
	}
}

func TestLoadYAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "init.yaml")
	require.NoError(t, os.WriteFile(path, []byte("name: custom\ncommands:\n  - name: read_bd_addr\n"), 0o644))

	s, err := LoadYAML(path)
	require.NoError(t, err)
	assert.Equal(t, "custom", s.Name)
	assert.Equal(t, path, s.Source)
	assert.Equal(t, hci.OpReadBDAddr, s.Commands[0].Opcode)

	_, err = LoadYAML("")
	assert.EqualError(t, err, "script path is required")

	_, err = LoadYAML(filepath.Join(dir, "missing.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "read script")
}
