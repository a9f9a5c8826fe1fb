package hci

import (
	"fmt"
	"strconv"
	"strings"
)

// Opcode is a 16-bit HCI command opcode: OGF in the upper 6 bits, OCF in the lower 10.
type Opcode uint16

// NewOpcode composes an opcode from its group and command fields.
func NewOpcode(ogf uint8, ocf uint16) Opcode {
	return Opcode(uint16(ogf&0x3F)<<10 | ocf&0x03FF)
}

// OGF returns the opcode group field.
func (o Opcode) OGF() uint8 {
	return uint8(o >> 10)
}

// OCF returns the opcode command field.
func (o Opcode) OCF() uint16 {
	return uint16(o) & 0x03FF
}

// IsVendor reports whether the opcode belongs to the vendor-specific group.
func (o Opcode) IsVendor() bool {
	return o.OGF() == OGFVendor
}

func (o Opcode) String() string {
	return fmt.Sprintf("0x%04X", uint16(o))
}

// EventCode identifies an HCI event.
type EventCode uint8

func (e EventCode) String() string {
	switch e {
	case EventCommandComplete:
		return "command_complete"
	case EventCommandStatus:
		return "command_status"
	case EventHardwareError:
		return "hardware_error"
	case EventVendor:
		return "vendor"
	default:
		return fmt.Sprintf("event_0x%02X", uint8(e))
	}
}

// ParseEventCode resolves an event name as produced by EventCode.String.
func ParseEventCode(name string) (EventCode, error) {
	switch name {
	case "", "command_complete":
		return EventCommandComplete, nil
	case "command_status":
		return EventCommandStatus, nil
	case "hardware_error":
		return EventHardwareError, nil
	case "vendor":
		return EventVendor, nil
	}
	if hexCode, ok := strings.CutPrefix(name, "event_0x"); ok {
		code, err := strconv.ParseUint(hexCode, 16, 8)
		if err == nil {
			return EventCode(code), nil
		}
	}
	return 0, fmt.Errorf("unknown event %q", name)
}

// Status is a controller error code carried in command completion events.
type Status uint8

func (s Status) String() string {
	return getStatusName(s)
}

// Core selects which controller core a command sequence targets.
type Core int

const (
	// CoreBT is the Bluetooth core, reached through a registered HCI client
	CoreBT Core = iota

	// CoreFM is the FM core, reached through the one-shot VAC transport
	CoreFM
)

func (c Core) String() string {
	switch c {
	case CoreBT:
		return "bt"
	case CoreFM:
		return "fm"
	default:
		return fmt.Sprintf("core(%d)", int(c))
	}
}

// ParseCore resolves a core name ("bt" or "fm").
func ParseCore(name string) (Core, error) {
	switch name {
	case "", "bt":
		return CoreBT, nil
	case "fm":
		return CoreFM, nil
	}
	return 0, fmt.Errorf("unknown core %q", name)
}

// Command is a fully described HCI command.
type Command struct {
	// Name is an optional label used in logs and scripts
	Name string

	// Opcode is the command opcode
	Opcode Opcode

	// Params is the parameter block (at most MaxParamSize bytes)
	Params []byte

	// CompletionEvent is the event that completes the command
	CompletionEvent EventCode
}

// LocalVersion contains the controller version information.
// Returned by the Read Local Version Information command.
type LocalVersion struct {
	// HCIVersion is the HCI version number
	HCIVersion byte

	// HCIRevision is the HCI revision
	HCIRevision uint16

	// LMPVersion is the link manager version
	LMPVersion byte

	// Manufacturer is the company identifier
	Manufacturer uint16

	// LMPSubversion is the vendor-specific subversion
	LMPSubversion uint16
}

// BDAddr is a device address, stored most significant byte first.
type BDAddr [BDAddrSize]byte

func (a BDAddr) String() string {
	return fmt.Sprintf("%02X:%02X:%02X:%02X:%02X:%02X", a[0], a[1], a[2], a[3], a[4], a[5])
}

// ParseBDAddrString parses an address written as six colon-separated hex
// bytes, most significant first ("00:17:E9:00:00:01").
func ParseBDAddrString(s string) (BDAddr, error) {
	var addr BDAddr

	parts := strings.Split(s, ":")
	if len(parts) != BDAddrSize {
		return addr, fmt.Errorf("invalid BD_ADDR %q: expected %d colon-separated bytes", s, BDAddrSize)
	}

	for i, part := range parts {
		if len(part) != 2 {
			return addr, fmt.Errorf("invalid BD_ADDR %q: byte %d must be two hex digits", s, i+1)
		}
		b, err := strconv.ParseUint(part, 16, 8)
		if err != nil {
			return addr, fmt.Errorf("invalid BD_ADDR %q: %w", s, err)
		}
		addr[i] = byte(b)
	}
	return addr, nil
}
