package hci

// Packet indicators used on the H4 UART transport.
const (
	// PacketTypeCommand prefixes a command packet sent to the controller
	PacketTypeCommand = 0x01

	// PacketTypeACLData prefixes an ACL data packet
	PacketTypeACLData = 0x02

	// PacketTypeSCOData prefixes a SCO data packet
	PacketTypeSCOData = 0x03

	// PacketTypeEvent prefixes an event packet sent by the controller
	PacketTypeEvent = 0x04
)

// Packet structure constants.
const (
	// CommandHeaderSize is the size of a command packet header:
	// INDICATOR(1) + OPCODE(2) + PARAM_LEN(1)
	CommandHeaderSize = 4

	// EventHeaderSize is the size of an event packet header:
	// INDICATOR(1) + EVENT_CODE(1) + PARAM_LEN(1)
	EventHeaderSize = 3

	// MaxParamSize is the largest parameter block a single length byte can describe
	MaxParamSize = 255
)

// Opcode group fields (OGF).
const (
	OGFLinkControl        = 0x01
	OGFLinkPolicy         = 0x02
	OGFControllerBaseband = 0x03
	OGFInformational      = 0x04
	OGFStatus             = 0x05
	OGFLEController       = 0x08
	OGFVendor             = 0x3F
)

// Opcodes of the commands issued while bringing a controller up.
const (
	// OpSetEventMask selects which events the controller may generate
	OpSetEventMask Opcode = 0x0C01

	// OpReset resets the controller and the link manager
	OpReset Opcode = 0x0C03

	// OpWriteLocalName sets the user-friendly device name
	OpWriteLocalName Opcode = 0x0C13

	// OpWriteScanEnable controls inquiry and page scans
	OpWriteScanEnable Opcode = 0x0C1A

	// OpReadLocalVersion reads the controller version information
	OpReadLocalVersion Opcode = 0x1001

	// OpReadBDAddr reads the public device address
	OpReadBDAddr Opcode = 0x1009

	// OpVSWriteBDAddr overrides the public device address (TI vendor command)
	OpVSWriteBDAddr Opcode = 0xFC06

	// OpVSUpdateUARTBaudRate changes the HCI UART baud rate (TI vendor command)
	OpVSUpdateUARTBaudRate Opcode = 0xFF36
)

// Event codes.
const (
	// EventCommandComplete reports completion of a command with return parameters
	EventCommandComplete EventCode = 0x0E

	// EventCommandStatus reports that a command was accepted and is being processed
	EventCommandStatus EventCode = 0x0F

	// EventHardwareError reports a controller hardware failure
	EventHardwareError EventCode = 0x10

	// EventVendor carries vendor-specific payloads
	EventVendor EventCode = 0xFF
)

// Controller error codes (Core Specification Vol 1, Part F).
const (
	StatusSuccess                Status = 0x00
	StatusUnknownCommand         Status = 0x01
	StatusUnknownConnectionID    Status = 0x02
	StatusHardwareFailure        Status = 0x03
	StatusMemoryCapacityExceeded Status = 0x07
	StatusConnectionTimeout      Status = 0x08
	StatusCommandDisallowed      Status = 0x0C
	StatusUnsupportedFeature     Status = 0x11
	StatusInvalidParameters      Status = 0x12
	StatusUnspecifiedError       Status = 0x1F
	StatusControllerBusy         Status = 0x3A
)

// Return parameter sizes, excluding the leading status byte.
const (
	// LocalVersionSize is the size of Read Local Version Information return parameters
	LocalVersionSize = 8

	// BDAddrSize is the size of a device address
	BDAddrSize = 6

	// CommandCompleteHeaderSize is NUM_PACKETS(1) + OPCODE(2)
	CommandCompleteHeaderSize = 3

	// CommandStatusSize is STATUS(1) + NUM_PACKETS(1) + OPCODE(2)
	CommandStatusSize = 4

	// LocalNameSize is the fixed length of the Write Local Name parameter
	LocalNameSize = 248
)
