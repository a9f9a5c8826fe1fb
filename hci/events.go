package hci

import (
	"encoding/binary"
	"fmt"
)

// EventPacket is a decoded H4 event packet.
type EventPacket struct {
	// Code is the event code
	Code EventCode

	// Params is the event parameter block
	Params []byte
}

// CommandComplete holds the decoded parameters of a Command Complete event.
type CommandComplete struct {
	// NumPackets is the number of command packets the host may send
	NumPackets byte

	// Opcode is the opcode of the completed command
	Opcode Opcode

	// Status is the first return parameter (all init commands carry one)
	Status Status

	// ReturnParams holds the remaining return parameters after Status
	ReturnParams []byte
}

// CommandStatus holds the decoded parameters of a Command Status event.
type CommandStatus struct {
	Status     Status
	NumPackets byte
	Opcode     Opcode
}

// EncodeEvent constructs an H4 event packet.
//
// Packet structure:
//
//	[INDICATOR][EVENT_CODE][PARAM_LEN][PARAMS...]
func EncodeEvent(code EventCode, params []byte) ([]byte, error) {
	if len(params) > MaxParamSize {
		return nil, fmt.Errorf("params length %d exceeds maximum %d bytes", len(params), MaxParamSize)
	}

	pkt := make([]byte, EventHeaderSize, EventHeaderSize+len(params))
	pkt[0] = PacketTypeEvent
	pkt[1] = byte(code)
	pkt[2] = byte(len(params))

	return append(pkt, params...), nil
}

// DecodeEvent validates an H4 event packet and extracts its code and parameters.
func DecodeEvent(pkt []byte) (*EventPacket, error) {
	if len(pkt) < EventHeaderSize {
		return nil, fmt.Errorf("packet too short: got %d bytes, minimum is %d", len(pkt), EventHeaderSize)
	}

	if pkt[0] != PacketTypeEvent {
		return nil, fmt.Errorf("invalid packet indicator: got 0x%02X, expected 0x%02X", pkt[0], PacketTypeEvent)
	}

	paramLen := int(pkt[2])
	if len(pkt) != EventHeaderSize+paramLen {
		return nil, fmt.Errorf("packet length mismatch: got %d bytes, expected %d (header=%d + params=%d)",
			len(pkt), EventHeaderSize+paramLen, EventHeaderSize, paramLen)
	}

	ev := &EventPacket{Code: EventCode(pkt[1])}
	if paramLen > 0 {
		ev.Params = pkt[EventHeaderSize:]
	}

	return ev, nil
}

// CommandCompleteParams builds the parameter block of a Command Complete event.
//
//	[NUM_PACKETS(1)][OPCODE(2)][STATUS(1)][RETURN_PARAMS...]
func CommandCompleteParams(op Opcode, status Status, returnParams []byte) []byte {
	params := make([]byte, CommandCompleteHeaderSize+1, CommandCompleteHeaderSize+1+len(returnParams))
	params[0] = 1
	binary.LittleEndian.PutUint16(params[1:3], uint16(op))
	params[3] = byte(status)
	return append(params, returnParams...)
}

// ParseCommandComplete parses the parameters of a Command Complete event.
func ParseCommandComplete(params []byte) (*CommandComplete, error) {
	if len(params) < CommandCompleteHeaderSize+1 {
		return nil, fmt.Errorf("invalid data length for Command Complete event: got %d bytes, minimum is %d",
			len(params), CommandCompleteHeaderSize+1)
	}

	cc := &CommandComplete{
		NumPackets: params[0],
		Opcode:     Opcode(binary.LittleEndian.Uint16(params[1:3])),
		Status:     Status(params[3]),
	}
	if len(params) > CommandCompleteHeaderSize+1 {
		cc.ReturnParams = params[CommandCompleteHeaderSize+1:]
	}

	return cc, nil
}

// ParseCommandStatus parses the parameters of a Command Status event.
//
//	[STATUS(1)][NUM_PACKETS(1)][OPCODE(2)]
func ParseCommandStatus(params []byte) (*CommandStatus, error) {
	if len(params) != CommandStatusSize {
		return nil, fmt.Errorf("invalid data length for Command Status event: got %d bytes, expected %d",
			len(params), CommandStatusSize)
	}

	return &CommandStatus{
		Status:     Status(params[0]),
		NumPackets: params[1],
		Opcode:     Opcode(binary.LittleEndian.Uint16(params[2:4])),
	}, nil
}

// ParseLocalVersion parses the return parameters of Read Local Version Information.
//
//	[HCI_VER(1)][HCI_REV(2)][LMP_VER(1)][MANUFACTURER(2)][LMP_SUBVER(2)]
func ParseLocalVersion(data []byte) (*LocalVersion, error) {
	if len(data) != LocalVersionSize {
		return nil, fmt.Errorf("invalid data length for Read Local Version response: got %d bytes, expected %d",
			len(data), LocalVersionSize)
	}

	return &LocalVersion{
		HCIVersion:    data[0],
		HCIRevision:   binary.LittleEndian.Uint16(data[1:3]),
		LMPVersion:    data[3],
		Manufacturer:  binary.LittleEndian.Uint16(data[4:6]),
		LMPSubversion: binary.LittleEndian.Uint16(data[6:8]),
	}, nil
}

// ParseBDAddr parses the return parameters of Read BD_ADDR (least significant byte first).
func ParseBDAddr(data []byte) (BDAddr, error) {
	var addr BDAddr
	if len(data) != BDAddrSize {
		return addr, fmt.Errorf("invalid data length for Read BD_ADDR response: got %d bytes, expected %d",
			len(data), BDAddrSize)
	}

	for i := range addr {
		addr[i] = data[BDAddrSize-1-i]
	}
	return addr, nil
}
