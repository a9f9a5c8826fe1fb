package hci

import (
	"encoding/binary"
	"fmt"
)

// EncodeCommand constructs an H4 command packet for cmd.
//
// Packet structure:
//
//	[INDICATOR][OPCODE_L][OPCODE_H][PARAM_LEN][PARAMS...]
//
// Returns the complete packet ready to send, or an error if the parameters are too long.
func EncodeCommand(cmd Command) ([]byte, error) {
	if len(cmd.Params) > MaxParamSize {
		return nil, fmt.Errorf("params length %d exceeds maximum %d bytes", len(cmd.Params), MaxParamSize)
	}

	pkt := make([]byte, CommandHeaderSize, CommandHeaderSize+len(cmd.Params))
	pkt[0] = PacketTypeCommand
	binary.LittleEndian.PutUint16(pkt[1:3], uint16(cmd.Opcode))
	pkt[3] = byte(len(cmd.Params))

	return append(pkt, cmd.Params...), nil
}

// DecodeCommand parses an H4 command packet.
// The returned command's CompletionEvent defaults to EventCommandComplete.
func DecodeCommand(pkt []byte) (Command, error) {
	if len(pkt) < CommandHeaderSize {
		return Command{}, fmt.Errorf("packet too short: got %d bytes, minimum is %d", len(pkt), CommandHeaderSize)
	}

	if pkt[0] != PacketTypeCommand {
		return Command{}, fmt.Errorf("invalid packet indicator: got 0x%02X, expected 0x%02X", pkt[0], PacketTypeCommand)
	}

	paramLen := int(pkt[3])
	if len(pkt) != CommandHeaderSize+paramLen {
		return Command{}, fmt.Errorf("packet length mismatch: got %d bytes, expected %d (header=%d + params=%d)",
			len(pkt), CommandHeaderSize+paramLen, CommandHeaderSize, paramLen)
	}

	cmd := Command{
		Opcode:          Opcode(binary.LittleEndian.Uint16(pkt[1:3])),
		CompletionEvent: EventCommandComplete,
	}
	if paramLen > 0 {
		cmd.Params = make([]byte, paramLen)
		copy(cmd.Params, pkt[CommandHeaderSize:])
	}

	return cmd, nil
}

// Reset builds the HCI_Reset command.
func Reset() Command {
	return Command{Name: "reset", Opcode: OpReset, CompletionEvent: EventCommandComplete}
}

// ReadLocalVersion builds the HCI_Read_Local_Version_Information command.
func ReadLocalVersion() Command {
	return Command{Name: "read_local_version", Opcode: OpReadLocalVersion, CompletionEvent: EventCommandComplete}
}

// ReadBDAddr builds the HCI_Read_BD_ADDR command.
func ReadBDAddr() Command {
	return Command{Name: "read_bd_addr", Opcode: OpReadBDAddr, CompletionEvent: EventCommandComplete}
}

// SetEventMask builds the HCI_Set_Event_Mask command.
//
// Parameters (8 bytes, little-endian):
//
//	[EVENT_MASK(8)]
func SetEventMask(mask uint64) Command {
	params := make([]byte, 8)
	binary.LittleEndian.PutUint64(params, mask)
	return Command{Name: "set_event_mask", Opcode: OpSetEventMask, Params: params, CompletionEvent: EventCommandComplete}
}

// WriteLocalName builds the HCI_Write_Local_Name command.
// The name is NUL-padded to LocalNameSize bytes; longer names are rejected.
func WriteLocalName(name string) (Command, error) {
	if len(name) > LocalNameSize {
		return Command{}, fmt.Errorf("name length %d exceeds maximum %d bytes", len(name), LocalNameSize)
	}

	params := make([]byte, LocalNameSize)
	copy(params, name)
	return Command{Name: "write_local_name", Opcode: OpWriteLocalName, Params: params, CompletionEvent: EventCommandComplete}, nil
}

// WriteScanEnable builds the HCI_Write_Scan_Enable command.
//
//	0x00 no scans, 0x01 inquiry scan, 0x02 page scan, 0x03 both
func WriteScanEnable(mode byte) (Command, error) {
	if mode > 0x03 {
		return Command{}, fmt.Errorf("invalid scan enable mode 0x%02X (must be 0x00-0x03)", mode)
	}
	return Command{Name: "write_scan_enable", Opcode: OpWriteScanEnable, Params: []byte{mode}, CompletionEvent: EventCommandComplete}, nil
}

// VSWriteBDAddr builds the vendor command overriding the device address.
// The address is sent least significant byte first.
func VSWriteBDAddr(addr BDAddr) Command {
	params := make([]byte, BDAddrSize)
	for i := range addr {
		params[i] = addr[BDAddrSize-1-i]
	}
	return Command{Name: "vs_write_bd_addr", Opcode: OpVSWriteBDAddr, Params: params, CompletionEvent: EventCommandComplete}
}

// VSUpdateUARTBaudRate builds the vendor command changing the HCI UART speed.
//
// Parameters (4 bytes, little-endian):
//
//	[BAUD_RATE(4)]
func VSUpdateUARTBaudRate(baud uint32) (Command, error) {
	if baud == 0 {
		return Command{}, fmt.Errorf("baud rate cannot be zero")
	}
	params := make([]byte, 4)
	binary.LittleEndian.PutUint32(params, baud)
	return Command{Name: "vs_update_uart_baud_rate", Opcode: OpVSUpdateUARTBaudRate, Params: params, CompletionEvent: EventCommandComplete}, nil
}
