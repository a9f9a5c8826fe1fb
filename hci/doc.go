// Package hci implements the parts of the Bluetooth Host Controller Interface
// needed to bring a controller up: opcodes, event codes, controller status codes,
// and the H4 packet encoding of commands and events.
//
// # Packet Overview
//
// On an H4 UART link every packet starts with a one-byte indicator:
//
//	Command: [0x01][OPCODE_L][OPCODE_H][PARAM_LEN][PARAMS...]
//	Event:   [0x04][EVENT_CODE][PARAM_LEN][PARAMS...]
//
// Opcodes are little-endian on the wire and split into a 6-bit group (OGF)
// and a 10-bit command field (OCF).
//
// # Command Builders
//
// Use the builder functions to create commands for a sequence:
//
//	cmds := []hci.Command{
//	    hci.Reset(),
//	    hci.SetEventMask(0x3DBFF807FFFBFFFF),
//	    hci.ReadLocalVersion(),
//	}
//
// EncodeCommand turns a Command into the packet bytes:
//
//	pkt, err := hci.EncodeCommand(hci.Reset())
//	// pkt == []byte{0x01, 0x03, 0x0C, 0x00}
//
// # Completion Events
//
// Most initialization commands complete with a Command Complete event:
//
//	ev, err := hci.DecodeEvent(pkt)
//	cc, err := hci.ParseCommandComplete(ev.Params)
//	if cc.Status != hci.StatusSuccess {
//	    return &hci.StatusError{Opcode: cc.Opcode, Status: cc.Status}
//	}
//	ver, err := hci.ParseLocalVersion(cc.ReturnParams)
package hci
