// Package script loads HCI init scripts: ordered command lists that are
// handed to a sequencer.
//
// # Hex Format
//
// A hex script is line based. Blank lines and lines starting with '#' are
// ignored. Lines starting with '!' are header directives and must precede the
// first command:
//
//	!name bt-init
//	!core bt
//	!suppress_until_last
//
// Every other line is one command, optionally labelled:
//
//	reset = 01 03 0C 00
//	01 1A 0C 01 03
//
// For the BT core a command is a complete H4 command packet
// [0x01][opcode LE][param len][params]. For the FM core it is the raw VAC
// parameter block. Whitespace inside the hex is ignored.
//
// # YAML Format
//
//	name: bt-init
//	core: bt
//	suppress_until_last: false
//	commands:
//	  - name: reset
//	  - name: write_scan_enable
//	    opcode: "0x0C1A"
//	    params: "03"
//	    event: command_complete
//
// reset, read_local_version and read_bd_addr may be given by name alone.
//
// # Usage
//
//	s, err := script.Load("init.yaml")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	if err := s.Validate(sequencer.MaxCommands); err != nil {
//	    log.Fatal(err)
//	}
//
// Parse errors carry the offending line number (hex) or command index (YAML).
package script
