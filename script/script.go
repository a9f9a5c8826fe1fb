package script

import (
	"fmt"

	"github.com/moffa90/go-hciseq/hci"
)

// Script is a parsed init script: an ordered list of commands for one core.
type Script struct {
	// Name identifies the script in logs and CLI output
	Name string

	// Core selects the transport the script is meant for
	Core hci.Core

	// SuppressUntilLast reports only the final command's completion
	SuppressUntilLast bool

	// Commands are sent in order
	Commands []hci.Command

	// Source is the path the script was loaded from
	Source string
}

// Validate checks that the script has at least one and at most max commands.
func (s *Script) Validate(max int) error {
	if len(s.Commands) == 0 {
		return fmt.Errorf("script %q: no commands", s.Name)
	}
	if max > 0 && len(s.Commands) > max {
		return fmt.Errorf("script %q: %d commands, maximum is %d", s.Name, len(s.Commands), max)
	}
	for i, cmd := range s.Commands {
		if len(cmd.Params) > hci.MaxParamSize {
			return fmt.Errorf("script %q: command %d (%s): params too long: %d bytes", s.Name, i+1, cmd.Name, len(cmd.Params))
		}
	}
	return nil
}
