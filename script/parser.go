package script

import (
	"bufio"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/moffa90/go-hciseq/hci"
)

// Constants for the hex script format.
const (
	// CommentPrefix starts a comment line
	CommentPrefix = "#"

	// DirectivePrefix starts a header directive line
	DirectivePrefix = "!"

	// LabelSeparator separates an optional command label from its hex packet
	LabelSeparator = "="

	// DefaultCommandCapacity is the initial capacity of the commands slice
	DefaultCommandCapacity = 16
)

// Load reads a script from path, choosing the format by file extension:
// .yaml and .yml are parsed as YAML, anything else as hex lines.
func Load(path string) (*Script, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return LoadYAML(path)
	default:
		return Parse(path)
	}
}

// Parse parses a hex script file from the given file path.
//
// Example:
//
//	s, err := script.Parse("init.hci")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Printf("%d commands for %s core\n", len(s.Commands), s.Core)
func Parse(path string) (*Script, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer func() { _ = f.Close() }()

	s, err := ParseReader(f)
	if err != nil {
		return nil, err
	}

	s.Source = path
	if s.Name == "" {
		s.Name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	return s, nil
}

// ParseReader parses a hex script from any io.Reader.
//
// Each non-blank line is either a comment, a directive or a command:
//
//	# bring-up for the BT core
//	!name bt-init
//	!core bt
//	!suppress_until_last
//	reset = 01 03 0C 00
//	01 01 10 00
//
// On the BT core a command line is a complete H4 command packet. On the FM
// core it is the raw VAC parameter block. Directives must precede the first
// command.
func ParseReader(r io.Reader) (*Script, error) {
	scanner := bufio.NewScanner(r)

	s := &Script{
		Core:     hci.CoreBT,
		Commands: make([]hci.Command, 0, DefaultCommandCapacity),
	}

	lineNum := 0
	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())

		if line == "" || strings.HasPrefix(line, CommentPrefix) {
			continue
		}

		if strings.HasPrefix(line, DirectivePrefix) {
			if len(s.Commands) > 0 {
				return nil, fmt.Errorf("line %d: directive after first command", lineNum)
			}
			if err := parseDirective(s, line[len(DirectivePrefix):]); err != nil {
				return nil, fmt.Errorf("line %d: %w", lineNum, err)
			}
			continue
		}

		cmd, err := parseCommandLine(line, s.Core)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", lineNum, err)
		}
		s.Commands = append(s.Commands, cmd)
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}

	if len(s.Commands) == 0 {
		return nil, fmt.Errorf("no commands found in file")
	}

	return s, nil
}

// parseDirective applies one "!key value" header line to s.
func parseDirective(s *Script, directive string) error {
	key, value, _ := strings.Cut(strings.TrimSpace(directive), " ")
	value = strings.TrimSpace(value)

	switch strings.ToLower(key) {
	case "name":
		if value == "" {
			return fmt.Errorf("name directive requires a value")
		}
		s.Name = value
	case "core":
		core, err := hci.ParseCore(strings.ToLower(value))
		if err != nil {
			return err
		}
		s.Core = core
	case "suppress_until_last":
		s.SuppressUntilLast = true
	default:
		return fmt.Errorf("unknown directive %q", key)
	}
	return nil
}

// parseCommandLine parses "[label =] hex" into a command for core.
func parseCommandLine(line string, core hci.Core) (hci.Command, error) {
	label := ""
	if before, after, found := strings.Cut(line, LabelSeparator); found {
		label = strings.TrimSpace(before)
		line = after
		if label == "" {
			return hci.Command{}, fmt.Errorf("empty label")
		}
	}

	data, err := hex.DecodeString(strings.Join(strings.Fields(line), ""))
	if err != nil {
		return hci.Command{}, fmt.Errorf("invalid hex data: %w", err)
	}

	var cmd hci.Command
	if core == hci.CoreFM {
		if len(data) == 0 {
			return hci.Command{}, fmt.Errorf("empty VAC command")
		}
		if len(data) > hci.MaxParamSize {
			return hci.Command{}, fmt.Errorf("VAC command too long: %d bytes, maximum is %d", len(data), hci.MaxParamSize)
		}
		cmd = hci.Command{Params: data, CompletionEvent: hci.EventCommandComplete}
		if label == "" {
			label = "vac"
		}
	} else {
		cmd, err = hci.DecodeCommand(data)
		if err != nil {
			return hci.Command{}, err
		}
		if label == "" {
			label = cmd.Opcode.String()
		}
	}

	cmd.Name = label
	return cmd, nil
}
