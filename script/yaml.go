package script

import (
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/moffa90/go-hciseq/hci"
)

// yamlScript is the on-disk YAML layout.
type yamlScript struct {
	Name              string        `yaml:"name"`
	Core              string        `yaml:"core"`
	SuppressUntilLast bool          `yaml:"suppress_until_last"`
	Commands          []yamlCommand `yaml:"commands"`
}

type yamlCommand struct {
	Name   string `yaml:"name"`
	Opcode string `yaml:"opcode"`
	Params string `yaml:"params"`
	Event  string `yaml:"event"`
}

// builtinCommands are the parameterless commands a YAML entry may name
// without giving an opcode.
var builtinCommands = map[string]func() hci.Command{
	"reset":              hci.Reset,
	"read_local_version": hci.ReadLocalVersion,
	"read_bd_addr":       hci.ReadBDAddr,
}

// LoadYAML reads a YAML script from disk.
//
// Example file:
//
//	name: bt-init
//	core: bt
//	suppress_until_last: true
//	commands:
//	  - name: reset
//	  - name: write_scan_enable
//	    opcode: 0x0C1A
//	    params: "03"
func LoadYAML(path string) (*Script, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("script path is required")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read script %s: %w", path, err)
	}

	s, err := ParseYAML(data)
	if err != nil {
		return nil, fmt.Errorf("parse script %s: %w", path, err)
	}

	s.Source = path
	if s.Name == "" {
		s.Name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	return s, nil
}

// ParseYAML parses a YAML script document.
func ParseYAML(data []byte) (*Script, error) {
	var raw yamlScript
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, err
	}

	core, err := hci.ParseCore(strings.ToLower(strings.TrimSpace(raw.Core)))
	if err != nil {
		return nil, err
	}

	if len(raw.Commands) == 0 {
		return nil, fmt.Errorf("script commands are required")
	}

	s := &Script{
		Name:              strings.TrimSpace(raw.Name),
		Core:              core,
		SuppressUntilLast: raw.SuppressUntilLast,
		Commands:          make([]hci.Command, 0, len(raw.Commands)),
	}

	for i := range raw.Commands {
		cmd, err := normalizeCommand(&raw.Commands[i], core)
		if err != nil {
			return nil, fmt.Errorf("script command %d: %w", i+1, err)
		}
		s.Commands = append(s.Commands, cmd)
	}

	return s, nil
}

func normalizeCommand(raw *yamlCommand, core hci.Core) (hci.Command, error) {
	name := strings.TrimSpace(raw.Name)
	opcode := strings.TrimSpace(raw.Opcode)

	params, err := hex.DecodeString(strings.Join(strings.Fields(raw.Params), ""))
	if err != nil {
		return hci.Command{}, fmt.Errorf("invalid params: %w", err)
	}
	if len(params) > hci.MaxParamSize {
		return hci.Command{}, fmt.Errorf("params too long: %d bytes, maximum is %d", len(params), hci.MaxParamSize)
	}

	event, err := hci.ParseEventCode(strings.TrimSpace(raw.Event))
	if err != nil {
		return hci.Command{}, err
	}

	var cmd hci.Command
	switch {
	case opcode != "":
		op, err := strconv.ParseUint(opcode, 0, 16)
		if err != nil {
			return hci.Command{}, fmt.Errorf("invalid opcode %q: %w", opcode, err)
		}
		cmd = hci.Command{Opcode: hci.Opcode(op)}
	case core == hci.CoreFM:
		if len(params) == 0 {
			return hci.Command{}, fmt.Errorf("VAC command params are required")
		}
	default:
		build, ok := builtinCommands[name]
		if !ok {
			return hci.Command{}, fmt.Errorf("opcode is required for %q", name)
		}
		cmd = build()
	}

	if name == "" {
		name = cmd.Opcode.String()
	}
	cmd.Name = name
	if len(params) > 0 {
		cmd.Params = params
	}
	cmd.CompletionEvent = event

	return cmd, nil
}
