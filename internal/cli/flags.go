package cli

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/moffa90/go-hciseq/hci"
)

func mustBind(v *viper.Viper, key string, flag *pflag.Flag) {
	if err := v.BindPFlag(key, flag); err != nil {
		panic(fmt.Sprintf("bind flag %s: %v", key, err))
	}
}

// parseOpcode accepts decimal or 0x-prefixed hex.
func parseOpcode(s string) (hci.Opcode, error) {
	v, err := strconv.ParseUint(strings.TrimSpace(s), 0, 16)
	if err != nil {
		return 0, fmt.Errorf("invalid opcode %q", s)
	}
	return hci.Opcode(v), nil
}

// parseFailure parses OPCODE[=STATUS]. STATUS defaults to unspecified error.
func parseFailure(s string) (hci.Opcode, hci.Status, error) {
	opText, statusText, hasStatus := strings.Cut(s, "=")

	op, err := parseOpcode(opText)
	if err != nil {
		return 0, 0, err
	}

	status := hci.StatusUnspecifiedError
	if hasStatus {
		v, err := strconv.ParseUint(strings.TrimSpace(statusText), 0, 8)
		if err != nil {
			return 0, 0, fmt.Errorf("invalid status %q", statusText)
		}
		status = hci.Status(v)
	}
	if status == hci.StatusSuccess {
		return 0, 0, fmt.Errorf("failure status for %s must not be success", op)
	}

	return op, status, nil
}
