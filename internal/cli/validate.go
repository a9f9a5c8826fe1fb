package cli

import (
	"encoding/hex"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/moffa90/go-hciseq/hci"
	"github.com/moffa90/go-hciseq/script"
	"github.com/moffa90/go-hciseq/sequencer"
)

func newValidateCommand(a *app) *cobra.Command {
	var quiet bool

	cmd := &cobra.Command{
		Use:   "validate SCRIPT...",
		Short: "Check scripts and list their commands",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			for _, path := range args {
				s, err := script.Load(path)
				if err != nil {
					return err
				}
				if err := s.Validate(sequencer.MaxCommands); err != nil {
					return err
				}

				a.logger.Debug().Str("script", s.Name).Str("source", s.Source).Msg("script valid")
				if quiet {
					continue
				}
				if err := printScript(cmd.OutOrStdout(), s); err != nil {
					return err
				}
			}
			return nil
		},
	}

	cmd.Flags().BoolVarP(&quiet, "quiet", "q", false, "only report errors")
	return cmd
}

func printScript(w io.Writer, s *script.Script) error {
	suppress := ""
	if s.SuppressUntilLast {
		suppress = ", last completion only"
	}
	fmt.Fprintf(w, "%s: %d commands on %s core%s\n", s.Name, len(s.Commands), s.Core, suppress)

	for i, cmd := range s.Commands {
		wire := cmd.Params
		if s.Core == hci.CoreBT {
			pkt, err := hci.EncodeCommand(cmd)
			if err != nil {
				return fmt.Errorf("%s: command %d: %w", s.Name, i+1, err)
			}
			wire = pkt
		}
		fmt.Fprintf(w, "  %2d  %-24s %s  %-16s %s\n",
			i+1, cmd.Name, cmd.Opcode, cmd.CompletionEvent, hex.EncodeToString(wire))
	}
	return nil
}
