// Package cli implements the hciseq command line.
package cli

import (
	"fmt"
	"io"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/moffa90/go-hciseq/internal/config"
	"github.com/moffa90/go-hciseq/internal/logging"
)

// app carries state shared by every command of one invocation.
type app struct {
	viper      *viper.Viper
	configPath string

	cfg    *config.Config
	logger zerolog.Logger
	closer io.Closer
}

// NewRootCommand builds the hciseq command tree.
func NewRootCommand() *cobra.Command {
	a := &app{viper: viper.New(), logger: zerolog.Nop()}

	root := &cobra.Command{
		Use:           "hciseq",
		Short:         "Run HCI command sequences",
		Long:          "hciseq loads HCI init scripts and runs them through the command sequencer against a simulated controller.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup(cmd)
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			if a.closer != nil {
				return a.closer.Close()
			}
			return nil
		},
	}

	flags := root.PersistentFlags()
	flags.StringVar(&a.configPath, "config", "", "config file (default ./hciseq.yaml)")
	flags.String("log-level", "info", "log level (trace, debug, info, warn, error)")
	flags.String("log-format", "auto", "log format (auto, console, json)")
	flags.String("log-file", "", "also write JSON logs to this rotated file")

	mustBind(a.viper, "log.level", flags.Lookup("log-level"))
	mustBind(a.viper, "log.format", flags.Lookup("log-format"))
	mustBind(a.viper, "log.file", flags.Lookup("log-file"))

	root.AddCommand(newRunCommand(a))
	root.AddCommand(newValidateCommand(a))

	return root
}

// Execute runs the root command with os.Args.
func Execute() error {
	return NewRootCommand().Execute()
}

func (a *app) setup(cmd *cobra.Command) error {
	cfg, err := config.Load(a.viper, a.configPath)
	if err != nil {
		return err
	}
	a.cfg = cfg

	logger, closer, err := logging.New(cfg.Log, cmd.ErrOrStderr())
	if err != nil {
		return fmt.Errorf("create logger: %w", err)
	}
	a.logger = logger.With().Str("command", cmd.Name()).Logger()
	a.closer = closer

	a.logger.Debug().Str("config", a.viper.ConfigFileUsed()).Msg("configuration loaded")
	return nil
}
