package cli

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/moffa90/go-hciseq/hci"
	"github.com/moffa90/go-hciseq/internal/logging"
	"github.com/moffa90/go-hciseq/script"
	"github.com/moffa90/go-hciseq/sequencer"
	"github.com/moffa90/go-hciseq/simulator"
)

// ErrCommandsFailed is returned by run when any command completed with a failure.
var ErrCommandsFailed = errors.New("commands failed")

type runOptions struct {
	suppress bool
	failures []string
	rejects  []string
}

// step is the user data attached to every slot run by the CLI.
type step struct {
	n   int
	cmd hci.Command
}

func newRunCommand(a *app) *cobra.Command {
	opts := &runOptions{}

	cmd := &cobra.Command{
		Use:   "run SCRIPT...",
		Short: "Run scripts against the simulated controller",
		Long: `Run loads each script, sends its commands through a sequencer and prints
every completion. Scripts run one after another, each against a fresh
simulated controller.`,
		Example: `  hciseq run init.hci
  hciseq run --suppress --latency 20ms bt-init.yaml fm-init.yaml
  hciseq run --fail-opcode 0x1001=0x03 --abort-on-error init.hci`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runScripts(cmd.Context(), cmd.OutOrStdout(), args, opts)
		},
	}

	flags := cmd.Flags()
	flags.BoolVar(&opts.suppress, "suppress", false, "report only the last command of each script")
	flags.StringSliceVar(&opts.failures, "fail-opcode", nil, "complete OPCODE[=STATUS] with a controller error (repeatable)")
	flags.StringSliceVar(&opts.rejects, "reject-opcode", nil, "make sends of OPCODE fail immediately (repeatable)")
	flags.Duration("latency", 0, "simulated completion latency")
	flags.Duration("timeout", 0, "maximum time to wait for each script")
	flags.Bool("abort-on-error", false, "stop a script at its first failed command")
	flags.String("bd-addr", "", "initial simulated device address")

	mustBind(a.viper, "simulator.latency", flags.Lookup("latency"))
	mustBind(a.viper, "sequencer.timeout", flags.Lookup("timeout"))
	mustBind(a.viper, "sequencer.abort_on_error", flags.Lookup("abort-on-error"))
	mustBind(a.viper, "simulator.bd_addr", flags.Lookup("bd-addr"))

	return cmd
}

func (a *app) runScripts(ctx context.Context, out io.Writer, paths []string, opts *runOptions) error {
	scripts := make([]*script.Script, 0, len(paths))
	for _, path := range paths {
		s, err := script.Load(path)
		if err != nil {
			return err
		}
		if err := s.Validate(sequencer.MaxCommands); err != nil {
			return err
		}
		scripts = append(scripts, s)
	}

	failed := 0
	for _, s := range scripts {
		if opts.suppress {
			s.SuppressUntilLast = true
		}

		n, err := a.runScript(ctx, out, s, opts)
		if err != nil {
			return err
		}
		failed += n
	}

	if failed > 0 {
		return fmt.Errorf("%w: %d", ErrCommandsFailed, failed)
	}
	return nil
}

// runScript runs one script and returns the number of failed commands.
func (a *app) runScript(ctx context.Context, out io.Writer, s *script.Script, opts *runOptions) (int, error) {
	ctrl, err := a.newController(opts)
	if err != nil {
		return 0, err
	}
	defer func() { _ = ctrl.Close() }()

	loopCtx, stopLoop := context.WithCancel(context.Background())
	loop := sequencer.NewLoop(a.cfg.Sequencer.LoopQueueSize)
	loopDone := make(chan struct{})
	go func() {
		defer close(loopDone)
		_ = loop.Run(loopCtx)
	}()
	defer func() {
		stopLoop()
		<-loopDone
	}()

	seqOpts := []sequencer.Option{
		sequencer.WithLogger(logging.NewSequencerLogger(a.logger, s.Core.String())),
	}
	if a.cfg.Sequencer.AbortOnError {
		seqOpts = append(seqOpts, sequencer.WithAbortOnError())
	}

	var seq *sequencer.Sequencer
	if s.Core == hci.CoreFM {
		seq, err = sequencer.NewFM(loop.VACTransport(ctrl), seqOpts...)
	} else {
		seq, err = sequencer.NewBT(loop.ClientTransport(ctrl), seqOpts...)
	}
	if err != nil {
		return 0, fmt.Errorf("script %s: %w", s.Name, err)
	}

	total := len(s.Commands)
	failed := 0
	finished := false
	done := make(chan struct{})

	onStep := func(ev *sequencer.Event) {
		st := ev.UserData.(step)
		if ev.Status != sequencer.StatusSuccess {
			failed++
		}
		fmt.Fprintf(out, "  [%d/%d] %-24s %s  %s%s\n",
			st.n, total, st.cmd.Name, st.cmd.Opcode, ev.Status, describe(st.cmd, ev))

		if idx, count := seq.Position(); !finished && (count == 0 || idx == count) {
			finished = true
			close(done)
		}
	}

	slots := make([]sequencer.CommandSlot, total)
	for i, cmd := range s.Commands {
		slots[i] = sequencer.SlotFor(cmd, onStep, step{n: i + 1, cmd: cmd})
	}

	fmt.Fprintf(out, "%s: %d commands on %s core\n", s.Name, total, s.Core)
	a.logger.Info().
		Str("script", s.Name).
		Str("source", s.Source).
		Str("core", s.Core.String()).
		Int("commands", total).
		Bool("suppress_until_last", s.SuppressUntilLast).
		Msg("running script")

	runCtx, cancel := context.WithTimeout(ctx, a.cfg.Sequencer.Timeout)
	defer cancel()

	var status sequencer.Status
	var runErr error
	if err := loop.Do(runCtx, func() { status, runErr = seq.Run(slots, s.SuppressUntilLast) }); err != nil {
		return 0, err
	}
	if runErr != nil {
		return 0, fmt.Errorf("script %s: %w", s.Name, runErr)
	}

	if status != sequencer.StatusPending {
		fmt.Fprintf(out, "  [1/%d] %-24s %s  %s\n", total, s.Commands[0].Name, s.Commands[0].Opcode, status)
		failed = 1
	} else {
		select {
		case <-done:
		case <-runCtx.Done():
			_ = loop.Do(context.Background(), seq.Cancel)
			return 0, fmt.Errorf("script %s: timed out after %s", s.Name, a.cfg.Sequencer.Timeout)
		}
	}

	var destroyErr error
	if err := loop.Do(context.Background(), func() { destroyErr = seq.Destroy() }); err != nil {
		return 0, err
	}
	if destroyErr != nil {
		return 0, fmt.Errorf("script %s: %w", s.Name, destroyErr)
	}

	fmt.Fprintf(out, "%s: done, %d failed\n", s.Name, failed)
	a.logger.Info().Str("script", s.Name).Int("failed", failed).Msg("script finished")
	return failed, nil
}

func (a *app) newController(opts *runOptions) (*simulator.Controller, error) {
	simOpts := []simulator.Option{
		simulator.WithLatency(a.cfg.Simulator.Latency),
		simulator.WithLogger(a.logger),
	}
	if a.cfg.Simulator.BDAddr != "" {
		addr, err := hci.ParseBDAddrString(a.cfg.Simulator.BDAddr)
		if err != nil {
			return nil, err
		}
		simOpts = append(simOpts, simulator.WithBDAddr(addr))
	}

	ctrl := simulator.New(simOpts...)

	for _, f := range opts.failures {
		op, status, err := parseFailure(f)
		if err != nil {
			_ = ctrl.Close()
			return nil, fmt.Errorf("--fail-opcode: %w", err)
		}
		ctrl.FailOpcode(op, status)
	}
	for _, r := range opts.rejects {
		op, err := parseOpcode(r)
		if err != nil {
			_ = ctrl.Close()
			return nil, fmt.Errorf("--reject-opcode: %w", err)
		}
		ctrl.RejectOpcode(op, sequencer.StatusFailed)
	}

	return ctrl, nil
}

// describe renders the interesting part of a completion event.
func describe(cmd hci.Command, ev *sequencer.Event) string {
	if ev.Code != hci.EventCommandComplete || len(ev.Params) == 0 {
		return ""
	}

	cc, err := hci.ParseCommandComplete(ev.Params)
	if err != nil {
		return ""
	}
	if cc.Status != hci.StatusSuccess {
		se := &hci.StatusError{Operation: cmd.Name, Opcode: cc.Opcode, Status: cc.Status}
		return "  (" + se.Error() + ")"
	}

	switch cc.Opcode {
	case hci.OpReadLocalVersion:
		if v, err := hci.ParseLocalVersion(cc.ReturnParams); err == nil {
			return fmt.Sprintf("  (hci %d rev 0x%04X, manufacturer 0x%04X, subversion 0x%04X)",
				v.HCIVersion, v.HCIRevision, v.Manufacturer, v.LMPSubversion)
		}
	case hci.OpReadBDAddr:
		if addr, err := hci.ParseBDAddr(cc.ReturnParams); err == nil {
			return "  (" + addr.String() + ")"
		}
	}
	return ""
}
