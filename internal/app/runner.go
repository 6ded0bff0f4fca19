// Package app wires the CLI surface: the cobra command tree, configuration
// loading, and the per-wallet run loop that drives the task interpreter.
package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"math/rand"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/keremd/chainrunner/internal/actions"
	"github.com/keremd/chainrunner/internal/config"
	clierr "github.com/keremd/chainrunner/internal/errors"
	"github.com/keremd/chainrunner/internal/exchange/okx"
	"github.com/keremd/chainrunner/internal/execution"
	"github.com/keremd/chainrunner/internal/journal"
	"github.com/keremd/chainrunner/internal/logging"
	"github.com/keremd/chainrunner/internal/prompt"
	"github.com/keremd/chainrunner/internal/task"
	"github.com/keremd/chainrunner/internal/wallet"
	"github.com/spf13/cobra"
)

type Runner struct {
	stdout io.Writer
	stderr io.Writer
	stdin  io.Reader
	now    func() time.Time
}

func NewRunner() *Runner {
	return NewRunnerWithWriters(os.Stdout, os.Stderr)
}

func NewRunnerWithWriters(stdout, stderr io.Writer) *Runner {
	return &Runner{
		stdout: stdout,
		stderr: stderr,
		stdin:  os.Stdin,
		now:    time.Now,
	}
}

type runtimeState struct {
	runner   *Runner
	flags    config.GlobalFlags
	settings config.Settings
	logger   *slog.Logger
}

func (r *Runner) Run(args []string) int {
	state := &runtimeState{runner: r}
	root := state.newRootCommand()
	root.SetArgs(args)
	root.SetOut(r.stdout)
	root.SetErr(r.stderr)
	root.SilenceUsage = true
	root.SilenceErrors = true

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	err := normalizeRunError(root.ExecuteContext(ctx))
	if err == nil {
		return 0
	}
	fmt.Fprintf(r.stderr, "error: %v\n", err)
	return clierr.ExitCode(err)
}

func (s *runtimeState) newRootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "chainrunner",
		Short: "Multi-chain wallet task automation",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Name() == "help" {
				return nil
			}
			settings, err := config.Load(s.flags)
			if err != nil {
				return clierr.Wrap(clierr.CodeConfig, "load configuration", err)
			}
			s.settings = settings
			s.logger = logging.New(settings.LogLevel, s.runner.stderr)
			return nil
		},
	}
	cmd.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return clierr.Wrap(clierr.CodeUsage, "parse flags", err)
	})

	cmd.PersistentFlags().StringVar(&s.flags.ConfigPath, "config", "", "Path to the config file")
	cmd.PersistentFlags().StringVar(&s.flags.TasksPath, "tasks", "", "Path to the task tree YAML")
	cmd.PersistentFlags().StringVar(&s.flags.KeysPath, "keys", "", "Path to the private key file")
	cmd.PersistentFlags().StringVar(&s.flags.Addresses, "addresses", "", "Path to the address allowlist file")
	cmd.PersistentFlags().BoolVar(&s.flags.Yes, "yes", false, "Retry failed actions without prompting")
	cmd.PersistentFlags().BoolVar(&s.flags.AutoAbort, "auto-abort", false, "Abort on failed actions without prompting")
	cmd.PersistentFlags().StringVar(&s.flags.TxTimeout, "tx-timeout", "", "Confirmation wait per transaction (e.g. 300s)")
	cmd.PersistentFlags().StringVar(&s.flags.LogLevel, "log-level", "", "Log level: debug, info, warn, error")

	cmd.AddCommand(s.newRunCommand())
	cmd.AddCommand(s.newWalletsCommand())
	cmd.AddCommand(s.newJournalCommand())
	return cmd
}

func (s *runtimeState) newRunCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Walk the task tree over every configured wallet",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return s.runWallets(cmd.Context())
		},
	}
}

func (s *runtimeState) runWallets(ctx context.Context) error {
	settings := s.settings
	if settings.TasksPath == "" {
		return clierr.New(clierr.CodeConfig, "no task file configured (--tasks or config tasks:)")
	}
	if settings.KeysPath == "" {
		return clierr.New(clierr.CodeConfig, "no private key file configured (--keys or config keys:)")
	}

	root, err := task.Load(settings.TasksPath)
	if err != nil {
		return err
	}
	wallets, err := wallet.Load(settings.KeysPath, settings.AddressesPath)
	if err != nil {
		return err
	}
	if len(wallets) == 0 {
		return clierr.New(clierr.CodeConfig, "no wallets selected; check the address file")
	}
	estimator, err := actions.BuildEstimator(settings)
	if err != nil {
		return err
	}
	jnl, err := journal.Open(settings.JournalPath, settings.JournalLockPath)
	if err != nil {
		return clierr.Wrap(clierr.CodeInternal, "open journal", err)
	}
	defer jnl.Close()

	var exchange *okx.Client
	if len(settings.OKXAccounts) > 0 {
		exchange = okx.New(settings.OKXAccounts, s.logger)
		exchange.MainRecipient = settings.OKXMainRecipient
	}

	rng := rand.New(rand.NewSource(s.runner.now().UnixNano()))
	confirmer := s.confirmer()
	registry := actions.DefaultRegistry()
	s.logger.Info("starting task runs", "wallets", len(wallets), "tasks", settings.TasksPath)

	for i, w := range wallets {
		address := w.Address().Hex()
		walletLogger := logging.ForWallet(s.logger, address)

		rec, err := jnl.BeginRun(address)
		if err != nil {
			return clierr.Wrap(clierr.CodeInternal, "journal begin run", err)
		}
		run := &actions.Run{
			Wallet:    w,
			Settings:  settings,
			Logger:    walletLogger,
			Journal:   jnl,
			RunID:     rec.RunID,
			Exchange:  exchange,
			Estimator: estimator,
			Rand:      rng,
			Sleep:     execution.SleepContext,
		}
		interp := &task.Interpreter{
			Dispatch: actions.Dispatcher(run, registry),
			Confirm:  confirmer,
			Rand:     rng,
			Sleep:    execution.SleepContext,
			Logger:   walletLogger,
			DelayMin: settings.TaskDelayMin,
			DelayMax: settings.TaskDelayMax,
		}

		walletLogger.Info("wallet run started", "run_id", rec.RunID, "position", i+1, "wallets", len(wallets))
		runErr := interp.Run(ctx, root)
		if finishErr := jnl.FinishRun(rec, runStatus(runErr)); finishErr != nil {
			walletLogger.Warn("journal finish failed", "reason", finishErr)
		}
		if runErr != nil {
			// Later wallets are not attempted; their runs may depend on
			// shared exchange balances this one failed to move.
			return runErr
		}
		walletLogger.Info("wallet run completed", "run_id", rec.RunID)

		if i < len(wallets)-1 {
			delay := settings.WalletDelayMin
			if span := settings.WalletDelayMax - settings.WalletDelayMin; span > 0 {
				delay += time.Duration(rng.Int63n(int64(span) + 1))
			}
			s.logger.Info("pacing before next wallet", "delay", delay.Round(time.Second))
			if err := execution.SleepContext(ctx, delay); err != nil {
				return err
			}
		}
	}
	return nil
}

// confirmer picks the retry prompt implementation. Interactive stdin is the
// default; --yes and --auto-abort make the run fully unattended.
func (s *runtimeState) confirmer() prompt.Confirmer {
	switch {
	case s.settings.Yes:
		return prompt.Auto{Answer: true}
	case s.settings.AutoAbort:
		return prompt.Auto{Answer: false}
	default:
		return &prompt.Stdin{In: s.runner.stdin, Out: s.runner.stderr}
	}
}

func runStatus(err error) string {
	switch {
	case err == nil:
		return "completed"
	case clierr.Is(err, clierr.CodeAborted):
		return "aborted"
	default:
		return "failed"
	}
}

func (s *runtimeState) newWalletsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "wallets",
		Short: "List the wallet addresses the runner would drive",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if s.settings.KeysPath == "" {
				return clierr.New(clierr.CodeConfig, "no private key file configured (--keys or config keys:)")
			}
			wallets, err := wallet.Load(s.settings.KeysPath, s.settings.AddressesPath)
			if err != nil {
				return err
			}
			for _, w := range wallets {
				fmt.Fprintln(cmd.OutOrStdout(), w.Address().Hex())
			}
			return nil
		},
	}
}

func (s *runtimeState) newJournalCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "journal",
		Short: "Inspect recorded runs",
	}
	cmd.AddCommand(s.newJournalRunsCommand())
	cmd.AddCommand(s.newJournalAttemptsCommand())
	return cmd
}

func (s *runtimeState) newJournalRunsCommand() *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "runs",
		Short: "List recent runs, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			jnl, err := journal.Open(s.settings.JournalPath, s.settings.JournalLockPath)
			if err != nil {
				return clierr.Wrap(clierr.CodeInternal, "open journal", err)
			}
			defer jnl.Close()

			runs, err := jnl.ListRuns(limit)
			if err != nil {
				return clierr.Wrap(clierr.CodeInternal, "list runs", err)
			}
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(tw, "RUN ID\tWALLET\tSTATUS\tSTARTED\tFINISHED")
			for _, run := range runs {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n",
					run.RunID, run.Wallet, run.Status, run.StartedAt, run.FinishedAt)
			}
			return tw.Flush()
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 20, "Maximum number of runs to list")
	return cmd
}

func (s *runtimeState) newJournalAttemptsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "attempts <run-id>",
		Short: "List a run's transaction outcomes in order",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			jnl, err := journal.Open(s.settings.JournalPath, s.settings.JournalLockPath)
			if err != nil {
				return clierr.Wrap(clierr.CodeInternal, "open journal", err)
			}
			defer jnl.Close()

			run, err := jnl.GetRun(args[0])
			if err != nil {
				return clierr.Wrap(clierr.CodeUsage, "look up run", err)
			}
			attempts, err := jnl.ListAttempts(run.RunID)
			if err != nil {
				return clierr.Wrap(clierr.CodeInternal, "list attempts", err)
			}
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(tw, "AT\tNETWORK\tLABEL\tOUTCOME\tATTEMPTS\tTX\tREASON")
			for _, a := range attempts {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%d\t%s\t%s\n",
					a.At, a.Network, a.Label, a.Outcome, a.Attempts, a.TxHash, a.Reason)
			}
			return tw.Flush()
		},
	}
}

func normalizeRunError(err error) error {
	if err == nil {
		return nil
	}
	if _, ok := clierr.As(err); ok {
		return err
	}
	if isLikelyUsageError(err) {
		return clierr.Wrap(clierr.CodeUsage, "invalid command input", err)
	}
	return clierr.Wrap(clierr.CodeInternal, "execute command", err)
}

func isLikelyUsageError(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(strings.TrimSpace(err.Error()))
	patterns := []string{
		"unknown command",
		"unknown flag",
		"required flag(s)",
		"flag needs an argument",
		"requires at least",
		"requires exactly",
		"accepts ",
		"invalid argument",
		"invalid args",
	}
	for _, p := range patterns {
		if strings.Contains(msg, p) {
			return true
		}
	}
	return false
}
