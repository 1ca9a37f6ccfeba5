package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/and161185/guidecode/internal/app"
	"github.com/and161185/guidecode/internal/chat"
	"github.com/and161185/guidecode/internal/config"
	"github.com/and161185/guidecode/internal/identity"
	"github.com/and161185/guidecode/internal/kv"
	"github.com/and161185/guidecode/internal/llm"
	"github.com/and161185/guidecode/internal/logging"
	"github.com/and161185/guidecode/internal/render"
)

// cli carries the per-invocation state shared by subcommands.
type cli struct {
	in   io.Reader
	out  io.Writer
	errw io.Writer

	configPath string
	backend    string
	dbPath     string
	logLevel   string
	mock       bool
	yes        bool

	cfg     *config.Config
	log     *zap.Logger
	store   kv.Store
	app     *app.App
	print   *render.Printer
	prompt  *prompter
	timeout time.Duration
}

// errReported marks an error already shown to the user.
var errReported = errors.New("reported")

func newRootCmd(in io.Reader, out, errw io.Writer) *cobra.Command {
	c := &cli{in: in, out: out, errw: errw, print: render.New()}
	c.prompt = newPrompter(in, out)

	root := &cobra.Command{
		Use:   "guidecode",
		Short: "GuideCode - an AI coding mentor that teaches you how to think",
		Long: `GuideCode walks you through programming problems step by step:
understanding, approach, hints, edge cases and complexity. It never hands out
the final code.

Accounts and discussions are stored locally in your profile.`,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: c.setup,
		PersistentPostRun: func(*cobra.Command, []string) { c.teardown() },
	}
	root.CompletionOptions.DisableDefaultCmd = true
	root.SetIn(in)
	root.SetOut(out)
	root.SetErr(errw)

	pf := root.PersistentFlags()
	pf.StringVar(&c.configPath, "config", config.DefaultPath(), "config file")
	pf.StringVar(&c.backend, "backend", "", "storage backend: memory, sqlite, postgres, redis")
	pf.StringVar(&c.dbPath, "db", "", "sqlite profile file")
	pf.StringVar(&c.logLevel, "log-level", "", "log level (debug, info, warn, error)")
	pf.BoolVar(&c.mock, "offline", false, "use the offline mentor instead of Gemini")
	pf.BoolVarP(&c.yes, "yes", "y", false, "do not ask for confirmation")

	root.AddCommand(
		c.versionCmd(),
		c.configCmd(),
		c.signupCmd(),
		c.loginCmd(),
		c.logoutCmd(),
		c.whoamiCmd(),
		c.newCmd(),
		c.listCmd(),
		c.showCmd(),
		c.useCmd(),
		c.sendCmd(),
		c.chatCmd(),
		c.renameCmd(),
		c.rmCmd(),
		c.clearCmd(),
		c.exportCmd(),
		c.importCmd(),
		c.resetCmd(),
		c.reviewCmd(),
		c.statsCmd(),
	)

	return wrapErrors(root, c)
}

// wrapErrors makes every RunE print its error the way the user should see it.
func wrapErrors(cmd *cobra.Command, c *cli) *cobra.Command {
	if run := cmd.RunE; run != nil {
		cmd.RunE = func(cmd *cobra.Command, args []string) error {
			err := run(cmd, args)
			if err == nil || errors.Is(err, errReported) {
				return err
			}
			c.log.Debug("command failed", zap.String("cmd", cmd.Name()), zap.Error(err))
			msg := app.FriendlyMessage(err)
			if msg == app.GenericFailure {
				msg += " (" + err.Error() + ")"
			}
			fmt.Fprintln(c.errw, c.print.Error(msg))
			return errReported
		}
	}
	for _, sub := range cmd.Commands() {
		wrapErrors(sub, c)
	}
	return cmd
}

func (c *cli) setup(cmd *cobra.Command, _ []string) error {
	switch {
	case cmd.Name() == "version", cmd.Name() == "help",
		cmd.HasParent() && cmd.Parent().Name() == "config":
		c.log = zap.NewNop()
		return nil
	}

	cfg, err := config.Load(c.configPath)
	if err != nil {
		return c.fail(err)
	}
	if c.backend != "" {
		cfg.Storage.Backend = kv.Backend(c.backend)
	}
	if c.dbPath != "" {
		cfg.Storage.Path = c.dbPath
	}
	if c.logLevel != "" {
		cfg.Logging.Level = c.logLevel
	}
	if c.mock {
		cfg.Mentor.Provider = config.ProviderMock
	}
	if err := cfg.Validate(); err != nil {
		return c.fail(err)
	}
	c.cfg = cfg

	log, err := logging.New(cfg.Logging.Level, cfg.Logging.Dev)
	if err != nil {
		return c.fail(err)
	}
	c.log = log

	ctx := cmd.Context()
	store, err := kv.Open(ctx, cfg.KVOptions(), log)
	if err != nil {
		return c.fail(fmt.Errorf("open profile: %w", err))
	}
	c.store = store

	latency, _ := cfg.AuthLatency()
	c.timeout, _ = cfg.MentorTimeout()

	mentor, err := c.newMentor(ctx)
	if err != nil {
		return c.fail(err)
	}

	ids := identity.NewStore(store, identity.WithLatency(latency), identity.WithLogger(log.Named("identity")))
	sessions := chat.NewStore(store, chat.WithLogger(log.Named("chat")))
	a, err := app.New(ctx, ids, sessions, mentor, log.Named("app"))
	if err != nil {
		return c.fail(err)
	}
	c.app = a
	return nil
}

func (c *cli) newMentor(ctx context.Context) (llm.Mentor, error) {
	if c.cfg.MentorProvider() == config.ProviderMock {
		c.log.Debug("using offline mentor")
		return llm.NewMock(), nil
	}
	return llm.NewGemini(ctx, c.cfg.Mentor.APIKey, c.cfg.Mentor.Model, c.log.Named("gemini"))
}

func (c *cli) teardown() {
	if c.app != nil {
		c.app.Close()
		c.app = nil
	}
	if c.store != nil {
		if err := c.store.Close(); err != nil {
			c.log.Warn("close profile", zap.Error(err))
		}
		c.store = nil
	}
	if c.log != nil {
		_ = c.log.Sync()
	}
}

// fail reports a setup error verbatim and releases what setup acquired.
func (c *cli) fail(err error) error {
	fmt.Fprintln(c.errw, c.print.Error(err.Error()))
	c.teardown()
	return errReported
}

// mentorCtx bounds one generation round trip.
func (c *cli) mentorCtx(ctx context.Context) (context.Context, context.CancelFunc) {
	if c.timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, c.timeout)
}

// requireUser fails with a hint when nobody is signed in.
func (c *cli) requireUser() error {
	if c.app.User() == nil {
		fmt.Fprintln(c.errw, c.print.Error("You are not signed in. Run `guidecode login` or `guidecode signup`."))
		return errReported
	}
	return nil
}

// sessionID resolves a full id or a unique prefix of one. Empty means the
// active session.
func (c *cli) sessionID(arg string) (string, error) {
	if arg == "" {
		return "", nil
	}
	var match string
	for _, s := range c.app.Sessions() {
		if s.ID == arg {
			return s.ID, nil
		}
		if strings.HasPrefix(s.ID, arg) {
			if match != "" {
				fmt.Fprintln(c.errw, c.print.Error(fmt.Sprintf("Session id %q is ambiguous.", arg)))
				return "", errReported
			}
			match = s.ID
		}
	}
	if match == "" {
		return arg, nil
	}
	return match, nil
}

func (c *cli) versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			fmt.Fprintf(c.out, "guidecode %s (%s)\n", version, buildDate)
			return nil
		},
	}
}
