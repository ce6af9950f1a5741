// Command aiden drives a Fellow Aiden brewer through the vendor cloud API.
// Every command prints one JSON document on stdout; logs go to stderr.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/joshp123/fellow-aiden/internal/blob"
	"github.com/joshp123/fellow-aiden/internal/config"
	"github.com/joshp123/fellow-aiden/internal/mqtt"
	"github.com/joshp123/fellow-aiden/plugins/fellow"
)

const (
	exitFatal = 1
	exitUsage = 2
)

func main() {
	os.Exit(run(context.Background(), os.Args[1:], os.Getenv, os.Stdout, os.Stderr))
}

// exitError ends the process with code after output has been written.
type exitError struct {
	code int
}

func (e exitError) Error() string {
	return fmt.Sprintf("exit status %d", e.code)
}

type app struct {
	getenv func(string) string
	out    outputMode
	stderr io.Writer

	openStore func(config.BlobConfig) (blob.Store, error)
	dialMQTT  func(config.MQTTConfig) (*mqtt.Publisher, error)

	cfg    *config.Config
	logger *slog.Logger
}

func newApp(getenv func(string) string, stdout, stderr io.Writer) *app {
	return &app{
		getenv: getenv,
		out:    outputMode{w: stdout},
		stderr: stderr,
		openStore: func(cfg config.BlobConfig) (blob.Store, error) {
			return blob.NewS3Store(cfg)
		},
		dialMQTT: mqtt.Connect,
	}
}

func run(ctx context.Context, args []string, getenv func(string) string, stdout, stderr io.Writer) int {
	return newApp(getenv, stdout, stderr).execute(ctx, args)
}

func (a *app) execute(ctx context.Context, args []string) int {
	root := a.rootCmd()
	root.SetArgs(args)
	root.SetOut(a.stderr)
	root.SetErr(a.stderr)

	err := root.ExecuteContext(ctx)
	if err == nil {
		return 0
	}
	var exit exitError
	if errors.As(err, &exit) {
		return exit.code
	}
	fmt.Fprintf(a.stderr, "Error: %v\n", err)
	fmt.Fprintf(a.stderr, "Run 'aiden --help' for usage.\n")
	return exitUsage
}

func (a *app) rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "aiden",
		Short: "Control a Fellow Aiden coffee brewer",
		Long: `aiden talks to the Fellow cloud API with the account in FELLOW_EMAIL and
FELLOW_PASSWORD and acts on the first brewer bound to it.

Each command prints a single JSON document. Operation failures are reported
as {"error": "..."} with exit status 0; configuration and login failures
exit 1; usage errors exit 2.`,
		SilenceErrors: true,
		SilenceUsage:  true,
		Args:          cobra.NoArgs,
		RunE:          requireSubcommand,
	}
	root.CompletionOptions.DisableDefaultCmd = true

	root.AddCommand(
		a.infoCmd(),
		a.statusCmd(),
		a.profilesCmd(),
		a.schedulesCmd(),
		a.metricsCmd(),
		a.publishCmd(),
	)
	return root
}

func requireSubcommand(cmd *cobra.Command, _ []string) error {
	return fmt.Errorf("%s requires a subcommand", cmd.CommandPath())
}

// connect loads configuration and opens a client. Failures are printed and
// turned into exit status 1.
func (a *app) connect(ctx context.Context) (*fellow.Client, error) {
	cfg, err := config.Load(a.getenv)
	if err != nil {
		return nil, a.fatal(err)
	}
	if err := cfg.RequireCredentials(); err != nil {
		return nil, a.fatal(err)
	}
	a.cfg = cfg
	a.logger = setupLogger(cfg.Log, a.stderr)

	client, err := fellow.NewClient(ctx, fellow.Config{
		BaseURL:  cfg.Fellow.BaseURL,
		Email:    cfg.Fellow.Email,
		Password: cfg.Fellow.Password,
		Logger:   a.logger,
	})
	if err != nil {
		if !fellow.IsFatal(err) {
			a.logger.Error("fellow client setup failed", "err", err)
		}
		return nil, a.fatal(err)
	}
	return client, nil
}

func (a *app) fatal(err error) error {
	a.out.printError(err)
	return exitError{code: exitFatal}
}

// withClient runs op against a fresh client. Operation errors become a
// JSON error document and a zero exit status.
func (a *app) withClient(op func(ctx context.Context, client *fellow.Client) (any, error)) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()
		client, err := a.connect(ctx)
		if err != nil {
			return err
		}
		result, err := op(ctx, client)
		if err != nil {
			a.logger.Debug("command failed", "command", cmd.CommandPath(), "err", err)
			a.out.printError(err)
			return nil
		}
		return a.out.printJSON(result)
	}
}

func setupLogger(cfg config.LogConfig, w io.Writer) *slog.Logger {
	var level slog.Level
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelWarn
	}

	opts := &slog.HandlerOptions{Level: level}

	var handler slog.Handler
	if cfg.Format == "json" {
		handler = slog.NewJSONHandler(w, opts)
	} else {
		handler = slog.NewTextHandler(w, opts)
	}

	return slog.New(handler)
}
