// Package cmd implements the robodesk command line.
package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/offlinefirst/robodesk/internal/buildinfo"
	"github.com/offlinefirst/robodesk/pkg/config"
	"github.com/offlinefirst/robodesk/pkg/input"
	"github.com/offlinefirst/robodesk/pkg/logging"
	"github.com/offlinefirst/robodesk/pkg/store"
)

// AppContext exposes lazily initialised configuration and logging facilities.
type AppContext struct {
	Config config.Config
	Logger *slog.Logger
}

// RootCommand owns the cobra tree and the streams it writes to.
type RootCommand struct {
	cmd    *cobra.Command
	stdin  io.Reader
	stdout io.Writer
	stderr io.Writer
	appCtx *AppContext

	configPath string
	logLevel   string
	logFormat  string
	storePath  string
	output     string

	record  string
	play    string
	rate    float64
	list    bool
	delete  string
	inputs  string
	dryRun  bool
	confirm bool
}

var (
	// newBackend is swapped in tests to avoid touching the desktop.
	newBackend = input.Open
	hostname   = os.Hostname
)

// NewRootCommand constructs the CLI with its flags and subcommands.
func NewRootCommand() *RootCommand {
	rc := &RootCommand{
		stdin:  os.Stdin,
		stdout: os.Stdout,
		stderr: os.Stderr,
	}

	root := &cobra.Command{
		Use:   "robodesk",
		Short: "Record and replay desktop keyboard and mouse macros",
		Long: `robodesk records keyboard and mouse activity into named functions and
replays them later, optionally at a different rate. Functions may declare
input variables that are pasted during replay and output variables that
capture the clipboard.`,
		Example: `  robodesk -r login
  robodesk -p login -i user=alice,password=secret --rate 2
  robodesk -l -o yaml
  robodesk --delete login`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          rc.runRoot,
	}

	persistent := root.PersistentFlags()
	persistent.StringVar(&rc.configPath, "config", "", "Path to config file (default: ./robodesk.yaml, then ~/.robodesk/config.yaml)")
	persistent.StringVar(&rc.logLevel, "log-level", "", "Override log level (debug, info, warn, error)")
	persistent.StringVar(&rc.logFormat, "log-format", "", "Override log output format (console, json)")
	persistent.StringVar(&rc.storePath, "path", "", "Directory holding stored functions (default from config)")
	persistent.StringVarP(&rc.output, "output", "o", "text", "Output format for results (text, json, yaml)")

	flags := root.Flags()
	flags.StringVarP(&rc.record, "record", "r", "", "Name of function to record")
	flags.StringVarP(&rc.play, "play", "p", "", "Name of function to play")
	flags.Float64Var(&rc.rate, "rate", 1, "Playback rate (1 = original, default from config)")
	flags.BoolVarP(&rc.list, "list", "l", false, "List available functions")
	flags.StringVar(&rc.delete, "delete", "", "Name of function to delete")
	flags.StringVarP(&rc.inputs, "inputs", "i", "", "Input variables for --play as name1=value1,name2=value2,...")
	flags.BoolVar(&rc.dryRun, "dry-run", false, "Play through a logging injector instead of the desktop")
	flags.BoolVar(&rc.confirm, "yes", false, "Delete without asking for confirmation")
	root.MarkFlagsMutuallyExclusive("play", "list", "delete")

	root.AddCommand(newVersionCommand(rc))
	root.AddCommand(newDoctorCommand(rc))
	root.AddCommand(newShowCommand(rc))

	rc.cmd = root
	return rc
}

// SetIO redirects the command streams.
func (rc *RootCommand) SetIO(stdin io.Reader, stdout, stderr io.Writer) {
	rc.stdin, rc.stdout, rc.stderr = stdin, stdout, stderr
	rc.cmd.SetIn(stdin)
	rc.cmd.SetOut(stdout)
	rc.cmd.SetErr(stderr)
}

// Execute runs the command tree with args. Errors are reported on the
// configured streams before being returned; see ExitCode.
func (rc *RootCommand) Execute(ctx context.Context, args []string) error {
	rc.cmd.SetArgs(args)
	rc.cmd.SetIn(rc.stdin)
	rc.cmd.SetOut(rc.stdout)
	rc.cmd.SetErr(rc.stderr)

	err := rc.cmd.ExecuteContext(ctx)
	switch {
	case err == nil:
	case isCanceled(err):
		fmt.Fprintln(rc.stdout, "\nCanceled")
	default:
		fmt.Fprintf(rc.stderr, "%s %v\n", styles.err.Render("Error:"), err)
	}
	return err
}

// ExitCode maps an Execute error to a process exit status.
func ExitCode(err error) int {
	switch {
	case err == nil:
		return 0
	case isCanceled(err):
		return 130
	default:
		return 1
	}
}

func isCanceled(err error) bool {
	return errors.Is(err, context.Canceled)
}

func (rc *RootCommand) runRoot(c *cobra.Command, _ []string) error {
	if rc.record == "" && rc.play == "" && !rc.list && rc.delete == "" {
		return c.Help()
	}
	if rc.inputs != "" && rc.play == "" {
		return errors.New("--inputs requires --play")
	}
	if err := checkOutputFormat(rc.output); err != nil {
		return err
	}

	app, err := rc.ensureAppContext()
	if err != nil {
		return err
	}
	s, err := rc.openStore(app)
	if err != nil {
		return err
	}

	ctx := c.Context()
	if rc.record != "" {
		if err := rc.runRecord(ctx, app, s); err != nil {
			return err
		}
	}

	switch {
	case rc.play != "":
		rate := app.Config.Player.Rate
		if c.Flags().Changed("rate") {
			rate = rc.rate
		}
		return rc.runPlay(ctx, app, s, rate)
	case rc.list:
		return rc.runList(s)
	case rc.delete != "":
		return rc.runDelete(app, s)
	}
	return nil
}

func (rc *RootCommand) ensureAppContext() (*AppContext, error) {
	if rc.appCtx != nil {
		return rc.appCtx, nil
	}

	cfg, err := config.Load(rc.configPath)
	if err != nil {
		return nil, err
	}

	if rc.logLevel != "" {
		lvl, err := config.NormalizeLogLevel(rc.logLevel)
		if err != nil {
			return nil, err
		}
		cfg.Logging.Level = lvl
	}
	if rc.logFormat != "" {
		format, err := config.NormalizeFormat(rc.logFormat)
		if err != nil {
			return nil, err
		}
		cfg.Logging.Format = format
	}
	if path := strings.TrimSpace(rc.storePath); path != "" {
		cfg.Store.Path = path
	}

	logger, err := logging.New(logging.Options{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Output: rc.stderr,
	})
	if err != nil {
		return nil, err
	}

	logger.Debug("configuration loaded", "source", cfg.Source, "store", cfg.Store.Path)

	rc.appCtx = &AppContext{Config: cfg, Logger: logger}
	return rc.appCtx, nil
}

func (rc *RootCommand) openStore(app *AppContext) (*store.Store, error) {
	backend, err := store.OpenFileBackend(app.Config.Store.Path)
	if err != nil {
		return nil, err
	}
	host, err := hostname()
	if err != nil {
		host = "unknown"
	}
	return store.New(store.Options{
		Backend:    backend,
		Logger:     app.Logger,
		AppVersion: buildinfo.Version(),
		Hostname:   host,
	}), nil
}
