package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"scriptwrap/internal/app"
	"scriptwrap/internal/config"
	swerrors "scriptwrap/internal/errors"
	"scriptwrap/internal/llm"
	"scriptwrap/internal/ui"
)

// version is set at build time via ldflags
var version = "dev"

// cli carries what the commands share for one invocation.
type cli struct {
	console    *ui.Console
	out        io.Writer
	exitCode   int
	logFile    *os.File
	prevLogger *slog.Logger
}

func newRootCmd(c *cli) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:     "scriptwrap",
		Short:   "scriptwrap - Wrap a script in a verified Docker image",
		Version: version,
		Long: `scriptwrap asks a language model for a Dockerfile that runs your script, builds it,
then runs the image with the first example from the script's README and checks that the
output matches what the README promises.

The README is expected next to the script as README_<directory name>.md and the Dockerfile
is written to Dockerfile_<directory name>.Dockerfile.`,
		SilenceErrors: true,
		SilenceUsage:  true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			verbose, _ := cmd.Flags().GetBool("verbose")
			c.setupLogging(verbose)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			scriptPath, _ := cmd.Flags().GetString("script")
			configFile, _ := cmd.Flags().GetString("config")

			cfg, err := config.Load(config.Options{ConfigFile: configFile, Flags: cmd.Flags()})
			if err != nil {
				swerrors.HandleError(err)
				c.exitCode = app.ExitAborted
				return nil
			}

			outcome := app.Wrap(cmd.Context(), scriptPath, cfg, c.console)
			if outcome.Err != nil {
				swerrors.HandleError(outcome.Err)
			}
			c.exitCode = outcome.ExitCode()
			return nil
		},
	}

	rootCmd.SetOut(c.out)
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Write debug entries to the log file")

	rootCmd.Flags().StringP("script", "s", "", "Path to the script to wrap (required)")
	rootCmd.Flags().String("llm", config.DefaultProvider, "LLM provider to use (see 'scriptwrap providers')")
	rootCmd.Flags().String("api-key", "", "LLM API key (or set SCRIPTWRAP_API_KEY / OPENAI_API_KEY)")
	rootCmd.Flags().StringP("config", "c", "", "Config file (default .scriptwrap.yaml in the working directory or $HOME)")
	rootCmd.Flags().Int("build-attempts", config.DefaultMaxAttempts, "Maximum number of generate-and-build attempts")
	if err := rootCmd.MarkFlagRequired("script"); err != nil {
		slog.Error("Failed to mark script flag as required", "error", err)
	}

	rootCmd.AddCommand(&cobra.Command{
		Use:   "providers",
		Short: "List the supported LLM providers",
		Run: func(cmd *cobra.Command, args []string) {
			for _, name := range llm.Providers() {
				fmt.Fprintln(cmd.OutOrStdout(), name)
			}
		},
	})

	return rootCmd
}

// setupLogging routes slog to the rotated log file. Logging stays on the default handler
// when the file cannot be opened.
func (c *cli) setupLogging(verbose bool) {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}

	logger, logFile, err := swerrors.NewFileLogger(level)
	if err != nil {
		c.console.PrintWarning(fmt.Sprintf("logging to file disabled: %v", err))
		return
	}
	c.logFile = logFile
	c.prevLogger = slog.Default()
	slog.SetDefault(logger)
}

// run executes the command line and returns the process exit code.
func run(ctx context.Context, args []string, console *ui.Console, out, errOut io.Writer) int {
	c := &cli{console: console, out: out}
	defer func() {
		if c.logFile != nil {
			slog.SetDefault(c.prevLogger)
			c.logFile.Close()
		}
	}()

	rootCmd := newRootCmd(c)
	rootCmd.SetErr(errOut)
	rootCmd.SetArgs(args)

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(errOut, "Error: %s\n", err)
		return app.ExitAborted
	}
	return c.exitCode
}

func main() {
	_ = godotenv.Load()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], ui.NewConsole(), os.Stdout, os.Stderr)
	stop()

	os.Exit(code)
}
