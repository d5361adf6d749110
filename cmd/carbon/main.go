package main

import (
	stderrors "errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
	"github.com/vango-dev/carbon/internal/errors"
)

// Version information set at build time.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// globalFlags are the persistent flags shared by every command.
type globalFlags struct {
	config  string
	verbose bool
	json    bool
	noColor bool
}

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	flags := &globalFlags{}
	rootCmd := newRootCmd(flags)
	rootCmd.SetArgs(args)
	rootCmd.SetOut(stdout)
	rootCmd.SetErr(stderr)

	if err := rootCmd.Execute(); err != nil {
		printError(stderr, flags, err)
		return 1
	}
	return 0
}

func newRootCmd(flags *globalFlags) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "carbon",
		Short: "Inspect and preview Carbon route manifests",
		Long: `carbon works with the route manifest and templates of a Carbon project.

It lists routes, matches URLs against them, builds URLs from route
names, and serves a live preview that navigates without page loads.

Project settings are read from carbon.json in the current directory
or the nearest parent directory.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if flags.noColor {
				errors.DisableColors()
			}
		},
	}

	rootCmd.PersistentFlags().StringVarP(&flags.config, "config", "c", "", "Path to carbon.json (default: search upwards)")
	rootCmd.PersistentFlags().BoolVarP(&flags.verbose, "verbose", "v", false, "Log debug output")
	rootCmd.PersistentFlags().BoolVar(&flags.json, "json", false, "Print output and errors as JSON")
	rootCmd.PersistentFlags().BoolVar(&flags.noColor, "no-color", false, "Disable colored output")

	rootCmd.AddCommand(
		initCmd(),
		routesCmd(flags),
		matchCmd(flags),
		urlCmd(flags),
		serveCmd(flags),
		versionCmd(),
	)
	return rootCmd
}

func printError(w io.Writer, flags *globalFlags, err error) {
	var ce *errors.CarbonError
	if !stderrors.As(err, &ce) {
		// Flag and usage errors keep their own message.
		ce = errors.Newf(errors.CategoryCLI, "%s", err.Error())
	}
	if flags.json {
		fmt.Fprintln(w, ce.FormatJSON())
		return
	}
	errors.Fprint(w, ce)
}

func newLogger(w io.Writer, flags *globalFlags) *slog.Logger {
	level := slog.LevelInfo
	if flags.verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

// success prints a success message.
func success(w io.Writer, format string, args ...any) {
	fmt.Fprintf(w, "%s %s\n", green("✓"), fmt.Sprintf(format, args...))
}

func green(s string) string {
	return "\033[32m" + s + "\033[0m"
}
