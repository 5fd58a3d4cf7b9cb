package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/felixgeelhaar/okd4prov/internal/adapters/logging"
	"github.com/felixgeelhaar/okd4prov/internal/app"
	"github.com/felixgeelhaar/okd4prov/internal/domain/compiler"
	"github.com/felixgeelhaar/okd4prov/internal/domain/config"
	"github.com/felixgeelhaar/okd4prov/internal/ports"
	"github.com/spf13/cobra"
)

var (
	// Global flags
	cfgFile string
	verbose bool
	logJSON bool
	noColor bool
)

var rootCmd = &cobra.Command{
	Use:   "okd4prov",
	Short: "Prepare a PXE and ignition staging host for an OKD4 install",
	Long: `okd4prov provisions one Linux server as the PXE boot and ignition
staging point of an OKD4 cluster.

Each stage is a list of idempotent check-then-act steps run in a fixed order:
  package-repos → packages → directories → syslinux → nginx → firewall →
  services → installer → pxe-images → pxelinux → install-config →
  ignition → publish-ignition → haproxy → dns-records`,
	SilenceErrors: true,
	SilenceUsage:  true,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", config.DefaultPath, "inventory file (.yaml or .toml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
	rootCmd.PersistentFlags().BoolVar(&logJSON, "log-json", false, "write logs as JSON")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "disable colored output")

	_ = rootCmd.RegisterFlagCompletionFunc("config", func(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
		return []string{"yaml", "yml", "toml"}, cobra.ShellCompDirectiveFilterFileExt
	})

	rootCmd.AddCommand(versionCmd)
}

// newLogger builds the stderr logger from the global flags.
func newLogger(w io.Writer) ports.Logger {
	level := ports.LevelInfo
	if verbose {
		level = ports.LevelDebug
	}
	return logging.NewConsoleLogger(
		logging.WithOutput(w),
		logging.WithLevel(level),
		logging.WithJSONFormat(logJSON),
		logging.WithColor(!noColor),
	)
}

// newProvisioner is replaced in tests.
var newProvisioner = func(out io.Writer, opts ...app.Option) *app.Provisioner {
	base := []app.Option{
		app.WithLogger(newLogger(os.Stderr)),
		app.WithColor(!noColor),
		app.WithVerbose(verbose),
	}
	return app.New(out, append(base, opts...)...)
}

// signalContext is cancelled on SIGINT or SIGTERM.
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

// formatError returns a user-friendly error message. Step failures always
// carry the cause of the failed action; verbose adds the code and stage.
func formatError(err error) string {
	var list *config.ErrorList
	if errors.As(err, &list) {
		return list.Format()
	}

	if userErr := config.GetUserError(err); userErr != nil {
		msg := userErr.Message
		if userErr.Context != "" {
			msg += fmt.Sprintf(" (at %s)", userErr.Context)
		}
		if userErr.Suggestion != "" {
			msg += fmt.Sprintf("\n\nSuggestion: %s", userErr.Suggestion)
		}
		if verbose && userErr.Underlying != nil {
			msg += fmt.Sprintf("\n\nTechnical details: %v", userErr.Underlying)
		}
		return msg
	}

	var stepErr *compiler.StepError
	if errors.As(err, &stepErr) {
		if verbose {
			return stepErr.Format()
		}
		msg := err.Error()
		if stepErr.Suggestion != "" {
			msg += fmt.Sprintf("\n\nSuggestion: %s", stepErr.Suggestion)
		}
		return msg
	}
	return err.Error()
}

// printError prints an error message to stderr with proper formatting.
func printError(err error) {
	printErrorTo(os.Stderr, err)
}

// printErrorTo prints an error message to the given writer.
func printErrorTo(w io.Writer, err error) {
	_, _ = fmt.Fprintf(w, "Error: %s\n", formatError(err))
}
