package main

import (
	"fmt"

	"github.com/felixgeelhaar/okd4prov/internal/adapters/metrics"
	"github.com/felixgeelhaar/okd4prov/internal/app"
	"github.com/felixgeelhaar/okd4prov/internal/ports"
	"github.com/spf13/cobra"
)

var applyCmd = &cobra.Command{
	Use:   "apply",
	Short: "Provision the staging host",
	Long: `Apply runs every step in order. Each step checks the host first and
only acts when its check is not satisfied, so apply can be re-run safely.

The first failing step stops the run. Nothing already applied is rolled back.

Use --dry-run to check each step in sequence without changing anything.`,
	Args: cobra.NoArgs,
	RunE: runApply,
}

var (
	applyDryRun      bool
	applyMetricsFile string
)

func init() {
	rootCmd.AddCommand(applyCmd)

	applyCmd.Flags().BoolVar(&applyDryRun, "dry-run", false, "Check every step without making changes")
	applyCmd.Flags().StringVar(&applyMetricsFile, "metrics-file", "", "Write run metrics in Prometheus textfile format")
}

func runApply(cmd *cobra.Command, _ []string) error {
	ctx, cancel := signalContext()
	defer cancel()

	var recorder *metrics.Recorder
	var opts []app.Option
	if applyMetricsFile != "" {
		recorder = metrics.NewRecorder()
		opts = append(opts, app.WithRecorder(recorder))
	}

	p := newProvisioner(cmd.OutOrStdout(), opts...)

	s, err := p.Open(ctx, cfgFile)
	if err != nil {
		return err
	}
	defer func() { _ = s.Close() }()

	if recorder != nil {
		defer func() {
			if werr := recorder.WriteTextfile(applyMetricsFile); werr != nil {
				s.Logger().Warn(ctx, "could not write metrics", ports.Err(werr))
			}
		}()
	}

	if err := p.Compile(ctx, s); err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if applyDryRun {
		_, _ = fmt.Fprintln(out, "Checking steps (dry run, no changes will be made)...")
	} else {
		_, _ = fmt.Fprintf(out, "Applying %d steps to %s...\n", s.Sequence.Len(), s.Host.ClusterFQDN())
	}

	results, err := p.Apply(ctx, s, applyDryRun)
	p.Printer().PrintResults(results)
	if err != nil {
		return fmt.Errorf("apply failed: %w", err)
	}
	return nil
}
