package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var planCmd = &cobra.Command{
	Use:   "plan",
	Short: "Show what okd4prov would change on the staging host",
	Long: `Plan connects to the staging host and checks every step without
changing anything.

This command:
1. Loads the inventory and OKD4PROV_* overrides
2. Discovers the host's distribution
3. Resolves the OKD release when the installer stage runs
4. Checks each step and prints what apply would do

Steps whose input an earlier step creates (the installer binary, the
install-config) show as skipped until that step has been applied.`,
	Args: cobra.NoArgs,
	RunE: runPlan,
}

func init() {
	rootCmd.AddCommand(planCmd)
}

func runPlan(cmd *cobra.Command, _ []string) error {
	ctx, cancel := signalContext()
	defer cancel()

	p := newProvisioner(cmd.OutOrStdout())

	s, err := p.Open(ctx, cfgFile)
	if err != nil {
		return err
	}
	defer func() { _ = s.Close() }()

	plan, err := p.Plan(ctx, s)
	if err != nil {
		return fmt.Errorf("plan failed: %w", err)
	}

	p.Printer().PrintPlan(s, plan)
	return nil
}
