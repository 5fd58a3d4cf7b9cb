package main

import (
	"github.com/spf13/cobra"
)

var stepsCmd = &cobra.Command{
	Use:   "steps",
	Short: "List the stages in default sequence order",
	Long: `Steps lists every stage okd4prov knows, in the order it runs them
when the inventory has no steps list. Use these names in steps: to run
a subset.`,
	Args: cobra.NoArgs,
	Run: func(cmd *cobra.Command, _ []string) {
		p := newProvisioner(cmd.OutOrStdout())
		p.Printer().PrintStages(p.Stages())
	},
}

func init() {
	rootCmd.AddCommand(stepsCmd)
}
