package main

import (
	"github.com/spf13/cobra"
)

var factsCmd = &cobra.Command{
	Use:   "facts",
	Short: "Show what okd4prov discovers about the staging host",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, cancel := signalContext()
		defer cancel()

		p := newProvisioner(cmd.OutOrStdout())
		s, err := p.Open(ctx, cfgFile)
		if err != nil {
			return err
		}
		defer func() { _ = s.Close() }()

		p.Printer().PrintFacts(s)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(factsCmd)
}
