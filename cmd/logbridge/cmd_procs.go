package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"logbridge/pkg/proc"
)

var procsCmd = &cobra.Command{
	Use:   "procs [name]",
	Short: "Count running processes whose name contains name (default: this process)",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runProcs,
}

func init() {
	rootCmd.AddCommand(procsCmd)
}

func runProcs(cmd *cobra.Command, args []string) error {
	self := proc.Current()
	name := self.Name
	if len(args) == 1 {
		name = args[0]
	}

	n, err := proc.CountByNameContext(cmd.Context(), name)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s\t%d\n", name, n)
	return nil
}
