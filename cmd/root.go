package main

import (
	"github.com/spf13/cobra"
)

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "studentperf",
		Short:         "Student performance pass/fail prediction service",
		SilenceUsage:  true,
		SilenceErrors: false,
	}
	root.AddCommand(newServeCmd(), newPredictCmd(), newFieldsCmd())
	return root
}
