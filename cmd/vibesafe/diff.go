package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newDiffCmd() *cobra.Command {
	var target string

	cmd := &cobra.Command{
		Use:   "diff",
		Short: "Show prompt/code deltas between the current spec and the active checkpoint",
		RunE: func(cmd *cobra.Command, args []string) error {
			if target == "" {
				return usage("diff requires --target <unit-id>")
			}
			o, err := newOrchestrator()
			if err != nil {
				return err
			}
			result, err := o.Diff(target)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), result.String())
			return nil
		},
	}

	cmd.Flags().StringVar(&target, "target", "", "unit id to diff")
	return cmd
}
