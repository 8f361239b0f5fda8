package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/vibesafe/vibesafe/internal/vborchestrator"
)

func newScanCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "scan",
		Short: "List decorated units and their compile/drift status",
		RunE: func(cmd *cobra.Command, args []string) error {
			o, err := newOrchestrator()
			if err != nil {
				return err
			}
			statuses, err := o.ScanStatus()
			if err != nil {
				return err
			}
			printStatuses(cmd, statuses)
			return nil
		},
	}
}

func printStatuses(cmd *cobra.Command, statuses []vborchestrator.UnitStatus) {
	for _, s := range statuses {
		fmt.Fprintf(cmd.OutOrStdout(), "%-40s %s\n", s.Spec.UnitID, s.State)
	}
}
