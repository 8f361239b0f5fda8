package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/vibesafe/vibesafe/internal/vbharness"
)

func newTestCmd() *cobra.Command {
	var target string

	cmd := &cobra.Command{
		Use:   "test",
		Short: "Run the Verification Harness against the latest candidate",
		RunE: func(cmd *cobra.Command, args []string) error {
			o, err := newOrchestrator()
			if err != nil {
				return err
			}
			specs, err := o.Scan()
			if err != nil {
				return err
			}
			targets, err := selectSpecs(specs, target)
			if err != nil {
				return err
			}

			var failed int
			for _, spec := range targets {
				reports, err := o.Test(cmd.Context(), spec.UnitID)
				if err != nil {
					failed++
					fmt.Fprintf(cmd.ErrOrStderr(), "%s: %v\n", spec.UnitID, err)
					continue
				}
				printGateReports(cmd, spec.UnitID, reports)
			}
			if failed > 0 {
				return fmt.Errorf("%d of %d units failed verification", failed, len(targets))
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&target, "target", "", "unit id or module path to test (default: everything)")
	return cmd
}

func printGateReports(cmd *cobra.Command, unitID string, reports []vbharness.GateReport) {
	for _, r := range reports {
		status := "ok"
		if !r.Passed {
			status = "FAIL"
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s: %-10s %s\n", unitID, r.Gate, status)
	}
}
