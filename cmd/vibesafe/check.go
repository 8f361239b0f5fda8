package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newCheckCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Bundle lint + type + examples + drift across all units",
		RunE: func(cmd *cobra.Command, args []string) error {
			o, err := newOrchestrator()
			if err != nil {
				return err
			}
			report, err := o.Check(cmd.Context())
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "lint: %s\n", gateStatus(report.Lint.Passed))
			fmt.Fprintf(out, "type: %s\n", gateStatus(report.Type.Passed))
			for _, u := range report.Units {
				fmt.Fprintf(out, "%-40s %-16s %s\n", u.UnitID, u.State, gateStatus(u.Passed()))
				if u.PinWarning != "" {
					fmt.Fprintf(cmd.ErrOrStderr(), "%s: warning: %s\n", u.UnitID, u.PinWarning)
				}
			}

			if !report.Passed() {
				return fmt.Errorf("check found failing gates or drifted units")
			}
			return nil
		},
	}
}

func gateStatus(passed bool) string {
	if passed {
		return "ok"
	}
	return "FAIL"
}
