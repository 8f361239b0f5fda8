package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newSaveCmd() *cobra.Command {
	var target string
	var freezeHTTPDeps bool

	cmd := &cobra.Command{
		Use:   "save",
		Short: "Run all gates and activate the checkpoint if they pass",
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
				reports, err := o.Save(cmd.Context(), spec.UnitID, freezeHTTPDeps)
				if err != nil {
					failed++
					fmt.Fprintf(cmd.ErrOrStderr(), "%s: not saved: %v\n", spec.UnitID, err)
					continue
				}
				printGateReports(cmd, spec.UnitID, reports)
				fmt.Fprintf(cmd.OutOrStdout(), "%s: saved\n", spec.UnitID)
			}
			if failed > 0 {
				return fmt.Errorf("%d of %d units failed to save", failed, len(targets))
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&target, "target", "", "unit id or module path to save (default: everything)")
	cmd.Flags().BoolVar(&freezeHTTPDeps, "freeze-http-deps", false, "pin the resolved dependency digest into meta.toml")
	return cmd
}
