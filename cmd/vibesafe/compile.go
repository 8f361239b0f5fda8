package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/vibesafe/vibesafe/internal/vbdisplay"
)

func newCompileCmd() *cobra.Command {
	var target string
	var force bool

	cmd := &cobra.Command{
		Use:   "compile",
		Short: "Extract -> Hash -> Prompt -> Provider -> Validate -> Store.write",
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

			results, err := o.CompileAll(cmd.Context(), targets, force)
			if err != nil {
				return err
			}

			var failed int
			for _, r := range results {
				if r.Err != nil {
					failed++
					fmt.Fprintf(cmd.ErrOrStderr(), "%s: FAILED: %v\n", r.UnitID, r.Err)
					continue
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s: %s (%s)\n", r.UnitID, vbdisplay.ShortID(r.Checkpoint[:]), r.Checkpoint)
			}
			if failed > 0 {
				return fmt.Errorf("%d of %d units failed to compile", failed, len(results))
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&target, "target", "", "unit id or module path to compile (default: everything)")
	cmd.Flags().BoolVar(&force, "force", false, "bypass the provider cache")
	return cmd
}
