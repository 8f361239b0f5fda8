package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Summarise coverage and drift across all units",
		RunE: func(cmd *cobra.Command, args []string) error {
			o, err := newOrchestrator()
			if err != nil {
				return err
			}
			st, err := o.Status()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "total:            %d\n", st.Total)
			fmt.Fprintf(out, "compiled_active:  %d\n", st.CompiledActive)
			fmt.Fprintf(out, "uncompiled:       %d\n", st.Uncompiled)
			fmt.Fprintf(out, "drifted:          %d\n", st.Drifted)
			fmt.Fprintf(out, "missing_examples: %d\n", st.MissingExample)
			return nil
		},
	}
}
