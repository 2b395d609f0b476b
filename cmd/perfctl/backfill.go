package main

import (
	"encoding/json"

	"github.com/spf13/cobra"
)

func newBackfillCmd(global *globalOptions) *cobra.Command {
	var apply bool

	cmd := &cobra.Command{
		Use:   "backfill",
		Short: "Link evaluations without an employee id to their employee",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			e, err := openEnv(ctx)
			if err != nil {
				return err
			}
			defer e.close(ctx)

			sess, err := e.session(ctx, global.company)
			if err != nil {
				return err
			}
			report, err := e.services.Evaluations.Backfill(ctx, sess, !apply)
			if err != nil {
				return err
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(report)
		},
	}
	cmd.Flags().BoolVar(&apply, "apply", false, "Write the links (default is dry-run)")
	return cmd
}
