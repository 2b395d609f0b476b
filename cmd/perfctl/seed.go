package main

import (
	"encoding/json"

	"github.com/spf13/cobra"

	"perfeval/internal/platform/db"
)

func newSeedCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Create the default company, admin user and shared criteria",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			e, err := openEnv(ctx)
			if err != nil {
				return err
			}
			defer e.close(ctx)

			result, err := db.Seed(ctx, e.docs, e.cfg)
			if err != nil {
				return err
			}
			return json.NewEncoder(cmd.OutOrStdout()).Encode(result)
		},
	}
}
