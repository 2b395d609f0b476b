package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"perfeval/internal/domain/transfer"
)

type importOptions struct {
	target string
	format string
	apply  bool
}

func newImportCmd(global *globalOptions) *cobra.Command {
	var opts importOptions

	cmd := &cobra.Command{
		Use:   "import <file>",
		Short: "Import employees, evaluations, sectors, roles or criteria from CSV/XLSX",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			path := args[0]
			format := strings.ToLower(strings.TrimSpace(opts.format))
			if format == "" {
				format = strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), ".")
			}

			f, err := os.Open(path)
			if err != nil {
				return err
			}
			defer f.Close()

			e, err := openEnv(ctx)
			if err != nil {
				return err
			}
			defer e.close(ctx)

			sess, err := e.session(ctx, global.company)
			if err != nil {
				return err
			}
			report, err := e.services.Importer.ImportFile(ctx, sess, transfer.Options{
				Target: strings.ToLower(strings.TrimSpace(opts.target)),
				Format: format,
				DryRun: !opts.apply,
			}, f)
			if err != nil {
				return fmt.Errorf("import %s: %w", path, err)
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(report)
		},
	}

	cmd.Flags().StringVar(&opts.target, "target", "", "Import target: "+strings.Join(transfer.Targets, ", ")+" (required)")
	cmd.Flags().StringVar(&opts.format, "format", "", "File format: csv or xlsx (default: from the file extension)")
	cmd.Flags().BoolVar(&opts.apply, "apply", false, "Write to the store (default is dry-run)")
	_ = cmd.MarkFlagRequired("target")

	return cmd
}
