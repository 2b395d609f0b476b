package main

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"perfeval/internal/domain/analytics"
	"perfeval/internal/domain/transfer"
)

type exportOptions struct {
	format string
	output string
	title  string
	filter analytics.Filter
}

func newExportCmd(global *globalOptions) *cobra.Command {
	var opts exportOptions

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export the filtered evaluations (csv) or the dashboard report (xlsx, pdf)",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			format := strings.ToLower(strings.TrimSpace(opts.format))
			output := opts.output
			if output == "" {
				output = transfer.FileName(format, time.Now())
			}

			e, err := openEnv(ctx)
			if err != nil {
				return err
			}
			defer e.close(ctx)

			sess, err := e.session(ctx, global.company)
			if err != nil {
				return err
			}

			f, err := os.Create(output)
			if err != nil {
				return err
			}
			if err := e.services.Exporter.Export(ctx, sess, format, opts.filter, opts.title, f); err != nil {
				_ = f.Close()
				_ = os.Remove(output)
				return fmt.Errorf("export %s: %w", format, err)
			}
			if err := f.Close(); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), output)
			return nil
		},
	}

	cmd.Flags().StringVar(&opts.format, "format", transfer.FormatCSV, "Output format: csv, xlsx or pdf")
	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "Output file (default: dated file name)")
	cmd.Flags().StringVar(&opts.title, "title", "Relatório de desempenho", "Report title (pdf)")
	cmd.Flags().StringVar(&opts.filter.From, "from", "", "First month, YYYY-MM")
	cmd.Flags().StringVar(&opts.filter.To, "to", "", "Last month, YYYY-MM")
	cmd.Flags().StringVar(&opts.filter.Sector, "sector", "", "Sector filter")
	cmd.Flags().StringVar(&opts.filter.Role, "role", "", "Role filter")
	cmd.Flags().StringVar(&opts.filter.Level, "level", "", "Level filter")
	cmd.Flags().StringVar(&opts.filter.Status, "status", "", "Employee status filter")
	cmd.Flags().IntVar(&opts.filter.Top, "top", 0, "Employees in the cumulative series")

	return cmd
}
