package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"perfeval/internal/app/server"
	"perfeval/internal/domain/auth"
	"perfeval/internal/domain/tenant"
	"perfeval/internal/platform/blob"
	"perfeval/internal/platform/config"
	"perfeval/internal/platform/db"
	"perfeval/internal/platform/docstore"
	"perfeval/internal/platform/textnorm"
)

type globalOptions struct {
	company string
	verbose bool
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var opts globalOptions

	root := &cobra.Command{
		Use:           "perfctl",
		Short:         "Operate the performance evaluation store from the command line",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			level := slog.LevelWarn
			if opts.verbose {
				level = slog.LevelDebug
			}
			slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
		},
	}
	root.PersistentFlags().StringVar(&opts.company, "company", "", "Company id or name (default: the seed company)")
	root.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "Verbose logging")

	root.AddCommand(
		newImportCmd(&opts),
		newExportCmd(&opts),
		newSeedCmd(),
		newBackfillCmd(&opts),
	)
	return root
}

// env is an open store with the wired services; close releases the store.
type env struct {
	cfg      config.Config
	docs     docstore.Store
	services *server.Services
}

func openEnv(ctx context.Context) (*env, error) {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	docs, err := db.Open(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}
	blobs, err := blob.Open(cfg)
	if err != nil {
		_ = docs.Close(ctx)
		return nil, fmt.Errorf("open blob store: %w", err)
	}
	services, err := server.NewServices(cfg, docs, blobs)
	if err != nil {
		_ = docs.Close(ctx)
		return nil, err
	}
	return &env{cfg: cfg, docs: docs, services: services}, nil
}

func (e *env) close(ctx context.Context) {
	if err := e.docs.Close(ctx); err != nil {
		slog.Warn("store close failed", "err", err)
	}
}

// session resolves --company by id, then by normalized name, and acts as an
// admin inside it.
func (e *env) session(ctx context.Context, company string) (tenant.Session, error) {
	company = strings.TrimSpace(company)
	if company == "" {
		company = e.cfg.SeedCompanyName
	}
	sess := tenant.Session{UserID: "perfctl", Role: auth.RoleAdmin, RequestID: "perfctl-" + docstore.NewID()}

	if c, err := e.services.Tenants.GetCompany(ctx, company); err == nil {
		sess.CompanyID = c.ID
		return sess, nil
	}
	companies, err := e.services.Tenants.ListCompanies(ctx, nil)
	if err != nil {
		return sess, err
	}
	key := textnorm.Key(company)
	for _, c := range companies {
		if textnorm.Key(c.Name) == key {
			sess.CompanyID = c.ID
			return sess, nil
		}
	}
	return sess, fmt.Errorf("company %q not found", company)
}
