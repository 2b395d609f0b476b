package db

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"perfeval/internal/domain/auth"
	"perfeval/internal/domain/catalog"
	"perfeval/internal/domain/tenant"
	"perfeval/internal/platform/config"
	"perfeval/internal/platform/crypto"
	"perfeval/internal/platform/docstore"
)

type defaultCriterion struct {
	name  string
	level string
}

var defaultCriteria = []defaultCriterion{
	{"Visão Estratégica", catalog.LevelStrategic},
	{"Tomada de Decisão", catalog.LevelStrategic},
	{"Planejamento", catalog.LevelTactical},
	{"Gestão de Equipes", catalog.LevelTactical},
	{"Qualidade do Trabalho", catalog.LevelOperational},
	{"Produtividade", catalog.LevelOperational},
	{"Comunicação", catalog.LevelCollaborator},
	{"Trabalho em Equipe", catalog.LevelCollaborator},
	{"Liderança", catalog.LevelLeader},
	{"Desenvolvimento de Pessoas", catalog.LevelLeader},
}

type SeedResult struct {
	CompanyID       string `json:"companyId"`
	AdminCreated    bool   `json:"adminCreated"`
	CriteriaCreated int    `json:"criteriaCreated"`
}

// Seed creates the default company, the admin user and the shared criteria.
// Every step is idempotent.
func Seed(ctx context.Context, store docstore.Store, cfg config.Config) (SeedResult, error) {
	var result SeedResult

	companies := tenant.NewService(tenant.NewStore(store))
	company, err := companies.EnsureCompany(ctx, cfg.SeedCompanyName)
	if err != nil {
		return result, fmt.Errorf("seed company: %w", err)
	}
	result.CompanyID = company.ID

	if strings.TrimSpace(cfg.SeedAdminEmail) != "" && strings.TrimSpace(cfg.SeedAdminPassword) != "" {
		sealer, err := crypto.New(cfg.DataEncryptionKey)
		if err != nil {
			return result, err
		}
		users := auth.NewService(auth.NewStore(store), companies, sealer, cfg.JWTSecret, cfg.TokenTTL)
		_, created, err := users.EnsureUser(ctx, auth.UserInput{
			Email:    cfg.SeedAdminEmail,
			Name:     "Administrador",
			Password: cfg.SeedAdminPassword,
			Role:     auth.RoleAdmin,
		})
		if err != nil {
			return result, fmt.Errorf("seed admin: %w", err)
		}
		result.AdminCreated = created
	} else {
		slog.Warn("seed admin skipped; SEED_ADMIN_EMAIL or SEED_ADMIN_PASSWORD empty")
	}

	criteria := catalog.NewService(catalog.NewStore(store))
	for _, c := range defaultCriteria {
		_, created, err := criteria.EnsureCriterion(ctx, c.name, c.level, "")
		if err != nil {
			return result, fmt.Errorf("seed criterion %q: %w", c.name, err)
		}
		if created {
			result.CriteriaCreated++
		}
	}
	return result, nil
}
