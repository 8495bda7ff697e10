package db

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"dhanix/internal/domain/auth"
	"dhanix/internal/domain/org"
	"dhanix/internal/platform/config"
)

// SeedDemo provisions a demo owner with one organization, one company and a
// few employees so a fresh install has something to run payroll against.
func SeedDemo(ctx context.Context, pool *pgxpool.Pool, cfg config.Config) error {
	if cfg.SeedOwnerPassword == "" {
		return errors.New("SEED_OWNER_PASSWORD is required when SEED_DEMO_DATA is enabled")
	}

	userID, created, err := ensureUser(ctx, pool, cfg.SeedOwnerEmail, cfg.SeedOwnerPassword, "Demo Owner")
	if err != nil {
		return err
	}
	if !created {
		return nil
	}

	var orgID string
	if err := pool.QueryRow(ctx, "INSERT INTO organizations (name) VALUES ($1) RETURNING id", "Demo Organization").Scan(&orgID); err != nil {
		return err
	}
	if _, err := pool.Exec(ctx, `
    INSERT INTO organization_members (organization_id, user_id, role)
    VALUES ($1,$2,$3)
  `, orgID, userID, org.RoleOwner); err != nil {
		return err
	}

	var companyID string
	if err := pool.QueryRow(ctx, `
    INSERT INTO companies (organization_id, name, address, pan)
    VALUES ($1,$2,$3,$4)
    RETURNING id
  `, orgID, "Demo Manufacturing Pvt Ltd", "Industrial Area, Pune", "AAACD1234E").Scan(&companyID); err != nil {
		return err
	}

	type seedEmployee struct {
		code  string
		first string
		last  string
		uan   string
		esiIP string
		pf    bool
		esi   bool
		basic float64
		hra   float64
		spl   float64
	}
	seedEmployees := []seedEmployee{
		{"EMP001", "Ravi", "Kumar", "100200300400", "", true, false, 18000, 7200, 4800},
		{"EMP002", "Priya", "Sharma", "100200300401", "3100200300", true, true, 9000, 3600, 2400},
		{"EMP003", "Arjun", "Mehta", "", "", false, false, 30000, 12000, 8000},
	}
	for _, e := range seedEmployees {
		if _, err := pool.Exec(ctx, `
      INSERT INTO employees (company_id, employee_code, first_name, last_name, uan, esic_ip_number,
                             is_pf_applicable, is_esi_applicable,
                             fixed_basic_salary, fixed_hra, fixed_special_allowance)
      VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)
      ON CONFLICT (company_id, employee_code) DO NOTHING
    `, companyID, e.code, e.first, e.last, e.uan, e.esiIP, e.pf, e.esi, e.basic, e.hra, e.spl); err != nil {
			return err
		}
	}

	return nil
}

func ensureUser(ctx context.Context, pool *pgxpool.Pool, email, password, fullName string) (string, bool, error) {
	var id string
	err := pool.QueryRow(ctx, "SELECT id FROM users WHERE email = $1", email).Scan(&id)
	if err == nil {
		return id, false, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return "", false, err
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return "", false, err
	}
	if err := pool.QueryRow(ctx, `
    INSERT INTO users (email, password_hash, full_name)
    VALUES ($1,$2,$3)
    RETURNING id
  `, email, hash, fullName).Scan(&id); err != nil {
		return "", false, err
	}
	return id, true, nil
}
