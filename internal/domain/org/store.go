package org

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var (
	ErrNotFound  = errors.New("organization not found")
	ErrNotMember = errors.New("not a member of this organization")
)

type Store struct {
	DB *pgxpool.Pool
}

func NewStore(db *pgxpool.Pool) *Store {
	return &Store{DB: db}
}

// CreateOrganization creates the organization and enrolls the creator as
// OWNER in one transaction.
func (s *Store) CreateOrganization(ctx context.Context, name, creatorUserID string) (string, error) {
	tx, err := s.DB.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return "", err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var id string
	if err := tx.QueryRow(ctx, "INSERT INTO organizations (name) VALUES ($1) RETURNING id", name).Scan(&id); err != nil {
		return "", err
	}
	if _, err := tx.Exec(ctx, `
    INSERT INTO organization_members (organization_id, user_id, role)
    VALUES ($1,$2,$3)
  `, id, creatorUserID, RoleOwner); err != nil {
		return "", err
	}

	if err := tx.Commit(ctx); err != nil {
		return "", err
	}
	return id, nil
}

func (s *Store) ListOrganizationsForUser(ctx context.Context, userID string) ([]Organization, error) {
	rows, err := s.DB.Query(ctx, `
    SELECT o.id, o.name, m.role, o.created_at
    FROM organizations o
    JOIN organization_members m ON m.organization_id = o.id
    WHERE m.user_id = $1
    ORDER BY o.created_at
  `, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Organization
	for rows.Next() {
		var o Organization
		if err := rows.Scan(&o.ID, &o.Name, &o.Role, &o.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, o)
	}
	return out, nil
}

func (s *Store) GetOrganization(ctx context.Context, orgID string) (Organization, error) {
	var o Organization
	err := s.DB.QueryRow(ctx, `
    SELECT id, name, created_at
    FROM organizations
    WHERE id = $1
  `, orgID).Scan(&o.ID, &o.Name, &o.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return o, ErrNotFound
	}
	return o, err
}

// MemberRole returns the caller's role in the organization, or ErrNotMember.
func (s *Store) MemberRole(ctx context.Context, orgID, userID string) (string, error) {
	var role string
	err := s.DB.QueryRow(ctx, `
    SELECT role
    FROM organization_members
    WHERE organization_id = $1 AND user_id = $2
  `, orgID, userID).Scan(&role)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", ErrNotMember
	}
	return role, err
}

func (s *Store) AddMember(ctx context.Context, orgID, userID, role string) error {
	_, err := s.DB.Exec(ctx, `
    INSERT INTO organization_members (organization_id, user_id, role)
    VALUES ($1,$2,$3)
    ON CONFLICT (organization_id, user_id) DO UPDATE SET role = EXCLUDED.role
  `, orgID, userID, role)
	return err
}

func (s *Store) CreateCompany(ctx context.Context, c Company) (string, error) {
	var id string
	err := s.DB.QueryRow(ctx, `
    INSERT INTO companies (organization_id, name, address, pan, tan, pf_code, esi_code)
    VALUES ($1,$2,$3,$4,$5,$6,$7)
    RETURNING id
  `, c.OrganizationID, c.Name, c.Address, c.PAN, c.TAN, c.PFCode, c.ESICode).Scan(&id)
	return id, err
}

func (s *Store) ListCompanies(ctx context.Context, orgID string) ([]Company, error) {
	rows, err := s.DB.Query(ctx, `
    SELECT id, organization_id, name, address, pan, tan, pf_code, esi_code, created_at
    FROM companies
    WHERE organization_id = $1
    ORDER BY name
  `, orgID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Company
	for rows.Next() {
		var c Company
		if err := rows.Scan(&c.ID, &c.OrganizationID, &c.Name, &c.Address, &c.PAN, &c.TAN, &c.PFCode, &c.ESICode, &c.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, nil
}

func (s *Store) GetCompany(ctx context.Context, companyID string) (Company, error) {
	var c Company
	err := s.DB.QueryRow(ctx, `
    SELECT id, organization_id, name, address, pan, tan, pf_code, esi_code, created_at
    FROM companies
    WHERE id = $1
  `, companyID).Scan(&c.ID, &c.OrganizationID, &c.Name, &c.Address, &c.PAN, &c.TAN, &c.PFCode, &c.ESICode, &c.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return c, ErrNotFound
	}
	return c, err
}

func (s *Store) UpdateCompany(ctx context.Context, c Company) error {
	tag, err := s.DB.Exec(ctx, `
    UPDATE companies
    SET name = $1, address = $2, pan = $3, tan = $4, pf_code = $5, esi_code = $6
    WHERE id = $7
  `, c.Name, c.Address, c.PAN, c.TAN, c.PFCode, c.ESICode, c.ID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// CompanyOrgID resolves the owning organization for membership checks.
func (s *Store) CompanyOrgID(ctx context.Context, companyID string) (string, error) {
	var orgID string
	err := s.DB.QueryRow(ctx, "SELECT organization_id FROM companies WHERE id = $1", companyID).Scan(&orgID)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", ErrNotFound
	}
	return orgID, err
}
