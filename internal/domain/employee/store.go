package employee

import (
	"context"
	"errors"
	"strconv"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var ErrNotFound = errors.New("employee not found")

type Store struct {
	DB *pgxpool.Pool
}

func NewStore(db *pgxpool.Pool) *Store {
	return &Store{DB: db}
}

const employeeColumns = `
    id, company_id, employee_code, first_name, last_name, email, phone, designation,
    date_of_joining, is_active, bank_account_number, ifsc_code, uan, esic_ip_number,
    is_pf_applicable, is_esi_applicable,
    fixed_basic_salary, fixed_hra, fixed_special_allowance, created_at`

func scanEmployee(row pgx.Row) (Employee, error) {
	var e Employee
	err := row.Scan(&e.ID, &e.CompanyID, &e.EmployeeCode, &e.FirstName, &e.LastName, &e.Email, &e.Phone,
		&e.Designation, &e.DateOfJoining, &e.IsActive, &e.BankAccountNumber, &e.IFSCCode, &e.UAN,
		&e.ESICIPNumber, &e.IsPFApplicable, &e.IsESIApplicable,
		&e.FixedBasicSalary, &e.FixedHRA, &e.FixedSpecialAllowance, &e.CreatedAt)
	return e, err
}

func (s *Store) List(ctx context.Context, companyID, search string, limit, offset int) ([]Employee, int, error) {
	where := "company_id = $1"
	args := []any{companyID}
	if search = strings.TrimSpace(search); search != "" {
		where += " AND (employee_code ILIKE $2 OR first_name ILIKE $2 OR last_name ILIKE $2)"
		args = append(args, "%"+search+"%")
	}

	var total int
	if err := s.DB.QueryRow(ctx, "SELECT COUNT(1) FROM employees WHERE "+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := "SELECT" + employeeColumns + " FROM employees WHERE " + where +
		" ORDER BY employee_code" +
		" LIMIT $" + itoa(len(args)+1) + " OFFSET $" + itoa(len(args)+2)
	args = append(args, limit, offset)
	rows, err := s.DB.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var out []Employee
	for rows.Next() {
		e, err := scanEmployee(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, e)
	}
	return out, total, nil
}

func (s *Store) Get(ctx context.Context, employeeID string) (Employee, error) {
	e, err := scanEmployee(s.DB.QueryRow(ctx,
		"SELECT"+employeeColumns+" FROM employees WHERE id = $1", employeeID))
	if errors.Is(err, pgx.ErrNoRows) {
		return e, ErrNotFound
	}
	return e, err
}

func (s *Store) Create(ctx context.Context, e Employee) (string, error) {
	var id string
	err := s.DB.QueryRow(ctx, `
    INSERT INTO employees (company_id, employee_code, first_name, last_name, email, phone, designation,
                           date_of_joining, is_active, bank_account_number, ifsc_code, uan, esic_ip_number,
                           is_pf_applicable, is_esi_applicable,
                           fixed_basic_salary, fixed_hra, fixed_special_allowance)
    VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18)
    RETURNING id
  `, e.CompanyID, e.EmployeeCode, e.FirstName, e.LastName, e.Email, e.Phone, e.Designation,
		e.DateOfJoining, e.IsActive, e.BankAccountNumber, e.IFSCCode, e.UAN, e.ESICIPNumber,
		e.IsPFApplicable, e.IsESIApplicable,
		e.FixedBasicSalary, e.FixedHRA, e.FixedSpecialAllowance).Scan(&id)
	return id, err
}

func (s *Store) Update(ctx context.Context, e Employee) error {
	tag, err := s.DB.Exec(ctx, `
    UPDATE employees
    SET first_name = $1, last_name = $2, email = $3, phone = $4, designation = $5,
        date_of_joining = $6, is_active = $7, bank_account_number = $8, ifsc_code = $9,
        uan = $10, esic_ip_number = $11, is_pf_applicable = $12, is_esi_applicable = $13,
        fixed_basic_salary = $14, fixed_hra = $15, fixed_special_allowance = $16,
        updated_at = now()
    WHERE id = $17
  `, e.FirstName, e.LastName, e.Email, e.Phone, e.Designation,
		e.DateOfJoining, e.IsActive, e.BankAccountNumber, e.IFSCCode,
		e.UAN, e.ESICIPNumber, e.IsPFApplicable, e.IsESIApplicable,
		e.FixedBasicSalary, e.FixedHRA, e.FixedSpecialAllowance, e.ID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// UpsertByCode inserts or updates on (company_id, employee_code) and reports
// whether a new row was created. Bulk import depends on this being a single
// statement so concurrent imports cannot double-insert a code.
func (s *Store) UpsertByCode(ctx context.Context, e Employee) (created bool, err error) {
	var inserted bool
	err = s.DB.QueryRow(ctx, `
    INSERT INTO employees (company_id, employee_code, first_name, last_name, email, phone, designation,
                           date_of_joining, is_active, bank_account_number, ifsc_code, uan, esic_ip_number,
                           is_pf_applicable, is_esi_applicable,
                           fixed_basic_salary, fixed_hra, fixed_special_allowance)
    VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18)
    ON CONFLICT (company_id, employee_code) DO UPDATE
    SET first_name = EXCLUDED.first_name, last_name = EXCLUDED.last_name,
        email = EXCLUDED.email, phone = EXCLUDED.phone, designation = EXCLUDED.designation,
        date_of_joining = EXCLUDED.date_of_joining,
        bank_account_number = EXCLUDED.bank_account_number, ifsc_code = EXCLUDED.ifsc_code,
        uan = EXCLUDED.uan, esic_ip_number = EXCLUDED.esic_ip_number,
        is_pf_applicable = EXCLUDED.is_pf_applicable, is_esi_applicable = EXCLUDED.is_esi_applicable,
        fixed_basic_salary = EXCLUDED.fixed_basic_salary, fixed_hra = EXCLUDED.fixed_hra,
        fixed_special_allowance = EXCLUDED.fixed_special_allowance,
        updated_at = now()
    RETURNING (xmax = 0)
  `, e.CompanyID, e.EmployeeCode, e.FirstName, e.LastName, e.Email, e.Phone, e.Designation,
		e.DateOfJoining, e.IsActive, e.BankAccountNumber, e.IFSCCode, e.UAN, e.ESICIPNumber,
		e.IsPFApplicable, e.IsESIApplicable,
		e.FixedBasicSalary, e.FixedHRA, e.FixedSpecialAllowance).Scan(&inserted)
	return inserted, err
}

// CompanyID resolves the owning company for membership checks.
func (s *Store) CompanyID(ctx context.Context, employeeID string) (string, error) {
	var companyID string
	err := s.DB.QueryRow(ctx, "SELECT company_id FROM employees WHERE id = $1", employeeID).Scan(&companyID)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", ErrNotFound
	}
	return companyID, err
}

func itoa(v int) string {
	return strconv.Itoa(v)
}
