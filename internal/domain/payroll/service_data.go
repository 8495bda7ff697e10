package payroll

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
)

func (s *Service) ListRuns(ctx context.Context, companyID string) ([]Run, error) {
	rows, err := s.store.DB.Query(ctx, `
    SELECT id, company_id, month, status, created_at, updated_at
    FROM payroll_runs
    WHERE company_id = $1
    ORDER BY month DESC
  `, companyID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var run Run
		if err := rows.Scan(&run.ID, &run.CompanyID, &run.Month, &run.Status, &run.CreatedAt, &run.UpdatedAt); err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	return runs, nil
}

func (s *Service) GetRun(ctx context.Context, runID string) (Run, error) {
	var run Run
	err := s.store.DB.QueryRow(ctx, `
    SELECT id, company_id, month, status, created_at, updated_at
    FROM payroll_runs
    WHERE id = $1
  `, runID).Scan(&run.ID, &run.CompanyID, &run.Month, &run.Status, &run.CreatedAt, &run.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Run{}, ErrRunNotFound
	}
	return run, err
}

const itemViewQuery = `
    SELECT i.id, i.payroll_run_id, i.employee_id,
           i.days_worked, i.total_days, i.lop_days,
           i.basic_salary, i.hra, i.special_allowance, i.other_deductions,
           i.gross_salary, i.pf_employee, i.pf_employer,
           i.esi_employee, i.esi_employer, i.net_salary,
           e.id, e.employee_code, e.first_name, e.last_name, e.designation,
           e.uan, e.esic_ip_number, e.is_pf_applicable, e.is_esi_applicable
    FROM payroll_items i
    JOIN employees e ON e.id = i.employee_id`

func scanItemView(row pgx.Row) (ItemView, error) {
	var v ItemView
	err := row.Scan(&v.ID, &v.RunID, &v.EmployeeID,
		&v.DaysWorked, &v.TotalDays, &v.LopDays,
		&v.BasicSalary, &v.HRA, &v.SpecialAllowance, &v.OtherDeductions,
		&v.GrossSalary, &v.PFEmployee, &v.PFEmployer,
		&v.ESIEmployee, &v.ESIEmployer, &v.NetSalary,
		&v.Employee.ID, &v.Employee.EmployeeCode, &v.Employee.FirstName, &v.Employee.LastName,
		&v.Employee.Designation, &v.Employee.UAN, &v.Employee.ESICIPNumber,
		&v.Employee.IsPFApplicable, &v.Employee.IsESIApplicable)
	return v, err
}

// RunDetail returns the run together with every item joined to its employee
// summary, ordered by employee code.
func (s *Service) RunDetail(ctx context.Context, runID string) (RunDetail, error) {
	run, err := s.GetRun(ctx, runID)
	if err != nil {
		return RunDetail{}, err
	}

	rows, err := s.store.DB.Query(ctx, itemViewQuery+`
    WHERE i.payroll_run_id = $1
    ORDER BY e.employee_code
  `, runID)
	if err != nil {
		return RunDetail{}, err
	}
	defer rows.Close()

	detail := RunDetail{Run: run, Items: []ItemView{}}
	for rows.Next() {
		view, err := scanItemView(rows)
		if err != nil {
			return RunDetail{}, err
		}
		detail.Items = append(detail.Items, view)
	}
	return detail, rows.Err()
}

func (s *Service) GetItemView(ctx context.Context, itemID string) (ItemView, error) {
	view, err := scanItemView(s.store.DB.QueryRow(ctx, itemViewQuery+" WHERE i.id = $1", itemID))
	if errors.Is(err, pgx.ErrNoRows) {
		return ItemView{}, ErrItemNotFound
	}
	return view, err
}

// RunOrgID resolves the organization owning a run for membership checks.
func (s *Service) RunOrgID(ctx context.Context, runID string) (string, error) {
	var orgID string
	err := s.store.DB.QueryRow(ctx, `
    SELECT c.organization_id
    FROM payroll_runs r
    JOIN companies c ON c.id = r.company_id
    WHERE r.id = $1
  `, runID).Scan(&orgID)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", ErrRunNotFound
	}
	return orgID, err
}

// ItemOrgID resolves the organization owning an item for membership checks.
func (s *Service) ItemOrgID(ctx context.Context, itemID string) (string, error) {
	var orgID string
	err := s.store.DB.QueryRow(ctx, `
    SELECT c.organization_id
    FROM payroll_items i
    JOIN payroll_runs r ON r.id = i.payroll_run_id
    JOIN companies c ON c.id = r.company_id
    WHERE i.id = $1
  `, itemID).Scan(&orgID)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", ErrItemNotFound
	}
	return orgID, err
}

// PayslipData is everything the payslip renderer needs for one item.
type PayslipData struct {
	CompanyName  string
	Month        string
	RunStatus    string
	EmployeeName string
	EmployeeCode string
	Designation  string
	UAN          string
	GeneratedAt  time.Time
	Item         Item
}

func (s *Service) PayslipData(ctx context.Context, itemID string) (PayslipData, error) {
	var data PayslipData
	var firstName, lastName string
	err := s.store.DB.QueryRow(ctx, `
    SELECT c.name, r.month, r.status,
           e.first_name, e.last_name, e.employee_code, e.designation, e.uan,
           i.id, i.payroll_run_id, i.employee_id,
           i.days_worked, i.total_days, i.lop_days,
           i.basic_salary, i.hra, i.special_allowance, i.other_deductions,
           i.gross_salary, i.pf_employee, i.pf_employer,
           i.esi_employee, i.esi_employer, i.net_salary
    FROM payroll_items i
    JOIN payroll_runs r ON r.id = i.payroll_run_id
    JOIN companies c ON c.id = r.company_id
    JOIN employees e ON e.id = i.employee_id
    WHERE i.id = $1
  `, itemID).Scan(&data.CompanyName, &data.Month, &data.RunStatus,
		&firstName, &lastName, &data.EmployeeCode, &data.Designation, &data.UAN,
		&data.Item.ID, &data.Item.RunID, &data.Item.EmployeeID,
		&data.Item.DaysWorked, &data.Item.TotalDays, &data.Item.LopDays,
		&data.Item.BasicSalary, &data.Item.HRA, &data.Item.SpecialAllowance, &data.Item.OtherDeductions,
		&data.Item.GrossSalary, &data.Item.PFEmployee, &data.Item.PFEmployer,
		&data.Item.ESIEmployee, &data.Item.ESIEmployer, &data.Item.NetSalary)
	if errors.Is(err, pgx.ErrNoRows) {
		return PayslipData{}, ErrItemNotFound
	}
	if err != nil {
		return PayslipData{}, err
	}
	data.EmployeeName = firstName
	if lastName != "" {
		data.EmployeeName += " " + lastName
	}
	data.GeneratedAt = time.Now()
	return data, nil
}
