package payroll

import (
	"context"
	"errors"
	"io"
	"log"
	"regexp"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

var monthPattern = regexp.MustCompile(`^\d{4}-(0[1-9]|1[0-2])$`)

var ErrInvalidAttendance = errors.New("attendance values out of range")

type Service struct {
	store *Store
}

func NewService(store *Store) *Service {
	return &Service{store: store}
}

// CreateRun opens a DRAFT run for the month and snapshots the salary
// structure of every active employee into one item each. Attendance starts at
// a full 30-day month with zeroed outputs until the first calculation.
func (s *Service) CreateRun(ctx context.Context, companyID, month string) (Run, error) {
	if !monthPattern.MatchString(month) {
		return Run{}, ErrInvalidMonth
	}

	tx, err := s.store.DB.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return Run{}, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var run Run
	err = tx.QueryRow(ctx, `
    INSERT INTO payroll_runs (company_id, month)
    VALUES ($1,$2)
    RETURNING id, company_id, month, status, created_at, updated_at
  `, companyID, month).Scan(&run.ID, &run.CompanyID, &run.Month, &run.Status, &run.CreatedAt, &run.UpdatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return Run{}, ErrDuplicateRun
		}
		return Run{}, err
	}

	if _, err := tx.Exec(ctx, `
    INSERT INTO payroll_items (payroll_run_id, employee_id, days_worked, total_days, lop_days,
                               basic_salary, hra, special_allowance)
    SELECT $1, id, $2, $2, 0, fixed_basic_salary, fixed_hra, fixed_special_allowance
    FROM employees
    WHERE company_id = $3 AND is_active
  `, run.ID, DefaultTotalDays, companyID); err != nil {
		return Run{}, err
	}

	if err := tx.Commit(ctx); err != nil {
		return Run{}, err
	}
	return run, nil
}

// Calculate recomputes every item of the run in place without changing the
// run status. Allowed on DRAFT and COMPLETED runs.
func (s *Service) Calculate(ctx context.Context, runID string) error {
	tx, err := s.store.DB.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	run, err := lockRun(ctx, tx, runID)
	if err != nil {
		return err
	}
	if !Allows(run.Status, OpCalculate) {
		return ErrStateConflict
	}

	if err := computeItems(ctx, tx, runID); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

// Process recomputes the whole run and moves it to COMPLETED. Re-processing a
// COMPLETED run is allowed and idempotent. The run row stays locked for the
// duration, so item edits cannot interleave with the batch.
func (s *Service) Process(ctx context.Context, runID string) (Run, error) {
	tx, err := s.store.DB.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return Run{}, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	run, err := lockRun(ctx, tx, runID)
	if err != nil {
		return Run{}, err
	}
	if !Allows(run.Status, OpProcess) {
		return Run{}, ErrStateConflict
	}

	if _, err := tx.Exec(ctx, "UPDATE payroll_runs SET status = $1, updated_at = now() WHERE id = $2", StatusProcessing, runID); err != nil {
		return Run{}, err
	}
	if err := computeItems(ctx, tx, runID); err != nil {
		return Run{}, err
	}
	err = tx.QueryRow(ctx, `
    UPDATE payroll_runs SET status = $1, updated_at = now()
    WHERE id = $2
    RETURNING id, company_id, month, status, created_at, updated_at
  `, StatusCompleted, runID).Scan(&run.ID, &run.CompanyID, &run.Month, &run.Status, &run.CreatedAt, &run.UpdatedAt)
	if err != nil {
		return Run{}, err
	}

	if err := tx.Commit(ctx); err != nil {
		return Run{}, err
	}
	return run, nil
}

// Lock makes a COMPLETED run immutable. Locking an already LOCKED run is a
// no-op; locking a DRAFT run is rejected.
func (s *Service) Lock(ctx context.Context, runID string) (Run, error) {
	tx, err := s.store.DB.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return Run{}, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	run, err := lockRun(ctx, tx, runID)
	if err != nil {
		return Run{}, err
	}
	if run.Status == StatusLocked {
		return run, tx.Commit(ctx)
	}
	if !Allows(run.Status, OpLock) {
		return Run{}, ErrStateConflict
	}

	err = tx.QueryRow(ctx, `
    UPDATE payroll_runs SET status = $1, updated_at = now()
    WHERE id = $2
    RETURNING id, company_id, month, status, created_at, updated_at
  `, StatusLocked, runID).Scan(&run.ID, &run.CompanyID, &run.Month, &run.Status, &run.CreatedAt, &run.UpdatedAt)
	if err != nil {
		return Run{}, err
	}

	if err := tx.Commit(ctx); err != nil {
		return Run{}, err
	}
	return run, nil
}

// UpdateItem applies an attendance patch to a single item and recomputes it
// in the same transaction. The owning run row is locked first so the edit
// cannot race a whole-run process.
func (s *Service) UpdateItem(ctx context.Context, itemID string, patch ItemPatch) (ItemView, error) {
	tx, err := s.store.DB.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return ItemView{}, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var runStatus string
	err = tx.QueryRow(ctx, `
    SELECT r.status
    FROM payroll_items i
    JOIN payroll_runs r ON r.id = i.payroll_run_id
    WHERE i.id = $1
    FOR UPDATE OF r
  `, itemID).Scan(&runStatus)
	if errors.Is(err, pgx.ErrNoRows) {
		return ItemView{}, ErrItemNotFound
	}
	if err != nil {
		return ItemView{}, err
	}
	if !Allows(runStatus, OpUpdateItem) {
		return ItemView{}, ErrStateConflict
	}

	var in CalcInput
	var lop float64
	err = tx.QueryRow(ctx, `
    SELECT i.days_worked, i.total_days, i.lop_days, i.other_deductions,
           i.basic_salary, i.hra, i.special_allowance,
           e.is_pf_applicable, e.is_esi_applicable
    FROM payroll_items i
    JOIN employees e ON e.id = i.employee_id
    WHERE i.id = $1
  `, itemID).Scan(&in.DaysWorked, &in.TotalDays, &lop, &in.OtherDeductions,
		&in.Basic, &in.HRA, &in.SpecialAllowance, &in.PFApplicable, &in.ESIApplicable)
	if err != nil {
		return ItemView{}, err
	}

	if patch.DaysWorked != nil {
		in.DaysWorked = *patch.DaysWorked
	}
	if patch.LopDays != nil {
		lop = *patch.LopDays
	}
	if patch.OtherDeductions != nil {
		in.OtherDeductions = *patch.OtherDeductions
	}
	if in.DaysWorked < 0 || in.DaysWorked > MaxPaidDays || lop < 0 || in.OtherDeductions < 0 {
		return ItemView{}, ErrInvalidAttendance
	}

	result := Calculate(in).Rounded()
	if _, err := tx.Exec(ctx, `
    UPDATE payroll_items
    SET days_worked = $1, lop_days = $2, other_deductions = $3,
        gross_salary = $4, pf_employee = $5, pf_employer = $6,
        esi_employee = $7, esi_employer = $8, net_salary = $9,
        updated_at = now()
    WHERE id = $10
  `, in.DaysWorked, lop, in.OtherDeductions,
		result.Gross, result.PFEmployee, result.PFEmployer,
		result.ESIEmployee, result.ESIEmployer, result.Net, itemID); err != nil {
		return ItemView{}, err
	}

	if err := tx.Commit(ctx); err != nil {
		return ItemView{}, err
	}
	return s.GetItemView(ctx, itemID)
}

// ImportAttendance applies an attendance CSV to a DRAFT run. Unknown codes
// are skipped, malformed rows are counted as errors, matched items are
// updated and recomputed. Columns the sheet does not carry leave the item's
// current lop days and deductions untouched.
func (s *Service) ImportAttendance(ctx context.Context, runID string, r io.Reader) (AttendanceResult, error) {
	rows, errorCount, err := parseAttendance(r)
	if err != nil {
		return AttendanceResult{}, err
	}
	result := AttendanceResult{Errors: errorCount}

	tx, err := s.store.DB.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return AttendanceResult{}, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	run, err := lockRun(ctx, tx, runID)
	if err != nil {
		return AttendanceResult{}, err
	}
	if !Allows(run.Status, OpImportAttendance) {
		return AttendanceResult{}, ErrStateConflict
	}

	type itemTarget struct {
		id  string
		lop float64
		in  CalcInput
	}
	targets := map[string]itemTarget{}
	itemRows, err := tx.Query(ctx, `
    SELECT i.id, e.employee_code, i.total_days, i.lop_days, i.other_deductions,
           i.basic_salary, i.hra, i.special_allowance,
           e.is_pf_applicable, e.is_esi_applicable
    FROM payroll_items i
    JOIN employees e ON e.id = i.employee_id
    WHERE i.payroll_run_id = $1
  `, runID)
	if err != nil {
		return AttendanceResult{}, err
	}
	for itemRows.Next() {
		var t itemTarget
		var code string
		if err := itemRows.Scan(&t.id, &code, &t.in.TotalDays, &t.lop, &t.in.OtherDeductions,
			&t.in.Basic, &t.in.HRA, &t.in.SpecialAllowance,
			&t.in.PFApplicable, &t.in.ESIApplicable); err != nil {
			itemRows.Close()
			return AttendanceResult{}, err
		}
		targets[code] = t
	}
	itemRows.Close()
	if err := itemRows.Err(); err != nil {
		return AttendanceResult{}, err
	}

	for _, row := range rows {
		target, ok := targets[row.EmployeeCode]
		if !ok {
			result.Skipped++
			continue
		}
		target.in.DaysWorked = row.PaidDays
		if row.LopDays != nil {
			target.lop = *row.LopDays
		}
		if row.OtherDeductions != nil {
			target.in.OtherDeductions = *row.OtherDeductions
		}
		computed := Calculate(target.in).Rounded()
		if _, err := tx.Exec(ctx, `
      UPDATE payroll_items
      SET days_worked = $1, lop_days = $2, other_deductions = $3,
          gross_salary = $4, pf_employee = $5, pf_employer = $6,
          esi_employee = $7, esi_employer = $8, net_salary = $9,
          updated_at = now()
      WHERE id = $10
    `, row.PaidDays, target.lop, target.in.OtherDeductions,
			computed.Gross, computed.PFEmployee, computed.PFEmployer,
			computed.ESIEmployee, computed.ESIEmployer, computed.Net, target.id); err != nil {
			return AttendanceResult{}, err
		}
		result.Matched++
	}

	if err := tx.Commit(ctx); err != nil {
		return AttendanceResult{}, err
	}
	return result, nil
}

func lockRun(ctx context.Context, tx pgx.Tx, runID string) (Run, error) {
	var run Run
	err := tx.QueryRow(ctx, `
    SELECT id, company_id, month, status, created_at, updated_at
    FROM payroll_runs
    WHERE id = $1
    FOR UPDATE
  `, runID).Scan(&run.ID, &run.CompanyID, &run.Month, &run.Status, &run.CreatedAt, &run.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Run{}, ErrRunNotFound
	}
	return run, err
}

func computeItems(ctx context.Context, tx pgx.Tx, runID string) error {
	type itemInput struct {
		id  string
		lop float64
		in  CalcInput
	}
	rows, err := tx.Query(ctx, `
    SELECT i.id, i.days_worked, i.total_days, i.lop_days, i.other_deductions,
           i.basic_salary, i.hra, i.special_allowance,
           e.id, e.is_pf_applicable, e.is_esi_applicable
    FROM payroll_items i
    LEFT JOIN employees e ON e.id = i.employee_id
    WHERE i.payroll_run_id = $1
  `, runID)
	if err != nil {
		return err
	}

	var inputs []itemInput
	for rows.Next() {
		var item itemInput
		var employeeID *string
		var pfApplicable, esiApplicable *bool
		if err := rows.Scan(&item.id, &item.in.DaysWorked, &item.in.TotalDays, &item.lop, &item.in.OtherDeductions,
			&item.in.Basic, &item.in.HRA, &item.in.SpecialAllowance,
			&employeeID, &pfApplicable, &esiApplicable); err != nil {
			rows.Close()
			return err
		}
		if employeeID == nil {
			log.Printf("payroll item %s has no employee, skipping", item.id)
			continue
		}
		item.in.PFApplicable = *pfApplicable
		item.in.ESIApplicable = *esiApplicable
		inputs = append(inputs, item)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return err
	}

	for _, item := range inputs {
		result := Calculate(item.in).Rounded()
		if _, err := tx.Exec(ctx, `
      UPDATE payroll_items
      SET gross_salary = $1, pf_employee = $2, pf_employer = $3,
          esi_employee = $4, esi_employer = $5, net_salary = $6,
          updated_at = now()
      WHERE id = $7
    `, result.Gross, result.PFEmployee, result.PFEmployer,
			result.ESIEmployee, result.ESIEmployer, result.Net, item.id); err != nil {
			return err
		}
	}
	return nil
}
