package employee

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"
)

// ImportTemplateHeader is the canonical column order for the bulk import
// template download. The parser itself matches columns by name, not position.
var ImportTemplateHeader = []string{
	"employeeCode", "firstName", "lastName", "email", "phone", "dateOfJoining",
	"designation", "bankAccountNumber", "ifscCode", "uan", "esicIpNumber",
	"isPfApplicable", "isEsiApplicable", "fixedBasic", "fixedHra", "fixedSpecialAllowance",
}

type ImportResult struct {
	Created     int         `json:"created"`
	Updated     int         `json:"updated"`
	FailedCount int         `json:"failedCount"`
	FailedRows  []FailedRow `json:"failedRows"`
}

type FailedRow struct {
	Row    int    `json:"row"`
	Code   string `json:"employeeCode,omitempty"`
	Reason string `json:"reason"`
}

type importRow struct {
	rowNum   int
	employee Employee
}

// parseImport reads the CSV and returns well-formed rows plus per-row
// failures. A malformed row never aborts the batch.
func parseImport(r io.Reader, companyID string) ([]importRow, []FailedRow, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	headers, err := reader.Read()
	if err != nil {
		return nil, nil, fmt.Errorf("missing csv header: %w", err)
	}
	index := map[string]int{}
	for i, h := range headers {
		index[strings.ToLower(strings.TrimSpace(h))] = i
	}
	get := func(row []string, key string) string {
		if idx, ok := index[strings.ToLower(key)]; ok && idx < len(row) {
			return strings.TrimSpace(row[idx])
		}
		return ""
	}

	var rows []importRow
	var failed []FailedRow
	rowNum := 1
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		rowNum++
		if err != nil {
			failed = append(failed, FailedRow{Row: rowNum, Reason: "malformed csv row"})
			continue
		}

		code := get(record, "employeeCode")
		if code == "" {
			failed = append(failed, FailedRow{Row: rowNum, Reason: "employeeCode is required"})
			continue
		}
		firstName := get(record, "firstName")
		if firstName == "" {
			failed = append(failed, FailedRow{Row: rowNum, Code: code, Reason: "firstName is required"})
			continue
		}

		basic, err := parseAmount(get(record, "fixedBasic"))
		if err != nil {
			failed = append(failed, FailedRow{Row: rowNum, Code: code, Reason: "fixedBasic must be a non-negative number"})
			continue
		}
		hra, err := parseAmount(get(record, "fixedHra"))
		if err != nil {
			failed = append(failed, FailedRow{Row: rowNum, Code: code, Reason: "fixedHra must be a non-negative number"})
			continue
		}
		special, err := parseAmount(get(record, "fixedSpecialAllowance"))
		if err != nil {
			failed = append(failed, FailedRow{Row: rowNum, Code: code, Reason: "fixedSpecialAllowance must be a non-negative number"})
			continue
		}

		var doj *time.Time
		if raw := get(record, "dateOfJoining"); raw != "" {
			parsed, err := time.Parse("2006-01-02", raw)
			if err != nil {
				failed = append(failed, FailedRow{Row: rowNum, Code: code, Reason: "dateOfJoining must be YYYY-MM-DD"})
				continue
			}
			doj = &parsed
		}

		rows = append(rows, importRow{
			rowNum: rowNum,
			employee: Employee{
				CompanyID:             companyID,
				EmployeeCode:          code,
				FirstName:             firstName,
				LastName:              get(record, "lastName"),
				Email:                 get(record, "email"),
				Phone:                 get(record, "phone"),
				Designation:           get(record, "designation"),
				DateOfJoining:         doj,
				IsActive:              true,
				BankAccountNumber:     get(record, "bankAccountNumber"),
				IFSCCode:              get(record, "ifscCode"),
				UAN:                   get(record, "uan"),
				ESICIPNumber:          get(record, "esicIpNumber"),
				IsPFApplicable:        parseFlag(get(record, "isPfApplicable"), true),
				IsESIApplicable:       parseFlag(get(record, "isEsiApplicable"), false),
				FixedBasicSalary:      basic,
				FixedHRA:              hra,
				FixedSpecialAllowance: special,
			},
		})
	}
	return rows, failed, nil
}

// Import upserts employees from a CSV stream keyed by employeeCode.
func (s *Store) Import(ctx context.Context, companyID string, r io.Reader) (ImportResult, error) {
	rows, failed, err := parseImport(r, companyID)
	if err != nil {
		return ImportResult{}, err
	}

	result := ImportResult{FailedRows: failed}
	for _, row := range rows {
		created, err := s.UpsertByCode(ctx, row.employee)
		if err != nil {
			result.FailedRows = append(result.FailedRows, FailedRow{
				Row:    row.rowNum,
				Code:   row.employee.EmployeeCode,
				Reason: "database rejected row",
			})
			continue
		}
		if created {
			result.Created++
		} else {
			result.Updated++
		}
	}
	result.FailedCount = len(result.FailedRows)
	return result, nil
}

func parseAmount(raw string) (float64, error) {
	if raw == "" {
		return 0, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil || v < 0 {
		return 0, errors.New("invalid amount")
	}
	return v, nil
}

func parseFlag(raw string, fallback bool) bool {
	if raw == "" {
		return fallback
	}
	switch strings.ToLower(raw) {
	case "true", "yes", "y", "1":
		return true
	case "false", "no", "n", "0":
		return false
	}
	return fallback
}
