package payroll

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// AttendanceRow carries one parsed override. LopDays and OtherDeductions are
// nil when the sheet does not provide the column, so existing values on the
// item survive a partial sheet instead of being reset to zero.
type AttendanceRow struct {
	EmployeeCode    string
	PaidDays        float64
	LopDays         *float64
	OtherDeductions *float64
}

// parseAttendance reads an attendance CSV keyed by employee_code. Rows with a
// missing code or a non-numeric value count as errors and never abort the
// batch. Paid days are clamped to [0, 31] and deductions to >= 0 so a bad
// sheet cannot push an item into nonsense territory.
func parseAttendance(r io.Reader) (rows []AttendanceRow, errorCount int, err error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	headers, err := reader.Read()
	if err != nil {
		return nil, 0, fmt.Errorf("missing csv header: %w", err)
	}
	index := map[string]int{}
	for i, h := range headers {
		index[strings.ToLower(strings.TrimSpace(h))] = i
	}
	get := func(record []string, key string) (string, bool) {
		idx, ok := index[key]
		if !ok || idx >= len(record) {
			return "", false
		}
		return strings.TrimSpace(record[idx]), true
	}

	for {
		record, readErr := reader.Read()
		if errors.Is(readErr, io.EOF) {
			break
		}
		if readErr != nil {
			errorCount++
			continue
		}

		code, _ := get(record, "employee_code")
		if code == "" {
			errorCount++
			continue
		}

		paidRaw, hasPaid := get(record, "paid_days")
		if !hasPaid || paidRaw == "" {
			errorCount++
			continue
		}
		paid, err := strconv.ParseFloat(paidRaw, 64)
		if err != nil {
			errorCount++
			continue
		}

		var lop *float64
		if raw, ok := get(record, "lop_days"); ok && raw != "" {
			parsed, err := strconv.ParseFloat(raw, 64)
			if err != nil {
				errorCount++
				continue
			}
			clamped := clamp(parsed, 0, MaxPaidDays)
			lop = &clamped
		}

		var deductions *float64
		if raw, ok := get(record, "other_deductions"); ok && raw != "" {
			parsed, err := strconv.ParseFloat(raw, 64)
			if err != nil {
				errorCount++
				continue
			}
			floored := max(parsed, 0)
			deductions = &floored
		}

		rows = append(rows, AttendanceRow{
			EmployeeCode:    code,
			PaidDays:        clamp(paid, 0, MaxPaidDays),
			LopDays:         lop,
			OtherDeductions: deductions,
		})
	}
	return rows, errorCount, nil
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
