package payroll

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseAttendanceMixedRows(t *testing.T) {
	csvBody := strings.Join([]string{
		"employee_code,paid_days,lop_days,other_deductions",
		"EMP001,28,2,150",
		",30,0,0",
		"EMP003,abc,0,0",
	}, "\n")

	rows, errorCount, err := parseAttendance(strings.NewReader(csvBody))
	require.NoError(t, err)
	assert.Equal(t, 2, errorCount, "missing code and non-numeric paid_days are errors")
	require.Len(t, rows, 1)
	assert.Equal(t, "EMP001", rows[0].EmployeeCode)
	assert.Equal(t, 28.0, rows[0].PaidDays)
	require.NotNil(t, rows[0].LopDays)
	assert.Equal(t, 2.0, *rows[0].LopDays)
	require.NotNil(t, rows[0].OtherDeductions)
	assert.Equal(t, 150.0, *rows[0].OtherDeductions)
}

func TestParseAttendanceClampsValues(t *testing.T) {
	csvBody := strings.Join([]string{
		"employee_code,paid_days,lop_days,other_deductions",
		"EMP001,45,-3,-500",
		"EMP002,-1,0,0",
	}, "\n")

	rows, errorCount, err := parseAttendance(strings.NewReader(csvBody))
	require.NoError(t, err)
	assert.Zero(t, errorCount)
	require.Len(t, rows, 2)
	assert.Equal(t, 31.0, rows[0].PaidDays, "paid days clamp to the month ceiling")
	require.NotNil(t, rows[0].LopDays)
	assert.Equal(t, 0.0, *rows[0].LopDays)
	require.NotNil(t, rows[0].OtherDeductions)
	assert.Equal(t, 0.0, *rows[0].OtherDeductions)
	assert.Equal(t, 0.0, rows[1].PaidDays)
}

// A sheet without the optional columns must not stage a zero override; the
// item's stored lop days and manual deductions stay as they are.
func TestParseAttendanceAbsentColumnsStageNoOverride(t *testing.T) {
	csvBody := "employee_code,paid_days\nEMP001,26\n"

	rows, errorCount, err := parseAttendance(strings.NewReader(csvBody))
	require.NoError(t, err)
	assert.Zero(t, errorCount)
	require.Len(t, rows, 1)
	assert.Equal(t, 26.0, rows[0].PaidDays)
	assert.Nil(t, rows[0].LopDays)
	assert.Nil(t, rows[0].OtherDeductions)
}

// An empty cell in a present column behaves like an absent column.
func TestParseAttendanceEmptyCellsStageNoOverride(t *testing.T) {
	csvBody := "employee_code,paid_days,lop_days,other_deductions\nEMP001,26,,\n"

	rows, errorCount, err := parseAttendance(strings.NewReader(csvBody))
	require.NoError(t, err)
	assert.Zero(t, errorCount)
	require.Len(t, rows, 1)
	assert.Nil(t, rows[0].LopDays)
	assert.Nil(t, rows[0].OtherDeductions)
}

func TestParseAttendanceMissingPaidDays(t *testing.T) {
	csvBody := "employee_code,lop_days\nEMP001,2\n"

	rows, errorCount, err := parseAttendance(strings.NewReader(csvBody))
	require.NoError(t, err)
	assert.Empty(t, rows)
	assert.Equal(t, 1, errorCount)
}

func TestParseAttendanceEmptyBody(t *testing.T) {
	_, _, err := parseAttendance(strings.NewReader(""))
	assert.Error(t, err)
}
