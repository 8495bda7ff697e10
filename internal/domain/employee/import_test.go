package employee

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseImportMatchesColumnsByName(t *testing.T) {
	csvBody := strings.Join([]string{
		"firstName,employeeCode,fixedBasic,isEsiApplicable,uan",
		"Ravi,EMP001,18000,yes,100200300400",
	}, "\n")

	rows, failed, err := parseImport(strings.NewReader(csvBody), "company-1")
	require.NoError(t, err)
	assert.Empty(t, failed)
	require.Len(t, rows, 1)

	e := rows[0].employee
	assert.Equal(t, "EMP001", e.EmployeeCode)
	assert.Equal(t, "Ravi", e.FirstName)
	assert.Equal(t, 18000.0, e.FixedBasicSalary)
	assert.True(t, e.IsESIApplicable)
	assert.True(t, e.IsPFApplicable, "pf applicability defaults to true when column absent")
	assert.Equal(t, "100200300400", e.UAN)
	assert.True(t, e.IsActive)
}

func TestParseImportCollectsRowFailures(t *testing.T) {
	csvBody := strings.Join([]string{
		"employeeCode,firstName,fixedBasic,dateOfJoining",
		",Ravi,18000,",
		"EMP002,,9000,",
		"EMP003,Priya,notanumber,",
		"EMP004,Arjun,30000,03-01-2024",
		"EMP005,Sneha,12000,2024-01-03",
	}, "\n")

	rows, failed, err := parseImport(strings.NewReader(csvBody), "company-1")
	require.NoError(t, err)
	require.Len(t, rows, 1, "only the fully valid row survives")
	assert.Equal(t, "EMP005", rows[0].employee.EmployeeCode)

	require.Len(t, failed, 4)
	assert.Equal(t, 2, failed[0].Row)
	assert.Contains(t, failed[0].Reason, "employeeCode")
	assert.Contains(t, failed[1].Reason, "firstName")
	assert.Contains(t, failed[2].Reason, "fixedBasic")
	assert.Contains(t, failed[3].Reason, "dateOfJoining")
}

func TestParseImportRejectsNegativeAmounts(t *testing.T) {
	csvBody := "employeeCode,firstName,fixedBasic\nEMP001,Ravi,-100\n"

	rows, failed, err := parseImport(strings.NewReader(csvBody), "company-1")
	require.NoError(t, err)
	assert.Empty(t, rows)
	require.Len(t, failed, 1)
	assert.Contains(t, failed[0].Reason, "non-negative")
}

func TestParseImportMissingHeader(t *testing.T) {
	_, _, err := parseImport(strings.NewReader(""), "company-1")
	assert.Error(t, err)
}
