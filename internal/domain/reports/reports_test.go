package reports

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dhanix/internal/domain/payroll"
)

func pfItem(uan string, pfApplicable bool) payroll.ItemView {
	return payroll.ItemView{
		Item: payroll.Item{
			DaysWorked:  30,
			TotalDays:   30,
			LopDays:     0,
			BasicSalary: 18000,
			GrossSalary: 30000,
			PFEmployee:  1800,
			PFEmployer:  1800,
		},
		Employee: payroll.EmployeeSummary{
			FirstName:      "Ravi",
			LastName:       "Kumar",
			UAN:            uan,
			IsPFApplicable: pfApplicable,
		},
	}
}

func TestBuildPFRowsCapsWagesWithoutProration(t *testing.T) {
	item := pfItem("100200300400", true)
	item.DaysWorked = 15
	item.GrossSalary = 15000
	item.PFEmployee = 900
	item.PFEmployer = 900
	item.LopDays = 15

	rows := BuildPFRows([]payroll.ItemView{item})
	require.Len(t, rows, 1)

	row := rows[0]
	// Earned basic is 9000; the report ceiling stays at 15000 and is not
	// prorated, so the wage base is the earned basic itself.
	assert.Equal(t, 9000, row.EPFWages)
	assert.Equal(t, 9000, row.EPSWages)
	assert.Equal(t, 9000, row.EDLIWages)
	assert.Equal(t, 900, row.EPFContribution)
	assert.Equal(t, 750, row.EPSContribution, "round(9000 * 0.0833)")
	assert.Equal(t, 150, row.EPFEmployerDiff)
	assert.Equal(t, 15.0, row.NCPDays)
}

func TestBuildPFRowsFullMonthCeiling(t *testing.T) {
	rows := BuildPFRows([]payroll.ItemView{pfItem("100200300400", true)})
	require.Len(t, rows, 1)

	row := rows[0]
	assert.Equal(t, "Ravi Kumar", row.MemberName)
	assert.Equal(t, 30000, row.GrossWages)
	assert.Equal(t, 15000, row.EPFWages, "earned basic 18000 capped at the ceiling")
	assert.Equal(t, 1250, row.EPSContribution, "round(15000 * 0.0833)")
	assert.Equal(t, 550, row.EPFEmployerDiff)
}

func TestBuildPFRowsFiltersMembership(t *testing.T) {
	items := []payroll.ItemView{
		pfItem("100200300400", true),
		pfItem("", true),
		pfItem("100200300401", false),
	}
	rows := BuildPFRows(items)
	require.Len(t, rows, 1)
	assert.Equal(t, "100200300400", rows[0].UAN)
}

func TestBuildESIRows(t *testing.T) {
	items := []payroll.ItemView{
		{
			Item: payroll.Item{DaysWorked: 26.5, GrossSalary: 15000.4},
			Employee: payroll.EmployeeSummary{
				FirstName:       "Priya",
				LastName:        "Sharma",
				ESICIPNumber:    "3100200300",
				IsESIApplicable: true,
			},
		},
		{
			Item:     payroll.Item{DaysWorked: 30, GrossSalary: 30000},
			Employee: payroll.EmployeeSummary{FirstName: "Ravi", IsESIApplicable: false},
		},
		{
			Item:     payroll.Item{DaysWorked: 30, GrossSalary: 9000},
			Employee: payroll.EmployeeSummary{FirstName: "NoIP", IsESIApplicable: true},
		},
	}

	rows := BuildESIRows(items)
	require.Len(t, rows, 1)
	assert.Equal(t, "3100200300", rows[0].IPNumber)
	assert.Equal(t, "Priya Sharma", rows[0].IPName)
	assert.Equal(t, 27, rows[0].Days, "days round to whole units")
	assert.Equal(t, 15000, rows[0].Wages)
}

func TestPFRowRecordShape(t *testing.T) {
	rows := BuildPFRows([]payroll.ItemView{pfItem("100200300400", true)})
	require.Len(t, rows, 1)
	record := rows[0].Record()
	require.Len(t, record, len(PFHeader))
	assert.Equal(t, "100200300400", record[0])
	assert.Equal(t, "0", record[len(record)-1], "refund of advances is always zero")
}

func TestCanExport(t *testing.T) {
	assert.False(t, CanExport(payroll.StatusDraft))
	assert.False(t, CanExport(payroll.StatusProcessing))
	assert.True(t, CanExport(payroll.StatusCompleted))
	assert.True(t, CanExport(payroll.StatusLocked))
}
