// Package reports derives statutory filing extracts from computed payroll
// items. Everything here is pure; handlers fetch the run and stream the CSV.
package reports

import (
	"math"
	"strconv"

	"dhanix/internal/domain/payroll"
)

// EPSRate is the pension share carved out of the employer PF contribution.
const EPSRate = 0.0833

// Portal wage fields cap at the PF ceiling without proration. That differs
// from the calculator, which prorates the ceiling by paid days, and it is the
// format the EPFO portal expects.
const pfReportCeiling = payroll.PFWageCeiling

var PFHeader = []string{
	"UAN", "Member Name", "Gross Wages", "EPF Wages", "EPS Wages", "EDLI Wages",
	"EPF Contribution (EE)", "EPS Contribution", "EPF Contribution (ER)",
	"NCP Days", "Refund of Advances",
}

var ESIHeader = []string{
	"IP Number", "IP Name", "No of Days", "Total Monthly Wages",
	"Reason Code for Zero Workings Days", "Last Working Day",
}

type PFRow struct {
	UAN             string
	MemberName      string
	GrossWages      int
	EPFWages        int
	EPSWages        int
	EDLIWages       int
	EPFContribution int
	EPSContribution int
	EPFEmployerDiff int
	NCPDays         float64
}

type ESIRow struct {
	IPNumber string
	IPName   string
	Days     int
	Wages    int
}

// BuildPFRows selects PF-applicable employees that have a UAN and derives the
// ECR wage columns from each item.
func BuildPFRows(items []payroll.ItemView) []PFRow {
	var rows []PFRow
	for _, item := range items {
		if !item.Employee.IsPFApplicable || item.Employee.UAN == "" {
			continue
		}

		ratio := 0.0
		if item.TotalDays > 0 {
			ratio = item.DaysWorked / item.TotalDays
		}
		earnedBasic := item.BasicSalary * ratio
		epfWages := wholeRupees(math.Min(earnedBasic, pfReportCeiling))
		epsWages := epfWages
		if epsWages > int(pfReportCeiling) {
			epsWages = int(pfReportCeiling)
		}
		eps := wholeRupees(float64(epsWages) * EPSRate)

		rows = append(rows, PFRow{
			UAN:             item.Employee.UAN,
			MemberName:      memberName(item.Employee),
			GrossWages:      wholeRupees(item.GrossSalary),
			EPFWages:        epfWages,
			EPSWages:        epsWages,
			EDLIWages:       epfWages,
			EPFContribution: wholeRupees(item.PFEmployee),
			EPSContribution: eps,
			EPFEmployerDiff: wholeRupees(item.PFEmployer) - eps,
			NCPDays:         item.LopDays,
		})
	}
	return rows
}

// BuildESIRows selects ESI-applicable employees that have an insurance number.
func BuildESIRows(items []payroll.ItemView) []ESIRow {
	var rows []ESIRow
	for _, item := range items {
		if !item.Employee.IsESIApplicable || item.Employee.ESICIPNumber == "" {
			continue
		}
		rows = append(rows, ESIRow{
			IPNumber: item.Employee.ESICIPNumber,
			IPName:   memberName(item.Employee),
			Days:     wholeRupees(item.DaysWorked),
			Wages:    wholeRupees(item.GrossSalary),
		})
	}
	return rows
}

// CanExport reports whether the run status is final enough to file from.
func CanExport(status string) bool {
	return status == payroll.StatusCompleted || status == payroll.StatusLocked
}

func (r PFRow) Record() []string {
	return []string{
		r.UAN,
		r.MemberName,
		strconv.Itoa(r.GrossWages),
		strconv.Itoa(r.EPFWages),
		strconv.Itoa(r.EPSWages),
		strconv.Itoa(r.EDLIWages),
		strconv.Itoa(r.EPFContribution),
		strconv.Itoa(r.EPSContribution),
		strconv.Itoa(r.EPFEmployerDiff),
		strconv.FormatFloat(r.NCPDays, 'f', -1, 64),
		"0",
	}
}

func (r ESIRow) Record() []string {
	return []string{
		r.IPNumber,
		r.IPName,
		strconv.Itoa(r.Days),
		strconv.Itoa(r.Wages),
		"",
		"",
	}
}

func memberName(e payroll.EmployeeSummary) string {
	if e.LastName == "" {
		return e.FirstName
	}
	return e.FirstName + " " + e.LastName
}

func wholeRupees(v float64) int {
	return int(math.Round(v))
}
