package payslip

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/jung-kurt/gofpdf"

	"dhanix/internal/domain/payroll"
)

type Service struct {
	dir string
}

func NewService(dir string) *Service {
	return &Service{dir: dir}
}

// Generate renders a payslip PDF for one computed item and returns the file
// path. Callers gate on run status; this only draws.
func (s *Service) Generate(data payroll.PayslipData) (string, error) {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return "", err
	}
	filePath := filepath.Join(s.dir, data.Item.ID+".pdf")

	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.AddPage()
	pdf.SetFont("Helvetica", "B", 16)
	pdf.Cell(0, 10, data.CompanyName)
	pdf.Ln(8)
	pdf.SetFont("Helvetica", "", 12)
	pdf.Cell(0, 8, fmt.Sprintf("Payslip for %s", data.Month))
	pdf.Ln(10)

	pdf.Cell(0, 8, fmt.Sprintf("Employee: %s (%s)", data.EmployeeName, data.EmployeeCode))
	pdf.Ln(7)
	if data.Designation != "" {
		pdf.Cell(0, 8, fmt.Sprintf("Designation: %s", data.Designation))
		pdf.Ln(7)
	}
	if data.UAN != "" {
		pdf.Cell(0, 8, fmt.Sprintf("UAN: %s", data.UAN))
		pdf.Ln(7)
	}
	pdf.Cell(0, 8, fmt.Sprintf("Paid days: %.1f of %.1f (LOP %.1f)",
		data.Item.DaysWorked, data.Item.TotalDays, data.Item.LopDays))
	pdf.Ln(10)

	pdf.SetFont("Helvetica", "B", 12)
	pdf.Cell(0, 8, "Earnings")
	pdf.Ln(7)
	pdf.SetFont("Helvetica", "", 12)
	line := func(label string, amount float64) {
		pdf.Cell(120, 7, label)
		pdf.CellFormat(40, 7, fmt.Sprintf("%.2f", amount), "", 0, "R", false, 0, "")
		pdf.Ln(7)
	}
	ratio := 0.0
	if data.Item.TotalDays > 0 {
		ratio = data.Item.DaysWorked / data.Item.TotalDays
	}
	line("Basic", payroll.Round2(data.Item.BasicSalary*ratio))
	line("HRA", payroll.Round2(data.Item.HRA*ratio))
	line("Special Allowance", payroll.Round2(data.Item.SpecialAllowance*ratio))
	line("Gross", data.Item.GrossSalary)
	pdf.Ln(3)

	pdf.SetFont("Helvetica", "B", 12)
	pdf.Cell(0, 8, "Deductions")
	pdf.Ln(7)
	pdf.SetFont("Helvetica", "", 12)
	line("PF (Employee)", data.Item.PFEmployee)
	line("ESI (Employee)", data.Item.ESIEmployee)
	line("Other Deductions", data.Item.OtherDeductions)
	pdf.Ln(3)

	pdf.SetFont("Helvetica", "B", 12)
	line("Net Pay", data.Item.NetSalary)
	pdf.SetFont("Helvetica", "I", 9)
	pdf.Ln(5)
	pdf.Cell(0, 6, fmt.Sprintf("Generated on %s", data.GeneratedAt.Format("2006-01-02 15:04")))

	if err := pdf.OutputFileAndClose(filePath); err != nil {
		return "", err
	}
	return filePath, nil
}
