package payroll

import "testing"

func TestCalculateFullMonth(t *testing.T) {
	result := Calculate(CalcInput{
		Basic:            18000,
		HRA:              7200,
		SpecialAllowance: 4800,
		DaysWorked:       30,
		TotalDays:        30,
		PFApplicable:     true,
	}).Rounded()

	if result.Gross != 30000 {
		t.Fatalf("expected gross 30000, got %v", result.Gross)
	}
	// PF wages cap at 15000 even though earned basic is 18000.
	if result.PFEmployee != 1800 {
		t.Fatalf("expected employee PF 1800, got %v", result.PFEmployee)
	}
	if result.PFEmployer != 1800 {
		t.Fatalf("expected employer PF 1800, got %v", result.PFEmployer)
	}
	if result.ESIEmployee != 0 {
		t.Fatalf("expected no ESI above the gross limit, got %v", result.ESIEmployee)
	}
	if result.Net != 28200 {
		t.Fatalf("expected net 28200, got %v", result.Net)
	}
}

func TestCalculateHalfMonthProration(t *testing.T) {
	result := Calculate(CalcInput{
		Basic:            18000,
		HRA:              7200,
		SpecialAllowance: 4800,
		DaysWorked:       15,
		TotalDays:        30,
		PFApplicable:     true,
		ESIApplicable:    true,
	}).Rounded()

	if result.Gross != 15000 {
		t.Fatalf("expected gross 15000, got %v", result.Gross)
	}
	// Earned basic is 9000 but the prorated ceiling is 7500, so PF is 900.
	if result.PFEmployee != 900 {
		t.Fatalf("expected employee PF 900, got %v", result.PFEmployee)
	}
	// Prorated gross drops below the ESI limit, so ESI kicks in.
	if result.ESIEmployee != 112.5 {
		t.Fatalf("expected employee ESI 112.5, got %v", result.ESIEmployee)
	}
	if result.ESIEmployer != 487.5 {
		t.Fatalf("expected employer ESI 487.5, got %v", result.ESIEmployer)
	}
	if result.Net != 13987.5 {
		t.Fatalf("expected net 13987.5, got %v", result.Net)
	}
}

func TestCalculateZeroTotalDays(t *testing.T) {
	result := Calculate(CalcInput{
		Basic:        18000,
		HRA:          7200,
		DaysWorked:   30,
		TotalDays:    0,
		PFApplicable: true,
	}).Rounded()

	if result.Gross != 0 || result.Net != 0 || result.PFEmployee != 0 {
		t.Fatalf("expected all-zero result for zero total days, got %+v", result)
	}
}

func TestCalculateESIThresholdBoundary(t *testing.T) {
	// Exactly at the limit: ESI does not apply.
	atLimit := Calculate(CalcInput{
		Basic:         21000,
		DaysWorked:    30,
		TotalDays:     30,
		ESIApplicable: true,
	}).Rounded()
	if atLimit.ESIEmployee != 0 {
		t.Fatalf("expected no ESI at exactly 21000 gross, got %v", atLimit.ESIEmployee)
	}

	below := Calculate(CalcInput{
		Basic:         20999,
		DaysWorked:    30,
		TotalDays:     30,
		ESIApplicable: true,
	}).Rounded()
	if below.ESIEmployee != Round2(20999*ESIEmployeeRate) {
		t.Fatalf("expected ESI just below the limit, got %v", below.ESIEmployee)
	}
}

func TestCalculateOtherDeductionsReduceNetOnly(t *testing.T) {
	result := Calculate(CalcInput{
		Basic:           10000,
		DaysWorked:      30,
		TotalDays:       30,
		OtherDeductions: 500,
	}).Rounded()

	if result.Gross != 10000 {
		t.Fatalf("expected gross unaffected by deductions, got %v", result.Gross)
	}
	if result.Net != 9500 {
		t.Fatalf("expected net 9500, got %v", result.Net)
	}
}

func TestCalculateNetCanGoNegative(t *testing.T) {
	result := Calculate(CalcInput{
		Basic:           1000,
		DaysWorked:      30,
		TotalDays:       30,
		OtherDeductions: 2000,
	}).Rounded()

	if result.Net != -1000 {
		t.Fatalf("expected negative net carried through, got %v", result.Net)
	}
}

func TestCalculateNotApplicableFlags(t *testing.T) {
	result := Calculate(CalcInput{
		Basic:      12000,
		DaysWorked: 30,
		TotalDays:  30,
	}).Rounded()

	if result.PFEmployee != 0 || result.PFEmployer != 0 || result.ESIEmployee != 0 || result.ESIEmployer != 0 {
		t.Fatalf("expected no statutory deductions when flags are off, got %+v", result)
	}
	if result.Net != 12000 {
		t.Fatalf("expected net 12000, got %v", result.Net)
	}
}
