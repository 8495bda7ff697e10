package payroll

import "math"

type CalcInput struct {
	Basic            float64
	HRA              float64
	SpecialAllowance float64
	DaysWorked       float64
	TotalDays        float64
	OtherDeductions  float64
	PFApplicable     bool
	ESIApplicable    bool
}

type CalcResult struct {
	EarnedBasic      float64
	EarnedHRA        float64
	EarnedSpecial    float64
	Gross            float64
	PFEmployee       float64
	PFEmployer       float64
	ESIEmployee      float64
	ESIEmployer      float64
	Net              float64
}

// Calculate prorates the salary snapshot by paid days and applies PF and ESI
// on top of the prorated amounts. The PF wage ceiling is prorated with the
// payout ratio, and the ESI gross threshold is tested against the prorated
// gross. Results are unrounded; rounding happens once at persistence.
func Calculate(in CalcInput) CalcResult {
	ratio := 0.0
	if in.TotalDays > 0 {
		ratio = in.DaysWorked / in.TotalDays
	}

	var out CalcResult
	out.EarnedBasic = in.Basic * ratio
	out.EarnedHRA = in.HRA * ratio
	out.EarnedSpecial = in.SpecialAllowance * ratio
	out.Gross = out.EarnedBasic + out.EarnedHRA + out.EarnedSpecial

	if in.PFApplicable {
		pfWages := math.Min(out.EarnedBasic, PFWageCeiling*ratio)
		out.PFEmployee = pfWages * PFRate
		out.PFEmployer = pfWages * PFRate
	}

	if in.ESIApplicable && out.Gross < ESIGrossLimit {
		out.ESIEmployee = out.Gross * ESIEmployeeRate
		out.ESIEmployer = out.Gross * ESIEmployerRate
	}

	out.Net = out.Gross - out.PFEmployee - out.ESIEmployee - in.OtherDeductions
	return out
}

// Rounded returns a copy with every monetary field rounded to two decimals.
func (r CalcResult) Rounded() CalcResult {
	r.EarnedBasic = Round2(r.EarnedBasic)
	r.EarnedHRA = Round2(r.EarnedHRA)
	r.EarnedSpecial = Round2(r.EarnedSpecial)
	r.Gross = Round2(r.Gross)
	r.PFEmployee = Round2(r.PFEmployee)
	r.PFEmployer = Round2(r.PFEmployer)
	r.ESIEmployee = Round2(r.ESIEmployee)
	r.ESIEmployer = Round2(r.ESIEmployer)
	r.Net = Round2(r.Net)
	return r
}

func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}
