package payroll

import "time"

type Run struct {
	ID        string    `json:"id"`
	CompanyID string    `json:"companyId"`
	Month     string    `json:"month"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

type Item struct {
	ID               string  `json:"id"`
	RunID            string  `json:"payrollRunId"`
	EmployeeID       string  `json:"employeeId"`
	DaysWorked       float64 `json:"daysWorked"`
	TotalDays        float64 `json:"totalDays"`
	LopDays          float64 `json:"lopDays"`
	BasicSalary      float64 `json:"basicSalary"`
	HRA              float64 `json:"hra"`
	SpecialAllowance float64 `json:"specialAllowance"`
	OtherDeductions  float64 `json:"otherDeductions"`
	GrossSalary      float64 `json:"grossSalary"`
	PFEmployee       float64 `json:"pfEmployee"`
	PFEmployer       float64 `json:"pfEmployer"`
	ESIEmployee      float64 `json:"esiEmployee"`
	ESIEmployer      float64 `json:"esiEmployer"`
	NetSalary        float64 `json:"netSalary"`
}

// EmployeeSummary is the slice of employee data a payroll screen needs next
// to each item. Items are always served with this joined in, so callers never
// merge the two sides themselves.
type EmployeeSummary struct {
	ID              string `json:"id"`
	EmployeeCode    string `json:"employeeCode"`
	FirstName       string `json:"firstName"`
	LastName        string `json:"lastName"`
	Designation     string `json:"designation"`
	UAN             string `json:"uan"`
	ESICIPNumber    string `json:"esicIpNumber"`
	IsPFApplicable  bool   `json:"isPfApplicable"`
	IsESIApplicable bool   `json:"isEsiApplicable"`
}

type ItemView struct {
	Item
	Employee EmployeeSummary `json:"employee"`
}

type RunDetail struct {
	Run
	Items []ItemView `json:"items"`
}

type ItemPatch struct {
	DaysWorked      *float64 `json:"daysWorked"`
	LopDays         *float64 `json:"lopDays"`
	OtherDeductions *float64 `json:"otherDeductions"`
}

type AttendanceResult struct {
	Matched int `json:"matched"`
	Skipped int `json:"skipped"`
	Errors  int `json:"errors"`
}
