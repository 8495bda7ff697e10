package employee

import "time"

type Employee struct {
	ID                    string     `json:"id"`
	CompanyID             string     `json:"companyId"`
	EmployeeCode          string     `json:"employeeCode"`
	FirstName             string     `json:"firstName"`
	LastName              string     `json:"lastName"`
	Email                 string     `json:"email"`
	Phone                 string     `json:"phone"`
	Designation           string     `json:"designation"`
	DateOfJoining         *time.Time `json:"dateOfJoining,omitempty"`
	IsActive              bool       `json:"isActive"`
	BankAccountNumber     string     `json:"bankAccountNumber"`
	IFSCCode              string     `json:"ifscCode"`
	UAN                   string     `json:"uan"`
	ESICIPNumber          string     `json:"esicIpNumber"`
	IsPFApplicable        bool       `json:"isPfApplicable"`
	IsESIApplicable       bool       `json:"isEsiApplicable"`
	FixedBasicSalary      float64    `json:"fixedBasicSalary"`
	FixedHRA              float64    `json:"fixedHra"`
	FixedSpecialAllowance float64    `json:"fixedSpecialAllowance"`
	CreatedAt             time.Time  `json:"createdAt"`
}
