package org

import "time"

const (
	RoleOwner = "OWNER"
	RoleAdmin = "ADMIN"
	RoleStaff = "STAFF"
)

type Organization struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Role      string    `json:"role,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

type Company struct {
	ID             string    `json:"id"`
	OrganizationID string    `json:"organizationId"`
	Name           string    `json:"name"`
	Address        string    `json:"address"`
	PAN            string    `json:"pan"`
	TAN            string    `json:"tan"`
	PFCode         string    `json:"pfCode"`
	ESICode        string    `json:"esiCode"`
	CreatedAt      time.Time `json:"createdAt"`
}

// CanManagePayroll reports whether a membership role may mutate payroll and
// employee data. STAFF members get read-only access.
func CanManagePayroll(role string) bool {
	return role == RoleOwner || role == RoleAdmin
}
