package employeehandler

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"dhanix/internal/domain/employee"
	"dhanix/internal/domain/org"
	"dhanix/internal/transport/http/api"
	orghandler "dhanix/internal/transport/http/handlers/org"
	"dhanix/internal/transport/http/middleware"
	"dhanix/internal/transport/http/shared"
)

type Handler struct {
	Store *employee.Store
	Orgs  *org.Store
}

func NewHandler(db *pgxpool.Pool) *Handler {
	return &Handler{Store: employee.NewStore(db), Orgs: org.NewStore(db)}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/companies/{companyID}/employees", func(r chi.Router) {
		r.Get("/", h.handleList)
		r.Post("/", h.handleCreate)
		r.Get("/import/template", h.handleImportTemplate)
		r.Post("/import", h.handleImport)
	})
	r.Route("/employees/{employeeID}", func(r chi.Router) {
		r.Get("/", h.handleGet)
		r.Patch("/", h.handleUpdate)
	})
}

// companyMembership checks the caller belongs to the organization owning the
// company in the URL and returns their role.
func (h *Handler) companyMembership(w http.ResponseWriter, r *http.Request, companyID string) (string, bool) {
	requestID := middleware.GetRequestID(r.Context())
	orgID, err := h.Orgs.CompanyOrgID(r.Context(), companyID)
	if err != nil {
		if errors.Is(err, org.ErrNotFound) {
			api.Fail(w, http.StatusNotFound, "not_found", "company not found", requestID)
			return "", false
		}
		api.Fail(w, http.StatusInternalServerError, "company_failed", "failed to load company", requestID)
		return "", false
	}
	return orghandler.RequireMember(w, r, h.Orgs, orgID)
}

func (h *Handler) employeeMembership(w http.ResponseWriter, r *http.Request, employeeID string) (string, bool) {
	requestID := middleware.GetRequestID(r.Context())
	companyID, err := h.Store.CompanyID(r.Context(), employeeID)
	if err != nil {
		if errors.Is(err, employee.ErrNotFound) {
			api.Fail(w, http.StatusNotFound, "not_found", "employee not found", requestID)
			return "", false
		}
		api.Fail(w, http.StatusInternalServerError, "employee_failed", "failed to load employee", requestID)
		return "", false
	}
	return h.companyMembership(w, r, companyID)
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	companyID := chi.URLParam(r, "companyID")
	if _, ok := h.companyMembership(w, r, companyID); !ok {
		return
	}

	page := shared.ParsePagination(r, 50, 200)
	employees, total, err := h.Store.List(r.Context(), companyID, r.URL.Query().Get("search"), page.Limit, page.Offset)
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "employees_failed", "failed to list employees", requestID)
		return
	}
	if employees == nil {
		employees = []employee.Employee{}
	}
	api.Success(w, map[string]any{"items": employees, "total": total}, requestID)
}

type employeePayload struct {
	EmployeeCode          *string  `json:"employeeCode"`
	FirstName             *string  `json:"firstName"`
	LastName              *string  `json:"lastName"`
	Email                 *string  `json:"email"`
	Phone                 *string  `json:"phone"`
	Designation           *string  `json:"designation"`
	DateOfJoining         *string  `json:"dateOfJoining"`
	IsActive              *bool    `json:"isActive"`
	BankAccountNumber     *string  `json:"bankAccountNumber"`
	IFSCCode              *string  `json:"ifscCode"`
	UAN                   *string  `json:"uan"`
	ESICIPNumber          *string  `json:"esicIpNumber"`
	IsPFApplicable        *bool    `json:"isPfApplicable"`
	IsESIApplicable       *bool    `json:"isEsiApplicable"`
	FixedBasicSalary      *float64 `json:"fixedBasicSalary"`
	FixedHRA              *float64 `json:"fixedHra"`
	FixedSpecialAllowance *float64 `json:"fixedSpecialAllowance"`
}

func (p employeePayload) apply(e *employee.Employee, v *shared.Validator) {
	setString := func(dst *string, src *string) {
		if src != nil {
			*dst = strings.TrimSpace(*src)
		}
	}
	setString(&e.EmployeeCode, p.EmployeeCode)
	setString(&e.FirstName, p.FirstName)
	setString(&e.LastName, p.LastName)
	setString(&e.Email, p.Email)
	setString(&e.Phone, p.Phone)
	setString(&e.Designation, p.Designation)
	setString(&e.BankAccountNumber, p.BankAccountNumber)
	setString(&e.IFSCCode, p.IFSCCode)
	setString(&e.UAN, p.UAN)
	setString(&e.ESICIPNumber, p.ESICIPNumber)
	if p.IsActive != nil {
		e.IsActive = *p.IsActive
	}
	if p.IsPFApplicable != nil {
		e.IsPFApplicable = *p.IsPFApplicable
	}
	if p.IsESIApplicable != nil {
		e.IsESIApplicable = *p.IsESIApplicable
	}
	if p.FixedBasicSalary != nil {
		e.FixedBasicSalary = *p.FixedBasicSalary
	}
	if p.FixedHRA != nil {
		e.FixedHRA = *p.FixedHRA
	}
	if p.FixedSpecialAllowance != nil {
		e.FixedSpecialAllowance = *p.FixedSpecialAllowance
	}
	if p.DateOfJoining != nil {
		if *p.DateOfJoining == "" {
			e.DateOfJoining = nil
		} else if parsed, ok := v.Date("dateOfJoining", *p.DateOfJoining); ok {
			e.DateOfJoining = &parsed
		}
	}
	v.NonNegative("fixedBasicSalary", e.FixedBasicSalary, "must not be negative")
	v.NonNegative("fixedHra", e.FixedHRA, "must not be negative")
	v.NonNegative("fixedSpecialAllowance", e.FixedSpecialAllowance, "must not be negative")
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	companyID := chi.URLParam(r, "companyID")
	role, ok := h.companyMembership(w, r, companyID)
	if !ok {
		return
	}
	if !org.CanManagePayroll(role) {
		api.Fail(w, http.StatusForbidden, "forbidden", "owner or admin role required", requestID)
		return
	}

	var payload employeePayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", requestID)
		return
	}

	e := employee.Employee{CompanyID: companyID, IsActive: true, IsPFApplicable: true}
	v := shared.NewValidator()
	payload.apply(&e, v)
	v.Required("employeeCode", e.EmployeeCode, "employeeCode is required")
	v.Required("firstName", e.FirstName, "firstName is required")
	if v.Reject(w, requestID) {
		return
	}

	id, err := h.Store.Create(r.Context(), e)
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "employee_create_failed", "failed to create employee", requestID)
		return
	}
	api.Created(w, map[string]string{"id": id}, requestID)
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	employeeID := chi.URLParam(r, "employeeID")
	if _, ok := h.employeeMembership(w, r, employeeID); !ok {
		return
	}

	e, err := h.Store.Get(r.Context(), employeeID)
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "employee_failed", "failed to load employee", requestID)
		return
	}
	api.Success(w, e, requestID)
}

func (h *Handler) handleUpdate(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	employeeID := chi.URLParam(r, "employeeID")
	role, ok := h.employeeMembership(w, r, employeeID)
	if !ok {
		return
	}
	if !org.CanManagePayroll(role) {
		api.Fail(w, http.StatusForbidden, "forbidden", "owner or admin role required", requestID)
		return
	}

	e, err := h.Store.Get(r.Context(), employeeID)
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "employee_failed", "failed to load employee", requestID)
		return
	}

	var payload employeePayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", requestID)
		return
	}

	v := shared.NewValidator()
	payload.apply(&e, v)
	v.Required("firstName", e.FirstName, "firstName must not be blank")
	if v.Reject(w, requestID) {
		return
	}

	if err := h.Store.Update(r.Context(), e); err != nil {
		api.Fail(w, http.StatusInternalServerError, "employee_update_failed", "failed to update employee", requestID)
		return
	}
	api.Success(w, e, requestID)
}

func (h *Handler) handleImportTemplate(w http.ResponseWriter, r *http.Request) {
	if _, ok := h.companyMembership(w, r, chi.URLParam(r, "companyID")); !ok {
		return
	}

	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", "attachment; filename=employee-import-template.csv")
	writer := csv.NewWriter(w)
	if err := writer.Write(employee.ImportTemplateHeader); err != nil {
		log.Printf("import template write failed: %v", err)
	}
	sample := []string{
		"EMP001", "Ravi", "Kumar", "ravi@example.com", "9800000000",
		time.Now().AddDate(-1, 0, 0).Format("2006-01-02"),
		"Operator", "000111222333", "HDFC0000001", "100200300400", "",
		"true", "false", "18000", "7200", "4800",
	}
	if err := writer.Write(sample); err != nil {
		log.Printf("import template write failed: %v", err)
	}
	writer.Flush()
}

func (h *Handler) handleImport(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	companyID := chi.URLParam(r, "companyID")
	role, ok := h.companyMembership(w, r, companyID)
	if !ok {
		return
	}
	if !org.CanManagePayroll(role) {
		api.Fail(w, http.StatusForbidden, "forbidden", "owner or admin role required", requestID)
		return
	}

	result, err := h.Store.Import(r.Context(), companyID, r.Body)
	if err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "unable to parse csv payload", requestID)
		return
	}
	if result.FailedRows == nil {
		result.FailedRows = []employee.FailedRow{}
	}
	api.Success(w, result, requestID)
}
