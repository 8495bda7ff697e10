package orghandler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"dhanix/internal/domain/auth"
	"dhanix/internal/domain/org"
	"dhanix/internal/transport/http/api"
	"dhanix/internal/transport/http/middleware"
	"dhanix/internal/transport/http/shared"
)

type Handler struct {
	Store *org.Store
	Users *auth.Store
}

func NewHandler(db *pgxpool.Pool) *Handler {
	return &Handler{Store: org.NewStore(db), Users: auth.NewStore(db)}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/orgs", func(r chi.Router) {
		r.Get("/", h.handleListOrgs)
		r.Post("/", h.handleCreateOrg)
		r.Get("/{orgID}", h.handleGetOrg)
		r.Get("/{orgID}/companies", h.handleListCompanies)
		r.Post("/{orgID}/companies", h.handleCreateCompany)
		r.Post("/{orgID}/members", h.handleAddMember)
	})
	r.Route("/companies/{companyID}", func(r chi.Router) {
		r.Get("/", h.handleGetCompany)
		r.Patch("/", h.handleUpdateCompany)
	})
}

// RequireMember resolves the caller's role in the organization, writing the
// failure response itself when the caller is anonymous or not a member.
func RequireMember(w http.ResponseWriter, r *http.Request, store *org.Store, orgID string) (string, bool) {
	requestID := middleware.GetRequestID(r.Context())
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", requestID)
		return "", false
	}
	role, err := store.MemberRole(r.Context(), orgID, user.UserID)
	if err != nil {
		if errors.Is(err, org.ErrNotMember) {
			api.Fail(w, http.StatusForbidden, "forbidden", "not a member of this organization", requestID)
			return "", false
		}
		api.Fail(w, http.StatusInternalServerError, "membership_failed", "failed to resolve membership", requestID)
		return "", false
	}
	return role, true
}

func (h *Handler) handleListOrgs(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", requestID)
		return
	}

	orgs, err := h.Store.ListOrganizationsForUser(r.Context(), user.UserID)
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "orgs_failed", "failed to list organizations", requestID)
		return
	}
	api.Success(w, orgs, requestID)
}

func (h *Handler) handleCreateOrg(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", requestID)
		return
	}

	var payload struct {
		Name string `json:"name"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", requestID)
		return
	}
	payload.Name = strings.TrimSpace(payload.Name)

	v := shared.NewValidator()
	v.Required("name", payload.Name, "name is required")
	if v.Reject(w, requestID) {
		return
	}

	id, err := h.Store.CreateOrganization(r.Context(), payload.Name, user.UserID)
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "org_create_failed", "failed to create organization", requestID)
		return
	}
	api.Created(w, map[string]string{"id": id}, requestID)
}

func (h *Handler) handleGetOrg(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	orgID := chi.URLParam(r, "orgID")
	role, ok := RequireMember(w, r, h.Store, orgID)
	if !ok {
		return
	}

	organization, err := h.Store.GetOrganization(r.Context(), orgID)
	if err != nil {
		if errors.Is(err, org.ErrNotFound) {
			api.Fail(w, http.StatusNotFound, "not_found", "organization not found", requestID)
			return
		}
		api.Fail(w, http.StatusInternalServerError, "org_failed", "failed to load organization", requestID)
		return
	}
	organization.Role = role
	api.Success(w, organization, requestID)
}

func (h *Handler) handleListCompanies(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	orgID := chi.URLParam(r, "orgID")
	if _, ok := RequireMember(w, r, h.Store, orgID); !ok {
		return
	}

	companies, err := h.Store.ListCompanies(r.Context(), orgID)
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "companies_failed", "failed to list companies", requestID)
		return
	}
	api.Success(w, companies, requestID)
}

// handleAddMember enrolls an existing user in the organization or changes
// their role. Only the OWNER may manage membership.
func (h *Handler) handleAddMember(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	orgID := chi.URLParam(r, "orgID")
	role, ok := RequireMember(w, r, h.Store, orgID)
	if !ok {
		return
	}
	if role != org.RoleOwner {
		api.Fail(w, http.StatusForbidden, "forbidden", "owner role required", requestID)
		return
	}

	var payload struct {
		Email string `json:"email"`
		Role  string `json:"role"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", requestID)
		return
	}
	payload.Email = strings.ToLower(strings.TrimSpace(payload.Email))
	payload.Role = strings.ToUpper(strings.TrimSpace(payload.Role))

	v := shared.NewValidator()
	v.Required("email", payload.Email, "email is required")
	v.Required("role", payload.Role, "role is required")
	v.Enum("role", payload.Role, []string{org.RoleOwner, org.RoleAdmin, org.RoleStaff}, "must be one of OWNER, ADMIN, STAFF")
	if v.Reject(w, requestID) {
		return
	}

	user, err := h.Users.FindUserByEmail(r.Context(), payload.Email)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			api.Fail(w, http.StatusNotFound, "not_found", "no user with this email", requestID)
			return
		}
		api.Fail(w, http.StatusInternalServerError, "member_add_failed", "failed to add member", requestID)
		return
	}

	if err := h.Store.AddMember(r.Context(), orgID, user.ID, payload.Role); err != nil {
		api.Fail(w, http.StatusInternalServerError, "member_add_failed", "failed to add member", requestID)
		return
	}
	api.Success(w, map[string]string{
		"organizationId": orgID,
		"userId":         user.ID,
		"role":           payload.Role,
	}, requestID)
}

type companyPayload struct {
	Name    string `json:"name"`
	Address string `json:"address"`
	PAN     string `json:"pan"`
	TAN     string `json:"tan"`
	PFCode  string `json:"pfCode"`
	ESICode string `json:"esiCode"`
}

func (h *Handler) handleCreateCompany(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	orgID := chi.URLParam(r, "orgID")
	role, ok := RequireMember(w, r, h.Store, orgID)
	if !ok {
		return
	}
	if !org.CanManagePayroll(role) {
		api.Fail(w, http.StatusForbidden, "forbidden", "owner or admin role required", requestID)
		return
	}

	var payload companyPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", requestID)
		return
	}

	v := shared.NewValidator()
	v.Required("name", payload.Name, "name is required")
	if v.Reject(w, requestID) {
		return
	}

	id, err := h.Store.CreateCompany(r.Context(), org.Company{
		OrganizationID: orgID,
		Name:           strings.TrimSpace(payload.Name),
		Address:        payload.Address,
		PAN:            payload.PAN,
		TAN:            payload.TAN,
		PFCode:         payload.PFCode,
		ESICode:        payload.ESICode,
	})
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "company_create_failed", "failed to create company", requestID)
		return
	}
	api.Created(w, map[string]string{"id": id}, requestID)
}

// resolveCompany loads the company and checks membership in its organization.
func (h *Handler) resolveCompany(w http.ResponseWriter, r *http.Request) (org.Company, string, bool) {
	requestID := middleware.GetRequestID(r.Context())
	companyID := chi.URLParam(r, "companyID")

	company, err := h.Store.GetCompany(r.Context(), companyID)
	if err != nil {
		if errors.Is(err, org.ErrNotFound) {
			api.Fail(w, http.StatusNotFound, "not_found", "company not found", requestID)
			return org.Company{}, "", false
		}
		api.Fail(w, http.StatusInternalServerError, "company_failed", "failed to load company", requestID)
		return org.Company{}, "", false
	}

	role, ok := RequireMember(w, r, h.Store, company.OrganizationID)
	if !ok {
		return org.Company{}, "", false
	}
	return company, role, true
}

func (h *Handler) handleGetCompany(w http.ResponseWriter, r *http.Request) {
	company, _, ok := h.resolveCompany(w, r)
	if !ok {
		return
	}
	api.Success(w, company, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleUpdateCompany(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	company, role, ok := h.resolveCompany(w, r)
	if !ok {
		return
	}
	if !org.CanManagePayroll(role) {
		api.Fail(w, http.StatusForbidden, "forbidden", "owner or admin role required", requestID)
		return
	}

	var payload companyPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", requestID)
		return
	}
	if name := strings.TrimSpace(payload.Name); name != "" {
		company.Name = name
	}
	if payload.Address != "" {
		company.Address = payload.Address
	}
	if payload.PAN != "" {
		company.PAN = payload.PAN
	}
	if payload.TAN != "" {
		company.TAN = payload.TAN
	}
	if payload.PFCode != "" {
		company.PFCode = payload.PFCode
	}
	if payload.ESICode != "" {
		company.ESICode = payload.ESICode
	}

	if err := h.Store.UpdateCompany(r.Context(), company); err != nil {
		api.Fail(w, http.StatusInternalServerError, "company_update_failed", "failed to update company", requestID)
		return
	}
	api.Success(w, company, requestID)
}
