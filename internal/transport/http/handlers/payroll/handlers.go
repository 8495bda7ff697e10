package payrollhandler

import (
	"encoding/json"
	"errors"
	"net/http"
	"os"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"dhanix/internal/domain/org"
	"dhanix/internal/domain/payroll"
	"dhanix/internal/domain/payslip"
	"dhanix/internal/domain/reports"
	"dhanix/internal/transport/http/api"
	orghandler "dhanix/internal/transport/http/handlers/org"
	"dhanix/internal/transport/http/middleware"
	"dhanix/internal/transport/http/shared"
)

type Handler struct {
	Service  *payroll.Service
	Orgs     *org.Store
	Payslips *payslip.Service
}

func NewHandler(db *pgxpool.Pool, payslips *payslip.Service) *Handler {
	return &Handler{
		Service:  payroll.NewService(payroll.NewStore(db)),
		Orgs:     org.NewStore(db),
		Payslips: payslips,
	}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/companies/{companyID}/payroll-runs", func(r chi.Router) {
		r.Get("/", h.handleListRuns)
		r.Post("/", h.handleCreateRun)
	})
	r.Route("/payroll-runs/{runID}", func(r chi.Router) {
		r.Get("/", h.handleRunDetail)
		r.Post("/calculate", h.handleCalculate)
		r.Post("/process", h.handleProcess)
		r.Post("/lock", h.handleLock)
		r.Post("/attendance/import", h.handleImportAttendance)
	})
	r.Route("/payroll-items/{itemID}", func(r chi.Router) {
		r.Patch("/", h.handleUpdateItem)
		r.Get("/payslip", h.handlePayslip)
	})
}

// failPayroll translates domain errors into envelope responses.
func failPayroll(w http.ResponseWriter, requestID string, err error, fallbackCode, fallbackMessage string) {
	switch {
	case errors.Is(err, payroll.ErrRunNotFound):
		api.Fail(w, http.StatusNotFound, "not_found", "payroll run not found", requestID)
	case errors.Is(err, payroll.ErrItemNotFound):
		api.Fail(w, http.StatusNotFound, "not_found", "payroll item not found", requestID)
	case errors.Is(err, payroll.ErrDuplicateRun):
		api.Fail(w, http.StatusConflict, "duplicate_run", "a payroll run already exists for this month", requestID)
	case errors.Is(err, payroll.ErrStateConflict):
		api.Fail(w, http.StatusConflict, "state_conflict", "operation not allowed in the current run status", requestID)
	case errors.Is(err, payroll.ErrInvalidMonth):
		shared.FailValidation(w, requestID, []shared.ValidationIssue{{Field: "month", Reason: "must be in YYYY-MM format"}})
	case errors.Is(err, payroll.ErrInvalidAttendance):
		shared.FailValidation(w, requestID, []shared.ValidationIssue{{Field: "daysWorked", Reason: "attendance values out of range"}})
	default:
		api.Fail(w, http.StatusInternalServerError, fallbackCode, fallbackMessage, requestID)
	}
}

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

func (h *Handler) runMembership(w http.ResponseWriter, r *http.Request, runID string) (string, bool) {
	requestID := middleware.GetRequestID(r.Context())
	orgID, err := h.Service.RunOrgID(r.Context(), runID)
	if err != nil {
		if errors.Is(err, payroll.ErrRunNotFound) {
			api.Fail(w, http.StatusNotFound, "not_found", "payroll run not found", requestID)
			return "", false
		}
		api.Fail(w, http.StatusInternalServerError, "run_failed", "failed to load payroll run", requestID)
		return "", false
	}
	return orghandler.RequireMember(w, r, h.Orgs, orgID)
}

func (h *Handler) itemMembership(w http.ResponseWriter, r *http.Request, itemID string) (string, bool) {
	requestID := middleware.GetRequestID(r.Context())
	orgID, err := h.Service.ItemOrgID(r.Context(), itemID)
	if err != nil {
		if errors.Is(err, payroll.ErrItemNotFound) {
			api.Fail(w, http.StatusNotFound, "not_found", "payroll item not found", requestID)
			return "", false
		}
		api.Fail(w, http.StatusInternalServerError, "item_failed", "failed to load payroll item", requestID)
		return "", false
	}
	return orghandler.RequireMember(w, r, h.Orgs, orgID)
}

func requireManage(w http.ResponseWriter, requestID, role string) bool {
	if !org.CanManagePayroll(role) {
		api.Fail(w, http.StatusForbidden, "forbidden", "owner or admin role required", requestID)
		return false
	}
	return true
}

func (h *Handler) handleListRuns(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	companyID := chi.URLParam(r, "companyID")
	if _, ok := h.companyMembership(w, r, companyID); !ok {
		return
	}

	runs, err := h.Service.ListRuns(r.Context(), companyID)
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "runs_failed", "failed to list payroll runs", requestID)
		return
	}
	if runs == nil {
		runs = []payroll.Run{}
	}
	api.Success(w, runs, requestID)
}

func (h *Handler) handleCreateRun(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	companyID := chi.URLParam(r, "companyID")
	role, ok := h.companyMembership(w, r, companyID)
	if !ok {
		return
	}
	if !requireManage(w, requestID, role) {
		return
	}

	var payload struct {
		Month string `json:"month"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", requestID)
		return
	}

	run, err := h.Service.CreateRun(r.Context(), companyID, payload.Month)
	if err != nil {
		failPayroll(w, requestID, err, "run_create_failed", "failed to create payroll run")
		return
	}
	api.Created(w, run, requestID)
}

func (h *Handler) handleRunDetail(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	runID := chi.URLParam(r, "runID")
	if _, ok := h.runMembership(w, r, runID); !ok {
		return
	}

	detail, err := h.Service.RunDetail(r.Context(), runID)
	if err != nil {
		failPayroll(w, requestID, err, "run_failed", "failed to load payroll run")
		return
	}
	api.Success(w, detail, requestID)
}

func (h *Handler) handleCalculate(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	runID := chi.URLParam(r, "runID")
	role, ok := h.runMembership(w, r, runID)
	if !ok {
		return
	}
	if !requireManage(w, requestID, role) {
		return
	}

	if err := h.Service.Calculate(r.Context(), runID); err != nil {
		failPayroll(w, requestID, err, "calculate_failed", "failed to calculate payroll run")
		return
	}

	detail, err := h.Service.RunDetail(r.Context(), runID)
	if err != nil {
		failPayroll(w, requestID, err, "run_failed", "failed to load payroll run")
		return
	}
	api.Success(w, detail, requestID)
}

func (h *Handler) handleProcess(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	runID := chi.URLParam(r, "runID")
	role, ok := h.runMembership(w, r, runID)
	if !ok {
		return
	}
	if !requireManage(w, requestID, role) {
		return
	}

	run, err := h.Service.Process(r.Context(), runID)
	if err != nil {
		failPayroll(w, requestID, err, "process_failed", "failed to process payroll run")
		return
	}
	api.Success(w, run, requestID)
}

func (h *Handler) handleLock(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	runID := chi.URLParam(r, "runID")
	role, ok := h.runMembership(w, r, runID)
	if !ok {
		return
	}
	if !requireManage(w, requestID, role) {
		return
	}

	run, err := h.Service.Lock(r.Context(), runID)
	if err != nil {
		failPayroll(w, requestID, err, "lock_failed", "failed to lock payroll run")
		return
	}
	api.Success(w, run, requestID)
}

func (h *Handler) handleImportAttendance(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	runID := chi.URLParam(r, "runID")
	role, ok := h.runMembership(w, r, runID)
	if !ok {
		return
	}
	if !requireManage(w, requestID, role) {
		return
	}

	result, err := h.Service.ImportAttendance(r.Context(), runID, r.Body)
	if err != nil {
		if errors.Is(err, payroll.ErrStateConflict) || errors.Is(err, payroll.ErrRunNotFound) {
			failPayroll(w, requestID, err, "attendance_failed", "failed to import attendance")
			return
		}
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "unable to parse csv payload", requestID)
		return
	}
	api.Success(w, result, requestID)
}

func (h *Handler) handleUpdateItem(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	itemID := chi.URLParam(r, "itemID")
	role, ok := h.itemMembership(w, r, itemID)
	if !ok {
		return
	}
	if !requireManage(w, requestID, role) {
		return
	}

	var patch payroll.ItemPatch
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", requestID)
		return
	}

	view, err := h.Service.UpdateItem(r.Context(), itemID, patch)
	if err != nil {
		failPayroll(w, requestID, err, "item_update_failed", "failed to update payroll item")
		return
	}
	api.Success(w, view, requestID)
}

func (h *Handler) handlePayslip(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	itemID := chi.URLParam(r, "itemID")
	if _, ok := h.itemMembership(w, r, itemID); !ok {
		return
	}

	data, err := h.Service.PayslipData(r.Context(), itemID)
	if err != nil {
		failPayroll(w, requestID, err, "payslip_failed", "failed to load payslip data")
		return
	}
	if !reports.CanExport(data.RunStatus) {
		api.Fail(w, http.StatusConflict, "state_conflict", "payslips are available after the run is processed", requestID)
		return
	}

	filePath, err := h.Payslips.Generate(data)
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "payslip_failed", "failed to render payslip", requestID)
		return
	}
	defer func() { _ = os.Remove(filePath) }()

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", "attachment; filename=payslip-"+data.Month+"-"+data.EmployeeCode+".pdf")
	http.ServeFile(w, r, filePath)
}
