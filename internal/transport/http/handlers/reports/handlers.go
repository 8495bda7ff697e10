package reportshandler

import (
	"encoding/csv"
	"errors"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"dhanix/internal/domain/org"
	"dhanix/internal/domain/payroll"
	"dhanix/internal/domain/reports"
	"dhanix/internal/transport/http/api"
	orghandler "dhanix/internal/transport/http/handlers/org"
	"dhanix/internal/transport/http/middleware"
)

type Handler struct {
	Service *payroll.Service
	Orgs    *org.Store
}

func NewHandler(db *pgxpool.Pool) *Handler {
	return &Handler{Service: payroll.NewService(payroll.NewStore(db)), Orgs: org.NewStore(db)}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/payroll-runs/{runID}/reports", func(r chi.Router) {
		r.Get("/pf-ecr.csv", h.handlePFECR)
		r.Get("/esi.csv", h.handleESI)
	})
}

// exportableRun loads the run detail after checking membership and that the
// run has reached a reportable status.
func (h *Handler) exportableRun(w http.ResponseWriter, r *http.Request) (payroll.RunDetail, bool) {
	requestID := middleware.GetRequestID(r.Context())
	runID := chi.URLParam(r, "runID")

	orgID, err := h.Service.RunOrgID(r.Context(), runID)
	if err != nil {
		if errors.Is(err, payroll.ErrRunNotFound) {
			api.Fail(w, http.StatusNotFound, "not_found", "payroll run not found", requestID)
			return payroll.RunDetail{}, false
		}
		api.Fail(w, http.StatusInternalServerError, "run_failed", "failed to load payroll run", requestID)
		return payroll.RunDetail{}, false
	}
	if _, ok := orghandler.RequireMember(w, r, h.Orgs, orgID); !ok {
		return payroll.RunDetail{}, false
	}

	detail, err := h.Service.RunDetail(r.Context(), runID)
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "run_failed", "failed to load payroll run", requestID)
		return payroll.RunDetail{}, false
	}
	if !reports.CanExport(detail.Status) {
		api.Fail(w, http.StatusConflict, "state_conflict", "reports are available after the run is processed", requestID)
		return payroll.RunDetail{}, false
	}
	return detail, true
}

func writeCSV(w http.ResponseWriter, filename string, header []string, records [][]string) {
	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", "attachment; filename="+filename)
	writer := csv.NewWriter(w)
	if err := writer.Write(header); err != nil {
		log.Printf("report export write failed: %v", err)
		return
	}
	for _, record := range records {
		if err := writer.Write(record); err != nil {
			log.Printf("report export write failed: %v", err)
			return
		}
	}
	writer.Flush()
}

func (h *Handler) handlePFECR(w http.ResponseWriter, r *http.Request) {
	detail, ok := h.exportableRun(w, r)
	if !ok {
		return
	}

	rows := reports.BuildPFRows(detail.Items)
	records := make([][]string, 0, len(rows))
	for _, row := range rows {
		records = append(records, row.Record())
	}
	writeCSV(w, "pf-ecr-"+detail.Month+".csv", reports.PFHeader, records)
}

func (h *Handler) handleESI(w http.ResponseWriter, r *http.Request) {
	detail, ok := h.exportableRun(w, r)
	if !ok {
		return
	}

	rows := reports.BuildESIRows(detail.Items)
	records := make([][]string, 0, len(rows))
	for _, row := range rows {
		records = append(records, row.Record())
	}
	writeCSV(w, "esi-"+detail.Month+".csv", reports.ESIHeader, records)
}
