// Package api exposes the scan pipeline over HTTP for scanner terminals.
package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/ignite/attendance-checkin/internal/domain"
	"github.com/ignite/attendance-checkin/internal/pkg/httputil"
	"github.com/ignite/attendance-checkin/internal/pkg/logger"
	"github.com/ignite/attendance-checkin/internal/service/scan"
)

// ScanService is the part of scan.Service the handlers call.
type ScanService interface {
	ProcessScan(ctx context.Context, code string) (scan.Outcome, error)
	Clear(ctx context.Context) (int, error)
	History(ctx context.Context, day time.Time) ([]domain.ScanEvent, error)
	SavePersonal(ctx context.Context, target domain.PersonalSheetTarget) (string, error)
	Location() *time.Location
}

// Handlers contains the HTTP handlers for the scan API.
type Handlers struct {
	svc ScanService
}

// NewHandlers creates handlers backed by svc.
func NewHandlers(svc ScanService) *Handlers {
	return &Handlers{svc: svc}
}

// ScanRequest is the body of POST /api/scans.
type ScanRequest struct {
	Code string `json:"code"`
}

// ClearResponse is the body returned by DELETE /api/scans.
type ClearResponse struct {
	Success bool   `json:"success"`
	Deleted int    `json:"deleted"`
	Error   string `json:"error,omitempty"`
}

// PersonalResponse is the body returned by POST /api/personal.
type PersonalResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	Error   string `json:"error,omitempty"`
}

// HistoryResponse is the body returned by GET /api/scans.
type HistoryResponse struct {
	Date   string             `json:"date"`
	Count  int                `json:"count"`
	Events []domain.ScanEvent `json:"events"`
}

// HandleScan runs one code through the pipeline.
//
//	POST /api/scans
func (h *Handlers) HandleScan(w http.ResponseWriter, r *http.Request) {
	var req ScanRequest
	if !httputil.Decode(w, r, &req) {
		return
	}

	code, err := scan.NormalizeCode(req.Code)
	if err != nil {
		respondJSON(w, http.StatusBadRequest, domain.ScanResult{Error: err.Error()})
		return
	}

	out, err := h.svc.ProcessScan(r.Context(), code)
	if err != nil {
		logger.Error("scan failed", "code", code, "error", err)
		respondPipelineError(w, err, func(msg string) interface{} { return domain.ScanResult{Error: msg} })
		return
	}

	respondJSON(w, http.StatusOK, out.Result())
}

// HandleHistory lists the events of one local day, today by default.
//
//	GET /api/scans?date=YYYY-MM-DD
func (h *Handlers) HandleHistory(w http.ResponseWriter, r *http.Request) {
	loc := h.svc.Location()
	day := time.Now().In(loc)
	if v := r.URL.Query().Get("date"); v != "" {
		parsed, err := time.ParseInLocation("2006-01-02", v, loc)
		if err != nil {
			respondError(w, http.StatusBadRequest, "date must be YYYY-MM-DD")
			return
		}
		day = parsed
	}

	events, err := h.svc.History(r.Context(), day)
	if err != nil {
		respondSafeError(w, http.StatusInternalServerError, err, msgGeneric)
		return
	}
	if events == nil {
		events = []domain.ScanEvent{}
	}

	respondJSON(w, http.StatusOK, HistoryResponse{
		Date:   day.Format("2006-01-02"),
		Count:  len(events),
		Events: events,
	})
}

// HandleClear deletes all recorded scans.
//
//	DELETE /api/scans
func (h *Handlers) HandleClear(w http.ResponseWriter, r *http.Request) {
	n, err := h.svc.Clear(r.Context())
	if err != nil {
		logger.Error("clearing scans failed", "error", err)
		respondJSON(w, http.StatusInternalServerError, ClearResponse{Error: msgGeneric})
		return
	}
	respondJSON(w, http.StatusOK, ClearResponse{Success: true, Deleted: n})
}

// HandlePersonal writes a code into a caller-chosen sheet.
//
//	POST /api/personal
func (h *Handlers) HandlePersonal(w http.ResponseWriter, r *http.Request) {
	var target domain.PersonalSheetTarget
	if !httputil.Decode(w, r, &target) {
		return
	}

	msg, err := h.svc.SavePersonal(r.Context(), target)
	if err != nil {
		if errors.Is(err, scan.ErrPersonalTarget) {
			respondJSON(w, http.StatusBadRequest, PersonalResponse{Error: err.Error()})
			return
		}
		logger.Error("personal sheet write failed", "sheet", target.SheetName, "error", err)
		respondPipelineError(w, err, func(msg string) interface{} { return PersonalResponse{Error: msg} })
		return
	}

	respondJSON(w, http.StatusOK, PersonalResponse{Success: true, Message: msg})
}

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	httputil.JSON(w, status, data)
}

func respondError(w http.ResponseWriter, status int, message string) {
	httputil.Error(w, status, message)
}
