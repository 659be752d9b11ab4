package api

import (
	"errors"
	"net/http"

	"github.com/ignite/attendance-checkin/internal/pkg/httpretry"
	"github.com/ignite/attendance-checkin/internal/pkg/logger"
	"github.com/ignite/attendance-checkin/internal/sheets"
)

// msgGeneric is returned for failures whose details must stay server-side.
const msgGeneric = "처리 중 오류가 발생했습니다. 잠시 후 다시 시도해주세요."

// publicError maps a pipeline error to a status and client-safe message.
// Spreadsheet errors already carry localized, actionable text and are
// surfaced verbatim; anything else (store, driver, network) is replaced.
func publicError(err error) (int, string) {
	if errors.Is(err, sheets.ErrRowLockBusy) {
		return http.StatusServiceUnavailable, "다른 스캔을 처리 중입니다. 다시 시도해주세요."
	}
	var se *sheets.Error
	if errors.As(err, &se) {
		if se.Kind == sheets.KindConfig {
			return http.StatusInternalServerError, se.Message
		}
		return http.StatusBadGateway, se.Message
	}
	return http.StatusInternalServerError, msgGeneric
}

// respondSafeError logs the internal error and sends a sanitized JSON error
// response to the client.
func respondSafeError(w http.ResponseWriter, code int, internalErr error, publicMsg string) {
	if internalErr != nil {
		logger.Error(publicMsg, "status", code, "error", internalErr)
	}
	respondError(w, code, publicMsg)
}

// respondPipelineError writes body under publicError's status. A busy row
// lock is marked retry-safe: nothing was written to the sheet.
func respondPipelineError(w http.ResponseWriter, err error, body func(msg string) interface{}) {
	status, msg := publicError(err)
	if errors.Is(err, sheets.ErrRowLockBusy) {
		w.Header().Set(httpretry.RetrySafeHeader, "1")
		w.Header().Set("Retry-After", "1")
	}
	respondJSON(w, status, body(msg))
}
