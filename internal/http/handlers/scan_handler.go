package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"parktrack/internal/service"
)

// ScanHandlers holds the gate-facing endpoints.
type ScanHandlers struct {
	coordinator *service.Coordinator
	logger      *zap.Logger
}

// NewScanHandlers builds handler set.
func NewScanHandlers(coordinator *service.Coordinator, logger *zap.Logger) *ScanHandlers {
	return &ScanHandlers{coordinator: coordinator, logger: logger}
}

type scanRequest struct {
	Code          string `json:"code"`
	Gate          string `json:"gate"`
	OperatorID    string `json:"operator_id"`
	ForceNewEntry bool   `json:"force_new_entry"`
}

type manualExitRequest struct {
	SessionID  int64  `json:"session_id"`
	OperatorID string `json:"operator_id"`
}

// HandleScan handles POST /scan.
func (h *ScanHandlers) HandleScan(w http.ResponseWriter, r *http.Request) {
	var req scanRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}
	if req.Code == "" {
		writeError(w, http.StatusBadRequest, "code is required")
		return
	}

	result, err := h.coordinator.HandleScan(r.Context(), service.ScanInput{
		Code:          req.Code,
		Gate:          req.Gate,
		OperatorID:    req.OperatorID,
		ForceNewEntry: req.ForceNewEntry,
	})
	if err != nil {
		h.writeScanError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// HandleManualExit handles POST /sessions/manual-exit.
func (h *ScanHandlers) HandleManualExit(w http.ResponseWriter, r *http.Request) {
	var req manualExitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}
	if req.SessionID == 0 {
		writeError(w, http.StatusBadRequest, "session_id is required")
		return
	}

	result, err := h.coordinator.ManualExit(r.Context(), req.SessionID, req.OperatorID)
	if err != nil {
		h.writeScanError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// writeScanError maps the coordinator's typed rejections onto HTTP statuses
// with enough structure for the operator UI to render a message.
func (h *ScanHandlers) writeScanError(w http.ResponseWriter, err error) {
	var conflict *service.ConflictError
	if errors.As(err, &conflict) {
		writeJSON(w, http.StatusConflict, map[string]interface{}{
			"error":    "driver already has an active session",
			"conflict": conflict.Result,
		})
		return
	}

	var implausible *service.ImplausibleDurationError
	if errors.As(err, &implausible) {
		writeJSON(w, http.StatusUnprocessableEntity, map[string]string{
			"error":  "session duration outside plausible range, flagged for review",
			"detail": implausible.Error(),
		})
		return
	}

	switch {
	case errors.Is(err, service.ErrCredentialFormat):
		writeError(w, http.StatusBadRequest, "invalid QR")
	case errors.Is(err, service.ErrCredentialExpired):
		writeError(w, http.StatusGone, "credential expired, request a fresh code")
	case errors.Is(err, service.ErrCredentialIntegrity):
		writeError(w, http.StatusBadRequest, "credential failed integrity check")
	case errors.Is(err, service.ErrScanThrottled):
		writeError(w, http.StatusTooManyRequests, "duplicate scan ignored")
	case errors.Is(err, service.ErrNoActiveSession):
		writeError(w, http.StatusNotFound, "no active session for driver")
	case errors.Is(err, service.ErrSessionNotFound):
		writeError(w, http.StatusNotFound, "session not found")
	default:
		h.logger.Error("scan processing failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to process scan")
	}
}
