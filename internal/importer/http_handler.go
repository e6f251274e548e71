package importer

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/sellerbridge/marketsync/internal/domain"
	"github.com/sellerbridge/marketsync/internal/logging"
	"github.com/sellerbridge/marketsync/internal/repository"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

// Handler exposes the import pipeline and its run audit trail over HTTP.
type Handler struct {
	service        *Service
	maxUploadBytes int64
}

// NewHandler creates the HTTP surface for the import service.
func NewHandler(service *Service, maxUploadBytes int64) *Handler {
	if maxUploadBytes <= 0 {
		maxUploadBytes = 32 << 20
	}
	return &Handler{service: service, maxUploadBytes: maxUploadBytes}
}

// Register mounts the import routes on a chi router.
func (h *Handler) Register(r chi.Router) {
	r.Post("/imports", h.handleImport)
	r.Get("/runs", h.handleListRuns)
	r.Get("/runs/{runID}", h.handleGetRun)
	r.Get("/runs/{runID}/logs", h.handleRunLogs)
}

func (h *Handler) handleImport(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadBytes)
	if err := r.ParseMultipartForm(h.maxUploadBytes); err != nil {
		writeError(w, http.StatusBadRequest, "invalid multipart form: "+err.Error())
		return
	}

	accountID, err := uuid.Parse(r.FormValue("accountId"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "accountId must be a valid uuid")
		return
	}

	recordType, err := domain.ParseRecordType(r.FormValue("recordType"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "file field is required")
		return
	}
	defer file.Close()

	req := Request{
		AccountID:       accountID,
		RecordType:      recordType,
		FileName:        header.Filename,
		ReplaceExisting: parseBoolField(r, "replaceExisting"),
		PurgeExisting:   parseBoolField(r, "purgeExisting"),
		DryRun:          parseBoolField(r, "dryRun"),
		Data:            file,
	}

	result, err := h.service.Import(r.Context(), req)
	if err != nil {
		h.writeImportError(w, r, result, err)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// writeImportError maps pipeline failures onto HTTP statuses. The partial
// result travels alongside the error so callers see what was counted before
// the run aborted.
func (h *Handler) writeImportError(w http.ResponseWriter, r *http.Request, result ProcessingResult, err error) {
	logging.FromContext(r.Context()).Warn("import request failed", "error", err)

	var intakeErr *FileIntakeError
	var headerErr *HeaderContractError

	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, ErrRunInProgress):
		status = http.StatusConflict
	case errors.Is(err, ErrPurgeDryRun):
		status = http.StatusBadRequest
	case errors.Is(err, ErrRowCapExceeded):
		status = http.StatusRequestEntityTooLarge
	case errors.As(err, &intakeErr):
		status = http.StatusBadRequest
	case errors.As(err, &headerErr):
		status = http.StatusUnprocessableEntity
	}

	writeJSON(w, status, map[string]any{
		"error":  err.Error(),
		"result": result,
	})
}

func (h *Handler) handleListRuns(w http.ResponseWriter, r *http.Request) {
	filter, err := runFilterFromQuery(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	runs, err := h.service.ListRuns(r.Context(), filter)
	if err != nil {
		logging.FromContext(r.Context()).Error("failed to list runs", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to list runs")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"runs": runs})
}

func (h *Handler) handleGetRun(w http.ResponseWriter, r *http.Request) {
	runID, err := uuid.Parse(chi.URLParam(r, "runID"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "run id must be a valid uuid")
		return
	}

	run, err := h.service.GetRun(r.Context(), runID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			writeError(w, http.StatusNotFound, "run not found")
			return
		}
		logging.FromContext(r.Context()).Error("failed to get run", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to get run")
		return
	}

	writeJSON(w, http.StatusOK, run)
}

func (h *Handler) handleRunLogs(w http.ResponseWriter, r *http.Request) {
	runID, err := uuid.Parse(chi.URLParam(r, "runID"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "run id must be a valid uuid")
		return
	}

	limit := parseIntQuery(r, "limit", 200)
	offset := parseIntQuery(r, "offset", 0)

	entries, err := h.service.RunLogs(r.Context(), runID, limit, offset)
	if err != nil {
		logging.FromContext(r.Context()).Error("failed to list run logs", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to list run logs")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"entries": entries})
}

func runFilterFromQuery(r *http.Request) (repository.SyncRunFilter, error) {
	filter := repository.SyncRunFilter{
		Limit:  parseIntQuery(r, "limit", 50),
		Offset: parseIntQuery(r, "offset", 0),
	}

	if raw := r.URL.Query().Get("accountId"); raw != "" {
		accountID, err := uuid.Parse(raw)
		if err != nil {
			return filter, errors.New("accountId must be a valid uuid")
		}
		filter.AccountID = &accountID
	}

	if raw := r.URL.Query().Get("recordType"); raw != "" {
		recordType, err := domain.ParseRecordType(raw)
		if err != nil {
			return filter, err
		}
		filter.RecordType = &recordType
	}

	if raw := r.URL.Query().Get("from"); raw != "" {
		from, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return filter, errors.New("from must be an RFC 3339 timestamp")
		}
		filter.From = &from
	}

	if raw := r.URL.Query().Get("to"); raw != "" {
		to, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return filter, errors.New("to must be an RFC 3339 timestamp")
		}
		filter.To = &to
	}

	return filter, nil
}

func parseBoolField(r *http.Request, name string) bool {
	value, _ := strconv.ParseBool(r.FormValue(name))
	return value
}

func parseIntQuery(r *http.Request, name string, fallback int) int {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return fallback
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return value
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
