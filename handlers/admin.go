package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/mux"

	"cycleranking/models"
	"cycleranking/services/ranking"
)

type rankingAdmin interface {
	Recalculate(ctx context.Context, referenceDate time.Time, disciplines []string) (*models.RunSummary, error)
	Status() models.RunStatus
	Runs(ctx context.Context, limit int) ([]models.RankingRun, error)
	ZeroIneligiblePoints(ctx context.Context, dryRun bool) (int64, error)

	ListSettings(ctx context.Context) ([]models.RankingSetting, error)
	GetSetting(ctx context.Context, key string) (models.RankingSetting, error)
	PutSetting(ctx context.Context, key string, value json.RawMessage) (models.RankingSetting, error)
	DeleteSetting(ctx context.Context, key string) error
}

var _ rankingAdmin = (*ranking.Service)(nil)

// AdminHandler exposes recalculation, maintenance and ranking settings to administrators.
type AdminHandler struct {
	Service rankingAdmin
}

// NewAdminHandler creates a new admin handler
func NewAdminHandler(s rankingAdmin) *AdminHandler {
	return &AdminHandler{Service: s}
}

type recalculateRequest struct {
	ReferenceDate string   `json:"reference_date"`
	Disciplines   []string `json:"disciplines"`
}

// Recalculate runs a full rebuild and responds with its summary. The run is
// not cancelled when the client goes away; the configured run timeout applies.
func (h *AdminHandler) Recalculate(w http.ResponseWriter, r *http.Request) {
	var request recalculateRequest
	if r.Body != nil {
		dec := json.NewDecoder(r.Body)
		dec.DisallowUnknownFields()
		if err := dec.Decode(&request); err != nil && !errors.Is(err, io.EOF) {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
	}

	var reference time.Time
	if raw := strings.TrimSpace(request.ReferenceDate); raw != "" {
		t, err := time.ParseInLocation(models.SnapshotDateLayout, raw, time.UTC)
		if err != nil {
			http.Error(w, "reference_date must be YYYY-MM-DD", http.StatusBadRequest)
			return
		}
		reference = t
	}

	log.Printf("[admin-handler] recalculate requested reference=%q disciplines=%v", request.ReferenceDate, request.Disciplines)

	summary, err := h.Service.Recalculate(context.WithoutCancel(r.Context()), reference, request.Disciplines)
	if err != nil {
		status := runErrorStatus(err)
		if summary == nil {
			http.Error(w, err.Error(), status)
			return
		}
		writeJSON(w, status, summary)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

func runErrorStatus(err error) int {
	var cfgErr *ranking.ConfigurationError
	switch {
	case errors.Is(err, ranking.ErrRunInProgress):
		return http.StatusConflict
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	case errors.As(err, &cfgErr):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

// Status reports the state of the run in progress and the last summary.
func (h *AdminHandler) Status(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.Service.Status())
}

// Runs lists recent runs, newest first.
func (h *AdminHandler) Runs(w http.ResponseWriter, r *http.Request) {
	limit := 20
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 || n > 500 {
			http.Error(w, "limit must be between 1 and 500", http.StatusBadRequest)
			return
		}
		limit = n
	}

	runs, err := h.Service.Runs(r.Context(), limit)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, runs)
}

// ZeroIneligiblePoints zeroes the points of results in classes that award
// none. ?dry_run=true only counts them.
func (h *AdminHandler) ZeroIneligiblePoints(w http.ResponseWriter, r *http.Request) {
	dryRun, _ := strconv.ParseBool(r.URL.Query().Get("dry_run"))

	n, err := h.Service.ZeroIneligiblePoints(r.Context(), dryRun)
	if err != nil {
		if errors.Is(err, ranking.ErrRunInProgress) {
			http.Error(w, err.Error(), http.StatusConflict)
			return
		}
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"updated": n, "dry_run": dryRun})
}

// ListSettings returns every stored ranking setting.
func (h *AdminHandler) ListSettings(w http.ResponseWriter, r *http.Request) {
	settings, err := h.Service.ListSettings(r.Context())
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if settings == nil {
		settings = []models.RankingSetting{}
	}
	writeJSON(w, http.StatusOK, settings)
}

// GetSetting returns one ranking setting.
func (h *AdminHandler) GetSetting(w http.ResponseWriter, r *http.Request) {
	setting, err := h.Service.GetSetting(r.Context(), mux.Vars(r)["key"])
	if err != nil {
		writeSettingError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, setting)
}

// PutSetting validates and stores the request body as the setting's value.
func (h *AdminHandler) PutSetting(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, 1<<20))
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if !json.Valid(body) {
		http.Error(w, "body must be a JSON document", http.StatusBadRequest)
		return
	}

	setting, err := h.Service.PutSetting(r.Context(), mux.Vars(r)["key"], json.RawMessage(body))
	if err != nil {
		writeSettingError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, setting)
}

// DeleteSetting removes a ranking setting.
func (h *AdminHandler) DeleteSetting(w http.ResponseWriter, r *http.Request) {
	if err := h.Service.DeleteSetting(r.Context(), mux.Vars(r)["key"]); err != nil {
		writeSettingError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func writeSettingError(w http.ResponseWriter, err error) {
	var cfgErr *ranking.ConfigurationError
	switch {
	case errors.Is(err, ranking.ErrSettingNotFound):
		http.Error(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, ranking.ErrUnknownSettingKey):
		http.Error(w, err.Error(), http.StatusNotFound)
	case errors.As(err, &cfgErr):
		http.Error(w, err.Error(), http.StatusUnprocessableEntity)
	default:
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}
