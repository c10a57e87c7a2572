package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/mux"

	"cycleranking/models"
	"cycleranking/services/ranking"
)

type rankingReader interface {
	RiderRankings(ctx context.Context, discipline string, date *time.Time) ([]models.RankingSnapshot, error)
	ClubRankings(ctx context.Context, discipline string, date *time.Time) ([]models.ClubRankingSnapshot, error)
	Disciplines(ctx context.Context) ([]string, error)
	RiderHistory(ctx context.Context, riderID int64) ([]models.RankingSnapshot, error)
	ClubHistory(ctx context.Context, clubID int64) ([]models.ClubRankingSnapshot, error)
}

var _ rankingReader = (*ranking.Service)(nil)

// RankingsHandler serves the published rider and club rankings.
type RankingsHandler struct {
	Service rankingReader
}

func NewRankingsHandler(s rankingReader) *RankingsHandler {
	return &RankingsHandler{Service: s}
}

type riderRankingResponse struct {
	Discipline   string                   `json:"discipline"`
	SnapshotDate string                   `json:"snapshot_date"`
	Riders       []models.RankingSnapshot `json:"riders"`
}

type clubRankingResponse struct {
	Discipline   string                       `json:"discipline"`
	SnapshotDate string                       `json:"snapshot_date"`
	Clubs        []models.ClubRankingSnapshot `json:"clubs"`
}

// Disciplines lists the disciplines with a published ranking.
func (h *RankingsHandler) Disciplines(w http.ResponseWriter, r *http.Request) {
	disciplines, err := h.Service.Disciplines(r.Context())
	if err != nil {
		log.Printf("[rankings-handler] list disciplines: %v", err)
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string][]string{"disciplines": disciplines})
}

// Riders returns the current rider ranking of a discipline, or the one of ?date=.
func (h *RankingsHandler) Riders(w http.ResponseWriter, r *http.Request) {
	discipline := mux.Vars(r)["discipline"]
	date, err := dateParam(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	rows, err := h.Service.RiderRankings(r.Context(), discipline, date)
	if err != nil {
		writeQueryError(w, err)
		return
	}
	var published *time.Time
	if len(rows) > 0 {
		published = &rows[0].SnapshotDate
	}
	writeJSON(w, http.StatusOK, riderRankingResponse{
		Discipline:   models.CanonicalDiscipline(discipline),
		SnapshotDate: snapshotDateOf(date, published),
		Riders:       rows,
	})
}

// Clubs returns the current club ranking of a discipline, or the one of ?date=.
func (h *RankingsHandler) Clubs(w http.ResponseWriter, r *http.Request) {
	discipline := mux.Vars(r)["discipline"]
	date, err := dateParam(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	rows, err := h.Service.ClubRankings(r.Context(), discipline, date)
	if err != nil {
		writeQueryError(w, err)
		return
	}
	var published *time.Time
	if len(rows) > 0 {
		published = &rows[0].SnapshotDate
	}
	writeJSON(w, http.StatusOK, clubRankingResponse{
		Discipline:   models.CanonicalDiscipline(discipline),
		SnapshotDate: snapshotDateOf(date, published),
		Clubs:        rows,
	})
}

// RiderHistory returns a rider's ranking history over all disciplines.
func (h *RankingsHandler) RiderHistory(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r, "riderID")
	if !ok {
		return
	}
	rows, err := h.Service.RiderHistory(r.Context(), id)
	if err != nil {
		writeQueryError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rows)
}

// ClubHistory returns a club's ranking history over all disciplines.
func (h *RankingsHandler) ClubHistory(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r, "clubID")
	if !ok {
		return
	}
	rows, err := h.Service.ClubHistory(r.Context(), id)
	if err != nil {
		writeQueryError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rows)
}

func writeQueryError(w http.ResponseWriter, err error) {
	if errors.Is(err, ranking.ErrSnapshotNotFound) {
		http.Error(w, "ranking not found", http.StatusNotFound)
		return
	}
	log.Printf("[rankings-handler] query failed: %v", err)
	http.Error(w, err.Error(), http.StatusInternalServerError)
}

func dateParam(r *http.Request) (*time.Time, error) {
	raw := strings.TrimSpace(r.URL.Query().Get("date"))
	if raw == "" {
		return nil, nil
	}
	t, err := time.ParseInLocation(models.SnapshotDateLayout, raw, time.UTC)
	if err != nil {
		return nil, errors.New("date must be YYYY-MM-DD")
	}
	return &t, nil
}

func idParam(w http.ResponseWriter, r *http.Request, name string) (int64, bool) {
	id, err := strconv.ParseInt(mux.Vars(r)[name], 10, 64)
	if err != nil || id <= 0 {
		http.Error(w, "invalid "+strings.TrimSuffix(name, "ID")+" id", http.StatusBadRequest)
		return 0, false
	}
	return id, true
}

func snapshotDateOf(requested, published *time.Time) string {
	switch {
	case published != nil:
		return published.Format(models.SnapshotDateLayout)
	case requested != nil:
		return requested.Format(models.SnapshotDateLayout)
	}
	return ""
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
