package handlers

import (
	"net/http"

	"github.com/gorilla/mux"
)

// RegisterRoutes mounts the public ranking API and the admin API on r.
func RegisterRoutes(r *mux.Router, rankings *RankingsHandler, admin *AdminHandler) {
	api := r.PathPrefix("/api").Subrouter()

	api.HandleFunc("/rankings", rankings.Disciplines).Methods(http.MethodGet)
	api.HandleFunc("/rankings/{discipline}", rankings.Riders).Methods(http.MethodGet)
	api.HandleFunc("/rankings/{discipline}/clubs", rankings.Clubs).Methods(http.MethodGet)
	api.HandleFunc("/riders/{riderID:[0-9]+}/rankings", rankings.RiderHistory).Methods(http.MethodGet)
	api.HandleFunc("/clubs/{clubID:[0-9]+}/rankings", rankings.ClubHistory).Methods(http.MethodGet)

	adm := api.PathPrefix("/admin").Subrouter()
	adm.HandleFunc("/rankings/recalculate", admin.Recalculate).Methods(http.MethodPost)
	adm.HandleFunc("/rankings/status", admin.Status).Methods(http.MethodGet)
	adm.HandleFunc("/rankings/runs", admin.Runs).Methods(http.MethodGet)
	adm.HandleFunc("/maintenance/zero-ineligible-points", admin.ZeroIneligiblePoints).Methods(http.MethodPost)
	adm.HandleFunc("/settings", admin.ListSettings).Methods(http.MethodGet)
	adm.HandleFunc("/settings/{key}", admin.GetSetting).Methods(http.MethodGet)
	adm.HandleFunc("/settings/{key}", admin.PutSetting).Methods(http.MethodPut)
	adm.HandleFunc("/settings/{key}", admin.DeleteSetting).Methods(http.MethodDelete)
}
