package server

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/capscope/capscope/internal/utils"
	"github.com/capscope/capscope/pkg/intake"
	"github.com/capscope/capscope/pkg/storage"
)

const intakePage = "/intake"

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		utils.Log.Debugf("writing response: %v", err)
	}
}

func handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, map[string]string{"status": "ok"})
}

func (s *Server) handleIntake(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	query := intake.Query{
		BranchCode: q.Get("branch"),
		Category:   q.Get("category"),
		Gender:     q.Get("gender"),
	}

	start := time.Now()
	result := intake.Aggregate(s.Records, query)
	intakeQueryDuration.Observe(time.Since(start).Seconds())

	outcome := "match"
	if result.Empty() {
		outcome = "empty"
	}
	intakeQueriesTotal.WithLabelValues(outcome).Inc()

	s.Tracker.TrackAsync(intakePage, r.Referer())
	writeJSON(w, result)
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	if s.DB == nil {
		writeJSON(w, []storage.TargetStats{})
		return
	}
	stats, err := s.DB.GetStats(r.Context())
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, stats)
}

func (s *Server) handleChanges(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			http.Error(w, "invalid limit", http.StatusBadRequest)
			return
		}
		limit = n
	}

	if s.DB == nil {
		writeJSON(w, []storage.Change{})
		return
	}
	changes, err := s.DB.ListRecentChanges(r.Context(), limit)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, changes)
}
