package server

import (
	"net/http"

	"github.com/capscope/capscope/internal/utils"
	"github.com/capscope/capscope/pkg/analytics"
	"github.com/capscope/capscope/pkg/intake"
	"github.com/capscope/capscope/pkg/storage"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Server struct {
	Records  []intake.Record
	DB       *storage.DB // optional
	Tracker  *analytics.Tracker
	Username string
	Password string
}

func New(records []intake.Record, db *storage.DB, tracker *analytics.Tracker, user, pass string) *Server {
	intakeRecords.Set(float64(len(records)))
	return &Server{
		Records:  records,
		DB:       db,
		Tracker:  tracker,
		Username: user,
		Password: pass,
	}
}

// Handler builds the route table. Health and metrics stay open.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	// API Group
	mux.HandleFunc("GET /api/intake", s.basicAuth(s.handleIntake))
	mux.HandleFunc("GET /api/stats", s.basicAuth(s.handleStats))
	mux.HandleFunc("GET /api/changes", s.basicAuth(s.handleChanges))

	mux.HandleFunc("GET /healthz", handleHealth)
	mux.Handle("GET /metrics", promhttp.Handler())

	return mux
}

func (s *Server) Start(addr string) error {
	utils.Log.Infof("Starting server on %s (%d intake records)", addr, len(s.Records))
	return http.ListenAndServe(addr, s.Handler())
}

func (s *Server) basicAuth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if s.Username == "" && s.Password == "" {
			next(w, r)
			return
		}
		user, pass, ok := r.BasicAuth()
		if !ok || user != s.Username || pass != s.Password {
			w.Header().Set("WWW-Authenticate", `Basic realm="Restricted"`)
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}
		next(w, r)
	}
}
