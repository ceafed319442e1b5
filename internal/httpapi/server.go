package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"go.uber.org/zap"
)

// Server exposes the process liveness endpoint. Site health is reported
// through the log files and notifications only, so there is no status route.
type Server struct {
	Logger *zap.Logger
}

func NewServer(l *zap.Logger) *Server {
	return &Server{Logger: l}
}

func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(cors.AllowAll().Handler)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})

	return r
}
