package restserver

import (
	"context"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/openvine/budbreak/internal/database"
	"github.com/openvine/budbreak/internal/gdd"
)

// Store is the read surface the API serves from
type Store interface {
	VarietyRows(ctx context.Context) ([]database.Variety, error)
	DailySeries(ctx context.Context, year int) (gdd.Series, error)
	DistinctYears(ctx context.Context) ([]int, error)
}

// Server exposes the derived GDD series and bud-break predictions as a
// read-only JSON API.
type Server struct {
	store    Store
	logger   *zap.SugaredLogger
	Server   *http.Server
	handlers *Handlers
}

func NewServer(listenAddr string, store Store, logger *zap.SugaredLogger) *Server {
	s := &Server{
		store:  store,
		logger: logger,
	}
	s.handlers = NewHandlers(s)
	s.Server = &http.Server{
		Addr:         listenAddr,
		Handler:      s.setupRouter(),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}
	return s
}

// Start serves until ctx is cancelled
func (s *Server) Start(ctx context.Context) {
	go func() {
		s.logger.Infof("REST server listening on %v", s.Server.Addr)
		if err := s.Server.ListenAndServe(); err != http.ErrServerClosed {
			s.logger.Errorf("REST server error: %v", err)
		}
	}()

	go func() {
		<-ctx.Done()
		s.logger.Info("shutting down the REST server...")
		s.Server.Shutdown(context.Background())
	}()
}

func (s *Server) setupRouter() *mux.Router {
	router := mux.NewRouter()
	router.HandleFunc("/api/varieties", s.handlers.GetVarieties)
	router.HandleFunc("/api/predictions", s.handlers.GetPredictions)
	router.HandleFunc("/api/gdd/years", s.handlers.GetYears)
	router.HandleFunc("/api/gdd/{year}", s.handlers.GetDailySeries)
	return router
}
