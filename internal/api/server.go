// Package api implements the optional HTTP sidecar (§2.2): health checks and
// read-only querying over the persisted smart-wallet state, grounded
// on the teacher's gorilla/mux + rs/cors server with a logging middleware.
package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/rs/cors"

	"github.com/smartwallet/tracker/pkg/models"
	"github.com/smartwallet/tracker/pkg/utils/config"
	"github.com/smartwallet/tracker/pkg/utils/logger"
)

// Store is the read-only persistence boundary the sidecar needs.
type Store interface {
	ListActiveSmartWallets(ctx context.Context) ([]models.SmartWallet, error)
}

// Server serves the read-only HTTP sidecar.
type Server struct {
	config     *config.APIConfig
	router     *mux.Router
	httpServer *http.Server
	logger     *logger.Logger
	store      Store
}

func NewServer(cfg *config.APIConfig, store Store, log *logger.Logger) *Server {
	s := &Server{config: cfg, router: mux.NewRouter(), logger: log, store: store}
	s.initializeRoutes()
	return s
}

func (s *Server) initializeRoutes() {
	corsMiddleware := cors.New(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	})

	s.router.HandleFunc("/api/health", s.HealthCheck).Methods("GET")
	s.router.HandleFunc("/api/smartwallets", s.ListSmartWallets).Methods("GET")

	s.router.Use(corsMiddleware.Handler)
	s.router.Use(s.loggingMiddleware)
}

func (s *Server) HealthCheck(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"ok"}`))
}

func (s *Server) ListSmartWallets(w http.ResponseWriter, r *http.Request) {
	wallets, err := s.store.ListActiveSmartWallets(r.Context())
	if err != nil {
		s.logger.Error("listing smart wallets failed", err, nil)
		http.Error(w, `{"error":"internal error"}`, http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(wallets)
}

func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		s.logger.Info("http request", map[string]interface{}{
			"method": r.Method, "path": r.URL.Path, "remote_addr": r.RemoteAddr,
			"duration_ms": time.Since(start).Milliseconds(),
		})
	})
}

func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)
	s.httpServer = &http.Server{
		Addr:           addr,
		Handler:        s.router,
		ReadTimeout:    time.Duration(s.config.ReadTimeout) * time.Second,
		WriteTimeout:   time.Duration(s.config.WriteTimeout) * time.Second,
		MaxHeaderBytes: s.config.MaxHeaderBytes,
	}
	s.logger.Info("starting api sidecar", map[string]interface{}{"address": addr})
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	if s.httpServer == nil {
		return nil
	}
	s.logger.Info("stopping api sidecar", nil)
	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	return s.httpServer.Shutdown(shutdownCtx)
}
