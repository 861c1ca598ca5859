package api

import (
	"bufio"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/wonny/quantafolio/internal/api/handlers"
	"github.com/wonny/quantafolio/pkg/logger"
)

// Handlers groups everything the router mounts. Nil entries are not routed.
type Handlers struct {
	Results   *handlers.ResultHandler
	Portfolio *handlers.PortfolioHandler
	Settings  *handlers.SettingsHandler
	Status    *handlers.StatusHandler
	Optimize  *handlers.OptimizeHandler
	Hub       *handlers.ResultHub
	Metrics   http.Handler
}

// NewRouter creates and configures the HTTP router
// ⭐ SSOT: 라우팅 설정은 이 함수에서만
func NewRouter(h Handlers, log *logger.Logger) http.Handler {
	r := mux.NewRouter()

	// Health check
	r.HandleFunc("/health", healthCheckHandler).Methods("GET")

	if h.Metrics != nil {
		r.Handle("/metrics", h.Metrics).Methods("GET")
	}
	if h.Hub != nil {
		r.HandleFunc("/ws/results", h.Hub.ServeWS).Methods("GET")
	}

	api := r.PathPrefix("/api").Subrouter()

	if h.Results != nil {
		api.HandleFunc("/results/latest", h.Results.GetLatest).Methods("GET")
		api.HandleFunc("/results/latest", h.Results.DeleteLatest).Methods("DELETE")
	}
	if h.Portfolio != nil {
		api.HandleFunc("/portfolio", h.Portfolio.Get).Methods("GET")
		api.HandleFunc("/portfolio", h.Portfolio.Put).Methods("PUT")
	}
	if h.Settings != nil {
		api.HandleFunc("/settings", h.Settings.Get).Methods("GET")
		api.HandleFunc("/settings", h.Settings.Put).Methods("PUT")
	}
	if h.Status != nil {
		api.HandleFunc("/status", h.Status.Get).Methods("GET")
	}
	if h.Optimize != nil {
		api.HandleFunc("/optimize", h.Optimize.Optimize).Methods("POST")
	}

	// Apply middleware
	r.Use(loggingMiddleware(log))
	r.Use(recoveryMiddleware(log))

	return r
}

// healthCheckHandler returns server health status
func healthCheckHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"status":  "ok",
		"service": "quantafolio-bridge",
	})
}

// statusRecorder captures the response code for logging.
// Hijack passes through so websocket upgrades still work behind the middleware.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(code int) {
	s.status = code
	s.ResponseWriter.WriteHeader(code)
}

func (s *statusRecorder) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	hj, ok := s.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, fmt.Errorf("response writer does not support hijacking")
	}
	return hj.Hijack()
}

// loggingMiddleware logs HTTP requests
func loggingMiddleware(log *logger.Logger) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

			// Call next handler
			next.ServeHTTP(rec, r)

			// Log request
			log.WithFields(map[string]interface{}{
				"method":   r.Method,
				"path":     r.URL.Path,
				"status":   rec.status,
				"duration": time.Since(start),
			}).Debug("HTTP request")
		})
	}
}

// recoveryMiddleware recovers from panics
func recoveryMiddleware(log *logger.Logger) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if err := recover(); err != nil {
					log.WithFields(map[string]interface{}{
						"error": err,
						"path":  r.URL.Path,
					}).Error("Panic recovered")

					w.Header().Set("Content-Type", "application/json")
					w.WriteHeader(http.StatusInternalServerError)
					json.NewEncoder(w).Encode(map[string]string{
						"error": "Internal server error",
					})
				}
			}()

			next.ServeHTTP(w, r)
		})
	}
}
