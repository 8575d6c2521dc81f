package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/wonny/rotor/internal/api/handlers"
	"github.com/wonny/rotor/pkg/logger"
)

// NewRouter creates and configures the HTTP router
func NewRouter(
	rankings *handlers.RankingsHandler,
	pipeline *handlers.PipelineHandler,
	health *handlers.HealthHandler,
	log *logger.Logger,
) http.Handler {
	r := mux.NewRouter()

	r.HandleFunc("/health", health.Get).Methods("GET")

	api := r.PathPrefix("/api").Subrouter()

	api.HandleFunc("/rankings/weeks", rankings.GetWeeks).Methods("GET")
	api.HandleFunc("/rankings/latest", rankings.GetLatest).Methods("GET")
	api.HandleFunc("/rankings/{week}", rankings.GetWeek).Methods("GET")
	api.HandleFunc("/sectors/{symbol}/trend", rankings.GetTrend).Methods("GET")

	api.HandleFunc("/pipeline/run", pipeline.Run).Methods("POST")

	r.Use(loggingMiddleware(log))
	r.Use(recoveryMiddleware(log))

	return r
}

// loggingMiddleware logs HTTP requests
func loggingMiddleware(log *logger.Logger) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			next.ServeHTTP(w, r)

			log.WithFields(map[string]interface{}{
				"method":   r.Method,
				"path":     r.URL.Path,
				"duration": time.Since(start),
			}).Debug("HTTP request")
		})
	}
}

// recoveryMiddleware recovers from handler panics
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
