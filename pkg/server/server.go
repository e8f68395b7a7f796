package server

import (
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"

	"github.com/RaviKunapareddy/Arraylink-Dashboard-Application/pkg/config"
	"github.com/RaviKunapareddy/Arraylink-Dashboard-Application/pkg/handlers"
)

func NewHTTPServer(cfg *config.Config, handler *handlers.Handler, logger *logrus.Logger) *http.Server {
	router := NewRouter(handler, logger)

	return &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
}

// NewRouter wires the webhook and trigger routes. Each POST-only route gets
// a trailing catch-all that answers 405 with the Allow header; gorilla/mux
// matches in registration order, so the method-guarded route wins when the
// method fits.
func NewRouter(handler *handlers.Handler, logger *logrus.Logger) *mux.Router {
	router := mux.NewRouter()

	// Provider webhooks
	router.HandleFunc("/api/call-script", handler.CallScript).Methods("GET", "POST")
	router.HandleFunc("/api/call-script", handlers.MethodNotAllowed("GET", "POST"))
	router.HandleFunc("/api/call-response", handler.CallTurn).Methods("POST")
	router.HandleFunc("/api/call-response", handlers.MethodNotAllowed("POST"))
	router.HandleFunc("/api/call-status", handler.CallStatus).Methods("POST")
	router.HandleFunc("/api/call-status", handlers.MethodNotAllowed("POST"))
	router.HandleFunc("/api/debug-response", handler.DebugResponse).Methods("GET", "POST")
	router.HandleFunc("/api/debug-response", handlers.MethodNotAllowed("GET", "POST"))

	// Dashboard trigger
	router.HandleFunc("/api/outreach", handler.Outreach).Methods("POST")
	router.HandleFunc("/api/outreach", handlers.MethodNotAllowed("POST"))

	// Operational endpoints
	router.HandleFunc("/health", handler.Health).Methods("GET")
	router.Handle("/metrics", promhttp.Handler()).Methods("GET")

	router.Use(loggingMiddleware(logger))

	return router
}

func loggingMiddleware(logger *logrus.Logger) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			next.ServeHTTP(w, r)

			logger.WithFields(logrus.Fields{
				"method":   r.Method,
				"path":     r.URL.Path,
				"duration": time.Since(start),
				"remote":   r.RemoteAddr,
			}).Debug("HTTP request processed")
		})
	}
}
