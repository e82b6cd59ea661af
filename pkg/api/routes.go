package api

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func SetupRoutes(router *mux.Router, handlers *Handlers) {
	// API version prefix
	api := router.PathPrefix("/api/v1").Subrouter()

	// Dataset endpoints
	api.HandleFunc("/dataset", handlers.GetDataset).Methods("GET")
	api.HandleFunc("/dataset", handlers.UploadDataset).Methods("POST")

	// Seed set endpoints
	api.HandleFunc("/simulations", handlers.Simulate).Methods("POST")
	api.HandleFunc("/validations", handlers.ValidateSeeds).Methods("POST")
	api.HandleFunc("/selections", handlers.StartSelection).Methods("POST")

	// Job management endpoints
	jobs := api.PathPrefix("/jobs").Subrouter()
	jobs.HandleFunc("", handlers.ListJobs).Methods("GET")
	jobs.HandleFunc("/{jobId}", handlers.GetJob).Methods("GET")
	jobs.HandleFunc("/{jobId}", handlers.CancelJob).Methods("DELETE")
	jobs.HandleFunc("/{jobId}/layout", handlers.GetJobLayout).Methods("GET")
	jobs.HandleFunc("/{jobId}/submission", handlers.GetJobSubmission).Methods("GET")

	// Health check endpoint
	api.HandleFunc("/health", handlers.HealthCheck).Methods("GET")
}

// NewRouter builds the complete HTTP handler: API routes, the metrics
// endpoint, logging, panic recovery and CORS
func NewRouter(handlers *Handlers, gatherer prometheus.Gatherer, allowedOrigins []string) http.Handler {
	router := mux.NewRouter()
	SetupRoutes(router, handlers)

	if gatherer != nil {
		router.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})).Methods("GET")
	}

	router.Use(LoggingMiddleware)
	router.Use(RecoveryMiddleware)

	return CORS(router, allowedOrigins)
}
