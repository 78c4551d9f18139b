package router

import (
	"net/http"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"asset-buyback-api/internal/config"
	"asset-buyback-api/internal/handler"
	"asset-buyback-api/internal/middleware"
)

// NewRouter creates a new router and sets up the routes with security middleware.
func NewRouter(h handler.AssetHandlerInterface, cfg *config.Config, logger *zap.Logger) *mux.Router {
	r := mux.NewRouter()

	securityMW := middleware.NewSecurityMiddleware(&cfg.Security)
	loggingMW := middleware.NewLoggingMiddleware(logger)

	// Apply global middleware in order
	r.Use(securityMW.SecurityHeaders)
	r.Use(securityMW.CORS)
	r.Use(securityMW.TrustedProxy)
	r.Use(loggingMW.LogRequests)
	r.Use(securityMW.RateLimit)
	r.Use(securityMW.RequestTimeout)

	api := r.PathPrefix("/api").Subrouter()

	// Fixed paths are registered before {id} so they are not taken as an ID.
	api.HandleFunc("/assets/export/excel", h.ExportHandler).Methods(http.MethodGet)
	api.HandleFunc("/assets/import/excel", h.ImportHandler).Methods(http.MethodPost)
	api.HandleFunc("/assets/check-duplicates", h.CheckDuplicatesHandler).Methods(http.MethodPost)

	// Asset CRUD operations
	api.HandleFunc("/assets", h.ListAssetsHandler).Methods(http.MethodGet)
	api.HandleFunc("/assets", h.CreateAssetHandler).Methods(http.MethodPost)
	api.HandleFunc("/assets/{id}", h.GetAssetHandler).Methods(http.MethodGet)
	api.HandleFunc("/assets/{id}", h.UpdateAssetHandler).Methods(http.MethodPut)
	api.HandleFunc("/assets/{id}", h.DeleteAssetHandler).Methods(http.MethodDelete)

	// Status page
	api.HandleFunc("/assets/{id}/status", h.UpdateStatusHandler).Methods(http.MethodPatch)
	api.HandleFunc("/assets/{id}/status-options", h.StatusOptionsHandler).Methods(http.MethodGet)
	api.HandleFunc("/assets/{id}/qr", h.QRCodeHandler).Methods(http.MethodGet)

	// Health check
	api.HandleFunc("/health", h.HealthHandler).Methods(http.MethodGet)

	// Preflight requests are answered by the CORS middleware, which only runs
	// for matched routes.
	api.PathPrefix("/").Methods(http.MethodOptions).HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})

	return r
}
