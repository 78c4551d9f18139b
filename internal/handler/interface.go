package handler

import (
	"net/http"
)

// AssetHandlerInterface defines the contract for asset HTTP handlers.
type AssetHandlerInterface interface {
	// Asset CRUD operations
	ListAssetsHandler(w http.ResponseWriter, r *http.Request)
	GetAssetHandler(w http.ResponseWriter, r *http.Request)
	CreateAssetHandler(w http.ResponseWriter, r *http.Request)
	UpdateAssetHandler(w http.ResponseWriter, r *http.Request)
	DeleteAssetHandler(w http.ResponseWriter, r *http.Request)
	CheckDuplicatesHandler(w http.ResponseWriter, r *http.Request)

	// Status page
	UpdateStatusHandler(w http.ResponseWriter, r *http.Request)
	StatusOptionsHandler(w http.ResponseWriter, r *http.Request)
	QRCodeHandler(w http.ResponseWriter, r *http.Request)

	// Spreadsheet round trip
	ExportHandler(w http.ResponseWriter, r *http.Request)
	ImportHandler(w http.ResponseWriter, r *http.Request)

	// Health and monitoring
	HealthHandler(w http.ResponseWriter, r *http.Request)
}

// Ensure AssetHandler implements AssetHandlerInterface at compile time
var _ AssetHandlerInterface = (*AssetHandler)(nil)
