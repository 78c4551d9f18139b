package handler

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"asset-buyback-api/internal/duplicate"
	"asset-buyback-api/internal/model"
	"asset-buyback-api/internal/qr"
	"asset-buyback-api/internal/service"
	"asset-buyback-api/internal/spreadsheet"
	apperrors "asset-buyback-api/pkg/errors"
)

// Constants for timeouts and limits
const (
	DefaultTimeout     = 10 * time.Second
	LongRunningTimeout = 60 * time.Second

	// DefaultImportMaxBytes caps the decoded workbook size.
	DefaultImportMaxBytes = 10 << 20

	xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

// AssetService is the business layer the handler drives.
type AssetService interface {
	ListAssets(ctx context.Context) ([]model.Asset, error)
	GetAsset(ctx context.Context, id uuid.UUID) (*model.Asset, error)
	CheckDuplicates(ctx context.Context, req model.AssetRequest, excludeID uuid.UUID) (*duplicate.Result, error)
	CreateAsset(ctx context.Context, req model.AssetRequest) (*model.Asset, error)
	UpdateAsset(ctx context.Context, id uuid.UUID, req model.AssetRequest) (*model.Asset, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status string) (*model.Asset, error)
	StatusOptions(ctx context.Context, id uuid.UUID) (*service.StatusOptions, error)
	DeleteAsset(ctx context.Context, id uuid.UUID) error
	ExportAssets(ctx context.Context) (*excelize.File, error)
	ExportFilename() string
	ImportAssets(ctx context.Context, src io.Reader) (*spreadsheet.ImportResult, error)
}

// DuplicateCheckRequest is a candidate plus the record being edited, if any.
type DuplicateCheckRequest struct {
	model.AssetRequest
	ExcludeID string `json:"excludeId,omitempty"`
}

// StatusUpdateRequest is the body of a status-only change.
type StatusUpdateRequest struct {
	Status string `json:"status"`
}

// ImportRequest carries a base64 encoded .xlsx workbook.
type ImportRequest struct {
	Data string `json:"data"`
}

// AssetHandler handles the HTTP requests for assets.
type AssetHandler struct {
	Service        AssetService
	QR             qr.Renderer
	ImportMaxBytes int64
	Logger         *zap.Logger

	ErrorHandler   *ErrorHandler
	ResponseHelper *ResponseHelper
}

// NewAssetHandler creates a new AssetHandler with dependencies and helpers
func NewAssetHandler(svc AssetService, renderer qr.Renderer, importMaxBytes int64, logger *zap.Logger) *AssetHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	if importMaxBytes <= 0 {
		importMaxBytes = DefaultImportMaxBytes
	}
	logger = logger.Named("handler")

	return &AssetHandler{
		Service:        svc,
		QR:             renderer,
		ImportMaxBytes: importMaxBytes,
		Logger:         logger,
		ErrorHandler:   NewErrorHandler(logger),
		ResponseHelper: NewResponseHelper(),
	}
}

// ListAssetsHandler returns every active asset.
func (h *AssetHandler) ListAssetsHandler(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := h.ResponseHelper.CreateRequestContext(r, LongRunningTimeout)
	defer cancel()

	assets, err := h.Service.ListAssets(ctx)
	if err != nil {
		h.ErrorHandler.HandleError(w, r, err, "list")
		return
	}

	h.ErrorHandler.SendJSONResponse(w, http.StatusOK, assets)
}

// GetAssetHandler returns one active asset.
func (h *AssetHandler) GetAssetHandler(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := h.ResponseHelper.CreateRequestContext(r, DefaultTimeout)
	defer cancel()

	id, valid := h.ErrorHandler.ParseAndValidateUUID(w, mux.Vars(r)["id"])
	if !valid {
		return
	}

	asset, err := h.Service.GetAsset(ctx, id)
	if err != nil {
		h.ErrorHandler.HandleError(w, r, err, "retrieve")
		return
	}

	h.ErrorHandler.SendJSONResponse(w, http.StatusOK, asset)
}

// CheckDuplicatesHandler reports identity collisions for a candidate.
func (h *AssetHandler) CheckDuplicatesHandler(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := h.ResponseHelper.CreateRequestContext(r, DefaultTimeout)
	defer cancel()

	var req DuplicateCheckRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.ErrorHandler.HandleJSONDecodeError(w, err)
		return
	}

	excludeID := uuid.Nil
	if req.ExcludeID != "" {
		id, valid := h.ErrorHandler.ParseAndValidateUUID(w, req.ExcludeID)
		if !valid {
			return
		}
		excludeID = id
	}

	result, err := h.Service.CheckDuplicates(ctx, req.AssetRequest, excludeID)
	if err != nil {
		h.ErrorHandler.HandleError(w, r, err, "check")
		return
	}

	h.ErrorHandler.SendJSONResponse(w, http.StatusOK, result)
}

// CreateAssetHandler handles the creation of a new asset.
func (h *AssetHandler) CreateAssetHandler(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := h.ResponseHelper.CreateRequestContext(r, DefaultTimeout)
	defer cancel()

	var req model.AssetRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.ErrorHandler.HandleJSONDecodeError(w, err)
		return
	}

	asset, err := h.Service.CreateAsset(ctx, req)
	if err != nil {
		h.ErrorHandler.HandleError(w, r, err, "create")
		return
	}

	h.ErrorHandler.SendJSONResponse(w, http.StatusCreated, asset)
}

// UpdateAssetHandler replaces every mutable field of an asset.
func (h *AssetHandler) UpdateAssetHandler(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := h.ResponseHelper.CreateRequestContext(r, DefaultTimeout)
	defer cancel()

	id, valid := h.ErrorHandler.ParseAndValidateUUID(w, mux.Vars(r)["id"])
	if !valid {
		return
	}

	var req model.AssetRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.ErrorHandler.HandleJSONDecodeError(w, err)
		return
	}

	asset, err := h.Service.UpdateAsset(ctx, id, req)
	if err != nil {
		h.ErrorHandler.HandleError(w, r, err, "update")
		return
	}

	h.ErrorHandler.SendJSONResponse(w, http.StatusOK, asset)
}

// UpdateStatusHandler applies a status-only change from the status page.
func (h *AssetHandler) UpdateStatusHandler(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := h.ResponseHelper.CreateRequestContext(r, DefaultTimeout)
	defer cancel()

	id, valid := h.ErrorHandler.ParseAndValidateUUID(w, mux.Vars(r)["id"])
	if !valid {
		return
	}

	var req StatusUpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.ErrorHandler.HandleJSONDecodeError(w, err)
		return
	}

	asset, err := h.Service.UpdateStatus(ctx, id, req.Status)
	if err != nil {
		h.ErrorHandler.HandleError(w, r, err, "update status of")
		return
	}

	h.ErrorHandler.SendJSONResponse(w, http.StatusOK, asset)
}

// StatusOptionsHandler returns the current status and the allowed targets.
func (h *AssetHandler) StatusOptionsHandler(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := h.ResponseHelper.CreateRequestContext(r, DefaultTimeout)
	defer cancel()

	id, valid := h.ErrorHandler.ParseAndValidateUUID(w, mux.Vars(r)["id"])
	if !valid {
		return
	}

	opts, err := h.Service.StatusOptions(ctx, id)
	if err != nil {
		h.ErrorHandler.HandleError(w, r, err, "retrieve")
		return
	}

	h.ErrorHandler.SendJSONResponse(w, http.StatusOK, opts)
}

// QRCodeHandler renders the label code linking to the asset's status page.
func (h *AssetHandler) QRCodeHandler(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := h.ResponseHelper.CreateRequestContext(r, DefaultTimeout)
	defer cancel()

	id, valid := h.ErrorHandler.ParseAndValidateUUID(w, mux.Vars(r)["id"])
	if !valid {
		return
	}

	if _, err := h.Service.GetAsset(ctx, id); err != nil {
		h.ErrorHandler.HandleError(w, r, err, "retrieve")
		return
	}

	png, err := h.QR.Render(id)
	if err != nil {
		h.ErrorHandler.HandleError(w, r, apperrors.InternalError("failed to render QR code", err), "render")
		return
	}

	w.Header().Set("Content-Type", qr.ContentType)
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(png); err != nil {
		h.Logger.Warn("failed to write QR code", zap.Error(err))
	}
}

// DeleteAssetHandler soft deletes an asset.
func (h *AssetHandler) DeleteAssetHandler(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := h.ResponseHelper.CreateRequestContext(r, DefaultTimeout)
	defer cancel()

	id, valid := h.ErrorHandler.ParseAndValidateUUID(w, mux.Vars(r)["id"])
	if !valid {
		return
	}

	if err := h.Service.DeleteAsset(ctx, id); err != nil {
		h.ErrorHandler.HandleError(w, r, err, "delete")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// ExportHandler streams the audit workbook as an attachment.
func (h *AssetHandler) ExportHandler(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := h.ResponseHelper.CreateRequestContext(r, LongRunningTimeout)
	defer cancel()

	file, err := h.Service.ExportAssets(ctx)
	if err != nil {
		h.ErrorHandler.HandleError(w, r, err, "export")
		return
	}
	defer file.Close()

	buf, err := file.WriteToBuffer()
	if err != nil {
		h.ErrorHandler.HandleError(w, r, apperrors.InternalError("failed to write workbook", err), "export")
		return
	}

	h.ResponseHelper.SetAttachmentHeaders(w, xlsxContentType, h.Service.ExportFilename())
	w.WriteHeader(http.StatusOK)
	if _, err := buf.WriteTo(w); err != nil {
		h.Logger.Warn("failed to stream export", zap.Error(err))
	}
}

// ImportHandler reconciles an uploaded workbook and reports per-row outcomes.
func (h *AssetHandler) ImportHandler(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := h.ResponseHelper.CreateRequestContext(r, LongRunningTimeout)
	defer cancel()

	// Base64 inflates by 4/3; leave room for the JSON envelope.
	r.Body = http.MaxBytesReader(w, r.Body, int64(base64.StdEncoding.EncodedLen(int(h.ImportMaxBytes)))+1024)

	var req ImportRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			h.ErrorHandler.HandleError(w, r, apperrors.PayloadTooLargeError(h.ImportMaxBytes), "import")
			return
		}
		h.ErrorHandler.HandleJSONDecodeError(w, err)
		return
	}

	data := strings.TrimSpace(req.Data)
	if data == "" {
		h.ErrorHandler.HandleError(w, r, apperrors.BadRequestError("No file data provided"), "import")
		return
	}
	// Accept data URLs as produced by a browser FileReader.
	if i := strings.Index(data, ";base64,"); i >= 0 {
		data = data[i+len(";base64,"):]
	}

	raw, err := base64.StdEncoding.DecodeString(data)
	if err != nil {
		h.ErrorHandler.HandleError(w, r, apperrors.BadRequestError("file data is not valid base64"), "import")
		return
	}
	if int64(len(raw)) > h.ImportMaxBytes {
		h.ErrorHandler.HandleError(w, r, apperrors.PayloadTooLargeError(h.ImportMaxBytes), "import")
		return
	}

	result, err := h.Service.ImportAssets(ctx, bytes.NewReader(raw))
	if err != nil {
		h.ErrorHandler.HandleError(w, r, err, "import")
		return
	}

	h.Logger.Info("import processed",
		zap.Int("success", result.Success),
		zap.Int("failed", result.Failed))

	h.ErrorHandler.SendJSONResponse(w, http.StatusOK, result)
}

// HealthHandler provides a health check endpoint
func (h *AssetHandler) HealthHandler(w http.ResponseWriter, r *http.Request) {
	h.ErrorHandler.SendJSONResponse(w, http.StatusOK, h.ResponseHelper.CreateHealthCheckData())
}
