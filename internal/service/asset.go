package service

import (
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"asset-buyback-api/internal/duplicate"
	"asset-buyback-api/internal/events"
	"asset-buyback-api/internal/lifecycle"
	"asset-buyback-api/internal/model"
	"asset-buyback-api/internal/repository"
	"asset-buyback-api/internal/spreadsheet"
	"asset-buyback-api/pkg/errors"
	"asset-buyback-api/pkg/validation"
)

// notifyTimeout bounds the background completion notification.
const notifyTimeout = 30 * time.Second

// AssetService handles business logic for asset operations
type AssetService struct {
	repo      repository.AssetRepository
	publisher events.Publisher
	notifier  NotificationService
	logger    *zap.Logger
	exportLoc *time.Location
	now       func() time.Time
}

// NotificationService interface for sending notifications
type NotificationService interface {
	SendAssetNotification(ctx context.Context, notification AssetNotification) error
}

// AssetNotification represents a notification about an asset
type AssetNotification struct {
	Type           NotificationType
	AssetID        uuid.UUID
	EmployeeNumber string
	PCName         string
	Message        string
	Metadata       map[string]string
}

// NotificationType represents the type of notification
type NotificationType string

const (
	NotificationTypeAssetCompleted NotificationType = "asset_completed"
)

// Options configures optional collaborators of AssetService.
type Options struct {
	Publisher events.Publisher
	Notifier  NotificationService
	Logger    *zap.Logger
	// ExportLocation renders export timestamps. Nil means time.Local.
	ExportLocation *time.Location
}

// StatusOptions is what the status page needs to offer a status change.
type StatusOptions struct {
	Asset          *model.Asset          `json:"asset"`
	Current        model.BuybackStatus   `json:"current"`
	AllowedTargets []model.BuybackStatus `json:"allowedTargets"`
}

// NewAssetService creates a new asset service
func NewAssetService(repo repository.AssetRepository, opts Options) *AssetService {
	s := &AssetService{
		repo:      repo,
		publisher: opts.Publisher,
		notifier:  opts.Notifier,
		logger:    opts.Logger,
		exportLoc: opts.ExportLocation,
		now:       time.Now,
	}
	if s.publisher == nil {
		s.publisher = events.NopPublisher{}
	}
	if s.logger == nil {
		s.logger = zap.NewNop()
	}
	s.logger = s.logger.Named("asset_service")
	if s.exportLoc == nil {
		s.exportLoc = time.Local
	}
	return s
}

// ListAssets returns active assets in creation order.
func (s *AssetService) ListAssets(ctx context.Context) ([]model.Asset, error) {
	assets, err := s.repo.ListAssets(ctx)
	if err != nil {
		return nil, errors.DatabaseError("failed to retrieve assets", err)
	}
	return assets, nil
}

// ListAllAssets returns every asset, deleted audit entries included.
func (s *AssetService) ListAllAssets(ctx context.Context) ([]model.Asset, error) {
	assets, err := s.repo.ListAllAssets(ctx)
	if err != nil {
		return nil, errors.DatabaseError("failed to retrieve assets", err)
	}
	return assets, nil
}

// GetAsset retrieves an active asset by its ID
func (s *AssetService) GetAsset(ctx context.Context, id uuid.UUID) (*model.Asset, error) {
	asset, err := s.repo.GetAsset(ctx, id)
	if err != nil {
		return nil, storeError(err, "failed to retrieve asset")
	}
	return asset, nil
}

// CheckDuplicates compares the candidate's identity fields against the active
// assets. The candidate is not validated; the result is advisory.
func (s *AssetService) CheckDuplicates(ctx context.Context, req model.AssetRequest, excludeID uuid.UUID) (*duplicate.Result, error) {
	existing, err := s.repo.ListAssets(ctx)
	if err != nil {
		return nil, errors.DatabaseError("failed to load assets for duplicate check", err)
	}

	candidate := model.AssetInput{
		PCName:         req.PCName,
		EmployeeNumber: req.EmployeeNumber,
		Username:       req.Username,
		SerialNumber:   req.SerialNumber,
		MACAddress:     req.MACAddress,
	}
	result := duplicate.Check(candidate, existing, excludeID)

	if result.IsDuplicate {
		s.logger.Debug("duplicate identity fields found",
			zap.Strings("fields", result.DuplicateLabels),
			zap.Int("records", len(result.CollidingRecords)))
	}
	return &result, nil
}

// CreateAsset validates and stores a new asset. Duplicates are not blocked
// here; callers run CheckDuplicates first and let the operator confirm.
func (s *AssetService) CreateAsset(ctx context.Context, req model.AssetRequest) (*model.Asset, error) {
	in, err := validateRequest(req)
	if err != nil {
		return nil, err
	}

	asset, err := s.repo.CreateAsset(ctx, in)
	if err != nil {
		return nil, errors.DatabaseError("failed to create asset", err)
	}

	s.publisher.Produce(events.AssetCreated, asset)
	s.logger.Info("asset created",
		zap.String("id", asset.ID.String()),
		zap.String("serial_number", asset.SerialNumber))

	return asset, nil
}

// UpdateAsset replaces every mutable field of an asset. Full edits may set
// any buyback status and are not subject to the status guard.
func (s *AssetService) UpdateAsset(ctx context.Context, id uuid.UUID, req model.AssetRequest) (*model.Asset, error) {
	in, err := validateRequest(req)
	if err != nil {
		return nil, err
	}

	asset, err := s.repo.UpdateAsset(ctx, id, in)
	if err != nil {
		return nil, storeError(err, "failed to update asset")
	}

	s.publisher.Produce(events.AssetUpdated, asset)
	s.logger.Info("asset updated", zap.String("id", id.String()))

	return asset, nil
}

// UpdateStatus performs a status-only change through the lifecycle guard.
// Reaching Completed sends a best-effort notification.
func (s *AssetService) UpdateStatus(ctx context.Context, id uuid.UUID, status string) (*model.Asset, error) {
	current, err := s.repo.GetAsset(ctx, id)
	if err != nil {
		return nil, storeError(err, "failed to retrieve asset")
	}

	target := model.BuybackStatus(status)
	if err := lifecycle.CheckStatusChange(current.BuybackStatus, target); err != nil {
		return nil, guardError(err)
	}

	asset, err := s.repo.UpdateAssetStatus(ctx, id, target)
	if err != nil {
		return nil, storeError(err, "failed to update asset status")
	}

	s.publisher.Produce(events.AssetStatusChanged, asset)
	s.logger.Info("asset status changed",
		zap.String("id", id.String()),
		zap.String("from", string(current.BuybackStatus)),
		zap.String("to", string(asset.BuybackStatus)))

	if asset.BuybackStatus == model.StatusCompleted && s.notifier != nil {
		go s.sendCompletionNotification(*asset)
	}

	return asset, nil
}

// StatusOptions returns the asset with the statuses it may move to.
func (s *AssetService) StatusOptions(ctx context.Context, id uuid.UUID) (*StatusOptions, error) {
	asset, err := s.GetAsset(ctx, id)
	if err != nil {
		return nil, err
	}
	return &StatusOptions{
		Asset:          asset,
		Current:        asset.BuybackStatus,
		AllowedTargets: lifecycle.AllowedTargets(asset.BuybackStatus),
	}, nil
}

// DeleteAsset marks an asset deleted. It stays in the export as an audit entry.
func (s *AssetService) DeleteAsset(ctx context.Context, id uuid.UUID) error {
	asset, err := s.repo.GetAsset(ctx, id)
	if err != nil {
		return storeError(err, "failed to retrieve asset for deletion")
	}

	if err := s.repo.DeleteAsset(ctx, id); err != nil {
		return storeError(err, "failed to delete asset")
	}

	asset.StatusLog = model.EntryDeleted
	s.publisher.Produce(events.AssetDeleted, asset)
	s.logger.Info("asset deleted", zap.String("id", id.String()))

	return nil
}

// ExportAssets builds the audit workbook. The caller closes the file.
func (s *AssetService) ExportAssets(ctx context.Context) (*excelize.File, error) {
	assets, err := s.repo.ListAllAssets(ctx)
	if err != nil {
		return nil, errors.DatabaseError("failed to retrieve assets for export", err)
	}

	file, err := spreadsheet.Export(assets, spreadsheet.ExportOptions{Location: s.exportLoc})
	if err != nil {
		return nil, errors.InternalError("failed to build workbook", err)
	}

	s.logger.Info("assets exported", zap.Int("rows", len(assets)))
	return file, nil
}

// ExportFilename names an export made now.
func (s *AssetService) ExportFilename() string {
	return spreadsheet.Filename(s.now().In(s.exportLoc))
}

// ImportAssets reconciles a workbook against the store row by row.
func (s *AssetService) ImportAssets(ctx context.Context, src io.Reader) (*spreadsheet.ImportResult, error) {
	result, err := spreadsheet.NewReconciler(s.repo, s.logger).Import(ctx, src)
	if err != nil {
		var missing *spreadsheet.MissingColumnsError
		switch {
		case stderrors.As(err, &missing):
			return nil, errors.ValidationError(err.Error()).WithDetail("missingColumns", missing.Columns)
		case stderrors.Is(err, spreadsheet.ErrUnreadableWorkbook):
			return nil, errors.UnsupportedFormatError("file is not a readable .xlsx workbook", err)
		case stderrors.Is(err, context.Canceled), stderrors.Is(err, context.DeadlineExceeded):
			return nil, errors.InternalError("import cancelled", err)
		}
		return nil, errors.InternalError("failed to import workbook", err)
	}
	return result, nil
}

func (s *AssetService) sendCompletionNotification(asset model.Asset) {
	ctx, cancel := context.WithTimeout(context.Background(), notifyTimeout)
	defer cancel()

	notification := AssetNotification{
		Type:           NotificationTypeAssetCompleted,
		AssetID:        asset.ID,
		EmployeeNumber: asset.EmployeeNumber,
		PCName:         asset.PCName,
		Message:        fmt.Sprintf("Asset %s (%s) completed buyback for employee %s", asset.PCName, asset.SerialNumber, asset.EmployeeNumber),
		Metadata: map[string]string{
			"serial_number": asset.SerialNumber,
			"mac_address":   asset.MACAddress,
		},
	}

	if err := s.notifier.SendAssetNotification(ctx, notification); err != nil {
		s.logger.Warn("failed to send completion notification",
			zap.String("id", asset.ID.String()),
			zap.Error(err))
	}
}

func validateRequest(req model.AssetRequest) (model.AssetInput, error) {
	in, err := validation.ValidateAssetRequest(req)
	if err != nil {
		var verr *validation.ValidationError
		if stderrors.As(err, &verr) {
			return model.AssetInput{}, errors.ValidationErrorWithDetails("invalid asset", verr.Fields)
		}
		return model.AssetInput{}, errors.ValidationError(err.Error())
	}
	return in, nil
}

func guardError(err error) error {
	var denied *lifecycle.TransitionDeniedError
	if stderrors.As(err, &denied) {
		return errors.TransitionDeniedError(denied.Error(), string(denied.Reason), err)
	}
	var verr *validation.ValidationError
	if stderrors.As(err, &verr) {
		return errors.ValidationErrorWithDetails("invalid status", verr.Fields)
	}
	return errors.InternalError("status check failed", err)
}

func storeError(err error, message string) error {
	if stderrors.Is(err, repository.ErrAssetNotFound) {
		return errors.NotFoundError("asset")
	}
	return errors.DatabaseError(message, err)
}
