package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"asset-buyback-api/internal/model"
	"asset-buyback-api/pkg/datetime"
)

// Custom errors for better error handling
var (
	ErrAssetNotFound = errors.New("asset not found")
	ErrIDExhausted   = errors.New("could not allocate an unused asset id")
)

// uniqueViolation is the Postgres SQLSTATE for unique constraint violations.
const uniqueViolation = "23505"

const createAttempts = 3

// AssetRepository is the record store used by the duplicate check, the
// status guard and the spreadsheet reconciler. Get, update and delete only
// see active records; ListAllAssets includes soft-deleted ones.
type AssetRepository interface {
	ListAssets(ctx context.Context) ([]model.Asset, error)
	ListAllAssets(ctx context.Context) ([]model.Asset, error)
	GetAsset(ctx context.Context, id uuid.UUID) (*model.Asset, error)
	CreateAsset(ctx context.Context, in model.AssetInput) (*model.Asset, error)
	UpdateAsset(ctx context.Context, id uuid.UUID, in model.AssetInput) (*model.Asset, error)
	UpdateAssetStatus(ctx context.Context, id uuid.UUID, status model.BuybackStatus) (*model.Asset, error)
	DeleteAsset(ctx context.Context, id uuid.UUID) error
}

const assetColumns = `id, pc_name, employee_number, username, serial_number, mac_address,
		buyback_status, date, created_at, updated_at, status_log`

// assetRepository is the Postgres implementation of AssetRepository.
type assetRepository struct {
	DB  *sql.DB
	now func() time.Time
}

// NewAssetRepository creates a new AssetRepository backed by Postgres.
func NewAssetRepository(db *sql.DB) AssetRepository {
	return &assetRepository{
		DB:  db,
		now: func() time.Time { return time.Now().UTC() },
	}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanAsset(row rowScanner) (*model.Asset, error) {
	var a model.Asset
	var status, entry string
	if err := row.Scan(
		&a.ID, &a.PCName, &a.EmployeeNumber, &a.Username, &a.SerialNumber, &a.MACAddress,
		&status, &a.Date, &a.CreatedAt, &a.UpdatedAt, &entry,
	); err != nil {
		return nil, err
	}
	a.BuybackStatus = model.BuybackStatus(status)
	a.StatusLog = model.EntryStatus(entry)
	// DATE columns carry no zone; keep the stored day as is
	a.Date = time.Date(a.Date.Year(), a.Date.Month(), a.Date.Day(), 0, 0, 0, 0, time.UTC)
	return &a, nil
}

func (r *assetRepository) queryAssets(ctx context.Context, query string, args ...any) ([]model.Asset, error) {
	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query assets: %w", err)
	}
	defer rows.Close()

	assets := []model.Asset{}
	for rows.Next() {
		a, err := scanAsset(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan asset: %w", err)
		}
		assets = append(assets, *a)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return assets, nil
}

// ListAssets retrieves all active assets, oldest first.
func (r *assetRepository) ListAssets(ctx context.Context) ([]model.Asset, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	query := `SELECT ` + assetColumns + `
		FROM assets
		WHERE status_log = 'Active'
		ORDER BY created_at, id`

	return r.queryAssets(ctx, query)
}

// ListAllAssets retrieves every asset including soft-deleted audit entries.
func (r *assetRepository) ListAllAssets(ctx context.Context) ([]model.Asset, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	query := `SELECT ` + assetColumns + `
		FROM assets
		ORDER BY created_at, id`

	return r.queryAssets(ctx, query)
}

// GetAsset retrieves a single active asset by its ID.
func (r *assetRepository) GetAsset(ctx context.Context, id uuid.UUID) (*model.Asset, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	query := `SELECT ` + assetColumns + `
		FROM assets
		WHERE id = $1 AND status_log = 'Active'`

	a, err := scanAsset(r.DB.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrAssetNotFound
		}
		return nil, fmt.Errorf("failed to get asset by ID: %w", err)
	}
	return a, nil
}

// CreateAsset stores a new asset under a freshly generated ID. A primary key
// collision is retried with a new ID.
func (r *assetRepository) CreateAsset(ctx context.Context, in model.AssetInput) (*model.Asset, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	query := `
		INSERT INTO assets (id, pc_name, employee_number, username, serial_number, mac_address,
			buyback_status, date, created_at, updated_at, status_log)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $9, 'Active')
		RETURNING ` + assetColumns

	now := r.now()
	for attempt := 0; attempt < createAttempts; attempt++ {
		a, err := scanAsset(r.DB.QueryRowContext(ctx, query,
			uuid.New(),
			in.PCName,
			in.EmployeeNumber,
			in.Username,
			in.SerialNumber,
			in.MACAddress,
			string(in.BuybackStatus),
			datetime.ISODate(in.Date),
			now,
		))
		if err == nil {
			return a, nil
		}

		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
			continue
		}
		return nil, fmt.Errorf("failed to create asset: %w", err)
	}

	return nil, ErrIDExhausted
}

// UpdateAsset replaces every mutable field of an active asset.
func (r *assetRepository) UpdateAsset(ctx context.Context, id uuid.UUID, in model.AssetInput) (*model.Asset, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	query := `
		UPDATE assets
		SET pc_name = $1, employee_number = $2, username = $3, serial_number = $4,
			mac_address = $5, buyback_status = $6, date = $7, updated_at = $8
		WHERE id = $9 AND status_log = 'Active'
		RETURNING ` + assetColumns

	a, err := scanAsset(r.DB.QueryRowContext(ctx, query,
		in.PCName,
		in.EmployeeNumber,
		in.Username,
		in.SerialNumber,
		in.MACAddress,
		string(in.BuybackStatus),
		datetime.ISODate(in.Date),
		r.now(),
		id,
	))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrAssetNotFound
		}
		return nil, fmt.Errorf("failed to update asset: %w", err)
	}
	return a, nil
}

// UpdateAssetStatus changes only the buyback status of an active asset.
func (r *assetRepository) UpdateAssetStatus(ctx context.Context, id uuid.UUID, status model.BuybackStatus) (*model.Asset, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	query := `
		UPDATE assets
		SET buyback_status = $1, updated_at = $2
		WHERE id = $3 AND status_log = 'Active'
		RETURNING ` + assetColumns

	a, err := scanAsset(r.DB.QueryRowContext(ctx, query, string(status), r.now(), id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrAssetNotFound
		}
		return nil, fmt.Errorf("failed to update asset status: %w", err)
	}
	return a, nil
}

// DeleteAsset marks an active asset as deleted. The row stays for the audit export.
func (r *assetRepository) DeleteAsset(ctx context.Context, id uuid.UUID) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	query := `
		UPDATE assets
		SET status_log = 'Deleted', updated_at = $1
		WHERE id = $2 AND status_log = 'Active'`

	result, err := r.DB.ExecContext(ctx, query, r.now(), id)
	if err != nil {
		return fmt.Errorf("failed to delete asset: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return ErrAssetNotFound
	}

	return nil
}
