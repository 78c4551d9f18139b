package repository

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"asset-buyback-api/internal/model"
)

var assetRowColumns = []string{
	"id", "pc_name", "employee_number", "username", "serial_number", "mac_address",
	"buyback_status", "date", "created_at", "updated_at", "status_log",
}

var fixedNow = time.Date(2025, time.November, 12, 9, 30, 0, 0, time.UTC)

func setupTestDB(t testing.TB) (*sql.DB, sqlmock.Sqlmock, AssetRepository) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)

	repo := NewAssetRepository(db)
	repo.(*assetRepository).now = func() time.Time { return fixedNow }
	return db, mock, repo
}

func sampleInput() model.AssetInput {
	return model.AssetInput{
		PCName:         "PC-001",
		EmployeeNumber: "E1001",
		Username:       "jdoe",
		SerialNumber:   "SN1",
		MACAddress:     "00:1A:2B:3C:4D:5E",
		BuybackStatus:  model.StatusPending,
		Date:           time.Date(2025, time.November, 12, 0, 0, 0, 0, time.UTC),
	}
}

func addAssetRow(rows *sqlmock.Rows, id uuid.UUID, in model.AssetInput, createdAt, updatedAt time.Time, entry string) *sqlmock.Rows {
	return rows.AddRow(id.String(), in.PCName, in.EmployeeNumber, in.Username, in.SerialNumber, in.MACAddress,
		string(in.BuybackStatus), in.Date, createdAt, updatedAt, entry)
}

func TestNewAssetRepository(t *testing.T) {
	db, _, _ := setupTestDB(t)
	defer db.Close()

	repo := NewAssetRepository(db)
	assert.NotNil(t, repo)
}

func TestListAssets_ActiveOnly(t *testing.T) {
	db, mock, repo := setupTestDB(t)
	defer db.Close()

	first, second := uuid.New(), uuid.New()
	rows := sqlmock.NewRows(assetRowColumns)
	addAssetRow(rows, first, sampleInput(), fixedNow, fixedNow, "Active")
	addAssetRow(rows, second, sampleInput(), fixedNow.Add(time.Minute), fixedNow.Add(time.Minute), "Active")

	mock.ExpectQuery(regexp.QuoteMeta(`FROM assets WHERE status_log = 'Active' ORDER BY created_at, id`)).
		WillReturnRows(rows)

	assets, err := repo.ListAssets(context.Background())

	require.NoError(t, err)
	require.Len(t, assets, 2)
	assert.Equal(t, first, assets[0].ID)
	assert.Equal(t, second, assets[1].ID)
	assert.Equal(t, model.StatusPending, assets[0].BuybackStatus)
	assert.Equal(t, model.EntryActive, assets[0].StatusLog)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListAssets_EmptyIsNotNil(t *testing.T) {
	db, mock, repo := setupTestDB(t)
	defer db.Close()

	mock.ExpectQuery(regexp.QuoteMeta(`FROM assets WHERE status_log = 'Active'`)).
		WillReturnRows(sqlmock.NewRows(assetRowColumns))

	assets, err := repo.ListAssets(context.Background())

	require.NoError(t, err)
	assert.NotNil(t, assets)
	assert.Empty(t, assets)
}

func TestListAllAssets_IncludesDeleted(t *testing.T) {
	db, mock, repo := setupTestDB(t)
	defer db.Close()

	rows := sqlmock.NewRows(assetRowColumns)
	addAssetRow(rows, uuid.New(), sampleInput(), fixedNow, fixedNow, "Active")
	addAssetRow(rows, uuid.New(), sampleInput(), fixedNow, fixedNow, "Deleted")

	mock.ExpectQuery(regexp.QuoteMeta(`FROM assets ORDER BY created_at, id`)).
		WillReturnRows(rows)

	assets, err := repo.ListAllAssets(context.Background())

	require.NoError(t, err)
	require.Len(t, assets, 2)
	assert.False(t, assets[0].Deleted())
	assert.True(t, assets[1].Deleted())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListAssets_QueryError(t *testing.T) {
	db, mock, repo := setupTestDB(t)
	defer db.Close()

	mock.ExpectQuery(regexp.QuoteMeta(`FROM assets`)).
		WillReturnError(errors.New("database error"))

	assets, err := repo.ListAssets(context.Background())

	assert.Error(t, err)
	assert.Nil(t, assets)
	assert.Contains(t, err.Error(), "failed to query assets")
}

func TestGetAsset_Success(t *testing.T) {
	db, mock, repo := setupTestDB(t)
	defer db.Close()

	id := uuid.New()
	in := sampleInput()
	in.Date = time.Date(2025, time.November, 12, 0, 0, 0, 0, time.FixedZone("db", 3600))
	rows := addAssetRow(sqlmock.NewRows(assetRowColumns), id, in, fixedNow, fixedNow, "Active")

	mock.ExpectQuery(regexp.QuoteMeta(`FROM assets WHERE id = $1 AND status_log = 'Active'`)).
		WithArgs(id).
		WillReturnRows(rows)

	asset, err := repo.GetAsset(context.Background(), id)

	require.NoError(t, err)
	assert.Equal(t, id, asset.ID)
	assert.Equal(t, "SN1", asset.SerialNumber)
	assert.Equal(t, time.Date(2025, time.November, 12, 0, 0, 0, 0, time.UTC), asset.Date)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetAsset_NotFound(t *testing.T) {
	db, mock, repo := setupTestDB(t)
	defer db.Close()

	id := uuid.New()
	mock.ExpectQuery(regexp.QuoteMeta(`FROM assets WHERE id = $1`)).
		WithArgs(id).
		WillReturnError(sql.ErrNoRows)

	asset, err := repo.GetAsset(context.Background(), id)

	assert.Nil(t, asset)
	assert.True(t, errors.Is(err, ErrAssetNotFound))
}

func TestCreateAsset_Success(t *testing.T) {
	db, mock, repo := setupTestDB(t)
	defer db.Close()

	in := sampleInput()
	id := uuid.New()
	rows := addAssetRow(sqlmock.NewRows(assetRowColumns), id, in, fixedNow, fixedNow, "Active")

	mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO assets`)).
		WithArgs(sqlmock.AnyArg(), in.PCName, in.EmployeeNumber, in.Username, in.SerialNumber,
			in.MACAddress, "Pending", "2025-11-12", fixedNow).
		WillReturnRows(rows)

	asset, err := repo.CreateAsset(context.Background(), in)

	require.NoError(t, err)
	assert.Equal(t, id, asset.ID)
	assert.Equal(t, fixedNow, asset.CreatedAt)
	assert.Equal(t, fixedNow, asset.UpdatedAt)
	assert.Equal(t, model.EntryActive, asset.StatusLog)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateAsset_RetriesIDCollision(t *testing.T) {
	db, mock, repo := setupTestDB(t)
	defer db.Close()

	in := sampleInput()
	id := uuid.New()

	mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO assets`)).
		WillReturnError(&pq.Error{Code: "23505", Constraint: "assets_pkey"})
	mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO assets`)).
		WillReturnRows(addAssetRow(sqlmock.NewRows(assetRowColumns), id, in, fixedNow, fixedNow, "Active"))

	asset, err := repo.CreateAsset(context.Background(), in)

	require.NoError(t, err)
	assert.Equal(t, id, asset.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateAsset_IDExhausted(t *testing.T) {
	db, mock, repo := setupTestDB(t)
	defer db.Close()

	for i := 0; i < createAttempts; i++ {
		mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO assets`)).
			WillReturnError(&pq.Error{Code: "23505"})
	}

	asset, err := repo.CreateAsset(context.Background(), sampleInput())

	assert.Nil(t, asset)
	assert.True(t, errors.Is(err, ErrIDExhausted))
}

func TestCreateAsset_DatabaseError(t *testing.T) {
	db, mock, repo := setupTestDB(t)
	defer db.Close()

	mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO assets`)).
		WillReturnError(errors.New("connection reset"))

	asset, err := repo.CreateAsset(context.Background(), sampleInput())

	assert.Nil(t, asset)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to create asset")
}

func TestUpdateAsset_Success(t *testing.T) {
	db, mock, repo := setupTestDB(t)
	defer db.Close()

	id := uuid.New()
	created := fixedNow.Add(-24 * time.Hour)
	in := sampleInput()
	in.BuybackStatus = model.StatusApproved

	mock.ExpectQuery(regexp.QuoteMeta(`UPDATE assets SET pc_name = $1`)).
		WithArgs(in.PCName, in.EmployeeNumber, in.Username, in.SerialNumber, in.MACAddress,
			"Approved", "2025-11-12", fixedNow, id).
		WillReturnRows(addAssetRow(sqlmock.NewRows(assetRowColumns), id, in, created, fixedNow, "Active"))

	asset, err := repo.UpdateAsset(context.Background(), id, in)

	require.NoError(t, err)
	assert.Equal(t, id, asset.ID)
	assert.Equal(t, created, asset.CreatedAt)
	assert.Equal(t, fixedNow, asset.UpdatedAt)
	assert.Equal(t, model.StatusApproved, asset.BuybackStatus)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateAsset_NotFound(t *testing.T) {
	db, mock, repo := setupTestDB(t)
	defer db.Close()

	mock.ExpectQuery(regexp.QuoteMeta(`UPDATE assets`)).
		WillReturnError(sql.ErrNoRows)

	asset, err := repo.UpdateAsset(context.Background(), uuid.New(), sampleInput())

	assert.Nil(t, asset)
	assert.True(t, errors.Is(err, ErrAssetNotFound))
}

func TestUpdateAssetStatus_Success(t *testing.T) {
	db, mock, repo := setupTestDB(t)
	defer db.Close()

	id := uuid.New()
	in := sampleInput()
	in.BuybackStatus = model.StatusCompleted

	mock.ExpectQuery(regexp.QuoteMeta(`UPDATE assets SET buyback_status = $1, updated_at = $2 WHERE id = $3 AND status_log = 'Active'`)).
		WithArgs("Completed", fixedNow, id).
		WillReturnRows(addAssetRow(sqlmock.NewRows(assetRowColumns), id, in, fixedNow, fixedNow, "Active"))

	asset, err := repo.UpdateAssetStatus(context.Background(), id, model.StatusCompleted)

	require.NoError(t, err)
	assert.Equal(t, model.StatusCompleted, asset.BuybackStatus)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateAssetStatus_NotFound(t *testing.T) {
	db, mock, repo := setupTestDB(t)
	defer db.Close()

	mock.ExpectQuery(regexp.QuoteMeta(`UPDATE assets SET buyback_status`)).
		WillReturnError(sql.ErrNoRows)

	_, err := repo.UpdateAssetStatus(context.Background(), uuid.New(), model.StatusCompleted)
	assert.True(t, errors.Is(err, ErrAssetNotFound))
}

func TestDeleteAsset_SoftDeletes(t *testing.T) {
	db, mock, repo := setupTestDB(t)
	defer db.Close()

	id := uuid.New()
	mock.ExpectExec(regexp.QuoteMeta(`UPDATE assets SET status_log = 'Deleted', updated_at = $1 WHERE id = $2 AND status_log = 'Active'`)).
		WithArgs(fixedNow, id).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.DeleteAsset(context.Background(), id)

	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDeleteAsset_NotFound(t *testing.T) {
	db, mock, repo := setupTestDB(t)
	defer db.Close()

	id := uuid.New()
	mock.ExpectExec(regexp.QuoteMeta(`UPDATE assets SET status_log = 'Deleted'`)).
		WithArgs(fixedNow, id).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.DeleteAsset(context.Background(), id)

	assert.True(t, errors.Is(err, ErrAssetNotFound))
}
