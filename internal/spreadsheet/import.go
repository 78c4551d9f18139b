package spreadsheet

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"asset-buyback-api/internal/model"
	"asset-buyback-api/internal/repository"
	"asset-buyback-api/pkg/datetime"
	"asset-buyback-api/pkg/validation"
)

// ErrUnreadableWorkbook is returned when the upload is not an .xlsx file.
var ErrUnreadableWorkbook = errors.New("unreadable workbook")

// requiredColumns must be present in the header row. ID, Status and the
// timestamp columns are optional.
var requiredColumns = []string{
	ColPCName, ColEmployeeNumber, ColUsername, ColSerialNumber, ColMACAddress,
	ColBuybackStatus, ColDate,
}

// MissingColumnsError rejects a workbook whose header lacks required columns.
type MissingColumnsError struct {
	Columns []string
}

func (e *MissingColumnsError) Error() string {
	return "missing required columns: " + strings.Join(e.Columns, ", ")
}

// RowError is a failure confined to one sheet row.
type RowError struct {
	Row int
	Err error
}

func (e RowError) Error() string {
	return fmt.Sprintf("Row %d: %v", e.Row, e.Err)
}

func (e RowError) Unwrap() error { return e.Err }

// ImportResult summarises a batch. Errors is in row order.
type ImportResult struct {
	Success   int        `json:"success"`
	Failed    int        `json:"failed"`
	Errors    []string   `json:"errors"`
	RowErrors []RowError `json:"-"`
}

func (r *ImportResult) fail(row int, err error) {
	rowErr := RowError{Row: row, Err: err}
	r.Failed++
	r.RowErrors = append(r.RowErrors, rowErr)
	r.Errors = append(r.Errors, rowErr.Error())
}

// Store is the part of the record store the reconciler writes through.
type Store interface {
	ListAllAssets(ctx context.Context) ([]model.Asset, error)
	CreateAsset(ctx context.Context, in model.AssetInput) (*model.Asset, error)
	UpdateAsset(ctx context.Context, id uuid.UUID, in model.AssetInput) (*model.Asset, error)
}

// Reconciler imports workbooks row by row. A failing row is recorded and
// the batch continues; nothing is rolled back.
type Reconciler struct {
	store  Store
	logger *zap.Logger
}

func NewReconciler(store Store, logger *zap.Logger) *Reconciler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Reconciler{store: store, logger: logger.Named("spreadsheet")}
}

// parsedRow is a row that passed parsing and validation.
type parsedRow struct {
	id    uuid.UUID
	entry model.EntryStatus
	input model.AssetInput
}

type header map[string]int

// cell returns the value under column as written. Asset fields are stored
// verbatim, so surrounding whitespace survives a round trip.
func (h header) cell(cells []string, column string) string {
	i, ok := h[column]
	if !ok || i >= len(cells) {
		return ""
	}
	return cells[i]
}

// key returns the trimmed value of a column that identifies the row rather
// than holding asset data.
func (h header) key(cells []string, column string) string {
	return strings.TrimSpace(h.cell(cells, column))
}

// Import reads the first sheet of src. Rows with an ID update that asset,
// rows without one create a new asset. Rows marked Deleted are audit history:
// they count as success when the ID is already deleted and are never written.
// Only unreadable input and header problems are returned as an error.
func (r *Reconciler) Import(ctx context.Context, src io.Reader) (*ImportResult, error) {
	file, err := excelize.OpenReader(src)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnreadableWorkbook, err)
	}
	defer file.Close()

	sheets := file.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("%w: workbook has no sheets", ErrUnreadableWorkbook)
	}

	rows, err := file.GetRows(sheets[0], excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnreadableWorkbook, err)
	}

	h, err := readHeader(rows)
	if err != nil {
		return nil, err
	}

	result := &ImportResult{Errors: []string{}}
	var deleted map[uuid.UUID]bool

	for i, cells := range rows[1:] {
		if err := ctx.Err(); err != nil {
			return result, err
		}

		line := i + 2
		if blank(cells) {
			continue
		}

		row, err := parseRow(h, cells)
		if err != nil {
			result.fail(line, err)
			continue
		}

		if row.entry == model.EntryDeleted {
			if deleted == nil {
				if deleted, err = r.deletedIDs(ctx); err != nil {
					result.fail(line, err)
					continue
				}
			}
			if !deleted[row.id] {
				result.fail(line, fmt.Errorf("asset %s is marked Deleted but is not a deleted record", row.id))
				continue
			}
			result.Success++
			continue
		}

		if err := r.apply(ctx, row); err != nil {
			result.fail(line, err)
			continue
		}
		result.Success++
	}

	r.logger.Info("spreadsheet import finished",
		zap.Int("success", result.Success),
		zap.Int("failed", result.Failed))

	return result, nil
}

func (r *Reconciler) apply(ctx context.Context, row parsedRow) error {
	if row.id == uuid.Nil {
		if _, err := r.store.CreateAsset(ctx, row.input); err != nil {
			return fmt.Errorf("failed to create asset: %w", err)
		}
		return nil
	}

	if _, err := r.store.UpdateAsset(ctx, row.id, row.input); err != nil {
		if errors.Is(err, repository.ErrAssetNotFound) {
			return fmt.Errorf("asset %s not found", row.id)
		}
		return fmt.Errorf("failed to update asset %s: %w", row.id, err)
	}
	return nil
}

func (r *Reconciler) deletedIDs(ctx context.Context) (map[uuid.UUID]bool, error) {
	all, err := r.store.ListAllAssets(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load audit records: %w", err)
	}
	ids := make(map[uuid.UUID]bool)
	for _, a := range all {
		if a.Deleted() {
			ids[a.ID] = true
		}
	}
	return ids, nil
}

func readHeader(rows [][]string) (header, error) {
	h := make(header)
	if len(rows) > 0 {
		for i, name := range rows[0] {
			name = strings.TrimSpace(name)
			if _, dup := h[name]; name != "" && !dup {
				h[name] = i
			}
		}
	}

	var missing []string
	for _, col := range requiredColumns {
		if _, ok := h[col]; !ok {
			missing = append(missing, col)
		}
	}
	if len(missing) > 0 {
		return nil, &MissingColumnsError{Columns: missing}
	}
	return h, nil
}

func blank(cells []string) bool {
	for _, c := range cells {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

// parseRow turns raw cells into a validated row or an error naming the problem.
func parseRow(h header, cells []string) (parsedRow, error) {
	row := parsedRow{entry: model.EntryActive}

	if raw := h.key(cells, ColID); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			return row, fmt.Errorf("invalid ID %q", raw)
		}
		row.id = id
	}

	switch status := h.key(cells, ColStatus); model.EntryStatus(status) {
	case "", model.EntryActive:
	case model.EntryDeleted:
		if row.id == uuid.Nil {
			return row, fmt.Errorf("deleted entry has no ID")
		}
		row.entry = model.EntryDeleted
		return row, nil
	default:
		return row, fmt.Errorf("invalid Status %q (expected Active or Deleted)", status)
	}

	input, err := validation.ValidateAssetRequest(model.AssetRequest{
		PCName:         h.cell(cells, ColPCName),
		EmployeeNumber: h.cell(cells, ColEmployeeNumber),
		Username:       h.cell(cells, ColUsername),
		SerialNumber:   h.cell(cells, ColSerialNumber),
		MACAddress:     h.cell(cells, ColMACAddress),
		BuybackStatus:  h.cell(cells, ColBuybackStatus),
		Date:           dateCell(h.cell(cells, ColDate)),
	})
	if err != nil {
		return row, err
	}
	row.input = input
	return row, nil
}

// dateCell converts an Excel serial date to ISO form. Anything else is passed
// through for validation.ValidateDate.
func dateCell(raw string) string {
	serial, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil {
		return raw
	}
	t, err := excelize.ExcelDateToTime(serial, false)
	if err != nil {
		return raw
	}
	return datetime.ISODate(t)
}
