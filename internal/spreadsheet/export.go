// Package spreadsheet maps asset records to and from .xlsx workbooks.
package spreadsheet

import (
	"fmt"
	"time"

	"github.com/xuri/excelize/v2"

	"asset-buyback-api/internal/model"
	"asset-buyback-api/pkg/datetime"
)

// SheetName is the worksheet written by Export.
const SheetName = "Assets"

// Column headers, shared by export and import.
const (
	ColID             = "ID"
	ColPCName         = "PC Name"
	ColEmployeeNumber = "Employee Number"
	ColUsername       = "Username"
	ColSerialNumber   = "Serial Number"
	ColMACAddress     = "MAC Address"
	ColBuybackStatus  = "Buyback Status"
	ColDate           = "Date"
	ColCreatedAt      = "Created At"
	ColUpdatedAt      = "Updated At"
	ColStatus         = "Status"
)

// Columns lists the export header in order.
var Columns = []string{
	ColID, ColPCName, ColEmployeeNumber, ColUsername, ColSerialNumber, ColMACAddress,
	ColBuybackStatus, ColDate, ColCreatedAt, ColUpdatedAt, ColStatus,
}

var columnWidths = []float64{36, 20, 15, 15, 20, 20, 15, 20, 20, 20, 10}

// ExportOptions controls how timestamps are rendered.
type ExportOptions struct {
	// Location for Created At and Updated At. Nil means time.Local.
	Location *time.Location
}

// Filename returns the attachment name for an export made on day.
func Filename(day time.Time) string {
	return fmt.Sprintf("assets-%s.xlsx", day.Format("2006-01-02"))
}

// Row renders one asset in column order.
func Row(a model.Asset, loc *time.Location) []string {
	return []string{
		a.ID.String(),
		a.PCName,
		a.EmployeeNumber,
		a.Username,
		a.SerialNumber,
		a.MACAddress,
		string(a.BuybackStatus),
		datetime.FormatDate(a.Date),
		datetime.FormatTimestamp(a.CreatedAt, loc),
		datetime.FormatTimestamp(a.UpdatedAt, loc),
		string(a.StatusLog),
	}
}

// Export builds a workbook with one row per asset, deleted entries included.
// Deleted rows are printed in red for audit review.
func Export(assets []model.Asset, opts ExportOptions) (*excelize.File, error) {
	file := excelize.NewFile()
	if err := fill(file, assets, opts); err != nil {
		file.Close()
		return nil, err
	}
	return file, nil
}

func fill(file *excelize.File, assets []model.Asset, opts ExportOptions) error {
	if err := file.SetSheetName("Sheet1", SheetName); err != nil {
		return err
	}

	for i, width := range columnWidths {
		col, err := excelize.ColumnNumberToName(i + 1)
		if err != nil {
			return err
		}
		if err := file.SetColWidth(SheetName, col, col, width); err != nil {
			return err
		}
	}

	headerStyle, err := file.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
	})
	if err != nil {
		return err
	}
	deletedStyle, err := file.NewStyle(&excelize.Style{
		Font: &excelize.Font{Color: "#FF0000"},
	})
	if err != nil {
		return err
	}

	if err := setRow(file, 1, Columns); err != nil {
		return err
	}
	lastCol, err := excelize.ColumnNumberToName(len(Columns))
	if err != nil {
		return err
	}
	if err := file.SetCellStyle(SheetName, "A1", lastCol+"1", headerStyle); err != nil {
		return err
	}

	for i, a := range assets {
		line := i + 2
		if err := setRow(file, line, Row(a, opts.Location)); err != nil {
			return err
		}
		if a.Deleted() {
			if err := file.SetRowStyle(SheetName, line, line, deletedStyle); err != nil {
				return err
			}
		}
	}

	return nil
}

func setRow(file *excelize.File, line int, values []string) error {
	cell, err := excelize.CoordinatesToCellName(1, line)
	if err != nil {
		return err
	}
	row := make([]interface{}, len(values))
	for i, v := range values {
		row[i] = v
	}
	return file.SetSheetRow(SheetName, cell, &row)
}
