package inventory

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/360EntSecGroup-Skylar/excelize"

	pkgerrors "github.com/voltaria/voltaria-backend/pkg/errors"
)

// maxExportRows caps a single export file.
const maxExportRows = 50000

// ExportUnits writes the filtered units to w as an XLSX workbook and returns
// the number of exported rows.
func (s *service) ExportUnits(ctx context.Context, w io.Writer, filter ListFilter) (int, error) {
	units, err := s.repo.ListAll(ctx, filter, maxExportRows)
	if err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading units for export")
	}

	file := excelize.NewFile()
	sheet := "Sheet1"

	headers := []string{"Serial Number", "Model Number", "Product ID", "Status", "Stock Channel", "Manufacturing Date", "Created At"}
	for col, header := range headers {
		file.SetCellValue(sheet, cellRef(col, 0), header)
	}
	for i, unit := range units {
		manufacturingDate := ""
		if unit.ManufacturingDate != nil {
			manufacturingDate = unit.ManufacturingDate.Format("2006-01-02")
		}
		values := []string{
			unit.SerialNumber,
			unit.ModelNumber,
			unit.ProductID.String(),
			string(unit.Status),
			string(unit.StockChannel),
			manufacturingDate,
			unit.CreatedAt.UTC().Format(time.RFC3339),
		}
		for col, value := range values {
			file.SetCellValue(sheet, cellRef(col, i+1), value)
		}
	}

	if _, err := file.WriteTo(w); err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "writing xlsx export")
	}
	return len(units), nil
}

func cellRef(col, row int) string {
	return excelize.ToAlphaString(col) + fmt.Sprint(row+1)
}
