// Package spreadsheet reads document numbers from uploaded workbooks and
// writes batch result workbooks.
package spreadsheet

import (
	"errors"
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"github.com/nexconsult/fgts-api/internal/models"
	"github.com/nexconsult/fgts-api/internal/utils"
)

// ContentType is the MIME type of generated workbooks
const ContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// ResultSheet is the sheet name used in result workbooks
const ResultSheet = "Resultados"

// ErrNoSheets is returned when a workbook contains no worksheet
var ErrNoSheets = errors.New("workbook has no sheets")

var resultHeader = []interface{}{"documentNumber", "provider", "balance", "errorMessage"}

// ParseDocuments returns the document numbers in the first column of the
// first sheet, skipping the header row and blank cells, in file order.
func ParseDocuments(r io.Reader) ([]string, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, ErrNoSheets
	}

	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("read rows: %w", err)
	}

	documents := make([]string, 0, len(rows))
	for i, row := range rows {
		if i == 0 || len(row) == 0 {
			continue
		}
		if doc := utils.NormalizeDocument(row[0]); doc != "" {
			documents = append(documents, doc)
		}
	}

	return documents, nil
}

// BuildResult writes one row per item, in order, under a fixed header
func BuildResult(items []models.BatchItemResult) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), ResultSheet); err != nil {
		return nil, fmt.Errorf("rename sheet: %w", err)
	}
	if err := f.SetSheetRow(ResultSheet, "A1", &resultHeader); err != nil {
		return nil, fmt.Errorf("write header: %w", err)
	}

	for i, item := range items {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return nil, err
		}
		row := []interface{}{item.DocumentNumber, item.Provider, balanceCell(item.Balance), item.ErrorMessage}
		if err := f.SetSheetRow(ResultSheet, cell, &row); err != nil {
			return nil, fmt.Errorf("write row %d: %w", i+2, err)
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("serialize workbook: %w", err)
	}
	return buf.Bytes(), nil
}

func balanceCell(balance interface{}) interface{} {
	if balance == nil {
		return ""
	}
	if s, ok := balance.(fmt.Stringer); ok {
		return s.String()
	}
	return balance
}
