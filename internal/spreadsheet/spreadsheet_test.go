package spreadsheet

import (
	"bytes"
	"encoding/json"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/nexconsult/fgts-api/internal/models"
)

func workbook(t *testing.T, rows [][]interface{}) *bytes.Buffer {
	t.Helper()

	f := excelize.NewFile()
	defer f.Close()

	sheet := f.GetSheetName(0)
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		row := row
		require.NoError(t, f.SetSheetRow(sheet, cell, &row))
	}

	buf, err := f.WriteToBuffer()
	require.NoError(t, err)
	return buf
}

// readResult parses a workbook produced by BuildResult back into items.
// Balances come back as their cell text.
func readResult(r io.Reader) ([]models.BatchItemResult, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	rows, err := f.GetRows(ResultSheet)
	if err != nil {
		return nil, err
	}

	items := make([]models.BatchItemResult, 0, len(rows))
	for i, row := range rows {
		if i == 0 {
			continue
		}
		item := models.BatchItemResult{
			DocumentNumber: column(row, 0),
			Provider:       column(row, 1),
			ErrorMessage:   column(row, 3),
		}
		if balance := column(row, 2); balance != "" {
			item.Balance = balance
		}
		items = append(items, item)
	}
	return items, nil
}

func column(row []string, idx int) string {
	if idx >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[idx])
}

func TestParseDocumentsSkipsHeaderAndBlanks(t *testing.T) {
	buf := workbook(t, [][]interface{}{
		{"documentNumber", "nome"},
		{" 11144477735 ", "Ana"},
		{"", "sem documento"},
		{"52998224725", "Bruno"},
	})

	docs, err := ParseDocuments(buf)
	require.NoError(t, err)
	assert.Equal(t, []string{"11144477735", "52998224725"}, docs)
}

func TestParseDocumentsHeaderOnly(t *testing.T) {
	docs, err := ParseDocuments(workbook(t, [][]interface{}{{"documentNumber"}}))
	require.NoError(t, err)
	assert.Empty(t, docs)
}

func TestParseDocumentsRejectsGarbage(t *testing.T) {
	_, err := ParseDocuments(bytes.NewReader([]byte("not a workbook")))
	assert.Error(t, err)
}

func TestBuildResultPreservesOrder(t *testing.T) {
	items := []models.BatchItemResult{
		{DocumentNumber: "c", Provider: "qi", Balance: json.Number("100.50")},
		{DocumentNumber: "a", Provider: "qi", ErrorMessage: models.NoResponseMessage},
		{DocumentNumber: "b", Provider: "qi", ErrorMessage: "CPF inválido"},
	}

	data, err := BuildResult(items)
	require.NoError(t, err)

	back, err := readResult(bytes.NewReader(data))
	require.NoError(t, err)
	require.Len(t, back, 3)

	assert.Equal(t, "c", back[0].DocumentNumber)
	assert.Equal(t, "100.50", back[0].Balance)
	assert.Empty(t, back[0].ErrorMessage)

	assert.Equal(t, "a", back[1].DocumentNumber)
	assert.Nil(t, back[1].Balance)
	assert.Equal(t, models.NoResponseMessage, back[1].ErrorMessage)

	assert.Equal(t, "b", back[2].DocumentNumber)
	assert.Equal(t, "CPF inválido", back[2].ErrorMessage)
}

func TestBuildResultEmpty(t *testing.T) {
	data, err := BuildResult(nil)
	require.NoError(t, err)

	back, err := readResult(bytes.NewReader(data))
	require.NoError(t, err)
	assert.Empty(t, back)
}
