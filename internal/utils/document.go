package utils

import (
	"encoding/json"
	"fmt"
	"path/filepath"
	"strconv"
	"strings"
)

// NormalizeDocument turns a document number received from a client, the
// provider or a spreadsheet cell into its trimmed string form. Numbers keep
// their exact textual representation.
func NormalizeDocument(value interface{}) string {
	switch v := value.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(v)
	case json.Number:
		return strings.TrimSpace(v.String())
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case int:
		return strconv.Itoa(v)
	case int64:
		return strconv.FormatInt(v, 10)
	default:
		return strings.TrimSpace(fmt.Sprint(v))
	}
}

// IsBlankBalance reports whether a provider balance should be treated as absent
func IsBlankBalance(value interface{}) bool {
	switch v := value.(type) {
	case nil:
		return true
	case string:
		return strings.TrimSpace(v) == ""
	case json.Number:
		return v.String() == ""
	}
	return false
}

// ResultFileName derives the download name of a batch result from the
// uploaded file name: "clientes.xlsx" becomes "clientes_resultado.xlsx".
func ResultFileName(original string) string {
	base := filepath.Base(strings.TrimSpace(original))
	base = strings.TrimSuffix(base, filepath.Ext(base))
	if base == "" || base == "." || base == string(filepath.Separator) {
		base = "lote"
	}
	return base + "_resultado.xlsx"
}
