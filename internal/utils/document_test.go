package utils

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeDocument(t *testing.T) {
	tests := []struct {
		name  string
		input interface{}
		want  string
	}{
		{"nil", nil, ""},
		{"padded string", "  12345678909 \n", "12345678909"},
		{"json number", json.Number("12345678909"), "12345678909"},
		{"float without exponent", float64(12345678909), "12345678909"},
		{"int", 42, "42"},
		{"bool falls back to fmt", true, "true"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, NormalizeDocument(tt.input))
		})
	}
}

func TestIsBlankBalance(t *testing.T) {
	assert.True(t, IsBlankBalance(nil))
	assert.True(t, IsBlankBalance("  "))
	assert.False(t, IsBlankBalance("0"))
	assert.False(t, IsBlankBalance(json.Number("100.50")))
	assert.False(t, IsBlankBalance(float64(0)))
}

func TestResultFileName(t *testing.T) {
	assert.Equal(t, "clientes_resultado.xlsx", ResultFileName("clientes.xlsx"))
	assert.Equal(t, "lote.marco_resultado.xlsx", ResultFileName("lote.marco.xls"))
	assert.Equal(t, "lote_resultado.xlsx", ResultFileName(""))
}
