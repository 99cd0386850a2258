package record

import (
	"encoding/json"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestFromMapParsesStringValue(t *testing.T) {
	rec, err := FromMap(map[string]any{
		"valor":           "150.50",
		"artista":         "Ana",
		"forma_pagamento": "pix",
	})
	require.NoError(t, err)
	assert.True(t, rec.Value.Equal(decimal.RequireFromString("150.50")))
	assert.Equal(t, "Ana", rec.Artist)
	assert.Equal(t, "pix", rec.Method)
}

func TestFromMapParsesNumericTypes(t *testing.T) {
	for name, raw := range map[string]any{
		"float":       float64(99.9),
		"int":         int(100),
		"json.Number": json.Number("42.75"),
	} {
		t.Run(name, func(t *testing.T) {
			rec, err := FromMap(map[string]any{"valor": raw})
			require.NoError(t, err)
			assert.True(t, rec.Value.IsPositive())
		})
	}
}

func TestFromMapCommissionLinkage(t *testing.T) {
	rec, err := FromMap(map[string]any{
		"valor":        "50",
		"artista":      "Bia",
		"pagamento_id": json.Number("77"),
	})
	require.NoError(t, err)
	assert.Equal(t, int64(77), rec.PaymentID)
}

func TestFromMapMissingValue(t *testing.T) {
	_, err := FromMap(map[string]any{"artista": "Ana"})
	assert.Error(t, err)
}

func TestFromMapsDegradesMalformedToZero(t *testing.T) {
	records := FromMaps([]map[string]any{
		{"valor": "100", "artista": "Ana"},
		{"artista": "Bia"},            // missing valor
		{"valor": "abc", "artista": "Caio"}, // unparseable
	}, zap.NewNop())

	require.Len(t, records, 3)
	assert.True(t, records[0].Value.Equal(decimal.NewFromInt(100)))
	assert.True(t, records[1].Value.IsZero())
	assert.Equal(t, "Bia", records[1].Artist)
	assert.True(t, records[2].Value.IsZero())
	assert.Equal(t, "Caio", records[2].Artist)
}
