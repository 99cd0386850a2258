// Package record defines the typed boundary for financial aggregation
// input. Rows arrive from live tables and from deserialized historical
// statements alike; both are converted here, once, so the aggregation
// engine never sees loosely-typed data.
package record

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// FinancialRecord is a single monetary fact inside a month: a payment,
// a session, a commission or an expense.
type FinancialRecord struct {
	Value  decimal.Decimal
	Artist string
	Method string

	// PaymentID links a commission back to its owning payment. Zero for
	// every other record kind.
	PaymentID int64
}

// FromMap builds a FinancialRecord from a loosely-typed row, as found in
// the serialized collections of a stored statement.
func FromMap(m map[string]any) (FinancialRecord, error) {
	raw, ok := m["valor"]
	if !ok || raw == nil {
		return FinancialRecord{}, fmt.Errorf("record missing valor")
	}
	value, err := parseValue(raw)
	if err != nil {
		return FinancialRecord{}, err
	}

	rec := FinancialRecord{
		Value:  value,
		Artist: stringField(m, "artista"),
		Method: stringField(m, "forma_pagamento"),
	}
	if id, ok := intField(m, "pagamento_id"); ok {
		rec.PaymentID = id
	}
	return rec, nil
}

// FromMaps converts a slice of loosely-typed rows, degrading malformed
// entries to zero-contribution with a warning. Dirty historical data must
// never block an entire month.
func FromMaps(rows []map[string]any, log *zap.Logger) []FinancialRecord {
	records := make([]FinancialRecord, 0, len(rows))
	for i, row := range rows {
		rec, err := FromMap(row)
		if err != nil {
			if log != nil {
				log.Warn("malformed financial record treated as zero",
					zap.Int("index", i),
					zap.Error(err),
				)
			}
			rec = FinancialRecord{
				Artist: stringField(row, "artista"),
				Method: stringField(row, "forma_pagamento"),
			}
		}
		records = append(records, rec)
	}
	return records
}

func parseValue(raw any) (decimal.Decimal, error) {
	switch v := raw.(type) {
	case string:
		value, err := decimal.NewFromString(strings.TrimSpace(v))
		if err != nil {
			return decimal.Decimal{}, fmt.Errorf("invalid valor %q: %w", v, err)
		}
		return value, nil
	case json.Number:
		value, err := decimal.NewFromString(v.String())
		if err != nil {
			return decimal.Decimal{}, fmt.Errorf("invalid valor %q: %w", v, err)
		}
		return value, nil
	case float64:
		return decimal.NewFromFloat(v), nil
	case int64:
		return decimal.NewFromInt(v), nil
	case int:
		return decimal.NewFromInt(int64(v)), nil
	case decimal.Decimal:
		return v, nil
	default:
		return decimal.Decimal{}, fmt.Errorf("unsupported valor type %T", raw)
	}
}

func stringField(m map[string]any, key string) string {
	if m == nil {
		return ""
	}
	if v, ok := m[key].(string); ok {
		return strings.TrimSpace(v)
	}
	return ""
}

func intField(m map[string]any, key string) (int64, bool) {
	switch v := m[key].(type) {
	case int64:
		return v, true
	case int:
		return int64(v), true
	case float64:
		return int64(v), true
	case json.Number:
		id, err := v.Int64()
		if err != nil {
			return 0, false
		}
		return id, true
	default:
		return 0, false
	}
}
