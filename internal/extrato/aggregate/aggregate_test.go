package aggregate

import (
	"encoding/json"
	"testing"

	"github.com/inkworks/atelier/internal/extrato/domain"
	"github.com/inkworks/atelier/internal/record"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func payment(artist, method, value string) record.FinancialRecord {
	return record.FinancialRecord{Value: dec(value), Artist: artist, Method: method}
}

func commission(artist, value string) record.FinancialRecord {
	return record.FinancialRecord{Value: dec(value), Artist: artist}
}

func expense(value string) record.FinancialRecord {
	return record.FinancialRecord{Value: dec(value)}
}

func TestComputeTotalsScenario(t *testing.T) {
	totals := ComputeTotals(
		[]record.FinancialRecord{
			payment("A", "pix", "1000"),
			payment("B", "dinheiro", "500"),
		},
		nil,
		[]record.FinancialRecord{commission("A", "500")},
		[]record.FinancialRecord{expense("200")},
		zap.NewNop(),
	)

	assert.True(t, totals.ReceitaTotal.Equal(dec("1500")))
	assert.True(t, totals.ComissoesTotal.Equal(dec("500")))
	assert.True(t, totals.DespesasTotal.Equal(dec("200")))
	assert.True(t, totals.ReceitaLiquida.Equal(dec("800")))

	// B has no commission rows: absent from por_artista, revenue counted.
	require.Len(t, totals.PorArtista, 1)
	assert.Equal(t, "A", totals.PorArtista[0].Artista)
	assert.True(t, totals.PorArtista[0].Receita.Equal(dec("1000")))
	assert.True(t, totals.PorArtista[0].Comissao.Equal(dec("500")))
}

func TestZeroCommissionExcludedFromBreakdown(t *testing.T) {
	totals := ComputeTotals(
		[]record.FinancialRecord{payment("C", "pix", "300")},
		nil,
		[]record.FinancialRecord{commission("C", "0")},
		nil,
		zap.NewNop(),
	)

	assert.Empty(t, totals.PorArtista)
	assert.True(t, totals.ReceitaTotal.Equal(dec("300")))
}

func TestNegativeCommissionTreatedAsNoCommission(t *testing.T) {
	totals := ComputeTotals(
		[]record.FinancialRecord{payment("D", "pix", "100")},
		nil,
		[]record.FinancialRecord{commission("D", "-10")},
		nil,
		zap.NewNop(),
	)

	assert.Empty(t, totals.PorArtista)
	// The raw value still flows into the commission total.
	assert.True(t, totals.ComissoesTotal.Equal(dec("-10")))
}

func TestNetRevenueMayBeNegative(t *testing.T) {
	totals := ComputeTotals(
		[]record.FinancialRecord{payment("A", "pix", "500")},
		nil,
		[]record.FinancialRecord{commission("A", "350")},
		[]record.FinancialRecord{expense("400")},
		zap.NewNop(),
	)
	assert.True(t, totals.ReceitaLiquida.Equal(dec("-250")))
}

func TestBreakdownByPaymentMethod(t *testing.T) {
	totals := ComputeTotals(
		[]record.FinancialRecord{
			payment("A", "pix", "100"),
			payment("A", "pix", "50"),
			payment("B", "cartao", "75.25"),
			payment("B", "", "10"),
		},
		nil, nil, nil,
		zap.NewNop(),
	)

	require.Len(t, totals.PorFormaPagamento, 3)
	assert.Equal(t, "cartao", totals.PorFormaPagamento[0].Forma)
	assert.True(t, totals.PorFormaPagamento[0].Total.Equal(dec("75.25")))
	assert.Equal(t, "nao_informado", totals.PorFormaPagamento[1].Forma)
	assert.Equal(t, "pix", totals.PorFormaPagamento[2].Forma)
	assert.True(t, totals.PorFormaPagamento[2].Total.Equal(dec("150")))
}

func TestCommissionWithoutPaymentStillListed(t *testing.T) {
	// Artist with a positive commission but no payment this month keeps
	// a breakdown entry with zero revenue.
	totals := ComputeTotals(
		nil, nil,
		[]record.FinancialRecord{commission("E", "80")},
		nil,
		zap.NewNop(),
	)
	require.Len(t, totals.PorArtista, 1)
	assert.True(t, totals.PorArtista[0].Receita.IsZero())
	assert.True(t, totals.PorArtista[0].Comissao.Equal(dec("80")))
}

func TestComputeTotalsDeterministic(t *testing.T) {
	payments := []record.FinancialRecord{
		payment("Zoe", "pix", "10.10"),
		payment("Ana", "cartao", "20.20"),
		payment("Bia", "pix", "30.30"),
	}
	commissions := []record.FinancialRecord{
		commission("Zoe", "1.01"),
		commission("Ana", "2.02"),
	}
	expenses := []record.FinancialRecord{expense("5.55")}

	first, err := json.Marshal(ComputeTotals(payments, nil, commissions, expenses, zap.NewNop()))
	require.NoError(t, err)
	for i := 0; i < 10; i++ {
		again, err := json.Marshal(ComputeTotals(payments, nil, commissions, expenses, zap.NewNop()))
		require.NoError(t, err)
		assert.Equal(t, string(first), string(again))
	}
}

func TestFromMonthData(t *testing.T) {
	data := domain.MonthData{
		Pagamentos: []domain.Pagamento{{Valor: dec("100"), Artista: "Ana", FormaPagamento: "pix"}},
		Sessoes:    []domain.Sessao{{Valor: dec("100"), Artista: "Ana"}},
		Comissoes:  []domain.Comissao{{Valor: dec("30"), Artista: "Ana", PagamentoID: 7}},
		Gastos:     []domain.Gasto{{Valor: dec("12"), FormaPagamento: "dinheiro"}},
	}

	payments, sessions, commissions, expenses := FromMonthData(data)
	require.Len(t, payments, 1)
	require.Len(t, sessions, 1)
	require.Len(t, commissions, 1)
	require.Len(t, expenses, 1)
	assert.Equal(t, int64(7), commissions[0].PaymentID)
	assert.Equal(t, "pix", payments[0].Method)
}
