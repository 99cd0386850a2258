// Package aggregate reduces one month of financial records into the
// statement totals. Pure and deterministic: identical input always
// yields identical totals, which is what lets stored totals be verified
// against the stored collections at any later time.
package aggregate

import (
	"sort"

	"github.com/inkworks/atelier/internal/extrato/domain"
	"github.com/inkworks/atelier/internal/record"
	"go.uber.org/zap"
)

// ComputeTotals derives the monetary summary of a month.
//
// Every payment counts toward gross revenue, no matter whose it is. The
// per-artist breakdown is narrower: an artist appears there only with at
// least one strictly positive commission record. Zero-percent artists
// therefore contribute revenue but are absent from por_artista.
//
// Sessions ride along for completeness of the statement but carry no
// monetary weight; revenue is recognized from payments.
func ComputeTotals(payments, sessions, commissions, expenses []record.FinancialRecord, log *zap.Logger) domain.Totals {
	_ = sessions

	totals := domain.Totals{}

	for _, p := range payments {
		totals.ReceitaTotal = totals.ReceitaTotal.Add(p.Value)
	}
	for _, c := range commissions {
		totals.ComissoesTotal = totals.ComissoesTotal.Add(c.Value)
	}
	for _, g := range expenses {
		totals.DespesasTotal = totals.DespesasTotal.Add(g.Value)
	}
	// Negative net revenue is a valid reportable state, not an error.
	totals.ReceitaLiquida = totals.ReceitaTotal.
		Sub(totals.ComissoesTotal).
		Sub(totals.DespesasTotal)

	totals.PorFormaPagamento = byMethod(payments)
	totals.PorArtista = byArtist(payments, commissions, log)

	return totals
}

func byMethod(payments []record.FinancialRecord) []domain.MethodTotal {
	sums := map[string]*domain.MethodTotal{}
	for _, p := range payments {
		method := p.Method
		if method == "" {
			method = "nao_informado"
		}
		entry, ok := sums[method]
		if !ok {
			entry = &domain.MethodTotal{Forma: method}
			sums[method] = entry
		}
		entry.Total = entry.Total.Add(p.Value)
	}

	out := make([]domain.MethodTotal, 0, len(sums))
	for _, entry := range sums {
		out = append(out, *entry)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Forma < out[j].Forma })
	return out
}

func byArtist(payments, commissions []record.FinancialRecord, log *zap.Logger) []domain.ArtistTotal {
	revenue := map[string]*domain.ArtistTotal{}
	for _, p := range payments {
		if p.Artist == "" {
			continue
		}
		entry, ok := revenue[p.Artist]
		if !ok {
			entry = &domain.ArtistTotal{Artista: p.Artist}
			revenue[p.Artist] = entry
		}
		entry.Receita = entry.Receita.Add(p.Value)
	}

	// Only strictly positive commission records earn a breakdown entry.
	// Non-positive values are ignored here (they still count in the
	// commission total above).
	eligible := map[string]bool{}
	for _, c := range commissions {
		if c.Artist == "" {
			continue
		}
		if !c.Value.IsPositive() {
			if log != nil && c.Value.IsNegative() {
				log.Warn("negative commission treated as no commission",
					zap.String("artista", c.Artist),
					zap.String("valor", c.Value.String()),
				)
			}
			continue
		}
		eligible[c.Artist] = true
		entry, ok := revenue[c.Artist]
		if !ok {
			entry = &domain.ArtistTotal{Artista: c.Artist}
			revenue[c.Artist] = entry
		}
		entry.Comissao = entry.Comissao.Add(c.Value)
	}

	out := make([]domain.ArtistTotal, 0, len(eligible))
	for artist := range eligible {
		out = append(out, *revenue[artist])
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Artista < out[j].Artista })
	return out
}

// FromMonthData converts typed source rows into aggregation records.
func FromMonthData(data domain.MonthData) (payments, sessions, commissions, expenses []record.FinancialRecord) {
	payments = make([]record.FinancialRecord, 0, len(data.Pagamentos))
	for _, p := range data.Pagamentos {
		payments = append(payments, record.FinancialRecord{
			Value:  p.Valor,
			Artist: p.Artista,
			Method: p.FormaPagamento,
		})
	}
	sessions = make([]record.FinancialRecord, 0, len(data.Sessoes))
	for _, s := range data.Sessoes {
		sessions = append(sessions, record.FinancialRecord{
			Value:  s.Valor,
			Artist: s.Artista,
		})
	}
	commissions = make([]record.FinancialRecord, 0, len(data.Comissoes))
	for _, c := range data.Comissoes {
		commissions = append(commissions, record.FinancialRecord{
			Value:     c.Valor,
			Artist:    c.Artista,
			PaymentID: c.PagamentoID,
		})
	}
	expenses = make([]record.FinancialRecord, 0, len(data.Gastos))
	for _, g := range data.Gastos {
		expenses = append(expenses, record.FinancialRecord{
			Value:  g.Valor,
			Method: g.FormaPagamento,
		})
	}
	return payments, sessions, commissions, expenses
}
