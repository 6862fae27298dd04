package analytics

import (
	"github.com/aristath/lcdash/internal/domain"
	"github.com/aristath/lcdash/internal/utils"
	"github.com/aristath/lcdash/pkg/formulas"
)

// Summarize computes the three headline metrics over all rows. Invalid
// values are skipped; a metric with no valid input reads domain.NoData.
func Summarize(rows []domain.LoanRecord) domain.SummaryMetrics {
	var rates, amounts, terms []float64
	for _, r := range rows {
		if r.InterestRate.Valid {
			rates = append(rates, r.InterestRate.Value)
		}
		if r.LoanAmount.Valid {
			amounts = append(amounts, r.LoanAmount.Value)
		}
		if r.TermMonths.Valid {
			terms = append(terms, r.TermMonths.Value)
		}
	}

	m := domain.SummaryMetrics{
		AvgInterestRate:  domain.NoData,
		MedianLoanAmount: domain.NoData,
		AvgTermYears:     domain.NoData,
	}
	if len(rates) > 0 {
		m.AvgInterestRate = utils.FormatDecimal(formulas.RoundHalfEven(formulas.Mean(rates), 2)) + " %"
	}
	if len(amounts) > 0 {
		m.MedianLoanAmount = utils.FormatCurrency(formulas.Median(amounts))
	}
	if len(terms) > 0 {
		years := formulas.Mean(terms) / 12
		m.AvgTermYears = utils.FormatDecimal(formulas.RoundHalfEven(years, 2)) + " years"
	}
	return m
}
