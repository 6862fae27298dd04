package analytics

import (
	"math"

	"github.com/aristath/lcdash/internal/domain"
	"github.com/aristath/lcdash/pkg/formulas"
)

type riskGroup struct {
	atRisk   float64
	minTotal float64
}

// RiskByGrade returns, per region and grade, the principal held by at-risk
// loans as a percentage of that region and grade's total principal.
//
// The total is attached to each at-risk row before grouping and the group
// keeps the smallest total it saw. All rows of a group share one total, so
// this is the group total itself. A zero total yields 0% with ZeroTotal set.
func RiskByGrade(rows []domain.LoanRecord) []domain.RiskRow {
	all := totals(rows)

	groups := make(map[groupKey]*riskGroup)
	for _, r := range rows {
		if !domain.IsAtRisk(r.LoanStatus) {
			continue
		}
		k, ok := keyOf(r)
		if !ok {
			continue
		}
		g, exists := groups[k]
		if !exists {
			g = &riskGroup{minTotal: math.Inf(1)}
			groups[k] = g
		}
		if r.OutPrincipal.Valid {
			g.atRisk += r.OutPrincipal.Value
		}
		g.minTotal = math.Min(g.minTotal, all[k])
	}
	if len(groups) == 0 {
		return nil
	}

	out := make([]domain.RiskRow, 0, len(groups))
	for _, k := range sortedKeys(groups) {
		g := groups[k]
		out = append(out, domain.RiskRow{
			Region:           k.region,
			Grade:            k.grade,
			PrincipalAtRisk:  g.atRisk,
			RegionGradeTotal: g.minTotal,
			PercentAtRisk:    formulas.Percent(g.atRisk, g.minTotal),
			ZeroTotal:        g.minTotal == 0,
		})
	}
	return out
}
