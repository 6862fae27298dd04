// Package analytics aggregates dashboard query rows into chart series and
// headline metrics. Every function is pure and safe to call on empty input.
package analytics

import (
	"sort"

	"github.com/aristath/lcdash/internal/domain"
)

// Result bundles everything one render cycle derives from its rows.
type Result struct {
	Principal []domain.AggregateRow `json:"principal" msgpack:"principal"`
	Risk      []domain.RiskRow      `json:"risk" msgpack:"risk"`
	Metrics   domain.SummaryMetrics `json:"metrics" msgpack:"metrics"`
}

// Compute runs all three aggregations over rows.
func Compute(rows []domain.LoanRecord) Result {
	return Result{
		Principal: PrincipalByGrade(rows),
		Risk:      RiskByGrade(rows),
		Metrics:   Summarize(rows),
	}
}

type groupKey struct {
	region string
	grade  string
}

func keyOf(r domain.LoanRecord) (groupKey, bool) {
	// Rows without a grade cannot be placed on a grade axis.
	if r.Grade == "" {
		return groupKey{}, false
	}
	return groupKey{region: r.Region, grade: r.Grade}, true
}

func sortedKeys[V any](m map[groupKey]V) []groupKey {
	keys := make([]groupKey, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].region != keys[j].region {
			return keys[i].region < keys[j].region
		}
		return keys[i].grade < keys[j].grade
	})
	return keys
}

// totals sums valid outstanding principal per region and grade.
// A group exists once any row falls into it, even if none of its
// principal values are valid.
func totals(rows []domain.LoanRecord) map[groupKey]float64 {
	out := make(map[groupKey]float64)
	for _, r := range rows {
		k, ok := keyOf(r)
		if !ok {
			continue
		}
		sum := out[k]
		if r.OutPrincipal.Valid {
			sum += r.OutPrincipal.Value
		}
		out[k] = sum
	}
	return out
}

// PrincipalByGrade returns outstanding principal in millions per region and
// grade, sorted by region then grade. Empty input returns nil.
func PrincipalByGrade(rows []domain.LoanRecord) []domain.AggregateRow {
	sums := totals(rows)
	if len(sums) == 0 {
		return nil
	}

	out := make([]domain.AggregateRow, 0, len(sums))
	for _, k := range sortedKeys(sums) {
		out = append(out, domain.AggregateRow{
			Region:            k.region,
			Grade:             k.grade,
			PrincipalMillions: sums[k] / 1_000_000,
		})
	}
	return out
}
