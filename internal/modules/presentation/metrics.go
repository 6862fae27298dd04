package presentation

import "github.com/aristath/lcdash/internal/domain"

// Tile is one headline metric.
type Tile struct {
	Label string `json:"label" msgpack:"label"`
	Value string `json:"value" msgpack:"value"`
}

// Metrics lays the summary out as tiles in display order.
func Metrics(m domain.SummaryMetrics) []Tile {
	return []Tile{
		{Label: "Avg Loan Rate", Value: m.AvgInterestRate},
		{Label: "Median Loan Size", Value: m.MedianLoanAmount},
		{Label: "Avg Loan Tenor", Value: m.AvgTermYears},
	}
}
