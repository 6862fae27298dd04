package utils

import (
	"math"
	"strconv"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/shopspring/decimal"
)

// FormatCurrency renders an amount in whole dollars with thousands
// separators, rounding half to even: 12345.6 -> "$12,346".
func FormatCurrency(v float64) string {
	whole := decimal.NewFromFloat(v).RoundBank(0)
	return "$" + humanize.Comma(whole.IntPart())
}

// FormatDecimal renders a float the way a report reader expects to see a
// measured value: shortest form, but always with a fractional part, so 3
// renders as "3.0" and 10.5 as "10.5".
func FormatDecimal(v float64) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return strconv.FormatFloat(v, 'f', -1, 64)
	}
	s := strconv.FormatFloat(v, 'f', -1, 64)
	if !strings.Contains(s, ".") {
		s += ".0"
	}
	return s
}
