package domain

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Number is a nullable numeric cell. Raw keeps the text the warehouse returned
// so that values which fail coercion can still be displayed as-is.
type Number struct {
	Value float64 `json:"value"`
	Valid bool    `json:"valid"`
	Raw   string  `json:"raw"`
}

// Num builds a valid Number from a float.
func Num(v float64) Number {
	return Number{Value: v, Valid: true, Raw: strconv.FormatFloat(v, 'f', -1, 64)}
}

// ParseNumber coerces a driver value into a Number.
// nil and NaN become invalid with an empty raw text; unparseable text becomes
// invalid but keeps its raw form.
func ParseNumber(v any) Number {
	return parseWith(v, nil)
}

// ParseRate coerces an interest rate that may arrive either as a number or as
// text carrying a percent sign ("10.5%").
func ParseRate(v any) Number {
	return parseWith(v, func(s string) string {
		return strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(s), "%"))
	})
}

// ParseTerm coerces a loan term such as "36 months" into its month count.
func ParseTerm(v any) Number {
	return parseWith(v, func(s string) string {
		s = strings.TrimSpace(s)
		s = strings.TrimSuffix(s, "months")
		s = strings.TrimSuffix(s, "month")
		return strings.TrimSpace(s)
	})
}

func parseWith(v any, clean func(string) string) Number {
	switch t := v.(type) {
	case nil:
		return Number{}
	case float64:
		return fromFloat(t)
	case float32:
		return fromFloat(float64(t))
	case int:
		return Number{Value: float64(t), Valid: true, Raw: strconv.Itoa(t)}
	case int32:
		return Number{Value: float64(t), Valid: true, Raw: strconv.FormatInt(int64(t), 10)}
	case int64:
		return Number{Value: float64(t), Valid: true, Raw: strconv.FormatInt(t, 10)}
	case uint64:
		return Number{Value: float64(t), Valid: true, Raw: strconv.FormatUint(t, 10)}
	case []byte:
		return parseText(string(t), clean)
	case string:
		return parseText(t, clean)
	case fmt.Stringer:
		return parseText(t.String(), clean)
	default:
		return parseText(fmt.Sprint(t), clean)
	}
}

func fromFloat(f float64) Number {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return Number{}
	}
	return Number{Value: f, Valid: true, Raw: strconv.FormatFloat(f, 'f', -1, 64)}
}

func parseText(raw string, clean func(string) string) Number {
	s := strings.TrimSpace(raw)
	if clean != nil {
		s = clean(s)
	}
	if s == "" {
		return Number{Raw: raw}
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return Number{Raw: raw}
	}
	return Number{Value: f, Valid: true, Raw: raw}
}

// Text renders a driver value as display text. nil renders as "".
func Text(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case []byte:
		return string(t)
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(t), 'f', -1, 32)
	case int64:
		return strconv.FormatInt(t, 10)
	case int:
		return strconv.Itoa(t)
	case fmt.Stringer:
		return t.String()
	default:
		return fmt.Sprint(t)
	}
}
