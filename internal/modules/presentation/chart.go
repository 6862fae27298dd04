package presentation

import "github.com/aristath/lcdash/internal/domain"

// NoDataMessage replaces a chart when there is nothing to plot.
const NoDataMessage = "No data available."

// Theme controls chart styling. It is passed to every chart explicitly.
type Theme struct {
	Base            string `json:"base" msgpack:"base"`
	TextColor       string `json:"text_color" msgpack:"text_color"`
	YAxisTitleAngle int    `json:"y_axis_title_angle" msgpack:"y_axis_title_angle"`
}

// DefaultTheme is a bare theme with white text, suited to a dark page.
func DefaultTheme() Theme {
	return Theme{
		Base:            "void",
		TextColor:       "#FFFFFF",
		YAxisTitleAngle: 90,
	}
}

// Bar is one plotted value.
type Bar struct {
	Region string  `json:"region" msgpack:"region"`
	Grade  string  `json:"grade" msgpack:"grade"`
	Value  float64 `json:"value" msgpack:"value"`
}

// ChartSpec declares a grade bar chart faceted by region.
type ChartSpec struct {
	Kind    string `json:"kind" msgpack:"kind"`
	X       string `json:"x" msgpack:"x"`
	Fill    string `json:"fill" msgpack:"fill"`
	Facet   string `json:"facet" msgpack:"facet"`
	Legend  bool   `json:"legend" msgpack:"legend"`
	XLabel  string `json:"x_label" msgpack:"x_label"`
	YLabel  string `json:"y_label" msgpack:"y_label"`
	Theme   Theme  `json:"theme" msgpack:"theme"`
	Data    []Bar  `json:"data" msgpack:"data"`
	NoData  bool   `json:"no_data" msgpack:"no_data"`
	Message string `json:"message,omitempty" msgpack:"message,omitempty"`
}

const (
	labelGrade     = "Loan Grade"
	labelPrincipal = "Loan Principal (M)"
	labelPercent   = "% of Principal"
)

func gradeChart(yLabel string, theme Theme, bars []Bar) ChartSpec {
	c := ChartSpec{
		Kind:   "bar",
		X:      "grade",
		Fill:   "grade",
		Facet:  "region",
		XLabel: labelGrade,
		YLabel: yLabel,
		Theme:  theme,
		Data:   bars,
	}
	if len(bars) == 0 {
		c.Data = []Bar{}
		c.NoData = true
		c.Message = NoDataMessage
	}
	return c
}

// PrincipalChart plots outstanding principal in millions.
func PrincipalChart(rows []domain.AggregateRow, theme Theme) ChartSpec {
	bars := make([]Bar, 0, len(rows))
	for _, r := range rows {
		bars = append(bars, Bar{Region: r.Region, Grade: r.Grade, Value: r.PrincipalMillions})
	}
	return gradeChart(labelPrincipal, theme, bars)
}

// RiskChart plots the at-risk share of principal.
func RiskChart(rows []domain.RiskRow, theme Theme) ChartSpec {
	bars := make([]Bar, 0, len(rows))
	for _, r := range rows {
		bars = append(bars, Bar{Region: r.Region, Grade: r.Grade, Value: r.PercentAtRisk})
	}
	return gradeChart(labelPercent, theme, bars)
}
