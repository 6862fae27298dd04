package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"

	"github.com/aristath/lcdash/internal/modules/catalog"
	"github.com/aristath/lcdash/internal/modules/dashboard"
	"github.com/aristath/lcdash/internal/modules/presentation"
)

var (
	heading = color.New(color.FgCyan, color.Bold).SprintFunc()
	label   = color.New(color.Faint).SprintFunc()
	warning = color.New(color.FgYellow).SprintFunc()
)

func printOptions(w io.Writer, opts catalog.Options) {
	fmt.Fprintf(w, "%s %s\n", heading("Regions:"), strings.Join(opts.Regions, ", "))
	fmt.Fprintf(w, "%s %s\n", heading("Purposes:"), strings.Join(opts.Purposes, ", "))
	fmt.Fprintf(w, "%s %s\n\n", heading("Sub grades:"), strings.Join(opts.SubGrades, ", "))

	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"Office", "Zip Code", "Region"})
	table.SetBorder(false)
	for _, o := range opts.Offices {
		table.Append([]string{o.Number, o.ZipCode, o.Region})
	}
	table.Render()
}

func printView(w io.Writer, view *dashboard.View, limit int) {
	fmt.Fprintf(w, "%s %s  %s %s\n\n", label("backend"), view.Backend, label("cycle"), view.CycleID)

	for _, tile := range view.Metrics {
		fmt.Fprintf(w, "%-18s %s\n", heading(tile.Label), tile.Value)
	}
	fmt.Fprintln(w)

	printChart(w, view.PrincipalChart)
	printChart(w, view.RiskChart)

	rows := view.Table.Rows
	if limit > 0 && len(rows) > limit {
		rows = rows[:limit]
	}

	headers := make([]string, len(view.Table.Columns))
	for i, c := range view.Table.Columns {
		headers[i] = c.Label
	}

	table := tablewriter.NewWriter(w)
	table.SetHeader(headers)
	table.SetAutoWrapText(false)
	table.AppendBulk(rows)
	table.Render()

	fmt.Fprintf(w, "%s of %s loans shown\n", humanize.Comma(int64(len(rows))), humanize.Comma(int64(view.Table.TotalRows)))
	if view.Table.Notice != "" {
		fmt.Fprintln(w, warning(view.Table.Notice))
	}
}

func printChart(w io.Writer, chart presentation.ChartSpec) {
	fmt.Fprintln(w, heading(chart.YLabel))
	if chart.NoData {
		fmt.Fprintln(w, warning(chart.Message))
		fmt.Fprintln(w)
		return
	}

	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"Region", chart.XLabel, "Value"})
	table.SetBorder(false)
	for _, b := range chart.Data {
		table.Append([]string{b.Region, b.Grade, humanize.FormatFloat("#,###.##", b.Value)})
	}
	table.Render()
	fmt.Fprintln(w)
}
