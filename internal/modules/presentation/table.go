// Package presentation turns aggregated dashboard data into display-ready
// tables, chart specifications and metric tiles.
package presentation

import (
	"fmt"

	"github.com/dustin/go-humanize"

	"github.com/aristath/lcdash/internal/domain"
	"github.com/aristath/lcdash/internal/utils"
)

// DefaultRowLimit caps the number of rows shown in the loan table.
const DefaultRowLimit = 1000

// Column is one table column: the result field it reads and its header label.
type Column struct {
	Key   string `json:"key" msgpack:"key"`
	Label string `json:"label" msgpack:"label"`
}

// Columns is the loan table layout, in display order.
var Columns = []Column{
	{Key: "member_id", Label: "ID"},
	{Key: "region", Label: "Region"},
	{Key: "office_no", Label: "Office"},
	{Key: "grade", Label: "Grade"},
	{Key: "sub_grade", Label: "Sub Grade"},
	{Key: "loan_amnt", Label: "Loan Amt"},
	{Key: "term", Label: "Term"},
	{Key: "int_rate", Label: "Rate"},
	{Key: "emp_title", Label: "Emp Title"},
	{Key: "emp_length", Label: "Emp Length"},
	{Key: "annual_inc", Label: "Ann Income"},
	{Key: "loan_status", Label: "Status"},
	{Key: "title", Label: "Purpose"},
	{Key: "addr_state", Label: "State"},
	{Key: "out_prncp", Label: "Principal"},
}

// Table is the formatted loan table.
type Table struct {
	Columns   []Column   `json:"columns" msgpack:"columns"`
	Rows      [][]string `json:"rows" msgpack:"rows"`
	TotalRows int        `json:"total_rows" msgpack:"total_rows"`
	Truncated bool       `json:"truncated" msgpack:"truncated"`
	Notice    string     `json:"notice,omitempty" msgpack:"notice,omitempty"`
}

// TruncationNotice is shown under a table cut to limit rows.
func TruncationNotice(limit int) string {
	return fmt.Sprintf("Truncated to %s rows. Apply filters to narrow down request.", humanize.Comma(int64(limit)))
}

// FormatTable renders rows for display. When more than limit rows are given
// only the first limit are kept and a notice is attached. A limit of zero
// or less keeps every row.
func FormatTable(rows []domain.LoanRecord, limit int) Table {
	t := Table{
		Columns:   Columns,
		TotalRows: len(rows),
	}

	shown := rows
	if limit > 0 && len(rows) > limit {
		shown = rows[:limit]
		t.Truncated = true
		t.Notice = TruncationNotice(limit)
	}

	t.Rows = make([][]string, 0, len(shown))
	for _, r := range shown {
		t.Rows = append(t.Rows, formatRow(r))
	}
	return t
}

func formatRow(r domain.LoanRecord) []string {
	return []string{
		r.MemberID,
		r.Region,
		r.OfficeNo,
		r.Grade,
		r.SubGrade,
		Money(r.LoanAmount),
		r.Term,
		r.InterestRate.Raw,
		r.EmpTitle,
		r.EmpLength,
		Money(r.AnnualIncome),
		r.LoanStatus,
		r.Title,
		r.State,
		Money(r.OutPrincipal),
	}
}

// Money formats a currency cell. Values that failed coercion are shown as
// the warehouse returned them; null shows as an empty cell.
func Money(n domain.Number) string {
	if !n.Valid {
		return n.Raw
	}
	return utils.FormatCurrency(n.Value)
}
