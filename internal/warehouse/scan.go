package warehouse

import (
	"database/sql"
	"fmt"
	"strings"

	"github.com/aristath/lcdash/internal/domain"
)

type setter func(r *domain.LoanRecord, v any)

// columnSetters map a lower-cased result column onto a LoanRecord field.
var columnSetters = map[string]setter{
	"member_id":   func(r *domain.LoanRecord, v any) { r.MemberID = domain.Text(v) },
	"region":      func(r *domain.LoanRecord, v any) { r.Region = domain.Text(v) },
	"grade":       func(r *domain.LoanRecord, v any) { r.Grade = domain.Text(v) },
	"sub_grade":   func(r *domain.LoanRecord, v any) { r.SubGrade = domain.Text(v) },
	"loan_amnt":   func(r *domain.LoanRecord, v any) { r.LoanAmount = domain.ParseNumber(v) },
	"funded_amnt": func(r *domain.LoanRecord, v any) { r.FundedAmount = domain.ParseNumber(v) },
	"term": func(r *domain.LoanRecord, v any) {
		r.Term = domain.Text(v)
		r.TermMonths = domain.ParseTerm(v)
	},
	"int_rate":    func(r *domain.LoanRecord, v any) { r.InterestRate = domain.ParseRate(v) },
	"emp_title":   func(r *domain.LoanRecord, v any) { r.EmpTitle = domain.Text(v) },
	"emp_length":  func(r *domain.LoanRecord, v any) { r.EmpLength = domain.Text(v) },
	"annual_inc":  func(r *domain.LoanRecord, v any) { r.AnnualIncome = domain.ParseNumber(v) },
	"loan_status": func(r *domain.LoanRecord, v any) { r.LoanStatus = domain.Text(v) },
	"purpose":     func(r *domain.LoanRecord, v any) { r.Purpose = domain.Text(v) },
	"title":       func(r *domain.LoanRecord, v any) { r.Title = domain.Text(v) },
	"zip_code":    func(r *domain.LoanRecord, v any) { r.ZipCode = domain.Text(v) },
	"addr_state":  func(r *domain.LoanRecord, v any) { r.State = domain.Text(v) },
	"dti":         func(r *domain.LoanRecord, v any) { r.DTI = domain.ParseNumber(v) },
	"out_prncp":   func(r *domain.LoanRecord, v any) { r.OutPrincipal = domain.ParseNumber(v) },
	"office_no":   func(r *domain.LoanRecord, v any) { r.OfficeNo = domain.Text(v) },
}

// ScanLoans reads every row into LoanRecords. Columns are matched by name
// regardless of case; unknown columns are ignored. Cells never fail to
// coerce: malformed numerics become invalid Numbers.
func ScanLoans(rows *sql.Rows) ([]domain.LoanRecord, error) {
	cols, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("failed to read result columns: %w", err)
	}

	setters := make([]setter, len(cols))
	for i, c := range cols {
		setters[i] = columnSetters[strings.ToLower(c)]
	}

	var records []domain.LoanRecord
	values := make([]any, len(cols))
	ptrs := make([]any, len(cols))
	for i := range values {
		ptrs[i] = &values[i]
	}

	for rows.Next() {
		for i := range values {
			values[i] = nil
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, fmt.Errorf("failed to scan row %d: %w", len(records)+1, err)
		}

		var r domain.LoanRecord
		for i, set := range setters {
			if set != nil {
				set(&r, values[i])
			}
		}
		records = append(records, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed reading rows: %w", err)
	}
	return records, nil
}
