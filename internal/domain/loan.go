// Package domain holds the loan-portfolio records shared by every lcdash module.
package domain

// Region names derived from the first digit of a zip code.
const (
	RegionWest    = "West"
	RegionMidwest = "Midwest"
	RegionSouth   = "South"
	RegionEast    = "East"
	RegionNA      = "NA"
)

// Loan statuses that mean a loan is no longer at risk.
const (
	StatusCurrent    = "Current"
	StatusFullyPaid  = "Fully Paid"
	StatusChargedOff = "Charged Off"
)

// NoData is shown in place of a metric when there is nothing to compute it from.
const NoData = "No data"

// IsAtRisk reports whether a loan status signals ongoing distress
// (late, in grace period, default and so on).
func IsAtRisk(status string) bool {
	switch status {
	case StatusCurrent, StatusFullyPaid, StatusChargedOff:
		return false
	default:
		return true
	}
}

// LoanRecord is one row of the dashboard query.
type LoanRecord struct {
	MemberID     string `json:"member_id"`
	Region       string `json:"region"`
	Grade        string `json:"grade"`
	SubGrade     string `json:"sub_grade"`
	LoanAmount   Number `json:"loan_amnt"`
	FundedAmount Number `json:"funded_amnt"`
	Term         string `json:"term"`
	TermMonths   Number `json:"term_months"`
	InterestRate Number `json:"int_rate"`
	EmpTitle     string `json:"emp_title"`
	EmpLength    string `json:"emp_length"`
	AnnualIncome Number `json:"annual_inc"`
	LoanStatus   string `json:"loan_status"`
	Purpose      string `json:"purpose"`
	Title        string `json:"title"`
	ZipCode      string `json:"zip_code"`
	State        string `json:"addr_state"`
	DTI          Number `json:"dti"`
	OutPrincipal Number `json:"out_prncp"`
	OfficeNo     string `json:"office_no"`
}

// AggregateRow is outstanding principal for one region and grade, in millions.
type AggregateRow struct {
	Region            string  `json:"region"`
	Grade             string  `json:"grade"`
	PrincipalMillions float64 `json:"principal_millions"`
}

// RiskRow is the share of a region and grade's principal held by at-risk loans.
type RiskRow struct {
	Region           string  `json:"region"`
	Grade            string  `json:"grade"`
	PrincipalAtRisk  float64 `json:"principal_at_risk"`
	RegionGradeTotal float64 `json:"region_grade_total"`
	PercentAtRisk    float64 `json:"percent_at_risk"`
	// ZeroTotal marks groups whose total principal was zero; PercentAtRisk is 0 for them.
	ZeroTotal bool `json:"zero_total,omitempty"`
}

// SummaryMetrics are the three headline tiles, already formatted.
// Each holds NoData when no valid input values exist.
type SummaryMetrics struct {
	AvgInterestRate  string `json:"avg_interest_rate"`
	MedianLoanAmount string `json:"median_loan_amount"`
	AvgTermYears     string `json:"avg_term_years"`
}
