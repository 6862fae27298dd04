package query

import (
	"fmt"
	"strings"
)

// ResultColumns are the columns of every generated statement, in order.
var ResultColumns = []string{
	"member_id",
	"region",
	"grade",
	"sub_grade",
	"loan_amnt",
	"funded_amnt",
	"term",
	"int_rate",
	"emp_title",
	"emp_length",
	"annual_inc",
	"loan_status",
	"purpose",
	"title",
	"zip_code",
	"addr_state",
	"dti",
	"out_prncp",
	"office_no",
}

// Assemble renders the dashboard query for a dialect and a set of predicates.
// Output is a pure function of its inputs.
func Assemble(d Dialect, p Predicates) string {
	var b strings.Builder
	switch d.Style {
	case StyleCTE:
		writeCTE(&b, d)
	default:
		writeSubquery(&b, d)
	}
	writeWhere(&b, d, p)
	return b.String()
}

func writeSubquery(b *strings.Builder, d Dialect) {
	b.WriteString("SELECT\n")
	for _, col := range ResultColumns {
		switch col {
		case "member_id":
			fmt.Fprintf(b, "    %s,\n", memberIDExpr(d))
		case "office_no":
			fmt.Fprintf(b, "    SUBSTR(%s, 1, 3) AS %s\n", d.Ident("zip_code"), d.Ident("office_no"))
		default:
			fmt.Fprintf(b, "    %s,\n", d.Ident(col))
		}
	}
	b.WriteString("FROM (\n")
	b.WriteString("    SELECT\n")
	fmt.Fprintf(b, "        %s.*,\n", d.tableAlias())
	writeRegionCase(b, d, "        ")
	fmt.Fprintf(b, "    FROM %s\n", d.Table())
	fmt.Fprintf(b, "    WHERE (NOT((%s IS NULL)))\n", d.Ident("addr_state"))
	fmt.Fprintf(b, ") %s\n", d.Ident("q01"))
}

func writeCTE(b *strings.Builder, d Dialect) {
	fmt.Fprintf(b, "WITH %s AS (\n", d.Ident("sub_table"))
	b.WriteString("    SELECT\n")
	b.WriteString("        *,\n")
	fmt.Fprintf(b, "        SUBSTR(%s, 1, 3) AS %s,\n", d.Ident("zip_code"), d.Ident("office_no"))
	writeRegionCase(b, d, "        ")
	fmt.Fprintf(b, "    FROM %s\n", d.Table())
	fmt.Fprintf(b, "    WHERE (NOT((%s IS NULL)))\n", d.Ident("addr_state"))
	b.WriteString(")\n")
	b.WriteString("SELECT\n")
	for i, col := range ResultColumns {
		sep := ","
		if i == len(ResultColumns)-1 {
			sep = ""
		}
		if col == "member_id" {
			fmt.Fprintf(b, "    %s%s\n", memberIDExpr(d), sep)
			continue
		}
		fmt.Fprintf(b, "    %s%s\n", d.Ident(col), sep)
	}
	fmt.Fprintf(b, "FROM %s\n", d.Ident("sub_table"))
}

func writeRegionCase(b *strings.Builder, d Dialect, indent string) {
	b.WriteString(indent + "CASE\n")
	for _, rule := range regionRules {
		fmt.Fprintf(b, "%s    WHEN (SUBSTR(%s, 1, 1) IN %s) THEN %s\n",
			indent, d.Ident("zip_code"), Tuple(rule.Digits).SQL(), quoteLiteral(rule.Region))
	}
	fmt.Fprintf(b, "%s    ELSE 'NA'\n", indent)
	fmt.Fprintf(b, "%sEND AS %s\n", indent, d.Ident("region"))
}

func writeWhere(b *strings.Builder, d Dialect, p Predicates) {
	b.WriteString("WHERE\n")
	fmt.Fprintf(b, "    (%s IN %s) AND\n", d.Ident("region"), p.Region.SQL())
	fmt.Fprintf(b, "    (%s IN %s) AND\n", d.Ident("zip_code"), p.ZipCode.SQL())
	fmt.Fprintf(b, "    (%s IN %s) AND\n", d.Ident("title"), p.Purpose.SQL())
	fmt.Fprintf(b, "    (%s IN %s)\n", d.Ident("sub_grade"), p.SubGrade.SQL())
}

func memberIDExpr(d Dialect) string {
	if d.IDColumn == "" || d.IDColumn == "member_id" {
		return d.Ident("member_id")
	}
	return fmt.Sprintf("%s AS %s", d.Ident(d.IDColumn), d.Ident("member_id"))
}
