package query

import (
	"fmt"
	"strings"
)

// Style is the overall shape of the generated statement.
type Style int

const (
	// StyleSubquery derives region in a nested SELECT aliased q01.
	StyleSubquery Style = iota
	// StyleCTE derives region and office in a WITH sub_table clause.
	StyleCTE
)

// Dialect captures what differs between warehouses: identifier quoting and
// case, the table reference and the statement shape.
type Dialect struct {
	Name       string
	Quote      string // identifier quote, empty for bare identifiers
	Upper      bool   // upper-case identifiers
	TableParts []string
	Style      Style
	IDColumn   string // source column that holds the member id
}

// Built-in dialects. Table names can be overridden with WithTable.
var (
	Databricks = Dialect{
		Name:       "databricks",
		Quote:      "`",
		TableParts: []string{"main", "default", "lending_club"},
		Style:      StyleSubquery,
		IDColumn:   "member_id",
	}
	Snowflake = Dialect{
		Name:       "snowflake",
		Upper:      true,
		TableParts: []string{"LOAN_DATA"},
		Style:      StyleCTE,
		IDColumn:   "id",
	}
	Postgres = Dialect{
		Name:       "postgres",
		TableParts: []string{"lending_club"},
		Style:      StyleCTE,
		IDColumn:   "id",
	}
	SQLite = Dialect{
		Name:       "sqlite",
		TableParts: []string{"lending_club"},
		Style:      StyleCTE,
		IDColumn:   "id",
	}
)

// DialectByName looks up a built-in dialect.
func DialectByName(name string) (Dialect, error) {
	switch strings.ToLower(name) {
	case Databricks.Name:
		return Databricks, nil
	case Snowflake.Name:
		return Snowflake, nil
	case Postgres.Name:
		return Postgres, nil
	case SQLite.Name:
		return SQLite, nil
	default:
		return Dialect{}, fmt.Errorf("unknown dialect %q", name)
	}
}

// WithTable returns a copy of the dialect reading from a different table.
// A dotted name such as "catalog.schema.table" is split into its parts.
func (d Dialect) WithTable(name string) Dialect {
	if name == "" {
		return d
	}
	d.TableParts = strings.Split(name, ".")
	return d
}

// Ident renders a column or alias in the dialect's case and quoting.
func (d Dialect) Ident(name string) string {
	if d.Upper {
		name = strings.ToUpper(name)
	}
	if d.Quote == "" {
		return name
	}
	return d.Quote + name + d.Quote
}

// Table renders the fully qualified table reference.
func (d Dialect) Table() string {
	parts := make([]string, len(d.TableParts))
	for i, p := range d.TableParts {
		parts[i] = d.Ident(p)
	}
	return strings.Join(parts, ".")
}

func (d Dialect) tableAlias() string {
	if len(d.TableParts) == 0 {
		return ""
	}
	return d.Ident(d.TableParts[len(d.TableParts)-1])
}
