// Package query turns dashboard filter selections into warehouse SQL.
package query

import "strings"

// FilterSelection is the sidebar state for one render cycle.
// An empty dimension means no restriction. Office holds office numbers.
type FilterSelection struct {
	Region   []string `json:"region" msgpack:"region"`
	Office   []string `json:"office" msgpack:"office"`
	Purpose  []string `json:"purpose" msgpack:"purpose"`
	SubGrade []string `json:"sub_grade" msgpack:"sub_grade"`
}

// IsEmpty reports whether no dimension is restricted.
func (f FilterSelection) IsEmpty() bool {
	return len(f.Region) == 0 && len(f.Office) == 0 && len(f.Purpose) == 0 && len(f.SubGrade) == 0
}

// Defaults are the full value lists used when a dimension is left empty.
type Defaults struct {
	Regions   []string
	ZipCodes  []string
	Purposes  []string
	SubGrades []string
}

// Tuple is the value list of one IN (...) predicate.
type Tuple []string

// BuildPredicate picks the values for one dimension: the selection when it is
// non-empty, otherwise the defaults. Duplicates are dropped, keeping the first
// occurrence.
func BuildPredicate(selected, defaults []string) Tuple {
	source := selected
	if len(source) == 0 {
		source = defaults
	}

	seen := make(map[string]struct{}, len(source))
	out := make(Tuple, 0, len(source))
	for _, v := range source {
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}

// SQL renders the tuple as the right-hand side of an IN predicate.
// A single value renders as ('a') without a trailing comma; an empty tuple
// renders as (NULL), which keeps the statement valid and matches nothing.
func (t Tuple) SQL() string {
	if len(t) == 0 {
		return "(NULL)"
	}

	var b strings.Builder
	b.WriteByte('(')
	for i, v := range t {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(quoteLiteral(v))
	}
	b.WriteByte(')')
	return b.String()
}

// Contains reports whether v is one of the tuple's values.
func (t Tuple) Contains(v string) bool {
	for _, x := range t {
		if x == v {
			return true
		}
	}
	return false
}

func quoteLiteral(v string) string {
	return "'" + strings.ReplaceAll(v, "'", "''") + "'"
}

// Predicates are the four IN tuples applied to the final row set.
type Predicates struct {
	Region   Tuple
	ZipCode  Tuple
	Purpose  Tuple
	SubGrade Tuple
}

// BuildPredicates builds all four tuples. officeZips are the zip codes of the
// selected offices, already resolved through the catalog.
func BuildPredicates(sel FilterSelection, officeZips []string, d Defaults) Predicates {
	return Predicates{
		Region:   BuildPredicate(sel.Region, d.Regions),
		ZipCode:  BuildPredicate(officeZips, d.ZipCodes),
		Purpose:  BuildPredicate(sel.Purpose, d.Purposes),
		SubGrade: BuildPredicate(sel.SubGrade, d.SubGrades),
	}
}
