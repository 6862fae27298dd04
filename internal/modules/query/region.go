package query

import "github.com/aristath/lcdash/internal/domain"

// regionRule maps leading zip-code digits to a region. The order is the order
// of the CASE branches in generated SQL.
type regionRule struct {
	Region string
	Digits []string
}

var regionRules = []regionRule{
	{Region: domain.RegionWest, Digits: []string{"8", "9"}},
	{Region: domain.RegionMidwest, Digits: []string{"6", "5", "4"}},
	{Region: domain.RegionSouth, Digits: []string{"7", "3", "2"}},
	{Region: domain.RegionEast, Digits: []string{"1", "0"}},
}

// RegionForZip classifies a zip code by its first character.
// Empty input and anything that is not a known digit fall back to NA.
func RegionForZip(zip string) string {
	if zip == "" {
		return domain.RegionNA
	}
	first := zip[:1]
	for _, rule := range regionRules {
		for _, d := range rule.Digits {
			if d == first {
				return rule.Region
			}
		}
	}
	return domain.RegionNA
}

// OfficeForZip returns the office number for a zip code: its first three
// characters, or the whole string when it is shorter.
func OfficeForZip(zip string) string {
	if len(zip) < 3 {
		return zip
	}
	return zip[:3]
}
