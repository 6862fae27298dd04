// Package catalog holds the static reference data behind the filter sidebar.
package catalog

import (
	"fmt"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/aristath/lcdash/internal/domain"
	"github.com/aristath/lcdash/internal/modules/query"
)

// Office is a sub-region unit keyed by the first three digits of a zip code.
type Office struct {
	Number  string `yaml:"office_no" json:"office_no" msgpack:"office_no"`
	ZipCode string `yaml:"zip_code" json:"zip_code" msgpack:"zip_code"`
	Region  string `yaml:"region" json:"region" msgpack:"region"`
}

// Catalog is read-only after Load returns.
type Catalog struct {
	Regions   []string
	Purposes  []string
	SubGrades []string
	ZipCodes  []string
	Offices   []Office

	byNumber map[string]Office
}

type document struct {
	Regions   []string `yaml:"regions"`
	Purposes  []string `yaml:"purposes"`
	SubGrades []string `yaml:"sub_grades"`
	ZipCodes  []string `yaml:"zip_codes"`
	Offices   []Office `yaml:"offices"`
}

// Parse decodes a YAML catalog document and validates it.
func Parse(data []byte) (*Catalog, error) {
	var doc document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse catalog: %w", err)
	}
	return build(doc)
}

func build(doc document) (*Catalog, error) {
	offices := doc.Offices
	if len(offices) == 0 {
		offices = generateOffices(doc.ZipCodes)
	}
	for i := range offices {
		if offices[i].Region == "" {
			offices[i].Region = query.RegionForZip(offices[i].ZipCode)
		}
	}

	zips := doc.ZipCodes
	if len(zips) == 0 {
		zips = make([]string, len(offices))
		for i, o := range offices {
			zips[i] = o.ZipCode
		}
	}

	c := &Catalog{
		Regions:   doc.Regions,
		Purposes:  doc.Purposes,
		SubGrades: doc.SubGrades,
		ZipCodes:  zips,
		Offices:   offices,
		byNumber:  make(map[string]Office, len(offices)),
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	for _, o := range offices {
		c.byNumber[o.Number] = o
	}
	return c, nil
}

// generateOffices derives offices from zip codes, or one office per prefix
// 000-999 when no zip codes are listed.
func generateOffices(zips []string) []Office {
	if len(zips) == 0 {
		offices := make([]Office, 0, 1000)
		for i := 0; i < 1000; i++ {
			number := fmt.Sprintf("%03d", i)
			offices = append(offices, Office{Number: number, ZipCode: number + "xx"})
		}
		return offices
	}

	seen := make(map[string]bool, len(zips))
	var offices []Office
	for _, z := range zips {
		number := query.OfficeForZip(z)
		if seen[number] {
			continue
		}
		seen[number] = true
		offices = append(offices, Office{Number: number, ZipCode: z})
	}
	sort.Slice(offices, func(i, j int) bool { return offices[i].Number < offices[j].Number })
	return offices
}

// Validate checks that the lists are usable and every office sits in the
// region its zip code derives to.
func (c *Catalog) Validate() error {
	if len(c.Regions) == 0 {
		return fmt.Errorf("catalog has no regions")
	}
	if len(c.Purposes) == 0 {
		return fmt.Errorf("catalog has no purposes")
	}
	if len(c.SubGrades) == 0 {
		return fmt.Errorf("catalog has no sub grades")
	}

	seen := make(map[string]bool, len(c.Offices))
	for _, o := range c.Offices {
		if o.Number == "" || o.ZipCode == "" {
			return fmt.Errorf("office %q has no zip code", o.Number)
		}
		if seen[o.Number] {
			return fmt.Errorf("duplicate office %q", o.Number)
		}
		seen[o.Number] = true
		if want := query.RegionForZip(o.ZipCode); o.Region != want {
			return fmt.Errorf("office %s: region %q does not match zip %s (%s)", o.Number, o.Region, o.ZipCode, want)
		}
	}
	return nil
}

// Defaults returns the "everything" value lists for predicate building.
func (c *Catalog) Defaults() query.Defaults {
	return query.Defaults{
		Regions:   c.Regions,
		ZipCodes:  c.ZipCodes,
		Purposes:  c.Purposes,
		SubGrades: c.SubGrades,
	}
}

// OfficeChoices lists the offices in the given regions, or all offices when
// regions is empty.
func (c *Catalog) OfficeChoices(regions []string) []Office {
	if len(regions) == 0 {
		return c.Offices
	}
	wanted := make(map[string]bool, len(regions))
	for _, r := range regions {
		wanted[r] = true
	}
	var out []Office
	for _, o := range c.Offices {
		if wanted[o.Region] {
			out = append(out, o)
		}
	}
	return out
}

// ZipForOffice returns the representative zip code of an office.
func (c *Catalog) ZipForOffice(number string) (string, bool) {
	o, ok := c.byNumber[number]
	return o.ZipCode, ok
}

// ResolveOffices maps selected office numbers to their zip codes.
func (c *Catalog) ResolveOffices(numbers []string) ([]string, error) {
	zips := make([]string, 0, len(numbers))
	for _, n := range numbers {
		zip, ok := c.ZipForOffice(n)
		if !ok {
			return nil, &domain.ValidationError{Field: "office", Value: n, Reason: "unknown office"}
		}
		zips = append(zips, zip)
	}
	return zips, nil
}

// Options is the sidebar payload for the current region selection.
type Options struct {
	Regions   []string `json:"regions" msgpack:"regions"`
	Offices   []Office `json:"offices" msgpack:"offices"`
	Purposes  []string `json:"purposes" msgpack:"purposes"`
	SubGrades []string `json:"sub_grades" msgpack:"sub_grades"`
}

// Options returns the choices to show given the selected regions.
func (c *Catalog) Options(regions []string) Options {
	offices := c.OfficeChoices(regions)
	if offices == nil {
		offices = []Office{}
	}
	return Options{
		Regions:   c.Regions,
		Offices:   offices,
		Purposes:  c.Purposes,
		SubGrades: c.SubGrades,
	}
}
