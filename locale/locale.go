// Package locale infers country, region and city from free text using
// ordered pattern tables. Every function is deterministic: the same input
// always yields the same answer, and ties resolve to table order.
package locale

import (
	"regexp"
	"slices"
	"strings"

	"github.com/liamtostring/schegen/models"
)

var (
	usZipRe          = regexp.MustCompile(`^\d{5}(-\d{4})?$`)
	canadianPostalRe = regexp.MustCompile(`(?i)^[A-Z]\d[A-Z] ?\d[A-Z]\d$`)
)

type cityMatcher struct {
	country string
	region  string
	city    string
	re      *regexp.Regexp
}

// matchers mirrors cityTable, flattened in match order.
var matchers = buildMatchers(cityTable)

func buildMatchers(table []RegionCities) []cityMatcher {
	var out []cityMatcher
	for _, rc := range table {
		for _, city := range rc.Cities {
			out = append(out, cityMatcher{
				country: rc.Country,
				region:  rc.Region,
				city:    city,
				re:      regexp.MustCompile(`(?i)\b` + regexp.QuoteMeta(city) + `\b`),
			})
		}
	}
	return out
}

// InferCountry returns an ISO country code for the address and area names.
// Structured address fields win over the area scan; DefaultCountry is the
// last resort.
func InferCountry(addr *models.PostalAddress, areas []string) string {
	if addr != nil {
		if c := NormalizeCountry(addr.AddressCountry); c != "" {
			return c
		}
		if c := countryFromPostalCode(addr.PostalCode); c != "" {
			return c
		}
		if c := countryFromRegion(addr.AddressRegion); c != "" {
			return c
		}
	}
	if m, ok := firstMatch(scanText(addr, areas), ""); ok {
		return m.country
	}
	return DefaultCountry
}

// InferRegion returns a region code. An explicit addressRegion always wins.
func InferRegion(addr *models.PostalAddress, areas []string, country string) string {
	if addr != nil {
		if r := strings.TrimSpace(addr.AddressRegion); r != "" {
			return NormalizeRegion(r, country)
		}
		if canadianPostalRe.MatchString(strings.TrimSpace(addr.PostalCode)) {
			code := strings.ToUpper(strings.TrimSpace(addr.PostalCode))
			if r, ok := canadianPostalRegions[code[0]]; ok {
				return r
			}
		}
	}
	if m, ok := firstMatch(scanText(addr, areas), country); ok {
		return m.region
	}
	if country == "" || country == DefaultCountry {
		return DefaultRegion
	}
	return ""
}

// InferCityFromText returns the first known city found in text.
func InferCityFromText(text string) (string, bool) {
	m, ok := firstMatch(text, "")
	if !ok {
		return "", false
	}
	return m.city, true
}

// FindCities returns every known city found in text, in table order.
func FindCities(text string) []string {
	if strings.TrimSpace(text) == "" {
		return nil
	}
	var out []string
	for _, m := range matchers {
		if m.re.MatchString(text) {
			out = append(out, m.city)
		}
	}
	return out
}

// RegionOf returns the region and country a known city belongs to.
func RegionOf(city string) (region, country string, ok bool) {
	for _, m := range matchers {
		if strings.EqualFold(m.city, strings.TrimSpace(city)) {
			return m.region, m.country, true
		}
	}
	return "", "", false
}

// SlugText turns a URL path into space separated words so city names
// written as slugs ("san-antonio") can be scanned.
func SlugText(path string) string {
	return strings.Map(func(r rune) rune {
		switch r {
		case '-', '_', '/', '+', '.':
			return ' '
		}
		return r
	}, path)
}

// NormalizeCountry maps common spellings to ISO codes. Unknown values are
// upper-cased when they look like codes and dropped otherwise.
func NormalizeCountry(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}
	if c, ok := countryAliases[strings.ToLower(s)]; ok {
		return c
	}
	if len(s) == 2 {
		return strings.ToUpper(s)
	}
	return ""
}

// NormalizeRegion maps full region names to codes for the given country.
// Values it does not recognise are returned unchanged.
func NormalizeRegion(region, country string) string {
	region = strings.TrimSpace(region)
	lower := strings.ToLower(region)
	if names, ok := regionNames[country]; ok {
		if code, ok := names[lower]; ok {
			return code
		}
	}
	for _, names := range regionNames {
		if code, ok := names[lower]; ok {
			return code
		}
	}
	if len(region) == 2 {
		return strings.ToUpper(region)
	}
	return region
}

func countryFromPostalCode(code string) string {
	code = strings.TrimSpace(code)
	switch {
	case code == "":
		return ""
	case usZipRe.MatchString(code):
		return "US"
	case canadianPostalRe.MatchString(code):
		return "CA"
	}
	return ""
}

func countryFromRegion(region string) string {
	code := NormalizeRegion(region, "")
	switch {
	case code == "":
		return ""
	case slices.Contains(canadianProvinces, code):
		return "CA"
	case slices.Contains(usStates, code):
		return "US"
	}
	return ""
}

func scanText(addr *models.PostalAddress, areas []string) string {
	parts := append([]string(nil), areas...)
	if addr != nil && addr.AddressLocality != "" {
		parts = append(parts, addr.AddressLocality)
	}
	return strings.Join(parts, ", ")
}

func firstMatch(text, country string) (cityMatcher, bool) {
	if strings.TrimSpace(text) == "" {
		return cityMatcher{}, false
	}
	for _, m := range matchers {
		if country != "" && m.country != country {
			continue
		}
		if m.re.MatchString(text) {
			return m, true
		}
	}
	return cityMatcher{}, false
}
