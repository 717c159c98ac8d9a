package cityindex

import (
	"sort"
	"strings"

	"tzdiff/internal/model"
)

// ParseQuery splits a "City[, Province][, Country]" field.
//
//	"Paris"                -> city
//	"Paris, FR"            -> city, country
//	"Springfield, IL, US"  -> city, province, country
//
// With more than three parts, the middle parts form the province.
func ParseQuery(s string) model.LocationQuery {
	parts := strings.Split(s, ",")
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}

	switch len(parts) {
	case 1:
		return model.LocationQuery{City: parts[0]}
	case 2:
		return model.LocationQuery{City: parts[0], Country: parts[1]}
	default:
		last := len(parts) - 1
		return model.LocationQuery{
			City:     parts[0],
			Province: strings.Join(parts[1:last], ", "),
			Country:  parts[last],
		}
	}
}

// Label renders the shortest input string that resolves to r among its
// namesakes:
//
//   - the city alone when its name is unique
//   - "City, ISO2" when namesakes sit in different countries
//   - "City, Province, ISO2" when several namesakes share a country
func Label(r model.LocationRecord, namesakes []model.LocationRecord) string {
	if len(namesakes) <= 1 {
		return r.City
	}

	seen := make(map[string]struct{}, len(namesakes))
	duplicateCountries := false
	for _, n := range namesakes {
		iso := strings.ToUpper(n.ISO2)
		if _, ok := seen[iso]; ok {
			duplicateCountries = true
			break
		}
		seen[iso] = struct{}{}
	}

	if duplicateCountries {
		return r.City + ", " + r.Province + ", " + r.ISO2
	}
	return r.City + ", " + r.ISO2
}

// Labels returns one suggestion per record, sorted by city key and in
// dataset order within a key.
func (idx *Index) Labels() []string {
	out := make([]string, 0, idx.count)
	for _, k := range idx.keys {
		recs := idx.byName[k]
		for _, r := range recs {
			out = append(out, Label(r, recs))
		}
	}
	return out
}

// Suggest returns at most limit labels whose city key starts with prefix.
// A non-positive limit means no limit.
func (idx *Index) Suggest(prefix string, limit int) []string {
	p := Key(prefix)
	start := sort.SearchStrings(idx.keys, p)

	var out []string
	for _, k := range idx.keys[start:] {
		if !strings.HasPrefix(k, p) {
			break
		}
		recs := idx.byName[k]
		for _, r := range recs {
			out = append(out, Label(r, recs))
			if limit > 0 && len(out) >= limit {
				return out
			}
		}
	}
	return out
}
