// Package cityindex resolves free-text "City[, Province][, Country]" input
// against the reference dataset, where many cities share an ASCII name.
package cityindex

import (
	"fmt"
	"sort"
	"strings"

	"tzdiff/internal/model"
)

// Index maps a lowercase ASCII city name to its candidate records in
// dataset order. An Index is immutable once built and safe for concurrent
// readers.
type Index struct {
	byName map[string][]model.LocationRecord
	keys   []string // sorted
	count  int
}

// New groups records by lowercase city name, preserving dataset order
// within each group.
func New(records []model.LocationRecord) *Index {
	byName := make(map[string][]model.LocationRecord)
	for _, r := range records {
		key := Key(r.City)
		byName[key] = append(byName[key], r)
	}
	return build(byName)
}

// FromGrouped builds an Index from an already grouped dataset. Every
// record's lowercase city must equal the key it is filed under.
func FromGrouped(grouped map[string][]model.LocationRecord) (*Index, error) {
	byName := make(map[string][]model.LocationRecord, len(grouped))
	for key, recs := range grouped {
		if len(recs) == 0 {
			continue
		}
		for i, r := range recs {
			if Key(r.City) != key {
				return nil, fmt.Errorf("cityindex: record %d under %q has city %q", i, key, r.City)
			}
		}
		byName[key] = append([]model.LocationRecord(nil), recs...)
	}
	return build(byName), nil
}

func build(byName map[string][]model.LocationRecord) *Index {
	idx := &Index{
		byName: byName,
		keys:   make([]string, 0, len(byName)),
	}
	for k, recs := range byName {
		idx.keys = append(idx.keys, k)
		idx.count += len(recs)
	}
	sort.Strings(idx.keys)
	return idx
}

// Key normalizes a city name into its index key.
func Key(city string) string {
	return strings.ToLower(strings.TrimSpace(city))
}

// Len returns the number of records in the index.
func (idx *Index) Len() int {
	return idx.count
}

// Names returns the number of distinct city keys.
func (idx *Index) Names() int {
	return len(idx.keys)
}

// Lookup returns a copy of the candidates filed under name.
func (idx *Index) Lookup(name string) []model.LocationRecord {
	recs := idx.byName[Key(name)]
	if len(recs) == 0 {
		return nil
	}
	return append([]model.LocationRecord(nil), recs...)
}

// Resolve picks the single record q designates.
//
//   - Unknown name: no match.
//   - Exactly one candidate: that candidate, whatever province or country
//     the query carries.
//   - Several candidates: the first, in dataset order, whose ISO2 equals
//     the query country and whose province equals the query province when
//     one was given. Comparisons ignore case.
//
// Candidates sharing both ISO2 and province under the same name cannot be
// told apart; only the first is reachable.
func (idx *Index) Resolve(q model.LocationQuery) (model.LocationRecord, bool) {
	candidates := idx.byName[Key(q.City)]
	switch len(candidates) {
	case 0:
		return model.LocationRecord{}, false
	case 1:
		return candidates[0], true
	}

	for _, c := range candidates {
		if !strings.EqualFold(c.ISO2, q.Country) {
			continue
		}
		if q.Province != "" && !strings.EqualFold(c.Province, q.Province) {
			continue
		}
		return c, true
	}
	return model.LocationRecord{}, false
}

// ResolveString parses s and resolves it.
func (idx *Index) ResolveString(s string) (model.LocationRecord, bool) {
	return idx.Resolve(ParseQuery(s))
}
