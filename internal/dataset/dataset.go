// Package dataset loads the grouped city dataset into a cityindex.Index.
//
// A source is one of:
//
//	./data/cities.json         grouped JSON mapping
//	./data/cities.json.gz      the same, gzip-compressed
//	https://host/cities.json   fetched with a disk cache and retries
//	sqlite:///var/cities.db    table cities(city, province, iso2, timezone)
package dataset

import (
	"bufio"
	"bytes"
	"compress/gzip"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"tzdiff/internal/cityindex"
	"tzdiff/internal/model"
)

const sqlitePrefix = "sqlite://"

// Options configures Load.
type Options struct {
	// CacheDir holds the HTTP cache. Only used for http(s) sources.
	CacheDir string
	// Fetcher overrides the fetcher built from CacheDir.
	Fetcher *Fetcher
}

// Load reads the dataset named by source and builds an index from it.
func Load(ctx context.Context, source string, opts Options) (*cityindex.Index, error) {
	source = strings.TrimSpace(source)
	switch {
	case source == "":
		return nil, errors.New("dataset: empty source")
	case strings.HasPrefix(source, sqlitePrefix):
		return LoadSQLite(ctx, strings.TrimPrefix(source, sqlitePrefix))
	case strings.HasPrefix(source, "http://"), strings.HasPrefix(source, "https://"):
		f := opts.Fetcher
		if f == nil {
			f = NewFetcher(opts.CacheDir)
		}
		res, err := f.Fetch(ctx, source)
		if err != nil {
			return nil, fmt.Errorf("dataset: fetch %s: %w", redactURL(source), err)
		}
		return Decode(bytes.NewReader(res.Body))
	default:
		return LoadFile(source)
	}
}

// LoadFile reads a grouped JSON file, gzip-compressed or not.
func LoadFile(path string) (*cityindex.Index, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("dataset: %w", err)
	}
	defer f.Close()

	idx, err := Decode(f)
	if err != nil {
		return nil, fmt.Errorf("dataset: %s: %w", path, err)
	}
	return idx, nil
}

// Decode parses a grouped JSON mapping, detecting gzip by its magic bytes.
func Decode(r io.Reader) (*cityindex.Index, error) {
	br := bufio.NewReader(r)
	if magic, err := br.Peek(2); err == nil && magic[0] == 0x1f && magic[1] == 0x8b {
		zr, err := gzip.NewReader(br)
		if err != nil {
			return nil, fmt.Errorf("gzip: %w", err)
		}
		defer zr.Close()
		return decodeJSON(zr)
	}
	return decodeJSON(br)
}

func decodeJSON(r io.Reader) (*cityindex.Index, error) {
	var grouped map[string][]model.LocationRecord
	if err := json.NewDecoder(r).Decode(&grouped); err != nil {
		return nil, fmt.Errorf("decode: %w", err)
	}
	return cityindex.FromGrouped(grouped)
}
