package transform

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"slices"
	"strings"

	"github.com/jszwec/csvutil"

	"github.com/pgEdge/pgedge-salesdw/internal/logging"
)

// Continent lookup sources.
const (
	SourceCSV     = "csv"
	SourceBuiltin = "builtin"
)

// countryAliases covers common short names missing from the dictionary.
var countryAliases = map[string]string{
	"usa":            "North America",
	"us":             "North America",
	"uk":             "Europe",
	"england":        "Europe",
	"russia":         "Europe",
	"czech republic": "Europe",
	"south korea":    "Asia",
	"north korea":    "Asia",
	"laos":           "Asia",
	"syria":          "Asia",
	"libya":          "Africa",
	"ivory coast":    "Africa",
}

var builtinLower = func() map[string]string {
	m := make(map[string]string, len(builtinContinents)+len(countryAliases))
	for k, v := range builtinContinents {
		m[strings.ToLower(k)] = v
	}
	for k, v := range countryAliases {
		m[k] = v
	}
	return m
}()

// ContinentResolver maps country names to continents: CSV overrides first,
// then the built-in dictionary, then Other.
type ContinentResolver struct {
	override map[string]string
	source   string
}

// NewContinentResolver returns a resolver backed only by the dictionary.
func NewContinentResolver() *ContinentResolver {
	return &ContinentResolver{source: SourceBuiltin}
}

// LoadContinentResolver loads the override CSV at path. Any problem with the
// file is logged and the dictionary is used alone.
func LoadContinentResolver(path string) *ContinentResolver {
	if path == "" {
		return NewContinentResolver()
	}

	f, err := os.Open(path)
	if err != nil {
		logging.Warn().Err(err).Str("path", path).Msg("Continent mapping file unavailable, using built-in mapping")
		return NewContinentResolver()
	}
	defer f.Close()

	override, err := ReadContinentCSV(f)
	if err != nil {
		logging.Warn().Err(err).Str("path", path).Msg("Invalid continent mapping file, using built-in mapping")
		return NewContinentResolver()
	}

	logging.Info().Str("path", path).Int("countries", len(override)).Msg("Loaded continent mapping")
	return &ContinentResolver{override: override, source: SourceCSV}
}

// ErrMissingColumns is returned when a mapping CSV lacks a country or
// continent column.
var ErrMissingColumns = errors.New("mapping file needs country and continent columns")

type continentRecord struct {
	Country   string `csv:"country"`
	Continent string `csv:"continent"`
}

// ReadContinentCSV reads country to continent pairs. Headers are matched
// case-insensitively; country_name and region are accepted as alternatives.
// Both values are title-cased and the first occurrence of a country wins.
func ReadContinentCSV(r io.Reader) (map[string]string, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	raw, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read header: %w", err)
	}

	header := normalizeHeader(raw)
	if !slices.Contains(header, "country") || !slices.Contains(header, "continent") {
		return nil, ErrMissingColumns
	}

	dec, err := csvutil.NewDecoder(cr, header...)
	if err != nil {
		return nil, fmt.Errorf("failed to create decoder: %w", err)
	}

	out := make(map[string]string)
	for {
		var rec continentRecord
		if err := dec.Decode(&rec); err == io.EOF {
			break
		} else if err != nil {
			return nil, fmt.Errorf("failed to decode mapping row: %w", err)
		}

		country := TitleCase(rec.Country)
		continent := TitleCase(rec.Continent)
		if country == "" || continent == "" {
			continue
		}
		key := strings.ToLower(country)
		if _, ok := out[key]; !ok {
			out[key] = continent
		}
	}
	return out, nil
}

// normalizeHeader lowercases and trims header names and maps the accepted
// alternatives onto the canonical ones.
func normalizeHeader(raw []string) []string {
	header := make([]string, len(raw))
	has := make(map[string]bool)
	for i, h := range raw {
		header[i] = strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")))
		has[header[i]] = true
	}

	for alt, canonical := range map[string]string{"country_name": "country", "region": "continent"} {
		if has[canonical] {
			continue
		}
		for i, h := range header {
			if h == alt {
				header[i] = canonical
				has[canonical] = true
				break
			}
		}
	}
	return header
}

// Resolve returns the continent for a country name.
func (r *ContinentResolver) Resolve(country string) string {
	key := strings.ToLower(strings.TrimSpace(country))
	if key == "" {
		return Other
	}
	if c, ok := r.override[key]; ok {
		return c
	}
	if c, ok := builtinLower[key]; ok {
		return c
	}
	return Other
}

// Source reports whether a CSV override is in use.
func (r *ContinentResolver) Source() string {
	return r.source
}
