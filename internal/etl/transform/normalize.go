//-------------------------------------------------------------------------
//
// pgEdge Sales Warehouse
//
// Portions copyright (c) 2025 - 2026, pgEdge, Inc.
// This software is released under The PostgreSQL License
//
//-------------------------------------------------------------------------

// Package transform turns raw source records into star-schema rows.
package transform

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Unknown is the default for required text fields.
const Unknown = "Unknown"

// Gender values.
const (
	Male   = "Male"
	Female = "Female"
	Other  = "Other"
)

// Product categories.
const (
	Electronics   = "Electronics"
	Toys          = "Toys"
	Bags          = "Bags"
	Makeup        = "Makeup"
	Clothing      = "Clothing"
	Uncategorized = "Uncategorized"
)

// Categories is the closed product category vocabulary.
var Categories = []string{Electronics, Toys, Bags, Makeup, Clothing, Uncategorized}

// TitleCase trims s and upper-cases the first letter of each word.
func TitleCase(s string) string {
	// Casers carry state, so one is built per call
	return cases.Title(language.English).String(strings.TrimSpace(s))
}

// Gender maps free-text gender to Male, Female or Other.
func Gender(s string) string {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "m", "male":
		return Male
	case "f", "female":
		return Female
	default:
		return Other
	}
}

var vehicleSynonyms = map[string]string{
	"motorbike": "Motorcycle",
	"bike":      "Bicycle",
	"trike":     "Tricycle",
	"car":       "Car",
}

// VehicleType maps known vehicle synonyms and capitalizes anything else.
func VehicleType(s string) string {
	v := strings.ToLower(strings.TrimSpace(s))
	if v == "" {
		return Unknown
	}
	if mapped, ok := vehicleSynonyms[v]; ok {
		return mapped
	}
	r, size := utf8.DecodeRuneInString(v)
	return string(unicode.ToUpper(r)) + v[size:]
}

var fedezPattern = regexp.MustCompile(`(?i)fedez`)

// CourierName fixes the FEDEZ data-entry typo in any case.
func CourierName(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return Unknown
	}
	return fedezPattern.ReplaceAllString(s, "FEDEX")
}

var categorySynonyms = map[string]string{
	"Gadgets":    Electronics,
	"Gadget":     Electronics,
	"Electronic": Electronics,
	"Toy":        Toys,
	"Bag":        Bags,
	"Make Up":    Makeup,
	"Make-Up":    Makeup,
	"Cosmetics":  Makeup,
	"Clothes":    Clothing,
	"Apparel":    Clothing,
}

// Category maps a source category into the closed vocabulary.
func Category(s string) string {
	c := TitleCase(s)
	if c == "" {
		return Uncategorized
	}
	if mapped, ok := categorySynonyms[c]; ok {
		c = mapped
	}
	for _, allowed := range Categories {
		if c == allowed {
			return c
		}
	}
	return Uncategorized
}

// categoryKeywords is checked in order; the first match wins.
var categoryKeywords = []struct {
	category string
	words    []string
}{
	{Bags, []string{"bag", "handbag", "backpack", "purse", "wallet", "tote", "luggage", "suitcase"}},
	{Makeup, []string{"makeup", "make up", "lipstick", "mascara", "eyeliner", "foundation", "blush", "concealer", "cosmetic"}},
	{Toys, []string{"toy", "lego", "doll", "puzzle", "plush", "action figure", "board game"}},
	{Clothing, []string{"shirt", "dress", "jacket", "pants", "jeans", "hoodie", "sweater", "skirt", "sock", "shorts", "coat"}},
	{Electronics, []string{"phone", "laptop", "tablet", "headphone", "earbud", "camera", "monitor", "keyboard", "mouse", "speaker", "charger", "tv", "watch"}},
}

var wordSplitter = regexp.MustCompile(`[^a-z0-9]+`)

// InferCategory derives a category from a product name, or Uncategorized
// when no keyword matches.
func InferCategory(name string) string {
	lower := strings.ToLower(name)
	padded := " " + strings.TrimSpace(wordSplitter.ReplaceAllString(lower, " ")) + " "
	for _, rule := range categoryKeywords {
		for _, w := range rule.words {
			if strings.Contains(padded, " "+w) {
				return rule.category
			}
		}
	}
	return Uncategorized
}

// ResolveCategory normalizes the source category and, when infer is set,
// lets a successful name-based inference override it.
func ResolveCategory(source, name string, infer bool) string {
	c := Category(source)
	if !infer {
		return c
	}
	if inferred := InferCategory(name); inferred != Uncategorized {
		return inferred
	}
	return c
}
