package geojson

import (
	"encoding/json"
	"strconv"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// ExtractedProperties is the subset of OSM tags the importer looks at.
// Only Name is persisted today.
type ExtractedProperties struct {
	INEMunicipio string
	Name         string
	NameES       string
	NameEU       string
	Population   *int64
	Wikidata     string
	Wikipedia    string
}

// ExtractProperties reads the known tags out of a feature's properties.
// Missing or mistyped tags come back empty; it never fails.
func ExtractProperties(p map[string]any) ExtractedProperties {
	return ExtractedProperties{
		INEMunicipio: tag(p, "ine:municipio"),
		Name:         tag(p, "name"),
		NameES:       tagOr(p, "name:es", "alt_name:es"),
		NameEU:       tag(p, "name:eu"),
		Population:   population(p["population"]),
		Wikidata:     tag(p, "wikidata"),
		Wikipedia:    tagOr(p, "wikipedia", "wikipedia:es"),
	}
}

func tag(p map[string]any, key string) string {
	s, ok := p[key].(string)
	if !ok {
		return ""
	}
	return norm.NFC.String(strings.TrimSpace(s))
}

// tagOr reads key, and falls back to alt only when key is absent.
// A present-but-empty key does not fall back.
func tagOr(p map[string]any, key, alt string) string {
	if _, ok := p[key]; ok {
		return tag(p, key)
	}
	return tag(p, alt)
}

func population(v any) *int64 {
	var n int64
	switch x := v.(type) {
	case json.Number:
		if i, err := x.Int64(); err == nil {
			n = i
		} else if f, err := x.Float64(); err == nil && inInt64Range(f) {
			n = int64(f)
		} else {
			return nil
		}
	case float64:
		if !inInt64Range(x) {
			return nil
		}
		n = int64(x)
	case int:
		n = int64(x)
	case int64:
		n = x
	case string:
		s := strings.TrimSpace(x)
		if s == "" {
			return nil
		}
		i, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return nil
		}
		return &i
	default:
		return nil
	}
	if n == 0 {
		return nil
	}
	return &n
}

// inInt64Range reports whether f converts to int64 without overflow.
// NaN and the infinities are out of range.
func inInt64Range(f float64) bool {
	return f >= -(1<<63) && f < 1<<63
}
