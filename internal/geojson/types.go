// Package geojson decodes the boundary files produced by the OSM municipality
// export and normalizes their shapes for PostGIS.
//
// Coordinates are never decoded: they are carried as raw JSON and handed to
// the database, which parses and validates them (ST_GeomFromGeoJSON).
package geojson

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"unicode/utf8"
)

const (
	TypeFeatureCollection = "FeatureCollection"
	TypePolygon           = "Polygon"
	TypeMultiPolygon      = "MultiPolygon"
)

var (
	ErrNotFeatureCollection = errors.New("top-level type is not FeatureCollection")
	ErrNoFeatures           = errors.New("feature collection has no features")
	ErrInvalidUTF8          = errors.New("document is not valid UTF-8")
	ErrTrailingData         = errors.New("unexpected data after the document")
)

type FeatureCollection struct {
	Type     string    `json:"type"`
	Features []Feature `json:"features"`
}

type Feature struct {
	Type       string         `json:"type"`
	Properties map[string]any `json:"properties"`
	Geometry   *Geometry      `json:"geometry"`
}

// Geometry keeps the coordinates exactly as they appeared in the source.
type Geometry struct {
	Type        string          `json:"type"`
	Coordinates json.RawMessage `json:"coordinates"`
}

// Text returns the GeoJSON text of g as sent to the store.
func (g *Geometry) Text() (string, error) {
	if g == nil {
		return "", errors.New("nil geometry")
	}
	b, err := json.Marshal(g)
	if err != nil {
		return "", fmt.Errorf("encode %s geometry: %w", g.Type, err)
	}
	return string(b), nil
}

// ParseCollection decodes a single GeoJSON document and checks that it is a
// FeatureCollection with at least one feature.
func ParseCollection(data []byte) (*FeatureCollection, error) {
	// encoding/json would silently replace bad bytes with U+FFFD.
	if !utf8.Valid(data) {
		return nil, ErrInvalidUTF8
	}

	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var fc FeatureCollection
	if err := dec.Decode(&fc); err != nil {
		return nil, fmt.Errorf("decode geojson: %w", err)
	}
	if _, err := dec.Token(); err != io.EOF {
		return nil, ErrTrailingData
	}
	if fc.Type != TypeFeatureCollection {
		return nil, fmt.Errorf("%w (got %q)", ErrNotFeatureCollection, fc.Type)
	}
	if len(fc.Features) == 0 {
		return nil, ErrNoFeatures
	}
	return &fc, nil
}
