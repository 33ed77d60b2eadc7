package geojson

import "encoding/json"

// NormalizeGeometry returns g as a MultiPolygon, or nil when g cannot be
// stored.
//
// A Polygon is wrapped into a one-element MultiPolygon with its coordinates
// untouched; a MultiPolygon is returned as is. Anything else (points, lines,
// collections, a missing geometry or a shape without coordinates) yields nil
// and the caller skips the feature.
func NormalizeGeometry(g *Geometry) *Geometry {
	if g == nil || len(g.Coordinates) == 0 || string(g.Coordinates) == "null" {
		return nil
	}

	switch g.Type {
	case TypePolygon:
		coords := make(json.RawMessage, 0, len(g.Coordinates)+2)
		coords = append(coords, '[')
		coords = append(coords, g.Coordinates...)
		coords = append(coords, ']')
		return &Geometry{Type: TypeMultiPolygon, Coordinates: coords}
	case TypeMultiPolygon:
		return g
	default:
		return nil
	}
}
