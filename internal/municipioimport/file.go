package municipioimport

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/EmpoweredVote/municipios-import/internal/geojson"
	"github.com/google/uuid"
)

var (
	ErrInvalidFile    = errors.New("invalid boundary file")
	ErrNoValidFeature = errors.New("no feature could be stored")
)

// INEFromPath returns the municipality code for a boundary file: its base
// name without the extension ("out/48020.geojson" -> "48020").
func INEFromPath(path string) string {
	base := filepath.Base(path)
	stem := strings.TrimSuffix(base, filepath.Ext(base))
	if stem == "" {
		return base
	}
	return stem
}

// ProcessFile imports one boundary file through w.
//
// Features are tried in order; those without a Polygon or MultiPolygon are
// skipped. The first feature that is written wins and the rest of the file
// is ignored. ProcessFile never commits or rolls back.
func ProcessFile(ctx context.Context, w Writer, path string) error {
	name := filepath.Base(path)

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("%w %s: %w", ErrInvalidFile, name, err)
	}
	fc, err := geojson.ParseCollection(data)
	if err != nil {
		return fmt.Errorf("%w %s: %w", ErrInvalidFile, name, err)
	}

	ine := INEFromPath(path)

	var lastErr error
	for i, f := range fc.Features {
		props := geojson.ExtractProperties(f.Properties)

		shape := geojson.NormalizeGeometry(f.Geometry)
		if shape == nil {
			LogSkippedFeature(name, i, geometryType(f.Geometry))
			continue
		}

		m := Municipality{
			ID:         uuid.New(),
			INE:        ine,
			Name:       props.Name,
			Geometry:   shape,
			Properties: props,
		}
		if err := w.InsertMunicipality(ctx, m); err != nil {
			lastErr = err
			continue
		}
		return nil
	}

	if lastErr != nil {
		return fmt.Errorf("%w in %s: %w", ErrNoValidFeature, name, lastErr)
	}
	return fmt.Errorf("%w in %s", ErrNoValidFeature, name)
}

func geometryType(g *geojson.Geometry) string {
	if g == nil {
		return ""
	}
	return g.Type
}
