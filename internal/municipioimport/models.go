package municipioimport

import (
	"time"

	"github.com/EmpoweredVote/municipios-import/internal/geojson"
	"github.com/google/uuid"
)

// Municipality is one row of the boundary table.
type Municipality struct {
	ID       uuid.UUID
	INE      string
	Name     string
	Geometry *geojson.Geometry

	// Everything read from the feature's tags. Not persisted.
	Properties geojson.ExtractedProperties
}

// Summary describes the outcome of one run.
type Summary struct {
	RunID     uuid.UUID
	Files     int
	Succeeded int
	Failed    int
	// HaltedAt is the file that stopped the batch, empty when every file
	// was imported.
	HaltedAt string
	Duration time.Duration
}

// Skipped is the number of files never attempted because the batch halted.
func (s Summary) Skipped() int {
	return s.Files - s.Succeeded - s.Failed
}
