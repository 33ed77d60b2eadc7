package db

import (
	"fmt"

	"github.com/lib/pq"
	"gorm.io/gorm"
)

// EnsureSchema creates schema unless it already exists. "public" and the
// empty string are left alone.
func EnsureSchema(d *gorm.DB, schema string) error {
	if schema == "" || schema == "public" {
		return nil
	}
	return d.Exec(`CREATE SCHEMA IF NOT EXISTS ` + pq.QuoteIdentifier(schema)).Error
}

// QualifiedTable returns the quoted "schema"."table" name.
func QualifiedTable(schema, table string) string {
	if schema == "" {
		return pq.QuoteIdentifier(table)
	}
	return pq.QuoteIdentifier(schema) + "." + pq.QuoteIdentifier(table)
}

// EnsureMunicipiosTable creates the boundary table and its indexes if they
// are missing. Existing tables are not altered.
func EnsureMunicipiosTable(d *gorm.DB, schema, table string) error {
	qt := QualifiedTable(schema, table)
	stmts := []string{
		fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				"uuid" uuid DEFAULT gen_random_uuid() PRIMARY KEY,
				ine VARCHAR(10) NOT NULL UNIQUE,
				nombre VARCHAR(255),
				geometria GEOMETRY(MultiPolygon, 4326)
			)`, qt),
		fmt.Sprintf(`CREATE INDEX IF NOT EXISTS %s ON %s USING GIST (geometria)`,
			pq.QuoteIdentifier("idx_"+table+"_geom"), qt),
		fmt.Sprintf(`CREATE INDEX IF NOT EXISTS %s ON %s (ine)`,
			pq.QuoteIdentifier("idx_"+table+"_ine"), qt),
	}
	for i, s := range stmts {
		if err := d.Exec(s).Error; err != nil {
			return fmt.Errorf("schema statement %d: %w", i, err)
		}
	}
	return nil
}

// ClearTable deletes every row of the table. Each run replaces the previous
// contents.
func ClearTable(d *gorm.DB, schema, table string) (int64, error) {
	res := d.Exec(`DELETE FROM ` + QualifiedTable(schema, table))
	return res.RowsAffected, res.Error
}

// Analyze refreshes planner statistics for the table. VACUUM refuses to run
// inside a transaction, so d must not be one.
func Analyze(d *gorm.DB, schema, table string) error {
	return d.Exec(`VACUUM ANALYZE ` + QualifiedTable(schema, table)).Error
}
