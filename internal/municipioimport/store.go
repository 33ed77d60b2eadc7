package municipioimport

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/EmpoweredVote/municipios-import/internal/config"
	"github.com/EmpoweredVote/municipios-import/internal/db"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Writer stores one municipality inside a transaction owned by the caller.
type Writer interface {
	InsertMunicipality(ctx context.Context, m Municipality) error
}

// Tx is the transaction a single file is imported in.
type Tx interface {
	Writer
	Commit() error
	Rollback() error
}

// Store is the boundary table as seen by the importer.
type Store interface {
	// EnsureSchema creates the table and indexes if needed and deletes
	// every existing row, committing both or neither.
	EnsureSchema(ctx context.Context) error
	Begin(ctx context.Context) (Tx, error)
	// Analyze refreshes table statistics after the import.
	Analyze(ctx context.Context) error
	Close() error
}

// Connector opens a Store for a run.
type Connector func(ctx context.Context, cfg config.Config) (Store, error)

type pgStore struct {
	db     *gorm.DB
	schema string
	table  string
}

// OpenStore connects to PostGIS. It is the Connector used by Run.
func OpenStore(ctx context.Context, cfg config.Config) (Store, error) {
	d, err := db.Connect(ctx, cfg.DB, cfg.LogSQL)
	if err != nil {
		return nil, err
	}
	return &pgStore{db: d, schema: cfg.Schema, table: cfg.Table}, nil
}

func (s *pgStore) EnsureSchema(ctx context.Context) error {
	tx := s.db.WithContext(ctx).Begin()
	if tx.Error != nil {
		return fmt.Errorf("begin: %w", tx.Error)
	}

	fail := func(step string, err error) error {
		if rbErr := tx.Rollback().Error; rbErr != nil {
			return fmt.Errorf("%s: %w (rollback: %v)", step, err, rbErr)
		}
		return fmt.Errorf("%s: %w", step, err)
	}

	if err := db.EnsureSchema(tx, s.schema); err != nil {
		return fail("create schema", err)
	}
	if err := db.EnsureMunicipiosTable(tx, s.schema, s.table); err != nil {
		return fail("create table", err)
	}
	removed, err := db.ClearTable(tx, s.schema, s.table)
	if err != nil {
		return fail("clear table", err)
	}
	if err := tx.Commit().Error; err != nil {
		return fail("commit", err)
	}

	log.Printf("%s table %s ready, %d previous rows deleted", logPrefix, s.qualified(), removed)
	return nil
}

func (s *pgStore) Begin(ctx context.Context) (Tx, error) {
	tx := s.db.WithContext(ctx).Begin()
	if tx.Error != nil {
		return nil, tx.Error
	}
	return &pgTx{tx: tx, table: s.qualified()}, nil
}

func (s *pgStore) Analyze(ctx context.Context) error {
	log.Printf("%s optimizing %s", logPrefix, s.qualified())
	return db.Analyze(s.db.WithContext(ctx), s.schema, s.table)
}

func (s *pgStore) Close() error {
	return db.Close(s.db)
}

// qualified returns schema.table unquoted; gorm quotes each part itself.
func (s *pgStore) qualified() string {
	if s.schema == "" {
		return s.table
	}
	return s.schema + "." + s.table
}

type pgTx struct {
	tx    *gorm.DB
	table string
}

const insertSavepoint = "municipio_insert"

// InsertMunicipality inserts m and lets PostGIS parse the shape text. The
// insert runs under a savepoint so a rejected shape leaves the file
// transaction usable for the next feature.
func (t *pgTx) InsertMunicipality(ctx context.Context, m Municipality) error {
	text, err := m.Geometry.Text()
	if err != nil {
		LogWriteError(m.INE, err)
		return fmt.Errorf("insert municipio %s: %w", m.INE, err)
	}
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}

	tx := t.tx.WithContext(ctx)
	if err := tx.SavePoint(insertSavepoint).Error; err != nil {
		LogWriteError(m.INE, err)
		return fmt.Errorf("insert municipio %s: savepoint: %w", m.INE, err)
	}

	err = tx.Table(t.table).Create(map[string]any{
		"uuid":      m.ID,
		"ine":       m.INE,
		"nombre":    m.Name,
		"geometria": gorm.Expr("ST_SetSRID(ST_GeomFromGeoJSON(?), 4326)", text),
	}).Error
	if err != nil {
		if rbErr := tx.RollbackTo(insertSavepoint).Error; rbErr != nil {
			err = errors.Join(err, rbErr)
		}
		LogWriteError(m.INE, err)
		return fmt.Errorf("insert municipio %s: %w", m.INE, err)
	}
	return nil
}

func (t *pgTx) Commit() error {
	return t.tx.Commit().Error
}

func (t *pgTx) Rollback() error {
	return t.tx.Rollback().Error
}
