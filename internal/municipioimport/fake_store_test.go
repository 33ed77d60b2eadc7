package municipioimport

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/EmpoweredVote/municipios-import/internal/config"
)

// fakeStore implements Store in memory. Committed rows are keyed by ine and,
// like the real table, ine is unique.
type fakeStore struct {
	schemaErr  error
	beginErr   error
	analyzeErr error
	commitErr  error
	// insertErr fails every insert whose ine matches.
	insertErr map[string]error

	rows      map[string]Municipality
	schemaRun int
	began     int
	commits   int
	rollbacks int
	analyzed  bool
	closed    bool
	// attempted lists the ines of every insert, in order.
	attempted []string
}

func newFakeStore() *fakeStore {
	return &fakeStore{rows: map[string]Municipality{}, insertErr: map[string]error{}}
}

func (s *fakeStore) connector() Connector {
	return func(context.Context, config.Config) (Store, error) { return s, nil }
}

func (s *fakeStore) EnsureSchema(context.Context) error {
	s.schemaRun++
	if s.schemaErr != nil {
		return s.schemaErr
	}
	s.rows = map[string]Municipality{}
	return nil
}

func (s *fakeStore) Begin(context.Context) (Tx, error) {
	if s.beginErr != nil {
		return nil, s.beginErr
	}
	s.began++
	return &fakeTx{store: s}, nil
}

func (s *fakeStore) Analyze(context.Context) error {
	s.analyzed = true
	return s.analyzeErr
}

func (s *fakeStore) Close() error {
	s.closed = true
	return nil
}

type fakeTx struct {
	store   *fakeStore
	pending []Municipality
}

func (t *fakeTx) InsertMunicipality(_ context.Context, m Municipality) error {
	t.store.attempted = append(t.store.attempted, m.INE)
	if err := t.store.insertErr[m.INE]; err != nil {
		return err
	}
	if _, dup := t.store.rows[m.INE]; dup {
		return errors.New("duplicate key value violates unique constraint")
	}
	for _, p := range t.pending {
		if p.INE == m.INE {
			return errors.New("duplicate key value violates unique constraint")
		}
	}
	t.pending = append(t.pending, m)
	return nil
}

func (t *fakeTx) Commit() error {
	if t.store.commitErr != nil {
		return t.store.commitErr
	}
	t.store.commits++
	for _, m := range t.pending {
		t.store.rows[m.INE] = m
	}
	t.pending = nil
	return nil
}

func (t *fakeTx) Rollback() error {
	t.store.rollbacks++
	t.pending = nil
	return nil
}

// recordingWriter captures what ProcessFile hands to the store.
type recordingWriter struct {
	errs    []error
	written []Municipality
	calls   int
}

func (w *recordingWriter) InsertMunicipality(_ context.Context, m Municipality) error {
	w.calls++
	if len(w.errs) > 0 {
		err := w.errs[0]
		w.errs = w.errs[1:]
		if err != nil {
			return err
		}
	}
	w.written = append(w.written, m)
	return nil
}

const (
	polygonFeature = `{"type":"Feature","properties":{"name":"Bilbao","ine:municipio":"48020"},` +
		`"geometry":{"type":"Polygon","coordinates":[[[-2.93,43.26],[-2.92,43.26],[-2.92,43.27],[-2.93,43.26]]]}}`
	multiPolygonFeature = `{"type":"Feature","properties":{"name":"Getxo"},` +
		`"geometry":{"type":"MultiPolygon","coordinates":[[[[-3.01,43.33],[-3.00,43.33],[-3.00,43.34],[-3.01,43.33]]]]}}`
	pointFeature = `{"type":"Feature","properties":{"name":"centroid"},"geometry":{"type":"Point","coordinates":[-2.93,43.26]}}`
	nullFeature  = `{"type":"Feature","properties":{},"geometry":null}`
)

func collection(features ...string) string {
	out := `{"type":"FeatureCollection","features":[`
	for i, f := range features {
		if i > 0 {
			out += ","
		}
		out += f
	}
	return out + "]}"
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

func testConfig(dir string) config.Config {
	cfg := config.Default()
	cfg.InputDir = dir
	return cfg
}
