package municipioimport

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/EmpoweredVote/municipios-import/internal/config"
	"github.com/google/uuid"
	"golang.org/x/time/rate"
)

var (
	ErrNoConnection = errors.New("database connection failed")
	ErrSchemaInit   = errors.New("schema initialization failed")
	ErrNoInputFiles = errors.New("no input files found")
)

// progressEvery throttles the progress lines on large directories.
const progressEvery = 5 * time.Second

// Run imports every boundary file in cfg.InputDir into PostGIS, replacing
// the previous contents of the table.
func Run(ctx context.Context, cfg config.Config) (Summary, error) {
	return RunWithConnector(ctx, cfg, OpenStore)
}

// RunWithConnector is Run with the store opened by connect.
//
// Files are imported one transaction each, in name order. The first file
// that fails is rolled back and ends the batch; files after it are not
// attempted. A returned error means the run aborted before any file was
// tried. File failures are reported in the Summary, not as an error.
func RunWithConnector(ctx context.Context, cfg config.Config, connect Connector) (sum Summary, err error) {
	start := time.Now()
	sum.RunID = uuid.New()

	store, err := connect(ctx, cfg)
	if err != nil {
		LogError("connect", err)
		return sum, fmt.Errorf("%w: %w", ErrNoConnection, err)
	}
	defer func() {
		if cerr := store.Close(); cerr != nil {
			LogError("close", cerr)
		}
		if err == nil {
			LogSummary(sum)
		}
	}()

	if err := store.EnsureSchema(ctx); err != nil {
		LogError("schema", err)
		return sum, fmt.Errorf("%w: %w", ErrSchemaInit, err)
	}

	files, err := ListInputFiles(cfg.InputDir, cfg.Extension)
	if err != nil {
		LogError("list input", err)
		return sum, fmt.Errorf("%w: %w", ErrNoInputFiles, err)
	}
	if len(files) == 0 {
		LogError("list input", fmt.Errorf("no %s files in %s", cfg.Extension, cfg.InputDir))
		return sum, ErrNoInputFiles
	}
	sum.Files = len(files)

	importFiles(ctx, store, files, &sum)

	// Statistics are a nicety; the rows are already committed.
	if err := store.Analyze(ctx); err != nil {
		LogError("optimize", err)
	}

	sum.Duration = time.Since(start)
	return sum, nil
}

// importFiles returns at the first file that fails.
func importFiles(ctx context.Context, store Store, files []string, sum *Summary) {
	progress := rate.Sometimes{First: 1, Interval: progressEvery}

	for i, path := range files {
		progress.Do(func() { LogProgress(i, len(files)) })

		name := filepath.Base(path)
		if err := importFile(ctx, store, path); err != nil {
			sum.Failed++
			sum.HaltedAt = name
			LogFileFailed(name, err)
			return
		}
		sum.Succeeded++
		LogFileImported(name)
	}
}

// importFile runs ProcessFile in its own transaction, committing on success
// and rolling back otherwise.
func importFile(ctx context.Context, store Store, path string) error {
	tx, err := store.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}

	if err := ProcessFile(ctx, tx, path); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			LogError("rollback "+filepath.Base(path), rbErr)
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			LogError("rollback "+filepath.Base(path), rbErr)
		}
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// ListInputFiles returns the regular files in dir whose name ends in ext,
// compared case-insensitively. os.ReadDir sorts by name, so runs over the
// same directory always visit files in the same order.
func ListInputFiles(dir, ext string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}

	ext = strings.ToLower(ext)
	var files []string
	for _, ent := range entries {
		if ent.IsDir() {
			continue
		}
		if strings.HasSuffix(strings.ToLower(ent.Name()), ext) {
			files = append(files, filepath.Join(dir, ent.Name()))
		}
	}
	return files, nil
}
