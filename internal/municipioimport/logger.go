package municipioimport

import (
	"errors"
	"log"

	"github.com/jackc/pgx/v5/pgconn"
)

const logPrefix = "[municipios]"

// LogFileImported logs a committed file.
func LogFileImported(file string) {
	log.Printf("%s ✅ imported %s", logPrefix, file)
}

// LogFileFailed logs a rolled back file.
func LogFileFailed(file string, err error) {
	log.Printf("%s ❌ failed %s: %v", logPrefix, file, err)
}

// LogSkippedFeature logs a feature whose geometry cannot be stored.
func LogSkippedFeature(file string, index int, geomType string) {
	if geomType == "" {
		geomType = "missing"
	}
	log.Printf("%s %s feature %d skipped: unsupported or missing geometry (%s)", logPrefix, file, index, geomType)
}

// LogWriteError logs a failed insert. Postgres errors carry their SQLSTATE
// code and detail, which is usually enough to tell a duplicate ine from a
// broken ring.
func LogWriteError(ine string, err error) {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		log.Printf("%s insert %s failed: %s (sqlstate=%s detail=%q)",
			logPrefix, ine, pgErr.Message, pgErr.Code, pgErr.Detail)
		return
	}
	log.Printf("%s insert %s failed: %v", logPrefix, ine, err)
}

// LogError logs an error from a step of the run.
func LogError(operation string, err error) {
	log.Printf("%s %s error: %v", logPrefix, operation, err)
}

// LogProgress logs how far the batch has got.
func LogProgress(done, total int) {
	log.Printf("%s importing municipalities: %d/%d", logPrefix, done, total)
}

// LogSummary logs the final counts of a run.
func LogSummary(s Summary) {
	log.Printf("%s run %s done in %dms: succeeded=%d failed=%d skipped=%d files=%d",
		logPrefix, s.RunID, s.Duration.Milliseconds(), s.Succeeded, s.Failed, s.Skipped(), s.Files)
	if s.HaltedAt != "" {
		log.Printf("%s batch halted at %s", logPrefix, s.HaltedAt)
	}
}
