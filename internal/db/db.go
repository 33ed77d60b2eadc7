package db

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/EmpoweredVote/municipios-import/internal/config"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Connect opens the PostGIS database described by cfg.
//
// The returned handle owns exactly one connection and never opens implicit
// transactions: every write the importer makes happens inside a transaction
// it begins and ends itself.
func Connect(ctx context.Context, cfg config.DB, logSQL bool) (*gorm.DB, error) {
	level := logger.Warn
	if logSQL {
		level = logger.Info
	}

	// Slow inserts usually mean a huge boundary; surface them.
	lg := logger.New(
		log.New(os.Stdout, "\r\n", log.LstdFlags),
		logger.Config{
			SlowThreshold:             500 * time.Millisecond,
			LogLevel:                  level,
			IgnoreRecordNotFoundError: true,
			Colorful:                  false,
		},
	)

	d, err := gorm.Open(postgres.Open(cfg.DSN()), &gorm.Config{
		Logger:                 lg,
		SkipDefaultTransaction: true,
		DisableAutomaticPing:   true,
	})
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", target(cfg), err)
	}

	sqlDB, err := d.DB()
	if err != nil {
		return nil, fmt.Errorf("get sql.DB: %w", err)
	}

	sqlDB.SetMaxOpenConns(1)
	sqlDB.SetMaxIdleConns(1)
	sqlDB.SetConnMaxLifetime(0)

	if err := sqlDB.PingContext(ctx); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping %s: %w", target(cfg), err)
	}

	log.Printf("Connected to database %s", target(cfg))
	return d, nil
}

// target names the database in logs without leaking the password.
func target(cfg config.DB) string {
	if cfg.URL != "" {
		return "from DATABASE_URL"
	}
	return fmt.Sprintf("%s@%s:%d/%s", cfg.User, cfg.Host, cfg.Port, cfg.Name)
}

// Close releases the connection behind d.
func Close(d *gorm.DB) error {
	sqlDB, err := d.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
