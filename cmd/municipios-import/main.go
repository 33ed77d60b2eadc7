package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/EmpoweredVote/municipios-import/internal/config"
	"github.com/EmpoweredVote/municipios-import/internal/municipioimport"
	"github.com/joho/godotenv"
)

// Exit codes, so scripts can tell why a run stopped.
const (
	exitOK           = 0
	exitError        = 1
	exitUsage        = 2
	exitNoConnection = 3
	exitSchema       = 4
	exitNoInput      = 5
)

type cliFlags struct {
	config     string
	dbHost     string
	dbPort     int
	dbName     string
	dbUser     string
	dbPassword string
	dbSSLMode  string
	inputDir   string
	ext        string
	schema     string
	table      string
	logSQL     bool
}

func (f *cliFlags) register(fs *flag.FlagSet) {
	fs.StringVar(&f.config, "config", os.Getenv("MUNICIPIOS_CONFIG"), "YAML config file (default: env MUNICIPIOS_CONFIG)")
	fs.StringVar(&f.dbHost, "db-host", "", "database host (env DB_HOST, default localhost)")
	fs.IntVar(&f.dbPort, "db-port", 0, "database port (env DB_PORT, default 5432)")
	fs.StringVar(&f.dbName, "db-name", "", "database name (env DB_NAME)")
	fs.StringVar(&f.dbUser, "db-user", "", "database user (env DB_USER)")
	fs.StringVar(&f.dbPassword, "db-password", "", "database password (env DB_PASSWORD)")
	fs.StringVar(&f.dbSSLMode, "db-sslmode", "", "sslmode (env DB_SSLMODE, default disable)")
	fs.StringVar(&f.inputDir, "input-dir", "", "directory with one boundary file per municipality (env INPUT_DIR, default output)")
	fs.StringVar(&f.ext, "ext", "", "extension of the files to import (default .geojson)")
	fs.StringVar(&f.schema, "schema", "", "target schema (env MUNICIPIOS_SCHEMA, default public)")
	fs.StringVar(&f.table, "table", "", "target table (env MUNICIPIOS_TABLE, default municipios)")
	fs.BoolVar(&f.logSQL, "log-sql", false, "log every SQL statement (env LOG_SQL)")
}

// apply copies the flags that were set on the command line onto cfg.
// Unset flags leave the file/env values alone.
func (f *cliFlags) apply(fs *flag.FlagSet, cfg *config.Config) {
	fs.Visit(func(fl *flag.Flag) {
		switch fl.Name {
		case "db-host":
			cfg.DB.Host = f.dbHost
		case "db-port":
			cfg.DB.Port = f.dbPort
		case "db-name":
			cfg.DB.Name = f.dbName
		case "db-user":
			cfg.DB.User = f.dbUser
		case "db-password":
			cfg.DB.Password = f.dbPassword
		case "db-sslmode":
			cfg.DB.SSLMode = f.dbSSLMode
		case "input-dir":
			cfg.InputDir = f.inputDir
		case "ext":
			cfg.Extension = f.ext
		case "schema":
			cfg.Schema = f.schema
		case "table":
			cfg.Table = f.table
		case "log-sql":
			cfg.LogSQL = f.logSQL
		}
	})
}

func exitCode(err error) int {
	switch {
	case err == nil:
		return exitOK
	case errors.Is(err, municipioimport.ErrNoConnection):
		return exitNoConnection
	case errors.Is(err, municipioimport.ErrSchemaInit):
		return exitSchema
	case errors.Is(err, municipioimport.ErrNoInputFiles):
		return exitNoInput
	default:
		return exitError
	}
}

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	_ = godotenv.Load(".env.local")

	fs := flag.NewFlagSet("municipios-import", flag.ContinueOnError)
	var f cliFlags
	f.register(fs)
	if err := fs.Parse(args); err != nil {
		return exitUsage
	}

	cfg, err := config.Load(f.config)
	if err != nil {
		log.Printf("❌ config: %v", err)
		return exitUsage
	}
	f.apply(fs, &cfg)
	if err := cfg.Validate(); err != nil {
		log.Printf("❌ config: %v", err)
		fs.Usage()
		return exitUsage
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	sum, err := municipioimport.Run(ctx, cfg)
	if err != nil {
		log.Printf("❌ Import aborted: %v", err)
		return exitCode(err)
	}

	fmt.Printf("\n✅ Import finished. Succeeded: %d, ❌ Failed: %d, not attempted: %d\n",
		sum.Succeeded, sum.Failed, sum.Skipped())
	return exitOK
}
