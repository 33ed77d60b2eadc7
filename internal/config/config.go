package config

import (
	"errors"
	"fmt"
	"net"
	"net/url"
	"os"
	"strconv"
	"strings"

	"github.com/goccy/go-yaml"
)

var (
	ErrMissingDBHost   = errors.New("database host is required (DB_HOST / -db-host)")
	ErrMissingDBName   = errors.New("database name is required (DB_NAME / -db-name)")
	ErrMissingDBUser   = errors.New("database user is required (DB_USER / -db-user)")
	ErrInvalidDBPort   = errors.New("database port must be between 1 and 65535")
	ErrMissingInputDir = errors.New("input directory is required (INPUT_DIR / -input-dir)")
	ErrMissingTable    = errors.New("target table name is required")
	ErrInvalidExt      = errors.New("file extension must start with a dot, e.g. .geojson")
	ErrDottedName      = errors.New("schema and table names must not contain dots")
)

// DB holds the connection parameters for the PostGIS database.
type DB struct {
	// URL, when set, is used as is and the other fields are ignored.
	URL string `yaml:"url"`

	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Name     string `yaml:"name"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	SSLMode  string `yaml:"sslmode"`
}

// Config holds everything one import run needs.
type Config struct {
	DB DB `yaml:"db"`

	// Directory scanned for boundary files (non-recursive).
	InputDir string `yaml:"input_dir"`
	// Extension of the files to import, matched case-insensitively.
	Extension string `yaml:"extension"`

	Schema string `yaml:"schema"`
	Table  string `yaml:"table"`

	// LogSQL makes gorm log every statement instead of only slow ones.
	LogSQL bool `yaml:"log_sql"`
}

const (
	DefaultExtension = ".geojson"
	DefaultSchema    = "public"
	DefaultTable     = "municipios"
)

// Default returns the configuration used when nothing else is set.
func Default() Config {
	return Config{
		DB: DB{
			Host:    "localhost",
			Port:    5432,
			SSLMode: "disable",
		},
		InputDir:  "output",
		Extension: DefaultExtension,
		Schema:    DefaultSchema,
		Table:     DefaultTable,
	}
}

// LoadFile overlays the YAML file at path onto cfg. Keys missing from the
// file keep their current values.
func LoadFile(cfg *Config, path string) error {
	b, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(b, cfg); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}
	return nil
}

// ApplyEnv overlays environment variables onto cfg.
//
// Environment variables:
//   - DATABASE_URL: full connection URL, wins over the DB_* variables
//   - DB_HOST, DB_PORT, DB_NAME, DB_USER, DB_PASSWORD, DB_SSLMODE
//   - INPUT_DIR: directory with the boundary files
//   - MUNICIPIOS_SCHEMA, MUNICIPIOS_TABLE: target table (default public.municipios)
//   - LOG_SQL: "true"/"1" to log every SQL statement
func ApplyEnv(cfg *Config) error {
	setString(&cfg.DB.URL, "DATABASE_URL")
	setString(&cfg.DB.Host, "DB_HOST")
	setString(&cfg.DB.Name, "DB_NAME")
	setString(&cfg.DB.User, "DB_USER")
	setString(&cfg.DB.Password, "DB_PASSWORD")
	setString(&cfg.DB.SSLMode, "DB_SSLMODE")
	setString(&cfg.InputDir, "INPUT_DIR")
	setString(&cfg.Schema, "MUNICIPIOS_SCHEMA")
	setString(&cfg.Table, "MUNICIPIOS_TABLE")

	if v := strings.TrimSpace(os.Getenv("DB_PORT")); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("DB_PORT: %w", err)
		}
		cfg.DB.Port = n
	}
	if v := strings.TrimSpace(os.Getenv("LOG_SQL")); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("LOG_SQL: %w", err)
		}
		cfg.LogSQL = b
	}
	return nil
}

// Load builds a Config from defaults, the optional YAML file and the
// environment, in that order. It does not validate; callers apply their
// own overrides (flags) first and then call Validate.
func Load(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		if err := LoadFile(&cfg, path); err != nil {
			return cfg, err
		}
	}
	if err := ApplyEnv(&cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func setString(dst *string, key string) {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		*dst = v
	}
}

// Validate checks that the configuration can be used for a run.
func (c Config) Validate() error {
	if err := c.DB.Validate(); err != nil {
		return err
	}
	switch {
	case strings.TrimSpace(c.InputDir) == "":
		return ErrMissingInputDir
	case strings.TrimSpace(c.Table) == "":
		return ErrMissingTable
	case strings.Contains(c.Table, "."), strings.Contains(c.Schema, "."):
		return ErrDottedName
	case !strings.HasPrefix(c.Extension, ".") || len(c.Extension) < 2:
		return ErrInvalidExt
	}
	return nil
}

// Validate checks the connection parameters. A URL skips the other checks;
// the driver reports what is wrong with it.
func (d DB) Validate() error {
	if strings.TrimSpace(d.URL) != "" {
		return nil
	}
	switch {
	case strings.TrimSpace(d.Host) == "":
		return ErrMissingDBHost
	case d.Port < 1 || d.Port > 65535:
		return ErrInvalidDBPort
	case strings.TrimSpace(d.Name) == "":
		return ErrMissingDBName
	case strings.TrimSpace(d.User) == "":
		return ErrMissingDBUser
	}
	return nil
}

// DSN renders the connection parameters as a postgres:// URL.
func (d DB) DSN() string {
	if strings.TrimSpace(d.URL) != "" {
		return strings.TrimSpace(d.URL)
	}
	u := url.URL{
		Scheme: "postgres",
		Host:   net.JoinHostPort(d.Host, strconv.Itoa(d.Port)),
		Path:   "/" + d.Name,
	}
	if d.Password != "" {
		u.User = url.UserPassword(d.User, d.Password)
	} else {
		u.User = url.User(d.User)
	}
	ssl := d.SSLMode
	if ssl == "" {
		ssl = "disable"
	}
	u.RawQuery = url.Values{"sslmode": {ssl}}.Encode()
	return u.String()
}
