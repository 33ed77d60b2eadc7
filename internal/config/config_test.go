package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	if cfg.DB.Host != "localhost" {
		t.Errorf("DB.Host = %q, want %q", cfg.DB.Host, "localhost")
	}
	if cfg.DB.Port != 5432 {
		t.Errorf("DB.Port = %d, want %d", cfg.DB.Port, 5432)
	}
	if cfg.Extension != ".geojson" {
		t.Errorf("Extension = %q, want %q", cfg.Extension, ".geojson")
	}
	if cfg.Table != "municipios" || cfg.Schema != "public" {
		t.Errorf("table = %s.%s, want public.municipios", cfg.Schema, cfg.Table)
	}
}

func TestApplyEnv_Overrides(t *testing.T) {
	t.Setenv("DB_HOST", "db.internal")
	t.Setenv("DB_PORT", "6543")
	t.Setenv("DB_NAME", "geo")
	t.Setenv("DB_USER", "loader")
	t.Setenv("DB_PASSWORD", "s3cret")
	t.Setenv("INPUT_DIR", "/data/municipios")
	t.Setenv("MUNICIPIOS_TABLE", "municipios_2024")
	t.Setenv("LOG_SQL", "true")

	cfg := Default()
	if err := ApplyEnv(&cfg); err != nil {
		t.Fatalf("ApplyEnv() error = %v", err)
	}

	if cfg.DB.Host != "db.internal" {
		t.Errorf("DB.Host = %q", cfg.DB.Host)
	}
	if cfg.DB.Port != 6543 {
		t.Errorf("DB.Port = %d", cfg.DB.Port)
	}
	if cfg.DB.Name != "geo" || cfg.DB.User != "loader" || cfg.DB.Password != "s3cret" {
		t.Errorf("DB = %+v", cfg.DB)
	}
	if cfg.InputDir != "/data/municipios" {
		t.Errorf("InputDir = %q", cfg.InputDir)
	}
	if cfg.Table != "municipios_2024" {
		t.Errorf("Table = %q", cfg.Table)
	}
	if !cfg.LogSQL {
		t.Error("LogSQL = false, want true")
	}
}

func TestApplyEnv_BadPort(t *testing.T) {
	t.Setenv("DB_PORT", "not-a-port")

	cfg := Default()
	if err := ApplyEnv(&cfg); err == nil {
		t.Fatal("expected error for non-numeric DB_PORT")
	}
}

func TestLoad_FileThenEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "municipios.yaml")
	content := `
db:
  host: filehost
  port: 5433
  name: filedb
  user: fileuser
input_dir: ./boundaries
extension: .json
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	for _, k := range []string{"DATABASE_URL", "DB_HOST", "DB_PORT", "DB_USER", "INPUT_DIR", "MUNICIPIOS_TABLE"} {
		t.Setenv(k, "")
	}
	t.Setenv("DB_NAME", "envdb")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.DB.Host != "filehost" || cfg.DB.Port != 5433 || cfg.DB.User != "fileuser" {
		t.Errorf("DB from file = %+v", cfg.DB)
	}
	if cfg.DB.Name != "envdb" {
		t.Errorf("DB.Name = %q, want env value %q", cfg.DB.Name, "envdb")
	}
	if cfg.InputDir != "./boundaries" || cfg.Extension != ".json" {
		t.Errorf("InputDir/Extension = %q/%q", cfg.InputDir, cfg.Extension)
	}
	// untouched by the file
	if cfg.Table != "municipios" {
		t.Errorf("Table = %q, want default", cfg.Table)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Fatal("expected error for missing config file")
	}
}

func TestValidate(t *testing.T) {
	valid := Default()
	valid.DB.Name = "geo"
	valid.DB.User = "loader"

	tests := []struct {
		name   string
		mutate func(*Config)
		want   error
	}{
		{"valid", func(*Config) {}, nil},
		{"no host", func(c *Config) { c.DB.Host = " " }, ErrMissingDBHost},
		{"port zero", func(c *Config) { c.DB.Port = 0 }, ErrInvalidDBPort},
		{"port too big", func(c *Config) { c.DB.Port = 70000 }, ErrInvalidDBPort},
		{"no db name", func(c *Config) { c.DB.Name = "" }, ErrMissingDBName},
		{"no user", func(c *Config) { c.DB.User = "" }, ErrMissingDBUser},
		{"no input dir", func(c *Config) { c.InputDir = "" }, ErrMissingInputDir},
		{"no table", func(c *Config) { c.Table = "" }, ErrMissingTable},
		{"dotted table", func(c *Config) { c.Table = "geo.municipios" }, ErrDottedName},
		{"dotted schema", func(c *Config) { c.Schema = "geo.v2" }, ErrDottedName},
		{"ext without dot", func(c *Config) { c.Extension = "geojson" }, ErrInvalidExt},
		{"bare dot", func(c *Config) { c.Extension = "." }, ErrInvalidExt},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid
			tt.mutate(&cfg)
			err := cfg.Validate()
			if !errors.Is(err, tt.want) {
				t.Errorf("Validate() = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestDSN(t *testing.T) {
	d := DB{Host: "localhost", Port: 5432, Name: "geo", User: "loader", Password: "p@ss:word"}
	dsn := d.DSN()

	if !strings.HasPrefix(dsn, "postgres://loader:") {
		t.Errorf("DSN = %q, want postgres://loader:... prefix", dsn)
	}
	if !strings.Contains(dsn, "p%40ss%3Aword@localhost:5432/geo") {
		t.Errorf("DSN = %q, password not escaped", dsn)
	}
	if !strings.HasSuffix(dsn, "?sslmode=disable") {
		t.Errorf("DSN = %q, want default sslmode=disable", dsn)
	}
}

func TestDSN_URLWins(t *testing.T) {
	d := DB{URL: "postgres://u:p@remote:5432/geo?sslmode=require", Host: "localhost", Port: 5432}
	if got := d.DSN(); got != d.URL {
		t.Errorf("DSN() = %q, want URL %q", got, d.URL)
	}
	// other fields are not checked when a URL is given
	if err := (DB{URL: d.URL}).Validate(); err != nil {
		t.Errorf("Validate() = %v, want nil", err)
	}
}

func TestDSN_NoPassword(t *testing.T) {
	d := DB{Host: "db", Port: 5432, Name: "geo", User: "loader", SSLMode: "require"}
	want := "postgres://loader@db:5432/geo?sslmode=require"
	if got := d.DSN(); got != want {
		t.Errorf("DSN() = %q, want %q", got, want)
	}
}
