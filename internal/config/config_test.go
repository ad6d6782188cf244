package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

const fullYAML = `
client: PROMIGAS
study_id_prefix: HZ
study_id_year: 2025
catalog_file: catalog.yaml

database:
  driver: mysql
  host: 10.0.0.5
  port: 3307
  database: hazstudy_prod
  user: hz
  password: secret

server:
  port: 9090

digest:
  enabled: true
  cron: "30 6 * * *"
`

const minimalYAML = `
client: ACME
`

func TestParse_FullConfig(t *testing.T) {
	cfg, err := Parse([]byte(fullYAML))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Client != "PROMIGAS" {
		t.Errorf("Client = %q, want %q", cfg.Client, "PROMIGAS")
	}
	if cfg.StudyIDPrefix != "HZ" {
		t.Errorf("StudyIDPrefix = %q, want %q", cfg.StudyIDPrefix, "HZ")
	}
	if cfg.StudyIDYear != 2025 {
		t.Errorf("StudyIDYear = %d, want 2025", cfg.StudyIDYear)
	}
	if cfg.CatalogFile != "catalog.yaml" {
		t.Errorf("CatalogFile = %q, want %q", cfg.CatalogFile, "catalog.yaml")
	}
	if cfg.Database.Driver != DriverMySQL {
		t.Errorf("Database.Driver = %q, want %q", cfg.Database.Driver, DriverMySQL)
	}
	if cfg.Database.Host != "10.0.0.5" || cfg.Database.Port != 3307 {
		t.Errorf("Database host:port = %s:%d, want 10.0.0.5:3307", cfg.Database.Host, cfg.Database.Port)
	}
	if cfg.Database.User != "hz" || cfg.Database.Password != "secret" {
		t.Errorf("Database credentials = %q/%q, want hz/secret", cfg.Database.User, cfg.Database.Password)
	}
	if cfg.Server.Port != 9090 {
		t.Errorf("Server.Port = %d, want 9090", cfg.Server.Port)
	}
	if !cfg.Digest.Enabled || cfg.Digest.Cron != "30 6 * * *" {
		t.Errorf("Digest = %+v, want enabled with cron 30 6 * * *", cfg.Digest)
	}
}

func TestParse_MinimalDefaults(t *testing.T) {
	cfg, err := Parse([]byte(minimalYAML))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.StudyIDPrefix != "ST" {
		t.Errorf("StudyIDPrefix = %q, want default %q", cfg.StudyIDPrefix, "ST")
	}
	if cfg.StudyIDYear != time.Now().Year() {
		t.Errorf("StudyIDYear = %d, want current year", cfg.StudyIDYear)
	}
	if cfg.Database.Driver != DriverSQLite {
		t.Errorf("Database.Driver = %q, want %q", cfg.Database.Driver, DriverSQLite)
	}
	if cfg.Database.Path != "hazstudy.db" {
		t.Errorf("Database.Path = %q, want %q", cfg.Database.Path, "hazstudy.db")
	}
	if cfg.Server.Port != 8080 {
		t.Errorf("Server.Port = %d, want 8080", cfg.Server.Port)
	}
	if cfg.Digest.Enabled {
		t.Error("Digest should be disabled by default")
	}
}

func TestParse_MySQLDefaults(t *testing.T) {
	cfg, err := Parse([]byte("database:\n  driver: mysql\n"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Database.Host != "127.0.0.1" {
		t.Errorf("Database.Host = %q, want 127.0.0.1", cfg.Database.Host)
	}
	if cfg.Database.Port != 3306 {
		t.Errorf("Database.Port = %d, want 3306", cfg.Database.Port)
	}
	if cfg.Database.User != "root" {
		t.Errorf("Database.User = %q, want root", cfg.Database.User)
	}
	if cfg.Database.Database != "hazstudy" {
		t.Errorf("Database.Database = %q, want hazstudy", cfg.Database.Database)
	}
}

func TestParse_DigestDefaultCron(t *testing.T) {
	cfg, err := Parse([]byte("digest:\n  enabled: true\n"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Digest.Cron != "0 7 * * 1-5" {
		t.Errorf("Digest.Cron = %q, want default", cfg.Digest.Cron)
	}
}

func TestParse_ValidationErrors(t *testing.T) {
	tests := []struct {
		name    string
		yaml    string
		wantErr string
	}{
		{
			name:    "unknown driver",
			yaml:    "database:\n  driver: oracle\n",
			wantErr: "database.driver",
		},
		{
			name:    "prefix with space",
			yaml:    "study_id_prefix: \"S T\"\n",
			wantErr: "study_id_prefix",
		},
		{
			name:    "year out of range",
			yaml:    "study_id_year: 12\n",
			wantErr: "study_id_year",
		},
		{
			name:    "port out of range",
			yaml:    "server:\n  port: 70000\n",
			wantErr: "server.port",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.yaml))
			if err == nil {
				t.Fatal("expected validation error")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error = %q, want to contain %q", err.Error(), tt.wantErr)
			}
		})
	}
}

func TestParse_InvalidYAML(t *testing.T) {
	_, err := Parse([]byte("client: [unterminated"))
	if err == nil {
		t.Fatal("expected parse error")
	}
	if !strings.Contains(err.Error(), "config: parse") {
		t.Errorf("error = %q, want config: parse prefix", err.Error())
	}
}

func TestLoad_ExpandsEnvironment(t *testing.T) {
	t.Setenv("HZ_TEST_DB_PASSWORD", "from-env")
	dir := t.TempDir()
	path := filepath.Join(dir, "hazstudy.yaml")
	content := "database:\n  driver: mysql\n  password: ${HZ_TEST_DB_PASSWORD}\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Database.Password != "from-env" {
		t.Errorf("Database.Password = %q, want %q", cfg.Database.Password, "from-env")
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	if err == nil {
		t.Fatal("expected error for missing file")
	}
	if !strings.Contains(err.Error(), "config: read") {
		t.Errorf("error = %q, want config: read prefix", err.Error())
	}
}

func TestDefault(t *testing.T) {
	cfg := Default()
	if err := cfg.validate(); err != nil {
		t.Fatalf("Default() does not validate: %v", err)
	}
	if cfg.Database.Driver != DriverSQLite {
		t.Errorf("Default driver = %q, want sqlite", cfg.Database.Driver)
	}
}
