package config

import (
	"strings"
	"testing"
	"time"
)

func envMap(m map[string]string) func(string) string {
	return func(k string) string { return m[k] }
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := LoadFrom(envMap(map[string]string{
		"DATABASE_URL": "postgres://localhost/test",
	}))
	if err != nil {
		t.Fatalf("LoadFrom() error = %v", err)
	}

	if cfg.Server.Host != "0.0.0.0" {
		t.Errorf("Server.Host = %q, want %q", cfg.Server.Host, "0.0.0.0")
	}
	if cfg.Server.Port != 3001 {
		t.Errorf("Server.Port = %d, want %d", cfg.Server.Port, 3001)
	}
	if cfg.Storage.Backend != BackendPostgres {
		t.Errorf("Storage.Backend = %q, want %q", cfg.Storage.Backend, BackendPostgres)
	}
	if cfg.Storage.DataDir != "data_managed_by_api" {
		t.Errorf("Storage.DataDir = %q", cfg.Storage.DataDir)
	}
	if cfg.Upload.MaxFileSize != 10485760 {
		t.Errorf("Upload.MaxFileSize = %d, want %d", cfg.Upload.MaxFileSize, 10485760)
	}
	if cfg.Database.SSL {
		t.Error("Database.SSL = true, want false")
	}
	if len(cfg.Security.AllowedOrigins) != 1 || cfg.Security.AllowedOrigins[0] != "*" {
		t.Errorf("Security.AllowedOrigins = %v, want [*]", cfg.Security.AllowedOrigins)
	}
	if !cfg.Metrics.Enabled || cfg.Metrics.Path != "/metrics" {
		t.Errorf("Metrics = %+v", cfg.Metrics)
	}
}

func TestLoad_OverrideDefaults(t *testing.T) {
	cfg, err := LoadFrom(envMap(map[string]string{
		"STORAGE_BACKEND":       "Filesystem",
		"DATA_DIR":              "/tmp/songs",
		"SERVER_PORT":           "9090",
		"UPLOAD_MAX_CONCURRENT": "10",
		"LOG_LEVEL":             "debug",
	}))
	if err != nil {
		t.Fatalf("LoadFrom() error = %v", err)
	}

	if cfg.Storage.Backend != BackendFilesystem {
		t.Errorf("Storage.Backend = %q, want %q", cfg.Storage.Backend, BackendFilesystem)
	}
	if cfg.Storage.DataDir != "/tmp/songs" {
		t.Errorf("Storage.DataDir = %q", cfg.Storage.DataDir)
	}
	if cfg.Server.Port != 9090 {
		t.Errorf("Server.Port = %d, want %d", cfg.Server.Port, 9090)
	}
	if cfg.Upload.MaxConcurrent != 10 {
		t.Errorf("Upload.MaxConcurrent = %d, want %d", cfg.Upload.MaxConcurrent, 10)
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("Logging.Level = %q, want %q", cfg.Logging.Level, "debug")
	}
}

func TestLoad_AltEnvVars(t *testing.T) {
	cfg, err := LoadFrom(envMap(map[string]string{
		"DB_URL": "postgres://localhost/alttest",
		"PORT":   "4000",
	}))
	if err != nil {
		t.Fatalf("LoadFrom() error = %v", err)
	}

	if cfg.Database.URL != "postgres://localhost/alttest" {
		t.Errorf("Database.URL = %q", cfg.Database.URL)
	}
	if cfg.Server.Port != 4000 {
		t.Errorf("Server.Port = %d, want 4000", cfg.Server.Port)
	}
}

func TestLoad_PostgresRequiresURL(t *testing.T) {
	_, err := LoadFrom(envMap(nil))
	if err == nil {
		t.Fatal("LoadFrom() expected error for missing DATABASE_URL")
	}
	if !strings.Contains(err.Error(), "DATABASE_URL") {
		t.Errorf("error = %v, want mention of DATABASE_URL", err)
	}
}

func TestLoad_SQLiteNeedsNoURL(t *testing.T) {
	cfg, err := LoadFrom(envMap(map[string]string{"STORAGE_BACKEND": "sqlite"}))
	if err != nil {
		t.Fatalf("LoadFrom() error = %v", err)
	}
	if cfg.Storage.SQLitePath != "playlist.db" {
		t.Errorf("Storage.SQLitePath = %q", cfg.Storage.SQLitePath)
	}
}

func TestLoad_UnknownBackend(t *testing.T) {
	_, err := LoadFrom(envMap(map[string]string{"STORAGE_BACKEND": "redis"}))
	if err == nil {
		t.Fatal("LoadFrom() expected error for unknown backend")
	}
}

func TestLoad_Duration(t *testing.T) {
	cfg, err := LoadFrom(envMap(map[string]string{
		"STORAGE_BACKEND":      "sqlite",
		"SERVER_READ_TIMEOUT":  "45s",
		"UPLOAD_MAX_WAIT_TIME": "1m30s",
	}))
	if err != nil {
		t.Fatalf("LoadFrom() error = %v", err)
	}

	if cfg.Server.ReadTimeout != 45*time.Second {
		t.Errorf("Server.ReadTimeout = %v, want %v", cfg.Server.ReadTimeout, 45*time.Second)
	}
	if cfg.Upload.MaxWaitTime != 90*time.Second {
		t.Errorf("Upload.MaxWaitTime = %v, want %v", cfg.Upload.MaxWaitTime, 90*time.Second)
	}
}

func TestLoad_CommaSeparatedSlice(t *testing.T) {
	cfg, err := LoadFrom(envMap(map[string]string{
		"STORAGE_BACKEND": "sqlite",
		"TRUSTED_PROXIES": "10.0.0.0/8, 172.16.0.0/12 , ,192.168.0.0/16",
	}))
	if err != nil {
		t.Fatalf("LoadFrom() error = %v", err)
	}

	want := []string{"10.0.0.0/8", "172.16.0.0/12", "192.168.0.0/16"}
	if len(cfg.Security.TrustedProxies) != len(want) {
		t.Fatalf("TrustedProxies = %v, want %v", cfg.Security.TrustedProxies, want)
	}
	for i := range want {
		if cfg.Security.TrustedProxies[i] != want[i] {
			t.Errorf("TrustedProxies[%d] = %q, want %q", i, cfg.Security.TrustedProxies[i], want[i])
		}
	}
}

func TestLoad_InvalidValues(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{"bad int", map[string]string{"STORAGE_BACKEND": "sqlite", "SERVER_PORT": "eighty"}},
		{"bad bool", map[string]string{"STORAGE_BACKEND": "sqlite", "DB_SSL": "maybe"}},
		{"bad duration", map[string]string{"STORAGE_BACKEND": "sqlite", "UPLOAD_TIMEOUT": "soon"}},
		{"port out of range", map[string]string{"STORAGE_BACKEND": "sqlite", "SERVER_PORT": "70000"}},
		{"bad log level", map[string]string{"STORAGE_BACKEND": "sqlite", "LOG_LEVEL": "verbose"}},
		{"api key required", map[string]string{"STORAGE_BACKEND": "sqlite", "REQUIRE_API_KEY": "true"}},
		{"pool bounds", map[string]string{"DATABASE_URL": "postgres://x/y", "DB_MAX_CONNS": "2", "DB_MIN_CONNS": "5"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := LoadFrom(envMap(tt.env)); err == nil {
				t.Error("LoadFrom() expected error")
			}
		})
	}
}

func TestDatabaseConfig_ConnString(t *testing.T) {
	tests := []struct {
		name string
		cfg  DatabaseConfig
		want string
	}{
		{
			name: "ssl off adds disable",
			cfg:  DatabaseConfig{URL: "postgres://u:p@db:5432/music"},
			want: "postgres://u:p@db:5432/music?sslmode=disable",
		},
		{
			name: "ssl on adds require",
			cfg:  DatabaseConfig{URL: "postgresql://u@db/music", SSL: true},
			want: "postgresql://u@db/music?sslmode=require",
		},
		{
			name: "explicit sslmode wins",
			cfg:  DatabaseConfig{URL: "postgres://db/music?sslmode=verify-full", SSL: false},
			want: "postgres://db/music?sslmode=verify-full",
		},
		{
			name: "keyword dsn untouched",
			cfg:  DatabaseConfig{URL: "host=db dbname=music", SSL: true},
			want: "host=db dbname=music",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.cfg.ConnString(); got != tt.want {
				t.Errorf("ConnString() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestConfig_StringMasksURL(t *testing.T) {
	cfg := &Config{Database: DatabaseConfig{URL: "postgres://user:secret@db/music"}}
	if s := cfg.String(); strings.Contains(s, "secret") {
		t.Errorf("String() leaked credentials: %s", s)
	}
}

func TestServerConfig_Addr(t *testing.T) {
	c := ServerConfig{Host: "127.0.0.1", Port: 3001}
	if got := c.Addr(); got != "127.0.0.1:3001" {
		t.Errorf("Addr() = %q", got)
	}
	c.Host = ""
	if got := c.Addr(); got != ":3001" {
		t.Errorf("Addr() = %q", got)
	}
}
