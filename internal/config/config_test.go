package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"yarws/internal/logger"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to create temp file: %v", err)
	}
	return path
}

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range envKeys {
		t.Setenv(key, "")
	}
}

func TestDefault(t *testing.T) {
	cfg := Default()

	if cfg.Addr != "127.0.0.1:7878" {
		t.Errorf("expected default addr 127.0.0.1:7878, got %s", cfg.Addr)
	}
	if cfg.Workers != 4 {
		t.Errorf("expected 4 workers, got %d", cfg.Workers)
	}
	if cfg.SleepDelay != 5*time.Second {
		t.Errorf("expected 5s sleep delay, got %v", cfg.SleepDelay)
	}
	if cfg.IndexPath != filepath.Join("assets", "hello.html") {
		t.Errorf("unexpected index path %s", cfg.IndexPath)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config should be valid: %v", err)
	}
}

func TestLoadFileYAML(t *testing.T) {
	path := writeFile(t, "config.yaml", `
server:
  addr: 0.0.0.0:8080
  max_connections: 64
  sleep_delay: 250ms
  read_timeout: 2s
  assets_dir: /srv/www
pool:
  workers: 8
log:
  level: debug
metrics:
  addr: 127.0.0.1:9090
`)

	fc, err := LoadFile(path)
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}
	if err := fc.Validate(); err != nil {
		t.Fatalf("expected valid config: %v", err)
	}

	cfg, err := fc.ToConfig()
	if err != nil {
		t.Fatalf("failed to convert config: %v", err)
	}

	if cfg.Addr != "0.0.0.0:8080" {
		t.Errorf("expected addr 0.0.0.0:8080, got %s", cfg.Addr)
	}
	if cfg.Workers != 8 {
		t.Errorf("expected 8 workers, got %d", cfg.Workers)
	}
	if cfg.MaxConnections != 64 {
		t.Errorf("expected max_connections 64, got %d", cfg.MaxConnections)
	}
	if cfg.SleepDelay != 250*time.Millisecond {
		t.Errorf("expected 250ms, got %v", cfg.SleepDelay)
	}
	if cfg.ReadTimeout != 2*time.Second {
		t.Errorf("expected 2s read timeout, got %v", cfg.ReadTimeout)
	}
	if cfg.IndexPath != filepath.Join("/srv/www", "hello.html") {
		t.Errorf("unexpected index path %s", cfg.IndexPath)
	}
	if cfg.NotFoundPath != filepath.Join("/srv/www", "404.html") {
		t.Errorf("unexpected not found path %s", cfg.NotFoundPath)
	}
	if cfg.LogLevel != logger.LevelDebug {
		t.Errorf("expected debug level, got %s", cfg.LogLevel)
	}
	if cfg.MetricsAddr != "127.0.0.1:9090" {
		t.Errorf("expected metrics addr, got %q", cfg.MetricsAddr)
	}
}

func TestLoadFileJSON(t *testing.T) {
	path := writeFile(t, "config.json", `{
  "server": {"addr": ":7000", "index": "index.html"},
  "pool": {"workers": 2}
}`)

	fc, err := LoadFile(path)
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}

	cfg, err := fc.ToConfig()
	if err != nil {
		t.Fatalf("failed to convert config: %v", err)
	}

	if cfg.Addr != ":7000" {
		t.Errorf("expected addr :7000, got %s", cfg.Addr)
	}
	if cfg.Workers != 2 {
		t.Errorf("expected 2 workers, got %d", cfg.Workers)
	}
	if cfg.IndexPath != filepath.Join("assets", "index.html") {
		t.Errorf("unexpected index path %s", cfg.IndexPath)
	}
	// 未指定の項目はデフォルトのまま
	if cfg.SleepDelay != 5*time.Second {
		t.Errorf("expected default sleep delay, got %v", cfg.SleepDelay)
	}
}

func TestLoadFileErrors(t *testing.T) {
	if _, err := LoadFile(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("expected error for missing file")
	}

	if _, err := LoadFile(writeFile(t, "config.toml", "x = 1")); err == nil {
		t.Error("expected error for unsupported format")
	}

	if _, err := LoadFile(writeFile(t, "bad.yaml", "server: [")); err == nil {
		t.Error("expected error for invalid YAML")
	}

	if _, err := LoadFile(writeFile(t, "bad.json", "{")); err == nil {
		t.Error("expected error for invalid JSON")
	}
}

func TestFileConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		config  FileConfig
		wantErr bool
	}{
		{"empty", FileConfig{}, false},
		{"negative workers", FileConfig{Pool: PoolConfig{Workers: -1}}, true},
		{"negative max connections", FileConfig{Server: ServerConfig{MaxConnections: -5}}, true},
		{"bad log level", FileConfig{Log: LogConfig{Level: "loud"}}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.config.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestToConfigInvalidDuration(t *testing.T) {
	fc := &FileConfig{Server: ServerConfig{SleepDelay: "soon"}}
	if _, err := fc.ToConfig(); err == nil {
		t.Error("expected error for invalid sleep_delay")
	}

	fc = &FileConfig{Server: ServerConfig{ReadTimeout: "never"}}
	if _, err := fc.ToConfig(); err == nil {
		t.Error("expected error for invalid read_timeout")
	}
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"zero workers", func(c *Config) { c.Workers = 0 }},
		{"empty addr", func(c *Config) { c.Addr = "" }},
		{"negative max connections", func(c *Config) { c.MaxConnections = -1 }},
		{"negative sleep", func(c *Config) { c.SleepDelay = -time.Second }},
		{"negative read timeout", func(c *Config) { c.ReadTimeout = -time.Second }},
		{"no index", func(c *Config) { c.IndexPath = "" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(&cfg)
			if err := cfg.Validate(); err == nil {
				t.Error("expected validation error")
			}
		})
	}
}

func TestEnvironFromFile(t *testing.T) {
	clearEnv(t)
	path := writeFile(t, ".env", "YARWS_WORKERS=6\nYARWS_ADDR=0.0.0.0:1234\n")

	env, err := Environ(path)
	if err != nil {
		t.Fatalf("Environ failed: %v", err)
	}

	if env[EnvWorkers] != "6" {
		t.Errorf("expected YARWS_WORKERS=6, got %q", env[EnvWorkers])
	}
	if env[EnvAddr] != "0.0.0.0:1234" {
		t.Errorf("expected YARWS_ADDR from file, got %q", env[EnvAddr])
	}
}

func TestEnvironProcessOverridesFile(t *testing.T) {
	clearEnv(t)
	t.Setenv(EnvWorkers, "3")
	path := writeFile(t, ".env", "YARWS_WORKERS=6\n")

	env, err := Environ(path)
	if err != nil {
		t.Fatalf("Environ failed: %v", err)
	}
	if env[EnvWorkers] != "3" {
		t.Errorf("expected process env to win, got %q", env[EnvWorkers])
	}
}

func TestEnvironMissingFile(t *testing.T) {
	clearEnv(t)

	env, err := Environ(filepath.Join(t.TempDir(), ".env"))
	if err != nil {
		t.Fatalf("missing .env should be ignored: %v", err)
	}
	if len(env) != 0 {
		t.Errorf("expected empty env, got %v", env)
	}
}

func TestApplyEnv(t *testing.T) {
	cfg := Default()
	err := ApplyEnv(&cfg, map[string]string{
		EnvAddr:           ":9999",
		EnvWorkers:        "12",
		EnvMaxConnections: "100",
		EnvSleepDelay:     "1s",
		EnvReadTimeout:    "3s",
		EnvLogLevel:       "warn",
		EnvMetricsAddr:    ":9100",
	})
	if err != nil {
		t.Fatalf("ApplyEnv failed: %v", err)
	}

	if cfg.Addr != ":9999" || cfg.Workers != 12 || cfg.MaxConnections != 100 {
		t.Errorf("unexpected config: %+v", cfg)
	}
	if cfg.SleepDelay != time.Second {
		t.Errorf("expected 1s, got %v", cfg.SleepDelay)
	}
	if cfg.ReadTimeout != 3*time.Second {
		t.Errorf("expected 3s read timeout, got %v", cfg.ReadTimeout)
	}
	if cfg.LogLevel != logger.LevelWarn {
		t.Errorf("expected warn, got %s", cfg.LogLevel)
	}
	if cfg.MetricsAddr != ":9100" {
		t.Errorf("expected :9100, got %s", cfg.MetricsAddr)
	}
}

func TestApplyEnvErrors(t *testing.T) {
	for _, key := range []string{EnvWorkers, EnvMaxConnections, EnvSleepDelay, EnvReadTimeout, EnvLogLevel} {
		cfg := Default()
		if err := ApplyEnv(&cfg, map[string]string{key: "not-a-value"}); err == nil {
			t.Errorf("expected error for invalid %s", key)
		}
	}
}
