package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"maps"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"yarws/internal/logger"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// 環境変数名
const (
	EnvAddr           = "YARWS_ADDR"
	EnvWorkers        = "YARWS_WORKERS"
	EnvMaxConnections = "YARWS_MAX_CONNECTIONS"
	EnvSleepDelay     = "YARWS_SLEEP_DELAY"
	EnvReadTimeout    = "YARWS_READ_TIMEOUT"
	EnvLogLevel       = "YARWS_LOG_LEVEL"
	EnvMetricsAddr    = "YARWS_METRICS_ADDR"
)

var envKeys = []string{
	EnvAddr,
	EnvWorkers,
	EnvMaxConnections,
	EnvSleepDelay,
	EnvReadTimeout,
	EnvLogLevel,
	EnvMetricsAddr,
}

// Config は実行時の設定
type Config struct {
	Addr           string
	Workers        int
	MaxConnections int // 0 で無制限
	SleepDelay     time.Duration
	ReadTimeout    time.Duration // 0 でタイムアウトなし
	IndexPath      string
	NotFoundPath   string
	LogLevel       logger.Level
	MetricsAddr    string // 空なら /metrics を公開しない
}

// Default はデフォルト設定を返す
func Default() Config {
	return Config{
		Addr:         "127.0.0.1:7878",
		Workers:      4,
		SleepDelay:   5 * time.Second,
		ReadTimeout:  30 * time.Second,
		IndexPath:    filepath.Join("assets", "hello.html"),
		NotFoundPath: filepath.Join("assets", "404.html"),
		LogLevel:     logger.LevelInfo,
	}
}

// Validate は実行時設定を検証する
func (c Config) Validate() error {
	if c.Addr == "" {
		return fmt.Errorf("addr must not be empty")
	}
	if c.Workers < 1 {
		return fmt.Errorf("workers must be >= 1, got %d", c.Workers)
	}
	if c.MaxConnections < 0 {
		return fmt.Errorf("max_connections must be non-negative")
	}
	if c.SleepDelay < 0 {
		return fmt.Errorf("sleep_delay must be non-negative")
	}
	if c.ReadTimeout < 0 {
		return fmt.Errorf("read_timeout must be non-negative")
	}
	if c.IndexPath == "" || c.NotFoundPath == "" {
		return fmt.Errorf("index and not_found pages must be set")
	}
	return nil
}

// FileConfig は設定ファイルの構造
type FileConfig struct {
	Server  ServerConfig  `yaml:"server" json:"server"`
	Pool    PoolConfig    `yaml:"pool" json:"pool"`
	Log     LogConfig     `yaml:"log" json:"log"`
	Metrics MetricsConfig `yaml:"metrics" json:"metrics"`
}

// ServerConfig は HTTP 受付の設定
type ServerConfig struct {
	Addr           string `yaml:"addr" json:"addr"`
	MaxConnections int    `yaml:"max_connections" json:"max_connections"`
	SleepDelay     string `yaml:"sleep_delay" json:"sleep_delay"`
	ReadTimeout    string `yaml:"read_timeout" json:"read_timeout"`
	AssetsDir      string `yaml:"assets_dir" json:"assets_dir"`
	Index          string `yaml:"index" json:"index"`
	NotFound       string `yaml:"not_found" json:"not_found"`
}

// PoolConfig はワーカープールの設定
type PoolConfig struct {
	Workers int `yaml:"workers" json:"workers"`
}

// LogConfig はログ設定
type LogConfig struct {
	Level string `yaml:"level" json:"level"`
}

// MetricsConfig はメトリクス公開の設定
type MetricsConfig struct {
	Addr string `yaml:"addr" json:"addr"`
}

// LoadFile は設定ファイルを読み込む
func LoadFile(path string) (*FileConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config FileConfig
	ext := strings.ToLower(filepath.Ext(path))

	switch ext {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &config); err != nil {
			return nil, fmt.Errorf("failed to parse YAML: %w", err)
		}
	case ".json":
		if err := json.Unmarshal(data, &config); err != nil {
			return nil, fmt.Errorf("failed to parse JSON: %w", err)
		}
	default:
		return nil, fmt.Errorf("unsupported config format: %s", ext)
	}

	return &config, nil
}

// Validate は設定ファイルの値を検証する
func (f *FileConfig) Validate() error {
	if f.Pool.Workers < 0 {
		return fmt.Errorf("pool.workers must be non-negative")
	}
	if f.Server.MaxConnections < 0 {
		return fmt.Errorf("server.max_connections must be non-negative")
	}
	if _, err := logger.ParseLevel(f.Log.Level); err != nil {
		return fmt.Errorf("log.level: %w", err)
	}
	return nil
}

// ToConfig は FileConfig を実行時設定に変換する
// 未指定の項目はデフォルト値のまま
func (f *FileConfig) ToConfig() (Config, error) {
	config := Default()

	sc := f.Server
	if sc.Addr != "" {
		config.Addr = sc.Addr
	}
	if sc.MaxConnections > 0 {
		config.MaxConnections = sc.MaxConnections
	}
	if sc.SleepDelay != "" {
		d, err := time.ParseDuration(sc.SleepDelay)
		if err != nil {
			return config, fmt.Errorf("invalid sleep_delay: %w", err)
		}
		config.SleepDelay = d
	}
	if sc.ReadTimeout != "" {
		d, err := time.ParseDuration(sc.ReadTimeout)
		if err != nil {
			return config, fmt.Errorf("invalid read_timeout: %w", err)
		}
		config.ReadTimeout = d
	}

	dir := sc.AssetsDir
	if dir == "" {
		dir = "assets"
	}
	index := sc.Index
	if index == "" {
		index = "hello.html"
	}
	notFound := sc.NotFound
	if notFound == "" {
		notFound = "404.html"
	}
	config.IndexPath = filepath.Join(dir, index)
	config.NotFoundPath = filepath.Join(dir, notFound)

	if f.Pool.Workers > 0 {
		config.Workers = f.Pool.Workers
	}

	level, err := logger.ParseLevel(f.Log.Level)
	if err != nil {
		return config, err
	}
	config.LogLevel = level

	config.MetricsAddr = f.Metrics.Addr

	return config, nil
}

// Environ は .env ファイルと環境変数から YARWS_* の値を集める
// ファイルが存在しない場合は無視する。環境変数はファイルの値より優先される
func Environ(files ...string) (map[string]string, error) {
	if len(files) == 0 {
		files = []string{".env"}
	}

	env := make(map[string]string)
	for _, file := range files {
		values, err := godotenv.Read(file)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return nil, fmt.Errorf("failed to read env file %s: %w", file, err)
		}
		maps.Copy(env, values)
	}

	for _, key := range envKeys {
		if v, ok := os.LookupEnv(key); ok && v != "" {
			env[key] = v
		}
	}

	return env, nil
}

// ApplyEnv は環境変数の値で設定を上書きする
func ApplyEnv(config *Config, env map[string]string) error {
	if v := env[EnvAddr]; v != "" {
		config.Addr = v
	}
	if v := env[EnvWorkers]; v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid %s: %w", EnvWorkers, err)
		}
		config.Workers = n
	}
	if v := env[EnvMaxConnections]; v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid %s: %w", EnvMaxConnections, err)
		}
		config.MaxConnections = n
	}
	if v := env[EnvSleepDelay]; v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("invalid %s: %w", EnvSleepDelay, err)
		}
		config.SleepDelay = d
	}
	if v := env[EnvReadTimeout]; v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("invalid %s: %w", EnvReadTimeout, err)
		}
		config.ReadTimeout = d
	}
	if v := env[EnvLogLevel]; v != "" {
		level, err := logger.ParseLevel(v)
		if err != nil {
			return fmt.Errorf("invalid %s: %w", EnvLogLevel, err)
		}
		config.LogLevel = level
	}
	if v := env[EnvMetricsAddr]; v != "" {
		config.MetricsAddr = v
	}
	return nil
}
