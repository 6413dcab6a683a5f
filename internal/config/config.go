package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"
)

const (
	EnvPrefix = "HOTSPOT"

	DefaultHTTPAddr       = "127.0.0.1:8099"
	DefaultBaseDir        = "/opt/linux-hotspot-manager"
	DefaultLockPath       = "/tmp/linux_hotspot.lock"
	DefaultLogPath        = "/var/log/linux-hotspot-manager.log"
	DefaultDBPath         = "/var/lib/linux-hotspot-manager/hotspot.db"
	DefaultPollInterval   = 3 * time.Second
	DefaultVerifyInterval = time.Second
	DefaultVerifyAttempts = 15
	DefaultVersion        = "1.0"
)

// Config stores runtime settings. Values come from an optional YAML file,
// then HOTSPOT_* environment variables, then defaults.
type Config struct {
	HTTPAddr       string        `yaml:"http_addr" envconfig:"HTTP_ADDR"`
	BaseDir        string        `yaml:"base_dir" envconfig:"BASE_DIR"`
	GatewayScript  string        `yaml:"gateway_script" envconfig:"GATEWAY_SCRIPT"`
	PolicyPath     string        `yaml:"policy_path" envconfig:"POLICY_PATH"`
	WiFiConfigPath string        `yaml:"wifi_config_path" envconfig:"WIFI_CONFIG_PATH"`
	VersionPath    string        `yaml:"version_path" envconfig:"VERSION_PATH"`
	LockPath       string        `yaml:"lock_path" envconfig:"LOCK_PATH"`
	DBPath         string        `yaml:"db_path" envconfig:"DB_PATH"`
	LogPath        string        `yaml:"log_path" envconfig:"LOG_PATH"`
	LogLevel       string        `yaml:"log_level" envconfig:"LOG_LEVEL"`
	PollInterval   time.Duration `yaml:"poll_interval" envconfig:"POLL_INTERVAL"`
	VerifyInterval time.Duration `yaml:"verify_interval" envconfig:"VERIFY_INTERVAL"`
	VerifyAttempts int           `yaml:"verify_attempts" envconfig:"VERIFY_ATTEMPTS"`
	AllowNonRoot   bool          `yaml:"allow_non_root" envconfig:"ALLOW_NON_ROOT"`
}

// Load builds Config. An empty path skips the YAML layer; a named file that
// cannot be read is an error.
func Load(path string) (Config, error) {
	var cfg Config
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config %s: %w", path, err)
		}
	}
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to load config: %w", err)
	}
	ApplyDefaults(&cfg)
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// ApplyDefaults fills zero values. Files the installer ships live in BaseDir.
func ApplyDefaults(cfg *Config) {
	if cfg.HTTPAddr == "" {
		cfg.HTTPAddr = DefaultHTTPAddr
	}
	if cfg.BaseDir == "" {
		cfg.BaseDir = DefaultBaseDir
	}
	if cfg.GatewayScript == "" {
		cfg.GatewayScript = filepath.Join(cfg.BaseDir, "hotspot_ctrl.sh")
	}
	if cfg.PolicyPath == "" {
		cfg.PolicyPath = filepath.Join(cfg.BaseDir, "app_config.json")
	}
	if cfg.WiFiConfigPath == "" {
		cfg.WiFiConfigPath = filepath.Join(cfg.BaseDir, "wifi_config.json")
	}
	if cfg.VersionPath == "" {
		cfg.VersionPath = filepath.Join(cfg.BaseDir, "version.txt")
	}
	if cfg.LockPath == "" {
		cfg.LockPath = DefaultLockPath
	}
	if cfg.DBPath == "" {
		cfg.DBPath = DefaultDBPath
	}
	if cfg.LogPath == "" {
		cfg.LogPath = DefaultLogPath
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = "info"
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = DefaultPollInterval
	}
	if cfg.VerifyInterval <= 0 {
		cfg.VerifyInterval = DefaultVerifyInterval
	}
	if cfg.VerifyAttempts <= 0 {
		cfg.VerifyAttempts = DefaultVerifyAttempts
	}
}

func (c Config) Validate() error {
	var errs []error
	if strings.TrimSpace(c.HTTPAddr) == "" {
		errs = append(errs, errors.New("http_addr is required"))
	}
	if !filepath.IsAbs(c.GatewayScript) {
		errs = append(errs, fmt.Errorf("gateway_script must be an absolute path, got %q", c.GatewayScript))
	}
	if _, ok := logLevels[strings.ToLower(strings.TrimSpace(c.LogLevel))]; !ok {
		errs = append(errs, fmt.Errorf("unknown log_level %q", c.LogLevel))
	}
	if c.PollInterval < 100*time.Millisecond {
		errs = append(errs, fmt.Errorf("poll_interval %s is too short", c.PollInterval))
	}
	if c.VerifyAttempts > 120 {
		errs = append(errs, fmt.Errorf("verify_attempts %d exceeds 120", c.VerifyAttempts))
	}
	return errors.Join(errs...)
}

// DBDir returns the target directory for DBPath.
func (c Config) DBDir() string {
	return filepath.Dir(c.DBPath)
}

func (c Config) SlogLevel() slog.Level {
	return parseLogLevel(c.LogLevel)
}

// ReadVersion returns the trimmed contents of VersionPath or DefaultVersion.
func (c Config) ReadVersion() string {
	data, err := os.ReadFile(c.VersionPath)
	if err != nil {
		return DefaultVersion
	}
	if v := strings.TrimSpace(string(data)); v != "" {
		return v
	}
	return DefaultVersion
}

var logLevels = map[string]slog.Level{
	"debug":   slog.LevelDebug,
	"info":    slog.LevelInfo,
	"warn":    slog.LevelWarn,
	"warning": slog.LevelWarn,
	"error":   slog.LevelError,
}

func parseLogLevel(raw string) slog.Level {
	if level, ok := logLevels[strings.ToLower(strings.TrimSpace(raw))]; ok {
		return level
	}
	return slog.LevelInfo
}
