package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/r9s-ai/open-line-parsers/pkg/directive"
	"github.com/r9s-ai/open-line-parsers/pkg/rowreader"
	"gopkg.in/yaml.v3"
)

const (
	defaultListen             = "127.0.0.1:3320"
	defaultMaxBodyBytes       = 1 * 1024 * 1024
	defaultReadTimeoutMs      = 15000
	defaultWriteTimeoutMs     = 15000
	defaultWatchDebounceMs    = 300
	defaultLogRotateMaxSizeMB = 100
	defaultLogRotateBackups   = 7
)

type RowsConfig struct {
	Delimiter    string `yaml:"delimiter"`
	Comment      string `yaml:"comment"`
	MinColumns   int    `yaml:"min_columns"`
	MaxLineBytes int    `yaml:"max_line_bytes"`
}

type DirectivesConfig struct {
	MaxLineBytes int      `yaml:"max_line_bytes"`
	KnownKeys    []string `yaml:"known_keys"`
	// StopKeys interrupt parsing when encountered.
	StopKeys []string `yaml:"stop_keys"`
}

type LogRotateConfig struct {
	Enabled    bool `yaml:"enabled"`
	MaxSizeMB  int  `yaml:"max_size_mb"`
	MaxBackups int  `yaml:"max_backups"`
	Compress   bool `yaml:"compress"`
}

type LoggingConfig struct {
	// Path is the log file. Empty logs to stderr.
	Path       string          `yaml:"path"`
	RequestLog *bool           `yaml:"request_log"`
	Rotate     LogRotateConfig `yaml:"rotate"`
}

// RequestLogEnabled reports whether HTTP requests are logged (default true).
func (c LoggingConfig) RequestLogEnabled() bool {
	return c.RequestLog == nil || *c.RequestLog
}

type Config struct {
	Rows       RowsConfig       `yaml:"rows"`
	Directives DirectivesConfig `yaml:"directives"`

	Watch struct {
		DebounceMs int `yaml:"debounce_ms"`
	} `yaml:"watch"`

	Server struct {
		Listen         string `yaml:"listen"`
		MaxBodyBytes   int64  `yaml:"max_body_bytes"`
		ReadTimeoutMs  int    `yaml:"read_timeout_ms"`
		WriteTimeoutMs int    `yaml:"write_timeout_ms"`
	} `yaml:"server"`

	Logging LoggingConfig `yaml:"logging"`
}

// Default returns a configuration with every default applied and no env
// overrides.
func Default() *Config {
	var cfg Config
	applyDefaults(&cfg)
	return &cfg
}

func Load(path string) (*Config, error) {
	// #nosec G304 -- path is provided by trusted config/flag.
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return parse(b)
}

// LoadIfExists loads path, falling back to defaults (plus env overrides) when
// the file does not exist.
func LoadIfExists(path string) (*Config, error) {
	p := strings.TrimSpace(path)
	if p == "" {
		return parse(nil)
	}
	cfg, err := Load(p)
	if err != nil && errors.Is(err, os.ErrNotExist) {
		return parse(nil)
	}
	return cfg, err
}

func parse(b []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	applyDefaults(&cfg)
	applyEnvOverrides(&cfg)
	if err := validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func applyDefaults(cfg *Config) {
	if cfg.Rows.Delimiter == "" {
		cfg.Rows.Delimiter = ";"
	}
	if cfg.Rows.Comment == "" {
		cfg.Rows.Comment = "#"
	}
	if cfg.Rows.MaxLineBytes == 0 {
		cfg.Rows.MaxLineBytes = rowreader.DefaultMaxLineBytes
	}
	if cfg.Directives.MaxLineBytes == 0 {
		cfg.Directives.MaxLineBytes = directive.DefaultMaxLineBytes
	}
	cfg.Directives.KnownKeys = normalizeKeys(cfg.Directives.KnownKeys)
	cfg.Directives.StopKeys = normalizeKeys(cfg.Directives.StopKeys)
	if cfg.Watch.DebounceMs == 0 {
		cfg.Watch.DebounceMs = defaultWatchDebounceMs
	}
	if strings.TrimSpace(cfg.Server.Listen) == "" {
		cfg.Server.Listen = defaultListen
	}
	if cfg.Server.MaxBodyBytes == 0 {
		cfg.Server.MaxBodyBytes = defaultMaxBodyBytes
	}
	if cfg.Server.ReadTimeoutMs <= 0 {
		cfg.Server.ReadTimeoutMs = defaultReadTimeoutMs
	}
	if cfg.Server.WriteTimeoutMs <= 0 {
		cfg.Server.WriteTimeoutMs = defaultWriteTimeoutMs
	}
	if cfg.Logging.Rotate.MaxSizeMB == 0 {
		cfg.Logging.Rotate.MaxSizeMB = defaultLogRotateMaxSizeMB
	}
	if cfg.Logging.Rotate.MaxBackups == 0 {
		cfg.Logging.Rotate.MaxBackups = defaultLogRotateBackups
	}
}

func applyEnvOverrides(cfg *Config) {
	applyEnvReaderOverrides(cfg)
	applyEnvServerOverrides(cfg)
	applyEnvLoggingOverrides(cfg)
}

func applyEnvReaderOverrides(cfg *Config) {
	// Delimiter and comment are taken verbatim: a single space is a valid delimiter.
	if v := os.Getenv("LP_ROWS_DELIMITER"); v != "" {
		cfg.Rows.Delimiter = v
	}
	if v := os.Getenv("LP_ROWS_COMMENT"); v != "" {
		cfg.Rows.Comment = v
	}
	if n, ok := envInt("LP_ROWS_MIN_COLUMNS"); ok {
		cfg.Rows.MinColumns = n
	}
	if n, ok := envInt("LP_ROWS_MAX_LINE_BYTES"); ok {
		cfg.Rows.MaxLineBytes = n
	}
	if n, ok := envInt("LP_DIRECTIVES_MAX_LINE_BYTES"); ok {
		cfg.Directives.MaxLineBytes = n
	}
	if keys, ok := envList("LP_DIRECTIVES_KNOWN_KEYS"); ok {
		cfg.Directives.KnownKeys = keys
	}
	if keys, ok := envList("LP_DIRECTIVES_STOP_KEYS"); ok {
		cfg.Directives.StopKeys = keys
	}
	if n, ok := envInt("LP_WATCH_DEBOUNCE_MS"); ok {
		cfg.Watch.DebounceMs = n
	}
}

func applyEnvServerOverrides(cfg *Config) {
	if v := strings.TrimSpace(os.Getenv("LP_LISTEN")); v != "" {
		cfg.Server.Listen = v
	}
	if n, ok := envInt("LP_MAX_BODY_BYTES"); ok {
		cfg.Server.MaxBodyBytes = int64(n)
	}
}

func applyEnvLoggingOverrides(cfg *Config) {
	if v := strings.TrimSpace(os.Getenv("LP_LOG_PATH")); v != "" {
		cfg.Logging.Path = v
	}
	if v := strings.TrimSpace(os.Getenv("LP_REQUEST_LOG")); v != "" {
		on := envBool("LP_REQUEST_LOG", cfg.Logging.RequestLogEnabled())
		cfg.Logging.RequestLog = &on
	}
	cfg.Logging.Rotate.Enabled = envBool("LP_LOG_ROTATE_ENABLED", cfg.Logging.Rotate.Enabled)
	if n, ok := envInt("LP_LOG_ROTATE_MAX_SIZE_MB"); ok {
		cfg.Logging.Rotate.MaxSizeMB = n
	}
	if n, ok := envInt("LP_LOG_ROTATE_MAX_BACKUPS"); ok {
		cfg.Logging.Rotate.MaxBackups = n
	}
	cfg.Logging.Rotate.Compress = envBool("LP_LOG_ROTATE_COMPRESS", cfg.Logging.Rotate.Compress)
}

func validate(cfg *Config) error {
	if len(cfg.Rows.Delimiter) != 1 {
		return fmt.Errorf("rows.delimiter must be exactly one byte, got %q", cfg.Rows.Delimiter)
	}
	if len(cfg.Rows.Comment) != 1 {
		return fmt.Errorf("rows.comment must be exactly one byte, got %q", cfg.Rows.Comment)
	}
	if cfg.Rows.Delimiter == cfg.Rows.Comment {
		return errors.New("rows.delimiter and rows.comment must differ")
	}
	if cfg.Rows.MinColumns < 0 {
		return errors.New("rows.min_columns must be >= 0")
	}
	if cfg.Rows.MaxLineBytes <= 0 {
		return errors.New("rows.max_line_bytes must be > 0")
	}
	if cfg.Directives.MaxLineBytes <= 0 {
		return errors.New("directives.max_line_bytes must be > 0")
	}
	if cfg.Watch.DebounceMs <= 0 {
		return errors.New("watch.debounce_ms must be > 0")
	}
	if cfg.Server.MaxBodyBytes <= 0 {
		return errors.New("server.max_body_bytes must be > 0")
	}
	if cfg.Logging.Rotate.Enabled && strings.TrimSpace(cfg.Logging.Path) == "" {
		return errors.New("logging.path is required when logging.rotate.enabled=true")
	}
	if cfg.Logging.Rotate.MaxSizeMB <= 0 {
		return errors.New("logging.rotate.max_size_mb must be > 0")
	}
	if cfg.Logging.Rotate.MaxBackups <= 0 {
		return errors.New("logging.rotate.max_backups must be > 0")
	}
	return nil
}

// RowOptions converts the rows section into reader options.
func (c *Config) RowOptions() rowreader.Options {
	opts := rowreader.Options{
		MinColumns:   c.Rows.MinColumns,
		MaxLineBytes: c.Rows.MaxLineBytes,
	}
	if c.Rows.Delimiter != "" {
		opts.Delimiter = c.Rows.Delimiter[0]
	}
	if c.Rows.Comment != "" {
		opts.Comment = c.Rows.Comment[0]
	}
	return opts
}

func envInt(name string) (int, bool) {
	v := strings.TrimSpace(os.Getenv(name))
	if v == "" {
		return 0, false
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, false
	}
	return n, true
}

func envBool(name string, def bool) bool {
	v := strings.TrimSpace(os.Getenv(name))
	if v == "" {
		return def
	}
	switch strings.ToLower(v) {
	case "1", "true", "yes", "y", "on":
		return true
	case "0", "false", "no", "n", "off":
		return false
	default:
		return def
	}
}

func envList(name string) ([]string, bool) {
	v, set := os.LookupEnv(name)
	if !set {
		return nil, false
	}
	return normalizeKeys(strings.Split(v, ",")), true
}

// normalizeKeys trims keys and drops blanks; case is kept since keys are
// matched case-sensitively.
func normalizeKeys(in []string) []string {
	out := make([]string, 0, len(in))
	for _, k := range in {
		if k = strings.TrimSpace(k); k != "" {
			out = append(out, k)
		}
	}
	return out
}
