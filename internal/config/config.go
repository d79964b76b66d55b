package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// FileName is the config file looked up in the working directory.
const FileName = "bankdesk.yaml"

// Config represents the top-level bankdesk.yaml configuration.
type Config struct {
	Backend     BackendConfig `yaml:"backend"`
	Import      ImportConfig  `yaml:"import"`
	Logging     LoggingConfig `yaml:"logging"`
	ActivityLog string        `yaml:"activity_log" validate:"required"`

	// dir is where the config file lives; relative paths resolve against it.
	dir string
}

// BackendConfig locates the bookkeeping backend.
type BackendConfig struct {
	URL     string        `yaml:"url" validate:"required,http_url"`
	Timeout time.Duration `yaml:"timeout" validate:"min=0"`
}

// ImportConfig controls where statement files are picked up and archived.
type ImportConfig struct {
	Dir          string `yaml:"dir"`
	ProcessedDir string `yaml:"processed_dir"`
}

// LoggingConfig controls the structured logger.
type LoggingConfig struct {
	Level  string `yaml:"level" validate:"oneof=debug info warn error"`
	Format string `yaml:"format" validate:"oneof=text json logfmt"`
	File   string `yaml:"file"`
}

// Load reads a bankdesk.yaml file from disk. Fields absent from the file keep
// their defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	cfg.dir = filepath.Dir(path)
	return cfg, nil
}

// Save writes a Config to a YAML file.
func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}
	return nil
}

// Default returns a Config with sensible defaults for a new workspace.
func Default() *Config {
	return &Config{
		Backend: BackendConfig{
			URL:     "http://localhost:8000",
			Timeout: 30 * time.Second,
		},
		Import: ImportConfig{
			Dir:          "import",
			ProcessedDir: "import/processed",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
			File:   "logs/bankdesk.log",
		},
		ActivityLog: "logs/activity.csv",
	}
}

// Resolve builds the effective configuration: the file at path (or defaults
// when it does not exist and required is false), then .env files, then
// environment variables. The result is validated.
func Resolve(path string, required bool) (*Config, error) {
	cfg, err := Load(path)
	switch {
	case err == nil:
	case errors.Is(err, os.ErrNotExist) && !required:
		cfg = Default()
		cfg.dir = filepath.Dir(path)
	default:
		return nil, err
	}

	loadDotEnv(cfg.dir)
	applyEnv(cfg)

	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// loadDotEnv reads .env from the working directory and the config directory.
// Variables already set in the environment win.
func loadDotEnv(dir string) {
	_ = godotenv.Load()
	if dir != "" && dir != "." {
		_ = godotenv.Load(filepath.Join(dir, ".env"))
	}
}

// envBindings maps config keys to the environment variables that override them,
// in order of precedence.
var envBindings = map[string][]string{
	"backend.url":          {"BANKDESK_BACKEND_URL", "BACKEND_URL"},
	"backend.timeout":      {"BANKDESK_BACKEND_TIMEOUT"},
	"logging.level":        {"BANKDESK_LOG_LEVEL"},
	"logging.format":       {"BANKDESK_LOG_FORMAT"},
	"logging.file":         {"BANKDESK_LOG_FILE"},
	"import.dir":           {"BANKDESK_IMPORT_DIR"},
	"import.processed_dir": {"BANKDESK_PROCESSED_DIR"},
	"activity_log":         {"BANKDESK_ACTIVITY_LOG"},
}

func applyEnv(cfg *Config) {
	v := viper.New()
	for key, names := range envBindings {
		_ = v.BindEnv(append([]string{key}, names...)...)
	}

	if v.IsSet("backend.url") {
		cfg.Backend.URL = v.GetString("backend.url")
	}
	if v.IsSet("backend.timeout") {
		cfg.Backend.Timeout = v.GetDuration("backend.timeout")
	}
	if v.IsSet("logging.level") {
		cfg.Logging.Level = strings.ToLower(v.GetString("logging.level"))
	}
	if v.IsSet("logging.format") {
		cfg.Logging.Format = strings.ToLower(v.GetString("logging.format"))
	}
	if v.IsSet("logging.file") {
		cfg.Logging.File = v.GetString("logging.file")
	}
	if v.IsSet("import.dir") {
		cfg.Import.Dir = v.GetString("import.dir")
	}
	if v.IsSet("import.processed_dir") {
		cfg.Import.ProcessedDir = v.GetString("import.processed_dir")
	}
	if v.IsSet("activity_log") {
		cfg.ActivityLog = v.GetString("activity_log")
	}
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate checks field constraints.
func Validate(cfg *Config) error {
	err := validate.Struct(cfg)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("validating config: %w", err)
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, fmt.Sprintf("%s: failed %q (value %v)", fe.Namespace(), fe.Tag(), fe.Value()))
	}
	return fmt.Errorf("invalid config: %s", strings.Join(msgs, "; "))
}

// Dir returns the directory relative paths resolve against.
func (c *Config) Dir() string {
	if c.dir == "" {
		return "."
	}
	return c.dir
}

// Path resolves p against the config directory unless it is absolute.
func (c *Config) Path(p string) string {
	if p == "" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(c.Dir(), p)
}
