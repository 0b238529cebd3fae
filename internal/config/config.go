package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config holds all runtime settings. Values come from FACEGATE_* environment
// variables; an optional YAML file (FACEGATE_CONFIG) overrides individual keys.
type Config struct {
	DataDir string       `yaml:"data_dir"`
	Oracle  OracleConfig `yaml:"oracle"`
	Match   MatchConfig  `yaml:"match"`
	Ledger  LedgerConfig `yaml:"ledger"`
	Web     WebConfig    `yaml:"web"`
}

// OracleConfig configures the external face detection/encoding service.
type OracleConfig struct {
	URL string `yaml:"url"` // defaults to http://localhost:8000
}

// MatchConfig configures the matcher and the attendance cooldown.
type MatchConfig struct {
	Threshold       float64 `yaml:"threshold"`        // max Euclidean distance for a match
	CooldownSeconds int     `yaml:"cooldown_seconds"` // min seconds between two logs for one name
}

// LedgerConfig selects the attendance storage backend.
type LedgerConfig struct {
	Backend string `yaml:"backend"` // "csv" (default) or "sqlite"
}

// WebConfig configures the HTTP server.
type WebConfig struct {
	Host              string   `yaml:"host"`
	Port              int      `yaml:"port"`
	AllowedOrigins    []string `yaml:"allowed_origins"`
	ExposeDescriptors bool     `yaml:"expose_descriptors"` // include raw descriptors for unknown faces
}

const (
	// DefaultThreshold is the maximum descriptor distance accepted as a match.
	DefaultThreshold = 0.6

	// DefaultCooldownSeconds is the minimum gap between two logged events for one name.
	DefaultCooldownSeconds = 60
)

// envInt reads an environment variable and parses it as a positive integer.
// Returns the default value if the env var is unset, empty, or invalid.
func envInt(key string, defaultVal int) int {
	s := os.Getenv(key)
	if s == "" {
		return defaultVal
	}
	if n, err := strconv.Atoi(s); err == nil && n > 0 {
		return n
	}
	return defaultVal
}

// envFloat reads an environment variable and parses it as a positive float.
func envFloat(key string, defaultVal float64) float64 {
	s := os.Getenv(key)
	if s == "" {
		return defaultVal
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil && f > 0 {
		return f
	}
	return defaultVal
}

// envBool reads an environment variable as a boolean ("1", "true", "yes").
func envBool(key string) bool {
	switch strings.ToLower(os.Getenv(key)) {
	case "1", "true", "yes":
		return true
	}
	return false
}

func envOr(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

// Load builds the configuration from the environment and, when FACEGATE_CONFIG
// points at a YAML file, overrides the keys present in that file.
func Load() (*Config, error) {
	cfg := &Config{
		DataDir: envOr("FACEGATE_DATA_DIR", "data"),
		Oracle: OracleConfig{
			URL: envOr("FACEGATE_ORACLE_URL", "http://localhost:8000"),
		},
		Match: MatchConfig{
			Threshold:       envFloat("FACEGATE_MATCH_THRESHOLD", DefaultThreshold),
			CooldownSeconds: envInt("FACEGATE_COOLDOWN_SECONDS", DefaultCooldownSeconds),
		},
		Ledger: LedgerConfig{
			Backend: envOr("FACEGATE_LEDGER", "csv"),
		},
		Web: WebConfig{
			Host:              envOr("FACEGATE_WEB_HOST", "0.0.0.0"),
			Port:              envInt("FACEGATE_WEB_PORT", 8080),
			ExposeDescriptors: envBool("FACEGATE_EXPOSE_DESCRIPTORS"),
		},
	}
	if origins := os.Getenv("FACEGATE_ALLOWED_ORIGINS"); origins != "" {
		for _, o := range strings.Split(origins, ",") {
			if o = strings.TrimSpace(o); o != "" {
				cfg.Web.AllowedOrigins = append(cfg.Web.AllowedOrigins, o)
			}
		}
	}

	if path := os.Getenv("FACEGATE_CONFIG"); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file %s: %w", path, err)
		}
		// Unmarshal on top of the env-built config: keys present in the
		// file win, absent keys keep their env/default values.
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file %s: %w", path, err)
		}
	}

	switch cfg.Ledger.Backend {
	case "csv", "sqlite":
	default:
		return nil, fmt.Errorf("unknown ledger backend %q (want csv or sqlite)", cfg.Ledger.Backend)
	}

	return cfg, nil
}

// KnownFacesDir is the directory of enrolled reference images (stem = name).
func (c *Config) KnownFacesDir() string { return filepath.Join(c.DataDir, "known_faces") }

// UploadsDir holds the evidentiary snapshots saved on each logged event.
func (c *Config) UploadsDir() string { return filepath.Join(c.DataDir, "uploads") }

// ExportsDir holds CSV exports rendered by the SQLite backend.
func (c *Config) ExportsDir() string { return filepath.Join(c.DataDir, "exports") }

// AttendanceFile is the global CSV ledger path.
func (c *Config) AttendanceFile() string { return filepath.Join(c.DataDir, "attendance.csv") }

// UserAttendanceDir holds one CSV ledger per enrolled name.
func (c *Config) UserAttendanceDir() string { return filepath.Join(c.DataDir, "attendance_users") }

// SQLitePath is the database file used by the sqlite ledger backend.
func (c *Config) SQLitePath() string { return filepath.Join(c.DataDir, "attendance.db") }

// EnsureDirs creates every directory the application writes into.
func (c *Config) EnsureDirs() error {
	for _, dir := range []string{
		c.DataDir,
		c.KnownFacesDir(),
		c.UploadsDir(),
		c.ExportsDir(),
		c.UserAttendanceDir(),
	} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("creating directory %s: %w", dir, err)
		}
	}
	return nil
}
