package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Store contains connection settings for the hosted record store. The store
// speaks the PostgREST dialect: paginated selects, `id=in.(...)` deletes,
// `id=eq.N` patches.
type Store struct {
	URL             string `toml:"url"`
	APIKey          string `toml:"api_key"`
	Table           string `toml:"table"`
	PageSize        int    `toml:"page_size"`
	DeleteBatchSize int    `toml:"delete_batch_size"`
	FetchRetries    int    `toml:"fetch_retries"`
	TimeoutSeconds  int    `toml:"timeout_seconds"`
}

// Paths contains local directory configuration.
type Paths struct {
	DataDir       string `toml:"data_dir"`
	LogDir        string `toml:"log_dir"`
	BackupDir     string `toml:"backup_dir"`
	ThumbnailsDir string `toml:"thumbnails_dir"`
}

// Dedup contains tunables for the duplicate resolver's quality scorer.
type Dedup struct {
	AgeBonusCap        int   `toml:"age_bonus_cap"`
	EngagementBonusCap int   `toml:"engagement_bonus_cap"`
	EngagementUnit     int64 `toml:"engagement_unit"`
}

// R2 contains credentials for the S3-compatible object storage bucket that
// mirrors thumbnails.
type R2 struct {
	AccountID       string `toml:"account_id"`
	AccessKeyID     string `toml:"access_key_id"`
	SecretAccessKey string `toml:"secret_access_key"`
	Bucket          string `toml:"bucket"`
	PublicBaseURL   string `toml:"public_base_url"`
	MaxConcurrent   int    `toml:"max_concurrent"`
}

// Ingest contains defaults applied to newly ingested records.
type Ingest struct {
	Company  string `toml:"company"`
	Platform string `toml:"platform"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Config encapsulates all configuration values for seedpipe.
type Config struct {
	Store   Store   `toml:"store"`
	Paths   Paths   `toml:"paths"`
	Dedup   Dedup   `toml:"dedup"`
	R2      R2      `toml:"r2"`
	Ingest  Ingest  `toml:"ingest"`
	Logging Logging `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration
// file location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/seedpipe/config.toml")
}

// Load locates, parses, and validates a configuration file. The returned
// config has all path fields expanded and credentials overlaid from the
// environment (a local .env file is honored when present).
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	// Credentials may live in .env instead of the config file.
	_ = godotenv.Load()
	cfg.applyEnvironment()

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := DefaultConfigPath()
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("seedpipe.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

func (c *Config) applyEnvironment() {
	overlay := func(target *string, keys ...string) {
		for _, key := range keys {
			if value, ok := os.LookupEnv(key); ok && strings.TrimSpace(value) != "" {
				*target = strings.TrimSpace(value)
				return
			}
		}
	}
	overlay(&c.Store.URL, "SEEDPIPE_STORE_URL", "SUPABASE_URL")
	overlay(&c.Store.APIKey, "SEEDPIPE_STORE_KEY", "SUPABASE_KEY")
	overlay(&c.R2.AccountID, "R2_ACCOUNT_ID")
	overlay(&c.R2.AccessKeyID, "R2_ACCESS_KEY_ID")
	overlay(&c.R2.SecretAccessKey, "R2_SECRET_ACCESS_KEY")
	overlay(&c.R2.Bucket, "R2_BUCKET_NAME")
}

// EnsureDirectories creates the local directories commands write into.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.DataDir, c.Paths.LogDir, c.Paths.BackupDir, c.Paths.ThumbnailsDir} {
		if strings.TrimSpace(dir) == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
