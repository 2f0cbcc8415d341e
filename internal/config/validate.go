package config

import (
	"errors"
	"fmt"
	"net/url"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateStore(); err != nil {
		return err
	}
	if err := c.validateLogging(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validateStore() error {
	if c.Store.URL == "" {
		defaultPath, err := DefaultConfigPath()
		if err != nil {
			defaultPath = "~/.config/seedpipe/config.toml"
		}
		return fmt.Errorf("store.url is required. Set SEEDPIPE_STORE_URL or edit %s (create with 'seedpipe config init')", defaultPath)
	}
	parsed, err := url.Parse(c.Store.URL)
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return fmt.Errorf("store.url %q is not a valid URL", c.Store.URL)
	}
	if c.Store.APIKey == "" {
		return errors.New("store.api_key is required. Set SEEDPIPE_STORE_KEY or add it to the config file")
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format: unsupported value %q", c.Logging.Format)
	}
	return nil
}

// ValidateR2 checks the object-storage credentials. Only the mirror command
// needs them, so they are not part of Validate.
func (c *Config) ValidateR2() error {
	if c.R2.AccountID == "" || c.R2.AccessKeyID == "" || c.R2.SecretAccessKey == "" || c.R2.Bucket == "" {
		return errors.New("r2.account_id, r2.access_key_id, r2.secret_access_key, and r2.bucket are required for mirroring")
	}
	return nil
}
