package config

import (
	"fmt"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeStore()
	c.normalizeDedup()
	c.normalizeR2()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if c.Paths.DataDir, err = expandPath(c.Paths.DataDir); err != nil {
		return fmt.Errorf("paths.data_dir: %w", err)
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	if c.Paths.BackupDir, err = expandPath(c.Paths.BackupDir); err != nil {
		return fmt.Errorf("paths.backup_dir: %w", err)
	}
	if c.Paths.ThumbnailsDir, err = expandPath(c.Paths.ThumbnailsDir); err != nil {
		return fmt.Errorf("paths.thumbnails_dir: %w", err)
	}
	return nil
}

func (c *Config) normalizeStore() {
	c.Store.URL = strings.TrimRight(strings.TrimSpace(c.Store.URL), "/")
	c.Store.APIKey = strings.TrimSpace(c.Store.APIKey)
	c.Store.Table = strings.TrimSpace(c.Store.Table)
	if c.Store.Table == "" {
		c.Store.Table = defaultTable
	}
	if c.Store.PageSize <= 0 {
		c.Store.PageSize = defaultPageSize
	}
	if c.Store.DeleteBatchSize <= 0 {
		c.Store.DeleteBatchSize = defaultDeleteBatchSize
	}
	if c.Store.FetchRetries < 0 {
		c.Store.FetchRetries = defaultFetchRetries
	}
	if c.Store.TimeoutSeconds <= 0 {
		c.Store.TimeoutSeconds = defaultStoreTimeout
	}
}

func (c *Config) normalizeDedup() {
	if c.Dedup.EngagementBonusCap <= 0 {
		c.Dedup.EngagementBonusCap = defaultEngagementBonusCap
	}
	if c.Dedup.EngagementUnit <= 0 {
		c.Dedup.EngagementUnit = defaultEngagementUnit
	}
}

func (c *Config) normalizeR2() {
	c.R2.AccountID = strings.TrimSpace(c.R2.AccountID)
	c.R2.AccessKeyID = strings.TrimSpace(c.R2.AccessKeyID)
	c.R2.SecretAccessKey = strings.TrimSpace(c.R2.SecretAccessKey)
	c.R2.Bucket = strings.TrimSpace(c.R2.Bucket)
	c.R2.PublicBaseURL = strings.TrimSpace(c.R2.PublicBaseURL)
	if c.R2.PublicBaseURL != "" && !strings.HasSuffix(c.R2.PublicBaseURL, "/") {
		c.R2.PublicBaseURL += "/"
	}
	if c.R2.MaxConcurrent <= 0 {
		c.R2.MaxConcurrent = defaultMirrorConcurrency
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}
