package config

const (
	defaultTable              = "influencers"
	defaultPageSize           = 1000
	defaultDeleteBatchSize    = 100
	defaultFetchRetries       = 3
	defaultStoreTimeout       = 30
	defaultDataDir            = "~/.local/share/seedpipe/data"
	defaultLogDir             = "~/.local/share/seedpipe/logs"
	defaultBackupDir          = "~/.local/share/seedpipe/backups"
	defaultThumbnailsDir      = "~/.local/share/seedpipe/thumbnails"
	defaultAgeBonusCap        = 5
	defaultEngagementBonusCap = 3
	defaultEngagementUnit     = 100_000
	defaultMirrorConcurrency  = 10
	defaultCompany            = "seedlab"
	defaultPlatform           = "tiktok"
	defaultLogFormat          = "console"
	defaultLogLevel           = "info"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Store: Store{
			Table:           defaultTable,
			PageSize:        defaultPageSize,
			DeleteBatchSize: defaultDeleteBatchSize,
			FetchRetries:    defaultFetchRetries,
			TimeoutSeconds:  defaultStoreTimeout,
		},
		Paths: Paths{
			DataDir:       defaultDataDir,
			LogDir:        defaultLogDir,
			BackupDir:     defaultBackupDir,
			ThumbnailsDir: defaultThumbnailsDir,
		},
		Dedup: Dedup{
			AgeBonusCap:        defaultAgeBonusCap,
			EngagementBonusCap: defaultEngagementBonusCap,
			EngagementUnit:     defaultEngagementUnit,
		},
		R2: R2{
			MaxConcurrent: defaultMirrorConcurrency,
		},
		Ingest: Ingest{
			Company:  defaultCompany,
			Platform: defaultPlatform,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
