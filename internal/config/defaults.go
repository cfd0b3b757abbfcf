package config

const (
	defaultDataDir             = "~/.local/share/ratesync"
	defaultLogDir              = "~/.local/share/ratesync/logs"
	defaultReportDir           = "~/.local/share/ratesync/reports"
	defaultConnectTimeout      = 8
	defaultLazyLookupThreshold = 300
	defaultParallelThreshold   = 600
	defaultWorkers             = 6
	defaultLogFormat           = "console"
	defaultLogLevel            = "info"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Plex: Plex{
			ConnectTimeoutSeconds: defaultConnectTimeout,
		},
		Paths: Paths{
			DataDir:   defaultDataDir,
			LogDir:    defaultLogDir,
			ReportDir: defaultReportDir,
		},
		Sync: Sync{
			LazyLookupThreshold: defaultLazyLookupThreshold,
			ParallelThreshold:   defaultParallelThreshold,
			Workers:             defaultWorkers,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
