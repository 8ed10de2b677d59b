package config

const (
	defaultStateDir              = "~/.local/share/medmatch"
	defaultSandboxDir            = "~/.local/share/medmatch/files"
	defaultLogDir                = "~/.local/share/medmatch/logs"
	defaultStoreBackend          = StoreBackendJSON
	defaultReportUser            = "anonymous"
	defaultReportTimeout         = 10
	defaultResolverMode          = ResolverLastSegments
	defaultResolverSegments      = 2
	defaultLogFormat             = "console"
	defaultLogLevel              = "info"
	defaultFingerprintWeight     = 0.5
	defaultTranscriptionWeight   = 0.3
	defaultSizeWeight            = 0.2
	defaultAcceptanceThreshold   = 0.6
	defaultSizeToleranceFraction = 0.02
)

const (
	StoreBackendJSON   = "json"
	StoreBackendSQLite = "sqlite"

	ResolverLastSegments = "last_segments"
	ResolverRelative     = "relative"
	ResolverNone         = "none"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			StateDir:   defaultStateDir,
			SandboxDir: defaultSandboxDir,
			LogDir:     defaultLogDir,
		},
		Store: Store{
			Backend: defaultStoreBackend,
		},
		Reporting: Reporting{
			User:           defaultReportUser,
			RequestTimeout: defaultReportTimeout,
		},
		PathResolver: PathResolver{
			Mode:     defaultResolverMode,
			Segments: defaultResolverSegments,
		},
		Scoring: Scoring{
			Enabled:             true,
			FingerprintWeight:   defaultFingerprintWeight,
			TranscriptionWeight: defaultTranscriptionWeight,
			SizeWeight:          defaultSizeWeight,
			Threshold:           defaultAcceptanceThreshold,
			SizeTolerance:       defaultSizeToleranceFraction,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
