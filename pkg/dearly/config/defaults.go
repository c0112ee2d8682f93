package config

// Default configuration values.
const (
	// DefaultJPEGQuality is the export re-encode quality.
	DefaultJPEGQuality = 85

	// DefaultIncludeHistory controls whether exports carry edit history
	// by default.
	DefaultIncludeHistory = false

	// DefaultLogLevel is the default logging level.
	DefaultLogLevel = "info"
)

// DefaultComponentLevels holds per-component log level overrides.
var DefaultComponentLevels = map[string]string{
	"container": "info",
	"history":   "info",
	"watcher":   "warn",
}
