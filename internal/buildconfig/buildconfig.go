package buildconfig

// Injected via -ldflags at build time.
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

func Version() string { return version }

func Commit() string { return commit }

// VersionInfo bundles the build identifiers for /metrics and the CLI.
func VersionInfo() map[string]string {
	return map[string]string{
		"version": version,
		"commit":  commit,
		"date":    date,
	}
}
