// Package misc holds build information injected by linker flags.
package misc

var (
	appName = "hcg"
	version = "dev"
	gitHash = "unknown"
)

// GetAppName returns program name used for logger, temporary and report file
// names.
func GetAppName() string {
	return appName
}

// GetVersion returns program version, set with
// -ldflags "-X hcg/misc.version=...".
func GetVersion() string {
	return version
}

// GetGitHash returns commit the program was built from.
func GetGitHash() string {
	return gitHash
}
