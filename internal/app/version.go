package app

import (
	"fmt"
	"runtime"

	"github.com/heartmarshall/ndep-backend/internal/service/ledger"
)

// Set via ldflags:
// go build -ldflags "-X github.com/heartmarshall/ndep-backend/internal/app.Version=1.4.0"
var (
	Version   = "dev"
	Commit    = "unknown"
	BuildTime = "unknown"
)

// BuildInfo identifies the binary that wrote or verified a custody chain.
type BuildInfo struct {
	Version         string `json:"version"           yaml:"version"`
	Commit          string `json:"commit"            yaml:"commit"`
	BuildTime       string `json:"build_time"        yaml:"build_time"`
	GoVersion       string `json:"go_version"        yaml:"go_version"`
	EventHashScheme string `json:"event_hash_scheme" yaml:"event_hash_scheme"`
}

// Info returns the build metadata of the running binary.
func Info() BuildInfo {
	return BuildInfo{
		Version:         Version,
		Commit:          Commit,
		BuildTime:       BuildTime,
		GoVersion:       runtime.Version(),
		EventHashScheme: ledger.HashScheme,
	}
}

// BuildVersion returns the one-line form of Info for startup logs.
func BuildVersion() string {
	return fmt.Sprintf("%s (commit: %s, built: %s, event hash: %s)", Version, Commit, BuildTime, ledger.HashScheme)
}
