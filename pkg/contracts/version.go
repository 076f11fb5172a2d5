package contracts

import (
	"fmt"
	"runtime"
)

const (
	// Version of the sheetetl binary.
	Version = "0.3.0"

	// TableFormatVersion changes whenever the long-format table layout does.
	TableFormatVersion = "v1"
)

// Set through -ldflags "-X sheetetl/pkg/contracts.GitCommit=..." at release.
var (
	BuildTime = "unknown"
	GitCommit = "unknown"
)

// VersionInfo describes the running binary
type VersionInfo struct {
	Version     string `json:"version"`
	TableFormat string `json:"table_format"`
	BuildTime   string `json:"build_time"`
	GitCommit   string `json:"git_commit"`
	GoVersion   string `json:"go_version"`
	Platform    string `json:"platform"`
}

// GetVersionInfo collects version and build details
func GetVersionInfo() VersionInfo {
	return VersionInfo{
		Version:     Version,
		TableFormat: TableFormatVersion,
		BuildTime:   BuildTime,
		GitCommit:   GitCommit,
		GoVersion:   runtime.Version(),
		Platform:    runtime.GOOS + "/" + runtime.GOARCH,
	}
}

// GetVersionString returns the short name and version
func GetVersionString() string {
	return "sheetetl v" + Version
}

// GetFullVersionString appends build details to GetVersionString
func GetFullVersionString() string {
	info := GetVersionInfo()
	return fmt.Sprintf("%s (table format %s, built %s, commit %s, %s %s)",
		GetVersionString(), info.TableFormat, info.BuildTime, info.GitCommit, info.GoVersion, info.Platform)
}
