// Package buildinfo exposes version details stamped in at link time.
package buildinfo

import "runtime"

var (
	Version = "dev"
	Commit  = ""
	BuiltAt = ""
)

func Info() map[string]string {
	return map[string]string{
		"version":   Version,
		"commit":    Commit,
		"builtAt":   BuiltAt,
		"goVersion": runtime.Version(),
	}
}
