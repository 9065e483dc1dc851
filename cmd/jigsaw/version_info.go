package main

import (
	"runtime/debug"
)

var readBuildInfo = debug.ReadBuildInfo

// initVersion falls back to the module version recorded by `go install`
// when the binary was not stamped by GoReleaser.
func initVersion() {
	if version != defaultVersion {
		return
	}

	info, ok := readBuildInfo()
	if !ok || info == nil {
		return
	}

	if info.Main.Version == "" || info.Main.Version == "(devel)" {
		return
	}

	version = info.Main.Version
}
