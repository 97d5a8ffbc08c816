package main

import (
	"fmt"
	rtdebug "runtime/debug"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

func buildVersionString() string {
	v := version
	if v == "dev" {
		if info, ok := rtdebug.ReadBuildInfo(); ok && info.Main.Version != "" && info.Main.Version != "(devel)" {
			v = info.Main.Version
		}
	}
	return fmt.Sprintf("aca %s", v)
}
