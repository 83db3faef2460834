package main

import (
	_ "embed"
	"runtime/debug"
	"strings"
)

//go:embed VERSION
var embeddedVersion string

// buildVersion is what the binary knows about its own build.
type buildVersion struct {
	release  string // from VERSION
	module   string // set by go install pkg@version
	revision string // abbreviated vcs.revision
	modified bool
}

func readBuildVersion() buildVersion {
	v := buildVersion{release: strings.TrimSpace(embeddedVersion)}
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return v
	}
	if info.Main.Version != "(devel)" {
		v.module = info.Main.Version
	}
	for _, s := range info.Settings {
		switch s.Key {
		case "vcs.revision":
			v.revision = s.Value[:min(len(s.Value), 7)]
		case "vcs.modified":
			v.modified = s.Value == "true"
		}
	}
	return v
}

// String prefers the module version. Source builds render as
// devel-<release>[+<revision>[.dirty]].
func (v buildVersion) String() string {
	if v.module != "" {
		return v.module
	}
	if v.release == "" {
		return "devel"
	}
	s := "devel-" + v.release
	if v.revision != "" {
		s += "+" + v.revision
		if v.modified {
			s += ".dirty"
		}
	}
	return s
}

// Version returns the version of the running binary.
func Version() string {
	return readBuildVersion().String()
}
