// Package version reports the build version of crust.
package version

import (
	"fmt"
	"runtime"
	"runtime/debug"
	"strings"
	"time"
)

const defaultModule = "pkt.systems/crust"

// buildVersion is set via -ldflags "-X pkt.systems/crust/internal/version.buildVersion=...".
var buildVersion = ""

// Info describes the running binary.
type Info struct {
	Module    string
	Version   string
	Revision  string
	Dirty     bool
	GoVersion string
}

// String renders the one-line form printed by `crust version`.
func (i Info) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s %s", i.Module, i.Version)
	if i.Revision != "" && !strings.HasSuffix(i.Version, shortRevision(i.Revision)) {
		fmt.Fprintf(&b, " (%s)", shortRevision(i.Revision))
	}
	if i.Dirty {
		b.WriteString(" dirty")
	}
	fmt.Fprintf(&b, " %s", i.GoVersion)
	return b.String()
}

// Get collects version details from the linker flag and build info.
func Get() Info {
	info, _ := debug.ReadBuildInfo()
	return fromBuildInfo(info, buildVersion)
}

// Current returns the best available version string.
func Current() string {
	return Get().Version
}

func fromBuildInfo(info *debug.BuildInfo, override string) Info {
	out := Info{Module: defaultModule, Version: "v0.0.0-unknown", GoVersion: runtime.Version()}
	var vcsTime string
	if info != nil {
		if path := strings.TrimSpace(info.Main.Path); path != "" {
			out.Module = path
		}
		for _, setting := range info.Settings {
			switch setting.Key {
			case "vcs.revision":
				out.Revision = setting.Value
			case "vcs.time":
				vcsTime = setting.Value
			case "vcs.modified":
				out.Dirty = setting.Value == "true"
			}
		}
	}
	switch {
	case strings.TrimSpace(override) != "":
		out.Version = strings.TrimSpace(override)
	case info != nil && info.Main.Version != "" && info.Main.Version != "(devel)":
		out.Version = strings.TrimSuffix(info.Main.Version, "+dirty")
	default:
		if v := pseudoVersion(out.Revision, vcsTime); v != "" {
			out.Version = v
		}
	}
	return out
}

func pseudoVersion(revision, vcsTime string) string {
	if revision == "" || vcsTime == "" {
		return ""
	}
	parsed, err := time.Parse(time.RFC3339, vcsTime)
	if err != nil {
		return ""
	}
	return "v0.0.0-" + parsed.UTC().Format("20060102150405") + "-" + shortRevision(revision)
}

func shortRevision(rev string) string {
	if len(rev) > 12 {
		return rev[:12]
	}
	return rev
}
