package main

import (
	"os/exec"
	"runtime/debug"
	"strings"
	"time"
)

// Overridable with -ldflags "-X main.commit=... -X main.buildDate=...".
var (
	commit    = ""
	buildDate = ""
)

type buildVersion struct {
	Commit string
	Date   string
}

// readVersion resolves the revision from linker flags, then VCS build info, then git.
func readVersion() buildVersion {
	v := buildVersion{Commit: commit, Date: buildDate}
	if info, ok := debug.ReadBuildInfo(); ok {
		for _, s := range info.Settings {
			switch {
			case s.Key == "vcs.revision" && v.Commit == "":
				v.Commit = shortRev(s.Value)
			case s.Key == "vcs.time" && v.Date == "":
				if t, err := time.Parse(time.RFC3339, s.Value); err == nil {
					v.Date = t.Format("2006-01-02")
				}
			}
		}
	}
	if v.Commit == "" {
		if out, err := exec.Command("git", "rev-parse", "--short", "HEAD").Output(); err == nil {
			v.Commit = strings.TrimSpace(string(out))
		}
	}
	if v.Commit == "" {
		v.Commit = "dev"
	}
	if v.Date == "" {
		v.Date = time.Now().Format("2006-01-02")
	}
	return v
}

func shortRev(rev string) string {
	if len(rev) > 7 {
		return rev[:7]
	}
	return rev
}
