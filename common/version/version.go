package version

import (
	"fmt"
	"io"
	"runtime/debug"

	"github.com/sirupsen/logrus"
)

// Set at build time with -ldflags "-X github.com/echoghi/v5/common/version.Version=..."
var GitCommit string
var Version string

type Info struct {
	Version string
	Commit  string
	// Dirty is set when the binary was built from a modified checkout.
	Dirty bool
}

// Current resolves the build's version, falling back to the module's VCS stamp
// when no commit was linked in.
func Current() Info {
	info := Info{Version: Version, Commit: GitCommit}
	if info.Version == "" {
		info.Version = "unknown"
	}
	if info.Commit != "" {
		return info
	}

	info.Commit = ".dev"
	if build, ok := debug.ReadBuildInfo(); ok {
		fromBuildSettings(&info, build.Settings)
	}
	return info
}

func fromBuildSettings(info *Info, settings []debug.BuildSetting) {
	for _, s := range settings {
		switch s.Key {
		case "vcs.revision":
			info.Commit = s.Value
		case "vcs.modified":
			info.Dirty = s.Value == "true"
		}
	}
}

// Release is the identifier reported to Sentry.
func (i Info) Release() string {
	r := "photo-sync@" + i.Version + "+" + i.Commit
	if i.Dirty {
		r += ".dirty"
	}
	return r
}

func (i Info) Write(w io.Writer) {
	_, _ = fmt.Fprintf(w, "photo-sync %s (commit %s)\n", i.Version, i.Commit)
	if i.Dirty {
		_, _ = fmt.Fprintln(w, "Built from a modified checkout")
	}
}

func (i Info) Log() {
	logrus.WithFields(logrus.Fields{
		"version": i.Version,
		"commit":  i.Commit,
		"dirty":   i.Dirty,
	}).Info("photo-sync")
}
