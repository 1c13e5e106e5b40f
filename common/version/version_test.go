package version

import (
	"bytes"
	"runtime/debug"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLinkedVersion(t *testing.T) {
	Version, GitCommit = "1.2.0", "abc123"
	t.Cleanup(func() { Version, GitCommit = "", "" })

	info := Current()
	assert.Equal(t, Info{Version: "1.2.0", Commit: "abc123"}, info)
	assert.Equal(t, "photo-sync@1.2.0+abc123", info.Release())
}

func TestFromBuildSettings(t *testing.T) {
	info := Info{Version: "unknown", Commit: ".dev"}
	fromBuildSettings(&info, []debug.BuildSetting{
		{Key: "vcs", Value: "git"},
		{Key: "vcs.revision", Value: "def456"},
		{Key: "vcs.modified", Value: "true"},
	})
	assert.Equal(t, "def456", info.Commit)
	assert.True(t, info.Dirty)
	assert.Equal(t, "photo-sync@unknown+def456.dirty", info.Release())
}

func TestWrite(t *testing.T) {
	var buf bytes.Buffer
	Info{Version: "1.2.0", Commit: "abc123"}.Write(&buf)
	assert.Equal(t, "photo-sync 1.2.0 (commit abc123)\n", buf.String())
}
