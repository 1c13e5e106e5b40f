package logging

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/echoghi/v5/common/config"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
)

func resetLogger(t *testing.T) {
	t.Cleanup(func() {
		logrus.StandardLogger().ReplaceHooks(make(logrus.LevelHooks))
		logrus.SetLevel(logrus.InfoLevel)
	})
}

func TestSetupStdoutOnly(t *testing.T) {
	resetLogger(t)
	err := Setup(config.GeneralConfig{LogDirectory: "-", LogLevel: "warn"}, "photo_sync")
	assert.NoError(t, err)
	assert.Equal(t, logrus.WarnLevel, logrus.GetLevel())
	assert.Empty(t, logrus.StandardLogger().Hooks)
}

func TestSetupBadLevel(t *testing.T) {
	resetLogger(t)
	assert.Error(t, Setup(config.GeneralConfig{LogLevel: "loud"}, "photo_sync"))
}

func TestSetupWritesProgramLog(t *testing.T) {
	resetLogger(t)
	dir := t.TempDir()
	cfg := config.GeneralConfig{LogDirectory: dir, LogLevel: "debug", JsonLogs: true}
	assert.NoError(t, Setup(cfg, "gallery_check"))
	// a second setup replaces the file hook instead of doubling it
	assert.NoError(t, Setup(cfg, "gallery_check"))

	logrus.WithField("album", "italy").Info("Uploaded")

	files, err := filepath.Glob(filepath.Join(dir, "gallery_check.log.*"))
	assert.NoError(t, err)
	if assert.Len(t, files, 1) {
		b, err := os.ReadFile(files[0])
		assert.NoError(t, err)
		assert.Contains(t, string(b), `"album":"italy"`)
		assert.Equal(t, 1, countLines(b))
	}
}

func TestUtcFormatter(t *testing.T) {
	f := newFormatter(config.GeneralConfig{JsonLogs: true})
	zone := time.FixedZone("PST", -8*60*60)
	entry := &logrus.Entry{
		Logger:  logrus.New(),
		Time:    time.Date(2024, 3, 1, 16, 0, 0, 0, zone),
		Level:   logrus.InfoLevel,
		Message: "hello",
		Data:    logrus.Fields{},
	}
	b, err := f.Format(entry)
	assert.NoError(t, err)
	assert.Contains(t, string(b), "2024-03-02 00:00:00.000 Z")
}

func countLines(b []byte) int {
	n := 0
	for _, c := range b {
		if c == '\n' {
			n++
		}
	}
	return n
}
