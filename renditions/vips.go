package renditions

import (
	"sync"

	"github.com/davidbyttow/govips/v2/vips"
	"github.com/sirupsen/logrus"
)

var startOnce sync.Once

// Startup initializes libvips once per process. It must be called before any
// rendering.
func Startup() {
	startOnce.Do(func() {
		vips.LoggingSettings(func(domain string, level vips.LogLevel, msg string) {
			entry := logrus.WithField("vips", domain)
			switch level {
			case vips.LogLevelError, vips.LogLevelCritical:
				entry.Error(msg)
			case vips.LogLevelWarning:
				entry.Warn(msg)
			default:
				entry.Debug(msg)
			}
		}, vips.LogLevelWarning)
		vips.Startup(nil)
	})
}

func Shutdown() {
	vips.Shutdown()
}
