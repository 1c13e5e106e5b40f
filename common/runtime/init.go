package runtime

import (
	"time"

	"github.com/echoghi/v5/common/config"
	"github.com/echoghi/v5/common/logging"
	"github.com/echoghi/v5/common/version"
	"github.com/echoghi/v5/metrics"
	"github.com/echoghi/v5/renditions"
	"github.com/getsentry/sentry-go"
	"github.com/sirupsen/logrus"
)

// RunStartupSequence prepares the process-wide services every command relies
// on. The returned func undoes it and must be deferred by the caller.
func RunStartupSequence(cfg *config.MainSyncConfig, program string) (func(), error) {
	err := logging.Setup(cfg.General, program)
	if err != nil {
		return nil, err
	}

	build := version.Current()
	build.Log()

	if cfg.Sentry.Enabled {
		logrus.Info("Setting up Sentry for debugging...")
		err = sentry.Init(sentry.ClientOptions{
			Dsn:         cfg.Sentry.Dsn,
			Environment: cfg.Sentry.Environment,
			Debug:       cfg.Sentry.Debug,
			Release:     build.Release(),
		})
		if err != nil {
			return nil, err
		}
	}

	logrus.Info("Starting image processor...")
	renditions.Startup()

	metrics.Init(cfg.Metrics)

	return func() {
		metrics.Stop()
		renditions.Shutdown()
		sentry.Flush(2 * time.Second)
	}, nil
}
