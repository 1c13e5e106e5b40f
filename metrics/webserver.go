package metrics

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/echoghi/v5/common/config"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
)

var srv *http.Server

// Init starts the scrape listener. A batch run is short, so this is mostly
// useful alongside a push gateway or when watching a long resume.
func Init(cfg config.MetricsConfig) {
	if !cfg.Enabled {
		logrus.Debug("Metrics disabled")
		return
	}
	rtr := http.NewServeMux()
	rtr.Handle("/metrics", promhttp.Handler())

	address := cfg.BindAddress + ":" + strconv.Itoa(cfg.Port)
	srv = &http.Server{Addr: address, Handler: rtr}
	go func() {
		logrus.WithField("address", address).Info("Started metrics listener. Listening at http://" + address)
		if err := srv.ListenAndServe(); err != http.ErrServerClosed {
			logrus.Error(err)
		}
	}()
}

func Stop() {
	if srv != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(ctx); err != nil {
			logrus.Warn("Error stopping metrics listener: ", err)
		}
		srv = nil
	}
}
