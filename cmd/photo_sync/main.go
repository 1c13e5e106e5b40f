package main

import (
	"context"
	"errors"
	"flag"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/echoghi/v5/common/config"
	"github.com/echoghi/v5/common/rcontext"
	"github.com/echoghi/v5/common/runtime"
	"github.com/echoghi/v5/common/version"
	"github.com/echoghi/v5/datastores"
	"github.com/echoghi/v5/pipelines"
	"github.com/echoghi/v5/renditions"
	"github.com/getsentry/sentry-go"
	"github.com/sirupsen/logrus"
)

func main() {
	configPath := flag.String("config", config.DefaultPath, "The path to the configuration")
	albumsFlag := flag.String("album", "", "Comma-separated album names to process. Only their objects are cleared. Defaults to every album.")
	resume := flag.Bool("resume", false, "Continue an interrupted run from its plan instead of starting over. Implies -keep-bucket.")
	keepBucket := flag.Bool("keep-bucket", false, "Do not clear the bucket before uploading")
	versionFlag := flag.Bool("version", false, "Prints the version and exits")
	flag.Parse()

	if *versionFlag {
		version.Current().Write(os.Stdout)
		return // exit 0
	}

	// Override config path with config for Docker users
	configEnv := os.Getenv("PHOTO_SYNC_CONFIG")
	if configEnv != "" {
		configPath = &configEnv
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		logrus.Fatal(err)
	}
	if err = cfg.Validate(); err != nil {
		logrus.Fatal(err)
	}

	shutdown, err := runtime.RunStartupSequence(cfg, "photo_sync")
	if err != nil {
		logrus.Fatal(err)
	}

	os.Exit(run(cfg, shutdown, pipelines.RunOptions{
		Albums:     splitAlbums(*albumsFlag),
		Resume:     *resume,
		KeepBucket: *keepBucket,
	}))
}

func run(cfg *config.MainSyncConfig, shutdown func(), opts pipelines.RunOptions) int {
	defer shutdown()
	defer sentry.Recover()

	sigCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx := rcontext.Wrap(sigCtx, cfg)

	ds, err := datastores.Open(cfg.Datastore)
	if err != nil {
		sentry.CaptureException(err)
		ctx.Log.Error(err)
		return 1
	}
	ctx = ctx.LogWithFields(logrus.Fields{"datastore": ds.Kind()})

	runner := pipelines.NewRunner(cfg, ds, renditions.NewDeriver(cfg.Renditions))
	summary, err := runner.Run(ctx, opts)
	summary.Log(ctx)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			ctx.Log.Warn("Stop signal received, run with -resume to continue")
		} else if errors.Is(err, pipelines.ErrNoPlan) {
			ctx.Log.Error(err, " - the last run finished or never started, run without -resume")
		} else {
			sentry.CaptureException(err)
			ctx.Log.Error(err)
		}
		return 1
	}
	if summary.HasFailures() {
		return 1
	}
	return 0
}

func splitAlbums(v string) []string {
	names := make([]string, 0)
	for _, n := range strings.Split(v, ",") {
		if n = strings.TrimSpace(n); n != "" {
			names = append(names, n)
		}
	}
	return names
}
