package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/echoghi/v5/common/config"
	"github.com/echoghi/v5/common/rcontext"
	"github.com/echoghi/v5/common/runtime"
	"github.com/echoghi/v5/datastores"
	"github.com/echoghi/v5/gallery"
	"github.com/sirupsen/logrus"
)

func main() {
	configPath := flag.String("config", config.DefaultPath, "The path to the configuration")
	outFile := flag.String("outFile", "./gallery-report.txt", "File path for where to write results")
	inspect := flag.Bool("inspect", false, "Also download every display rendition and report its size and placeholder")
	flag.Parse()

	// Override config path with config for Docker users
	configEnv := os.Getenv("PHOTO_SYNC_CONFIG")
	if configEnv != "" {
		configPath = &configEnv
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		panic(err)
	}
	if err = cfg.Validate(); err != nil {
		panic(err)
	}

	shutdown, err := runtime.RunStartupSequence(cfg, "gallery_check")
	if err != nil {
		panic(err)
	}
	defer shutdown()

	ctx := rcontext.Initial(cfg)
	ds, err := datastores.Open(cfg.Datastore)
	if err != nil {
		panic(err)
	}
	logrus.Info("Scanning datastore: ", ds.Kind())

	browser := gallery.NewBrowser(ds, cfg)
	report, err := browser.Verify(ctx)
	if err != nil {
		panic(err)
	}
	logrus.Infof("Got %d objects across %d albums", report.Objects, len(report.Albums))

	f, err := os.Create(*outFile)
	if err != nil {
		panic(err)
	}
	defer f.Close()

	write := func(format string, args ...interface{}) {
		if _, err := fmt.Fprintf(f, format+"\n", args...); err != nil {
			panic(err)
		}
	}
	for _, k := range report.OrphanPreviews {
		write("preview without display: %s", k)
	}
	for _, k := range report.OrphanDisplays {
		write("display without preview: %s", k)
	}
	for _, k := range report.Stray {
		write("stray object: %s", k)
	}

	if *inspect {
		for _, album := range report.Albums {
			actx := ctx.LogWithFields(logrus.Fields{"album": album})
			photos, err := browser.Inspect(actx, album)
			if err != nil {
				panic(err)
			}
			for _, p := range photos {
				if p.Err != nil {
					write("inspection failed: %s: %v", p.DisplayKey, p.Err)
					continue
				}
				write("%s %dx%d %s", p.DisplayUrl, p.Width, p.Height, p.Blurhash)
			}
		}
	}

	if report.Consistent() {
		logrus.Info("Every display rendition has its preview")
	} else {
		logrus.Warnf("Found %d inconsistencies, see %s", len(report.OrphanPreviews)+len(report.OrphanDisplays)+len(report.Stray), *outFile)
	}
	logrus.Info("Done!")
}
