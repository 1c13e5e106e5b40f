package main

import (
	"flag"
	"os"

	"github.com/echoghi/v5/common/config"
	"github.com/echoghi/v5/common/logging"
	"github.com/echoghi/v5/common/rcontext"
	"github.com/echoghi/v5/renditions"
)

func main() {
	configPath := flag.String("config", config.DefaultPath, "The path to the configuration")
	inFile := flag.String("i", "", "The input image to render")
	displayFile := flag.String("display", "", "The output file for the display rendition (webp)")
	previewFile := flag.String("preview", "", "The output file for the preview rendition (jpeg)")
	flag.Parse()

	if inFile == nil || *inFile == "" {
		panic("No input file specified")
	}
	if *displayFile == "" && *previewFile == "" {
		panic("No output file specified")
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		panic(err)
	}
	err = logging.Setup(cfg.General, "rendition")
	if err != nil {
		panic(err)
	}
	ctx := rcontext.Initial(cfg)

	renditions.Startup()
	defer renditions.Shutdown()

	src, err := os.ReadFile(*inFile)
	if err != nil {
		panic(err)
	}
	mime, err := renditions.SniffSourceType(src)
	if err != nil {
		panic(err)
	}
	ctx.Log.WithField("mime", mime).Info("Detected mime type")

	d := renditions.NewDeriver(cfg.Renditions)
	outputs := map[renditions.Kind]string{
		renditions.KindDisplay: *displayFile,
		renditions.KindPreview: *previewFile,
	}
	for _, kind := range renditions.AllKinds {
		out := outputs[kind]
		if out == "" {
			continue
		}
		r, err := d.Render(ctx, kind, src)
		if err != nil {
			panic(err)
		}
		ctx.Log.WithField("kind", kind).WithField("width", r.Width).WithField("height", r.Height).Info("Writing rendition")
		if err = os.WriteFile(out, r.Data, 0644); err != nil {
			panic(err)
		}
	}

	ctx.Log.Info("Done!")
}
