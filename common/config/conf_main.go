package config

type MainSyncConfig struct {
	General    GeneralConfig    `yaml:"repo"`
	Sources    SourcesConfig    `yaml:"sources"`
	Datastore  DatastoreConfig  `yaml:"datastore"`
	Renditions RenditionsConfig `yaml:"renditions"`
	Uploads    UploadsConfig    `yaml:"uploads"`
	Ids        IdsConfig        `yaml:"ids"`
	Plan       PlanConfig       `yaml:"plan"`
	Gallery    GalleryConfig    `yaml:"gallery"`
	Metrics    MetricsConfig    `yaml:"metrics"`
	Sentry     SentryConfig     `yaml:"sentry"`
}

func NewDefaultMainConfig() MainSyncConfig {
	return MainSyncConfig{
		General: GeneralConfig{
			LogDirectory: "-",
			LogColors:    false,
			JsonLogs:     false,
			LogLevel:     "info",

			LogRetentionDays: 14,
		},
		Sources: SourcesConfig{
			AlbumsPath:   "src/content/photos",
			SourcesPath:  "photos",
			SourceSuffix: "-source",
			IgnoredFiles: []string{".DS_Store"},
			Extensions:   []string{"jpg", "jpeg", "png"},
		},
		Datastore: DatastoreConfig{
			Type: "s3",
			S3: S3Config{
				Region:       "auto",
				Ssl:          true,
				CacheControl: "public, max-age=31536000, immutable",
			},
			File: FileConfig{
				Path: "public/images",
			},
			ProtectedPrefixes: []string{AlbumsPrefix},
			PageSize:          1000,
		},
		Renditions: RenditionsConfig{
			Display: DisplayRenditionConfig{
				MaxHeight:       900,
				Quality:         100,
				ReductionEffort: 6,
			},
			Preview: PreviewRenditionConfig{
				MaxWidth:    610,
				Quality:     80,
				Progressive: true,
				Optimize:    true,
			},
			FailOnError: false,
			MaxPixels:   268402689, // libvips default limit
		},
		Uploads: UploadsConfig{
			MaxAttempts:       5,
			InitialBackoffMs:  500,
			MaxBackoffSeconds: 30,
			AbortOnFailure:    false,
		},
		Ids: IdsConfig{
			Bytes:       8,
			MaxAttempts: 1000,
		},
		Plan: PlanConfig{
			Path: ".photo-sync-plan.yaml",
		},
		Gallery: GalleryConfig{
			NumWorkers:         8,
			CacheSeconds:       300,
			BlurSize:           32,
			BlurSigma:          2.5,
			PlaceholderQuality: 60,
			BlurhashX:          4,
			BlurhashY:          3,
		},
		Metrics: MetricsConfig{
			Enabled:     false,
			BindAddress: "127.0.0.1",
			Port:        9000,
		},
		Sentry: SentryConfig{
			Enabled:     false,
			Environment: "",
			Debug:       false,
		},
	}
}
