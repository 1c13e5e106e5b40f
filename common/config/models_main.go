package config

type GeneralConfig struct {
	LogDirectory string `yaml:"logDirectory"`
	LogColors    bool   `yaml:"logColors"`
	JsonLogs     bool   `yaml:"jsonLogs"`
	LogLevel     string `yaml:"logLevel"`

	// LogRetentionDays is how long rotated log files are kept.
	LogRetentionDays int `yaml:"logRetentionDays"`
}

type SourcesConfig struct {
	// AlbumsPath holds one directory per album (the site's album metadata).
	AlbumsPath   string   `yaml:"albumsPath"`
	SourcesPath  string   `yaml:"sourcesPath"`
	SourceSuffix string   `yaml:"sourceSuffix"`
	IgnoredFiles []string `yaml:"ignoredFiles,flow"`
	Extensions   []string `yaml:"extensions,flow"`
}

type S3Config struct {
	AccountId    string `yaml:"accountId"`
	Endpoint     string `yaml:"endpoint"`
	Region       string `yaml:"region"`
	BucketName   string `yaml:"bucketName"`
	AccessKeyId  string `yaml:"accessKeyId"`
	AccessSecret string `yaml:"accessSecret"`
	Ssl          bool   `yaml:"ssl"`
	CacheControl string `yaml:"cacheControl"`
}

type FileConfig struct {
	Path string `yaml:"path"`
}

type DatastoreConfig struct {
	Type              string     `yaml:"type"`
	S3                S3Config   `yaml:"s3"`
	File              FileConfig `yaml:"file"`
	ProtectedPrefixes []string   `yaml:"protectedPrefixes,flow"`
	PageSize          int        `yaml:"pageSize"`
	PublicDomain      string     `yaml:"publicDomain"`
}

type DisplayRenditionConfig struct {
	MaxHeight       int `yaml:"maxHeight"`
	Quality         int `yaml:"quality"`
	ReductionEffort int `yaml:"effort"`
}

type PreviewRenditionConfig struct {
	MaxWidth    int  `yaml:"maxWidth"`
	Quality     int  `yaml:"quality"`
	Progressive bool `yaml:"progressive"`
	Optimize    bool `yaml:"optimize"`
}

type RenditionsConfig struct {
	Display     DisplayRenditionConfig `yaml:"display"`
	Preview     PreviewRenditionConfig `yaml:"preview"`
	FailOnError bool                   `yaml:"failOnError"`
	MaxPixels   int                    `yaml:"maxPixels"`
}

type UploadsConfig struct {
	MaxAttempts       int  `yaml:"maxAttempts"`
	InitialBackoffMs  int  `yaml:"initialBackoffMs"`
	MaxBackoffSeconds int  `yaml:"maxBackoffSeconds"`
	AbortOnFailure    bool `yaml:"abortOnFailure"`
}

type IdsConfig struct {
	Bytes       int `yaml:"bytes"`
	MaxAttempts int `yaml:"maxAttempts"`
}

type PlanConfig struct {
	Path string `yaml:"path"`
}

type GalleryConfig struct {
	NumWorkers         int     `yaml:"numWorkers"`
	CacheSeconds       int     `yaml:"cacheSeconds"`
	BlurSize           int     `yaml:"blurSize"`
	BlurSigma          float64 `yaml:"blurSigma"`
	PlaceholderQuality int     `yaml:"placeholderQuality"`
	BlurhashX          int     `yaml:"blurhashXComponents"`
	BlurhashY          int     `yaml:"blurhashYComponents"`
}

type MetricsConfig struct {
	Enabled     bool   `yaml:"enabled"`
	BindAddress string `yaml:"bindAddress"`
	Port        int    `yaml:"port"`
}

type SentryConfig struct {
	Enabled     bool   `yaml:"enabled"`
	Dsn         string `yaml:"dsn"`
	Environment string `yaml:"environment"`
	Debug       bool   `yaml:"debug"`
}
