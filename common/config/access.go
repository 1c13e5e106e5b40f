package config

import (
	"errors"
	"fmt"
	"os"
	"path"
	"sort"
	"strings"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v2"
)

const DefaultPath = "photo-sync.yaml"

// AlbumsPrefix holds the gallery's album metadata and is never cleared.
const AlbumsPrefix = "albums/"

var ErrMissingConfig = errors.New("missing required configuration")

// Load reads the configuration at the given path over top of the defaults, then
// applies environment overrides. A directory loads every file in it in name order.
// A missing path is not an error: defaults plus environment are used.
func Load(p string) (*MainSyncConfig, error) {
	c := NewDefaultMainConfig()

	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		logrus.Warn("Error loading .env file: ", err)
	}

	info, err := os.Stat(p)
	if err != nil && !os.IsNotExist(err) {
		return nil, err
	}

	pathsOrdered := make([]string, 0)
	if err == nil {
		if info.IsDir() {
			logrus.Info("Config is a directory - loading all files over top of each other")
			files, err := os.ReadDir(p)
			if err != nil {
				return nil, err
			}
			for _, f := range files {
				if f.IsDir() {
					continue
				}
				pathsOrdered = append(pathsOrdered, path.Join(p, f.Name()))
			}
			sort.Strings(pathsOrdered)
		} else {
			pathsOrdered = append(pathsOrdered, p)
		}
	} else {
		logrus.Infof("Config file %s not found - using defaults and environment", p)
	}

	for _, fp := range pathsOrdered {
		logrus.Info("Loading config file: ", fp)
		buffer, err := os.ReadFile(fp)
		if err != nil {
			return nil, err
		}
		if err = yaml.Unmarshal(buffer, &c); err != nil {
			return nil, fmt.Errorf("error parsing %s: %w", fp, err)
		}
	}

	c.applyEnvironment(os.LookupEnv)
	return &c, nil
}

func (c *MainSyncConfig) applyEnvironment(lookup func(string) (string, bool)) {
	set := func(name string, target *string) {
		if val, ok := lookup(name); ok && val != "" {
			*target = val
		}
	}
	set("ACCOUNT_ID", &c.Datastore.S3.AccountId)
	set("BUCKET", &c.Datastore.S3.BucketName)
	set("AWS_ACCESS_KEY_ID", &c.Datastore.S3.AccessKeyId)
	set("AWS_SECRET_ACCESS_KEY", &c.Datastore.S3.AccessSecret)
	set("S3_ENDPOINT", &c.Datastore.S3.Endpoint)
	set("R2_PUBLIC_DOMAIN", &c.Datastore.PublicDomain)
	set("SENTRY_DSN", &c.Sentry.Dsn)
}

// Validate reports every missing field required by the configured datastore.
func (c *MainSyncConfig) Validate() error {
	missing := make([]string, 0)
	switch c.Datastore.Type {
	case "s3":
		s3 := c.Datastore.S3
		if s3.BucketName == "" {
			missing = append(missing, "datastore.s3.bucketName (BUCKET)")
		}
		if s3.AccountId == "" && s3.Endpoint == "" {
			missing = append(missing, "datastore.s3.accountId (ACCOUNT_ID) or datastore.s3.endpoint (S3_ENDPOINT)")
		}
		if s3.AccessKeyId == "" {
			missing = append(missing, "datastore.s3.accessKeyId (AWS_ACCESS_KEY_ID)")
		}
		if s3.AccessSecret == "" {
			missing = append(missing, "datastore.s3.accessSecret (AWS_SECRET_ACCESS_KEY)")
		}
	case "file":
		if c.Datastore.File.Path == "" {
			missing = append(missing, "datastore.file.path")
		}
	default:
		return fmt.Errorf("unknown datastore type %q", c.Datastore.Type)
	}

	if c.Sources.AlbumsPath == "" {
		missing = append(missing, "sources.albumsPath")
	}
	if c.Sources.SourcesPath == "" {
		missing = append(missing, "sources.sourcesPath")
	}
	if c.Sentry.Enabled && c.Sentry.Dsn == "" {
		missing = append(missing, "sentry.dsn (SENTRY_DSN)")
	}

	if len(missing) > 0 {
		return fmt.Errorf("%w: %s", ErrMissingConfig, strings.Join(missing, ", "))
	}
	if c.Ids.Bytes <= 0 || c.Ids.MaxAttempts <= 0 {
		return errors.New("ids.bytes and ids.maxAttempts must be positive")
	}
	if c.Renditions.Display.MaxHeight <= 0 || c.Renditions.Preview.MaxWidth <= 0 {
		return errors.New("rendition bounds must be positive")
	}
	if !protects(c.Datastore.ProtectedPrefixes, AlbumsPrefix) {
		return fmt.Errorf("datastore.protectedPrefixes must include %q", AlbumsPrefix)
	}
	return nil
}

func protects(prefixes []string, prefix string) bool {
	for _, p := range prefixes {
		if p != "" && strings.HasPrefix(prefix, p) {
			return true
		}
	}
	return false
}
