package config

import (
	_ "embed"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/kozaktomas/portfolio/internal/imageopt"
	"gopkg.in/yaml.v3"
)

//go:embed image_limits.yaml
var imageLimitsYAML []byte

// EnvProduction is the APP_ENV value that hides backend error details.
const EnvProduction = "production"

type Config struct {
	Env      string
	Web      WebConfig
	Database DatabaseConfig
	Storage  StorageConfig
	Admin    AdminConfig
	GitHub   GitHubConfig
	Images   imageopt.Options
}

type WebConfig struct {
	Host           string
	Port           int
	SessionSecret  string
	AllowedOrigins []string
	PublicURL      string // base URL the site is served from, used for local upload links
}

type DatabaseConfig struct {
	URL          string // PostgreSQL connection URL
	MaxOpenConns int    // Maximum open connections (default 25)
	MaxIdleConns int    // Maximum idle connections (default 5)
}

const (
	StorageLocal = "local"
	StorageAzure = "azure"
)

type StorageConfig struct {
	Backend       string // local or azure
	LocalDir      string
	PublicBaseURL string // overrides the URL prefix of stored objects (CDN)
	MaxBytes      int64  // limit enforced by the local backend, 0 for none

	AzureAccount   string
	AzureKey       string
	AzureContainer string
}

type AdminConfig struct {
	Email        string
	PasswordHash string // bcrypt hash, see the hash-password command
}

type GitHubConfig struct {
	Token    string
	APIURL   string
	CacheTTL time.Duration
}

// IsProduction reports whether backend error text must be hidden from users.
func (c *Config) IsProduction() bool {
	return strings.EqualFold(c.Env, EnvProduction)
}

// envInt reads an environment variable and parses it as a positive integer.
// Returns the default value if the env var is unset, empty, or invalid.
func envInt(key string, defaultVal int) int {
	s := os.Getenv(key)
	if s == "" {
		return defaultVal
	}
	if n, err := strconv.Atoi(s); err == nil && n > 0 {
		return n
	}
	return defaultVal
}

// envInt64 is envInt for byte sizes.
func envInt64(key string, defaultVal int64) int64 {
	s := os.Getenv(key)
	if s == "" {
		return defaultVal
	}
	if n, err := strconv.ParseInt(s, 10, 64); err == nil && n > 0 {
		return n
	}
	return defaultVal
}

// envFloat reads a positive float, falling back to defaultVal.
func envFloat(key string, defaultVal float64) float64 {
	s := os.Getenv(key)
	if s == "" {
		return defaultVal
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil && f > 0 {
		return f
	}
	return defaultVal
}

// envQuality reads an encoder quality in [0,1]; 0 is a valid value.
func envQuality(key string, defaultVal *float64) *float64 {
	s := os.Getenv(key)
	if s == "" {
		return defaultVal
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil && f >= 0 && f <= 1 {
		return imageopt.Quality(f)
	}
	return defaultVal
}

// envDuration reads a Go duration such as "30m".
func envDuration(key string, defaultVal time.Duration) time.Duration {
	s := os.Getenv(key)
	if s == "" {
		return defaultVal
	}
	if d, err := time.ParseDuration(s); err == nil && d > 0 {
		return d
	}
	return defaultVal
}

func envString(key, defaultVal string) string {
	if s := os.Getenv(key); s != "" {
		return s
	}
	return defaultVal
}

func envList(key string) []string {
	var out []string
	for item := range strings.SplitSeq(os.Getenv(key), ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

// loadImageLimits reads the embedded defaults and applies IMAGE_* overrides.
func loadImageLimits() imageopt.Options {
	var limits imageopt.Options
	if err := yaml.Unmarshal(imageLimitsYAML, &limits); err != nil {
		// This is an embedded file so this error should never happen in practice
		panic("failed to unmarshal embedded image_limits.yaml: " + err.Error())
	}

	limits.MaxBytes = envInt64("IMAGE_MAX_BYTES", limits.MaxBytes)
	limits.TargetBytes = envInt64("IMAGE_TARGET_BYTES", limits.TargetBytes)
	limits.MaxDimension = envInt("IMAGE_MAX_DIMENSION", limits.MaxDimension)
	limits.MinQuality = envQuality("IMAGE_MIN_QUALITY", limits.MinQuality)
	limits.MaxQuality = envQuality("IMAGE_MAX_QUALITY", limits.MaxQuality)
	limits.QualitySearchSteps = envInt("IMAGE_QUALITY_SEARCH_STEPS", limits.QualitySearchSteps)
	limits.DimensionScaleFactor = envFloat("IMAGE_DIMENSION_SCALE_FACTOR", limits.DimensionScaleFactor)
	limits.MaxDimensionPasses = envInt("IMAGE_MAX_DIMENSION_PASSES", limits.MaxDimensionPasses)

	return limits.WithDefaults()
}

func Load() *Config {
	images := loadImageLimits()

	return &Config{
		Env: envString("APP_ENV", "development"),
		Web: WebConfig{
			Host:           envString("WEB_HOST", "0.0.0.0"),
			Port:           envInt("WEB_PORT", 8080),
			SessionSecret:  os.Getenv("WEB_SESSION_SECRET"),
			AllowedOrigins: envList("WEB_ALLOWED_ORIGINS"),
			PublicURL:      strings.TrimRight(os.Getenv("WEB_PUBLIC_URL"), "/"),
		},
		Database: DatabaseConfig{
			URL:          os.Getenv("DATABASE_URL"),
			MaxOpenConns: envInt("DATABASE_MAX_OPEN_CONNS", 25),
			MaxIdleConns: envInt("DATABASE_MAX_IDLE_CONNS", 5),
		},
		Storage: StorageConfig{
			Backend:        strings.ToLower(envString("STORAGE_BACKEND", StorageLocal)),
			LocalDir:       envString("STORAGE_LOCAL_DIR", "./uploads"),
			PublicBaseURL:  os.Getenv("STORAGE_PUBLIC_BASE_URL"),
			MaxBytes:       envInt64("STORAGE_MAX_BYTES", images.MaxBytes),
			AzureAccount:   os.Getenv("AZURE_STORAGE_ACCOUNT"),
			AzureKey:       os.Getenv("AZURE_STORAGE_KEY"),
			AzureContainer: envString("AZURE_STORAGE_CONTAINER", "projects"),
		},
		Admin: AdminConfig{
			Email:        os.Getenv("ADMIN_EMAIL"),
			PasswordHash: os.Getenv("ADMIN_PASSWORD_HASH"),
		},
		GitHub: GitHubConfig{
			Token:    os.Getenv("GITHUB_TOKEN"),
			APIURL:   envString("GITHUB_API_URL", "https://api.github.com"),
			CacheTTL: envDuration("GITHUB_CACHE_TTL", time.Hour),
		},
		Images: images,
	}
}
