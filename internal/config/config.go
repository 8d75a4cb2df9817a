package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const DefaultAdminToken = "changeme"

type Config struct {
	Port         string
	AppEnv       string
	AdminToken   string
	SiteDir      string
	DataFile     string
	UploadMemory int64
	MaxUpload    int64

	CatalogStore string // jsonfile | github | postgres
	AssetBackend string // local | gcs
	// CatalogCacheTTL is how long page views reuse one catalog read.
	CatalogCacheTTL time.Duration

	GitHubToken  string
	GitHubRepo   string
	GitHubBranch string
	GitHubPath   string
	GitHubAPIURL string

	GCSBucket      string
	GCSCredentials string
	GCSPublicURL   string

	DatabaseDSN string
	SeedFile    string

	StripeSecretKey string
	StripeAPIURL    string
	ContactEmail    string
	PublicBaseURL   string
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		Port:         getEnv("PORT", "8080"),
		AppEnv:       strings.ToLower(getEnv("APP_ENV", "development")),
		AdminToken:   getEnv("ADMIN_TOKEN", DefaultAdminToken),
		SiteDir:      getEnv("SITE_DIR", "."),
		DataFile:     getEnv("DATA_FILE", "data.json"),
		UploadMemory: getEnvAsInt64("UPLOAD_MEMORY_BYTES", 8<<20),
		MaxUpload:    getEnvAsInt64("MAX_UPLOAD_BYTES", 40<<20),

		CatalogStore: strings.ToLower(getEnv("CATALOG_STORE", "jsonfile")),
		AssetBackend: strings.ToLower(getEnv("ASSET_BACKEND", "local")),

		GitHubToken:  getEnv("GITHUB_TOKEN", ""),
		GitHubRepo:   getEnv("GITHUB_REPO", ""),
		GitHubBranch: getEnv("GITHUB_BRANCH", "main"),
		GitHubPath:   getEnv("GITHUB_DATA_PATH", "data.json"),
		GitHubAPIURL: getEnv("GITHUB_API_URL", ""),

		GCSBucket:      getEnv("GCS_BUCKET", ""),
		GCSCredentials: getEnv("GCS_CREDENTIALS_FILE", ""),
		GCSPublicURL:   getEnv("GCS_PUBLIC_URL", ""),

		DatabaseDSN: databaseDSN(),
		SeedFile:    getEnv("SEED_FILE", ""),

		StripeSecretKey: getEnv("STRIPE_SECRET_KEY", ""),
		StripeAPIURL:    getEnv("STRIPE_API_URL", "https://api.stripe.com"),
		ContactEmail:    getEnv("CONTACT_EMAIL", ""),
		PublicBaseURL:   getEnv("PUBLIC_BASE_URL", "http://localhost:8080"),
	}
	cfg.CatalogCacheTTL = getEnvAsDuration("CATALOG_CACHE_TTL", defaultCacheTTL(cfg.CatalogStore))
	return cfg, nil
}

// defaultCacheTTL keeps GitHub contents API calls under the rate limit; the
// other stores are cheap to read on every request.
func defaultCacheTTL(store string) time.Duration {
	if store == "github" {
		return 30 * time.Second
	}
	return 0
}

func (c *Config) IsDev() bool {
	return c.AppEnv == "" || c.AppEnv == "development" || c.AppEnv == "dev"
}

// UsesDefaultToken reports whether the admin token was never configured.
func (c *Config) UsesDefaultToken() bool {
	return c.AdminToken == DefaultAdminToken
}

// databaseDSN prefers DB_DSN and otherwise assembles one from the DB_* and
// POSTGRES_* variables.
func databaseDSN() string {
	if dsn := strings.TrimSpace(os.Getenv("DB_DSN")); dsn != "" {
		return dsn
	}
	host := getEnv("DB_HOST", "localhost")
	port := getEnv("DB_PORT", "5432")
	user := firstEnv("postgres", "DB_USER", "POSTGRES_USER")
	pass := firstEnv("postgres", "DB_PASSWORD", "POSTGRES_PASSWORD")
	name := firstEnv("artfolio", "DB_NAME", "POSTGRES_DB")
	ssl := getEnv("DB_SSLMODE", "disable")
	return "host=" + host + " user=" + user + " password=" + pass + " dbname=" + name + " port=" + port + " sslmode=" + ssl
}

func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

func firstEnv(defaultValue string, keys ...string) string {
	for _, k := range keys {
		if v := os.Getenv(k); v != "" {
			return v
		}
	}
	return defaultValue
}

func getEnvAsInt64(key string, defaultValue int64) int64 {
	if value, exists := os.LookupEnv(key); exists {
		intValue, err := strconv.ParseInt(value, 10, 64)
		if err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value, exists := os.LookupEnv(key); exists {
		if d, err := time.ParseDuration(value); err == nil && d >= 0 {
			return d
		}
	}
	return defaultValue
}
