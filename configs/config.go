package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

type R2 struct {
	AccountID  string
	AccessKey  string
	SecretKey  string
	BucketName string
	PublicURL  string
}

type RateLimit struct {
	Enabled      bool
	MaxAttempts  int
	DecayMinutes int
}

type Token struct {
	// ExpirationMinutes of zero means tokens never expire unless the
	// client asks for an explicit expiry.
	ExpirationMinutes int
	AbilitiesEnabled  bool
}

type Pagination struct {
	DefaultPerPage int
	MaxPerPage     int
}

type Security struct {
	IPWhitelistEnabled bool
	IPWhitelist        []string
	HTTPSOnly          bool
}

type Media struct {
	Disk            string
	LocalRoot       string
	PublicURL       string
	MaxFileSizeKB   int64
	ThumbWidth      int
	DownloadTimeout time.Duration
	TempDir         string
}

type Config struct {
	AppEnv      string
	AppVersion  string
	ListenAddr  string
	PostgresURI string
	RedisURI    string
	Timezone    string
	APIPrefix   string
	RateLimit   RateLimit
	Token       Token
	Pagination  Pagination
	Security    Security
	Media       Media
	R2          R2
}

func LoadConfig() *Config {
	appEnv := getEnv("APP_ENV", "local")

	return &Config{
		AppEnv:      appEnv,
		AppVersion:  getEnv("APP_VERSION", "1.0.0"),
		ListenAddr:  getEnv("LISTEN_ADDR", ":3000"),
		PostgresURI: getEnv("POSTGRES_URI", ""),
		RedisURI:    getEnv("REDIS_URI", "127.0.0.1:6379"),
		Timezone:    getEnv("APP_TIMEZONE", "UTC"),
		APIPrefix:   strings.Trim(getEnv("MIXPOST_API_PREFIX", "api/mixpost"), "/"),
		RateLimit: RateLimit{
			Enabled:      getEnvBool("MIXPOST_API_RATE_LIMIT_ENABLED", true),
			MaxAttempts:  getEnvInt("MIXPOST_API_RATE_LIMIT", 60),
			DecayMinutes: getEnvInt("MIXPOST_API_RATE_LIMIT_DECAY_MINUTES", 1),
		},
		Token: Token{
			ExpirationMinutes: getEnvInt("MIXPOST_API_TOKEN_EXPIRATION", 0),
			AbilitiesEnabled:  getEnvBool("MIXPOST_API_TOKEN_ABILITIES", true),
		},
		Pagination: Pagination{
			DefaultPerPage: getEnvInt("MIXPOST_API_PER_PAGE", 20),
			MaxPerPage:     getEnvInt("MIXPOST_API_MAX_PER_PAGE", 100),
		},
		Security: Security{
			IPWhitelistEnabled: getEnvBool("MIXPOST_API_IP_WHITELIST_ENABLED", false),
			IPWhitelist:        getEnvList("MIXPOST_API_IP_WHITELIST"),
			HTTPSOnly:          getEnvBool("MIXPOST_API_HTTPS_ONLY", appEnv == "production"),
		},
		Media: Media{
			Disk:            getEnv("MEDIA_DISK", "local"),
			LocalRoot:       getEnv("MEDIA_LOCAL_ROOT", "storage/media"),
			PublicURL:       getEnv("MEDIA_PUBLIC_URL", "http://localhost:3000/storage/media"),
			MaxFileSizeKB:   int64(getEnvInt("MIXPOST_MAX_FILE_SIZE", 102400)),
			ThumbWidth:      getEnvInt("MEDIA_THUMB_WIDTH", 430),
			DownloadTimeout: time.Duration(getEnvInt("MEDIA_DOWNLOAD_TIMEOUT", 30)) * time.Second,
			TempDir:         getEnv("MEDIA_TEMP_DIR", ""),
		},
		R2: R2{
			AccountID:  getEnv("R2_ACCOUNT_ID", ""),
			AccessKey:  getEnv("R2_ACCESS_KEY", ""),
			SecretKey:  getEnv("R2_SECRET_KEY", ""),
			BucketName: getEnv("R2_BUCKET_NAME", ""),
			PublicURL:  getEnv("R2_PUBLIC_URL", ""),
		},
	}
}

// Location resolves the configured timezone, falling back to UTC.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	value, err := strconv.Atoi(os.Getenv(key))
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvBool(key string, defaultValue bool) bool {
	value, err := strconv.ParseBool(os.Getenv(key))
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvList(key string) []string {
	var list []string
	for _, item := range strings.Split(os.Getenv(key), ",") {
		if item = strings.TrimSpace(item); item != "" {
			list = append(list, item)
		}
	}
	return list
}
