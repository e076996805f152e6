// backend-go/internal/config/config.go
package config

import (
	"log"
	"os"
	"sync"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Server  ServerConfig
	App     AppConfig
	Cache   CacheConfig
	Storage StorageConfig
	Drive   DriveConfig
}

type ServerConfig struct {
	Port           string
	Mode           string
	ReadTimeout    int
	WriteTimeout   int
	AllowedOrigins []string
}

type AppConfig struct {
	// DataDir is scanned for the default workbook when nothing was uploaded.
	DataDir        string
	UploadDir      string
	HeaderScanRows int
	MaxUploadMB    int64
	LogLevel       string
	LogFormat      string
}

type CacheConfig struct {
	Enabled             bool
	RedisURL            string
	RedisHost           string
	RedisPort           string
	RedisPassword       string
	RedisDB             int
	DashboardTTLSeconds int
}

// StorageConfig points at an S3-compatible bucket holding workbooks.
type StorageConfig struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	Region    string
	Prefix    string
	UseSSL    bool
}

type DriveConfig struct {
	CredentialsFile string
	FolderID        string
	FolderPath      string
}

var (
	once     sync.Once
	instance *Config
)

func Load() *Config {
	once.Do(func() {
		// Load .env file if it exists
		_ = godotenv.Load()

		viper.SetDefault("SERVER_PORT", "8080")
		viper.SetDefault("SERVER_MODE", "debug")
		viper.SetDefault("SERVER_READ_TIMEOUT", 30)
		viper.SetDefault("SERVER_WRITE_TIMEOUT", 60)
		viper.SetDefault("SERVER_ALLOWED_ORIGINS", []string{"*"})
		viper.SetDefault("APP_DATA_DIR", "./data")
		viper.SetDefault("APP_UPLOAD_DIR", "./data/uploads")
		viper.SetDefault("APP_HEADER_SCAN_ROWS", 20)
		viper.SetDefault("APP_MAX_UPLOAD_MB", 50)
		viper.SetDefault("LOG_LEVEL", "info")
		viper.SetDefault("LOG_FORMAT", "console")
		viper.SetDefault("CACHE_ENABLED", false)
		viper.SetDefault("REDIS_URL", "")
		viper.SetDefault("REDIS_HOST", "127.0.0.1")
		viper.SetDefault("REDIS_PORT", "6379")
		viper.SetDefault("REDIS_PASSWORD", "")
		viper.SetDefault("REDIS_DB", 0)
		viper.SetDefault("CACHE_DASHBOARD_TTL_SECONDS", 60)
		viper.SetDefault("STORAGE_REGION", "us-east-1")
		viper.SetDefault("STORAGE_USE_SSL", true)
		viper.SetDefault("STORAGE_PREFIX", "")

		// Read from environment variables
		viper.AutomaticEnv()

		ensureDir(viper.GetString("APP_UPLOAD_DIR"))

		instance = &Config{
			Server: ServerConfig{
				Port:           viper.GetString("SERVER_PORT"),
				Mode:           viper.GetString("SERVER_MODE"),
				ReadTimeout:    viper.GetInt("SERVER_READ_TIMEOUT"),
				WriteTimeout:   viper.GetInt("SERVER_WRITE_TIMEOUT"),
				AllowedOrigins: viper.GetStringSlice("SERVER_ALLOWED_ORIGINS"),
			},
			App: AppConfig{
				DataDir:        viper.GetString("APP_DATA_DIR"),
				UploadDir:      viper.GetString("APP_UPLOAD_DIR"),
				HeaderScanRows: viper.GetInt("APP_HEADER_SCAN_ROWS"),
				MaxUploadMB:    viper.GetInt64("APP_MAX_UPLOAD_MB"),
				LogLevel:       viper.GetString("LOG_LEVEL"),
				LogFormat:      viper.GetString("LOG_FORMAT"),
			},
			Cache: CacheConfig{
				Enabled:             viper.GetBool("CACHE_ENABLED"),
				RedisURL:            viper.GetString("REDIS_URL"),
				RedisHost:           viper.GetString("REDIS_HOST"),
				RedisPort:           viper.GetString("REDIS_PORT"),
				RedisPassword:       viper.GetString("REDIS_PASSWORD"),
				RedisDB:             viper.GetInt("REDIS_DB"),
				DashboardTTLSeconds: viper.GetInt("CACHE_DASHBOARD_TTL_SECONDS"),
			},
			Storage: StorageConfig{
				Endpoint:  viper.GetString("STORAGE_ENDPOINT"),
				AccessKey: viper.GetString("STORAGE_ACCESS_KEY"),
				SecretKey: viper.GetString("STORAGE_SECRET_KEY"),
				Bucket:    viper.GetString("STORAGE_BUCKET"),
				Region:    viper.GetString("STORAGE_REGION"),
				Prefix:    viper.GetString("STORAGE_PREFIX"),
				UseSSL:    viper.GetBool("STORAGE_USE_SSL"),
			},
			Drive: DriveConfig{
				CredentialsFile: viper.GetString("GOOGLE_APPLICATION_CREDENTIALS"),
				FolderID:        viper.GetString("DRIVE_FOLDER_ID"),
				FolderPath:      viper.GetString("DRIVE_FOLDER_PATH"),
			},
		}
	})

	return instance
}

func ensureDir(dir string) {
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		if err := os.MkdirAll(dir, 0755); err != nil {
			log.Fatalf("Failed to create directory %s: %v", dir, err)
		}
	}
}
