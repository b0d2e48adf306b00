package config

import (
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"
)

const (
	EnvLocal       = "local"
	EnvDevelopment = "development"
	EnvProduction  = "production"

	ImageHostImgBB = "imgbb"
	ImageHostMinIO = "minio"
)

// Config holds application configuration values.
type Config struct {
	Env              string
	LogLevel         string
	HTTPPort         string
	DatabaseDSN      string
	Secret           string
	SessionTTL       time.Duration
	AdminEmailSuffix string
	MinPasswordLen   int
	Collection       string
	MaxUploadBytes   int64
	Redis            RedisConfig
	Image            ImageConfig
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

type ImageConfig struct {
	Host         string
	MaxBytes     int64
	MaxDimension int
	ImgBB        ImgBBConfig
	MinIO        MinIOConfig
}

type ImgBBConfig struct {
	Endpoint string
	APIKey   string
}

type MinIOConfig struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app_env", EnvDevelopment)
	v.SetDefault("log_level", "info")
	v.SetDefault("http_port", "8080")
	v.SetDefault("database_dsn", "file:medadmin.db?_pragma=foreign_keys(1)")
	v.SetDefault("secret", "dev_secret")
	v.SetDefault("session_ttl", "24h")
	v.SetDefault("admin_email_suffix", "@admin.com")
	v.SetDefault("min_password_length", 6)
	v.SetDefault("record_collection", "categories")
	v.SetDefault("max_upload_bytes", 10<<20)
	v.SetDefault("redis_addr", "")
	v.SetDefault("redis_db", 0)
	v.SetDefault("image_host", ImageHostImgBB)
	v.SetDefault("max_image_bytes", 5<<20)
	v.SetDefault("max_image_dimension", 1200)
	v.SetDefault("imgbb_endpoint", "https://api.imgbb.com/1/upload")
	v.SetDefault("minio_endpoint", "localhost:9000")
	v.SetDefault("minio_access_key", "minioadmin")
	v.SetDefault("minio_secret_key", "minioadmin")
	v.SetDefault("minio_bucket", "medicines")
	v.SetDefault("minio_use_ssl", false)
}

// Load reads configuration from .env and environment variables with reasonable defaults.
func Load() Config {
	if err := godotenv.Load(); err != nil {
		log.Debug().Msg("no .env file found, relying on environment variables")
	}
	v := viper.New()
	v.AutomaticEnv()
	setDefaults(v)
	return FromViper(v)
}

// FromViper builds a Config from an already populated viper instance.
func FromViper(v *viper.Viper) Config {
	port := v.GetString("http_port")
	if _, err := strconv.Atoi(port); err != nil {
		log.Warn().Str("value", port).Msg("invalid HTTP_PORT, defaulting to 8080")
		port = "8080"
	}

	ttl := v.GetDuration("session_ttl")
	if ttl <= 0 {
		log.Warn().Str("value", v.GetString("session_ttl")).Msg("invalid SESSION_TTL, defaulting to 24h")
		ttl = 24 * time.Hour
	}

	return Config{
		Env:              v.GetString("app_env"),
		LogLevel:         v.GetString("log_level"),
		HTTPPort:         port,
		DatabaseDSN:      v.GetString("database_dsn"),
		Secret:           v.GetString("secret"),
		SessionTTL:       ttl,
		AdminEmailSuffix: v.GetString("admin_email_suffix"),
		MinPasswordLen:   v.GetInt("min_password_length"),
		Collection:       v.GetString("record_collection"),
		MaxUploadBytes:   v.GetInt64("max_upload_bytes"),
		Redis: RedisConfig{
			Addr:     v.GetString("redis_addr"),
			Password: v.GetString("redis_password"),
			DB:       v.GetInt("redis_db"),
		},
		Image: ImageConfig{
			Host:         v.GetString("image_host"),
			MaxBytes:     v.GetInt64("max_image_bytes"),
			MaxDimension: v.GetInt("max_image_dimension"),
			ImgBB: ImgBBConfig{
				Endpoint: v.GetString("imgbb_endpoint"),
				APIKey:   v.GetString("imgbb_api_key"),
			},
			MinIO: MinIOConfig{
				Endpoint:  v.GetString("minio_endpoint"),
				AccessKey: v.GetString("minio_access_key"),
				SecretKey: v.GetString("minio_secret_key"),
				Bucket:    v.GetString("minio_bucket"),
				UseSSL:    v.GetBool("minio_use_ssl"),
			},
		},
	}
}

// Defaults returns a viper instance holding only the default values.
func Defaults() *viper.Viper {
	v := viper.New()
	setDefaults(v)
	return v
}
