package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config 应用配置
type Config struct {
	HTTPAddr string

	// 数据库配置
	DBDriver   string // mysql, sqlite
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
	SQLitePath string

	// Redis配置
	RedisHost     string
	RedisPort     string
	RedisPassword string
	RedisDB       int

	// Deezer 元数据服务
	DeezerAPIURL        string
	DeezerTimeout       time.Duration
	DeezerCacheTTL      time.Duration
	DeezerGenreCacheTTL time.Duration

	RecommendationCacheTTL time.Duration

	JWTSecret string

	// 队列锁: local 或 redis
	LockBackend string
	LockTTL     time.Duration

	// 后台任务
	RadioWorkers      int
	RadioLowWatermark int
	CleanupInterval   time.Duration
	QueueCleanupAge   time.Duration

	// MinIO 歌单封面存储
	MinioEndpoint  string
	MinioAccessKey string
	MinioSecretKey string
	MinioBucket    string
	MinioUseSSL    bool
	MinioRegion    string

	// 日志
	LogLevel      string
	LogFile       string
	LogMaxSize    int
	LogMaxBackups int
	LogMaxAge     int
	LogCompress   bool
}

// getEnv gets an environment variable or returns a default value.
func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

// getEnvInt gets an environment variable as int or returns a default value.
func getEnvInt(key string, fallback int) int {
	if value, exists := os.LookupEnv(key); exists {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if value, exists := os.LookupEnv(key); exists {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return fallback
}

// getEnvDuration 支持 "10s"、"1h" 这类写法
func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if value, exists := os.LookupEnv(key); exists {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return fallback
}

// Load loads configuration from environment variables (via .env file) or defaults.
func Load() *Config {
	// godotenv.Load() will not override existing env vars.
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found or error loading .env, relying on existing environment variables and defaults.")
	}

	return &Config{
		HTTPAddr: getEnv("HTTP_ADDR", ":8080"),

		DBDriver:   getEnv("DB_DRIVER", "mysql"),
		DBHost:     getEnv("DB_HOST", "127.0.0.1"),
		DBPort:     getEnv("DB_PORT", "3306"),
		DBUser:     getEnv("DB_USER", "root"),
		DBPassword: os.Getenv("DB_PASSWORD"),
		DBName:     getEnv("DB_NAME", "playpod"),
		SQLitePath: getEnv("SQLITE_PATH", "playpod.db"),

		RedisHost:     getEnv("REDIS_HOST", "127.0.0.1"),
		RedisPort:     getEnv("REDIS_PORT", "6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       getEnvInt("REDIS_DB", 0),

		DeezerAPIURL:        getEnv("DEEZER_API_URL", "https://api.deezer.com"),
		DeezerTimeout:       getEnvDuration("DEEZER_TIMEOUT", 10*time.Second),
		DeezerCacheTTL:      getEnvDuration("DEEZER_CACHE_TTL", time.Hour),
		DeezerGenreCacheTTL: getEnvDuration("DEEZER_GENRE_CACHE_TTL", 24*time.Hour),

		RecommendationCacheTTL: getEnvDuration("RECOMMENDATION_CACHE_TTL", time.Hour),

		JWTSecret: getEnv("JWT_SECRET", "playpod-dev-secret"),

		LockBackend: getEnv("LOCK_BACKEND", "local"),
		LockTTL:     getEnvDuration("LOCK_TTL", 10*time.Second),

		RadioWorkers:      getEnvInt("RADIO_WORKERS", 2),
		RadioLowWatermark: getEnvInt("RADIO_LOW_WATERMARK", 2),
		CleanupInterval:   getEnvDuration("CLEANUP_INTERVAL", time.Hour),
		QueueCleanupAge:   getEnvDuration("QUEUE_CLEANUP_AGE", 24*time.Hour),

		MinioEndpoint:  getEnv("MINIO_ENDPOINT", ""),
		MinioAccessKey: getEnv("MINIO_ACCESS_KEY", ""),
		MinioSecretKey: getEnv("MINIO_SECRET_KEY", ""),
		MinioBucket:    getEnv("MINIO_BUCKET", "playpod"),
		MinioUseSSL:    getEnvBool("MINIO_USE_SSL", false),
		MinioRegion:    getEnv("MINIO_REGION", ""),

		LogLevel:      getEnv("LOG_LEVEL", "info"),
		LogFile:       getEnv("LOG_FILE", ""),
		LogMaxSize:    getEnvInt("LOG_MAX_SIZE", 100),
		LogMaxBackups: getEnvInt("LOG_MAX_BACKUPS", 5),
		LogMaxAge:     getEnvInt("LOG_MAX_AGE", 30),
		LogCompress:   getEnvBool("LOG_COMPRESS", true),
	}
}
