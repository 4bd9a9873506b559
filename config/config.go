package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// AppConfig holds the process configuration. It is built once by Load and
// passed explicitly to every component that needs it.
type AppConfig struct {
	AppTitle           string
	AppHost            string
	AppPort            string
	AllowedOrigins     []string
	RateLimitPerMinute int
	// Gin framework configuration
	GinMode string
	GinPath string
	// HTTP server timeouts
	HTTPReadTimeout  time.Duration
	HTTPWriteTimeout time.Duration
	HTTPIdleTimeout  time.Duration
	ShutdownTimeout  time.Duration
	// Upload storage. Stored file paths are relative to BaseDir,
	// uploads land under BaseDir/UploadDir.
	BaseDir           string
	UploadDir         string
	MaxSizeFile       int64
	StreamMaxSizeFile int64
	// Database
	DBDriver          string
	DatabaseURI       string
	DBHost            string
	DBPort            string
	DBUser            string
	DBPassword        string
	DBName            string
	DBSSLMode         string
	DBMaxIdleConns    int
	DBMaxOpenConns    int
	DBConnMaxLifetime time.Duration
	// Redis response cache
	CacheEnabled  bool
	CacheTTL      time.Duration
	RedisHost     string
	RedisPort     int
	RedisDB       int
	RedisPassword string
	// Logging configuration
	LogLevel      string
	LogPath       string
	LogMaxSizeMB  int
	LogMaxBackups int
	LogMaxAgeDays int
	LogCompress   bool
}

const (
	DriverPostgres = "postgres"
	DriverMySQL    = "mysql"
	DriverSQLite   = "sqlite"
)

// DefaultConfigPath is where Load looks for the optional JSON config file.
var DefaultConfigPath = filepath.Join("config", "config.json")

// envAliases keeps the variable names of the earlier deployment working.
var envAliases = map[string][]string{
	"app.title":                    {"APP_TITLE", "PROJECT_TITLE"},
	"app.host":                     {"APP_HOST", "PROJECT_HOST"},
	"app.port":                     {"APP_PORT", "PROJECT_PORT"},
	"app.allowed_origins":          {"APP_ALLOWED_ORIGINS", "ALLOWED_ORIGINS", "CORS_ALLOWED_ORIGINS"},
	"app.rate_limit_per_minute":    {"APP_RATE_LIMIT_PER_MINUTE", "RATE_LIMIT_PER_MINUTE"},
	"http.shutdown_timeout":        {"HTTP_SHUTDOWN_TIMEOUT", "SHUTDOWN_TIMEOUT"},
	"storage.base_dir":             {"STORAGE_BASE_DIR", "BASE_DIR"},
	"storage.upload_dir":           {"STORAGE_UPLOAD_DIR", "UPLOAD_DIR"},
	"storage.max_size_file":        {"STORAGE_MAX_SIZE_FILE", "MAX_SIZE_FILE"},
	"storage.stream_max_size_file": {"STORAGE_STREAM_MAX_SIZE_FILE", "STREAM_MAX_SIZE_FILE", "STEAM_MAX_SIZE_FILE"},
	"db.uri":                       {"DB_URI", "DATABASE_URI"},
	"db.pass":                      {"DB_PASS", "DB_PASSWORD"},
	"gin.log_path":                 {"GIN_LOG_PATH", "GIN_PATH"},
}

// Load builds the configuration.
// Precedence: defaults -> .env -> JSON config file -> environment variables.
// A missing config file is not an error.
func Load(path string) (AppConfig, error) {
	loadEnvFiles()

	v := viper.New()
	setDefaults(v)

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for key, names := range envAliases {
		if err := v.BindEnv(append([]string{key}, names...)...); err != nil {
			return AppConfig{}, fmt.Errorf("bind env %s: %w", key, err)
		}
	}

	if path != "" {
		v.SetConfigFile(path)
		v.SetConfigType("json")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) && !errors.Is(err, fs.ErrNotExist) {
				return AppConfig{}, fmt.Errorf("read config %s: %w", path, err)
			}
		}
	}

	cfg := AppConfig{
		AppTitle:           v.GetString("app.title"),
		AppHost:            v.GetString("app.host"),
		AppPort:            v.GetString("app.port"),
		AllowedOrigins:     stringList(v.Get("app.allowed_origins")),
		RateLimitPerMinute: v.GetInt("app.rate_limit_per_minute"),
		GinMode:            v.GetString("gin.mode"),
		GinPath:            v.GetString("gin.log_path"),
		HTTPReadTimeout:    v.GetDuration("http.read_timeout"),
		HTTPWriteTimeout:   v.GetDuration("http.write_timeout"),
		HTTPIdleTimeout:    v.GetDuration("http.idle_timeout"),
		ShutdownTimeout:    v.GetDuration("http.shutdown_timeout"),
		BaseDir:            v.GetString("storage.base_dir"),
		UploadDir:          v.GetString("storage.upload_dir"),
		MaxSizeFile:        v.GetInt64("storage.max_size_file"),
		StreamMaxSizeFile:  v.GetInt64("storage.stream_max_size_file"),
		DBDriver:           strings.ToLower(strings.TrimSpace(v.GetString("db.driver"))),
		DatabaseURI:        v.GetString("db.uri"),
		DBHost:             v.GetString("db.host"),
		DBPort:             v.GetString("db.port"),
		DBUser:             v.GetString("db.user"),
		DBPassword:         v.GetString("db.pass"),
		DBName:             v.GetString("db.name"),
		DBSSLMode:          v.GetString("db.sslmode"),
		DBMaxIdleConns:     v.GetInt("db.max_idle_conns"),
		DBMaxOpenConns:     v.GetInt("db.max_open_conns"),
		DBConnMaxLifetime:  v.GetDuration("db.conn_max_lifetime"),
		CacheEnabled:       v.GetBool("cache.enabled"),
		CacheTTL:           v.GetDuration("cache.ttl"),
		RedisHost:          v.GetString("redis.host"),
		RedisPort:          v.GetInt("redis.port"),
		RedisDB:            v.GetInt("redis.db"),
		RedisPassword:      v.GetString("redis.password"),
		LogLevel:           strings.ToLower(v.GetString("log.level")),
		LogPath:            v.GetString("log.path"),
		LogMaxSizeMB:       v.GetInt("log.max_size_mb"),
		LogMaxBackups:      v.GetInt("log.max_backups"),
		LogMaxAgeDays:      v.GetInt("log.max_age_days"),
		LogCompress:        v.GetBool("log.compress"),
	}

	if err := cfg.Validate(); err != nil {
		return AppConfig{}, err
	}
	return cfg, nil
}

// setDefaults sets sane defaults for every key.
func setDefaults(v *viper.Viper) {
	v.SetDefault("app.title", "filehub")
	v.SetDefault("app.host", "0.0.0.0")
	v.SetDefault("app.port", "8000")
	v.SetDefault("app.allowed_origins", "http://0.0.0.0, http://127.0.0.1, http://localhost, http://app")
	v.SetDefault("app.rate_limit_per_minute", 60)
	v.SetDefault("gin.mode", "release")
	v.SetDefault("gin.log_path", "logs/go_gin.log")
	v.SetDefault("http.read_timeout", 60*time.Second)
	v.SetDefault("http.write_timeout", 60*time.Second)
	v.SetDefault("http.idle_timeout", 120*time.Second)
	v.SetDefault("http.shutdown_timeout", 30*time.Second)
	v.SetDefault("storage.base_dir", ".")
	v.SetDefault("storage.upload_dir", "media")
	v.SetDefault("storage.max_size_file", 1024*1024)
	v.SetDefault("storage.stream_max_size_file", 20*1024*1024)
	v.SetDefault("db.driver", DriverPostgres)
	v.SetDefault("db.host", "127.0.0.1")
	v.SetDefault("db.port", "5432")
	v.SetDefault("db.user", "postgres")
	v.SetDefault("db.name", "filehub")
	v.SetDefault("db.sslmode", "disable")
	v.SetDefault("db.max_idle_conns", 5)
	v.SetDefault("db.max_open_conns", 20)
	v.SetDefault("db.conn_max_lifetime", 30*time.Minute)
	v.SetDefault("cache.enabled", false)
	v.SetDefault("cache.ttl", time.Hour)
	v.SetDefault("redis.host", "127.0.0.1")
	v.SetDefault("redis.port", 6379)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.path", "logs/logs.log")
	v.SetDefault("log.max_size_mb", 100)
	v.SetDefault("log.max_backups", 3)
	v.SetDefault("log.max_age_days", 7)
}

// Validate reports the first invalid value.
func (c AppConfig) Validate() error {
	if c.AppPort == "" {
		return errors.New("app port must be set")
	}
	if c.MaxSizeFile <= 0 {
		return fmt.Errorf("max file size must be positive, got %d", c.MaxSizeFile)
	}
	if c.StreamMaxSizeFile <= 0 {
		return fmt.Errorf("stream max file size must be positive, got %d", c.StreamMaxSizeFile)
	}
	if strings.TrimSpace(c.UploadDir) == "" {
		return errors.New("upload dir must be set")
	}
	switch c.DBDriver {
	case DriverPostgres, DriverMySQL, DriverSQLite:
	default:
		return fmt.Errorf("unsupported database driver %q", c.DBDriver)
	}
	switch c.LogLevel {
	case "debug", "info", "warn", "error", "dpanic", "panic", "fatal", "silent":
	default:
		return fmt.Errorf("unsupported log level %q", c.LogLevel)
	}
	return nil
}

// Addr returns the HTTP listen address.
func (c AppConfig) Addr() string {
	return c.AppHost + ":" + c.AppPort
}

// UploadRoot is the directory uploads are written under.
func (c AppConfig) UploadRoot() string {
	return filepath.Join(c.BaseDir, c.UploadDir)
}

// loadEnvFiles overlays variables from .env files when present.
func loadEnvFiles() {
	for _, path := range []string{".env", "../.env"} {
		if _, err := os.Stat(path); err == nil {
			if err := godotenv.Load(path); err != nil {
				fmt.Fprintf(os.Stderr, "warning: failed to load %s: %v\n", path, err)
			}
		}
	}
}

// stringList accepts either a JSON array or a comma separated string.
func stringList(raw any) []string {
	switch t := raw.(type) {
	case string:
		return splitAndTrim(t)
	case []string:
		return t
	case []any:
		items := make([]string, 0, len(t))
		for _, it := range t {
			if s, ok := it.(string); ok && strings.TrimSpace(s) != "" {
				items = append(items, strings.TrimSpace(s))
			}
		}
		return items
	}
	return nil
}

func splitAndTrim(raw string) []string {
	items := []string{}
	for _, item := range strings.Split(raw, ",") {
		if trimmed := strings.TrimSpace(item); trimmed != "" {
			items = append(items, trimmed)
		}
	}
	return items
}
