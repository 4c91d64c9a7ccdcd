package config

import (
	"time"

	"github.com/Alexcat84/GemStoneNFTManager-PC-sub000/internal/slug"
	pkgconfig "github.com/Alexcat84/GemStoneNFTManager-PC-sub000/pkg/config"
	"github.com/Alexcat84/GemStoneNFTManager-PC-sub000/pkg/pubsub"
	"github.com/Alexcat84/GemStoneNFTManager-PC-sub000/pkg/storage"
)

type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Redis    RedisConfig
	Cache    CacheConfig
	Events   pubsub.Config
	Storage  storage.Config
	Slug     slug.Config
	Codes    CodesConfig
	Redirect RedirectConfig
	Log      LogConfig
}

type ServerConfig struct {
	Host            string
	Port            int
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

type DatabaseConfig struct {
	Driver          string `mapstructure:"driver"`
	Host            string
	Port            int
	User            string
	Password        string
	DBName          string
	SSLMode         string
	FilePath        string `mapstructure:"file_path"`
	MaxIdleConns    int    `mapstructure:"max_idle_conns"`
	MaxOpenConns    int    `mapstructure:"max_open_conns"`
	ConnMaxLifetime int    `mapstructure:"conn_max_lifetime"`
	LogLevel        string `mapstructure:"log_level"`
}

type RedisConfig struct {
	Address  string
	Password string
	DB       int
}

type CacheConfig struct {
	Enabled bool
	Prefix  string
	TTL     time.Duration
}

type CodesConfig struct {
	// MaxAttempts bounds sequence re-reservations after a duplicate code.
	MaxAttempts  int           `mapstructure:"max_attempts"`
	MaxBatch     int           `mapstructure:"max_batch"`
	ExportPrefix string        `mapstructure:"export_prefix"`
	ExportURLTTL time.Duration `mapstructure:"export_url_ttl"`
}

type RedirectConfig struct {
	BaseURL string `mapstructure:"base_url"`
}

type LogConfig struct {
	Level  string
	Pretty bool
}

// Load reads config.yaml from GEMCODE_CONFIG_DIR (default ./config).
func Load() (*Config, error) {
	return LoadFrom(pkgconfig.GetEnv("GEMCODE_CONFIG_DIR", "./config"))
}

// LoadFrom reads config.yaml from dir, applying defaults and env overrides.
func LoadFrom(dir string) (*Config, error) {
	v, err := pkgconfig.Load(dir, "config")
	if err != nil {
		return nil, err
	}

	// Set defaults
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8090)
	v.SetDefault("server.shutdown_timeout", "10s")
	v.SetDefault("database.driver", "sqlite")
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "postgres")
	v.SetDefault("database.password", "postgres")
	v.SetDefault("database.dbname", "gemcodes")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("database.file_path", "./data/gemcodes.db")
	v.SetDefault("database.max_idle_conns", 10)
	v.SetDefault("database.max_open_conns", 50)
	v.SetDefault("database.conn_max_lifetime", 60)
	v.SetDefault("database.log_level", "warn")
	v.SetDefault("redis.address", "localhost:6379")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("cache.enabled", false)
	v.SetDefault("cache.prefix", "gemcode")
	v.SetDefault("cache.ttl", "10m")
	events := pubsub.DefaultConfig()
	v.SetDefault("events.driver", events.Driver)
	v.SetDefault("events.redis.address", events.Redis.Address)
	v.SetDefault("events.redis.pool_size", events.Redis.PoolSize)
	v.SetDefault("events.redis.read_timeout", events.Redis.ReadTimeout)
	v.SetDefault("events.redis.write_timeout", events.Redis.WriteTimeout)
	v.SetDefault("events.kafka.brokers", events.Kafka.Brokers)
	v.SetDefault("events.kafka.partitions", events.Kafka.Partitions)
	v.SetDefault("storage.driver", "local")
	v.SetDefault("storage.local.base_path", "./data/storage")
	v.SetDefault("storage.s3.region", "us-east-1")
	v.SetDefault("storage.s3.bucket", "gemcodes")
	v.SetDefault("storage.s3.use_path_style", true)
	v.SetDefault("slug.type", slug.TypeNanoID)
	v.SetDefault("slug.size", 0)
	v.SetDefault("codes.max_attempts", 5)
	v.SetDefault("codes.max_batch", 100)
	v.SetDefault("codes.export_prefix", "exports")
	v.SetDefault("codes.export_url_ttl", "1h")
	v.SetDefault("redirect.base_url", "http://localhost:8090/api/v1/codes/")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.pretty", false)

	// Bind environment variables
	v.BindEnv("server.port", "PORT")
	v.BindEnv("database.driver", "DB_DRIVER")
	v.BindEnv("database.host", "DB_HOST")
	v.BindEnv("database.port", "DB_PORT")
	v.BindEnv("database.user", "DB_USER")
	v.BindEnv("database.password", "DB_PASSWORD")
	v.BindEnv("database.dbname", "DB_NAME")
	v.BindEnv("database.sslmode", "DB_SSLMODE")
	v.BindEnv("database.file_path", "DB_FILE_PATH")
	v.BindEnv("redis.address", "REDIS_ADDRESS")
	v.BindEnv("redis.password", "REDIS_PASSWORD")
	v.BindEnv("events.driver", "EVENTS_DRIVER")
	v.BindEnv("events.kafka.brokers", "KAFKA_BROKERS")
	v.BindEnv("storage.driver", "STORAGE_DRIVER")
	v.BindEnv("storage.s3.endpoint", "S3_ENDPOINT")
	v.BindEnv("storage.s3.bucket", "S3_BUCKET")
	v.BindEnv("storage.s3.access_key_id", "S3_ACCESS_KEY_ID")
	v.BindEnv("storage.s3.secret_access_key", "S3_SECRET_ACCESS_KEY")
	v.BindEnv("redirect.base_url", "REDIRECT_BASE_URL")
	v.BindEnv("log.level", "LOG_LEVEL")

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}
