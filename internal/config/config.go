package config

import (
	"flag"
	"log"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

const (
	BackendPostgres = "postgres"
	BackendMemory   = "memory"
)

type Config struct {
	Env            string     `yaml:"env" env-required:"true" env-default:"production"`
	CatalogBackend string     `yaml:"catalog_backend" env:"CATALOG_BACKEND" env-default:"postgres"`
	PGSQL          PQSQL      `yaml:"pgsql" env-required:"true"`
	HTTPServer     HTTPServer `yaml:"http_server" env-required:"true"`
	JWTSecret      string     `yaml:"jwt_secret" env:"JWT_SECRET" env-required:"true" env-default:"super_secret_key"`
	MinIO          MinIO      `yaml:"minio"`
	Redis          Redis      `yaml:"redis"`
	Media          Media      `yaml:"media"`
	Ingest         Ingest     `yaml:"ingest"`
	RateLimit      RateLimit  `yaml:"rate_limit"`
	Watcher        Watcher    `yaml:"watcher"`
	Sweeper        Sweeper    `yaml:"sweeper"`
}

type HTTPServer struct {
	Address string `yaml:"address" env-required:"true" env-default:"localhost:8080"`
}

type PQSQL struct {
	Host     string `yaml:"host" env-required:"true" env-default:"localhost"`
	Port     string `yaml:"port" env-required:"true" env-default:"5432"`
	User     string `yaml:"user" env-required:"true" env-default:"postgres"`
	Password string `yaml:"password" env:"PGSQL_PASSWORD" env-required:"true" env-default:"password"`
	DBName   string `yaml:"dbname" env-required:"true" env-default:"songs_db"`
	SSLMode  string `yaml:"sslmode" env-required:"true" env-default:"disable"`
}

type MinIO struct {
	Endpoint        string `yaml:"endpoint" env:"MINIO_ENDPOINT" env-default:"localhost:9000"`
	AccessKeyID     string `yaml:"access_key_id" env:"MINIO_ACCESS_KEY_ID" env-default:"minioadmin"`
	SecretAccessKey string `yaml:"secret_access_key" env:"MINIO_SECRET_ACCESS_KEY" env-default:"minioadmin"`
	BucketName      string `yaml:"bucket_name" env-default:"songs"`
	UseSSL          bool   `yaml:"use_ssl" env-default:"false"`
	// PublicURL overrides the scheme and host of returned file urls
	PublicURL string `yaml:"public_url"`
}

type Redis struct {
	Addr     string        `yaml:"addr" env:"REDIS_ADDR" env-default:"localhost:6379"`
	Password string        `yaml:"password" env:"REDIS_PASSWORD"`
	DB       int           `yaml:"db" env-default:"0"`
	SongTTL  time.Duration `yaml:"song_ttl" env-default:"10m"`
}

type Media struct {
	MaxFiles         int      `yaml:"max_files" env-default:"3"`
	MaxFileSize      int64    `yaml:"max_file_size" env-default:"10485760"`
	AllowedMimeTypes []string `yaml:"allowed_mime_types" env-default:"audio/mpeg,audio/mp3"`
}

type Ingest struct {
	MaxParallel  int    `yaml:"max_parallel" env-default:"4"`
	Folder       string `yaml:"folder" env-default:"songs"`
	ResourceType string `yaml:"resource_type" env-default:"audio"`
}

type RateLimit struct {
	// Capacity is the burst of uploads a user may send
	Capacity int64 `yaml:"capacity" env-default:"10"`
	// RefillRate is the number of tokens restored per minute
	RefillRate int64 `yaml:"refill_rate" env-default:"1"`
}

type Watcher struct {
	Paths    []string      `yaml:"paths"`
	OwnerID  string        `yaml:"owner_id" env-default:"watcher"`
	Debounce time.Duration `yaml:"debounce" env-default:"2s"`
	Genre    string        `yaml:"genre"`
}

type Sweeper struct {
	Interval    time.Duration `yaml:"interval" env-default:"1h"`
	GracePeriod time.Duration `yaml:"grace_period" env-default:"24h"`
}

func MustLoad() *Config {
	var configPath string

	configPath = os.Getenv("CONFIG_PATH")

	if configPath == "" {
		flags := flag.String("config", "", "Path to config file")
		flag.Parse()
		configPath = *flags

		if configPath == "" {
			log.Fatal("config path must be provided")
		}
	}

	cfg, err := Load(configPath)
	if err != nil {
		log.Fatal(err)
	}

	return cfg
}

// Load reads the config file at path, with environment overrides
func Load(path string) (*Config, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, &PathError{Path: path}
	}

	var cfg Config

	if err := cleanenv.ReadConfig(path, &cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

type PathError struct {
	Path string
}

func (e *PathError) Error() string {
	return "config file does not exist at path: " + e.Path
}
