package config

import (
	"flag"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

type Config struct {
	Env           string        `yaml:"env" env:"ENV" env-default:"local"`
	DSN           string        `yaml:"dsn" env:"DSN" env-required:"true"`
	SessionSecret string        `yaml:"session_secret" env:"SESSION_SECRET" env-required:"true"`
	HTTP          HTTPConfig    `yaml:"http"`
	Gallery       GalleryConfig `yaml:"gallery"`
	Redis         RedisConf     `yaml:"redis"`
	Mints         MintsConfig   `yaml:"mints"`
	Viewer        ViewerConfig  `yaml:"viewer"`
	Share         ShareConfig   `yaml:"share"`
}

type HTTPConfig struct {
	Host string `yaml:"host" env:"HTTP_HOST"`
	Port string `yaml:"port" env:"HTTP_PORT" env-default:"8080"`

	// AllowedOrigins шаблоны хостов для WebSocket-потоков, кроме собственного
	AllowedOrigins []string `yaml:"allowed_origins" env:"HTTP_ALLOWED_ORIGINS" env-separator:","`
}

type GalleryConfig struct {
	BaseDir       string        `yaml:"base_dir" env:"GALLERY_DIR" env-default:"./gallery"`
	BaseURL       string        `yaml:"base_url" env-default:"http://localhost:8080/api/v1/gallery/media"`
	MaxSize       int64         `yaml:"max_size" env-default:"20971520"`
	WatchDebounce time.Duration `yaml:"watch_debounce" env-default:"300ms"`
	LoadTimeout   time.Duration `yaml:"load_timeout" env-default:"10s"`
	ExplainBody   string        `yaml:"explain_body"`
	ExplainButton string        `yaml:"explain_button"`
}

type RedisConf struct {
	RedisAddr     string `yaml:"redis_addr" env:"REDIS_ADDR" env-default:"localhost:6379"`
	RedisPassword string `yaml:"redispassword" env:"REDIS_PASSWORD"`
	RedisDB       int    `yaml:"redis_db" env-default:"0"`
}

type MintsConfig struct {
	CacheTTL    time.Duration `yaml:"cache_ttl" env-default:"5m"`
	LoadTimeout time.Duration `yaml:"load_timeout" env-default:"30s"`
	SnapshotTTL time.Duration `yaml:"snapshot_ttl" env-default:"1h"`
}

type ViewerConfig struct {
	IdleTTL time.Duration `yaml:"idle_ttl" env-default:"30m"`
}

type ShareConfig struct {
	Secret  string        `yaml:"secret" env:"SHARE_SECRET" env-required:"true"`
	TTL     time.Duration `yaml:"ttl" env-default:"168h"`
	BaseURL string        `yaml:"base_url" env-default:"http://localhost:8080/api/v1/share"`
}

func MustLoad() *Config {
	path := fetchConfigPath()
	if path == "" {
		panic("config path is empty")
	}

	return MustLoadPath(path)
}

func MustLoadPath(configPath string) *Config {
	// check if file exists
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		panic("config file does not exist: " + configPath)
	}

	var cfg Config

	if err := cleanenv.ReadConfig(configPath, &cfg); err != nil {
		panic("cannot read config: " + err.Error())
	}

	return &cfg
}

func fetchConfigPath() string {
	var res string

	// --config="path/to/config.yaml"
	flag.StringVar(&res, "config", "", "path to config file")
	flag.Parse()

	if res == "" {
		res = os.Getenv("CONFIG_PATH")
	}

	return res
}
