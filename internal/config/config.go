package config

import (
	"log"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

const (
	StorageMySQL  = "mysql"
	StorageMemory = "memory"

	defaultConfigPath = "./config/local.yaml"
)

type Config struct {
	Env           string `yaml:"env" env:"ENV" env-default:"prod"`
	StorageDriver string `yaml:"storage_driver" env:"STORAGE_DRIVER" env-default:"mysql"`
	HTTPServer    `yaml:"http_server"`
	DBUser        string `yaml:"db_user" env:"DB_USER"`
	DBPassword    string `yaml:"db_password" env:"DB_PASSWORD" env-required:"false"`
	DBHost        string `yaml:"db_host" env:"DB_HOST" env-default:"localhost"`
	DBPort        int    `yaml:"db_port" env:"DB_PORT" env-default:"3306"`
	DBName        string `yaml:"db_name" env:"DB_NAME"`
	ParseTime     bool   `yaml:"parse_time" env-default:"true"`

	AdminLogin string `yaml:"admin_login" env:"ADMIN_LOGIN"`
	AdminPass  string `yaml:"admin_pass" env:"ADMIN_PASS"`
}

type HTTPServer struct {
	Address        string        `yaml:"address" env:"HTTP_ADDRESS" env-default:"localhost:4001"`
	Timeout        time.Duration `yaml:"timeout"  env-default:"4s"`
	IdleTimeout    time.Duration `yaml:"idle_timeout"  env-default:"60s"`
	RequestTimeout time.Duration `yaml:"request_timeout" env-default:"5s"`
	AllowedOrigins []string      `yaml:"allowed_origins" env-default:"http://localhost:5173"`
}

// MustConfig читает конфиг из CONFIG_PATH (по умолчанию ./config/local.yaml) и падает при ошибке.
func MustConfig() *Config {
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = defaultConfigPath
	}

	cfg, err := Load(configPath)
	if err != nil {
		log.Fatalf("cannot read config: %s", err)
	}

	return cfg
}

func Load(path string) (*Config, error) {
	var cfg Config

	if _, err := os.Stat(path); os.IsNotExist(err) {
		// без файла: только переменные окружения
		if err := cleanenv.ReadEnv(&cfg); err != nil {
			return nil, err
		}
		return &cfg, nil
	}

	if err := cleanenv.ReadConfig(path, &cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}
