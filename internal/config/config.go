package config

import (
	"log"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

const defaultConfigPath = "./config/local.yaml"

type Config struct {
	Env         string `yaml:"env" env:"ENV" env-default:"prod"`
	HTTPServer  `yaml:"http_server"`
	Database    `yaml:"database"`
	SMTP        SMTP     `yaml:"smtp"`
	Notify      Notify   `yaml:"notify"`
	CORSOrigins []string `yaml:"cors_origins" env:"CORS_ORIGINS" env-default:"http://localhost:3000"`

	AdminLogin string `yaml:"admin_login" env:"ADMIN_LOGIN"`
	AdminPass  string `yaml:"admin_pass" env:"ADMIN_PASS"`

	// сборка клиента терминала; пусто - API без статики
	FrontendDir string `yaml:"frontend_dir" env:"FRONTEND_DIR"`
}

type HTTPServer struct {
	Address        string        `yaml:"address" env:"HTTP_ADDRESS" env-default:"localhost:4001"`
	Timeout        time.Duration `yaml:"timeout" env-default:"4s"`
	IdleTimeout    time.Duration `yaml:"idle_timeout" env-default:"60s"`
	RequestTimeout time.Duration `yaml:"request_timeout" env-default:"5s"`
	// отправка брака с письмом и выгрузка отчёта
	SlowRequestTimeout time.Duration `yaml:"slow_request_timeout" env-default:"30s"`
}

type Database struct {
	DBUser         string        `yaml:"db_user" env:"DB_USER" env-required:"true"`
	DBPassword     string        `yaml:"db_password" env:"DB_PASSWORD"`
	DBHost         string        `yaml:"db_host" env:"DB_HOST" env-default:"localhost"`
	DBPort         int           `yaml:"db_port" env:"DB_PORT" env-default:"3306"`
	DBName         string        `yaml:"db_name" env:"DB_NAME" env-required:"true"`
	ConnectTimeout time.Duration `yaml:"connect_timeout" env-default:"30s"`
	Migrate        bool          `yaml:"migrate" env:"DB_MIGRATE" env-default:"true"`
}

type SMTP struct {
	Enabled              bool     `yaml:"enabled" env:"SMTP_ENABLED" env-default:"false"`
	Host                 string   `yaml:"host" env:"SMTP_HOST"`
	Port                 int      `yaml:"port" env:"SMTP_PORT" env-default:"587"`
	Username             string   `yaml:"username" env:"SMTP_USER"`
	Password             string   `yaml:"password" env:"SMTP_PASSWORD"`
	From                 string   `yaml:"from" env:"SMTP_FROM" env-default:"terminal@localhost"`
	ProductionRecipients []string `yaml:"production_recipients" env:"SMTP_PRODUCTION_RECIPIENTS"`
	AdminRecipients      []string `yaml:"admin_recipients" env:"SMTP_ADMIN_RECIPIENTS"`
}

type Notify struct {
	// лимит писем "job not found" в минуту
	NotFoundPerMinute float64 `yaml:"not_found_per_minute" env-default:"6"`
	Burst             int     `yaml:"burst" env-default:"3"`
}

func MustConfig() *Config {
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = defaultConfigPath
	}

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		log.Fatalf("config file does not exist: %s", configPath)
	}

	var cfg Config
	if err := cleanenv.ReadConfig(configPath, &cfg); err != nil {
		log.Fatalf("cannot read config: %s", err)
	}

	return &cfg
}
