// Package config provides the structures and loader for service settings.
package config

import (
	"log"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

// Config holds the settings for all binaries.
type Config struct {
	Env                     string        `yaml:"env" env-default:"local"`
	StorageConnectionString string        `yaml:"storage_connection_string" env:"STORAGE_CONNECTION_STRING"`
	RabbitConnectionString  string        `yaml:"rabbit_connection_string" env:"RABBIT_CONNECTION_STRING"`
	RabbitMaxRetries        int           `yaml:"rabbit_max_retries" env-default:"10"`
	RabbitRetryDelay        time.Duration `yaml:"rabbit_retry_delay" env-default:"3s"`
	SMTPHost                string        `yaml:"smtp_host" env:"SMTP_HOST"`
	SMTPPort                string        `yaml:"smtp_port" env:"SMTP_PORT" env-default:"587"`
	SMTPUser                string        `yaml:"smtp_user" env:"SMTP_USER"`
	SMTPPass                string        `yaml:"smtp_pass" env:"SMTP_PASS"`
	SupportEmail            string        `yaml:"support_email" env:"SUPPORT_EMAIL"`
	RedisConnection         `yaml:"redis_connection"`
	HTTPServer              `yaml:"http_server"`
	JWTToken                `yaml:"jwttoken"`
	Sweep                   `yaml:"sweep"`
}

// HTTPServer configures the API server.
type HTTPServer struct {
	AddressHTTP   string        `yaml:"addresshttp" env-default:":8080"`
	TimeoutHTTP   time.Duration `yaml:"timeouthttp" env-default:"10s"`
	IdleTimeout   time.Duration `yaml:"idle_timeout" env-default:"60s"`
	MaxUploadSize int64         `yaml:"max_upload_size" env-default:"26214400"` // 25 MiB PDF cap
}

// RedisConnection configures the Redis client.
type RedisConnection struct {
	AddressRedis string        `yaml:"addressredis" env:"REDIS_ADDRESS"`
	Password     string        `yaml:"password" env:"REDIS_PASSWORD"`
	User         string        `yaml:"user"`
	DB           int           `yaml:"db"`
	MaxRetries   int           `yaml:"max_retries" env-default:"3"`
	DialTimeout  time.Duration `yaml:"dial_timeout" env-default:"5s"`
	TimeoutRedis time.Duration `yaml:"timeoutredis" env-default:"3s"`
}

// JWTToken configures token issuance.
type JWTToken struct {
	JWTSecretKey string        `yaml:"jwt_secret_key" env:"JWT_SECRET_KEY"`
	TokenTTL     time.Duration `yaml:"token_ttl" env-default:"24h"`
}

// Sweep configures the expiry sweep worker.
type Sweep struct {
	Interval    time.Duration `yaml:"interval" env-default:"24h"`
	WarningDays int           `yaml:"warning_days" env-default:"3"`
}

// MustLoad loads the config from the file named by CONFIG_PATH and exits the
// process when it cannot.
func MustLoad() *Config {
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		log.Fatal("CONFIG_PATH is not set")
	}
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		log.Fatalf("file: %s - does not exist", configPath)
	}
	var cfg Config

	if err := cleanenv.ReadConfig(configPath, &cfg); err != nil {
		log.Fatalf("cannot read config: %s", err)
	}
	return &cfg
}
