package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
)

type Config struct {
	Env     string `yaml:"env" env:"ENV" env-default:"local"`
	HTTP    `yaml:"http"`
	GRPC    `yaml:"grpc"`
	MySQL   `yaml:"mysql"`
	Redis   `yaml:"redis"`
	Gateway `yaml:"gateway"`
	Webhook `yaml:"webhook"`
	Fee     `yaml:"fee"`
	Discord `yaml:"discord"`
	Kafka   `yaml:"kafka"`
	Notify  `yaml:"notify"`
	Admin   `yaml:"admin"`
	Catalog `yaml:"catalog"`
}

type HTTP struct {
	Addr            string        `yaml:"addr" env:"HTTP_ADDR" env-default:":8080"`
	ReadTimeout     time.Duration `yaml:"read_timeout" env:"HTTP_READ_TIMEOUT" env-default:"10s"`
	WriteTimeout    time.Duration `yaml:"write_timeout" env:"HTTP_WRITE_TIMEOUT" env-default:"30s"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" env:"HTTP_SHUTDOWN_TIMEOUT" env-default:"15s"`
	InvoiceRPS      float64       `yaml:"invoice_rps" env:"HTTP_INVOICE_RPS" env-default:"5"`
	InvoiceBurst    int           `yaml:"invoice_burst" env:"HTTP_INVOICE_BURST" env-default:"10"`
	TrustProxy      bool          `yaml:"trust_proxy" env:"HTTP_TRUST_PROXY" env-default:"false"`
}

type GRPC struct {
	Addr           string        `yaml:"addr" env:"GRPC_ADDR" env-default:":50051"`
	HealthInterval time.Duration `yaml:"health_interval" env:"GRPC_HEALTH_INTERVAL" env-default:"15s"`
}

type MySQL struct {
	DSN               string        `yaml:"dsn" env:"MYSQL_DSN" env-default:"root:root@tcp(localhost:3306)/giftpay?parseTime=true"`
	MaxOpenConns      int           `yaml:"max_open_conns" env:"MYSQL_MAX_OPEN_CONNS" env-default:"50"`
	MaxIdleConns      int           `yaml:"max_idle_conns" env:"MYSQL_MAX_IDLE_CONNS" env-default:"25"`
	ConnMaxLifetime   time.Duration `yaml:"conn_max_lifetime" env:"MYSQL_CONN_MAX_LIFETIME" env-default:"5m"`
	RetryConnAttempts uint          `yaml:"retry_conn_attempts" env:"MYSQL_RETRY_CONN_ATTEMPTS" env-default:"3"`
	RetryConnDelay    time.Duration `yaml:"retry_conn_delay" env:"MYSQL_RETRY_CONN_DELAY" env-default:"1s"`
	RetryConnMaxDelay time.Duration `yaml:"retry_conn_max_delay" env:"MYSQL_RETRY_CONN_MAX_DELAY" env-default:"5s"`
	RetryAttempts     uint          `yaml:"retry_attempts" env:"MYSQL_RETRY_ATTEMPTS" env-default:"3"`
	RetryDelay        time.Duration `yaml:"retry_delay" env:"MYSQL_RETRY_DELAY" env-default:"50ms"`
	RetryMaxDelay     time.Duration `yaml:"retry_max_delay" env:"MYSQL_RETRY_MAX_DELAY" env-default:"500ms"`
	Migrate           bool          `yaml:"migrate" env:"MYSQL_MIGRATE" env-default:"false"`
}

type Redis struct {
	Addr     string `yaml:"addr" env:"REDIS_ADDR" env-default:"localhost:6379"`
	Password string `yaml:"password" env:"REDIS_PASSWORD"`
	DB       int    `yaml:"db" env:"REDIS_DB" env-default:"0"`
	PoolSize int    `yaml:"pool_size" env:"REDIS_POOL_SIZE" env-default:"100"`
}

type Gateway struct {
	BaseURL        string        `yaml:"base_url" env:"GATEWAY_BASE_URL" env-default:"https://pay.crypt.bot/api"`
	APIKey         string        `yaml:"api_key" env:"GATEWAY_API_KEY"`
	ShopID         string        `yaml:"shop_id" env:"GATEWAY_SHOP_ID"`
	Timeout        time.Duration `yaml:"timeout" env:"GATEWAY_TIMEOUT" env-default:"10s"`
	Currency       string        `yaml:"currency" env:"GATEWAY_CURRENCY" env-default:"RUB"`
	SuccessURL     string        `yaml:"success_url" env:"GATEWAY_SUCCESS_URL"`
	FailURL        string        `yaml:"fail_url" env:"GATEWAY_FAIL_URL"`
	WebhookURL     string        `yaml:"webhook_url" env:"GATEWAY_WEBHOOK_URL"`
	PaidButtonName string        `yaml:"paid_button_name" env:"GATEWAY_PAID_BUTTON_NAME" env-default:"openBot"`
}

type Webhook struct {
	Secret          string `yaml:"secret" env:"WEBHOOK_SECRET"`
	SignatureHeader string `yaml:"signature_header" env:"WEBHOOK_SIGNATURE_HEADER" env-default:"X-Signature"`
}

type Fee struct {
	Rate string `yaml:"rate" env:"FEE_RATE" env-default:"0.10"`
}

// Decimal returns the parsed fee rate. Load has already validated it.
func (f Fee) Decimal() decimal.Decimal {
	rate, _ := decimal.NewFromString(f.Rate)
	return rate
}

type Discord struct {
	Token     string `yaml:"token" env:"DISCORD_TOKEN"`
	ChannelID string `yaml:"channel_id" env:"DISCORD_CHANNEL_ID"`
}

type Kafka struct {
	Brokers  []string `yaml:"brokers" env:"KAFKA_BROKERS" env-separator:","`
	Version  string   `yaml:"version" env:"KAFKA_VERSION" env-default:"3.6.0"`
	DLQTopic string   `yaml:"dlq_topic" env:"KAFKA_DLQ_TOPIC" env-default:"giftpay.notifications.dlq"`
}

type Notify struct {
	WorkerCount int           `yaml:"worker_count" env:"NOTIFY_WORKER_COUNT" env-default:"4"`
	Attempts    uint          `yaml:"attempts" env:"NOTIFY_ATTEMPTS" env-default:"3"`
	Delay       time.Duration `yaml:"delay" env:"NOTIFY_DELAY" env-default:"500ms"`
	MaxDelay    time.Duration `yaml:"max_delay" env:"NOTIFY_MAX_DELAY" env-default:"5s"`
	SendTimeout time.Duration `yaml:"send_timeout" env:"NOTIFY_SEND_TIMEOUT" env-default:"10s"`
}

type Admin struct {
	Token string `yaml:"token" env:"ADMIN_TOKEN"`
}

type Catalog struct {
	CacheTTL time.Duration `yaml:"cache_ttl" env:"CATALOG_CACHE_TTL" env-default:"5m"`
}

// Load reads CONFIG_PATH when set and the environment otherwise. A .env file
// in the working directory is applied first if present.
func Load() (Config, error) {
	var cfg Config

	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return cfg, fmt.Errorf("load .env: %w", err)
	}

	if configPath := os.Getenv("CONFIG_PATH"); configPath != "" {
		if _, err := os.Stat(configPath); err != nil {
			return cfg, fmt.Errorf("config file %s: %w", configPath, err)
		}
		if err := cleanenv.ReadConfig(configPath, &cfg); err != nil {
			return cfg, fmt.Errorf("read config %s: %w", configPath, err)
		}
	} else if err := cleanenv.ReadEnv(&cfg); err != nil {
		return cfg, fmt.Errorf("read env: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func MustLoad() Config {
	cfg, err := Load()
	if err != nil {
		log.Fatalf("Error loading config: %v", err)
	}
	return cfg
}

func (c Config) validate() error {
	rate, err := decimal.NewFromString(c.Fee.Rate)
	if err != nil {
		return fmt.Errorf("fee rate %q: %w", c.Fee.Rate, err)
	}
	if rate.IsNegative() || rate.GreaterThanOrEqual(decimal.NewFromInt(1)) {
		return fmt.Errorf("fee rate %s must be in [0, 1)", c.Fee.Rate)
	}
	if c.Webhook.Secret == "" {
		return errors.New("webhook secret is required")
	}
	if c.Notify.WorkerCount < 1 {
		return fmt.Errorf("notify worker count %d must be positive", c.Notify.WorkerCount)
	}
	return nil
}

// LoadMySQL reads only the MySQL section from the environment, for tools that
// never serve traffic.
func LoadMySQL() (MySQL, error) {
	var cfg MySQL

	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return cfg, fmt.Errorf("load .env: %w", err)
	}
	if err := cleanenv.ReadEnv(&cfg); err != nil {
		return cfg, fmt.Errorf("read env: %w", err)
	}
	return cfg, nil
}

// LoadRedis reads only the Redis settings, for tools that touch the cache
// without running the service.
func LoadRedis() (Redis, error) {
	var cfg Redis

	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return cfg, fmt.Errorf("load .env: %w", err)
	}
	if err := cleanenv.ReadEnv(&cfg); err != nil {
		return cfg, fmt.Errorf("read env: %w", err)
	}
	return cfg, nil
}
