package config

import (
	"log"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// AppConfig описывает конфигурацию сервисов.
type AppConfig struct {
	AppEnv string `envconfig:"APP_ENV" default:"dev"`
	Port   int    `envconfig:"PORT" default:"8080"`

	PGDSN string `envconfig:"PG_DSN"`

	RedisAddr string `envconfig:"REDIS_ADDR"`
	AMQPURL   string `envconfig:"AMQP_URL"`

	Metrics struct {
		Addr string `envconfig:"METRICS_ADDR" default:":9090"`
	} `envconfig:""`

	Expo struct {
		BaseURL     string        `envconfig:"EXPO_BASE_URL" default:"https://exp.host"`
		AccessToken string        `envconfig:"EXPO_ACCESS_TOKEN"`
		Timeout     time.Duration `envconfig:"EXPO_TIMEOUT" default:"15s"`
	} `envconfig:""`

	Intake struct {
		// ComplaintKeywords переопределяет канонический список маркеров жалоб.
		ComplaintKeywords []string `envconfig:"COMPLAINT_KEYWORDS"`
	} `envconfig:""`

	Queues struct {
		Push string `envconfig:"PUSH_QUEUE_KEY" default:"push_jobs"`
	} `envconfig:""`
}

// Load загружает конфиг из окружения.
func Load() AppConfig {
	var cfg AppConfig
	if err := envconfig.Process("", &cfg); err != nil {
		log.Fatalf("не удалось загрузить конфиг: %v", err)
	}
	return cfg
}
