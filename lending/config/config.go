package config

import (
	"encoding/json"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/kelseyhightower/envconfig"

	"github.com/Astemirdum/lending-service/pkg/circuit_breaker"
	"github.com/Astemirdum/lending-service/pkg/kafka"
	"github.com/Astemirdum/lending-service/pkg/logger"
	"github.com/Astemirdum/lending-service/pkg/postgres"
)

type HTTPServer struct {
	Host         string        `yaml:"host" envconfig:"LENDING_HTTP_HOST" default:"0.0.0.0"`
	Port         string        `yaml:"port" envconfig:"LENDING_HTTP_PORT" default:"8080"`
	ReadTimeout  time.Duration `yaml:"readTimeout" envconfig:"HTTP_READ" default:"10s"`
	WriteTimeout time.Duration `yaml:"writeTimeout" envconfig:"HTTP_WRITE"`
}

type Fine struct {
	// DailyRate is charged per late day, in minor units of Currency.
	DailyRate int64  `yaml:"dailyRate" envconfig:"FINE_DAILY_RATE" default:"50000"`
	Currency  string `yaml:"currency" envconfig:"FINE_CURRENCY" default:"IDR"`
}

type Cache struct {
	TTL  time.Duration `yaml:"ttl" envconfig:"HISTORY_CACHE_TTL" default:"5m"`
	Size int           `yaml:"size" envconfig:"HISTORY_CACHE_SIZE" default:"1024"`
}

type Retry struct {
	MaxAttempts     uint64        `yaml:"maxAttempts" envconfig:"RETRY_MAX_ATTEMPTS" default:"3"`
	InitialInterval time.Duration `yaml:"initialInterval" envconfig:"RETRY_INITIAL_INTERVAL" default:"100ms"`
}

type Config struct {
	Server         HTTPServer  `yaml:"server"`
	Database       postgres.DB `yaml:"db"`
	Kafka          kafka.Config
	Fine           Fine  `yaml:"fine"`
	Cache          Cache `yaml:"cache"`
	Retry          Retry `yaml:"retry"`
	CircuitBreaker circuit_breaker.Config
	Log            logger.Log `yaml:"log"`
}

var (
	once sync.Once
	cfg  Config
)

// NewConfig reads config from environment.
func NewConfig(ops ...Option) Config {
	once.Do(func() {
		config, err := load(ops...)
		if err != nil {
			log.Fatal("NewConfig ", err)
		}
		cfg = config
		printConfig(cfg)
	})

	return cfg
}

func load(ops ...Option) (Config, error) {
	var config Config
	for _, op := range ops {
		op(&config)
	}
	if err := envconfig.Process("", &config); err != nil {
		return Config{}, err
	}
	return config, nil
}

func printConfig(cfg Config) {
	cfg.Database.Password = "***"
	jscfg, _ := json.MarshalIndent(cfg, "", "	") //nolint:errcheck
	fmt.Println(string(jscfg))
}
