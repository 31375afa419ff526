package main

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"codeduel/internal/common/cache"
	"codeduel/internal/common/http/middleware"
	"codeduel/internal/common/mq"
	"codeduel/internal/judge/backend"
	"codeduel/internal/judge/language"
	"codeduel/pkg/utils/logger"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	defaultHTTPAddr        = "0.0.0.0:8080"
	defaultReadTimeout     = 10 * time.Second
	defaultWriteTimeout    = 60 * time.Second
	defaultIdleTimeout     = 60 * time.Second
	defaultShutdownTimeout = 10 * time.Second
	defaultMaxBodyBytes    = 1 << 20
	defaultBackendURL      = "https://judge0-ce.p.rapidapi.com"
	defaultCaseConcurrency = 4
	defaultProblemTimeout  = 3 * time.Second
	defaultPublishTimeout  = 5 * time.Second
	defaultVerdictTopic    = "judge.verdicts"
	defaultRateLimitWindow = time.Minute

	envBackendAPIKey = "JUDGE_BACKEND_API_KEY"
	envBackendURL    = "JUDGE_BACKEND_URL"
)

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Addr         string        `yaml:"addr"`
	ReadTimeout  time.Duration `yaml:"readTimeout"`
	WriteTimeout time.Duration `yaml:"writeTimeout"`
	IdleTimeout  time.Duration `yaml:"idleTimeout"`
	MaxBodyBytes int64         `yaml:"maxBodyBytes"`
}

// JudgeConfig holds orchestration settings.
type JudgeConfig struct {
	CaseConcurrency int  `yaml:"caseConcurrency"`
	InferArchetype  bool `yaml:"inferArchetype"`
	MaxCodeBytes    int  `yaml:"maxCodeBytes"`
	// ProblemTimeout bounds one catalog read.
	ProblemTimeout  time.Duration `yaml:"problemTimeout"`
	PublishTimeout  time.Duration `yaml:"publishTimeout"`
	ProblemCacheTTL time.Duration `yaml:"problemCacheTTL"`
}

// KafkaConfig holds the verdict event producer settings.
type KafkaConfig struct {
	mq.KafkaConfig `yaml:",inline"`
	VerdictTopic   string `yaml:"verdictTopic"`
}

// AppConfig holds judge-engine config.
type AppConfig struct {
	Server    ServerConfig           `yaml:"server"`
	Logger    logger.Config          `yaml:"logger"`
	CORS      *middleware.CORSConfig `yaml:"cors"`
	Backend   backend.Config         `yaml:"backend"`
	Judge     JudgeConfig            `yaml:"judge"`
	Languages []language.Descriptor  `yaml:"languages"`
	// Redis and Kafka are optional; an empty addr or broker list disables them.
	Redis cache.RedisConfig `yaml:"redis"`
	Kafka KafkaConfig       `yaml:"kafka"`
	// RateLimit applies to the judge routes and needs Redis.
	RateLimit middleware.RateLimitPolicy `yaml:"rateLimit"`
}

func loadYAML(path string, out interface{}) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file failed: %w", err)
	}
	if err := yaml.Unmarshal(data, out); err != nil {
		return fmt.Errorf("parse config file failed: %w", err)
	}
	return nil
}

// loadEnvFile loads KEY=VALUE pairs without overriding the environment.
// A missing file is not an error.
func loadEnvFile(path string) error {
	if path == "" {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("load env file failed: %w", err)
	}
	return nil
}

// loadAppConfig reads the YAML file when it exists, then applies the
// environment and defaults.
func loadAppConfig(path string) (*AppConfig, error) {
	var cfg AppConfig
	if path != "" {
		err := loadYAML(path, &cfg)
		if err != nil && !errors.Is(err, os.ErrNotExist) {
			return nil, err
		}
	}
	applyEnv(&cfg)
	applyDefaults(&cfg)
	if cfg.Server.ReadTimeout < 0 || cfg.Server.WriteTimeout < 0 || cfg.Backend.Timeout < 0 {
		return nil, fmt.Errorf("timeouts must not be negative")
	}
	if cfg.RateLimit.Enabled() && cfg.Redis.Addr == "" {
		return nil, fmt.Errorf("rateLimit requires redis.addr")
	}
	if cfg.Server.WriteTimeout > 0 && cfg.Server.WriteTimeout < cfg.Backend.Timeout {
		return nil, fmt.Errorf("server writeTimeout %s is shorter than backend timeout %s", cfg.Server.WriteTimeout, cfg.Backend.Timeout)
	}
	return &cfg, nil
}

func applyEnv(cfg *AppConfig) {
	if key := strings.TrimSpace(os.Getenv(envBackendAPIKey)); key != "" {
		cfg.Backend.APIKey = key
	}
	if url := strings.TrimSpace(os.Getenv(envBackendURL)); url != "" {
		cfg.Backend.BaseURL = url
	}
}

func applyDefaults(cfg *AppConfig) {
	if cfg.Server.Addr == "" {
		cfg.Server.Addr = defaultHTTPAddr
	}
	if cfg.Server.ReadTimeout == 0 {
		cfg.Server.ReadTimeout = defaultReadTimeout
	}
	if cfg.Server.WriteTimeout == 0 {
		cfg.Server.WriteTimeout = defaultWriteTimeout
	}
	if cfg.Server.IdleTimeout == 0 {
		cfg.Server.IdleTimeout = defaultIdleTimeout
	}
	if cfg.Server.MaxBodyBytes == 0 {
		cfg.Server.MaxBodyBytes = defaultMaxBodyBytes
	}
	if cfg.CORS == nil {
		def := middleware.DefaultCORSConfig()
		cfg.CORS = &def
	}
	if cfg.Backend.BaseURL == "" {
		cfg.Backend.BaseURL = defaultBackendURL
	}
	if cfg.Backend.Timeout == 0 {
		cfg.Backend.Timeout = 30 * time.Second
	}
	if cfg.Judge.CaseConcurrency == 0 {
		cfg.Judge.CaseConcurrency = defaultCaseConcurrency
	}
	if cfg.Judge.ProblemTimeout == 0 {
		cfg.Judge.ProblemTimeout = defaultProblemTimeout
	}
	if cfg.Judge.PublishTimeout == 0 {
		cfg.Judge.PublishTimeout = defaultPublishTimeout
	}
	if cfg.Redis.Addr != "" {
		cfg.Redis.ApplyDefaults()
	}
	if cfg.RateLimit.Window == 0 {
		cfg.RateLimit.Window = defaultRateLimitWindow
	}
	if len(cfg.Kafka.Brokers) > 0 && cfg.Kafka.VerdictTopic == "" {
		cfg.Kafka.VerdictTopic = defaultVerdictTopic
	}
}
