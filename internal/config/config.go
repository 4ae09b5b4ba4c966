// Package config загружает конфигурацию nodus-deploy из переменных окружения.
//
// Флаги командной строки переопределяют значения из окружения.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Значения по умолчанию.
const (
	DefaultRPCURL         = "http://127.0.0.1:8545"
	DefaultNetwork        = "local"
	DefaultArtifactsDir   = "build/contracts"
	DefaultAddressBook    = "deployments/addresses.json"
	DefaultConfirmTimeout = 5 * time.Minute
	DefaultAPIPort        = 8080
)

// ErrInvalidConfig — значение переменной окружения не разобрано
// или обязательное значение не задано.
var ErrInvalidConfig = errors.New("invalid config")

// Config — конфигурация деплоя.
type Config struct {
	// RPCURL — JSON-RPC узла (RPC_URL).
	RPCURL string

	// PrivateKey — hex ключ отправителя (PRIVATE_KEY).
	PrivateKey string

	// ChainID — ожидаемый ID сети (CHAIN_ID). 0 — взять у узла.
	ChainID uint64

	// Network — имя сети в адресной книге и БД (NETWORK).
	Network string

	// ArtifactsDir — каталог артефактов компиляции (ARTIFACTS_DIR).
	ArtifactsDir string

	// AddressBook — путь к адресной книге (ADDRESS_BOOK).
	AddressBook string

	// ConfirmTimeout — ожидание подтверждения одного деплоя (CONFIRM_TIMEOUT).
	ConfirmTimeout time.Duration

	// DBURL — PostgreSQL DSN (DB_URL). Пусто — БД не используется.
	DBURL string

	// RabbitMQURL — AMQP URL (RABBITMQ_URL). Пусто — события не публикуются.
	RabbitMQURL string

	// PushgatewayURL — Prometheus Pushgateway (PUSHGATEWAY_URL). Пусто — не отправлять.
	PushgatewayURL string

	// APIPort — порт HTTP API для `serve` (API_PORT).
	APIPort int
}

// Load читает конфигурацию из окружения процесса.
func Load() (*Config, error) {
	return LoadFrom(os.Getenv)
}

// LoadFrom читает конфигурацию через getenv.
func LoadFrom(getenv func(string) string) (*Config, error) {
	cfg := &Config{
		RPCURL:         getString(getenv, "RPC_URL", DefaultRPCURL),
		PrivateKey:     strings.TrimSpace(getenv("PRIVATE_KEY")),
		Network:        getString(getenv, "NETWORK", DefaultNetwork),
		ArtifactsDir:   getString(getenv, "ARTIFACTS_DIR", DefaultArtifactsDir),
		AddressBook:    getString(getenv, "ADDRESS_BOOK", DefaultAddressBook),
		DBURL:          getenv("DB_URL"),
		RabbitMQURL:    getenv("RABBITMQ_URL"),
		PushgatewayURL: getenv("PUSHGATEWAY_URL"),
	}

	var err error
	if cfg.ChainID, err = getUint(getenv, "CHAIN_ID", 0); err != nil {
		return nil, err
	}
	if cfg.ConfirmTimeout, err = getDuration(getenv, "CONFIRM_TIMEOUT", DefaultConfirmTimeout); err != nil {
		return nil, err
	}

	port, err := getUint(getenv, "API_PORT", DefaultAPIPort)
	if err != nil {
		return nil, err
	}
	cfg.APIPort = int(port)

	return cfg, nil
}

// Validate проверяет общие параметры.
func (c *Config) Validate() error {
	if c.Network == "" {
		return fmt.Errorf("%w: NETWORK is required", ErrInvalidConfig)
	}
	if c.ConfirmTimeout <= 0 {
		return fmt.Errorf("%w: CONFIRM_TIMEOUT must be positive", ErrInvalidConfig)
	}
	if c.APIPort <= 0 || c.APIPort > 65535 {
		return fmt.Errorf("%w: API_PORT %d out of range", ErrInvalidConfig, c.APIPort)
	}
	return nil
}

// ValidateDeploy проверяет параметры, нужные для отправки транзакций.
func (c *Config) ValidateDeploy() error {
	if err := c.Validate(); err != nil {
		return err
	}
	if c.RPCURL == "" {
		return fmt.Errorf("%w: RPC_URL is required", ErrInvalidConfig)
	}
	if c.PrivateKey == "" {
		return fmt.Errorf("%w: PRIVATE_KEY is required", ErrInvalidConfig)
	}
	if c.ArtifactsDir == "" {
		return fmt.Errorf("%w: ARTIFACTS_DIR is required", ErrInvalidConfig)
	}
	return nil
}

func getString(getenv func(string) string, key, def string) string {
	if v := strings.TrimSpace(getenv(key)); v != "" {
		return v
	}
	return def
}

func getUint(getenv func(string) string, key string, def uint64) (uint64, error) {
	v := strings.TrimSpace(getenv(key))
	if v == "" {
		return def, nil
	}
	n, err := strconv.ParseUint(v, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %s=%q is not a non-negative integer", ErrInvalidConfig, key, v)
	}
	return n, nil
}

func getDuration(getenv func(string) string, key string, def time.Duration) (time.Duration, error) {
	v := strings.TrimSpace(getenv(key))
	if v == "" {
		return def, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("%w: %s=%q is not a duration", ErrInvalidConfig, key, v)
	}
	return d, nil
}
