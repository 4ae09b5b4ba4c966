package config

import (
	"errors"
	"testing"
	"time"
)

func envMap(m map[string]string) func(string) string {
	return func(key string) string { return m[key] }
}

func TestLoadFrom_Defaults(t *testing.T) {
	cfg, err := LoadFrom(envMap(nil))
	if err != nil {
		t.Fatalf("LoadFrom() error = %v", err)
	}

	if cfg.RPCURL != DefaultRPCURL {
		t.Errorf("RPCURL = %q", cfg.RPCURL)
	}
	if cfg.Network != DefaultNetwork || cfg.AddressBook != DefaultAddressBook {
		t.Errorf("Network/AddressBook = %q/%q", cfg.Network, cfg.AddressBook)
	}
	if cfg.ConfirmTimeout != DefaultConfirmTimeout || cfg.APIPort != DefaultAPIPort {
		t.Errorf("ConfirmTimeout/APIPort = %v/%d", cfg.ConfirmTimeout, cfg.APIPort)
	}
	if cfg.ChainID != 0 || cfg.DBURL != "" || cfg.RabbitMQURL != "" {
		t.Errorf("optional values should be empty: %+v", cfg)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate() error = %v", err)
	}
}

func TestLoadFrom_Env(t *testing.T) {
	cfg, err := LoadFrom(envMap(map[string]string{
		"RPC_URL":         "https://rpc.sepolia.org",
		"PRIVATE_KEY":     " 0xabc ",
		"CHAIN_ID":        "11155111",
		"NETWORK":         "sepolia",
		"CONFIRM_TIMEOUT": "90s",
		"API_PORT":        "9090",
		"DB_URL":          "postgres://localhost/nodus",
	}))
	if err != nil {
		t.Fatalf("LoadFrom() error = %v", err)
	}

	if cfg.ChainID != 11155111 || cfg.Network != "sepolia" {
		t.Errorf("ChainID/Network = %d/%q", cfg.ChainID, cfg.Network)
	}
	if cfg.PrivateKey != "0xabc" {
		t.Errorf("PrivateKey = %q, want trimmed", cfg.PrivateKey)
	}
	if cfg.ConfirmTimeout != 90*time.Second || cfg.APIPort != 9090 {
		t.Errorf("ConfirmTimeout/APIPort = %v/%d", cfg.ConfirmTimeout, cfg.APIPort)
	}
	if err := cfg.ValidateDeploy(); err != nil {
		t.Errorf("ValidateDeploy() error = %v", err)
	}
}

func TestLoadFrom_Invalid(t *testing.T) {
	tests := map[string]string{
		"CHAIN_ID":        "-1",
		"CONFIRM_TIMEOUT": "soon",
		"API_PORT":        "http",
	}

	for key, value := range tests {
		t.Run(key, func(t *testing.T) {
			_, err := LoadFrom(envMap(map[string]string{key: value}))
			if !errors.Is(err, ErrInvalidConfig) {
				t.Errorf("LoadFrom(%s=%s) error = %v, want ErrInvalidConfig", key, value, err)
			}
		})
	}
}

func TestValidateDeploy_RequiresKey(t *testing.T) {
	cfg, err := LoadFrom(envMap(nil))
	if err != nil {
		t.Fatal(err)
	}

	if err := cfg.ValidateDeploy(); !errors.Is(err, ErrInvalidConfig) {
		t.Errorf("ValidateDeploy() error = %v, want ErrInvalidConfig", err)
	}

	cfg.APIPort = 70000
	if err := cfg.Validate(); !errors.Is(err, ErrInvalidConfig) {
		t.Errorf("Validate() error = %v, want ErrInvalidConfig", err)
	}
}
