// Package config loads server settings from DNS_-prefixed environment
// variables over built-in defaults.
package config

import (
	"fmt"
	"net"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/knadh/koanf/providers/env/v2"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// AppConfig holds configuration values parsed from environment variables.
type AppConfig struct {
	// CacheSize is the maximum number of answer sets the cache holds.
	CacheSize uint `koanf:"cache_size" validate:"required,gte=1"`

	// DisableCache disables DNS response caching when set to true.
	// Useful for testing scenarios where cache behavior needs to be bypassed.
	DisableCache bool `koanf:"disable_cache"`

	// Env is the runtime environment, either "dev" or "prod".
	Env string `koanf:"env" validate:"required,oneof=dev prod"`

	// LogLevel controls log verbosity: "debug", "info", "warn", or "error".
	LogLevel string `koanf:"log_level" validate:"required,oneof=debug info warn error"`

	// Listen is the UDP address the server binds to, in ip:port form.
	Listen string `koanf:"listen" validate:"required,ip_port"`

	// RootHints is an optional path to a root hints file. When empty the
	// built-in IANA root server list is used.
	RootHints string `koanf:"root_hints"`

	// Blocklist is an optional path to a blocklist file (plain or hosts
	// format). Empty disables blocking.
	Blocklist string `koanf:"blocklist"`

	// BlocklistDB is where the persistent blocklist index lives.
	BlocklistDB string `koanf:"blocklist_db" validate:"required"`

	// BlocklistCacheSize is the capacity of the block decision cache.
	// Zero disables that cache.
	BlocklistCacheSize int `koanf:"blocklist_cache_size" validate:"gte=0"`

	// UpstreamTimeout bounds a single upstream exchange, in seconds.
	UpstreamTimeout int `koanf:"upstream_timeout" validate:"required,gte=1,lte=30"`

	// MaxAttempts bounds the upstream exchanges spent on one client query.
	MaxAttempts int `koanf:"max_attempts" validate:"required,gte=1,lte=64"`
}

// DEFAULT_APP_CONFIG defines the default application configuration settings
// for the DNS service.
var DEFAULT_APP_CONFIG = AppConfig{
	CacheSize:          1000,
	DisableCache:       false,
	Env:                "prod",
	LogLevel:           "info",
	Listen:             "0.0.0.0:53",
	RootHints:          "",
	Blocklist:          "",
	BlocklistDB:        "/var/lib/ir-dns/blocklist.db",
	BlocklistCacheSize: 1000,
	UpstreamTimeout:    3,
	MaxAttempts:        12,
}

// validIPPort validates whether the provided field value is a valid IP
// address and port combination in "IP:Port" format.
func validIPPort(fl validator.FieldLevel) bool {
	addr := fl.Field().String()
	ip, port, err := net.SplitHostPort(addr)
	if err != nil || ip == "" || port == "" {
		return false
	}
	if net.ParseIP(ip) == nil {
		return false
	}
	portNum, err := strconv.ParseUint(port, 10, 16)
	return err == nil && portNum > 0 && portNum < 65536
}

// envLoader loads environment variables with the prefix "DNS_", lowercasing
// keys and stripping the prefix. It is a variable so tests can mock it.
var envLoader = func(k *koanf.Koanf) error {
	return k.Load(env.Provider(".", env.Opt{
		Prefix: "DNS_",
		TransformFunc: func(key, value string) (string, any) {
			key = strings.ToLower(strings.TrimPrefix(key, "DNS_"))
			value = strings.TrimSpace(value)

			if value == "" {
				return key, value
			}

			if strings.Contains(value, " ") || strings.Contains(value, ",") {
				parts := strings.FieldsFunc(value, func(r rune) bool {
					return r == ' ' || r == ','
				})
				return key, parts
			}

			return key, value
		},
	}), nil)
}

// defaultLoader loads default configuration values into the provided Koanf
// instance using the structs provider.
var defaultLoader = func(k *koanf.Koanf) error {
	return k.Load(structs.Provider(DEFAULT_APP_CONFIG, "koanf"), nil)
}

// registerValidation registers the custom "ip_port" validation.
var registerValidation = func(v *validator.Validate) error {
	return v.RegisterValidation("ip_port", validIPPort)
}

// Load parses environment variables and returns an AppConfig instance.
// It applies default values and runs validation automatically.
func Load() (*AppConfig, error) {
	k := koanf.New(".")

	err := defaultLoader(k)
	if err != nil {
		return nil, fmt.Errorf("error loading default config: %w", err)
	}

	err = envLoader(k)
	if err != nil {
		return nil, fmt.Errorf("error loading env: %w", err)
	}

	var cfg AppConfig
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("error unmarshalling config: %w", err)
	}

	validate := validator.New(validator.WithRequiredStructEnabled())
	err = registerValidation(validate)
	if err != nil {
		return nil, fmt.Errorf("error registering validation: %w", err)
	}

	err = validate.Struct(&cfg)
	if err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}

	return &cfg, nil
}
