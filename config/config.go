// Package config loads the controller process's configuration from the
// environment, following the teacher's LoadConfig[T]/ValidateConfig pattern
// of marshaling os.Environ() through JSON into a typed struct.
package config

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"strings"
)

// Config is the full set of settings controllerd reads from the environment.
type Config struct {
	DatabaseURL       string `json:"database_url"`
	Port              string `json:"port"`
	Addr              string `json:"addr"`
	AllowedAPIOrigins string `json:"allowed_api_origins"`
	AllowedMethods    string `json:"allowed_methods"`
	AllowedHeaders    string `json:"allowed_headers"`

	// DefaultCloud defaults to "dummy"; controllerd does not read it, as the
	// dummy adapter is always registered. Kubernetes/AWS adapters are
	// registered only when EnableKubernetes/EnableAWS are set.
	DefaultCloud string `json:"default_cloud"`

	// The ",string" option lets LoadConfig fill these from environment
	// values such as "true", which arrive as JSON strings.
	EnableKubernetes bool   `json:"enable_kubernetes,string"`
	KubeconfigPath   string `json:"kubeconfig_path"`

	EnableAWS bool   `json:"enable_aws,string"`
	AWSRegion string `json:"aws_region"`

	MetricsAddr string `json:"metrics_addr"`
}

// LoadConfig marshals the process environment (lowercased keys) through JSON
// into cfg, so any exported field with a json tag is populated from the
// matching environment variable name.
func LoadConfig[T any](cfg *T) error {
	env := map[string]string{}
	for _, kv := range os.Environ() {
		parts := strings.SplitN(kv, "=", 2)
		if len(parts) < 2 {
			continue
		}
		env[strings.ToLower(parts[0])] = parts[1]
	}

	b, err := json.Marshal(env)
	if err != nil {
		return fmt.Errorf("config: marshal env: %w", err)
	}
	if err := json.Unmarshal(b, cfg); err != nil {
		return fmt.Errorf("config: unmarshal into config struct: %w", err)
	}
	return nil
}

// ValidateConfig checks required fields and fills in defaults for optional ones.
func ValidateConfig(cfg *Config) error {
	if cfg.DatabaseURL == "" {
		return fmt.Errorf("missing required configuration: database_url")
	}
	if cfg.Port == "" {
		return fmt.Errorf("missing required configuration: port")
	}
	if cfg.Addr == "" {
		cfg.Addr = "0.0.0.0"
	}
	if cfg.AllowedMethods == "" {
		cfg.AllowedMethods = "GET, POST, PATCH, DELETE, OPTIONS"
		log.Println("allowed_methods not set, using default:", cfg.AllowedMethods)
	}
	if cfg.AllowedHeaders == "" {
		cfg.AllowedHeaders = "Content-Type"
		log.Println("allowed_headers not set, using default:", cfg.AllowedHeaders)
	}
	if cfg.AllowedAPIOrigins == "" {
		cfg.AllowedAPIOrigins = "*"
		log.Println("allowed_api_origins not set, using default:", cfg.AllowedAPIOrigins)
	}
	if cfg.DefaultCloud == "" {
		cfg.DefaultCloud = "dummy"
	}
	if cfg.MetricsAddr == "" {
		cfg.MetricsAddr = ":9090"
	}
	if cfg.EnableAWS && cfg.AWSRegion == "" {
		return fmt.Errorf("enable_aws is set but aws_region is missing")
	}
	return nil
}
