package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v2"
)

// HttpServerConfig defines HTTP server tuning parameters
type HttpServerConfig struct {
	ReadTimeout    time.Duration `yaml:"read_timeout"`
	WriteTimeout   time.Duration `yaml:"write_timeout"`
	IdleTimeout    time.Duration `yaml:"idle_timeout"`
	MaxHeaderBytes int           `yaml:"max_header_bytes"`
}

// WebConfig points at the static dashboard assets
type WebConfig struct {
	Dir string `yaml:"dir"`
}

// SetDefaults sets reasonable default values for web configuration
func (c *WebConfig) SetDefaults() {
	if c.Dir == "" {
		c.Dir = "./web"
		fmt.Printf("Warning: web.dir not set, defaulting to %s\n", c.Dir)
	}
}

// ServerConfig defines all configuration for the road monitoring server
type ServerConfig struct {
	HttpListenAddr string `yaml:"http_listen_addr"`

	HttpServer HttpServerConfig `yaml:"http_server"`

	// Telemetry store configuration
	Storage  StorageConfig  `yaml:"storage"`
	Database DatabaseConfig `yaml:"database"` // Used when storage.backend is "postgres"

	// Evidence archive roots
	Evidence EvidenceConfig `yaml:"evidence"`

	// Static dashboard
	Web WebConfig `yaml:"web"`

	// Optional Kafka ingest bridge
	KafkaConsumer KafkaConsumerConfig `yaml:"kafka_consumer"`
	Bridge        BridgeConfig        `yaml:"bridge"`
}

// LoadServerConfig loads configuration from the specified YAML file path
func LoadServerConfig(path string) (*ServerConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file '%s': %w", path, err)
	}

	var cfg ServerConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse YAML config file: %w", err)
	}

	cfg.Storage.SetDefaults()
	cfg.Evidence.SetDefaults()
	cfg.Web.SetDefaults()
	cfg.Bridge.SetDefaults()
	if len(cfg.KafkaConsumer.Brokers) > 0 {
		cfg.KafkaConsumer.SetDefaults()
	}

	if cfg.HttpListenAddr == "" {
		return nil, fmt.Errorf("configuration error: http_listen_addr must be configured")
	}

	if err := cfg.Storage.Validate(); err != nil {
		return nil, fmt.Errorf("storage configuration error: %w", err)
	}
	if cfg.Storage.Backend == BackendPostgres {
		cfg.Database.SetDefaults()
		if err := cfg.Database.Validate(); err != nil {
			return nil, fmt.Errorf("database configuration error: %w", err)
		}
	}

	return &cfg, nil
}
