package config

import "fmt"

// KafkaConsumerConfig defines configuration for the ingest bridge consumers
type KafkaConsumerConfig struct {
	Brokers           []string `yaml:"brokers"`            // e.g., ["kafka1:9092", "kafka2:9092"]
	Topic             string   `yaml:"topic"`              // Topic to consume from
	GroupID           string   `yaml:"group_id"`           // Consumer group ID
	Count             int      `yaml:"count"`              // Number of consumers to create
	SessionTimeout    string   `yaml:"session_timeout"`    // Kafka session timeout
	HeartbeatInterval string   `yaml:"heartbeat_interval"` // Kafka heartbeat interval
	AutoOffsetReset   string   `yaml:"auto_offset_reset"`  // earliest/latest
}

// SetDefaults sets reasonable default values for Kafka consumer configuration
func (c *KafkaConsumerConfig) SetDefaults() {
	if c.Count <= 0 {
		c.Count = 1
		fmt.Printf("Warning: kafka_consumer.count not set or invalid, defaulting to %d\n", c.Count)
	}
	if c.SessionTimeout == "" {
		c.SessionTimeout = "30s"
		fmt.Printf("Warning: kafka_consumer.session_timeout not set, defaulting to %s\n", c.SessionTimeout)
	}
	if c.HeartbeatInterval == "" {
		c.HeartbeatInterval = "3s"
		fmt.Printf("Warning: kafka_consumer.heartbeat_interval not set, defaulting to %s\n", c.HeartbeatInterval)
	}
	if c.AutoOffsetReset == "" {
		c.AutoOffsetReset = "earliest"
		fmt.Printf("Warning: kafka_consumer.auto_offset_reset not set, defaulting to %s\n", c.AutoOffsetReset)
	}
}

// BridgeConfig defines configuration for the bridge worker loop
type BridgeConfig struct {
	Concurrency        int    `yaml:"concurrency"`          // Number of concurrent workers per consumer
	ConsumerRetryDelay string `yaml:"consumer_retry_delay"` // Delay when consumer encounters errors
}

// SetDefaults sets reasonable default values for bridge configuration
func (c *BridgeConfig) SetDefaults() {
	if c.Concurrency <= 0 {
		c.Concurrency = 1
		fmt.Printf("Warning: bridge.concurrency not set or invalid, defaulting to %d\n", c.Concurrency)
	}
	if c.ConsumerRetryDelay == "" {
		c.ConsumerRetryDelay = "5s"
		fmt.Printf("Warning: bridge.consumer_retry_delay not set, defaulting to %s\n", c.ConsumerRetryDelay)
	}
}
