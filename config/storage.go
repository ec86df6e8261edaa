package config

import "fmt"

// Store backend selectors
const (
	BackendFile     = "file"
	BackendPostgres = "postgres"
)

// StorageConfig defines configuration for the bounded telemetry store
type StorageConfig struct {
	Backend      string `yaml:"backend"`       // "file" or "postgres"
	DataFile     string `yaml:"data_file"`     // Backing file for the "file" backend
	RetentionCap int    `yaml:"retention_cap"` // Maximum number of retained records
}

// SetDefaults sets reasonable default values for storage configuration
func (c *StorageConfig) SetDefaults() {
	if c.Backend == "" {
		c.Backend = BackendFile
		fmt.Printf("Warning: storage.backend not set, defaulting to %s\n", c.Backend)
	}
	if c.DataFile == "" {
		c.DataFile = "./data/road_data.json"
		fmt.Printf("Warning: storage.data_file not set, defaulting to %s\n", c.DataFile)
	}
	if c.RetentionCap <= 0 {
		c.RetentionCap = 1000
		fmt.Printf("Warning: storage.retention_cap not set or invalid, defaulting to %d\n", c.RetentionCap)
	}
}

// Validate validates the storage configuration
func (c *StorageConfig) Validate() error {
	switch c.Backend {
	case BackendFile, BackendPostgres:
	default:
		return fmt.Errorf("unsupported storage backend: %s", c.Backend)
	}
	if c.Backend == BackendFile && c.DataFile == "" {
		return fmt.Errorf("storage data_file is required for the file backend")
	}
	return nil
}

// EvidenceConfig defines the filesystem roots for photo/video evidence
type EvidenceConfig struct {
	ImageDir string `yaml:"image_dir"`
	VideoDir string `yaml:"video_dir"`
}

// SetDefaults sets reasonable default values for evidence configuration
func (c *EvidenceConfig) SetDefaults() {
	if c.ImageDir == "" {
		c.ImageDir = "./uploads/images"
		fmt.Printf("Warning: evidence.image_dir not set, defaulting to %s\n", c.ImageDir)
	}
	if c.VideoDir == "" {
		c.VideoDir = "./uploads/videos"
		fmt.Printf("Warning: evidence.video_dir not set, defaulting to %s\n", c.VideoDir)
	}
}
