package appconf

import (
	"fmt"
	"os"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// FileConfig is the optional YAML configuration file. Zero values leave the
// corresponding flag untouched.
type FileConfig struct {
	Port      int      `yaml:"port" validate:"omitempty,min=1,max=65535"`
	Env       string   `yaml:"env" validate:"omitempty,oneof=development test production"`
	ApiKeys   []string `yaml:"api_keys" validate:"dive,required"`
	RateLimit int      `yaml:"rate_limit" validate:"omitempty,min=1"`

	GTFS   GTFSFileConfig   `yaml:"gtfs"`
	Search SearchFileConfig `yaml:"search"`
}

// GTFSFileConfig configures the feed the timetable is built from.
type GTFSFileConfig struct {
	URL             string        `yaml:"url"`
	DataPath        string        `yaml:"data_path"`
	RefreshInterval time.Duration `yaml:"refresh_interval" validate:"omitempty,min=1m"`
	MinChange       int32         `yaml:"min_change_seconds" validate:"omitempty,min=0,max=3600"`
	WalkingSpeed    float64       `yaml:"walking_speed" validate:"omitempty,gt=0,lte=5"`
	MaxTransferWalk float64       `yaml:"max_transfer_walk_meters" validate:"omitempty,gt=0"`
}

// SearchFileConfig configures the journey searches.
type SearchFileConfig struct {
	MaxTransfers      int `yaml:"max_transfers" validate:"omitempty,min=1"`
	MaxTransfersLimit int `yaml:"max_transfers_limit" validate:"omitempty,min=1,gtefield=MaxTransfers"`
	Parallelism       int `yaml:"parallelism" validate:"omitempty,min=1"`
}

// LoadFile reads and validates a YAML configuration file.
func LoadFile(path string) (*FileConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}
	return ParseFile(data)
}

// ParseFile decodes and validates the content of a configuration file.
func ParseFile(data []byte) (*FileConfig, error) {
	var fc FileConfig
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return nil, fmt.Errorf("decoding config file: %w", err)
	}

	v := validator.New()
	if err := v.Struct(fc); err != nil {
		return nil, fmt.Errorf("invalid config file: %w", err)
	}
	return &fc, nil
}

// Apply overlays the non-zero settings of the file on cfg.
func (fc *FileConfig) Apply(cfg *Config) {
	if fc.Port != 0 {
		cfg.Port = fc.Port
	}
	if fc.Env != "" {
		cfg.Env = EnvFlagToEnvironment(fc.Env)
	}
	if len(fc.ApiKeys) > 0 {
		cfg.ApiKeys = fc.ApiKeys
	}
	if fc.RateLimit != 0 {
		cfg.RateLimit = fc.RateLimit
	}
	if fc.Search.MaxTransfers != 0 {
		cfg.MaxTransfers = fc.Search.MaxTransfers
	}
	if fc.Search.MaxTransfersLimit != 0 {
		cfg.MaxTransfersLimit = fc.Search.MaxTransfersLimit
	}
	if fc.Search.Parallelism != 0 {
		cfg.Parallelism = fc.Search.Parallelism
	}
}
