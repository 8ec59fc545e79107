package models

import (
	"os"

	"gopkg.in/yaml.v2"
)

type Config struct {
	ServerAddr     string `yaml:"server_addr"`
	DatabaseURL    string `yaml:"database_url"`
	UploadRoot     string `yaml:"upload_root"`
	KafkaBroker    string `yaml:"kafka_broker"` // empty disables event publishing
	KafkaTopic     string `yaml:"kafka_topic"`
	MaxUploadBytes int64  `yaml:"max_upload_bytes"`
}

const defaultMaxUploadBytes = 10 << 20 // 10 MiB

func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	if cfg.MaxUploadBytes == 0 {
		cfg.MaxUploadBytes = defaultMaxUploadBytes
	}
	return &cfg, nil
}
