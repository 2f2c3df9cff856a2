package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
)

func LoadEnv() {
	_ = godotenv.Load()
}

// StorageConfig describes the optional S3 bucket exported letters are
// uploaded to. An empty Bucket disables the upload.
type StorageConfig struct {
	Region   string
	Bucket   string
	Endpoint string
}

func (s StorageConfig) Enabled() bool {
	return s.Bucket != ""
}

func LoadStorageConfig() StorageConfig {
	return StorageConfig{
		Region:   os.Getenv("AWS_REGION"),
		Bucket:   os.Getenv("AWS_S3_BUCKET"),
		Endpoint: os.Getenv("S3_ENDPOINT_URL"),
	}
}

// ValidateStorageConfig requires a region once a bucket is configured.
func ValidateStorageConfig() error {
	if strings.TrimSpace(os.Getenv("AWS_S3_BUCKET")) == "" {
		return nil
	}
	if strings.TrimSpace(os.Getenv("AWS_REGION")) == "" {
		return fmt.Errorf("AWS_REGION is required when AWS_S3_BUCKET is set")
	}
	return nil
}
