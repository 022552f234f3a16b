package s3export

import (
	"errors"
	"fmt"
	"time"

	"github.com/eduprompt/eduprompt/internal/pkg/env"
)

// Config holds S3 export configuration
type Config struct {
	AccessKeyID     string
	SecretAccessKey string
	Region          string
	BucketName      string
	EndpointURL     string // Optional for S3-compatible services
	Enabled         bool
}

// LoadConfig loads S3 configuration from environment variables
func LoadConfig() (*Config, error) {
	config := &Config{
		AccessKeyID:     env.GetEnv("S3_ACCESS_KEY_ID", ""),
		SecretAccessKey: env.GetEnv("S3_SECRET_ACCESS_KEY", ""),
		Region:          env.GetEnv("S3_REGION", "us-west-001"),
		BucketName:      env.GetEnv("S3_BUCKET_NAME", ""),
		EndpointURL:     env.GetEnv("S3_ENDPOINT_URL", ""),
		Enabled:         env.GetEnv("S3_EXPORT_ENABLED", "false") == "true",
	}

	// Validate required fields if S3 export is enabled
	if config.Enabled {
		if config.AccessKeyID == "" {
			return nil, errors.New("S3_ACCESS_KEY_ID is required when S3 export is enabled")
		}
		if config.SecretAccessKey == "" {
			return nil, errors.New("S3_SECRET_ACCESS_KEY is required when S3 export is enabled")
		}
		if config.BucketName == "" {
			return nil, errors.New("S3_BUCKET_NAME is required when S3 export is enabled")
		}
	}

	return config, nil
}

// IsEnabled returns true if S3 export is enabled
func (c *Config) IsEnabled() bool {
	return c.Enabled
}

// GetObjectKey generates the S3 object key for a monthly payment export.
func (c *Config) GetObjectKey(month time.Time) string {
	// Format: exports/payments/YYYY/payments-YYYY-MM.csv
	return fmt.Sprintf("exports/payments/%04d/payments-%04d-%02d.csv",
		month.Year(), month.Year(), int(month.Month()))
}

// GetSchoolObjectKey generates the S3 object key for a school-scoped
// monthly export.
func (c *Config) GetSchoolObjectKey(schoolID uint, month time.Time) string {
	return fmt.Sprintf("exports/schools/%d/%04d/payments-%04d-%02d.csv",
		schoolID, month.Year(), month.Year(), int(month.Month()))
}

// GetBucketName returns the bucket name as configured (no automatic prefixing)
func (c *Config) GetBucketName() string {
	return c.BucketName
}
