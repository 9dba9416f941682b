package minio

import "time"

const (
	unknownSize                   int64 = -1
	connectionHealthCheckInterval       = 30 * time.Second
	defaultSmallFileThreshold     int64 = 64 * 1024
	defaultMaxObjectSize          int64 = 32 * 1024 * 1024
)

// Config holds the settings for the bucket that stores book sources.
type Config struct {
	Connection     ConnectionConfig `yaml:"connection"`
	DownloadConfig DownloadConfig   `yaml:"download"`
}

type ConnectionConfig struct {
	Endpoint        string `yaml:"endpoint" envconfig:"MINIO_ENDPOINT"`
	AccessKeyID     string `yaml:"access_key_id" envconfig:"MINIO_ACCESS_KEY_ID"`
	SecretAccessKey string `yaml:"secret_access_key" envconfig:"MINIO_SECRET_ACCESS_KEY"`
	UseSSL          bool   `yaml:"use_ssl" envconfig:"MINIO_USE_SSL"`
	BucketName      string `yaml:"bucket_name" envconfig:"MINIO_BUCKET"`
	Region          string `yaml:"region" envconfig:"MINIO_REGION"`

	// CreateBucket creates the bucket on startup when it is missing.
	CreateBucket bool `yaml:"create_bucket" envconfig:"MINIO_CREATE_BUCKET"`
}

type DownloadConfig struct {
	// SmallFileThreshold is the size below which objects are read into an
	// exactly sized slice instead of a pooled buffer.
	SmallFileThreshold int64 `yaml:"small_file_threshold" envconfig:"MINIO_SMALL_FILE_THRESHOLD"`

	// MaxObjectSize rejects objects larger than this many bytes.
	MaxObjectSize int64 `yaml:"max_object_size" envconfig:"MINIO_MAX_OBJECT_SIZE"`
}
