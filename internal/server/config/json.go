package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/dmitrijs2005/gophlocker/internal/flagx"
)

// Duration decodes either a Go duration string ("90s") or integer nanoseconds.
type Duration struct {
	time.Duration
}

func (d Duration) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

func (d *Duration) UnmarshalJSON(b []byte) error {
	var v any
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	switch value := v.(type) {
	case float64:
		d.Duration = time.Duration(value)
		return nil
	case string:
		parsed, err := time.ParseDuration(value)
		if err != nil {
			return err
		}
		d.Duration = parsed
		return nil
	default:
		return errors.New("invalid duration")
	}
}

// JsonConfig is the on-disk shape of the configuration file. Keys missing
// from the file leave the corresponding Config field untouched.
type JsonConfig struct {
	HTTPAddr          string   `json:"http_addr"`
	GRPCHealthAddr    string   `json:"grpc_health_addr"`
	DatabaseDriver    string   `json:"database_driver"`
	DatabaseDSN       string   `json:"database_dsn"`
	BoltPath          string   `json:"bolt_path"`
	BlobDriver        string   `json:"blob_driver"`
	UploadDir         string   `json:"upload_dir"`
	UploadURLPrefix   string   `json:"upload_url_prefix"`
	MaxUploadBytes    int64    `json:"max_upload_bytes"`
	MinPasswordLength int      `json:"min_password_length"`
	AllowedOrigins    []string `json:"allowed_origins"`
	RequestTimeout    Duration `json:"request_timeout"`
	SweepInterval     Duration `json:"sweep_interval"`
	SweepGrace        Duration `json:"sweep_grace"`
	LogLevel          string   `json:"log_level"`
	S3RootUser        string   `json:"s3_root_user"`
	S3RootPassword    string   `json:"s3_root_password"`
	S3Bucket          string   `json:"s3_bucket"`
	S3Region          string   `json:"s3_region"`
	S3BaseEndpoint    string   `json:"s3_base_endpoint"`
}

// parseJSON overlays the file given with -c/-config onto config. Without
// the flag nothing happens.
func parseJSON(config *Config, args []string) error {
	path := flagx.ConfigFile(args)
	if path == "" {
		return nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}

	c := JsonConfig{
		HTTPAddr:          config.HTTPAddr,
		GRPCHealthAddr:    config.GRPCHealthAddr,
		DatabaseDriver:    config.DatabaseDriver,
		DatabaseDSN:       config.DatabaseDSN,
		BoltPath:          config.BoltPath,
		BlobDriver:        config.BlobDriver,
		UploadDir:         config.UploadDir,
		UploadURLPrefix:   config.UploadURLPrefix,
		MaxUploadBytes:    config.MaxUploadBytes,
		MinPasswordLength: config.MinPasswordLength,
		AllowedOrigins:    config.AllowedOrigins,
		RequestTimeout:    Duration{config.RequestTimeout},
		SweepInterval:     Duration{config.SweepInterval},
		SweepGrace:        Duration{config.SweepGrace},
		LogLevel:          config.LogLevel,
		S3RootUser:        config.S3RootUser,
		S3RootPassword:    config.S3RootPassword,
		S3Bucket:          config.S3Bucket,
		S3Region:          config.S3Region,
		S3BaseEndpoint:    config.S3BaseEndpoint,
	}
	if err := json.Unmarshal(data, &c); err != nil {
		return fmt.Errorf("decode config file: %w", err)
	}

	config.HTTPAddr = c.HTTPAddr
	config.GRPCHealthAddr = c.GRPCHealthAddr
	config.DatabaseDriver = c.DatabaseDriver
	config.DatabaseDSN = c.DatabaseDSN
	config.BoltPath = c.BoltPath
	config.BlobDriver = c.BlobDriver
	config.UploadDir = c.UploadDir
	config.UploadURLPrefix = c.UploadURLPrefix
	config.MaxUploadBytes = c.MaxUploadBytes
	config.MinPasswordLength = c.MinPasswordLength
	config.AllowedOrigins = c.AllowedOrigins
	config.RequestTimeout = c.RequestTimeout.Duration
	config.SweepInterval = c.SweepInterval.Duration
	config.SweepGrace = c.SweepGrace.Duration
	config.LogLevel = c.LogLevel
	config.S3RootUser = c.S3RootUser
	config.S3RootPassword = c.S3RootPassword
	config.S3Bucket = c.S3Bucket
	config.S3Region = c.S3Region
	config.S3BaseEndpoint = c.S3BaseEndpoint
	return nil
}
