// Package config loads the chat server settings from the environment,
// an optional .env file and command-line flags.
package config

import (
	"errors"
	"flag"
	"fmt"

	"github.com/Netflix/go-env"
	"github.com/joho/godotenv"
)

// Config holds runtime settings for the chat server.
//
// Redis, Postgres and S3 are optional: an empty REDIS_ADDR keeps public
// fan-out in-process, an empty DB_DSN disables the upload audit table and an
// empty S3_BUCKET disables the /upload endpoint.
type Config struct {
	Addr          string `env:"ADDR,default=:8080"`
	LogLevel      string `env:"LOG_LEVEL,default=info"`
	StaticDir     string `env:"STATIC_DIR,default=public"`
	SendBuffer    int    `env:"SEND_BUFFER,default=256"`
	DevAssertions bool   `env:"DEV_ASSERTIONS,default=false"`

	RedisAddr    string `env:"REDIS_ADDR"`
	RedisChannel string `env:"REDIS_CHANNEL,default=general-chat"`

	DatabaseDSN string `env:"DB_DSN"`

	UploadMaxBytes int64  `env:"UPLOAD_MAX_BYTES,default=10485760"`
	S3Bucket       string `env:"S3_BUCKET"`
	S3Region       string `env:"S3_REGION,default=us-east-1"`
	S3Endpoint     string `env:"S3_ENDPOINT"`
	S3AccessKey    string `env:"S3_ACCESS_KEY"`
	S3SecretKey    string `env:"S3_SECRET_KEY"`
	S3PublicURL    string `env:"S3_PUBLIC_URL"`
}

// Load reads .env (if present), then the process environment, then args.
// Only -addr is accepted as a flag.
func Load(args []string) (*Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if _, err := env.UnmarshalFromEnviron(&cfg); err != nil {
		return nil, fmt.Errorf("config error: %w", err)
	}

	fs := flag.NewFlagSet("server", flag.ContinueOnError)
	fs.StringVar(&cfg.Addr, "addr", cfg.Addr, "http service address")
	if err := fs.Parse(args); err != nil {
		return nil, fmt.Errorf("config error: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	if c.SendBuffer <= 0 {
		return errors.New("config error: SEND_BUFFER must be positive")
	}
	if c.UploadMaxBytes <= 0 {
		return errors.New("config error: UPLOAD_MAX_BYTES must be positive")
	}
	return nil
}

// UploadsEnabled reports whether an object store is configured.
func (c *Config) UploadsEnabled() bool {
	return c.S3Bucket != ""
}
