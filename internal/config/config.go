// Package config loads reelfeedd settings from flags, environment variables
// and defaults, in that order of precedence.
package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

type configVar[T any] struct {
	envKey       string
	flagKey      string
	defaultValue T
	usage        string
}

var (
	port = configVar[int]{
		envKey:       "PORT",
		flagKey:      "port",
		defaultValue: 8080,
		usage:        "HTTP listen port",
	}
	databaseURL = configVar[string]{
		envKey:  "DATABASE_URL",
		flagKey: "database-url",
		usage:   "PostgreSQL connection URL",
	}
	jwtSecret = configVar[string]{
		envKey:  "JWT_SECRET",
		flagKey: "jwt-secret",
		usage:   "HMAC secret for session tokens",
	}
	baseURL = configVar[string]{
		envKey:       "BASE_URL",
		flagKey:      "base-url",
		defaultValue: "http://localhost:8080",
		usage:        "Public base URL of the API",
	}
	s3Endpoint = configVar[string]{
		envKey:       "S3_ENDPOINT",
		flagKey:      "s3-endpoint",
		defaultValue: "http://localhost:3900",
		usage:        "S3 endpoint used by the server",
	}
	s3PublicEndpoint = configVar[string]{
		envKey:  "S3_PUBLIC_ENDPOINT",
		flagKey: "s3-public-endpoint",
		usage:   "S3 endpoint embedded in presigned URLs",
	}
	s3Bucket = configVar[string]{
		envKey:       "S3_BUCKET",
		flagKey:      "s3-bucket",
		defaultValue: "reelfeed",
		usage:        "Bucket holding video blobs",
	}
	s3AccessKey = configVar[string]{
		envKey:  "S3_ACCESS_KEY",
		flagKey: "s3-access-key",
		usage:   "S3 access key",
	}
	s3SecretKey = configVar[string]{
		envKey:  "S3_SECRET_KEY",
		flagKey: "s3-secret-key",
		usage:   "S3 secret key",
	}
	s3Region = configVar[string]{
		envKey:       "S3_REGION",
		flagKey:      "s3-region",
		defaultValue: "eu-central-1",
		usage:        "S3 region",
	}
	maxUploadBytes = configVar[int64]{
		envKey:       "MAX_UPLOAD_BYTES",
		flagKey:      "max-upload-bytes",
		defaultValue: 200 * 1024 * 1024,
		usage:        "Largest accepted video upload",
	}
	redisAddr = configVar[string]{
		envKey:  "REDIS_ADDR",
		flagKey: "redis-addr",
		usage:   "Redis address for cross-instance comment fan-out; empty keeps it in-process",
	}
	redisPassword = configVar[string]{
		envKey:  "REDIS_PASSWORD",
		flagKey: "redis-password",
		usage:   "Redis password",
	}
	logLevel = configVar[string]{
		envKey:       "LOG_LEVEL",
		flagKey:      "log-level",
		defaultValue: "info",
		usage:        "Logging level (debug, info, warn, error)",
	}
	apiDocsEnabled = configVar[bool]{
		envKey:  "API_DOCS_ENABLED",
		flagKey: "api-docs",
		usage:   "Serve the OpenAPI reference under /api/docs",
	}
	corsOrigins = configVar[string]{
		envKey:  "CORS_ORIGINS",
		flagKey: "cors-origins",
		usage:   "Comma-separated list of allowed browser origins",
	}
)

type Config struct {
	Port             int
	DatabaseURL      string
	JWTSecret        string
	BaseURL          string
	S3Endpoint       string
	S3PublicEndpoint string
	S3Bucket         string
	S3AccessKey      string
	S3SecretKey      string
	S3Region         string
	MaxUploadBytes   int64
	RedisAddr        string
	RedisPassword    string
	LogLevel         string
	CORSOrigins      []string
	APIDocsEnabled   bool
}

func bind[T any](v *viper.Viper, cv configVar[T]) {
	_ = v.BindEnv(cv.flagKey, cv.envKey)
	v.SetDefault(cv.flagKey, cv.defaultValue)
}

// Load parses args (without the program name) and resolves every setting.
func Load(args []string) (*Config, error) {
	fs := pflag.NewFlagSet("reelfeedd", pflag.ContinueOnError)
	fs.Int(port.flagKey, port.defaultValue, port.usage)
	fs.String(databaseURL.flagKey, databaseURL.defaultValue, databaseURL.usage)
	fs.String(jwtSecret.flagKey, jwtSecret.defaultValue, jwtSecret.usage)
	fs.String(baseURL.flagKey, baseURL.defaultValue, baseURL.usage)
	fs.String(s3Endpoint.flagKey, s3Endpoint.defaultValue, s3Endpoint.usage)
	fs.String(s3PublicEndpoint.flagKey, s3PublicEndpoint.defaultValue, s3PublicEndpoint.usage)
	fs.String(s3Bucket.flagKey, s3Bucket.defaultValue, s3Bucket.usage)
	fs.String(s3AccessKey.flagKey, s3AccessKey.defaultValue, s3AccessKey.usage)
	fs.String(s3SecretKey.flagKey, s3SecretKey.defaultValue, s3SecretKey.usage)
	fs.String(s3Region.flagKey, s3Region.defaultValue, s3Region.usage)
	fs.Int64(maxUploadBytes.flagKey, maxUploadBytes.defaultValue, maxUploadBytes.usage)
	fs.String(redisAddr.flagKey, redisAddr.defaultValue, redisAddr.usage)
	fs.String(redisPassword.flagKey, redisPassword.defaultValue, redisPassword.usage)
	fs.String(logLevel.flagKey, logLevel.defaultValue, logLevel.usage)
	fs.String(corsOrigins.flagKey, corsOrigins.defaultValue, corsOrigins.usage)
	fs.Bool(apiDocsEnabled.flagKey, apiDocsEnabled.defaultValue, apiDocsEnabled.usage)
	if err := fs.Parse(args); err != nil {
		return nil, fmt.Errorf("parse flags: %w", err)
	}

	v := viper.New()
	if err := v.BindPFlags(fs); err != nil {
		return nil, fmt.Errorf("bind flags: %w", err)
	}

	bind(v, port)
	bind(v, databaseURL)
	bind(v, jwtSecret)
	bind(v, baseURL)
	bind(v, s3Endpoint)
	bind(v, s3PublicEndpoint)
	bind(v, s3Bucket)
	bind(v, s3AccessKey)
	bind(v, s3SecretKey)
	bind(v, s3Region)
	bind(v, maxUploadBytes)
	bind(v, redisAddr)
	bind(v, redisPassword)
	bind(v, logLevel)
	bind(v, corsOrigins)
	bind(v, apiDocsEnabled)

	cfg := &Config{
		Port:             v.GetInt(port.flagKey),
		DatabaseURL:      v.GetString(databaseURL.flagKey),
		JWTSecret:        v.GetString(jwtSecret.flagKey),
		BaseURL:          v.GetString(baseURL.flagKey),
		S3Endpoint:       v.GetString(s3Endpoint.flagKey),
		S3PublicEndpoint: v.GetString(s3PublicEndpoint.flagKey),
		S3Bucket:         v.GetString(s3Bucket.flagKey),
		S3AccessKey:      v.GetString(s3AccessKey.flagKey),
		S3SecretKey:      v.GetString(s3SecretKey.flagKey),
		S3Region:         v.GetString(s3Region.flagKey),
		MaxUploadBytes:   v.GetInt64(maxUploadBytes.flagKey),
		RedisAddr:        v.GetString(redisAddr.flagKey),
		RedisPassword:    v.GetString(redisPassword.flagKey),
		LogLevel:         v.GetString(logLevel.flagKey),
		CORSOrigins:      splitList(v.GetString(corsOrigins.flagKey)),
		APIDocsEnabled:   v.GetBool(apiDocsEnabled.flagKey),
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	var errs []error
	if c.DatabaseURL == "" {
		errs = append(errs, fmt.Errorf("%s is required", databaseURL.envKey))
	}
	if c.JWTSecret == "" {
		errs = append(errs, fmt.Errorf("%s is required", jwtSecret.envKey))
	}
	if c.Port <= 0 || c.Port > 65535 {
		errs = append(errs, fmt.Errorf("%s must be between 1 and 65535, got %d", port.envKey, c.Port))
	}
	if c.MaxUploadBytes <= 0 {
		errs = append(errs, fmt.Errorf("%s must be positive", maxUploadBytes.envKey))
	}
	return errors.Join(errs...)
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
