package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/healthplus/backend/pkg/constants"
	"github.com/spf13/viper"
)

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 5000)
	v.SetDefault("server.timeout_seconds", 15)
	v.SetDefault("server.environment", "development")
	v.SetDefault("server.body_limit_mb", 25)
	v.SetDefault("server.rate_limit.enabled", true)
	v.SetDefault("server.rate_limit.requests_per_minute", 120)
	v.SetDefault("server.rate_limit.auth_per_minute", 10)

	v.SetDefault("mongo.database", "healthplus")
	v.SetDefault("mongo.max_pool_size", 50)
	v.SetDefault("mongo.connect_timeout_seconds", 10)
	v.SetDefault("mongo.auto_index", true)

	v.SetDefault("cache.driver", "memory")
	v.SetDefault("cache.size", 10000)

	v.SetDefault("authentication.paseto.mode", "local")
	v.SetDefault("authentication.paseto.issuer", constants.AppName)
	v.SetDefault("authentication.paseto.audience", constants.AppName)
	v.SetDefault("authentication.paseto.access_ttl_minutes", 15)
	v.SetDefault("authentication.paseto.refresh_ttl_days", 7)
	v.SetDefault("authentication.session_ttl_minutes", 7*24*60)
	v.SetDefault("authentication.otp_ttl_seconds", 60)
	v.SetDefault("authentication.otp_max_attempts", 5)
	v.SetDefault("authentication.min_password_length", 8)
	v.SetDefault("authentication.default_region", "IN")

	v.SetDefault("otp.length", 6)

	v.SetDefault("upload.max_size_mb", 10)
	v.SetDefault("upload.allowed_types", []string{"image/jpeg", "image/png", "application/pdf"})

	v.SetDefault("events.driver", "none")
	v.SetDefault("events.amqp.exchange", constants.AppName)

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
	v.SetDefault("logging.output.stdout", true)

	v.SetDefault("observability.service_name", constants.AppName)
	v.SetDefault("observability.metrics.path", "/metrics")
}

func ReadConfig(configPath string) (*Config, error) {
	v := viper.New()
	v.SetConfigName(constants.ConfigName)
	v.SetConfigType(constants.ConfigFormat)
	v.AddConfigPath(configPath)
	setDefaults(v)

	// Allow env vars to override config values.
	// e.g. HEALTHPLUS_MONGO_URI overrides mongo.uri
	v.SetEnvPrefix(constants.EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// The config file is optional when everything comes from the environment.
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		// AutomaticEnv only resolves keys viper already knows about.
		for _, key := range []string{
			"mongo.uri", "redis.addr", "redis.password",
			"authentication.paseto.local_key_hex", "authentication.paseto.secret_key_hex",
			"email.enabled", "email.from", "email.smtp.host", "email.smtp.port",
			"email.smtp.username", "email.smtp.password",
			"s3.endpoint", "s3.bucket", "s3.access_key_id", "s3.secret_access_key",
			"events.nats.url", "events.amqp.url",
			"admin.email", "admin.password",
		} {
			_ = v.BindEnv(key)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unable to decode into struct: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return &config, nil
}
