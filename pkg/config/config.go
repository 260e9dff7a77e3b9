package config

import (
	"fmt"
	"os"
	"regexp"
	"rentals/pkg/client"
	"rentals/pkg/logger"
	"strconv"
	"time"
)

type Config struct {
	MongoURI          string
	MongoDatabaseName string
	MongoConnTimeout  time.Duration

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	Port string

	RateLimitRequests int
	RateLimitWindow   time.Duration

	RequestTimeout time.Duration
	IdempotencyTTL time.Duration
	MaxRequestSize int

	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration

	JWTSecret string
	JWTIssuer string
	JWTTTL    time.Duration

	BookingLockTTL  time.Duration
	BookingLockWait time.Duration

	OTPResendAfter time.Duration

	SMSGatewayURL       string
	SMSGatewayAccountID string
	SMSGatewayToken     string
	SMSGatewaySender    string
	SMSGatewayTimeout   time.Duration

	BookingEventsTopic    string
	BookingEventsDLQTopic string
	NotifierGroupID       string

	DefaultPhoneRegion string

	Log    *logger.Logger
	Client *client.Client
}

func Load(serviceName string) *Config {
	cfg := &Config{
		MongoURI:          getEnvStr(EnvMongoURI, DefaultMongoURI),
		MongoDatabaseName: getEnvStr(EnvMongoDatabaseName, DefaultMongoDatabaseName),
		MongoConnTimeout:  getEnvDuration(EnvMongoConnTimeout, DefaultMongoConnTimeout),

		RedisAddr:     getEnvStr(EnvRedisAddr, DefaultRedisAddr),
		RedisPassword: getEnvStr(EnvRedisPassword, ""),
		RedisDB:       getEnvNum(EnvRedisDB, DefaultRedisDB),

		Port: getEnvStr(EnvPort, DefaultPort),

		RateLimitRequests: getEnvNum(EnvRateLimitRequests, DefaultRateLimitRequests),
		RateLimitWindow:   getEnvDuration(EnvRateLimitWindow, DefaultRateLimitWindow),

		RequestTimeout: getEnvDuration(EnvRequestTimeout, DefaultRequestTimeout),
		IdempotencyTTL: getEnvDuration(EnvIdempotencyTTL, DefaultIdempotencyTTL),
		MaxRequestSize: getEnvNum(EnvMaxRequestSize, DefaultMaxRequestSize),

		ReadTimeout:     getEnvDuration(EnvReadTimeout, DefaultReadTimeout),
		WriteTimeout:    getEnvDuration(EnvWriteTimeout, DefaultWriteTimeout),
		IdleTimeout:     getEnvDuration(EnvIdleTimeout, DefaultIdleTimeout),
		ShutdownTimeout: getEnvDuration(EnvShutdownTimeout, DefaultShutdownTimeout),

		JWTSecret: getEnvStr(EnvJWTSecret, ""),
		JWTIssuer: getEnvStr(EnvJWTIssuer, DefaultJWTIssuer),
		JWTTTL:    getEnvDuration(EnvJWTTTL, DefaultJWTTTL),

		BookingLockTTL:  getEnvDuration(EnvBookingLockTTL, DefaultBookingLockTTL),
		BookingLockWait: getEnvDuration(EnvBookingLockWait, DefaultBookingLockWait),

		OTPResendAfter: getEnvDuration(EnvOTPResendAfter, DefaultOTPResendAfter),

		SMSGatewayURL:       getEnvStr(EnvSMSGatewayURL, ""),
		SMSGatewayAccountID: getEnvStr(EnvSMSGatewayAccountID, ""),
		SMSGatewayToken:     getEnvStr(EnvSMSGatewayToken, ""),
		SMSGatewaySender:    getEnvStr(EnvSMSGatewaySender, ""),
		SMSGatewayTimeout:   getEnvDuration(EnvSMSGatewayTimeout, DefaultSMSGatewayTimeout),

		BookingEventsTopic:    getEnvStr(EnvBookingEventsTopic, DefaultBookingEventsTopic),
		BookingEventsDLQTopic: getEnvStr(EnvBookingEventsDLQTopic, DefaultBookingEventsDLQTopic),
		NotifierGroupID:       getEnvStr(EnvNotifierGroupID, DefaultNotifierGroupID),

		DefaultPhoneRegion: getEnvStr(EnvDefaultPhoneRegion, DefaultPhoneRegion),

		Log: logger.New(logger.Config{
			Level:     getEnvStr(EnvLogLevel, DefaultLogLevel),
			Format:    logger.JSON,
			AddSource: true,
			Service:   serviceName,
		}),
		Client: client.NewClient(),
	}

	if err := cfg.Validate(); err != nil {
		cfg.Log.Fatal(err.Error())
	}
	cfg.LogConfiguration()
	return cfg
}

func (cfg *Config) SetMongo() {
	cfg.Client.SetMongo(cfg.Log, cfg.MongoURI, cfg.MongoConnTimeout)
}

func (cfg *Config) SetRedis() {
	cfg.Client.SetRedis(cfg.Log, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB, cfg.MongoConnTimeout)
}

func (cfg *Config) Validate() error {
	var errors []string

	if port, err := strconv.Atoi(cfg.Port); err != nil || port < 1 || port > 65535 {
		errors = append(errors, fmt.Sprintf("Port must be between 1 and 65535, got: %s", cfg.Port))
	}

	if cfg.MongoURI == "" {
		errors = append(errors, "MongoURI cannot be empty")
	} else if len(cfg.MongoURI) < 10 || !regexp.MustCompile(`^mongodb(\+srv)?://`).MatchString(cfg.MongoURI) {
		errors = append(errors, fmt.Sprintf("MongoURI must start with 'mongodb://' or 'mongodb+srv://', got: %s", redactMongoURI(cfg.MongoURI)))
	}
	if cfg.MongoDatabaseName == "" {
		errors = append(errors, "MongoDatabaseName cannot be empty")
	}
	if cfg.RedisAddr == "" {
		errors = append(errors, "RedisAddr cannot be empty")
	}
	if cfg.RedisDB < 0 {
		errors = append(errors, fmt.Sprintf("RedisDB cannot be negative, got: %d", cfg.RedisDB))
	}

	if cfg.JWTSecret == "" {
		errors = append(errors, "JWTSecret cannot be empty")
	} else if len(cfg.JWTSecret) < 32 {
		errors = append(errors, fmt.Sprintf("JWTSecret must be at least 32 characters, got: %d", len(cfg.JWTSecret)))
	}
	if cfg.JWTIssuer == "" {
		errors = append(errors, "JWTIssuer cannot be empty")
	}

	if cfg.SMSGatewayURL != "" && !regexp.MustCompile(`^https?://`).MatchString(cfg.SMSGatewayURL) {
		errors = append(errors, fmt.Sprintf("SMSGatewayURL must start with 'http://' or 'https://', got: %s", cfg.SMSGatewayURL))
	}

	if cfg.BookingEventsTopic == "" {
		errors = append(errors, "BookingEventsTopic cannot be empty")
	}
	if len(cfg.DefaultPhoneRegion) != 2 {
		errors = append(errors, fmt.Sprintf("DefaultPhoneRegion must be a 2 letter region code, got: %s", cfg.DefaultPhoneRegion))
	}

	positive := []struct {
		name  string
		value time.Duration
	}{
		{"MongoConnTimeout", cfg.MongoConnTimeout},
		{"RateLimitWindow", cfg.RateLimitWindow},
		{"RequestTimeout", cfg.RequestTimeout},
		{"IdempotencyTTL", cfg.IdempotencyTTL},
		{"ReadTimeout", cfg.ReadTimeout},
		{"WriteTimeout", cfg.WriteTimeout},
		{"IdleTimeout", cfg.IdleTimeout},
		{"ShutdownTimeout", cfg.ShutdownTimeout},
		{"JWTTTL", cfg.JWTTTL},
		{"BookingLockTTL", cfg.BookingLockTTL},
		{"BookingLockWait", cfg.BookingLockWait},
		{"OTPResendAfter", cfg.OTPResendAfter},
		{"SMSGatewayTimeout", cfg.SMSGatewayTimeout},
	}
	for _, p := range positive {
		if p.value <= 0 {
			errors = append(errors, fmt.Sprintf("%s must be positive, got: %s", p.name, p.value))
		}
	}

	// A lock must outlive the request working under it.
	if cfg.BookingLockTTL > 0 && cfg.BookingLockTTL <= cfg.RequestTimeout {
		errors = append(errors, fmt.Sprintf("BookingLockTTL must be longer than RequestTimeout, got: %s <= %s", cfg.BookingLockTTL, cfg.RequestTimeout))
	}

	if cfg.RateLimitRequests <= 0 {
		errors = append(errors, fmt.Sprintf("RateLimitRequests must be positive, got: %d", cfg.RateLimitRequests))
	}
	if cfg.MaxRequestSize <= 0 {
		errors = append(errors, fmt.Sprintf("MaxRequestSize must be positive, got: %d", cfg.MaxRequestSize))
	}

	if len(errors) > 0 {
		errMsg := "Configuration validation failed:\n"
		for i, err := range errors {
			errMsg += fmt.Sprintf("  %d. %s\n", i+1, err)
		}
		return fmt.Errorf("%s", errMsg)
	}

	return nil
}

func (cfg *Config) LogConfiguration() {
	cfg.Log.Info("Configuration loaded successfully",
		"mongo_uri", redactMongoURI(cfg.MongoURI),
		"mongo_database", cfg.MongoDatabaseName,
		"mongo_conn_timeout", cfg.MongoConnTimeout,
		"redis_addr", cfg.RedisAddr,
		"redis_password_set", cfg.RedisPassword != "",
		"redis_db", cfg.RedisDB,
		"port", cfg.Port,
		"rate_limit_requests", cfg.RateLimitRequests,
		"rate_limit_window", cfg.RateLimitWindow,
		"request_timeout", cfg.RequestTimeout,
		"idempotency_ttl", cfg.IdempotencyTTL,
		"max_request_size", cfg.MaxRequestSize,
		"read_timeout", cfg.ReadTimeout,
		"write_timeout", cfg.WriteTimeout,
		"idle_timeout", cfg.IdleTimeout,
		"shutdown_timeout", cfg.ShutdownTimeout,
		"jwt_secret_set", cfg.JWTSecret != "",
		"jwt_issuer", cfg.JWTIssuer,
		"jwt_ttl", cfg.JWTTTL,
		"booking_lock_ttl", cfg.BookingLockTTL,
		"booking_lock_wait", cfg.BookingLockWait,
		"otp_resend_after", cfg.OTPResendAfter,
		"sms_gateway_url", cfg.SMSGatewayURL,
		"sms_gateway_token_set", cfg.SMSGatewayToken != "",
		"booking_events_topic", cfg.BookingEventsTopic,
		"booking_events_dlq_topic", cfg.BookingEventsDLQTopic,
		"notifier_group_id", cfg.NotifierGroupID,
		"default_phone_region", cfg.DefaultPhoneRegion,
	)
}

func redactMongoURI(uri string) string {
	credentialRegex := regexp.MustCompile(`(mongodb(\+srv)?://)[^:]+:[^@]+@`)
	return credentialRegex.ReplaceAllString(uri, "${1}***:***@")
}

func getEnvStr(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvNum(key string, fallback int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return fallback
}

func (cfg *Config) GracefulShutdown() {
	cfg.Client.GracefulShutdown(cfg.Log)
}

func NormalizePaginationLimit(limit int) int {
	if limit <= 0 {
		limit = DefaultPageSize
	} else if limit > DefaultPaginationLimit {
		limit = DefaultPaginationLimit
	}
	return limit
}

func NormalizeOffset(offset int64) int64 {
	return max(0, offset)
}
