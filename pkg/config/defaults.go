package config

import "time"

const (
	DefaultMongoURI          = "mongodb://localhost:27017"
	DefaultMongoDatabaseName = "rentals"
	DefaultMongoConnTimeout  = 10 * time.Second

	DefaultRedisAddr = "localhost:6379"
	DefaultRedisDB   = 0

	DefaultPort     = "8080"
	DefaultLogLevel = "info"

	DefaultRateLimitRequests = 60
	DefaultRateLimitWindow   = 1 * time.Minute

	DefaultRequestTimeout = 30 * time.Second
	DefaultIdempotencyTTL = 24 * time.Hour
	DefaultMaxRequestSize = 1 * 1024 * 1024 // 1MB

	DefaultReadTimeout     = 15 * time.Second
	DefaultWriteTimeout    = 15 * time.Second
	DefaultIdleTimeout     = 60 * time.Second
	DefaultShutdownTimeout = 30 * time.Second

	DefaultJWTIssuer = "rentals-users"
	DefaultJWTTTL    = 7 * 24 * time.Hour

	DefaultBookingLockTTL  = 45 * time.Second
	DefaultBookingLockWait = 3 * time.Second

	DefaultOTPResendAfter = 1 * time.Minute

	DefaultSMSGatewayTimeout = 10 * time.Second

	DefaultBookingEventsTopic    = "rentals.bookings"
	DefaultBookingEventsDLQTopic = "rentals.bookings.dlq"
	DefaultNotifierGroupID       = "rentals-notifier"

	DefaultPhoneRegion = "IN"

	DefaultPageSize        = 10
	DefaultPaginationLimit = 100
)
