package config

const (
	EnvMongoURI          = "MONGO_URI"
	EnvMongoDatabaseName = "MONGO_DATABASE_NAME"
	EnvMongoConnTimeout  = "MONGO_CONN_TIMEOUT"

	EnvRedisAddr     = "REDIS_ADDR"
	EnvRedisPassword = "REDIS_PASSWORD"
	EnvRedisDB       = "REDIS_DB"

	EnvPort     = "PORT"
	EnvLogLevel = "LOG_LEVEL"

	EnvRateLimitRequests = "RATE_LIMIT_REQUESTS"
	EnvRateLimitWindow   = "RATE_LIMIT_WINDOW"

	EnvRequestTimeout = "REQUEST_TIMEOUT"
	EnvIdempotencyTTL = "IDEMPOTENCY_TTL"
	EnvMaxRequestSize = "MAX_REQUEST_SIZE"

	EnvReadTimeout     = "READ_TIMEOUT"
	EnvWriteTimeout    = "WRITE_TIMEOUT"
	EnvIdleTimeout     = "IDLE_TIMEOUT"
	EnvShutdownTimeout = "SHUTDOWN_TIMEOUT"

	EnvJWTSecret = "JWT_SECRET"
	EnvJWTIssuer = "JWT_ISSUER"
	EnvJWTTTL    = "JWT_TTL"

	EnvBookingLockTTL  = "BOOKING_LOCK_TTL"
	EnvBookingLockWait = "BOOKING_LOCK_WAIT"

	EnvOTPResendAfter = "OTP_RESEND_AFTER"

	EnvSMSGatewayURL       = "SMS_GATEWAY_URL"
	EnvSMSGatewayAccountID = "SMS_GATEWAY_ACCOUNT_ID"
	EnvSMSGatewayToken     = "SMS_GATEWAY_TOKEN"
	EnvSMSGatewaySender    = "SMS_GATEWAY_SENDER"
	EnvSMSGatewayTimeout   = "SMS_GATEWAY_TIMEOUT"

	EnvBookingEventsTopic    = "BOOKING_EVENTS_TOPIC"
	EnvBookingEventsDLQTopic = "BOOKING_EVENTS_DLQ_TOPIC"
	EnvNotifierGroupID       = "NOTIFIER_GROUP_ID"

	EnvDefaultPhoneRegion = "DEFAULT_PHONE_REGION"
)
