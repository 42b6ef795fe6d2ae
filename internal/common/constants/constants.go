package constants

import "time"

const (
	TweetMaxLength     = 280
	JWTSecretMinLength = 32
	BcryptCost         = 12

	DefaultMaxRequestSize = 1 << 20

	DBPoolMaxConns        = 25
	DBPoolMinConns        = 5
	DBPoolConnMaxLifetime = time.Hour
	DBPoolConnMaxIdleTime = 30 * time.Minute
	DBPoolHealthCheck     = time.Minute
	DBPoolConnectTimeout  = 5 * time.Second
	DBPoolMaxAttempts     = 10
	DBPoolRetryDelay      = time.Second

	ServerReadHeaderTimeout = 10 * time.Second
	ServerReadTimeout       = 30 * time.Second
	ServerWriteTimeout      = 30 * time.Second
	ServerIdleTimeout       = 120 * time.Second

	ShutdownTimeout = 30 * time.Second

	DefaultHTTPPort       = "8080"
	DefaultTokenTTL       = 24 * time.Hour
	DefaultRequestTimeout = 5 * time.Second

	StreamWriteWait    = 10 * time.Second
	StreamPongWait     = 60 * time.Second
	StreamPingPeriod   = 54 * time.Second
	StreamSendBufSize  = 64
	StreamReadBufSize  = 1024
	StreamWriteBufSize = 1024

	LoggerMaxSize    = 100
	LoggerMaxBackups = 3
	LoggerMaxAge     = 28
)
