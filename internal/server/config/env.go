package config

import (
	"os"
	"strconv"
	"time"

	"github.com/dmitrijs2005/teamboard/internal/flagx"
	"github.com/joho/godotenv"
)

// EnvPrefix is prepended to every environment variable the server reads.
const EnvPrefix = "TEAMBOARD_"

// parseEnv overlays Config with TEAMBOARD_* environment variables.
//
// A dotenv file is loaded first when present: the path given with -env, or
// ".env" in the working directory. Variables already set in the process
// environment win over the file (godotenv.Load never overrides).
// Malformed numeric or duration values panic, matching parseJson.
func parseEnv(config *Config) {
	envFile := flagx.EnvFile(args())
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil {
			panic(err)
		}
	} else {
		_ = godotenv.Load()
	}

	setString(&config.EndpointAddrHTTP, "HTTP_ADDR")
	setString(&config.EndpointAddrGRPC, "GRPC_ADDR")
	setString(&config.DatabaseDSN, "DATABASE_DSN")
	setString(&config.SecretKey, "SECRET_KEY")
	setDuration(&config.AccessTokenValidityDuration, "ACCESS_TOKEN_TTL")
	setDuration(&config.RefreshTokenValidityDuration, "REFRESH_TOKEN_TTL")
	setDuration(&config.RequestTimeout, "REQUEST_TIMEOUT")
	setDuration(&config.ScanInterval, "SCAN_INTERVAL")
	setDuration(&config.ScanHorizon, "SCAN_HORIZON")
	setDuration(&config.ScanTolerance, "SCAN_TOLERANCE")
	setDuration(&config.TickTimeout, "TICK_TIMEOUT")
	setDuration(&config.DispatchTimeout, "DISPATCH_TIMEOUT")
	setInt(&config.DispatchWorkers, "DISPATCH_WORKERS")
	setBool(&config.RetryFailedDeliveries, "RETRY_FAILED_DELIVERIES")
	setString(&config.PushWebhookURL, "PUSH_WEBHOOK_URL")
	setString(&config.DedupBackend, "DEDUP_BACKEND")
	setString(&config.S3RootUser, "S3_ROOT_USER")
	setString(&config.S3RootPassword, "S3_ROOT_PASSWORD")
	setString(&config.S3Bucket, "S3_BUCKET")
	setString(&config.S3Region, "S3_REGION")
	setString(&config.S3BaseEndpoint, "S3_BASE_ENDPOINT")
	setDuration(&config.TokenCleanupInterval, "TOKEN_CLEANUP_INTERVAL")
	setString(&config.LogBackend, "LOG_BACKEND")
	setString(&config.LogLevel, "LOG_LEVEL")
}

func setString(dst *string, key string) {
	if v, ok := os.LookupEnv(EnvPrefix + key); ok {
		*dst = v
	}
}

func setDuration(dst *time.Duration, key string) {
	if v, ok := os.LookupEnv(EnvPrefix + key); ok {
		d, err := time.ParseDuration(v)
		if err != nil {
			panic(err)
		}
		*dst = d
	}
}

func setInt(dst *int, key string) {
	if v, ok := os.LookupEnv(EnvPrefix + key); ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			panic(err)
		}
		*dst = n
	}
}

func setBool(dst *bool, key string) {
	if v, ok := os.LookupEnv(EnvPrefix + key); ok {
		b, err := strconv.ParseBool(v)
		if err != nil {
			panic(err)
		}
		*dst = b
	}
}
