package config

import (
	"encoding/json"
	"os"
	"time"

	"github.com/dmitrijs2005/teamboard/internal/flagx"
	"github.com/dmitrijs2005/teamboard/internal/timex"
)

// JsonConfig is the on-disk shape of the server configuration file.
// Durations accept both Go duration strings ("90s") and integer nanoseconds.
type JsonConfig struct {
	EndpointAddrHTTP             string         `json:"endpoint_addr_http"`
	EndpointAddrGRPC             string         `json:"endpoint_addr_grpc"`
	DatabaseDSN                  string         `json:"database_dsn"`
	SecretKey                    string         `json:"secret_key"`
	AccessTokenValidityDuration  timex.Duration `json:"access_token_validity_duration"`
	RefreshTokenValidityDuration timex.Duration `json:"refresh_token_validity_duration"`
	RequestTimeout               timex.Duration `json:"request_timeout"`
	ScanInterval                 timex.Duration `json:"scan_interval"`
	ScanHorizon                  timex.Duration `json:"scan_horizon"`
	ScanTolerance                timex.Duration `json:"scan_tolerance"`
	TickTimeout                  timex.Duration `json:"tick_timeout"`
	DispatchTimeout              timex.Duration `json:"dispatch_timeout"`
	DispatchWorkers              int            `json:"dispatch_workers"`
	RetryFailedDeliveries        *bool          `json:"retry_failed_deliveries"`
	PushWebhookURL               string         `json:"push_webhook_url"`
	DedupBackend                 string         `json:"dedup_backend"`
	S3RootUser                   string         `json:"s3_root_user"`
	S3RootPassword               string         `json:"s3_root_password"`
	S3Bucket                     string         `json:"s3_bucket"`
	S3Region                     string         `json:"s3_region"`
	S3BaseEndpoint               string         `json:"s3_base_endpoint"`
	TokenCleanupInterval         timex.Duration `json:"token_cleanup_interval"`
	LogBackend                   string         `json:"log_backend"`
	LogLevel                     string         `json:"log_level"`
}

// parseJson loads the file named by -c/-config (if any) and overlays every
// non-empty value onto config. Unreadable or invalid files panic.
func parseJson(config *Config) {
	jsonConfigFile := flagx.ConfigFile(args())

	if jsonConfigFile == "" {
		return
	}

	c := &JsonConfig{}

	file, err := os.ReadFile(jsonConfigFile)
	if err != nil {
		panic(err)
	}

	if err := json.Unmarshal(file, c); err != nil {
		panic(err)
	}

	overlayString(&config.EndpointAddrHTTP, c.EndpointAddrHTTP)
	overlayString(&config.EndpointAddrGRPC, c.EndpointAddrGRPC)
	overlayString(&config.DatabaseDSN, c.DatabaseDSN)
	overlayString(&config.SecretKey, c.SecretKey)
	overlayDuration(&config.AccessTokenValidityDuration, c.AccessTokenValidityDuration)
	overlayDuration(&config.RefreshTokenValidityDuration, c.RefreshTokenValidityDuration)
	overlayDuration(&config.RequestTimeout, c.RequestTimeout)
	overlayDuration(&config.ScanInterval, c.ScanInterval)
	overlayDuration(&config.ScanHorizon, c.ScanHorizon)
	overlayDuration(&config.ScanTolerance, c.ScanTolerance)
	overlayDuration(&config.TickTimeout, c.TickTimeout)
	overlayDuration(&config.DispatchTimeout, c.DispatchTimeout)
	if c.DispatchWorkers > 0 {
		config.DispatchWorkers = c.DispatchWorkers
	}
	if c.RetryFailedDeliveries != nil {
		config.RetryFailedDeliveries = *c.RetryFailedDeliveries
	}
	overlayString(&config.PushWebhookURL, c.PushWebhookURL)
	overlayString(&config.DedupBackend, c.DedupBackend)
	overlayString(&config.S3RootUser, c.S3RootUser)
	overlayString(&config.S3RootPassword, c.S3RootPassword)
	overlayString(&config.S3Bucket, c.S3Bucket)
	overlayString(&config.S3Region, c.S3Region)
	overlayString(&config.S3BaseEndpoint, c.S3BaseEndpoint)
	overlayDuration(&config.TokenCleanupInterval, c.TokenCleanupInterval)
	overlayString(&config.LogBackend, c.LogBackend)
	overlayString(&config.LogLevel, c.LogLevel)
}

func overlayString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

func overlayDuration(dst *time.Duration, v timex.Duration) {
	if v.Duration != 0 {
		*dst = v.Duration
	}
}
