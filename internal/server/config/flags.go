package config

import (
	"flag"
	"time"

	"github.com/dmitrijs2005/teamboard/internal/flagx"
)

// parseFlags populates selected server Config fields from command-line flags.
//
// Supported flags (short forms):
//
//	-a string   HTTP bind address (e.g., ":8080")
//	-m string   gRPC health bind address (e.g., ":50051")
//	-d string   PostgreSQL DSN
//	-s string   JWT HMAC secret key
//	-t int      access token validity, minutes
//	-r int      refresh token validity, minutes
//	-i int      scan interval, seconds
//	-w string   push webhook URL
//	-x string   dedup backend ("memory" or "s3")
//	-l string   log backend ("slog" or "zerolog")
//	-v string   log level ("debug", "info", "warn", "error")
//	-u string   S3 root user
//	-p string   S3 root password
//	-b string   S3 bucket name
//	-g string   S3 region
//	-e string   S3 base endpoint (e.g., "http://127.0.0.1:9000/")
//
// Only the flags above are parsed; everything else in os.Args is ignored.
func parseFlags(config *Config) {
	filtered := flagx.FilterArgs(args(), []string{"-a", "-m", "-d", "-s", "-t", "-r", "-i", "-w", "-x", "-l", "-v", "-u", "-p", "-b", "-g", "-e"})

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&config.EndpointAddrHTTP, "a", config.EndpointAddrHTTP, "address and port to run HTTP server")
	fs.StringVar(&config.EndpointAddrGRPC, "m", config.EndpointAddrGRPC, "address and port to run gRPC health server")
	fs.StringVar(&config.DatabaseDSN, "d", config.DatabaseDSN, "database DSN")
	fs.StringVar(&config.SecretKey, "s", config.SecretKey, "secret key")

	accessTokenValidityDuration := fs.Int("t", int(config.AccessTokenValidityDuration.Minutes()), "access_token_validity_duration (in minutes)")
	refreshTokenValidityDuration := fs.Int("r", int(config.RefreshTokenValidityDuration.Minutes()), "refresh_token_validity_duration (in minutes)")
	scanInterval := fs.Int("i", int(config.ScanInterval.Seconds()), "scan_interval (in seconds)")

	fs.StringVar(&config.PushWebhookURL, "w", config.PushWebhookURL, "push webhook URL")
	fs.StringVar(&config.DedupBackend, "x", config.DedupBackend, "dedup backend (memory|s3)")
	fs.StringVar(&config.LogBackend, "l", config.LogBackend, "log backend (slog|zerolog)")
	fs.StringVar(&config.LogLevel, "v", config.LogLevel, "log level (debug|info|warn|error)")
	fs.StringVar(&config.S3RootUser, "u", config.S3RootUser, "S3 root user")
	fs.StringVar(&config.S3RootPassword, "p", config.S3RootPassword, "S3 root password")
	fs.StringVar(&config.S3Bucket, "b", config.S3Bucket, "S3 root bucket")
	fs.StringVar(&config.S3Region, "g", config.S3Region, "S3 root region")
	fs.StringVar(&config.S3BaseEndpoint, "e", config.S3BaseEndpoint, "S3 base endpoint")

	if err := fs.Parse(filtered); err != nil {
		panic(err)
	}

	config.AccessTokenValidityDuration = time.Duration(*accessTokenValidityDuration) * time.Minute
	config.RefreshTokenValidityDuration = time.Duration(*refreshTokenValidityDuration) * time.Minute
	config.ScanInterval = time.Duration(*scanInterval) * time.Second
}
