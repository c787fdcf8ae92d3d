// Package constants provides shared constants for the nimora application.
package constants

// Attendance constants
const (
	// DefaultTargetPercentage is the maintenance percentage used when none is given
	DefaultTargetPercentage = 75.0

	// LoginTargetPercentage is the percentage the login summary is computed at
	LoginTargetPercentage = 70.0

	// MinTargetPercentage is the lowest target the UI and API accept by default
	MinTargetPercentage = 50.0

	// MaxTargetPercentage is the highest target the UI and API accept by default
	MaxTargetPercentage = 100.0

	// PercentageMultiplier is used for percentage conversions
	PercentageMultiplier = 100.0
)

// ExamDateLayout is the day-month-year layout the portal uses for exam dates.
const ExamDateLayout = "02-01-06"

// Output format constants
const (
	// OutputFormatPretty is the human-readable output format
	OutputFormatPretty = "pretty"

	// OutputFormatCSV is the CSV output format
	OutputFormatCSV = "csv"
)

// Configuration file constants
const (
	// DefaultConfigFile is the default configuration file name
	DefaultConfigFile = "config.yaml"

	// DefaultServerConfigFile is the default server configuration file name
	DefaultServerConfigFile = "server-config.yaml"

	// EnvPrefix prefixes environment variable overrides, e.g. NIMORA_BACKEND_URL
	EnvPrefix = "NIMORA"
)

// Backend defaults
const (
	// DefaultBackendURL is where the portal scraping service listens in development
	DefaultBackendURL = "http://localhost:8000"

	// DefaultBackendTimeoutSeconds bounds each call to the portal service
	DefaultBackendTimeoutSeconds = 30

	// DefaultPayloadSalt is appended before the second base64 pass of request payloads
	DefaultPayloadSalt = "nimora_secure_payload_2025"
)

// Server configuration defaults
const (
	// DefaultServerAddress is the default HTTP listen address
	DefaultServerAddress = ":8080"

	// DefaultMaxRequestSizeBytes is the default maximum JSON request body (256 KB)
	DefaultMaxRequestSizeBytes int64 = 256 * 1024
)
