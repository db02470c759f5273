package main

import "time"

// Frequency bands
const (
	Band2_4GHz = "2.4GHz"
	Band5GHz   = "5GHz"
	Band6GHz   = "6GHz"
)

// allBands lists every band the device exposes, in command-table order.
var allBands = []string{Band2_4GHz, Band5GHz, Band6GHz}

// trackedBands lists the bands whose stations and counters are sampled.
// 6GHz is intentionally left out of per-station tracking.
var trackedBands = []string{Band2_4GHz, Band5GHz}

// Command table key paths
const (
	CmdKeyWifi        = "WIFI"
	CmdKeyStatus      = "status"
	CmdKeyBands       = "bands"
	CmdKeyStations    = "stations"
	CmdKeyCounters    = "counters"
	CmdKeyStationInfo = "station_info"

	// StationPlaceholder is replaced by the station MAC in command templates
	StationPlaceholder = "STATION"
	// DefaultSubShellMarker switches the rest of a command sequence to fire-and-forget mode
	DefaultSubShellMarker = "pcb_cli"
	// StatusUpToken marks an enabled interface in status command output
	StatusUpToken = "up"
	// ElevationTrigger marks commands that need a privileged shell
	ElevationTrigger = "sudo "
	// ElevationCommand is written to obtain a privileged shell
	ElevationCommand = "sudo su"
	// DefaultStationDelimiter separates station records in association list output
	DefaultStationDelimiter = "assoclist"
)

// Telnet framing
const (
	SentinelStartQuoted = "'EE''EE '"
	SentinelEndQuoted   = "'FF''FF'"
	SentinelStart       = "EEEE"
	SentinelEnd         = "FFFF"
	// FramingTrailerLen is the line ending the device appends before the end sentinel
	FramingTrailerLen    = 2
	LoginPrompt          = "login: "
	PasswordPrompt       = "Password: "
	ExitCommand          = "exit"
	FramedReadTimeout    = 3 * time.Second
	NoWaitCommandDelay   = 100 * time.Millisecond
	DefaultTelnetPort    = 23
	DefaultSSHPort       = 22
	ProtocolTelnet       = "telnet"
	ProtocolSSH          = "ssh"
	DefaultDeviceTimeout = 5 * time.Second
)

// Band/status convergence poll
const (
	StatusPollInterval  = 200 * time.Millisecond
	StatusChangeTimeout = 15 * time.Second
	StatusCacheTimeout  = 2 * time.Second
)

// Counter arithmetic
const (
	// CounterModulus is the wrap point of the device's 32-bit cyclic counters
	CounterModulus = int64(1) << 32
	BitsPerByte    = 8
	BitsPerMegabit = 1e6
)

// Prediction policy thresholds
const (
	LowTrafficMbps        = 0.02
	HighTrafficMbps       = 40.0
	HighRateHeuristicRTT  = 180.0
	DefaultSamplesWindow  = 7
	DefaultRTTHistoryLen  = 10
	DefaultMinRTT         = 5.0
	DefaultMaxLastSeen    = 10
	DefaultRTTThreshold   = 50.0
	DefaultPollingSeconds = 1
)

// HTTP and server configuration
const (
	DefaultServerAddr         = ":8080"
	DefaultConfigFile         = "config/server-config.yml"
	DefaultShutdownTimeout    = 30 * time.Second
	DefaultRequestTimeout     = 60 * time.Second
	DefaultReporterTimeout    = 5 * time.Second
	DefaultRateLimitRequests  = 100
	DefaultRateLimitWindow    = 60
	DefaultCORSAllowedOrigins = "*"
	DefaultCORSMaxAge         = 86400
	MaxRateLimiterEntries     = 10000
	HeaderAPIKey              = "X-API-Key"
)

// Brute force protection
const (
	MaxFailedAuthAttempts = 5
	AuthAttemptWindow     = 5 * time.Minute
	AuthLockoutDuration   = 15 * time.Minute
)

// Audit event types
const (
	AuditEventAuthSuccess   = "auth_success"
	AuditEventAuthFailure   = "auth_failure"
	AuditEventAuthBlocked   = "auth_blocked"
	AuditEventCacheClear    = "cache_clear"
	AuditEventStatusChange  = "wifi_status_change"
	AuditEventServiceToggle = "smart_band_toggle"
)

// Environment variable names
const (
	EnvConfigFile         = "CONFIG_FILE"
	EnvServerAddr         = "SERVER_ADDR"
	EnvAuthKey            = "AUTH_KEY"
	EnvMiddlewareAuth     = "MIDDLEWARE_AUTH"
	EnvDeviceHost         = "DEVICE_HOST"
	EnvDevicePassword     = "DEVICE_PASSWORD"
	EnvLogLevel           = "LOG_LEVEL"
	EnvCORSAllowedOrigins = "CORS_ALLOWED_ORIGINS"
)

// Query parameters
const (
	QueryStatus = "status"
)

// HTTP response messages
const (
	StatusOK            = "OK"
	StatusBadRequest    = "Bad Request"
	StatusUnauthorized  = "Unauthorized"
	StatusTooMany       = "Too Many Requests"
	StatusInternalError = "Internal Server Error"
)

// Error messages returned to API clients
const (
	ErrMsgInvalidStatus   = "status query parameter must be true or false"
	ErrMsgUnknownBand     = "Wifi band doesnt exist: %s"
	ErrMsgDeviceError     = "Error in device connection"
	ErrMsgCommandNotFound = "Device command not found, check config"
	ErrMsgStatusTimeout   = "WiFi status change timer"
	ErrMsgUnexpected      = "Unexpected error occurs"
	ErrMsgInvalidAPIKey   = "Invalid API Key"
	ErrMsgMissingAPIKey   = "Missing API Key"
	ErrMsgRateLimited     = "Rate limit exceeded, try again later"
	ErrMsgAuthLocked      = "Too many failed authentication attempts, try again later"
)

// Success messages
const (
	MsgCacheCleared = "Cache cleared"
)

// Reporter payload keys (form-encoded collector contract)
const (
	FormKeyBoxTraffic      = "livebox_traffic"
	FormKeyTraffic5GHz     = "traffic_5GHz"
	FormKeyTraffic2GHz     = "traffic_2GHz"
	FormKeyBand5GHzStatus  = "band_5ghz_status"
	FormKeyStationCounters = "stations_counters"
	FormKeyServiceStatus   = "status"
)
