package main

import (
	"fmt"
	"os"
	"strings"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/yaml.v3"
)

// Config is the process configuration loaded from the YAML config file
type Config struct {
	Server     ServerConfig     `yaml:"server"`
	Device     DeviceConfig     `yaml:"device"`
	SmartBand  SmartBandConfig  `yaml:"smart_band"`
	Predictor  PredictorConfig  `yaml:"predictor"`
	Reporter   ReporterConfig   `yaml:"reporter"`
	Extraction ExtractionConfig `yaml:"extraction"`
	Log        LogConfig        `yaml:"log"`
}

// ServerConfig holds the REST façade settings
type ServerConfig struct {
	Addr               string `yaml:"addr"`
	MiddlewareAuth     bool   `yaml:"middleware_auth"`
	AuthKey            string `yaml:"auth_key"`
	CORSAllowedOrigins string `yaml:"cors_allowed_origins"`
	CORSMaxAge         int    `yaml:"cors_max_age"`
	RateLimitRequests  int    `yaml:"rate_limit_requests"`
	RateLimitWindowSec int    `yaml:"rate_limit_window_secs"`
}

// DeviceConfig holds the gateway session settings
type DeviceConfig struct {
	Host            string   `yaml:"host"`
	Protocol        string   `yaml:"protocol"` // telnet | ssh
	TelnetPort      int      `yaml:"telnet_port"`
	SSHPort         int      `yaml:"ssh_port"`
	Login           string   `yaml:"login"`
	Password        string   `yaml:"password"`
	TimeoutSecs     float64  `yaml:"timeout_secs"`
	SSHKnownHosts   string   `yaml:"ssh_known_hosts"`
	CommandsFile    string   `yaml:"commands_file"`
	SubShellMarkers []string `yaml:"subshell_markers"`
}

// SmartBandConfig holds the control loop settings
type SmartBandConfig struct {
	PollingPeriodSecs     float64 `yaml:"polling_period_secs"`
	SamplesWindowLen      int     `yaml:"samples_window_len"`
	RTTHistoryLen         int     `yaml:"rtt_history_len"`
	MinPredictedRTT       float64 `yaml:"min_predicted_rtt_ms"`
	MaxLastSeenSecs       float64 `yaml:"max_last_seen_secs"`
	RTTThresholdFor5GHzOn float64 `yaml:"rtt_threshold_for_5ghz_on"`
	ServiceActive         *bool   `yaml:"service_active"`
	BandPolicyEnabled     bool    `yaml:"band_policy_enabled"`
	EnableAllBandsOnStart bool    `yaml:"enable_all_bands_on_start"`
}

// PredictorConfig points at the RTT scoring model file
type PredictorConfig struct {
	ModelFile string `yaml:"model_file"`
}

// ReporterConfig holds every cloud reporter sink
type ReporterConfig struct {
	HTTP HTTPReporterConfig `yaml:"http"`
	NATS NATSReporterConfig `yaml:"nats"`
	MQTT MQTTReporterConfig `yaml:"mqtt"`
}

// HTTPReporterConfig is the form-encoded POST collector
type HTTPReporterConfig struct {
	Enabled           bool    `yaml:"enabled"`
	IP                string  `yaml:"ip"`
	Port              int     `yaml:"port"`
	PredictionsPath   string  `yaml:"predictions_path"`
	ServiceStatusPath string  `yaml:"service_status_path"`
	TimeoutSecs       float64 `yaml:"timeout_secs"`
}

// NATSReporterConfig publishes reports on NATS subjects
type NATSReporterConfig struct {
	Enabled            bool   `yaml:"enabled"`
	URL                string `yaml:"url"`
	Username           string `yaml:"username"`
	Password           string `yaml:"password"`
	PredictionsSubject string `yaml:"predictions_subject"`
	StatusSubject      string `yaml:"status_subject"`
}

// MQTTReporterConfig publishes reports on MQTT topics
type MQTTReporterConfig struct {
	Enabled          bool   `yaml:"enabled"`
	BrokerURL        string `yaml:"broker_url"`
	ClientID         string `yaml:"client_id"`
	Username         string `yaml:"username"`
	Password         string `yaml:"password"`
	PredictionsTopic string `yaml:"predictions_topic"`
	StatusTopic      string `yaml:"status_topic"`
	QoS              byte   `yaml:"qos"`
}

// ExtractionConfig overrides the counter extraction rules
type ExtractionConfig struct {
	BandFields        map[string]string `yaml:"band_fields"`
	StationFields     map[string]string `yaml:"station_fields"`
	StationDelimiters map[string]string `yaml:"station_delimiters"`
}

// LogConfig selects the zap level and encoder
type LogConfig struct {
	Level       string `yaml:"level"`
	Development bool   `yaml:"development"`
}

// getEnv retrieves environment variable value with fallback to default if not set
func getEnv(key, defaultValue string) string {
	// Check if environment variable exists
	if value, exists := os.LookupEnv(key); exists {
		return value // Return environment variable value
	}
	return defaultValue // Return default value if environment variable not set
}

// loadConfig reads the YAML config file, applies defaults and environment overrides
func loadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: read %s: %v", ErrConfig, path, err)
	}
	cfg := &Config{}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("%w: parse %s: %v", ErrConfig, path, err)
	}
	cfg.applyEnv()
	cfg.applyDefaults()
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyEnv overrides secrets and deployment specific values from the environment
func (c *Config) applyEnv() {
	c.Server.Addr = getEnv(EnvServerAddr, c.Server.Addr)
	c.Server.AuthKey = getEnv(EnvAuthKey, c.Server.AuthKey)
	if v, ok := os.LookupEnv(EnvMiddlewareAuth); ok {
		c.Server.MiddlewareAuth = v == "true"
	}
	c.Server.CORSAllowedOrigins = getEnv(EnvCORSAllowedOrigins, c.Server.CORSAllowedOrigins)
	c.Device.Host = getEnv(EnvDeviceHost, c.Device.Host)
	c.Device.Password = getEnv(EnvDevicePassword, c.Device.Password)
	c.Log.Level = getEnv(EnvLogLevel, c.Log.Level)
}

// applyDefaults fills every omitted field with its documented default
func (c *Config) applyDefaults() {
	if c.Server.Addr == "" {
		c.Server.Addr = DefaultServerAddr
	}
	if c.Server.CORSAllowedOrigins == "" {
		c.Server.CORSAllowedOrigins = DefaultCORSAllowedOrigins
	}
	if c.Server.CORSMaxAge <= 0 {
		c.Server.CORSMaxAge = DefaultCORSMaxAge
	}
	if c.Server.RateLimitRequests <= 0 {
		c.Server.RateLimitRequests = DefaultRateLimitRequests
	}
	if c.Server.RateLimitWindowSec <= 0 {
		c.Server.RateLimitWindowSec = DefaultRateLimitWindow
	}

	if c.Device.Protocol == "" {
		c.Device.Protocol = ProtocolTelnet
	}
	c.Device.Protocol = strings.ToLower(c.Device.Protocol)
	if c.Device.TelnetPort == 0 {
		c.Device.TelnetPort = DefaultTelnetPort
	}
	if c.Device.SSHPort == 0 {
		c.Device.SSHPort = DefaultSSHPort
	}
	if c.Device.TimeoutSecs <= 0 {
		c.Device.TimeoutSecs = DefaultDeviceTimeout.Seconds()
	}
	if len(c.Device.SubShellMarkers) == 0 {
		c.Device.SubShellMarkers = []string{DefaultSubShellMarker}
	}

	sb := &c.SmartBand
	if sb.PollingPeriodSecs <= 0 {
		sb.PollingPeriodSecs = DefaultPollingSeconds
	}
	if sb.SamplesWindowLen <= 0 {
		sb.SamplesWindowLen = DefaultSamplesWindow
	}
	if sb.RTTHistoryLen <= 0 {
		sb.RTTHistoryLen = DefaultRTTHistoryLen
	}
	if sb.MinPredictedRTT <= 0 {
		sb.MinPredictedRTT = DefaultMinRTT
	}
	if sb.MaxLastSeenSecs <= 0 {
		sb.MaxLastSeenSecs = DefaultMaxLastSeen
	}
	if sb.RTTThresholdFor5GHzOn <= 0 {
		sb.RTTThresholdFor5GHzOn = DefaultRTTThreshold
	}
	if sb.ServiceActive == nil {
		active := true
		sb.ServiceActive = &active
	}

	if c.Reporter.HTTP.TimeoutSecs <= 0 {
		c.Reporter.HTTP.TimeoutSecs = DefaultReporterTimeout.Seconds()
	}
	if c.Reporter.NATS.PredictionsSubject == "" {
		c.Reporter.NATS.PredictionsSubject = "smartband.rtt_predictions"
	}
	if c.Reporter.NATS.StatusSubject == "" {
		c.Reporter.NATS.StatusSubject = "smartband.service_status"
	}
	if c.Reporter.MQTT.ClientID == "" {
		c.Reporter.MQTT.ClientID = "smartband-relay"
	}
	if c.Reporter.MQTT.PredictionsTopic == "" {
		c.Reporter.MQTT.PredictionsTopic = "smartband/rtt_predictions"
	}
	if c.Reporter.MQTT.StatusTopic == "" {
		c.Reporter.MQTT.StatusTopic = "smartband/service_status"
	}

	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
}

// validate rejects configurations the service cannot start with
func (c *Config) validate() error {
	if c.Device.Host == "" {
		return fmt.Errorf("%w: device.host is required", ErrConfig)
	}
	if c.Device.Login == "" {
		return fmt.Errorf("%w: device.login is required", ErrConfig)
	}
	if c.Device.Protocol != ProtocolTelnet && c.Device.Protocol != ProtocolSSH {
		return fmt.Errorf("%w: device.protocol must be %s or %s, got %q",
			ErrConfig, ProtocolTelnet, ProtocolSSH, c.Device.Protocol)
	}
	if c.Device.CommandsFile == "" {
		return fmt.Errorf("%w: device.commands_file is required", ErrConfig)
	}
	if c.Predictor.ModelFile == "" {
		return fmt.Errorf("%w: predictor.model_file is required", ErrConfig)
	}
	if c.Server.MiddlewareAuth && c.Server.AuthKey == "" {
		return fmt.Errorf("%w: middleware auth is enabled but %s is not set", ErrConfig, EnvAuthKey)
	}
	if c.Reporter.HTTP.Enabled && c.Reporter.HTTP.IP == "" {
		return fmt.Errorf("%w: reporter.http.ip is required when the http reporter is enabled", ErrConfig)
	}
	if c.Reporter.NATS.Enabled && c.Reporter.NATS.URL == "" {
		return fmt.Errorf("%w: reporter.nats.url is required when the nats reporter is enabled", ErrConfig)
	}
	if c.Reporter.MQTT.Enabled && c.Reporter.MQTT.BrokerURL == "" {
		return fmt.Errorf("%w: reporter.mqtt.broker_url is required when the mqtt reporter is enabled", ErrConfig)
	}
	return nil
}

// secondsToDuration converts a fractional seconds setting to a time.Duration
func secondsToDuration(secs float64) time.Duration {
	return time.Duration(secs * float64(time.Second))
}

// initLoggerWrapper handles logger initialization and returns error
func initLoggerWrapper(cfg LogConfig) error {
	l, err := initLogger(cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	logger = l
	return nil
}

// Function to initialize logger (package-level variable for testing)
var initLogger = func(cfg LogConfig) (*zap.Logger, error) {
	zapCfg := zap.NewProductionConfig() // Use production configuration for logger
	if cfg.Development {
		zapCfg = zap.NewDevelopmentConfig()
	}
	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		level = zapcore.InfoLevel
	}
	zapCfg.Level = zap.NewAtomicLevelAt(level)
	return zapCfg.Build()
}
