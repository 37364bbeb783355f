package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// ErrMissingAPIKey is returned by Validate when no provider credential is configured.
var ErrMissingAPIKey = fmt.Errorf("ASSEMBLYAI_API_KEY is required")

type Config struct {
	Env            string
	ServiceName    string
	ServiceVersion string

	AssemblyAIKey     string
	AssemblyAIBaseURL string

	OtelExporterOTLPEndpoint string
	OtelExporterOTLPHeaders  string
	SentryDSN                string

	Port string
	// ShutdownTimeout is how long in-flight requests get to finish once the
	// server is asked to stop.
	ShutdownTimeout time.Duration

	Transcription TranscriptionConfig
}

type TranscriptionConfig struct {
	LanguageCode          string        `yaml:"language_code"`
	SpeakerLabels         *bool         `yaml:"speaker_labels"`
	PollInterval          time.Duration `yaml:"poll_interval"`
	MaxPollInterval       time.Duration `yaml:"max_poll_interval"`
	PollBackoffMultiplier float64       `yaml:"poll_backoff_multiplier"`
	// MaxWait caps the whole poll loop. A negative value disables the cap.
	MaxWait           time.Duration `yaml:"max_wait"`
	MaxConcurrentJobs int           `yaml:"max_concurrent_jobs"`
	MaxUploadBytes    int64         `yaml:"max_upload_bytes"`
	RequestTimeout    time.Duration `yaml:"request_timeout"`
}

const (
	DefaultBaseURL         = "https://api.assemblyai.com/v2"
	DefaultLanguageCode    = "fr"
	DefaultPollInterval    = 3 * time.Second
	DefaultMaxPollInterval = 30 * time.Second
	DefaultMaxWait         = 15 * time.Minute
	DefaultMaxUploadBytes  = 100 << 20
	DefaultRequestTimeout  = 3 * time.Minute
	DefaultShutdownTimeout = 30 * time.Second
)

func Load() (*Config, error) {
	cfg := &Config{
		Env:                      os.Getenv("ENV"),
		ServiceName:              os.Getenv("SERVICE_NAME"),
		ServiceVersion:           os.Getenv("SERVICE_VERSION"),
		AssemblyAIKey:            os.Getenv("ASSEMBLYAI_API_KEY"),
		AssemblyAIBaseURL:        os.Getenv("ASSEMBLYAI_BASE_URL"),
		OtelExporterOTLPEndpoint: os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT"),
		OtelExporterOTLPHeaders:  os.Getenv("OTEL_EXPORTER_OTLP_HEADERS"),
		SentryDSN:                os.Getenv("SENTRY_DSN"),
		Port:                     os.Getenv("PORT"),
	}

	if v := os.Getenv("SHUTDOWN_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return nil, fmt.Errorf("invalid SHUTDOWN_TIMEOUT: %w", err)
		}
		cfg.ShutdownTimeout = d
	}

	if err := cfg.loadTranscriptionEnv(); err != nil {
		return nil, err
	}

	// Load from YAML file if available
	path := os.Getenv("CONFIG_FILE")
	if path == "" {
		path = "config.yaml"
	}
	if err := cfg.LoadFromYAML(path); err != nil {
		return nil, fmt.Errorf("failed to load YAML config: %w", err)
	}

	// Set defaults
	if cfg.Env == "" {
		cfg.Env = "development"
	}
	if cfg.ServiceName == "" {
		cfg.ServiceName = "murmur"
	}
	if cfg.ServiceVersion == "" {
		cfg.ServiceVersion = "1.0.0"
	}
	if cfg.Port == "" {
		cfg.Port = "8080"
	}
	if cfg.AssemblyAIBaseURL == "" {
		cfg.AssemblyAIBaseURL = DefaultBaseURL
	}
	if cfg.ShutdownTimeout <= 0 {
		cfg.ShutdownTimeout = DefaultShutdownTimeout
	}

	cfg.SetTranscriptionDefaults()

	if err := cfg.Transcription.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate reports configuration problems that make the service unable to
// transcribe. It is kept separate from Load so the server can still start and
// answer requests with a configuration error.
func (c *Config) Validate() error {
	if c.AssemblyAIKey == "" {
		return ErrMissingAPIKey
	}
	return nil
}

func (c *Config) LoadFromYAML(path string) error {
	if path == "" {
		return nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil // File not found is not an error
		}
		return fmt.Errorf("failed to read config file: %w", err)
	}

	var yamlConfig struct {
		Transcription TranscriptionConfig `yaml:"transcription"`
	}

	if err := yaml.Unmarshal(data, &yamlConfig); err != nil {
		return fmt.Errorf("failed to parse config file: %w", err)
	}

	t := yamlConfig.Transcription
	if t.LanguageCode != "" {
		c.Transcription.LanguageCode = t.LanguageCode
	}
	if t.SpeakerLabels != nil {
		c.Transcription.SpeakerLabels = t.SpeakerLabels
	}
	if t.PollInterval > 0 {
		c.Transcription.PollInterval = t.PollInterval
	}
	if t.MaxPollInterval > 0 {
		c.Transcription.MaxPollInterval = t.MaxPollInterval
	}
	if t.PollBackoffMultiplier > 0 {
		c.Transcription.PollBackoffMultiplier = t.PollBackoffMultiplier
	}
	if t.MaxWait != 0 {
		c.Transcription.MaxWait = t.MaxWait
	}
	if t.MaxConcurrentJobs > 0 {
		c.Transcription.MaxConcurrentJobs = t.MaxConcurrentJobs
	}
	if t.MaxUploadBytes > 0 {
		c.Transcription.MaxUploadBytes = t.MaxUploadBytes
	}
	if t.RequestTimeout > 0 {
		c.Transcription.RequestTimeout = t.RequestTimeout
	}

	return nil
}

func (c *Config) loadTranscriptionEnv() error {
	if v := os.Getenv("TRANSCRIPTION_LANGUAGE"); v != "" {
		c.Transcription.LanguageCode = v
	}

	durations := map[string]*time.Duration{
		"TRANSCRIPTION_POLL_INTERVAL":     &c.Transcription.PollInterval,
		"TRANSCRIPTION_MAX_POLL_INTERVAL": &c.Transcription.MaxPollInterval,
		"TRANSCRIPTION_MAX_WAIT":          &c.Transcription.MaxWait,
		"TRANSCRIPTION_REQUEST_TIMEOUT":   &c.Transcription.RequestTimeout,
	}
	for key, dst := range durations {
		v := os.Getenv(key)
		if v == "" {
			continue
		}
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("invalid %s: %w", key, err)
		}
		*dst = d
	}

	if v := os.Getenv("TRANSCRIPTION_MAX_CONCURRENT_JOBS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid TRANSCRIPTION_MAX_CONCURRENT_JOBS: %w", err)
		}
		c.Transcription.MaxConcurrentJobs = n
	}
	if v := os.Getenv("TRANSCRIPTION_MAX_UPLOAD_BYTES"); v != "" {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return fmt.Errorf("invalid TRANSCRIPTION_MAX_UPLOAD_BYTES: %w", err)
		}
		c.Transcription.MaxUploadBytes = n
	}
	return nil
}

func (c *Config) SetTranscriptionDefaults() {
	if c.Transcription.LanguageCode == "" {
		c.Transcription.LanguageCode = DefaultLanguageCode
	}
	if c.Transcription.SpeakerLabels == nil {
		enabled := true
		c.Transcription.SpeakerLabels = &enabled
	}
	if c.Transcription.PollInterval == 0 {
		c.Transcription.PollInterval = DefaultPollInterval
	}
	if c.Transcription.PollBackoffMultiplier == 0 {
		c.Transcription.PollBackoffMultiplier = 1
	}
	if c.Transcription.MaxPollInterval == 0 {
		c.Transcription.MaxPollInterval = c.Transcription.PollInterval
		if c.Transcription.PollBackoffMultiplier > 1 {
			c.Transcription.MaxPollInterval = DefaultMaxPollInterval
		}
	}
	if c.Transcription.MaxWait == 0 {
		c.Transcription.MaxWait = DefaultMaxWait
	}
	if c.Transcription.MaxUploadBytes == 0 {
		c.Transcription.MaxUploadBytes = DefaultMaxUploadBytes
	}
	if c.Transcription.RequestTimeout == 0 {
		c.Transcription.RequestTimeout = DefaultRequestTimeout
	}
}

func (t TranscriptionConfig) validate() error {
	if t.PollInterval < 0 {
		return fmt.Errorf("transcription poll_interval must be positive")
	}
	if t.PollBackoffMultiplier < 1 {
		return fmt.Errorf("transcription poll_backoff_multiplier must be >= 1, got %v", t.PollBackoffMultiplier)
	}
	if t.MaxPollInterval < t.PollInterval {
		return fmt.Errorf("transcription max_poll_interval (%s) is below poll_interval (%s)", t.MaxPollInterval, t.PollInterval)
	}
	if t.MaxConcurrentJobs < 0 {
		return fmt.Errorf("transcription max_concurrent_jobs must not be negative")
	}
	return nil
}
