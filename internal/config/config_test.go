package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadTranscriptionConfig(t *testing.T) {
	// Create a temporary config file for testing
	configContent := `transcription:
  language_code: en
  speaker_labels: false
  poll_interval: 1s
  max_poll_interval: 10s
  poll_backoff_multiplier: 2
  max_wait: 5m
  max_concurrent_jobs: 4`

	tempDir := t.TempDir()
	configPath := filepath.Join(tempDir, "test_config.yaml")

	err := os.WriteFile(configPath, []byte(configContent), 0644)
	if err != nil {
		t.Fatalf("Failed to create test config file: %v", err)
	}

	cfg := &Config{}
	err = cfg.LoadFromYAML(configPath)
	if err != nil {
		t.Fatalf("Failed to load YAML config: %v", err)
	}

	if cfg.Transcription.LanguageCode != "en" {
		t.Errorf("Expected language_code to be 'en', got '%s'", cfg.Transcription.LanguageCode)
	}
	if cfg.Transcription.SpeakerLabels == nil || *cfg.Transcription.SpeakerLabels {
		t.Errorf("Expected speaker_labels to be false, got %v", cfg.Transcription.SpeakerLabels)
	}
	if cfg.Transcription.PollInterval != time.Second {
		t.Errorf("Expected poll_interval 1s, got %s", cfg.Transcription.PollInterval)
	}
	if cfg.Transcription.MaxPollInterval != 10*time.Second {
		t.Errorf("Expected max_poll_interval 10s, got %s", cfg.Transcription.MaxPollInterval)
	}
	if cfg.Transcription.PollBackoffMultiplier != 2 {
		t.Errorf("Expected poll_backoff_multiplier 2, got %v", cfg.Transcription.PollBackoffMultiplier)
	}
	if cfg.Transcription.MaxWait != 5*time.Minute {
		t.Errorf("Expected max_wait 5m, got %s", cfg.Transcription.MaxWait)
	}
	if cfg.Transcription.MaxConcurrentJobs != 4 {
		t.Errorf("Expected max_concurrent_jobs 4, got %d", cfg.Transcription.MaxConcurrentJobs)
	}
}

func TestLoadTranscriptionConfigPartial(t *testing.T) {
	configContent := `transcription:
  language_code: de`

	tempDir := t.TempDir()
	configPath := filepath.Join(tempDir, "test_config_partial.yaml")

	err := os.WriteFile(configPath, []byte(configContent), 0644)
	if err != nil {
		t.Fatalf("Failed to create test config file: %v", err)
	}

	cfg := &Config{}
	cfg.SetTranscriptionDefaults() // Set defaults first
	err = cfg.LoadFromYAML(configPath)
	if err != nil {
		t.Fatalf("Failed to load YAML config: %v", err)
	}

	if cfg.Transcription.LanguageCode != "de" {
		t.Errorf("Expected language_code to be 'de', got '%s'", cfg.Transcription.LanguageCode)
	}
	if cfg.Transcription.PollInterval != DefaultPollInterval {
		t.Errorf("Expected default poll interval, got %s", cfg.Transcription.PollInterval)
	}
	if !*cfg.Transcription.SpeakerLabels {
		t.Error("Expected speaker_labels to stay enabled")
	}
}

func TestLoadTranscriptionConfigDefaults(t *testing.T) {
	cfg := &Config{}
	cfg.SetTranscriptionDefaults()

	tc := cfg.Transcription
	if tc.LanguageCode != "fr" {
		t.Errorf("Expected language 'fr' (default), got '%s'", tc.LanguageCode)
	}
	if tc.PollInterval != 3*time.Second {
		t.Errorf("Expected 3s poll interval, got %s", tc.PollInterval)
	}
	if tc.MaxPollInterval != tc.PollInterval {
		t.Errorf("Expected fixed delay by default, max_poll_interval=%s", tc.MaxPollInterval)
	}
	if tc.PollBackoffMultiplier != 1 {
		t.Errorf("Expected multiplier 1, got %v", tc.PollBackoffMultiplier)
	}
	if tc.MaxWait != DefaultMaxWait {
		t.Errorf("Expected max wait %s, got %s", DefaultMaxWait, tc.MaxWait)
	}
	if tc.MaxConcurrentJobs != 0 {
		t.Errorf("Expected unlimited concurrency, got %d", tc.MaxConcurrentJobs)
	}
	if err := tc.validate(); err != nil {
		t.Errorf("Expected defaults to validate, got %v", err)
	}
}

func TestSetTranscriptionDefaults_BackoffCap(t *testing.T) {
	cfg := &Config{Transcription: TranscriptionConfig{PollBackoffMultiplier: 1.5}}
	cfg.SetTranscriptionDefaults()

	if cfg.Transcription.MaxPollInterval != DefaultMaxPollInterval {
		t.Errorf("Expected %s cap with backoff enabled, got %s", DefaultMaxPollInterval, cfg.Transcription.MaxPollInterval)
	}
}

func TestLoadTranscriptionConfigFileNotFound(t *testing.T) {
	cfg := &Config{}
	err := cfg.LoadFromYAML("non_existent_file.yaml")

	// Should not return an error for non-existent files
	if err != nil {
		t.Errorf("Expected no error for non-existent file, got: %v", err)
	}
}

func TestLoadTranscriptionConfigInvalidYAML(t *testing.T) {
	configContent := `transcription:
  language_code: en
  invalid_yaml: [unclosed`

	tempDir := t.TempDir()
	configPath := filepath.Join(tempDir, "test_config_invalid.yaml")

	err := os.WriteFile(configPath, []byte(configContent), 0644)
	if err != nil {
		t.Fatalf("Failed to create test config file: %v", err)
	}

	cfg := &Config{}
	err = cfg.LoadFromYAML(configPath)
	if err == nil {
		t.Error("Expected error for invalid YAML, got nil")
	}
}

func TestLoad_FromEnv(t *testing.T) {
	t.Setenv("ASSEMBLYAI_API_KEY", "secret")
	t.Setenv("CONFIG_FILE", filepath.Join(t.TempDir(), "missing.yaml"))
	t.Setenv("TRANSCRIPTION_POLL_INTERVAL", "500ms")
	t.Setenv("TRANSCRIPTION_MAX_CONCURRENT_JOBS", "2")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.AssemblyAIKey != "secret" {
		t.Errorf("Expected API key from env, got %q", cfg.AssemblyAIKey)
	}
	if cfg.AssemblyAIBaseURL != DefaultBaseURL {
		t.Errorf("Expected default base URL, got %q", cfg.AssemblyAIBaseURL)
	}
	if cfg.Transcription.PollInterval != 500*time.Millisecond {
		t.Errorf("Expected 500ms poll interval, got %s", cfg.Transcription.PollInterval)
	}
	if cfg.Transcription.MaxConcurrentJobs != 2 {
		t.Errorf("Expected 2 concurrent jobs, got %d", cfg.Transcription.MaxConcurrentJobs)
	}
	if cfg.ShutdownTimeout != DefaultShutdownTimeout {
		t.Errorf("Expected default shutdown timeout, got %s", cfg.ShutdownTimeout)
	}
	if cfg.Port != "8080" {
		t.Errorf("Expected default port 8080, got %s", cfg.Port)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Expected valid config, got %v", err)
	}
}

func TestLoad_ShutdownTimeout(t *testing.T) {
	t.Setenv("CONFIG_FILE", filepath.Join(t.TempDir(), "missing.yaml"))
	t.Setenv("SHUTDOWN_TIMEOUT", "2m")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.ShutdownTimeout != 2*time.Minute {
		t.Errorf("Expected 2m shutdown timeout, got %s", cfg.ShutdownTimeout)
	}

	t.Setenv("SHUTDOWN_TIMEOUT", "soon")
	if _, err := Load(); err == nil {
		t.Error("Expected error for invalid SHUTDOWN_TIMEOUT")
	}
}

func TestLoad_InvalidDuration(t *testing.T) {
	t.Setenv("CONFIG_FILE", filepath.Join(t.TempDir(), "missing.yaml"))
	t.Setenv("TRANSCRIPTION_MAX_WAIT", "forever")

	if _, err := Load(); err == nil {
		t.Error("Expected error for invalid duration")
	}
}

func TestValidate_MissingAPIKey(t *testing.T) {
	cfg := &Config{}
	if err := cfg.Validate(); err != ErrMissingAPIKey {
		t.Errorf("Expected ErrMissingAPIKey, got %v", err)
	}
}

func TestTranscriptionConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     TranscriptionConfig
		wantErr bool
	}{
		{
			name:    "multiplier below one",
			cfg:     TranscriptionConfig{PollInterval: time.Second, MaxPollInterval: time.Second, PollBackoffMultiplier: 0.5},
			wantErr: true,
		},
		{
			name:    "cap below interval",
			cfg:     TranscriptionConfig{PollInterval: 3 * time.Second, MaxPollInterval: time.Second, PollBackoffMultiplier: 1},
			wantErr: true,
		},
		{
			name:    "negative concurrency",
			cfg:     TranscriptionConfig{PollInterval: time.Second, MaxPollInterval: time.Second, PollBackoffMultiplier: 1, MaxConcurrentJobs: -1},
			wantErr: true,
		},
		{
			name: "unbounded wait is allowed",
			cfg:  TranscriptionConfig{PollInterval: time.Second, MaxPollInterval: time.Second, PollBackoffMultiplier: 1, MaxWait: -1},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
