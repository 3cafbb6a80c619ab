// Package config holds the typed configuration for the service. It is loaded
// once at startup and passed into constructors so components stay
// independently testable.
package config

import (
	"strings"
	"time"
)

// Config is the root service configuration.
type Config struct {
	Service    ServiceConfig    `yaml:"service"`
	Storage    StorageConfig    `yaml:"storage"`
	Search     SearchConfig     `yaml:"search"`
	Transcribe TranscribeConfig `yaml:"transcribe"`
	Email      EmailConfig      `yaml:"email"`
	Link       LinkConfig       `yaml:"link"`
	Kafka      KafkaConfig      `yaml:"kafka"`
	Log        LogConfig        `yaml:"log"`
}

// ServiceConfig holds process-level settings.
type ServiceConfig struct {
	Name        string `yaml:"name"         env:"SERVICE_NAME"  env-default:"voicemail-notify"`
	HTTPPort    string `yaml:"http_port"    env:"HTTP_PORT"     env-default:"8080"`
	MetricsPort string `yaml:"metrics_port" env:"METRICS_PORT"  env-default:"9090"`
}

// StorageConfig holds object-store settings. BasePath is
// "{bucket}" or "{bucket}/{prefix}" and is mandatory.
type StorageConfig struct {
	Provider     string `yaml:"provider"      env:"STORAGE_PROVIDER"      env-default:"memory"`
	BasePath     string `yaml:"base_path"     env:"BASE_PATH"`
	RecordingDir string `yaml:"recording_dir" env:"STORAGE_RECORDING_DIR" env-default:"ivr"`
	RecordingExt string `yaml:"recording_ext" env:"STORAGE_RECORDING_EXT" env-default:"wav"`
}

// Bucket returns the bucket component of BasePath.
func (s StorageConfig) Bucket() string {
	base := strings.Trim(s.BasePath, "/")
	if i := strings.Index(base, "/"); i >= 0 {
		return base[:i]
	}
	return base
}

// Prefix returns the key prefix component of BasePath, without leading or
// trailing slashes. Empty when BasePath is just a bucket.
func (s StorageConfig) Prefix() string {
	base := strings.Trim(s.BasePath, "/")
	if i := strings.Index(base, "/"); i >= 0 {
		return base[i+1:]
	}
	return ""
}

// SearchConfig bounds the recording search. SettleWait is the single blocking
// delay before the first attempt; RetryBackoff separates the outer attempts.
type SearchConfig struct {
	SettleWait       time.Duration `yaml:"settle_wait"        env:"RECORDING_SETTLE_WAIT"   env-default:"70s"`
	RetryBackoff     time.Duration `yaml:"retry_backoff"      env:"SEARCH_RETRY_BACKOFF"    env-default:"30s"`
	Attempts         int           `yaml:"attempts"           env:"SEARCH_ATTEMPTS"         env-default:"2"`
	MaxRadiusMinutes int           `yaml:"max_radius_minutes" env:"SEARCH_MAX_RADIUS_MIN"   env-default:"5"`
}

// TranscribeConfig bounds the transcription polling loop.
type TranscribeConfig struct {
	Provider     string        `yaml:"provider"      env:"TRANSCRIBE_PROVIDER"     env-default:"mock"`
	LanguageCode string        `yaml:"language_code" env:"TRANSCRIBE_LANGUAGE"     env-default:"en-US"`
	PollInterval time.Duration `yaml:"poll_interval" env:"TRANSCRIBE_POLL_INTERVAL" env-default:"3s"`
	MaxWait      time.Duration `yaml:"max_wait"      env:"TRANSCRIBE_MAX_WAIT"     env-default:"600s"`
}

// EmailConfig holds sender and SMTP settings. Sender is mandatory.
type EmailConfig struct {
	Provider      string `yaml:"provider"       env:"EMAIL_PROVIDER"      env-default:"mock"`
	Sender        string `yaml:"sender"         env:"EMAIL_SENDER"`
	SMTPHost      string `yaml:"smtp_host"      env:"SMTP_HOST"`
	SMTPPort      int    `yaml:"smtp_port"      env:"SMTP_PORT"           env-default:"587"`
	SMTPUsername  string `yaml:"smtp_username"  env:"SMTP_USERNAME"`
	SMTPPassword  string `yaml:"smtp_password"  env:"SMTP_PASSWORD"`
	PreviewLength int    `yaml:"preview_length" env:"EMAIL_PREVIEW_LENGTH" env-default:"700"`
	// AttachRecording includes the audio file in the notification in
	// addition to the listen link. Off by default; large recordings can
	// exceed relay message limits.
	AttachRecording bool `yaml:"attach_recording" env:"EMAIL_ATTACH_RECORDING" env-default:"false"`
}

// LinkConfig holds signed listen-link settings. URLExpiry bounds how long the
// emailed link stays valid; ListenWindow bounds the short-lived storage URL a
// valid link is exchanged for.
type LinkConfig struct {
	PublicBaseURL string        `yaml:"public_base_url" env:"REDIRECT_BASE_URL"`
	SigningSecret string        `yaml:"signing_secret"  env:"SIGNING_SECRET"`
	URLExpiry     time.Duration `yaml:"url_expiry"      env:"URL_EXPIRATION"  env-default:"168h"`
	ListenWindow  time.Duration `yaml:"listen_window"   env:"LISTEN_WINDOW"   env-default:"1h"`
}

// KafkaConfig holds result-event publishing settings.
type KafkaConfig struct {
	Enabled        bool     `yaml:"enabled"         env:"KAFKA_ENABLED"         env-default:"false"`
	Brokers        []string `yaml:"brokers"         env:"KAFKA_BROKERS"`
	TopicProcessed string   `yaml:"topic_processed" env:"KAFKA_TOPIC_PROCESSED" env-default:"voicemail.processed"`
	TopicFailed    string   `yaml:"topic_failed"    env:"KAFKA_TOPIC_FAILED"    env-default:"voicemail.failed"`
	Principal      string   `yaml:"principal"       env:"KAFKA_PRINCIPAL"       env-default:"svc-voicemail-notify"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level  string `yaml:"level"  env:"LOG_LEVEL"  env-default:"info"`
	Format string `yaml:"format" env:"LOG_FORMAT" env-default:"json"`
}
