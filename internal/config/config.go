package config

import (
	"fmt"
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"

	"fursaver-site/pkg/validation"
)

const (
	DefaultDetectionEndpoint   = "https://detect.roboflow.com/fursaver-v2/1"
	DefaultConversationBaseURL = "https://api.groq.com/openai/v1"
	DefaultConversationModel   = "llama3-8b-8192"

	DefaultSystemPrompt = "You are a helpful assistant that explains pet diseases, remedies, and health solutions in simple language. " +
		"You work for FurSaver, an AI-powered platform that helps pet owners detect skin diseases in cats and dogs. " +
		"Always provide helpful, accurate information but remind users to consult with a veterinarian for proper diagnosis and treatment."
)

type Config struct {
	Host           string
	Port           string
	RequestTimeout time.Duration
	MaxUploadSize  int64
	CORSOrigins    []string

	Detection    DetectionConfig
	Conversation ConversationConfig
	Session      SessionConfig
	Archive      ArchiveConfig
	Log          LogConfig
}

type DetectionConfig struct {
	Endpoint string
	APIKey   string
	Timeout  time.Duration
}

type ConversationConfig struct {
	BaseURL      string
	Model        string
	APIKey       string
	SystemPrompt string
	Timeout      time.Duration
}

// SessionConfig controls how long idle screening workspaces and
// conversations are kept in memory.
type SessionConfig struct {
	TTL           time.Duration
	SweepInterval time.Duration
}

// ArchiveConfig enables the Azure Blob report archive when Account is set.
type ArchiveConfig struct {
	Account   string
	Key       string
	Container string
	Workers   int
}

func (a ArchiveConfig) Enabled() bool {
	return a.Account != "" && a.Key != ""
}

type LogConfig struct {
	Level  string
	Format string
}

func (c *Config) ServerAddress() string {
	host := strings.TrimSpace(c.Host)
	port := strings.TrimSpace(c.Port)
	return net.JoinHostPort(host, port)
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("host", "0.0.0.0")
	v.SetDefault("port", "8080")
	v.SetDefault("request_timeout", 60*time.Second)
	v.SetDefault("max_upload_size", 10*1024*1024) // 10MB
	v.SetDefault("cors_origins", "*")

	v.SetDefault("detection_endpoint", DefaultDetectionEndpoint)
	v.SetDefault("detection_api_key", "")
	v.SetDefault("detection_timeout", 30*time.Second)

	v.SetDefault("conversation_base_url", DefaultConversationBaseURL)
	v.SetDefault("conversation_model", DefaultConversationModel)
	v.SetDefault("groq_api_key", "")
	v.SetDefault("conversation_system_prompt", DefaultSystemPrompt)
	v.SetDefault("conversation_timeout", 45*time.Second)

	v.SetDefault("session_ttl", 30*time.Minute)
	v.SetDefault("sweep_interval", time.Minute)

	v.SetDefault("archive_account", "")
	v.SetDefault("archive_key", "")
	v.SetDefault("archive_container", "screening-reports")
	v.SetDefault("archive_workers", 2)

	v.SetDefault("log_level", "info")
	v.SetDefault("log_format", "json")
}

// Load reads configuration from the environment and, when path is not
// empty, from a YAML file. Environment variables win over the file.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config file %s: %w", path, err)
		}
	}

	cfg := &Config{
		Host:           v.GetString("host"),
		Port:           v.GetString("port"),
		RequestTimeout: v.GetDuration("request_timeout"),
		MaxUploadSize:  v.GetInt64("max_upload_size"),
		CORSOrigins:    splitList(v.GetString("cors_origins")),
		Detection: DetectionConfig{
			Endpoint: strings.TrimSpace(v.GetString("detection_endpoint")),
			APIKey:   strings.TrimSpace(v.GetString("detection_api_key")),
			Timeout:  v.GetDuration("detection_timeout"),
		},
		Conversation: ConversationConfig{
			BaseURL:      strings.TrimSpace(v.GetString("conversation_base_url")),
			Model:        strings.TrimSpace(v.GetString("conversation_model")),
			APIKey:       strings.TrimSpace(v.GetString("groq_api_key")),
			SystemPrompt: v.GetString("conversation_system_prompt"),
			Timeout:      v.GetDuration("conversation_timeout"),
		},
		Session: SessionConfig{
			TTL:           v.GetDuration("session_ttl"),
			SweepInterval: v.GetDuration("sweep_interval"),
		},
		Archive: ArchiveConfig{
			Account:   strings.TrimSpace(v.GetString("archive_account")),
			Key:       strings.TrimSpace(v.GetString("archive_key")),
			Container: strings.TrimSpace(v.GetString("archive_container")),
			Workers:   v.GetInt("archive_workers"),
		},
		Log: LogConfig{
			Level:  v.GetString("log_level"),
			Format: v.GetString("log_format"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks ranges and endpoint URLs.
func (c *Config) Validate() error {
	p, err := strconv.Atoi(strings.TrimSpace(c.Port))
	if err != nil || p < 1 || p > 65535 {
		return fmt.Errorf("invalid PORT: %q", c.Port)
	}
	if c.MaxUploadSize <= 0 {
		return fmt.Errorf("MAX_UPLOAD_SIZE must be > 0 (got %d)", c.MaxUploadSize)
	}
	if c.RequestTimeout <= 0 || c.Detection.Timeout <= 0 || c.Conversation.Timeout <= 0 {
		return fmt.Errorf("timeouts must be > 0 (got request=%s, detection=%s, conversation=%s)",
			c.RequestTimeout, c.Detection.Timeout, c.Conversation.Timeout)
	}
	if c.Session.TTL <= 0 || c.Session.SweepInterval <= 0 {
		return fmt.Errorf("SESSION_TTL and SWEEP_INTERVAL must be > 0 (got ttl=%s, sweep=%s)",
			c.Session.TTL, c.Session.SweepInterval)
	}
	if c.Conversation.Model == "" {
		return fmt.Errorf("CONVERSATION_MODEL must not be empty")
	}

	endpoints := validation.NewURLValidatorWithOptions([]string{"http", "https"}, nil)
	if err := endpoints.ValidateEndpointURL(c.Detection.Endpoint); err != nil {
		return fmt.Errorf("invalid DETECTION_ENDPOINT: %w", err)
	}
	if err := endpoints.ValidateEndpointURL(c.Conversation.BaseURL); err != nil {
		return fmt.Errorf("invalid CONVERSATION_BASE_URL: %w", err)
	}

	if c.Archive.Enabled() {
		if c.Archive.Container == "" {
			return fmt.Errorf("ARCHIVE_CONTAINER must be set when the archive is enabled")
		}
		if c.Archive.Workers <= 0 {
			return fmt.Errorf("ARCHIVE_WORKERS must be > 0 (got %d)", c.Archive.Workers)
		}
	}
	return nil
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
