package config

import (
	"fmt"
	"net/netip"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds all configuration for the application
type Config struct {
	// Server settings
	Port string `json:"port" yaml:"port"`
	Host string `json:"host" yaml:"host"`

	// LLM settings
	LLMProvider  string `json:"llm_provider" yaml:"llm_provider"` // "groq" or "gemini"
	GroqAPIKey   string `json:"-" yaml:"-"`                         // Don't expose in JSON
	GroqModel    string `json:"groq_model" yaml:"groq_model"`
	GeminiAPIKey string `json:"-" yaml:"-"` // Don't expose in JSON
	GeminiModel  string `json:"gemini_model" yaml:"gemini_model"`

	// Speech settings
	TTSModel       string `json:"tts_model" yaml:"tts_model"`
	TTSVoice       string `json:"tts_voice" yaml:"tts_voice"`
	TTSArabicModel string `json:"tts_arabic_model" yaml:"tts_arabic_model"`
	TTSArabicVoice string `json:"tts_arabic_voice" yaml:"tts_arabic_voice"`

	// Cache settings
	CacheType          string `json:"cache_type" yaml:"cache_type"` // "memory", "cloud-storage" or "none"
	CacheBucket        string `json:"cache_bucket" yaml:"cache_bucket"`
	CacheDuration      int    `json:"cache_duration" yaml:"cache_duration_hours"` // in hours
	CacheSweepSchedule string `json:"cache_sweep_schedule" yaml:"cache_sweep_schedule"`

	// Rate limiting
	RateLimitPerMinute int `json:"rate_limit_per_minute" yaml:"rate_limit_per_minute"`
	RateLimitBurst     int `json:"rate_limit_burst" yaml:"rate_limit_burst"`
	// Proxies whose X-Forwarded-For is believed, as addresses or CIDR ranges
	TrustedProxies []string `json:"trusted_proxies" yaml:"trusted_proxies"`

	// CORS
	AllowedOrigins []string `json:"allowed_origins" yaml:"allowed_origins"`

	// Logging
	LogLevel string `json:"log_level" yaml:"log_level"`

	// Export settings
	ExportFontPath string `json:"export_font_path" yaml:"export_font_path"`

	// Folder mode
	WatchDir      string `json:"watch_dir" yaml:"watch_dir"`
	OutputDir     string `json:"output_dir" yaml:"output_dir"`
	MaxConcurrent int    `json:"max_concurrent" yaml:"max_concurrent"`
}

// Defaults returns the built-in configuration before file and environment overrides.
func Defaults() *Config {
	return &Config{
		Port:               "8080",
		Host:               "0.0.0.0",
		LLMProvider:        "groq",
		GroqModel:          "meta-llama/llama-4-maverick-17b-128e-instruct",
		GeminiModel:        "gemini-2.5-flash",
		TTSModel:           "playai-tts",
		TTSVoice:           "Celeste-PlayAI",
		TTSArabicModel:     "playai-tts-arabic",
		TTSArabicVoice:     "Khalid-PlayAI",
		CacheType:          "memory",
		CacheBucket:        "clarify-cache",
		CacheDuration:      24,
		CacheSweepSchedule: "@every 10m",
		RateLimitPerMinute: 30,
		RateLimitBurst:     10,
		AllowedOrigins:     []string{"*"},
		LogLevel:           "info",
		WatchDir:           "data/inbox",
		OutputDir:          "data/exports",
		MaxConcurrent:      2,
	}
}

// Load reads configuration from an optional YAML file, environment variables and .env file
func Load() (*Config, error) {
	// Load .env file if exists
	_ = godotenv.Load()

	config := Defaults()

	if path := os.Getenv("CLARIFY_CONFIG"); path != "" {
		if err := config.loadFile(path); err != nil {
			return nil, err
		}
	}

	config.applyEnv()

	return config, config.validate()
}

// loadFile overlays values from a YAML file onto c
func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading config file: %w", err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("parsing config file %s: %w", path, err)
	}
	return nil
}

// applyEnv overrides c with any environment variables that are set
func (c *Config) applyEnv() {
	c.Port = getEnvOrDefault("PORT", c.Port)
	c.Host = getEnvOrDefault("HOST", c.Host)
	c.LLMProvider = strings.ToLower(getEnvOrDefault("LLM_PROVIDER", c.LLMProvider))
	c.GroqAPIKey = getEnvOrDefault("GROQ_API_KEY", c.GroqAPIKey)
	c.GroqModel = getEnvOrDefault("GROQ_MODEL", c.GroqModel)
	c.GeminiAPIKey = getEnvOrDefault("GEMINI_API_KEY", c.GeminiAPIKey)
	c.GeminiModel = getEnvOrDefault("GEMINI_MODEL", c.GeminiModel)
	c.TTSModel = getEnvOrDefault("TTS_MODEL", c.TTSModel)
	c.TTSVoice = getEnvOrDefault("TTS_VOICE", c.TTSVoice)
	c.TTSArabicModel = getEnvOrDefault("TTS_ARABIC_MODEL", c.TTSArabicModel)
	c.TTSArabicVoice = getEnvOrDefault("TTS_ARABIC_VOICE", c.TTSArabicVoice)
	c.CacheType = getEnvOrDefault("CACHE_TYPE", c.CacheType)
	c.CacheBucket = getEnvOrDefault("CACHE_BUCKET", c.CacheBucket)
	c.CacheDuration = getEnvOrDefaultInt("CACHE_DURATION_HOURS", c.CacheDuration)
	c.CacheSweepSchedule = getEnvOrDefault("CACHE_SWEEP_SCHEDULE", c.CacheSweepSchedule)
	c.RateLimitPerMinute = getEnvOrDefaultInt("RATE_LIMIT_PER_MINUTE", c.RateLimitPerMinute)
	c.RateLimitBurst = getEnvOrDefaultInt("RATE_LIMIT_BURST", c.RateLimitBurst)
	if proxies := os.Getenv("TRUSTED_PROXIES"); proxies != "" {
		c.TrustedProxies = parseStringSlice(proxies)
	}
	if origins := os.Getenv("ALLOWED_ORIGINS"); origins != "" {
		c.AllowedOrigins = parseStringSlice(origins)
	}
	c.LogLevel = getEnvOrDefault("LOG_LEVEL", c.LogLevel)
	c.ExportFontPath = getEnvOrDefault("EXPORT_FONT_PATH", c.ExportFontPath)
	c.WatchDir = getEnvOrDefault("WATCH_DIR", c.WatchDir)
	c.OutputDir = getEnvOrDefault("OUTPUT_DIR", c.OutputDir)
	c.MaxConcurrent = getEnvOrDefaultInt("MAX_CONCURRENT", c.MaxConcurrent)
}

// validate checks if required configuration values are present
func (c *Config) validate() error {
	switch c.LLMProvider {
	case "groq":
		if c.GroqAPIKey == "" {
			return &ConfigError{Field: "GROQ_API_KEY", Message: "Groq API key is required"}
		}
	case "gemini":
		if c.GeminiAPIKey == "" {
			return &ConfigError{Field: "GEMINI_API_KEY", Message: "Gemini API key is required"}
		}
	default:
		return &ConfigError{Field: "LLM_PROVIDER", Message: "must be groq or gemini"}
	}

	switch c.CacheType {
	case "memory", "none":
	case "cloud-storage":
		if c.CacheBucket == "" {
			return &ConfigError{Field: "CACHE_BUCKET", Message: "bucket is required for cloud-storage cache"}
		}
	default:
		return &ConfigError{Field: "CACHE_TYPE", Message: "must be memory, cloud-storage or none"}
	}

	if c.CacheDuration <= 0 {
		return &ConfigError{Field: "CACHE_DURATION_HOURS", Message: "must be positive"}
	}
	for _, p := range c.TrustedProxies {
		if _, err := netip.ParsePrefix(p); err == nil {
			continue
		}
		if _, err := netip.ParseAddr(p); err != nil {
			return &ConfigError{Field: "TRUSTED_PROXIES", Message: "invalid address or range " + p}
		}
	}
	if c.MaxConcurrent <= 0 {
		c.MaxConcurrent = 2
	}
	return nil
}

// HasSpeech reports whether a TTS provider key is configured. Speech always goes through Groq.
func (c *Config) HasSpeech() bool {
	return c.GroqAPIKey != ""
}

// getEnvOrDefault returns environment variable value or default if not set
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvOrDefaultInt returns environment variable value as int or default if not set
func getEnvOrDefaultInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

// parseStringSlice parses comma-separated string into slice
func parseStringSlice(value string) []string {
	if value == "" {
		return []string{}
	}
	parts := strings.Split(value, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}

// ConfigError represents a configuration error
type ConfigError struct {
	Field   string
	Message string
}

func (e *ConfigError) Error() string {
	return e.Field + ": " + e.Message
}
