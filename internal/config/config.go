// Package config defines the configuration contract and handles loading and
// validating environment configuration.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

const (
	// Canonical environment variable keys.
	KeyMongoURI       = "MONGO_URI"
	KeyMongoDB        = "MONGO_DB"
	KeySessionSecret  = "SESSION_SECRET"
	KeySiteRoot       = "SITE_ROOT"
	KeyAppEnv         = "APP_ENV"
	KeyLogLevel       = "LOG_LEVEL"
	KeyHTTPPort       = "HTTP_PORT"
	KeyHealthPort     = "HEALTH_PORT"
	KeyCaptchaEnabled = "HCAPTCHA_ENABLED"
	KeyCaptchaSecret  = "HCAPTCHA_SECRET"
	KeyTelegramToken  = "TELEGRAM_TOKEN"
	KeyAuditChatID    = "AUDIT_CHAT_ID"

	// Allowed environment values.
	EnvDevelopment = "development"
	EnvProduction  = "production"

	// Defaults for optional settings.
	DefaultAppEnv     = EnvProduction
	DefaultLogLevel   = "info"
	DefaultHTTPPort   = 8080
	DefaultHealthPort = 8081
	DefaultSiteRoot   = "http://localhost:8080/"

	// Recommended database names by environment.
	DefaultMongoDBProd = "zuraaa_list"
	DefaultMongoDBDev  = "zuraaa_list_dev"
)

// VarSpec describes a single configuration key.
type VarSpec struct {
	Key         string // environment variable name
	Example     string // human-friendly sample value
	Required    bool   // whether the service must refuse to start without this value
	Default     string // default when unset (empty when required)
	Description string // what the variable controls
	Notes       string // extra guidance or policies
}

// Contract enumerates the authoritative configuration keys for the service.
// .env loading is only permitted when APP_ENV=development; production must rely
// on environment variables supplied by the runtime.
var Contract = []VarSpec{
	{
		Key:         KeyMongoURI,
		Example:     "mongodb://localhost:27017",
		Required:    true,
		Description: "MongoDB connection string.",
	},
	{
		Key:         KeyMongoDB,
		Example:     DefaultMongoDBProd + " / " + DefaultMongoDBDev,
		Required:    true,
		Description: "MongoDB database name.",
		Notes:       "Recommended: production=" + DefaultMongoDBProd + ", development=" + DefaultMongoDBDev + ".",
	},
	{
		Key:         KeySessionSecret,
		Example:     "32+ random bytes",
		Required:    true,
		Description: "HMAC key for session cookies.",
	},
	{
		Key:         KeySiteRoot,
		Example:     "https://zuraaa.com/",
		Default:     DefaultSiteRoot,
		Description: "Public base url used in outbound links.",
	},
	{
		Key:         KeyAppEnv,
		Example:     EnvDevelopment + " / " + EnvProduction,
		Default:     DefaultAppEnv,
		Description: "Runtime environment; controls log format and dotenv usage.",
		Notes:       "Load .env files only when APP_ENV=" + EnvDevelopment + ".",
	},
	{
		Key:         KeyLogLevel,
		Example:     DefaultLogLevel,
		Default:     DefaultLogLevel,
		Description: "Overrides default log level.",
	},
	{
		Key:         KeyHTTPPort,
		Example:     strconv.Itoa(DefaultHTTPPort),
		Default:     strconv.Itoa(DefaultHTTPPort),
		Description: "Public HTTP port.",
	},
	{
		Key:         KeyHealthPort,
		Example:     strconv.Itoa(DefaultHealthPort),
		Default:     strconv.Itoa(DefaultHealthPort),
		Description: "HTTP health/diagnostics port.",
	},
	{
		Key:         KeyCaptchaEnabled,
		Example:     "true / false",
		Default:     "true",
		Description: "Toggles hCaptcha verification on vote and report forms.",
		Notes:       "Disable only in development to test form flows quickly.",
	},
	{
		Key:         KeyCaptchaSecret,
		Example:     "0x0000000000000000000000000000000000000000",
		Description: "hCaptcha account secret.",
		Notes:       "Required whenever " + KeyCaptchaEnabled + " is true.",
	},
	{
		Key:         KeyTelegramToken,
		Example:     "123:ABC",
		Description: "Telegram token for the audit channel notifier.",
		Notes:       "Leave unset together with " + KeyAuditChatID + " to disable audit notifications.",
	},
	{
		Key:         KeyAuditChatID,
		Example:     "-1001234567890",
		Description: "Telegram chat receiving vote audit lines.",
	},
}

// Config mirrors resolved configuration values after loading.
type Config struct {
	MongoURI       string
	MongoDB        string
	SessionSecret  string
	SiteRoot       string
	AppEnv         string
	LogLevel       string
	HTTPPort       int
	HealthPort     int
	CaptchaEnabled bool
	CaptchaSecret  string
	TelegramToken  string
	AuditChatID    string
}

// Load resolves configuration from the environment (with optional dotenv in development).
func Load() (Config, error) {
	appEnv, err := resolveAppEnv()
	if err != nil {
		return Config{}, err
	}

	if err := loadDotEnv(appEnv); err != nil {
		return Config{}, err
	}

	cfg := Config{
		AppEnv:         firstNonEmpty(normalizeEnv(os.Getenv(KeyAppEnv)), appEnv),
		MongoURI:       strings.TrimSpace(os.Getenv(KeyMongoURI)),
		MongoDB:        strings.TrimSpace(os.Getenv(KeyMongoDB)),
		SessionSecret:  strings.TrimSpace(os.Getenv(KeySessionSecret)),
		SiteRoot:       firstNonEmpty(strings.TrimSpace(os.Getenv(KeySiteRoot)), DefaultSiteRoot),
		LogLevel:       firstNonEmpty(strings.TrimSpace(os.Getenv(KeyLogLevel)), DefaultLogLevel),
		HTTPPort:       DefaultHTTPPort,
		HealthPort:     DefaultHealthPort,
		CaptchaEnabled: true,
		CaptchaSecret:  strings.TrimSpace(os.Getenv(KeyCaptchaSecret)),
		TelegramToken:  strings.TrimSpace(os.Getenv(KeyTelegramToken)),
		AuditChatID:    strings.TrimSpace(os.Getenv(KeyAuditChatID)),
	}

	if err := validateAppEnv(cfg.AppEnv); err != nil {
		return Config{}, err
	}

	captchaRaw := strings.TrimSpace(os.Getenv(KeyCaptchaEnabled))
	if captchaRaw != "" {
		enabled, parseErr := strconv.ParseBool(captchaRaw)
		if parseErr != nil {
			return Config{}, fmt.Errorf("invalid %s: %w", KeyCaptchaEnabled, parseErr)
		}
		cfg.CaptchaEnabled = enabled
	}

	missing := make([]string, 0)

	if cfg.MongoURI == "" {
		missing = append(missing, KeyMongoURI)
	}
	if cfg.MongoDB == "" {
		missing = append(missing, KeyMongoDB)
	}
	if cfg.SessionSecret == "" {
		missing = append(missing, KeySessionSecret)
	}
	if cfg.CaptchaEnabled && cfg.CaptchaSecret == "" {
		missing = append(missing, KeyCaptchaSecret)
	}

	if len(missing) > 0 {
		return Config{}, fmt.Errorf("missing required environment variable(s): %s", strings.Join(missing, ", "))
	}

	if (cfg.TelegramToken == "") != (cfg.AuditChatID == "") {
		return Config{}, fmt.Errorf("%s and %s must be set together", KeyTelegramToken, KeyAuditChatID)
	}

	for _, port := range []struct {
		key   string
		field *int
	}{
		{KeyHTTPPort, &cfg.HTTPPort},
		{KeyHealthPort, &cfg.HealthPort},
	} {
		raw := strings.TrimSpace(os.Getenv(port.key))
		if raw == "" {
			continue
		}
		value, parseErr := strconv.Atoi(raw)
		if parseErr != nil {
			return Config{}, fmt.Errorf("invalid %s: %w", port.key, parseErr)
		}
		if value <= 0 {
			return Config{}, fmt.Errorf("%s must be greater than 0", port.key)
		}
		*port.field = value
	}

	if !strings.HasSuffix(cfg.SiteRoot, "/") {
		cfg.SiteRoot += "/"
	}

	return cfg, nil
}

// IsDevelopment reports if APP_ENV is development.
func (c Config) IsDevelopment() bool {
	return c.AppEnv == EnvDevelopment
}

// AuditEnabled reports whether the Telegram audit notifier is configured.
func (c Config) AuditEnabled() bool {
	return c.TelegramToken != "" && c.AuditChatID != ""
}

// FormatRedacted renders the configuration for diagnostics with secrets
// masked and MongoDB credentials stripped.
func FormatRedacted(cfg Config) string {
	lines := []string{
		"mongo_uri: " + redactMongoURI(cfg.MongoURI),
		"mongo_db: " + cfg.MongoDB,
		"session_secret: " + maskSecret(cfg.SessionSecret),
		"site_root: " + cfg.SiteRoot,
		"app_env: " + cfg.AppEnv,
		"log_level: " + cfg.LogLevel,
		"http_port: " + strconv.Itoa(cfg.HTTPPort),
		"health_port: " + strconv.Itoa(cfg.HealthPort),
		"hcaptcha_enabled: " + strconv.FormatBool(cfg.CaptchaEnabled),
		"hcaptcha_secret: " + maskSecret(cfg.CaptchaSecret),
		"telegram_token: " + maskSecret(cfg.TelegramToken),
		"audit_chat_id: " + cfg.AuditChatID,
	}

	return strings.Join(lines, "\n")
}

func redactMongoURI(raw string) string {
	parsed, err := url.Parse(raw)
	if err != nil {
		return "(unparseable)"
	}
	parsed.User = nil
	return parsed.String()
}

func maskSecret(value string) string {
	if value == "" {
		return "(unset)"
	}
	if len(value) <= 4 {
		return "...redacted"
	}
	return value[:4] + "...redacted"
}

func resolveAppEnv() (string, error) {
	if explicit := normalizeEnv(os.Getenv(KeyAppEnv)); explicit != "" {
		return explicit, nil
	}

	dotEnvValues, err := godotenv.Read()
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return DefaultAppEnv, nil
		}
		return "", fmt.Errorf("read .env: %w", err)
	}

	if envFromFile := normalizeEnv(dotEnvValues[KeyAppEnv]); envFromFile != "" {
		return envFromFile, nil
	}

	return DefaultAppEnv, nil
}

func loadDotEnv(appEnv string) error {
	if appEnv != EnvDevelopment {
		return nil
	}

	if err := godotenv.Load(); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("load .env: %w", err)
	}

	return nil
}

func validateAppEnv(appEnv string) error {
	if appEnv == EnvDevelopment || appEnv == EnvProduction {
		return nil
	}

	return fmt.Errorf("invalid %s: must be %q or %q", KeyAppEnv, EnvDevelopment, EnvProduction)
}

func normalizeEnv(value string) string {
	return strings.ToLower(strings.TrimSpace(value))
}

func firstNonEmpty(values ...string) string {
	for _, val := range values {
		if strings.TrimSpace(val) != "" {
			return strings.TrimSpace(val)
		}
	}
	return ""
}
