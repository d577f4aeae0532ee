package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"golang.org/x/text/language"

	"github.com/MimeLyc/videotools/internal/errs"
	"github.com/MimeLyc/videotools/internal/gemini"
	"github.com/MimeLyc/videotools/pkg/icron"
	"github.com/MimeLyc/videotools/pkg/log"
)

// Config holds all application configuration
// Supports environment variables with sensible defaults
//
// Environment Variables:
// Gemini Configuration:
// - GEMINI_API_KEYS: comma separated API keys, rotated per call (required to translate)
// - GEMINI_API_URL: API base URL (default: https://generativelanguage.googleapis.com/v1beta)
// - GEMINI_MODEL: Model name (default: gemini-1.5-flash)
// - GEMINI_TIMEOUT: Request timeout in seconds (default: 180)
//
// Translate Configuration:
// - TARGET_LANGUAGE: BCP 47 tag of the output language (default: vi)
// - TRANSLATE_STRICT_NUMBERING: reject unnumbered response lines (default: false)
// - TRANSLATE_ENFORCE_WORD_LIMIT: shorten lines longer than the original (default: false)
// - CAPTION_PREFIX / CAPTION_SUFFIX: branding wrapped around caption bodies (default: empty)
// - INBOX_DIR: directory scanned for new subtitles (default: disabled)
// - CRON_EXPR: inbox scan schedule (default: */10 * * * *)
// - QUEUE_WORKERS: concurrent jobs (default: 2, translate jobs still run one at a time)
//
// Download Configuration:
// - YTDLP_PATH: yt-dlp executable (default: yt-dlp)
// - DOWNLOAD_DIR: default save directory (default: $HOME/Downloads)
//
// HTTP Configuration:
// - HTTP_ADDR: listen address (default: 127.0.0.1:8080)
// - UI_STATIC_DIR: directory holding index.html (default: empty, UI disabled)
//
// System Configuration:
// - DATA_DIR: state directory (default: $HOME/.videotools)
// - DB_PATH: sqlite job store (default: $DATA_DIR/videotools.db)
// - LOG_LEVEL: debug, info, warn or error (default: info)
// - LOG_FILE: write logs to this file instead of stdout (optional)
type Config struct {
	Gemini    GeminiConfig    `json:"gemini"`
	Translate TranslateConfig `json:"translate"`
	Download  DownloadConfig  `json:"download"`
	HTTP      HTTPConfig      `json:"http"`
	System    SystemConfig    `json:"system"`
}

type GeminiConfig struct {
	Keys    []string `json:"-"`
	APIURL  string   `json:"api_url"`
	Model   string   `json:"model"`
	Timeout int      `json:"timeout"`
}

type TranslateConfig struct {
	TargetLanguage   language.Tag `json:"target_language"`
	StrictNumbering  bool         `json:"strict_numbering"`
	EnforceWordLimit bool         `json:"enforce_word_limit"`
	CaptionPrefix    string       `json:"caption_prefix"`
	CaptionSuffix    string       `json:"caption_suffix"`
	InboxDir         string       `json:"inbox_dir"`
	CronExpr         string       `json:"cron_expr"`
	Workers          int          `json:"workers"`
}

type DownloadConfig struct {
	YTDLPPath string `json:"ytdlp_path"`
	Dir       string `json:"dir"`
}

type HTTPConfig struct {
	Addr        string `json:"addr"`
	UIStaticDir string `json:"ui_static_dir"`
}

// UIEnabled reports whether a static UI directory is configured.
func (c HTTPConfig) UIEnabled() bool {
	return c.UIStaticDir != ""
}

type SystemConfig struct {
	DataDir  string `json:"data_dir"`
	DBPath   string `json:"db_path"`
	LogLevel string `json:"log_level"`
	LogFile  string `json:"log_file"`
}

// GeminiClientConfig converts the settings for gemini.NewClient.
func (c *Config) GeminiClientConfig() *gemini.Config {
	return &gemini.Config{
		Keys:    c.Gemini.Keys,
		APIURL:  c.Gemini.APIURL,
		Model:   c.Gemini.Model,
		Timeout: c.Gemini.Timeout,
	}
}

// CanTranslate reports whether API keys are configured.
func (c *Config) CanTranslate() bool {
	return len(c.Gemini.Keys) > 0
}

// Option is a function type for configuring Config
type Option func(*Config)

// NewFromEnv creates a new Config instance with values from environment variables and options
func NewFromEnv(opts ...Option) (*Config, error) {
	home, _ := os.UserHomeDir()
	dataDir := getEnvString("DATA_DIR", filepath.Join(home, ".videotools"))

	target, err := language.Parse(getEnvString("TARGET_LANGUAGE", "vi"))
	if err != nil {
		return nil, errs.Wrap(err, errs.ErrConfig, "invalid TARGET_LANGUAGE")
	}

	config := &Config{
		Gemini: GeminiConfig{
			Keys:    gemini.SplitKeys(os.Getenv("GEMINI_API_KEYS")),
			APIURL:  getEnvString("GEMINI_API_URL", gemini.DefaultAPIURL),
			Model:   getEnvString("GEMINI_MODEL", gemini.DefaultModel),
			Timeout: getEnvInt("GEMINI_TIMEOUT", gemini.DefaultTimeout),
		},
		Translate: TranslateConfig{
			TargetLanguage:   target,
			StrictNumbering:  getEnvBool("TRANSLATE_STRICT_NUMBERING", false),
			EnforceWordLimit: getEnvBool("TRANSLATE_ENFORCE_WORD_LIMIT", false),
			CaptionPrefix:    os.Getenv("CAPTION_PREFIX"),
			CaptionSuffix:    os.Getenv("CAPTION_SUFFIX"),
			InboxDir:         getEnvString("INBOX_DIR", ""),
			CronExpr:         getEnvString("CRON_EXPR", "*/10 * * * *"),
			Workers:          getEnvInt("QUEUE_WORKERS", 2),
		},
		Download: DownloadConfig{
			YTDLPPath: getEnvString("YTDLP_PATH", "yt-dlp"),
			Dir:       getEnvString("DOWNLOAD_DIR", filepath.Join(home, "Downloads")),
		},
		HTTP: HTTPConfig{
			Addr:        getEnvString("HTTP_ADDR", "127.0.0.1:8080"),
			UIStaticDir: getEnvString("UI_STATIC_DIR", ""),
		},
		System: SystemConfig{
			DataDir:  dataDir,
			DBPath:   getEnvString("DB_PATH", filepath.Join(dataDir, "videotools.db")),
			LogLevel: getEnvString("LOG_LEVEL", "info"),
			LogFile:  getEnvString("LOG_FILE", ""),
		},
	}

	// Apply custom options
	for _, opt := range opts {
		opt(config)
	}

	if err := config.validate(); err != nil {
		return nil, err
	}

	log.Debug("Config: %v (%d API keys)", config, len(config.Gemini.Keys))
	return config, nil
}

// validate checks the settings every command relies on. API keys are only
// checked by ValidateTranslation since downloads work without them.
func (c *Config) validate() error {
	if c.Translate.Workers < 1 {
		return errs.New(errs.ErrConfig, "QUEUE_WORKERS must be at least 1")
	}
	if c.Gemini.Timeout < 1 {
		return errs.New(errs.ErrConfig, "GEMINI_TIMEOUT must be greater than 0")
	}
	if c.Translate.InboxDir != "" {
		if err := icron.Validate(c.Translate.CronExpr); err != nil {
			return errs.Wrap(err, errs.ErrConfig, "invalid CRON_EXPR")
		}
	}
	return nil
}

// ValidateTranslation checks the settings needed to call the remote model.
func (c *Config) ValidateTranslation() error {
	if err := c.GeminiClientConfig().Validate(); err != nil {
		return errs.Wrap(err, errs.ErrConfig, "GEMINI_API_KEYS is required to translate")
	}
	return nil
}

func WithTargetLanguage(tag language.Tag) Option {
	return func(c *Config) {
		c.Translate.TargetLanguage = tag
	}
}

func WithHTTPAddr(addr string) Option {
	return func(c *Config) {
		if strings.TrimSpace(addr) != "" {
			c.HTTP.Addr = addr
		}
	}
}

// getEnvString gets a string value from environment variables with default
func getEnvString(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvInt gets an integer value from environment variables with default
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

// getEnvBool accepts the strconv.ParseBool spellings
func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

// String summarizes the config without API keys.
func (c Config) String() string {
	return fmt.Sprintf("gemini=%s/%s target=%s inbox=%q http=%s db=%s",
		c.Gemini.APIURL, c.Gemini.Model, c.Translate.TargetLanguage, c.Translate.InboxDir, c.HTTP.Addr, c.System.DBPath)
}
