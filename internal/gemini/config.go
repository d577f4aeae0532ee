package gemini

import (
	"fmt"
	"strings"
)

const (
	DefaultAPIURL  = "https://generativelanguage.googleapis.com/v1beta"
	DefaultModel   = "gemini-1.5-flash"
	DefaultTimeout = 180
)

// Config holds the configuration for the generation client
//
// Environment Variables:
// - GEMINI_API_KEYS: comma separated API keys, rotated per call (required)
// - GEMINI_API_URL: API base URL (default: https://generativelanguage.googleapis.com/v1beta)
// - GEMINI_MODEL: Model name to use (default: gemini-1.5-flash)
// - GEMINI_TIMEOUT: Request timeout in seconds (default: 180)
type Config struct {
	Keys    []string `json:"-"`
	APIURL  string   `json:"api_url"`
	Model   string   `json:"model"`
	Timeout int      `json:"timeout"`
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if len(c.Keys) == 0 {
		return fmt.Errorf("at least one API key is required")
	}
	for i, key := range c.Keys {
		if strings.TrimSpace(key) == "" {
			return fmt.Errorf("API key #%d is empty", i+1)
		}
	}
	if c.APIURL == "" {
		return fmt.Errorf("API URL is required")
	}
	if c.Model == "" {
		return fmt.Errorf("model is required")
	}
	if c.Timeout < 1 {
		return fmt.Errorf("timeout must be greater than 0")
	}
	return nil
}

// SplitKeys parses a comma separated key list, dropping blanks.
func SplitKeys(raw string) []string {
	var keys []string
	for _, key := range strings.Split(raw, ",") {
		if key = strings.TrimSpace(key); key != "" {
			keys = append(keys, key)
		}
	}
	return keys
}
