package gemini

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/MimeLyc/videotools/internal/errs"
	"github.com/MimeLyc/videotools/internal/metrics"
	"github.com/MimeLyc/videotools/pkg/log"
)

// maxExcerpt bounds the response body quoted in an API error.
const maxExcerpt = 512

// Client calls the generateContent endpoint, taking a fresh key from its
// KeyRing on every call.
type Client struct {
	config     *Config
	keys       KeyRing
	httpClient *http.Client
	baseURL    string
}

// NewClient creates a client. A nil keys rotates config.Keys round-robin.
func NewClient(config *Config, keys KeyRing) (*Client, error) {
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	if keys == nil {
		ring := NewRoundRobin(config.Keys)
		log.Debug("Gemini client rotating %d API keys", ring.Len())
		keys = ring
	}

	return &Client{
		config:  config,
		keys:    keys,
		baseURL: strings.TrimRight(config.APIURL, "/"),
		httpClient: &http.Client{
			Timeout: time.Duration(config.Timeout) * time.Second,
		},
	}, nil
}

// Generate sends prompt and returns the first text part of the first candidate.
func (c *Client) Generate(ctx context.Context, prompt string) (string, error) {
	start := time.Now()
	text, err := c.generate(ctx, prompt)
	metrics.RecordGenerate(outcome(err), time.Since(start).Seconds())
	return text, err
}

func (c *Client) generate(ctx context.Context, prompt string) (string, error) {
	jsonData, err := json.Marshal(NewUserRequest(prompt))
	if err != nil {
		return "", errs.Wrap(err, errs.ErrUnknown, "failed to marshal request")
	}

	endpoint := c.endpoint(c.keys.Next())
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewBuffer(jsonData))
	if err != nil {
		return "", errs.Wrap(err, errs.ErrUnknown, "failed to create request")
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", errs.Wrap(redact(err), errs.ErrNetwork, "request to generation endpoint failed")
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", errs.Wrap(err, errs.ErrNetwork, "failed to read response body")
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		log.Warn("generation endpoint returned status %d", resp.StatusCode)
		return "", errs.APIError(fmt.Sprintf("API request failed with status %d", resp.StatusCode)).
			WithContext("status", resp.StatusCode).
			WithContext("body", excerpt(body))
	}

	var envelope GenerateResponse
	if err := json.Unmarshal(body, &envelope); err != nil {
		return "", errs.Wrap(err, errs.ErrParsing, "failed to decode response envelope").
			WithContext("body", excerpt(body))
	}

	text, ok := envelope.FirstText()
	if !ok {
		e := errs.ParsingFailed("response has no candidates[0].content.parts[0].text")
		if envelope.PromptFeedback != nil && envelope.PromptFeedback.BlockReason != "" {
			e = e.WithContext("block_reason", envelope.PromptFeedback.BlockReason)
		}
		return "", e
	}

	return text, nil
}

func (c *Client) endpoint(key string) string {
	return fmt.Sprintf("%s/models/%s:generateContent?key=%s",
		c.baseURL, url.PathEscape(c.config.Model), url.QueryEscape(key))
}

// redact strips the query string (which carries the key) from transport errors.
func redact(err error) error {
	var uerr *url.Error
	if errors.As(err, &uerr) {
		if u, perr := url.Parse(uerr.URL); perr == nil {
			u.RawQuery = ""
			uerr.URL = u.String()
		}
	}
	return err
}

func excerpt(body []byte) string {
	if len(body) <= maxExcerpt {
		return string(body)
	}
	cut := body[:maxExcerpt]
	for i := 0; i < utf8.UTFMax && len(cut) > 0 && !utf8.Valid(cut); i++ {
		cut = cut[:len(cut)-1]
	}
	return string(cut)
}

func outcome(err error) string {
	if err == nil {
		return "ok"
	}
	switch errs.TypeOf(err) {
	case errs.ErrAPI:
		return "api_error"
	case errs.ErrParsing:
		return "parsing_failed"
	case errs.ErrNetwork:
		return "network"
	default:
		return "error"
	}
}
