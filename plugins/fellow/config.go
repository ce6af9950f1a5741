package fellow

import (
	"log/slog"
	"net/http"
	"strings"
	"time"
)

const (
	defaultBaseURL   = "https://l8qtmnc692.execute-api.us-west-2.amazonaws.com/v1"
	defaultUserAgent = "Fellow/5 CFNetwork/1568.300.101 Darwin/24.2.0"
	requestTimeout   = 15 * time.Second
)

// Config defines runtime configuration for the Fellow client.
type Config struct {
	BaseURL   string
	Email     string
	Password  string
	UserAgent string

	// Transport is the round tripper beneath the user agent and bearer
	// layers. Defaults to http.DefaultTransport.
	Transport http.RoundTripper
	Logger    *slog.Logger
}

func (c Config) withDefaults() Config {
	c.BaseURL = strings.TrimRight(strings.TrimSpace(c.BaseURL), "/")
	if c.BaseURL == "" {
		c.BaseURL = defaultBaseURL
	}
	if c.UserAgent == "" {
		c.UserAgent = defaultUserAgent
	}
	if c.Transport == nil {
		c.Transport = http.DefaultTransport
	}
	if c.Logger == nil {
		c.Logger = slog.New(slog.DiscardHandler)
	}
	return c
}
