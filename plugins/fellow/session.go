package fellow

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"golang.org/x/oauth2"
)

const loginPath = "/auth/login"

// Session is an authenticated connection to the Fellow API. Every request
// made through it carries the user agent and bearer token.
type Session struct {
	baseURL string
	http    *http.Client
	logger  *slog.Logger
}

// Authenticate logs in with the configured credentials and returns a session
// bound to the issued access token. There is no retry and no refresh.
func Authenticate(ctx context.Context, cfg Config) (*Session, error) {
	cfg = cfg.withDefaults()
	if strings.TrimSpace(cfg.Email) == "" || cfg.Password == "" {
		loginTotal.WithLabelValues("error").Inc()
		return nil, AuthError{Err: errors.New("email and password are required")}
	}

	base := &http.Client{
		Timeout:   requestTimeout,
		Transport: userAgentTransport{base: cfg.Transport, userAgent: cfg.UserAgent},
	}

	token, err := login(ctx, base, cfg)
	if err != nil {
		loginTotal.WithLabelValues("error").Inc()
		return nil, AuthError{Err: err}
	}
	loginTotal.WithLabelValues("ok").Inc()
	cfg.Logger.Info("fellow login ok", "email", cfg.Email)

	ctx = context.WithValue(ctx, oauth2.HTTPClient, base)
	client := oauth2.NewClient(ctx, oauth2.StaticTokenSource(&oauth2.Token{
		AccessToken: token,
		TokenType:   "Bearer",
	}))
	client.Timeout = requestTimeout

	return &Session{
		baseURL: cfg.BaseURL,
		http:    client,
		logger:  cfg.Logger,
	}, nil
}

func login(ctx context.Context, client *http.Client, cfg Config) (string, error) {
	body, err := json.Marshal(map[string]string{
		"email":    cfg.Email,
		"password": cfg.Password,
	})
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, cfg.BaseURL+loginPath, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return "", fmt.Errorf("login request: %w", err)
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read login response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", HTTPStatusError{Status: resp.StatusCode, Body: string(payload)}
	}

	var out struct {
		AccessToken string `json:"accessToken"`
	}
	if err := json.Unmarshal(payload, &out); err != nil {
		return "", fmt.Errorf("decode login response: %w", err)
	}
	if out.AccessToken == "" {
		return "", errors.New("login response missing accessToken")
	}
	return out.AccessToken, nil
}

// getJSON decodes the response body of a GET into out.
func (s *Session) getJSON(ctx context.Context, path string, out any) error {
	return s.do(ctx, http.MethodGet, path, nil, out)
}

func (s *Session) postJSON(ctx context.Context, path string, payload, out any) error {
	return s.do(ctx, http.MethodPost, path, payload, out)
}

func (s *Session) delete(ctx context.Context, path string, out any) error {
	return s.do(ctx, http.MethodDelete, path, nil, out)
}

func (s *Session) do(ctx context.Context, method, path string, payload, out any) error {
	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, s.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")

	resp, err := s.http.Do(req)
	if err != nil {
		requestTotal.WithLabelValues(method, "error").Inc()
		return fmt.Errorf("request %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	requestTotal.WithLabelValues(method, strconv.Itoa(resp.StatusCode)).Inc()
	s.logger.Debug("fellow api", "method", method, "path", path, "status", resp.StatusCode)

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return HTTPStatusError{Status: resp.StatusCode, Body: string(data)}
	}
	if out == nil || len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}
	return nil
}

type userAgentTransport struct {
	base      http.RoundTripper
	userAgent string
}

func (t userAgentTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	clone := req.Clone(req.Context())
	clone.Header.Set("User-Agent", t.userAgent)
	return t.base.RoundTrip(clone)
}
