package fellow

import (
	"context"
	"errors"
	"testing"

	"github.com/joshp123/fellow-aiden/plugins/fellow/fellowtest"
)

func newTestClient(t *testing.T) (*Client, *fellowtest.Server) {
	t.Helper()
	server := fellowtest.NewServer()
	t.Cleanup(server.Close)

	client, err := NewClient(context.Background(), Config{
		BaseURL:  server.URL + "/",
		Email:    fellowtest.Email,
		Password: fellowtest.Password,
	})
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	return client, server
}

func TestAuthenticateSendsHeaders(t *testing.T) {
	client, server := newTestClient(t)

	if _, err := client.Profiles(context.Background()); err != nil {
		t.Fatalf("profiles: %v", err)
	}

	login := server.Calls("/auth/login")
	if len(login) != 1 {
		t.Fatalf("expected one login, got %d", len(login))
	}
	if got := login[0].Header.Get("User-Agent"); got != defaultUserAgent {
		t.Fatalf("login user agent = %q", got)
	}
	if got := login[0].Header.Get("Authorization"); got != "" {
		t.Fatalf("login must not carry a token, got %q", got)
	}

	calls := server.Calls("/devices")
	if len(calls) != 2 {
		t.Fatalf("expected devices and profiles calls, got %d", len(calls))
	}
	if calls[0].Query != "dataType=real" {
		t.Fatalf("devices query = %q", calls[0].Query)
	}
	for _, call := range calls {
		if got := call.Header.Get("Authorization"); got != "Bearer "+fellowtest.Token {
			t.Fatalf("%s authorization = %q", call.Path, got)
		}
		if got := call.Header.Get("User-Agent"); got != defaultUserAgent {
			t.Fatalf("%s user agent = %q", call.Path, got)
		}
	}
}

func TestAuthenticateRejected(t *testing.T) {
	server := fellowtest.NewServer()
	defer server.Close()

	_, err := NewClient(context.Background(), Config{
		BaseURL:  server.URL,
		Email:    fellowtest.Email,
		Password: "wrong",
	})
	var authErr AuthError
	if !errors.As(err, &authErr) {
		t.Fatalf("expected AuthError, got %v", err)
	}
	var statusErr HTTPStatusError
	if !errors.As(err, &statusErr) || statusErr.Status != 401 {
		t.Fatalf("expected wrapped 401, got %v", err)
	}
	if !IsFatal(err) {
		t.Fatalf("auth failure should be fatal")
	}
	if calls := server.Calls("/devices"); len(calls) != 0 {
		t.Fatalf("devices must not be queried after failed login, got %d calls", len(calls))
	}
}

func TestAuthenticateMissingToken(t *testing.T) {
	server := fellowtest.NewServer()
	defer server.Close()
	server.LoginBody = `{"refreshToken":"r"}`

	_, err := Authenticate(context.Background(), Config{
		BaseURL:  server.URL,
		Email:    fellowtest.Email,
		Password: fellowtest.Password,
	})
	var authErr AuthError
	if !errors.As(err, &authErr) {
		t.Fatalf("expected AuthError, got %v", err)
	}
}

func TestAuthenticateRequiresCredentials(t *testing.T) {
	_, err := Authenticate(context.Background(), Config{BaseURL: "http://127.0.0.1:1"})
	var authErr AuthError
	if !errors.As(err, &authErr) {
		t.Fatalf("expected AuthError, got %v", err)
	}
}

func TestResolveDeviceUsesFirst(t *testing.T) {
	server := fellowtest.NewServer()
	defer server.Close()
	server.Devices = append(server.Devices, map[string]any{"id": "dev-2", "displayName": "Office"})

	client, err := NewClient(context.Background(), Config{
		BaseURL:  server.URL,
		Email:    fellowtest.Email,
		Password: fellowtest.Password,
	})
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	if client.DeviceID() != fellowtest.DeviceID {
		t.Fatalf("device id = %q", client.DeviceID())
	}
	if client.DisplayName() != "Kitchen Aiden" {
		t.Fatalf("display name = %q", client.DisplayName())
	}

	device := client.Device()
	if !device.IsConnected || device.TotalBrewingCycles != 42 || device.TotalWaterVolumeL != 63.5 {
		t.Fatalf("unexpected snapshot: %+v", device)
	}
	if device.Attributes["timezone"] != "Europe/Amsterdam" {
		t.Fatalf("attributes should keep unknown fields, got %v", device.Attributes)
	}
}

func TestResolveDeviceEmpty(t *testing.T) {
	server := fellowtest.NewServer()
	defer server.Close()
	server.Devices = nil

	_, err := NewClient(context.Background(), Config{
		BaseURL:  server.URL,
		Email:    fellowtest.Email,
		Password: fellowtest.Password,
	})
	if !errors.Is(err, ErrNoDevice) {
		t.Fatalf("expected ErrNoDevice, got %v", err)
	}
	if !IsFatal(err) {
		t.Fatalf("no device should be fatal")
	}
}

func TestRemoteErrorIsNotFatal(t *testing.T) {
	err := RemoteError{Op: "list profiles", Err: HTTPStatusError{Status: 500, Body: "boom\n"}}
	if IsFatal(err) {
		t.Fatalf("remote errors must not be fatal")
	}
	if got := err.Error(); got != "list profiles: fellow api error 500: boom" {
		t.Fatalf("error text = %q", got)
	}
}
