package fellow

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
)

const devicesPath = "/devices?dataType=real"

// Client talks to the Fellow Aiden API on behalf of the first brewer bound
// to the account.
type Client struct {
	session *Session
	device  Device
	logger  *slog.Logger
}

// NewClient authenticates and resolves the active brewer. Both steps block
// and either failure is returned unchanged.
func NewClient(ctx context.Context, cfg Config) (*Client, error) {
	cfg = cfg.withDefaults()

	session, err := Authenticate(ctx, cfg)
	if err != nil {
		return nil, err
	}

	device, err := ResolveDevice(ctx, session)
	if err != nil {
		return nil, err
	}
	cfg.Logger.Info("fellow brewer resolved", "device_id", device.ID, "name", device.DisplayName)

	return &Client{session: session, device: device, logger: cfg.Logger}, nil
}

// ResolveDevice lists the devices bound to the account and returns the
// first one. Accounts with several brewers always get the first listed.
func ResolveDevice(ctx context.Context, session *Session) (Device, error) {
	var raw []json.RawMessage
	if err := session.getJSON(ctx, devicesPath, &raw); err != nil {
		return Device{}, RemoteError{Op: "list devices", Err: err}
	}
	if len(raw) == 0 {
		return Device{}, ErrNoDevice
	}
	if len(raw) > 1 {
		session.logger.Warn("multiple brewers on account; using the first", "count", len(raw))
	}

	var device Device
	if err := json.Unmarshal(raw[0], &device); err != nil {
		return Device{}, RemoteError{Op: "decode device", Err: err}
	}
	if err := json.Unmarshal(raw[0], &device.Attributes); err != nil {
		return Device{}, RemoteError{Op: "decode device", Err: err}
	}
	if device.ID == "" {
		return Device{}, RemoteError{Op: "decode device", Err: fmt.Errorf("device has no id")}
	}
	return device, nil
}

// Device returns the snapshot taken at construction.
func (c *Client) Device() Device {
	return c.device
}

func (c *Client) DeviceID() string {
	return c.device.ID
}

// DisplayName is the brewer name shown in the vendor app.
func (c *Client) DisplayName() string {
	return c.device.DisplayName
}

func (c *Client) devicePath(parts ...string) string {
	var b strings.Builder
	b.WriteString("/devices/")
	b.WriteString(url.PathEscape(c.device.ID))
	for _, part := range parts {
		b.WriteString("/")
		b.WriteString(url.PathEscape(part))
	}
	return b.String()
}
