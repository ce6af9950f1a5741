package fellow

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"strings"
)

const (
	defaultPulseTemperature = 96
	sharedPath              = "/shared/"
)

// serverManagedFields are present on shared profiles but rejected on create.
var serverManagedFields = []string{
	"id",
	"createdAt",
	"deletedAt",
	"lastUsedTime",
	"sharedFrom",
	"isDefaultProfile",
	"instantBrew",
	"folder",
	"duration",
	"lastGBQuantity",
}

// ProfileSpec is the body accepted by the profile create endpoint.
type ProfileSpec struct {
	ProfileType            int       `json:"profileType"`
	Title                  string    `json:"title"`
	Ratio                  float64   `json:"ratio"`
	BloomEnabled           bool      `json:"bloomEnabled"`
	BloomRatio             float64   `json:"bloomRatio"`
	BloomDuration          int       `json:"bloomDuration"`
	BloomTemperature       float64   `json:"bloomTemperature"`
	SSPulsesEnabled        bool      `json:"ssPulsesEnabled"`
	SSPulsesNumber         int       `json:"ssPulsesNumber"`
	SSPulsesInterval       int       `json:"ssPulsesInterval"`
	SSPulseTemperatures    []float64 `json:"ssPulseTemperatures"`
	BatchPulsesEnabled     bool      `json:"batchPulsesEnabled"`
	BatchPulsesNumber      int       `json:"batchPulsesNumber"`
	BatchPulsesInterval    int       `json:"batchPulsesInterval"`
	BatchPulseTemperatures []float64 `json:"batchPulseTemperatures"`
}

// DefaultProfileSpec mirrors the defaults of the vendor app for a new
// profile.
func DefaultProfileSpec(title string) ProfileSpec {
	spec := ProfileSpec{
		Title:               title,
		Ratio:               16,
		BloomEnabled:        true,
		BloomRatio:          2,
		BloomDuration:       30,
		BloomTemperature:    96,
		SSPulsesNumber:      3,
		SSPulsesInterval:    20,
		BatchPulsesNumber:   2,
		BatchPulsesInterval: 30,
	}
	spec.Normalize()
	return spec
}

// Normalize derives the enabled flags from the pulse counts and fills in
// missing pulse temperatures.
func (s *ProfileSpec) Normalize() {
	s.SSPulsesEnabled = s.SSPulsesNumber > 0
	s.BatchPulsesEnabled = s.BatchPulsesNumber > 0
	if len(s.SSPulseTemperatures) == 0 {
		s.SSPulseTemperatures = repeatTemperature(s.SSPulsesNumber)
	}
	if len(s.BatchPulseTemperatures) == 0 {
		s.BatchPulseTemperatures = repeatTemperature(s.BatchPulsesNumber)
	}
}

// ParseTemperatures reads a comma-separated list such as "96,97,98".
func ParseTemperatures(raw string) ([]float64, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, nil
	}
	parts := strings.Split(raw, ",")
	out := make([]float64, 0, len(parts))
	for _, part := range parts {
		value, err := strconv.ParseFloat(strings.TrimSpace(part), 64)
		if err != nil {
			return nil, fmt.Errorf("invalid temperature %q", strings.TrimSpace(part))
		}
		out = append(out, value)
	}
	return out, nil
}

func repeatTemperature(n int) []float64 {
	out := make([]float64, 0, max(n, 0))
	for i := 0; i < n; i++ {
		out = append(out, defaultPulseTemperature)
	}
	return out
}

// Profiles lists the brew profiles stored on the brewer.
func (c *Client) Profiles(ctx context.Context) ([]Profile, error) {
	var profiles []Profile
	if err := c.session.getJSON(ctx, c.devicePath("profiles"), &profiles); err != nil {
		return nil, RemoteError{Op: "list profiles", Err: err}
	}
	return profiles, nil
}

// Profile returns the profile with the given id.
func (c *Client) Profile(ctx context.Context, id string) (Profile, error) {
	profiles, err := c.Profiles(ctx)
	if err != nil {
		return nil, err
	}
	for _, profile := range profiles {
		if profile.ID() == id {
			return profile, nil
		}
	}
	return nil, NotFoundError{Kind: "profile", ID: id}
}

// FindProfile returns the first profile whose title matches, see
// MatchProfile.
func (c *Client) FindProfile(ctx context.Context, title string, fuzzy bool) (Profile, error) {
	profiles, err := c.Profiles(ctx)
	if err != nil {
		return nil, err
	}
	profile, ok := MatchProfile(profiles, title, fuzzy)
	if !ok {
		return nil, NotFoundError{Kind: "profile", Title: title}
	}
	return profile, nil
}

// MatchProfile looks a profile up by title. A case-insensitive substring
// match wins first; with fuzzy set, a profile also matches when any word of
// its title starts with the query. List order breaks ties.
func MatchProfile(profiles []Profile, title string, fuzzy bool) (Profile, bool) {
	needle := strings.ToLower(strings.TrimSpace(title))
	if needle == "" {
		return nil, false
	}

	for _, profile := range profiles {
		if strings.Contains(strings.ToLower(profile.Title()), needle) {
			return profile, true
		}
	}
	if !fuzzy {
		return nil, false
	}

	for _, profile := range profiles {
		for _, word := range strings.Fields(strings.ToLower(profile.Title())) {
			if strings.HasPrefix(word, needle) {
				return profile, true
			}
		}
	}
	return nil, false
}

// CreateProfile stores a new profile and returns the server answer as is.
func (c *Client) CreateProfile(ctx context.Context, spec ProfileSpec) (json.RawMessage, error) {
	var result json.RawMessage
	if err := c.session.postJSON(ctx, c.devicePath("profiles"), spec, &result); err != nil {
		return nil, RemoteError{Op: "create profile", Err: err}
	}
	return result, nil
}

func (c *Client) DeleteProfile(ctx context.Context, id string) (json.RawMessage, error) {
	var result json.RawMessage
	if err := c.session.delete(ctx, c.devicePath("profiles", id), &result); err != nil {
		return nil, RemoteError{Op: "delete profile", Err: err}
	}
	return result, nil
}

// ImportProfile copies a profile published as a brew.link URL onto the
// brewer.
func (c *Client) ImportProfile(ctx context.Context, link string) (json.RawMessage, error) {
	brewLinkID, err := BrewLinkID(link)
	if err != nil {
		return nil, err
	}

	var shared map[string]any
	if err := c.session.getJSON(ctx, sharedPath+url.PathEscape(brewLinkID), &shared); err != nil {
		return nil, RemoteError{Op: "fetch shared profile", Err: err}
	}
	if len(shared) == 0 {
		return nil, NotFoundError{Kind: "shared profile", ID: brewLinkID}
	}
	for _, field := range serverManagedFields {
		delete(shared, field)
	}

	var result json.RawMessage
	if err := c.session.postJSON(ctx, c.devicePath("profiles"), shared, &result); err != nil {
		return nil, RemoteError{Op: "import profile", Err: err}
	}
	return result, nil
}

// ShareLink publishes a profile and returns its brew.link URL.
func (c *Client) ShareLink(ctx context.Context, id string) (string, error) {
	var resp struct {
		Link string `json:"link"`
	}
	if err := c.session.postJSON(ctx, c.devicePath("profiles", id, "share"), nil, &resp); err != nil {
		return "", RemoteError{Op: "share profile", Err: err}
	}
	if resp.Link == "" {
		return "", RemoteError{Op: "share profile", Err: fmt.Errorf("response has no link")}
	}
	return resp.Link, nil
}

// BrewLinkID extracts the profile key from a URL like
// https://brew.link/p/ws98.
func BrewLinkID(link string) (string, error) {
	parsed, err := url.Parse(strings.TrimSpace(link))
	if err != nil {
		return "", fmt.Errorf("parse brew link: %w", err)
	}
	segments := strings.Split(strings.Trim(parsed.Path, "/"), "/")
	for i := 0; i+1 < len(segments); i++ {
		if segments[i] == "p" && segments[i+1] != "" {
			return segments[i+1], nil
		}
	}
	return "", fmt.Errorf("invalid brew link %q: expected .../p/<id>", link)
}
