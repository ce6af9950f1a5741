// Package fellowtest provides an in-memory stand-in for the Fellow cloud API.
package fellowtest

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
)

const (
	Email    = "brewer@example.com"
	Password = "hunter2"
	Token    = "test-token"
	DeviceID = "dev-1"
)

// Request is one call observed by the server.
type Request struct {
	Method string
	Path   string
	Query  string
	Header http.Header
	Body   []byte
}

// Server emulates the subset of the Fellow API used by the client.
type Server struct {
	*httptest.Server

	mu        sync.Mutex
	Devices   []map[string]any
	Profiles  []map[string]any
	Schedules []map[string]any
	Shared    map[string]map[string]any
	Requests  []Request

	// LoginBody, when set, replaces the successful login response.
	LoginBody string

	nextProfile  int
	nextSchedule int
	nextShare    int
}

// NewServer starts a server with one brewer and two profiles.
func NewServer() *Server {
	s := &Server{
		Devices: []map[string]any{{
			"id":                      DeviceID,
			"displayName":             "Kitchen Aiden",
			"serialNumber":            "FA-0001",
			"firmwareVersion":         "1.2.3",
			"isConnected":             true,
			"totalBrewingCycles":      42,
			"totalWaterVolumeL":       63.5,
			"carafePresent":           true,
			"singleBrewBasketPresent": false,
			"batchBrewBasketPresent":  true,
			"selectedProfileId":       "p0",
			"brewing":                 false,
			"timezone":                "Europe/Amsterdam",
		}},
		Profiles: []map[string]any{
			{"id": "p0", "title": "Morning Brew", "ratio": 16.0},
			{"id": "p1", "title": "Bold Batch", "ratio": 15.0},
		},
		Schedules: []map[string]any{},
		Shared:    map[string]map[string]any{},
	}
	s.nextProfile = len(s.Profiles)
	s.Server = httptest.NewServer(http.HandlerFunc(s.handle))
	return s
}

// Calls returns the recorded requests whose path starts with prefix.
func (s *Server) Calls(prefix string) []Request {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []Request
	for _, req := range s.Requests {
		if strings.HasPrefix(req.Path, prefix) {
			out = append(out, req)
		}
	}
	return out
}

func (s *Server) handle(w http.ResponseWriter, r *http.Request) {
	body, _ := io.ReadAll(r.Body)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.Requests = append(s.Requests, Request{
		Method: r.Method,
		Path:   r.URL.Path,
		Query:  r.URL.RawQuery,
		Header: r.Header.Clone(),
		Body:   body,
	})

	if r.URL.Path == "/auth/login" {
		s.login(w, r, body)
		return
	}
	if r.Header.Get("Authorization") != "Bearer "+Token {
		writeJSON(w, http.StatusUnauthorized, map[string]any{"message": "Unauthorized"})
		return
	}

	parts := strings.Split(strings.Trim(r.URL.Path, "/"), "/")
	switch {
	case len(parts) == 1 && parts[0] == "devices" && r.Method == http.MethodGet:
		writeJSON(w, http.StatusOK, s.Devices)
	case len(parts) == 2 && parts[0] == "shared" && r.Method == http.MethodGet:
		profile, ok := s.Shared[parts[1]]
		if !ok {
			writeJSON(w, http.StatusNotFound, map[string]any{"message": "Shared profile not found"})
			return
		}
		writeJSON(w, http.StatusOK, profile)
	case len(parts) >= 3 && parts[0] == "devices":
		if parts[1] != DeviceID {
			writeJSON(w, http.StatusNotFound, map[string]any{"message": "Device not found"})
			return
		}
		s.deviceResource(w, r, parts[2:], body)
	default:
		writeJSON(w, http.StatusNotFound, map[string]any{"message": "Not found"})
	}
}

func (s *Server) login(w http.ResponseWriter, r *http.Request, body []byte) {
	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]any{"message": "Method not allowed"})
		return
	}
	var creds struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := json.Unmarshal(body, &creds); err != nil || creds.Email != Email || creds.Password != Password {
		writeJSON(w, http.StatusUnauthorized, map[string]any{"message": "Invalid credentials"})
		return
	}
	if s.LoginBody != "" {
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, s.LoginBody)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"accessToken": Token, "refreshToken": "refresh-token"})
}

func (s *Server) deviceResource(w http.ResponseWriter, r *http.Request, parts []string, body []byte) {
	switch parts[0] {
	case "profiles":
		s.profiles(w, r, parts[1:], body)
	case "schedules":
		s.schedules(w, r, parts[1:], body)
	default:
		writeJSON(w, http.StatusNotFound, map[string]any{"message": "Not found"})
	}
}

func (s *Server) profiles(w http.ResponseWriter, r *http.Request, parts []string, body []byte) {
	switch {
	case len(parts) == 0 && r.Method == http.MethodGet:
		writeJSON(w, http.StatusOK, s.Profiles)
	case len(parts) == 0 && r.Method == http.MethodPost:
		var profile map[string]any
		if err := json.Unmarshal(body, &profile); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]any{"message": "Invalid body"})
			return
		}
		if _, ok := profile["id"]; ok {
			writeJSON(w, http.StatusBadRequest, map[string]any{"message": "id is server assigned"})
			return
		}
		profile["id"] = fmt.Sprintf("p%d", s.nextProfile)
		s.nextProfile++
		s.Profiles = append(s.Profiles, profile)
		writeJSON(w, http.StatusOK, profile)
	case len(parts) == 1 && r.Method == http.MethodDelete:
		idx := indexOf(s.Profiles, parts[0])
		if idx < 0 {
			writeJSON(w, http.StatusNotFound, map[string]any{"message": "Profile not found"})
			return
		}
		s.Profiles = append(s.Profiles[:idx], s.Profiles[idx+1:]...)
		writeJSON(w, http.StatusOK, map[string]any{"id": parts[0], "deleted": true})
	case len(parts) == 2 && parts[1] == "share" && r.Method == http.MethodPost:
		idx := indexOf(s.Profiles, parts[0])
		if idx < 0 {
			writeJSON(w, http.StatusNotFound, map[string]any{"message": "Profile not found"})
			return
		}
		code := fmt.Sprintf("sh%d", s.nextShare)
		s.nextShare++
		shared := map[string]any{"createdAt": "2026-01-01T00:00:00Z", "sharedFrom": DeviceID}
		for key, value := range s.Profiles[idx] {
			shared[key] = value
		}
		s.Shared[code] = shared
		writeJSON(w, http.StatusOK, map[string]any{"link": "https://brew.link/p/" + code})
	default:
		writeJSON(w, http.StatusNotFound, map[string]any{"message": "Not found"})
	}
}

func (s *Server) schedules(w http.ResponseWriter, r *http.Request, parts []string, body []byte) {
	switch {
	case len(parts) == 0 && r.Method == http.MethodGet:
		writeJSON(w, http.StatusOK, s.Schedules)
	case len(parts) == 0 && r.Method == http.MethodPost:
		var schedule map[string]any
		if err := json.Unmarshal(body, &schedule); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]any{"message": "Invalid body"})
			return
		}
		schedule["id"] = fmt.Sprintf("s%d", s.nextSchedule)
		s.nextSchedule++
		s.Schedules = append(s.Schedules, schedule)
		writeJSON(w, http.StatusOK, schedule)
	case len(parts) == 1 && r.Method == http.MethodDelete:
		idx := indexOf(s.Schedules, parts[0])
		if idx < 0 {
			writeJSON(w, http.StatusNotFound, map[string]any{"message": "Schedule not found"})
			return
		}
		s.Schedules = append(s.Schedules[:idx], s.Schedules[idx+1:]...)
		writeJSON(w, http.StatusOK, map[string]any{"id": parts[0], "deleted": true})
	default:
		writeJSON(w, http.StatusNotFound, map[string]any{"message": "Not found"})
	}
}

func indexOf(items []map[string]any, id string) int {
	for i, item := range items {
		if item["id"] == id {
			return i
		}
	}
	return -1
}

func writeJSON(w http.ResponseWriter, status int, value any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(value)
}
