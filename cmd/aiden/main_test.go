package main

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/joshp123/fellow-aiden/internal/blob"
	"github.com/joshp123/fellow-aiden/internal/config"
	"github.com/joshp123/fellow-aiden/internal/mqtt"
	"github.com/joshp123/fellow-aiden/internal/mqtt/mqtttest"
	"github.com/joshp123/fellow-aiden/plugins/fellow/fellowtest"
)

type memoryStore struct {
	prefix string
	data   map[string][]byte
}

func (m *memoryStore) Save(_ context.Context, key string, data []byte) error {
	if m.data == nil {
		m.data = make(map[string][]byte)
	}
	m.data[key] = data
	return nil
}

func (m *memoryStore) Location(key string) string {
	return "memory://" + m.prefix + "/" + key
}

type result struct {
	code   int
	stdout string
	stderr string
}

func (r result) doc(t *testing.T) map[string]any {
	t.Helper()
	var doc map[string]any
	if err := json.Unmarshal([]byte(r.stdout), &doc); err != nil {
		t.Fatalf("stdout is not one JSON document: %v\n%s", err, r.stdout)
	}
	return doc
}

func testEnv(server *fellowtest.Server, extra map[string]string) func(string) string {
	env := map[string]string{
		config.EnvEmail:    fellowtest.Email,
		config.EnvPassword: fellowtest.Password,
		config.EnvBaseURL:  server.URL,
	}
	for key, value := range extra {
		env[key] = value
	}
	return func(key string) string { return env[key] }
}

func runWith(t *testing.T, getenv func(string) string, configure func(*app), args ...string) result {
	t.Helper()
	var stdout, stderr bytes.Buffer
	a := newApp(getenv, &stdout, &stderr)
	if configure != nil {
		configure(a)
	}
	code := a.execute(context.Background(), args)
	return result{code: code, stdout: stdout.String(), stderr: stderr.String()}
}

func runCLI(t *testing.T, server *fellowtest.Server, args ...string) result {
	t.Helper()
	return runWith(t, testEnv(server, nil), nil, args...)
}

func TestMissingCredentials(t *testing.T) {
	server := fellowtest.NewServer()
	defer server.Close()

	getenv := func(key string) string {
		if key == config.EnvBaseURL {
			return server.URL
		}
		return ""
	}
	res := runWith(t, getenv, nil, "info")
	if res.code != 1 {
		t.Fatalf("expected exit 1, got %d", res.code)
	}
	if msg, _ := res.doc(t)["error"].(string); !strings.Contains(msg, "FELLOW_EMAIL") {
		t.Fatalf("unexpected error: %q", msg)
	}
	if len(server.Requests) != 0 {
		t.Fatalf("no request should reach the API, got %d", len(server.Requests))
	}
}

func TestBadCredentials(t *testing.T) {
	server := fellowtest.NewServer()
	defer server.Close()

	res := runWith(t, testEnv(server, map[string]string{config.EnvPassword: "wrong"}), nil, "profiles", "list")
	if res.code != 1 {
		t.Fatalf("expected exit 1, got %d", res.code)
	}
	if msg, _ := res.doc(t)["error"].(string); !strings.HasPrefix(msg, "authentication failed") {
		t.Fatalf("unexpected error: %q", msg)
	}
	if calls := server.Calls("/devices"); len(calls) != 0 {
		t.Fatalf("devices must not be listed after failed login")
	}
}

func TestNoDevice(t *testing.T) {
	server := fellowtest.NewServer()
	defer server.Close()
	server.Devices = nil

	res := runCLI(t, server, "status")
	if res.code != 1 {
		t.Fatalf("expected exit 1, got %d", res.code)
	}
	if _, ok := res.doc(t)["error"]; !ok {
		t.Fatalf("expected error document, got %s", res.stdout)
	}
}

func TestUsageErrors(t *testing.T) {
	server := fellowtest.NewServer()
	defer server.Close()

	cases := [][]string{
		{},
		{"bogus"},
		{"profiles"},
		{"profiles", "create"},
		{"schedules", "create", "--days", "mon", "--time", "07:30", "--water", "500"},
	}
	for _, args := range cases {
		res := runCLI(t, server, args...)
		if res.code != 2 {
			t.Fatalf("%v: expected exit 2, got %d (stdout %q)", args, res.code, res.stdout)
		}
		if res.stdout != "" {
			t.Fatalf("%v: usage errors must not write stdout, got %q", args, res.stdout)
		}
		if !strings.Contains(res.stderr, "Error:") {
			t.Fatalf("%v: expected error on stderr, got %q", args, res.stderr)
		}
	}
	if calls := server.Calls("/auth/login"); len(calls) != 0 {
		t.Fatalf("usage errors must not log in, got %d logins", len(calls))
	}
}

func TestInvalidFlagValuesReportJSON(t *testing.T) {
	server := fellowtest.NewServer()
	defer server.Close()

	cases := []struct {
		args []string
		want string
	}{
		{
			args: []string{"schedules", "create", "--days", "mon", "--time", "7:30:00", "--water", "500", "--profile-id", "p0"},
			want: "expected HH:MM",
		},
		{
			args: []string{"profiles", "create", "--title", "x", "--ss-temps", "hot"},
			want: "--ss-temps",
		},
	}
	for _, tc := range cases {
		res := runCLI(t, server, tc.args...)
		if res.code != 0 {
			t.Fatalf("%v: expected exit 0, got %d", tc.args, res.code)
		}
		if msg, _ := res.doc(t)["error"].(string); !strings.Contains(msg, tc.want) {
			t.Fatalf("%v: expected error containing %q, got %q", tc.args, tc.want, msg)
		}
	}
	for _, call := range server.Calls("/devices/") {
		if call.Method == "POST" {
			t.Fatalf("nothing should be created, got POST %s", call.Path)
		}
	}
}

func TestScheduleUnknownDayIgnored(t *testing.T) {
	server := fellowtest.NewServer()
	defer server.Close()

	res := runCLI(t, server, "schedules", "create", "--days", "mon,funday", "--time", "07:30", "--water", "500", "--profile-id", "p0")
	if res.code != 0 || res.doc(t)["success"] != true {
		t.Fatalf("create failed: %d %s", res.code, res.stdout)
	}
	if len(server.Schedules) != 1 {
		t.Fatalf("expected one schedule, got %v", server.Schedules)
	}
	days, _ := server.Schedules[0]["days"].([]any)
	want := []any{false, true, false, false, false, false, false}
	if len(days) != len(want) {
		t.Fatalf("unexpected days: %v", days)
	}
	for i := range want {
		if days[i] != want[i] {
			t.Fatalf("unexpected days: %v", days)
		}
	}
}

func TestInfoAndStatus(t *testing.T) {
	server := fellowtest.NewServer()
	defer server.Close()

	info := runCLI(t, server, "info").doc(t)
	if info["display_name"] != "Kitchen Aiden" || info["timezone"] != "Europe/Amsterdam" {
		t.Fatalf("unexpected info: %v", info)
	}

	status := runCLI(t, server, "status").doc(t)
	if status["device_id"] != fellowtest.DeviceID || status["connected"] != true || status["total_brewing_cycles"] != 42.0 {
		t.Fatalf("unexpected status: %v", status)
	}
}

func TestProfilesFlow(t *testing.T) {
	server := fellowtest.NewServer()
	defer server.Close()

	created := runCLI(t, server, "profiles", "create", "--title", "Test Brew", "--ratio", "17", "--no-bloom", "--ss-pulses", "2")
	if created.code != 0 || created.doc(t)["success"] != true {
		t.Fatalf("create failed: %d %s", created.code, created.stdout)
	}

	list := runCLI(t, server, "profiles", "list").doc(t)
	if list["count"] != 3.0 {
		t.Fatalf("expected 3 profiles, got %v", list["count"])
	}

	got := runCLI(t, server, "profiles", "get", "--title", "test brew").doc(t)
	if got["ratio"] != 17.0 || got["bloomEnabled"] != false || got["ssPulsesNumber"] != 2.0 {
		t.Fatalf("unexpected profile: %v", got)
	}
	temps, _ := got["ssPulseTemperatures"].([]any)
	if len(temps) != 2 {
		t.Fatalf("expected two default pulse temperatures, got %v", got["ssPulseTemperatures"])
	}

	bold := runCLI(t, server, "profiles", "get", "--title", "bold").doc(t)
	if bold["id"] != "p1" {
		t.Fatalf("expected p1, got %v", bold)
	}

	missing := runCLI(t, server, "profiles", "get", "--title", "zzz", "--fuzzy")
	if missing.code != 0 || missing.doc(t)["error"] != "no profile found matching 'zzz'" {
		t.Fatalf("unexpected not found output: %d %s", missing.code, missing.stdout)
	}

	noSelector := runCLI(t, server, "profiles", "share")
	if noSelector.code != 0 || noSelector.doc(t)["error"] != errNoSelector.Error() {
		t.Fatalf("unexpected output: %d %s", noSelector.code, noSelector.stdout)
	}

	share := runCLI(t, server, "profiles", "share", "--title", "bold").doc(t)
	if share["profile_id"] != "p1" || share["share_url"] != "https://brew.link/p/sh0" {
		t.Fatalf("unexpected share: %v", share)
	}

	imported := runCLI(t, server, "profiles", "import", "--url", "https://brew.link/p/sh0").doc(t)
	if imported["success"] != true {
		t.Fatalf("import failed: %v", imported)
	}

	deleted := runCLI(t, server, "profiles", "delete", "--title", "Test").doc(t)
	if deleted["message"] != "Profile 'Test Brew' (id: p2) deleted." {
		t.Fatalf("unexpected delete: %v", deleted)
	}

	gone := runCLI(t, server, "profiles", "delete", "--id", "p2")
	if gone.code != 0 {
		t.Fatalf("remote errors exit 0, got %d", gone.code)
	}
	if msg, _ := gone.doc(t)["error"].(string); !strings.Contains(msg, "404") {
		t.Fatalf("expected 404 error, got %q", msg)
	}
}

func TestSchedulesFlow(t *testing.T) {
	server := fellowtest.NewServer()
	defer server.Close()

	created := runCLI(t, server, "schedules", "create", "--days", "tue,mon", "--time", "07:30", "--water", "500", "--profile-id", "p0").doc(t)
	if created["success"] != true {
		t.Fatalf("create failed: %v", created)
	}
	result, _ := created["result"].(map[string]any)
	if result["secondFromStartOfTheDay"] != 27000.0 || result["enabled"] != true {
		t.Fatalf("unexpected schedule: %v", result)
	}
	days, _ := result["days"].([]any)
	want := []any{false, true, true, false, false, false, false}
	if len(days) != 7 {
		t.Fatalf("unexpected days: %v", days)
	}
	for i := range want {
		if days[i] != want[i] {
			t.Fatalf("unexpected days: %v", days)
		}
	}

	list := runCLI(t, server, "schedules", "list").doc(t)
	if list["count"] != 1.0 {
		t.Fatalf("expected one schedule, got %v", list)
	}

	deleted := runCLI(t, server, "schedules", "delete", "--id", "s0").doc(t)
	if deleted["message"] != "Schedule 's0' deleted." {
		t.Fatalf("unexpected delete: %v", deleted)
	}
}

func TestMetricsCommand(t *testing.T) {
	server := fellowtest.NewServer()
	defer server.Close()

	res := runCLI(t, server, "metrics")
	if res.code != 0 {
		t.Fatalf("exit %d: %s", res.code, res.stdout)
	}
	for _, want := range []string{
		`aiden_fellow_brewer_connected{device_id="dev-1"} 1`,
		`aiden_plugin_health{plugin="fellow",version="0.1.0"} 1`,
		`aiden_fellow_login_total{result="ok"}`,
	} {
		if !strings.Contains(res.stdout, want) {
			t.Fatalf("missing %q in:\n%s", want, res.stdout)
		}
	}
}

func TestMetricsCommandLogsHealth(t *testing.T) {
	server := fellowtest.NewServer()
	defer server.Close()
	server.Devices[0]["isConnected"] = false

	res := runCLI(t, server, "metrics")
	if res.code != 0 {
		t.Fatalf("exit %d: %s", res.code, res.stdout)
	}
	if !strings.Contains(res.stdout, `aiden_plugin_health{plugin="fellow",version="0.1.0"} 0.5`) {
		t.Fatalf("expected degraded health gauge in:\n%s", res.stdout)
	}
	for _, want := range []string{"brewer is offline", "Fellow Aiden", "DEGRADED"} {
		if !strings.Contains(res.stderr, want) {
			t.Fatalf("missing %q in stderr:\n%s", want, res.stderr)
		}
	}

	online := fellowtest.NewServer()
	defer online.Close()
	healthy := runCLI(t, online, "metrics")
	if strings.Contains(healthy.stderr, "plugin not healthy") {
		t.Fatalf("healthy brewer should not log a warning:\n%s", healthy.stderr)
	}
}

func TestPublishCommand(t *testing.T) {
	server := fellowtest.NewServer()
	defer server.Close()

	recorder := &mqtttest.RecordingClient{}
	var dialed config.MQTTConfig
	configure := func(a *app) {
		a.dialMQTT = func(cfg config.MQTTConfig) (*mqtt.Publisher, error) {
			dialed = cfg
			return mqtt.NewPublisher(recorder, cfg.TopicPrefix), nil
		}
	}

	unconfigured := runWith(t, testEnv(server, nil), configure, "publish")
	if unconfigured.code != 0 || unconfigured.doc(t)["error"] != errMQTTNotConfigured.Error() {
		t.Fatalf("unexpected output: %d %s", unconfigured.code, unconfigured.stdout)
	}

	env := testEnv(server, map[string]string{config.EnvMQTTBroker: "tcp://broker:1883"})
	res := runWith(t, env, configure, "publish")
	if res.code != 0 || res.doc(t)["success"] != true {
		t.Fatalf("publish failed: %d %s", res.code, res.stdout)
	}
	if dialed.ClientID != config.DefaultMQTTClientID {
		t.Fatalf("client id = %q", dialed.ClientID)
	}
	if len(recorder.Messages) != 1 {
		t.Fatalf("expected one message, got %d", len(recorder.Messages))
	}
	msg := recorder.Messages[0]
	if msg.Topic != "fellow/dev-1/status" || !msg.Retained {
		t.Fatalf("unexpected message: %+v", msg)
	}
	var status map[string]any
	if err := json.Unmarshal(msg.Payload, &status); err != nil || status["display_name"] != "Kitchen Aiden" {
		t.Fatalf("unexpected payload: %s (%v)", msg.Payload, err)
	}
	if !recorder.Disconnected {
		t.Fatalf("publisher should be closed")
	}
}

func TestProfilesBackup(t *testing.T) {
	server := fellowtest.NewServer()
	defer server.Close()

	store := &memoryStore{prefix: "fellow/profiles"}
	configure := func(a *app) {
		a.openStore = func(config.BlobConfig) (blob.Store, error) {
			return store, nil
		}
	}

	env := testEnv(server, map[string]string{
		config.EnvBlobEndpoint:      "https://s3.example.com",
		config.EnvBlobBucket:        "coffee",
		config.EnvBlobAccessKeyFile: "/run/secrets/access",
		config.EnvBlobSecretKeyFile: "/run/secrets/secret",
	})
	res := runWith(t, env, configure, "profiles", "backup")
	if res.code != 0 || res.doc(t)["message"] != "2 profiles saved to memory://fellow/profiles/dev-1/profiles.json" {
		t.Fatalf("unexpected backup output: %d %s", res.code, res.stdout)
	}

	data, ok := store.data["dev-1/profiles.json"]
	if !ok {
		t.Fatalf("backup not saved, have %v", store.data)
	}
	var listing map[string]any
	if err := json.Unmarshal(data, &listing); err != nil || listing["count"] != 2.0 {
		t.Fatalf("unexpected backup: %s (%v)", data, err)
	}

	unconfigured := runWith(t, testEnv(server, nil), configure, "profiles", "backup")
	if unconfigured.doc(t)["error"] != errBlobNotConfigured.Error() {
		t.Fatalf("unexpected output: %s", unconfigured.stdout)
	}
}
