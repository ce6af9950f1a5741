package mqtt

import (
	"errors"
	"testing"

	"github.com/joshp123/fellow-aiden/internal/mqtt/mqtttest"
)

func TestPublisherTopic(t *testing.T) {
	pub := NewPublisher(&mqtttest.RecordingClient{}, "/fellow/")

	if got := pub.Topic("dev-1", "status"); got != "fellow/dev-1/status" {
		t.Fatalf("unexpected topic: %s", got)
	}
	if got := pub.Topic("dev+1#", "", "status"); got != "fellow/dev_1_/status" {
		t.Fatalf("unexpected sanitized topic: %s", got)
	}

	bare := NewPublisher(&mqtttest.RecordingClient{}, "")
	if got := bare.Topic("dev-1", "status"); got != "dev-1/status" {
		t.Fatalf("unexpected topic without prefix: %s", got)
	}
}

func TestPublisherPublish(t *testing.T) {
	client := &mqtttest.RecordingClient{}
	pub := NewPublisher(client, "fellow")

	if err := pub.Publish("fellow/dev-1/status", []byte(`{"ok":true}`), true); err != nil {
		t.Fatalf("Publish: %v", err)
	}
	if len(client.Messages) != 1 {
		t.Fatalf("expected 1 message, got %d", len(client.Messages))
	}
	msg := client.Messages[0]
	if msg.Topic != "fellow/dev-1/status" || !msg.Retained || msg.QoS != 1 {
		t.Fatalf("unexpected message: %+v", msg)
	}
	if string(msg.Payload) != `{"ok":true}` {
		t.Fatalf("unexpected payload: %s", msg.Payload)
	}

	pub.Close()
	if !client.Disconnected {
		t.Fatalf("expected Close to disconnect")
	}
}

func TestPublisherPublishError(t *testing.T) {
	client := &mqtttest.RecordingClient{PublishErr: errors.New("not authorized")}
	pub := NewPublisher(client, "fellow")

	if err := pub.Publish("fellow/x", []byte("{}"), false); err == nil {
		t.Fatalf("expected publish error")
	}
}

func TestBrokerURL(t *testing.T) {
	cases := []struct {
		raw    string
		want   string
		useTLS bool
		ok     bool
	}{
		{raw: "tcp://broker:1883", want: "tcp://broker:1883", ok: true},
		{raw: "mqtt://broker:1883", want: "tcp://broker:1883", ok: true},
		{raw: "mqtts://broker:8883", want: "ssl://broker:8883", useTLS: true, ok: true},
		{raw: "wss://broker/mqtt", want: "wss://broker/mqtt", useTLS: true, ok: true},
		{raw: "http://broker", ok: false},
		{raw: "broker", ok: false},
	}
	for _, tc := range cases {
		got, useTLS, err := brokerURL(tc.raw)
		if !tc.ok {
			if err == nil {
				t.Fatalf("brokerURL(%q): expected error", tc.raw)
			}
			continue
		}
		if err != nil {
			t.Fatalf("brokerURL(%q): %v", tc.raw, err)
		}
		if got != tc.want || useTLS != tc.useTLS {
			t.Fatalf("brokerURL(%q) = %q, %v; want %q, %v", tc.raw, got, useTLS, tc.want, tc.useTLS)
		}
	}
}
