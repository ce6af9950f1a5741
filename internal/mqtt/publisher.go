package mqtt

import (
	"crypto/tls"
	"fmt"
	"net/url"
	"strings"
	"time"

	pahomqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/joshp123/fellow-aiden/internal/config"
)

const (
	connectTimeout    = 10 * time.Second
	publishTimeout    = 10 * time.Second
	disconnectQuiesce = 250
	qosAtLeastOnce    = 1
)

// Publisher sends brewer documents to an MQTT broker under a topic prefix.
type Publisher struct {
	client pahomqtt.Client
	prefix string
}

// Connect dials the broker described by cfg and blocks until connected.
func Connect(cfg config.MQTTConfig) (*Publisher, error) {
	opts := pahomqtt.NewClientOptions()
	broker, useTLS, err := brokerURL(cfg.Broker)
	if err != nil {
		return nil, err
	}
	opts.AddBroker(broker)
	if useTLS {
		opts.SetTLSConfig(&tls.Config{MinVersion: tls.VersionTLS12})
	}
	opts.SetClientID(cfg.ClientID)
	opts.SetUsername(cfg.Username)
	opts.SetPassword(cfg.Password)
	opts.SetCleanSession(true)
	opts.SetAutoReconnect(false)
	opts.SetConnectTimeout(connectTimeout)

	client := pahomqtt.NewClient(opts)
	token := client.Connect()
	if !token.WaitTimeout(connectTimeout) {
		return nil, fmt.Errorf("connect %s: timed out", broker)
	}
	if err := token.Error(); err != nil {
		return nil, fmt.Errorf("connect %s: %w", broker, err)
	}
	return NewPublisher(client, cfg.TopicPrefix), nil
}

// NewPublisher wraps an already connected client.
func NewPublisher(client pahomqtt.Client, prefix string) *Publisher {
	return &Publisher{client: client, prefix: strings.Trim(prefix, "/")}
}

// Topic joins parts under the configured prefix.
func (p *Publisher) Topic(parts ...string) string {
	segments := make([]string, 0, len(parts)+1)
	if p.prefix != "" {
		segments = append(segments, p.prefix)
	}
	for _, part := range parts {
		part = strings.Trim(part, "/")
		if part == "" {
			continue
		}
		segments = append(segments, sanitizeSegment(part))
	}
	return strings.Join(segments, "/")
}

// Publish sends payload with QoS 1 and waits for the broker to acknowledge.
func (p *Publisher) Publish(topic string, payload []byte, retain bool) error {
	token := p.client.Publish(topic, qosAtLeastOnce, retain, payload)
	if !token.WaitTimeout(publishTimeout) {
		return fmt.Errorf("publish %s: timed out", topic)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("publish %s: %w", topic, err)
	}
	return nil
}

func (p *Publisher) Close() {
	p.client.Disconnect(disconnectQuiesce)
}

func brokerURL(raw string) (string, bool, error) {
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return "", false, fmt.Errorf("invalid broker %q", raw)
	}
	switch u.Scheme {
	case "tcp", "mqtt":
		return "tcp://" + u.Host, false, nil
	case "ssl", "tls", "mqtts":
		return "ssl://" + u.Host, true, nil
	case "ws":
		return raw, false, nil
	case "wss":
		return raw, true, nil
	default:
		return "", false, fmt.Errorf("unsupported broker scheme %q", u.Scheme)
	}
}

// sanitizeSegment strips MQTT wildcard characters from a topic level.
func sanitizeSegment(segment string) string {
	return strings.Map(func(r rune) rune {
		switch r {
		case '+', '#', '/':
			return '_'
		}
		return r
	}, segment)
}
