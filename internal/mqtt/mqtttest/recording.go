// Package mqtttest provides an in-memory MQTT client for tests.
package mqtttest

import (
	"sync"
	"time"

	pahomqtt "github.com/eclipse/paho.mqtt.golang"
)

// Message is a publish captured by RecordingClient.
type Message struct {
	Topic    string
	QoS      byte
	Retained bool
	Payload  []byte
}

// RecordingClient is a pahomqtt.Client that keeps published messages in
// memory. Only Publish, Disconnect and IsConnected are implemented.
type RecordingClient struct {
	pahomqtt.Client

	mu           sync.Mutex
	Messages     []Message
	Disconnected bool
	PublishErr   error
}

func (c *RecordingClient) Publish(topic string, qos byte, retained bool, payload interface{}) pahomqtt.Token {
	c.mu.Lock()
	defer c.mu.Unlock()
	var data []byte
	switch typed := payload.(type) {
	case []byte:
		data = append([]byte(nil), typed...)
	case string:
		data = []byte(typed)
	}
	c.Messages = append(c.Messages, Message{Topic: topic, QoS: qos, Retained: retained, Payload: data})
	return doneToken{err: c.PublishErr}
}

func (c *RecordingClient) Disconnect(uint) {
	c.mu.Lock()
	c.Disconnected = true
	c.mu.Unlock()
}

func (c *RecordingClient) IsConnected() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return !c.Disconnected
}

type doneToken struct {
	err error
}

func (t doneToken) Wait() bool                     { return true }
func (t doneToken) WaitTimeout(time.Duration) bool { return true }
func (t doneToken) Error() error                   { return t.err }

func (t doneToken) Done() <-chan struct{} {
	ch := make(chan struct{})
	close(ch)
	return ch
}
