package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/akvarma/devpulse/internal/model"
)

const mqttTimeout = 10 * time.Second

// MQTTProvider publishes notifications as JSON to a broker topic.
type MQTTProvider struct {
	client mqtt.Client
	topic  string
}

// NewMQTT connects to the broker and returns an MQTT notification provider.
func NewMQTT(broker, clientID, username, password, topic string) (*MQTTProvider, error) {
	if clientID == "" {
		clientID = "devpulse-notifier"
	}
	opts := mqtt.NewClientOptions().
		AddBroker(broker).
		SetClientID(clientID).
		SetConnectTimeout(mqttTimeout).
		SetAutoReconnect(true)
	if username != "" {
		opts.SetUsername(username)
		opts.SetPassword(password)
	}

	client := mqtt.NewClient(opts)
	tok := client.Connect()
	if !tok.WaitTimeout(mqttTimeout) {
		return nil, fmt.Errorf("mqtt: connect to %s: timeout", broker)
	}
	if err := tok.Error(); err != nil {
		return nil, fmt.Errorf("mqtt: connect to %s: %w", broker, err)
	}

	return &MQTTProvider{client: client, topic: topic}, nil
}

// newMQTTWithClient wires a provider onto an existing client. Used in tests.
func newMQTTWithClient(client mqtt.Client, topic string) *MQTTProvider {
	return &MQTTProvider{client: client, topic: topic}
}

func (m *MQTTProvider) Name() string { return "mqtt" }

func (m *MQTTProvider) Send(_ context.Context, n model.Notification) error {
	payload, err := json.Marshal(n)
	if err != nil {
		return fmt.Errorf("mqtt: marshal: %w", err)
	}

	tok := m.client.Publish(m.topic, 1, false, payload)
	if !tok.WaitTimeout(mqttTimeout) {
		return fmt.Errorf("mqtt: publish to %s: timeout", m.topic)
	}
	if err := tok.Error(); err != nil {
		return fmt.Errorf("mqtt: publish to %s: %w", m.topic, err)
	}
	return nil
}

// Close disconnects from the broker.
func (m *MQTTProvider) Close() {
	m.client.Disconnect(250)
}
