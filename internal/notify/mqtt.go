package notify

import (
	"context"
	"fmt"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/google/uuid"
)

// Publisher is the part of mqtt.Client used for delivery.
type Publisher interface {
	Publish(topic string, qos byte, retained bool, payload interface{}) mqtt.Token
}

// MQTTDispatcher publishes notifications as JSON on a topic. The user id is
// appended to the topic when present.
type MQTTDispatcher struct {
	Client Publisher
	Topic  string
	QoS    byte
}

// ConnectMQTT opens a client to broker. An empty clientID gets a random one.
func ConnectMQTT(broker, clientID string, timeout time.Duration) (mqtt.Client, error) {
	if clientID == "" {
		clientID = "maintenance-" + uuid.NewString()
	}
	opts := mqtt.NewClientOptions().
		AddBroker(broker).
		SetClientID(clientID).
		SetAutoReconnect(true).
		SetConnectTimeout(timeout)

	client := mqtt.NewClient(opts)
	token := client.Connect()
	if !token.WaitTimeout(timeout) {
		return nil, fmt.Errorf("mqtt connect to %s: timed out", broker)
	}
	if err := token.Error(); err != nil {
		return nil, fmt.Errorf("mqtt connect to %s: %w", broker, err)
	}
	return client, nil
}

func (d *MQTTDispatcher) Dispatch(ctx context.Context, n Notification) error {
	body, err := encode(n)
	if err != nil {
		return err
	}
	topic := d.Topic
	if n.UserID != "" {
		topic = topic + "/" + n.UserID
	}

	token := d.Client.Publish(topic, d.QoS, false, body)
	select {
	case <-token.Done():
	case <-ctx.Done():
		return fmt.Errorf("mqtt publish to %s: %w", topic, ctx.Err())
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("mqtt publish to %s: %w", topic, err)
	}
	return nil
}
