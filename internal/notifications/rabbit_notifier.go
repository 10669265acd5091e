package notifications

import (
	"encoding/json"
	"fmt"
	"time"
)

// publisher is the slice of the RabbitMQ client the notifier needs.
type publisher interface {
	Publish(body []byte) error
}

// RabbitNotifier publishes notification messages onto the broker queue
// drained by the admin dashboard consumer.
type RabbitNotifier struct {
	mq publisher
}

// NewRabbitNotifier creates a notifier backed by the given publisher.
func NewRabbitNotifier(mq publisher) *RabbitNotifier {
	return &RabbitNotifier{mq: mq}
}

type notificationMessage struct {
	Audience  string    `json:"audience"` // "admin" or "all"
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
}

func (n *RabbitNotifier) publish(audience, message string) error {
	body, err := json.Marshal(notificationMessage{
		Audience:  audience,
		Message:   message,
		Timestamp: time.Now(),
	})
	if err != nil {
		return fmt.Errorf("failed to marshal notification: %w", err)
	}
	return n.mq.Publish(body)
}

// NotifyAdmin publishes a message for the admin dashboard.
func (n *RabbitNotifier) NotifyAdmin(message string) error {
	return n.publish("admin", message)
}

// NotifyAllUsers publishes a broadcast message.
func (n *RabbitNotifier) NotifyAllUsers(message string) error {
	return n.publish("all", message)
}
