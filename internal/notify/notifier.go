// Package notify delivers threat-change events to interested parties.
package notify

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/qrguardian/guardian/internal/logging"
)

// ChangeEvent describes a domain whose verdict changed between scans
type ChangeEvent struct {
	Domain         string    `json:"domain"`
	PreviousRating string    `json:"previous_rating"`
	NewRating      string    `json:"new_rating"`
	At             time.Time `json:"at"`
}

// Notifier delivers change events. Implementations must tolerate
// concurrent calls.
type Notifier interface {
	Notify(event ChangeEvent) error
}

// LogNotifier writes change events to the structured log. It is the
// fallback when no message broker is configured.
type LogNotifier struct {
	logger *logging.Logger
}

func NewLogNotifier(logger *logging.Logger) *LogNotifier {
	return &LogNotifier{logger: logger.WithComponent("notify")}
}

func (n *LogNotifier) Notify(event ChangeEvent) error {
	n.logger.Info("Threat status changed",
		"domain", event.Domain,
		"previous_rating", event.PreviousRating,
		"new_rating", event.NewRating,
	)
	return nil
}

// NATSNotifier publishes change events to a NATS subject
type NATSNotifier struct {
	conn    *nats.Conn
	subject string
	logger  *logging.Logger
}

// NewNATSNotifier connects to the broker and returns a notifier
// publishing to the given subject
func NewNATSNotifier(url, subject string, logger *logging.Logger) (*NATSNotifier, error) {
	conn, err := nats.Connect(url,
		nats.Name("guardian-api"),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}

	return &NATSNotifier{
		conn:    conn,
		subject: subject,
		logger:  logger.WithComponent("notify"),
	}, nil
}

func (n *NATSNotifier) Notify(event ChangeEvent) error {
	encoded, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to encode change event: %w", err)
	}
	if err := n.conn.Publish(n.subject, encoded); err != nil {
		return fmt.Errorf("failed to publish change event: %w", err)
	}
	n.logger.Info("Published threat change", "domain", event.Domain, "subject", n.subject)
	return nil
}

// Close drains pending publishes and closes the connection
func (n *NATSNotifier) Close() {
	if err := n.conn.Drain(); err != nil {
		n.conn.Close()
	}
}
