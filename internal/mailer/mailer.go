package mailer

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/Skotchmaster/tutorial_catalog/internal/events"
	"github.com/Skotchmaster/tutorial_catalog/internal/logging"
)

type Message struct {
	From    string `json:"from"`
	To      string `json:"to"`
	ToName  string `json:"to_name,omitempty"`
	Subject string `json:"subject"`
	Text    string `json:"text"`
}

type Mailer interface {
	Send(ctx context.Context, msg Message) error
	Transport() string
}

// ResetEmail builds the password reset message for one recipient.
func ResetEmail(from, to, name, link string, validFor time.Duration) Message {
	if name == "" {
		name = to
	}
	var b strings.Builder
	fmt.Fprintf(&b, "Hello %s,\n\n", name)
	b.WriteString("We received a request to reset your password.\n")
	fmt.Fprintf(&b, "Open the link below to choose a new one:\n\n%s\n\n", link)
	fmt.Fprintf(&b, "The link is valid for %d minutes. If you did not ask for a reset, ignore this email.\n", int(validFor.Minutes()))

	return Message{
		From:    from,
		To:      to,
		ToName:  name,
		Subject: "Reset your password",
		Text:    b.String(),
	}
}

// Log writes messages to the request logger instead of delivering them.
type Log struct{}

func (Log) Transport() string { return "log" }

func (Log) Send(ctx context.Context, msg Message) error {
	l := logging.FromContext(ctx).With("mailer", "log")
	l.Info("mail_dispatched", "to", logging.RedactEmail(msg.To), "subject", msg.Subject)
	l.Debug("mail_body", "text", msg.Text)
	return nil
}

// Kafka hands messages to an outbox topic consumed by a delivery worker.
type Kafka struct {
	Publisher events.Publisher
	Topic     string
}

func (k *Kafka) Transport() string { return "kafka:" + k.Topic }

func (k *Kafka) Send(ctx context.Context, msg Message) error {
	if err := k.Publisher.Publish(ctx, k.Topic, msg.To, msg); err != nil {
		return fmt.Errorf("mail outbox: %w", err)
	}
	return nil
}
