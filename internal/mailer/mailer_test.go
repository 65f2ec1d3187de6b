package mailer

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Skotchmaster/tutorial_catalog/internal/logging"
)

type recordingPublisher struct {
	topic, key string
	event      any
	err        error
}

func (r *recordingPublisher) Publish(_ context.Context, topic, key string, event any) error {
	r.topic, r.key, r.event = topic, key, event
	return r.err
}

func (r *recordingPublisher) Close() error { return nil }

func TestResetEmail(t *testing.T) {
	t.Parallel()

	msg := ResetEmail("no-reply@localhost", "alice@x.io", "Alice Smith", "http://app/reset-password/tok", 30*time.Minute)
	assert.Equal(t, "no-reply@localhost", msg.From)
	assert.Equal(t, "alice@x.io", msg.To)
	assert.Equal(t, "Alice Smith", msg.ToName)
	assert.Contains(t, msg.Text, "Hello Alice Smith")
	assert.Contains(t, msg.Text, "http://app/reset-password/tok")
	assert.Contains(t, msg.Text, "30 minutes")

	anon := ResetEmail("f", "bob@x.io", "", "link", time.Minute)
	assert.Equal(t, "bob@x.io", anon.ToName)
}

func TestLog_RedactsRecipient(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	ctx := logging.IntoContext(context.Background(), logging.NewWithWriter(&buf, "info"))

	m := Log{}
	require.NoError(t, m.Send(ctx, Message{To: "alice@x.io", Subject: "s", Text: "secret link"}))
	assert.Equal(t, "log", m.Transport())
	assert.Contains(t, buf.String(), "a***@x.io")
	assert.NotContains(t, buf.String(), "alice@x.io")
	assert.NotContains(t, buf.String(), "secret link")
}

func TestKafka_Send(t *testing.T) {
	t.Parallel()

	pub := &recordingPublisher{}
	m := &Kafka{Publisher: pub, Topic: "mail_outbox"}
	msg := Message{To: "alice@x.io", Subject: "s"}

	require.NoError(t, m.Send(context.Background(), msg))
	assert.Equal(t, "mail_outbox", pub.topic)
	assert.Equal(t, "alice@x.io", pub.key)
	assert.Equal(t, msg, pub.event)
	assert.Equal(t, "kafka:mail_outbox", m.Transport())

	pub.err = errors.New("broker down")
	assert.ErrorContains(t, m.Send(context.Background(), msg), "broker down")
}
