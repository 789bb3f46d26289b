package email

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/gomail.v2"
)

type recordingDialer struct {
	sent []*gomail.Message
	err  error
}

func (d *recordingDialer) DialAndSend(m ...*gomail.Message) error {
	if d.err != nil {
		return d.err
	}
	d.sent = append(d.sent, m...)
	return nil
}

func TestSMTPSenderBuildsMessage(t *testing.T) {
	d := &recordingDialer{}
	s := &SMTPSender{dialer: d, from: "noreply@portal.gov.lk"}

	require.NoError(t, s.Send(context.Background(), "citizen@example.lk", "Status update", "Your service request is now COMPLETED"))
	require.Len(t, d.sent, 1)

	m := d.sent[0]
	assert.Equal(t, []string{"noreply@portal.gov.lk"}, m.GetHeader("From"))
	assert.Equal(t, []string{"citizen@example.lk"}, m.GetHeader("To"))
	assert.Equal(t, []string{"Status update"}, m.GetHeader("Subject"))

	var buf bytes.Buffer
	_, err := m.WriteTo(&buf)
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "Your service request is now COMPLETED")
}

func TestSMTPSenderWrapsFailure(t *testing.T) {
	d := &recordingDialer{err: errors.New("dial tcp: connection refused")}
	s := &SMTPSender{dialer: d, from: "noreply@portal.gov.lk"}

	err := s.Send(context.Background(), "citizen@example.lk", "s", "b")
	assert.ErrorContains(t, err, "citizen@example.lk")
}

func TestSMTPSenderHonoursCancelledContext(t *testing.T) {
	d := &recordingDialer{}
	s := &SMTPSender{dialer: d, from: "noreply@portal.gov.lk"}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, s.Send(ctx, "citizen@example.lk", "s", "b"), context.Canceled)
	assert.Empty(t, d.sent)
}
