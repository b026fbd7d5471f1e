package mail

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilupskalvis/gitnotify/internal/core"
)

func testMessage() *core.Message {
	return &core.Message{
		Revision: "abc123",
		Subject:  "[repo] Fix the widget",
		ReplyTo:  "Jane Doe <jane@example.com>",
		HTML:     "<p>diff</p>",
	}
}

func TestBuildMessage(t *testing.T) {
	gm, err := BuildMessage("bot@example.com", []string{"team@example.com", "lead@example.com"}, testMessage(), nil)
	require.NoError(t, err)

	var buf bytes.Buffer
	_, err = gm.WriteTo(&buf)
	require.NoError(t, err)
	out := buf.String()

	assert.Contains(t, out, "Subject: [repo] Fix the widget")
	assert.Contains(t, out, "bot@example.com")
	assert.Contains(t, out, "team@example.com")
	assert.Contains(t, out, "lead@example.com")
	assert.Contains(t, out, "Reply-To:")
	assert.Contains(t, out, "jane@example.com")
	assert.Contains(t, out, "multipart/alternative")
	assert.Contains(t, out, "text/plain")
	assert.Contains(t, out, "text/html")
	assert.Contains(t, out, PlainFallback)
}

func TestBuildMessage_BadAuthorSkipsReplyTo(t *testing.T) {
	msg := testMessage()
	msg.ReplyTo = "not an address"

	gm, err := BuildMessage("bot@example.com", []string{"team@example.com"}, msg, nil)
	require.NoError(t, err)

	var buf bytes.Buffer
	_, err = gm.WriteTo(&buf)
	require.NoError(t, err)
	assert.NotContains(t, buf.String(), "Reply-To:")
}

func TestBuildMessage_NoRecipients(t *testing.T) {
	_, err := BuildMessage("bot@example.com", nil, testMessage(), nil)
	assert.Error(t, err)
}

func TestBuildMessage_InvalidSender(t *testing.T) {
	_, err := BuildMessage("", []string{"team@example.com"}, testMessage(), nil)
	assert.Error(t, err)
}

func TestWriterMailer(t *testing.T) {
	var buf bytes.Buffer
	w := &WriterMailer{From: "bot@example.com", To: []string{"team@example.com"}, W: &buf}

	require.NoError(t, w.Send(context.Background(), testMessage()))
	assert.Contains(t, buf.String(), "Subject: [repo] Fix the widget")
}

func TestTLSPolicy(t *testing.T) {
	tests := []struct {
		name    string
		wantErr bool
	}{
		{"", false},
		{"mandatory", false},
		{"Opportunistic", false},
		{"none", false},
		{"sometimes", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tlsPolicy(tt.name)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestSMTPMailer_SendFailsOnBadPolicy(t *testing.T) {
	m := NewSMTPMailer(Config{
		Host:      "localhost",
		Port:      2525,
		From:      "bot@example.com",
		To:        []string{"team@example.com"},
		TLSPolicy: "sometimes",
	}, nil)

	err := m.Send(context.Background(), testMessage())
	assert.ErrorContains(t, err, "unknown tls policy")
}
