package emailsvc

import (
	"bytes"
	"log"
	"net/mail"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shuleapp/shule/core"
)

type discardLogger struct{ errors []string }

func (l *discardLogger) Debug(string, ...interface{})     {}
func (l *discardLogger) Info(string, ...interface{})      {}
func (l *discardLogger) Warn(string, ...interface{})      {}
func (l *discardLogger) Error(m string, _ ...interface{}) { l.errors = append(l.errors, m) }
func (l *discardLogger) Fatal(string, ...interface{})     {}

func testConfig() *core.Config {
	return &core.Config{
		AppName:          "Shule",
		FrontendBaseURL:  "http://school.test",
		DefaultFromEmail: mail.Address{Name: "Shule", Address: "noreply@school.test"},
	}
}

func passwordResetMessage() *core.EmailMessage {
	return &core.EmailMessage{
		To:           []mail.Address{{Name: "Amani", Address: "amani@school.test"}},
		Subject:      "Password Reset",
		TemplateName: "password_reset",
		TemplateData: map[string]interface{}{"Name": "Amani", "UID": "dWlk", "Token": "TS-sig"},
	}
}

func TestConsoleServiceMock(t *testing.T) {
	logger := &discardLogger{}
	svc := NewConsoleServiceMock(logger, testConfig())

	svc.SendMessages(passwordResetMessage(), &core.EmailMessage{Subject: "no recipients", BodyStr: "hi"})

	sent := svc.SentMessages()
	require.Len(t, sent, 1)
	assert.Empty(t, logger.errors)
	assert.Contains(t, sent[0].TextContent, "Hello Amani,")
	assert.Contains(t, sent[0].TextContent, "http://school.test/password-reset/dWlk/TS-sig")
	assert.Contains(t, sent[0].HTMLContent, `href="http://school.test/password-reset/dWlk/TS-sig"`)
	assert.Contains(t, sent[0].HTMLContent, "<title>Password reset</title>")
}

func TestConsoleServicePrints(t *testing.T) {
	var buf bytes.Buffer
	svc := NewConsoleService(log.New(&buf, "", 0), &discardLogger{}, testConfig())

	msg := &core.EmailMessage{To: []mail.Address{{Address: "amani@school.test"}}, Subject: "Hello", BodyStr: "plain body"}
	svc.sendMessage(msg)

	out := buf.String()
	assert.Contains(t, out, "Subject: [Shule] Hello")
	assert.Contains(t, out, "To: <amani@school.test>")
	assert.Contains(t, out, "plain body")
	assert.NotContains(t, out, "text/html")
}

func TestSendgridPrepare(t *testing.T) {
	svc := NewSendgridService(&discardLogger{}, testConfig())
	msg := passwordResetMessage()
	require.NoError(t, msg.Render(svc.frontendBaseURL))

	m := svc.prepare(*msg)
	assert.Equal(t, "noreply@school.test", m.From.Address)
	require.Len(t, m.Personalizations, 1)
	assert.Equal(t, "[Shule] Password Reset", m.Personalizations[0].Subject)
	require.Len(t, m.Personalizations[0].To, 1)
	assert.Equal(t, "amani@school.test", m.Personalizations[0].To[0].Address)
	require.Len(t, m.Content, 2)
	assert.Equal(t, "text/plain", m.Content[0].Type)
	assert.Equal(t, "text/html", m.Content[1].Type)
}
