package emailsvc

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/mail"
	"strings"
	"testing"
	texttmpl "text/template"

	"github.com/sendgrid/rest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AmelJaballah/SmartLearn-mern-project/core"
	logsvc "github.com/AmelJaballah/SmartLearn-mern-project/services/logger"
)

func testConfig() *core.Config {
	conf := core.NewTestConfig()
	conf.AppName = "SmartLearn"
	conf.Email.DefaultFrom = mail.Address{Name: "SmartLearn", Address: "noreply@smartlearn.test"}
	return conf
}

func TestConsoleService_SendMessages(t *testing.T) {
	svc := NewConsoleServiceMock(testConfig(), logsvc.NewNopLogger())
	out := new(strings.Builder)
	svc.out = out

	tmpl := texttmpl.Must(texttmpl.New("t").Parse("Hello {{.}}"))
	svc.SendMessages(
		&core.EmailMessage{To: []mail.Address{{Address: "a@test.tn"}}, Subject: "plain", BodyStr: "body"},
		&core.EmailMessage{To: []mail.Address{{Address: "b@test.tn"}}, Subject: "tmpl", TextTemplate: tmpl, TemplateData: "Amel"},
		&core.EmailMessage{Subject: "no recipient", BodyStr: "body"},
		&core.EmailMessage{To: []mail.Address{{Address: "c@test.tn"}}, Subject: "no content"},
	)

	sent := svc.SentMessages()
	require.Len(t, sent, 2)
	assert.Equal(t, "body", sent[0].TextContent)
	assert.Equal(t, "Hello Amel", sent[1].TextContent)
	assert.Contains(t, out.String(), "Subject: [SmartLearn] plain")
	assert.Contains(t, out.String(), `From: "SmartLearn" <noreply@smartlearn.test>`)
}

func TestSendgridService_send(t *testing.T) {
	svc := NewSendgridService(testConfig(), logsvc.NewNopLogger())

	var got rest.Request
	svc.api = func(req rest.Request) (*rest.Response, error) {
		got = req
		return &rest.Response{StatusCode: http.StatusAccepted}, nil
	}

	msg := core.EmailMessage{
		To:          []mail.Address{{Name: "Amel", Address: "amel@test.tn"}},
		Subject:     "Welcome",
		TextContent: "text",
		HTMLContent: "<p>html</p>",
	}
	svc.send(msg)

	assert.Equal(t, http.MethodPost, string(got.Method))
	assert.True(t, strings.HasSuffix(got.BaseURL, endpoint))

	var body struct {
		From             struct{ Email string } `json:"from"`
		Personalizations []struct {
			Subject string `json:"subject"`
			To      []struct{ Email string }
		} `json:"personalizations"`
		Content []struct{ Type string } `json:"content"`
	}
	require.NoError(t, json.Unmarshal(got.Body, &body))
	assert.Equal(t, "noreply@smartlearn.test", body.From.Email)
	require.Len(t, body.Personalizations, 1)
	assert.Equal(t, "[SmartLearn] Welcome", body.Personalizations[0].Subject)
	assert.Equal(t, "amel@test.tn", body.Personalizations[0].To[0].Email)
	require.Len(t, body.Content, 2)
	assert.Equal(t, "text/plain", body.Content[0].Type)
}

func TestSendgridService_sendFailureIsLogged(t *testing.T) {
	svc := NewSendgridService(testConfig(), logsvc.NewNopLogger())
	svc.api = func(rest.Request) (*rest.Response, error) { return nil, errors.New("down") }
	assert.NotPanics(t, func() {
		svc.send(core.EmailMessage{To: []mail.Address{{Address: "a@test.tn"}}, TextContent: "x"})
	})
}
