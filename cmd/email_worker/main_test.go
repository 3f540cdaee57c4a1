package main

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/campusconnect/campus-connect/config"
	"github.com/campusconnect/campus-connect/pkg/helpers"
	"github.com/campusconnect/campus-connect/pkg/mailer"
	mailtpl "github.com/campusconnect/campus-connect/pkg/mailer/templates"
)

type sent struct{ to, subject, text, html string }

type fakeSender struct {
	got []sent
	err error
}

func (f *fakeSender) Send(_ context.Context, to, subject, text, html string) error {
	if f.err != nil {
		return f.err
	}
	f.got = append(f.got, sent{to, subject, text, html})
	return nil
}

func jobBody(t *testing.T, job mailer.EmailJob) []byte {
	t.Helper()
	b, err := json.Marshal(job)
	require.NoError(t, err)
	return b
}

func TestProcess(t *testing.T) {
	logger := helpers.NewNopLogger()
	ctx := context.Background()

	t.Run("templated job is rendered and acked", func(t *testing.T) {
		s := &fakeSender{}
		body := jobBody(t, mailer.EmailJob{
			To:       "asha@srec.ac.in",
			Template: mailtpl.Welcome,
			Data:     map[string]any{"Name": "Asha", "AppName": "Campus Connect"},
		})
		assert.Equal(t, ack, process(ctx, s, logger, body))
		require.Len(t, s.got, 1)
		assert.Equal(t, "asha@srec.ac.in", s.got[0].to)
		assert.Equal(t, "Welcome to Campus Connect", s.got[0].subject)
		assert.Contains(t, s.got[0].text, "Hi Asha")
	})

	t.Run("raw job passes through", func(t *testing.T) {
		s := &fakeSender{}
		body := jobBody(t, mailer.EmailJob{To: "a@srec.ac.in", Subject: "Hi", Text: "plain"})
		assert.Equal(t, ack, process(ctx, s, logger, body))
		require.Len(t, s.got, 1)
		assert.Equal(t, "Hi", s.got[0].subject)
	})

	t.Run("malformed body is dropped", func(t *testing.T) {
		s := &fakeSender{}
		assert.Equal(t, drop, process(ctx, s, logger, []byte("{")))
		assert.Empty(t, s.got)
	})

	t.Run("missing recipient is dropped", func(t *testing.T) {
		assert.Equal(t, drop, process(ctx, &fakeSender{}, logger, jobBody(t, mailer.EmailJob{Subject: "x"})))
	})

	t.Run("unknown template is dropped", func(t *testing.T) {
		body := jobBody(t, mailer.EmailJob{To: "a@srec.ac.in", Template: "nope"})
		assert.Equal(t, drop, process(ctx, &fakeSender{}, logger, body))
	})

	t.Run("send failure is requeued", func(t *testing.T) {
		s := &fakeSender{err: errors.New("smtp down")}
		body := jobBody(t, mailer.EmailJob{To: "a@srec.ac.in", Subject: "Hi", Text: "x"})
		assert.Equal(t, requeue, process(ctx, s, logger, body))
	})
}

func TestNewSender(t *testing.T) {
	_, err := newSender(&config.Config{MailProvider: "mailgun"})
	assert.Error(t, err)

	s, err := newSender(&config.Config{MailProvider: "smtp", SMTPHost: "smtp.srec.ac.in", SMTPPort: 587, SMTPFrom: "noreply@srec.ac.in"})
	require.NoError(t, err)
	assert.IsType(t, &mailer.SMTP{}, s)

	s, err = newSender(&config.Config{MailgunDomain: "mg.example.com", MailgunAPIKey: "k", MailgunSender: "noreply@mg.example.com"})
	require.NoError(t, err)
	assert.IsType(t, &mailer.Mailgun{}, s)
}
