package mail

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/biblehabit/tracker/internal/config"
	"github.com/biblehabit/tracker/internal/logger"
)

func testMessage() Message {
	return Message{
		To:         Address{Email: "ruth@example.com", Name: "Ruth"},
		Subject:    "Hello",
		Text:       "plain body",
		HTML:       "<p>html body</p>",
		Categories: []string{CategoryReminder},
	}
}

func newTestSendGrid(t *testing.T, url string) *SendGrid {
	t.Helper()
	sg, err := NewSendGrid(SendGridConfig{
		APIKey:           "SG.test",
		BaseURL:          url,
		DefaultFromEmail: "noreply@example.com",
		DefaultFromName:  "Daily Bread",
		MaxRetries:       2,
	}, logger.Nop())
	require.NoError(t, err)
	sg.backoff = time.Millisecond
	return sg
}

func TestNew_Drivers(t *testing.T) {
	m, err := New(config.Mail{Driver: "log"}, logger.Nop())
	require.NoError(t, err)
	assert.IsType(t, &LogMailer{}, m)

	_, err = New(config.Mail{Driver: "sendgrid"}, logger.Nop())
	assert.ErrorContains(t, err, "SENDGRID_API_KEY")

	m, err = New(config.Mail{Driver: "sendgrid", SendGridKey: "k"}, logger.Nop())
	require.NoError(t, err)
	assert.IsType(t, &SendGrid{}, m)

	_, err = New(config.Mail{Driver: "smtp"}, logger.Nop())
	assert.Error(t, err)
}

func TestSendGrid_Send(t *testing.T) {
	var got sgRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v3/mail/send", r.URL.Path)
		assert.Equal(t, "Bearer SG.test", r.Header.Get("Authorization"))
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusAccepted)
	}))
	defer srv.Close()

	sg := newTestSendGrid(t, srv.URL)
	require.NoError(t, sg.Send(context.Background(), testMessage()))

	assert.Equal(t, "noreply@example.com", got.From.Email)
	assert.Equal(t, "Daily Bread", got.From.Name)
	require.Len(t, got.Personalizations, 1)
	assert.Equal(t, "ruth@example.com", got.Personalizations[0].To[0].Email)
	require.Len(t, got.Content, 2)
	assert.Equal(t, "text/plain", got.Content[0].Type)
	assert.Equal(t, "text/html", got.Content[1].Type)
}

func TestSendGrid_RetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusAccepted)
	}))
	defer srv.Close()

	require.NoError(t, newTestSendGrid(t, srv.URL).Send(context.Background(), testMessage()))
	assert.Equal(t, int32(3), calls.Load())
}

func TestSendGrid_DoesNotRetryClientErrors(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"errors":[{"message":"The from address does not match a verified Sender Identity."}]}`))
	}))
	defer srv.Close()

	err := newTestSendGrid(t, srv.URL).Send(context.Background(), testMessage())
	var he *HTTPError
	require.True(t, errors.As(err, &he))
	assert.Equal(t, http.StatusBadRequest, he.StatusCode)
	assert.Contains(t, he.Error(), "verified Sender Identity")
	assert.Equal(t, int32(1), calls.Load())
}

func TestSendGrid_GivesUpAfterMaxRetries(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	err := newTestSendGrid(t, srv.URL).Send(context.Background(), testMessage())
	assert.Error(t, err)
	assert.Equal(t, int32(3), calls.Load())
}

func TestSendGrid_RejectsIncompleteMessages(t *testing.T) {
	sg := newTestSendGrid(t, "http://127.0.0.1:0")
	ctx := context.Background()

	msg := testMessage()
	msg.To = Address{}
	assert.ErrorContains(t, sg.Send(ctx, msg), "recipient")

	msg = testMessage()
	msg.Subject = " "
	assert.ErrorContains(t, sg.Send(ctx, msg), "subject")

	msg = testMessage()
	msg.Text, msg.HTML = "", ""
	assert.ErrorContains(t, sg.Send(ctx, msg), "content")
}

func TestRecordingMailer(t *testing.T) {
	m := &RecordingMailer{}
	require.NoError(t, m.Send(context.Background(), testMessage()))
	assert.Len(t, m.Sent(), 1)

	m.Err = errors.New("boom")
	assert.Error(t, m.Send(context.Background(), testMessage()))
	assert.Len(t, m.Sent(), 1)
}

func TestAddress_String(t *testing.T) {
	assert.Equal(t, "a@example.com", Address{Email: "a@example.com"}.String())
	assert.Equal(t, "Ann <a@example.com>", Address{Email: "a@example.com", Name: "Ann"}.String())
}
