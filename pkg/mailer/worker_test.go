package mailer

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockSender struct {
	mock.Mock
}

func (m *mockSender) Send(ctx context.Context, to, subject, text, html string) error {
	args := m.Called(ctx, to, subject, text, html)
	return args.Error(0)
}

func newTestWorker(s Sender) *Worker {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return NewWorker(s, l)
}

func encode(t *testing.T, job EmailJob) []byte {
	t.Helper()
	b, err := json.Marshal(job)
	require.NoError(t, err)
	return b
}

func TestWorker_RendersTemplateAndSends(t *testing.T) {
	s := new(mockSender)
	s.On("Send", mock.Anything, "alice@example.com",
		mock.MatchedBy(func(subject string) bool { return subject != "" }),
		mock.MatchedBy(func(text string) bool { return len(text) > 0 }),
		mock.AnythingOfType("string"),
	).Return(nil).Once()

	w := newTestWorker(s)
	got := w.Handle(context.Background(), encode(t, EmailJob{
		To:       "alice@example.com",
		Template: "welcome",
		Data:     map[string]any{"Name": "Alice"},
	}))

	assert.Equal(t, Ack, got)
	s.AssertExpectations(t)
}

func TestWorker_PlainJobUsesGivenBody(t *testing.T) {
	s := new(mockSender)
	s.On("Send", mock.Anything, "bob@example.com", "Hi", "plain", "").Return(nil).Once()

	got := newTestWorker(s).Handle(context.Background(), encode(t, EmailJob{To: "bob@example.com", Subject: "Hi", Text: "plain"}))

	assert.Equal(t, Ack, got)
	s.AssertExpectations(t)
}

func TestWorker_BadPayloadsAreDiscarded(t *testing.T) {
	s := new(mockSender)
	w := newTestWorker(s)

	assert.Equal(t, Discard, w.Handle(context.Background(), []byte("{not json")))
	assert.Equal(t, Discard, w.Handle(context.Background(), encode(t, EmailJob{Template: "welcome"})))
	assert.Equal(t, Discard, w.Handle(context.Background(), encode(t, EmailJob{To: "a@example.com", Template: "nope"})))
	s.AssertNotCalled(t, "Send", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestWorker_SendFailureRequeues(t *testing.T) {
	s := new(mockSender)
	s.On("Send", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(errors.New("mailgun: 503")).Once()

	got := newTestWorker(s).Handle(context.Background(), encode(t, EmailJob{To: "a@example.com", Subject: "x", Text: "y"}))
	assert.Equal(t, Requeue, got)
}

func TestEmailJob_EnsureRecipient(t *testing.T) {
	j := EmailJob{To: "a@example.com", Data: map[string]any{"Email": "other@example.com"}}
	j.EnsureRecipient()
	assert.Equal(t, "other@example.com", j.Data["Email"])
	assert.Equal(t, "a@example.com", j.Data["RecipientEmail"])
}
