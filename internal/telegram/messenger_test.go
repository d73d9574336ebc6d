package telegram

import (
	"testing"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeSender struct{ sent []tgbotapi.Chattable }

func (f *fakeSender) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	f.sent = append(f.sent, c)
	return tgbotapi.Message{MessageID: 77}, nil
}

func TestMessengerPost(t *testing.T) {
	fs := &fakeSender{}
	m := &Messenger{s: fs, log: zap.NewNop()}

	handle, err := m.Post("100", "hello", "")
	require.NoError(t, err)
	require.Equal(t, "77", handle)

	msg, ok := fs.sent[0].(tgbotapi.MessageConfig)
	require.True(t, ok)
	require.EqualValues(t, 100, msg.ChatID)
	require.Equal(t, "hello", msg.Text)
	require.Zero(t, msg.ReplyToMessageID)
}

func TestMessengerPostInThread(t *testing.T) {
	fs := &fakeSender{}
	m := &Messenger{s: fs, log: zap.NewNop()}

	_, err := m.Post("100", "hello", "3")
	require.NoError(t, err)

	msg := fs.sent[0].(tgbotapi.MessageConfig)
	require.Equal(t, 3, msg.ReplyToMessageID)
}

func TestMessengerUpdate(t *testing.T) {
	fs := &fakeSender{}
	m := &Messenger{s: fs, log: zap.NewNop()}

	require.NoError(t, m.Update("100", "77", "final text"))

	edit, ok := fs.sent[0].(tgbotapi.EditMessageTextConfig)
	require.True(t, ok)
	require.EqualValues(t, 100, edit.ChatID)
	require.Equal(t, 77, edit.MessageID)
	require.Equal(t, "final text", edit.Text)
}

func TestMessengerRejectsBadChannel(t *testing.T) {
	m := &Messenger{s: &fakeSender{}, log: zap.NewNop()}

	_, err := m.Post("not-a-chat", "hello", "")
	require.Error(t, err)

	err = m.Update("100", "not-a-handle", "text")
	require.Error(t, err)
}
