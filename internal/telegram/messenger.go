package telegram

import (
	"fmt"
	"strconv"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"
)

// Messenger sends and edits channel messages through the Bot API: Post
// delivers text (optionally inside a thread) and returns the handle of
// the created message, Update rewrites a delivered message in place.
type Messenger struct {
	s   sender
	log *zap.Logger
}

func NewMessenger(api *tgbotapi.BotAPI, log *zap.Logger) *Messenger {
	return &Messenger{s: botAPISender{api: api}, log: log.Named("messenger")}
}

func (m *Messenger) Post(channel, text, thread string) (string, error) {
	chatID, err := strconv.ParseInt(channel, 10, 64)
	if err != nil {
		return "", fmt.Errorf("invalid channel %q: %w", channel, err)
	}
	msg := tgbotapi.NewMessage(chatID, text)
	if thread != "" {
		replyTo, err := strconv.Atoi(thread)
		if err != nil {
			return "", fmt.Errorf("invalid thread %q: %w", thread, err)
		}
		msg.ReplyToMessageID = replyTo
	}
	sent, err := m.s.Send(msg)
	if err != nil {
		return "", fmt.Errorf("post to channel %s: %w", channel, err)
	}
	m.log.Debug("posted message",
		zap.String("channel", channel),
		zap.Int("message_id", sent.MessageID))
	return strconv.Itoa(sent.MessageID), nil
}

func (m *Messenger) Update(channel, handle, text string) error {
	chatID, err := strconv.ParseInt(channel, 10, 64)
	if err != nil {
		return fmt.Errorf("invalid channel %q: %w", channel, err)
	}
	messageID, err := strconv.Atoi(handle)
	if err != nil {
		return fmt.Errorf("invalid message handle %q: %w", handle, err)
	}
	edit := tgbotapi.NewEditMessageText(chatID, messageID, text)
	if _, err := m.s.Send(edit); err != nil {
		return fmt.Errorf("update message %s in channel %s: %w", handle, channel, err)
	}
	return nil
}
