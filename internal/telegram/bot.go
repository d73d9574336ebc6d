package telegram

import (
	"context"
	"errors"
	"strconv"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"checkin-bot/internal/conversation"
	"checkin-bot/internal/llm"
)

const (
	placeholderText = "⏳ Thinking..."
	failureText     = "⚠️ Something went wrong. Please try again."
)

// repository is the slice of the conversation repository the handler
// needs.
type repository interface {
	Initialize(ctx context.Context, id string, initial []conversation.Message) (bool, error)
	AddMessage(ctx context.Context, id string, msg conversation.Message) (conversation.AppendResult, error)
}

type transport interface {
	Post(channel, text, thread string) (string, error)
	Update(channel, handle, text string) error
}

// HandleMessageError carries the placeholder handle and thread context
// of a failed exchange, so the caller can turn the already-visible
// placeholder into a failure notice instead of leaving it stuck.
type HandleMessageError struct {
	Err         error
	Placeholder string
	Thread      string
}

func (e *HandleMessageError) Error() string { return e.Err.Error() }
func (e *HandleMessageError) Unwrap() error { return e.Err }

// Bot ingests channel messages: every event is dedup-appended to the
// ledger, answered through the LLM, and the answer replaces the
// placeholder in place.
type Bot struct {
	api            *tgbotapi.BotAPI
	transport      transport
	repo           repository
	llmClient      llm.Client
	initialContext []conversation.Message
	log            *zap.Logger
}

func New(botToken string, repo repository, llmClient llm.Client, initialContext []conversation.Message, log *zap.Logger) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(botToken)
	if err != nil {
		return nil, err
	}
	return &Bot{
		api:            api,
		transport:      NewMessenger(api, log),
		repo:           repo,
		llmClient:      llmClient,
		initialContext: initialContext,
		log:            log.Named("bot"),
	}, nil
}

// API exposes the underlying Bot API client so the daily batch can
// share one authenticated session.
func (b *Bot) API() *tgbotapi.BotAPI { return b.api }

func (b *Bot) Start(ctx context.Context) {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60

	updates := b.api.GetUpdatesChan(u)

	for {
		select {
		case <-ctx.Done():
			b.api.StopReceivingUpdates()
			return
		case update, ok := <-updates:
			if !ok {
				return
			}
			if update.Message == nil || update.Message.Text == "" {
				continue
			}
			if err := b.handleIncomingMessage(ctx, update.Message); err != nil {
				b.reportFailure(update.Message, err)
			}
		}
	}
}

// handleIncomingMessage runs one event through the ingestion states:
// received, dedup-checked, placeholder-delivered, llm-processing, then
// responded or failed.
func (b *Bot) handleIncomingMessage(ctx context.Context, msg *tgbotapi.Message) error {
	channel := strconv.FormatInt(msg.Chat.ID, 10)
	conversationID := ConversationID(channel)

	if _, err := b.repo.Initialize(ctx, conversationID, b.initialContext); err != nil {
		return err
	}

	userMsg := conversation.Message{
		Role:      conversation.RoleUser,
		Content:   msg.Text,
		UserID:    strconv.FormatInt(msg.From.ID, 10),
		MessageID: strconv.Itoa(msg.MessageID),
		Timestamp: time.Now().UTC(),
	}
	res, err := b.repo.AddMessage(ctx, conversationID, userMsg)
	if err != nil {
		return err
	}
	if res.Duplicate {
		// At-least-once delivery of the same upstream event; the first
		// handling already replied.
		b.log.Debug("duplicate event ignored",
			zap.String("conversation_id", conversationID),
			zap.String("message_id", userMsg.MessageID))
		return nil
	}

	var thread string
	if msg.ReplyToMessage != nil {
		thread = strconv.Itoa(msg.ReplyToMessage.MessageID)
	}

	placeholder, err := b.transport.Post(channel, placeholderText, thread)
	if err != nil {
		return &HandleMessageError{Err: err, Thread: thread}
	}

	chat := llm.NewChat(b.llmClient)
	chat.Start(toLLM(res.Messages))
	reply, err := chat.Send(ctx, msg.Text)
	if err != nil {
		return &HandleMessageError{Err: err, Placeholder: placeholder, Thread: thread}
	}
	b.log.Info("llm replied",
		zap.String("conversation_id", conversationID),
		zap.Int("history_len", len(res.Messages)))

	assistantMsg := conversation.Message{
		Role:      conversation.RoleAssistant,
		Content:   reply,
		Timestamp: time.Now().UTC(),
	}
	if _, err := b.repo.AddMessage(ctx, conversationID, assistantMsg); err != nil {
		return &HandleMessageError{Err: err, Placeholder: placeholder, Thread: thread}
	}

	if err := b.transport.Update(channel, placeholder, reply); err != nil {
		return &HandleMessageError{Err: err, Placeholder: placeholder, Thread: thread}
	}
	return nil
}

// reportFailure makes a failed exchange visible in the channel instead
// of leaving the placeholder hanging.
func (b *Bot) reportFailure(msg *tgbotapi.Message, err error) {
	b.log.Error("message handling failed",
		zap.Int64("chat_id", msg.Chat.ID),
		zap.Error(err))

	var he *HandleMessageError
	if !errors.As(err, &he) || he.Placeholder == "" {
		return
	}
	channel := strconv.FormatInt(msg.Chat.ID, 10)
	if uerr := b.transport.Update(channel, he.Placeholder, failureText); uerr != nil {
		b.log.Error("failed to rewrite placeholder", zap.Error(uerr))
	}
}

func toLLM(msgs []conversation.Message) []llm.Message {
	out := make([]llm.Message, 0, len(msgs))
	for _, m := range msgs {
		out = append(out, llm.Message{Role: m.Role, Content: m.Content})
	}
	return out
}
