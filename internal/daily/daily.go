package daily

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"checkin-bot/internal/conversation"
	"checkin-bot/internal/llm"
	"checkin-bot/internal/telegram"
)

// Repository is the slice of the conversation repository the batch
// consumes. FindMany carries no paging contract; the batch never
// assumes a result size.
type Repository interface {
	FindMany(ctx context.Context) ([]conversation.Conversation, error)
	AddMessage(ctx context.Context, id string, msg conversation.Message) (conversation.AppendResult, error)
}

type Transport interface {
	Post(channel, text, thread string) (string, error)
}

// Result summarizes one batch run. PromptFallbacks counts check-ins
// that went out carrying fallback error text, separate from the
// delivered count, so callers can tell "fallback delivered" from "the
// generation failed" without string matching.
type Result struct {
	Total            int
	Delivered        int
	Skipped          int
	Empty            int
	PromptFallbacks  int
	DeliveryFailures int
}

func (r Result) Status() string {
	return fmt.Sprintf("daily check-ins: delivered %d of %d conversations (skipped %d, empty %d, fallbacks %d, delivery failures %d)",
		r.Delivered, r.Total, r.Skipped, r.Empty, r.PromptFallbacks, r.DeliveryFailures)
}

// Orchestrator drives the daily check-in batch: one generated prompt
// per active conversation, delivered to its channel and appended to its
// ledger. Conversations are processed strictly sequentially.
type Orchestrator struct {
	repo      Repository
	llmClient llm.Client
	transport Transport
	now       func() time.Time
	log       *zap.Logger
}

func NewOrchestrator(repo Repository, llmClient llm.Client, transport Transport, log *zap.Logger) *Orchestrator {
	return &Orchestrator{
		repo:      repo,
		llmClient: llmClient,
		transport: transport,
		now:       time.Now,
		log:       log.Named("daily"),
	}
}

// Run executes the whole batch within the call. Only a failure to list
// conversations fails the run; a single conversation's failure never
// aborts the rest.
func (o *Orchestrator) Run(ctx context.Context) (Result, error) {
	conversations, err := o.repo.FindMany(ctx)
	if err != nil {
		return Result{}, fmt.Errorf("list conversations: %w", err)
	}
	o.log.Info("daily batch started", zap.Int("conversations", len(conversations)))

	res := Result{Total: len(conversations)}
	for _, conv := range conversations {
		if !conv.Active {
			res.Skipped++
			continue
		}
		if len(conv.Messages) == 0 {
			// Nothing to check in about; neither the model nor the
			// channel is contacted.
			o.log.Info("no messages found for conversation",
				zap.String("conversation_id", conv.ID))
			res.Empty++
			continue
		}

		prompt, genErr := o.generatePrompt(ctx, conv)
		if genErr != nil {
			// Deliberate leniency: the fallback text still goes out so
			// one broken conversation cannot stall the batch.
			o.log.Warn("check-in generation failed",
				zap.String("conversation_id", conv.ID),
				zap.Error(genErr))
			res.PromptFallbacks++
		}

		channel := telegram.Channel(conv.ID)
		if _, err := o.transport.Post(channel, prompt, ""); err != nil {
			o.log.Error("check-in delivery failed",
				zap.String("conversation_id", conv.ID),
				zap.Error(err))
			res.DeliveryFailures++
			continue
		}

		systemMsg := conversation.Message{
			Role:      conversation.RoleSystem,
			Content:   "Daily Prompt: " + prompt,
			Timestamp: o.now().UTC(),
		}
		if _, err := o.repo.AddMessage(ctx, conv.ID, systemMsg); err != nil {
			o.log.Error("failed to record delivered check-in",
				zap.String("conversation_id", conv.ID),
				zap.Error(err))
			res.DeliveryFailures++
			continue
		}
		res.Delivered++
	}

	o.log.Info("daily batch finished", zap.String("status", res.Status()))
	return res, nil
}

// generatePrompt asks the model for a check-in seeded with the full
// history. On failure it returns the error text as the prompt together
// with the error itself; the caller decides what each means.
func (o *Orchestrator) generatePrompt(ctx context.Context, conv conversation.Conversation) (string, error) {
	chat := llm.NewChat(o.llmClient)
	chat.Start(toLLM(conv.Messages))

	prompt, err := chat.Send(ctx, checkInInstruction(o.now()))
	if err != nil {
		return fmt.Sprintf("Error generating daily prompt: %s", err), err
	}
	return prompt, nil
}

func checkInInstruction(now time.Time) string {
	return fmt.Sprintf(`Today's date %s
Craft a brief, friendly, and low-pressure daily check-in message for the user.

Your message should gently invite the user to do one of the following (**but not both**):
1. Share a thought on their day or some recent events.
2. Reflect on anything specific that stood out to them recently in the ongoing conversation.

The final message should feel genuinely interested in their journey and not explicitly state it's an "automated message."
Start directly with the check-in.`, now.UTC().Format("2006-01-02 15"))
}

func toLLM(msgs []conversation.Message) []llm.Message {
	out := make([]llm.Message, 0, len(msgs))
	for _, m := range msgs {
		out = append(out, llm.Message{Role: m.Role, Content: m.Content})
	}
	return out
}
