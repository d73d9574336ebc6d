package llm

import (
	"context"
	"fmt"
)

// Chat is one conversation session with a model: Start seeds it from
// stored history, Send round-trips a single prompt and keeps the
// exchange in the session history.
type Chat struct {
	client  Client
	history []Message
}

func NewChat(client Client) *Chat {
	return &Chat{client: client}
}

// Start replaces the session history. Entries with an empty or system
// role, or empty content, are not part of the model context.
func (c *Chat) Start(history []Message) {
	c.history = c.history[:0]
	for _, m := range history {
		if m.Role == "" || m.Role == "system" || m.Content == "" {
			continue
		}
		c.history = append(c.history, m)
	}
}

// Send submits text as a user turn and returns the model's reply.
func (c *Chat) Send(ctx context.Context, text string) (string, error) {
	msgs := make([]Message, 0, len(c.history)+1)
	msgs = append(msgs, c.history...)
	msgs = append(msgs, Message{Role: "user", Content: text})

	resp, err := c.client.Generate(ctx, msgs)
	if err != nil {
		return "", fmt.Errorf("chat send: %w", err)
	}

	c.history = append(c.history,
		Message{Role: "user", Content: text},
		Message{Role: "assistant", Content: resp.Content},
	)
	return resp.Content, nil
}

// History returns a copy of the session history.
func (c *Chat) History() []Message {
	out := make([]Message, len(c.history))
	copy(out, c.history)
	return out
}
