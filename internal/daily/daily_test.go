package daily

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"checkin-bot/internal/conversation"
	"checkin-bot/internal/llm"
)

type fakeRepo struct {
	conversations []conversation.Conversation
	listErr       error
	appendErr     error
	appended      map[string][]conversation.Message
}

func (f *fakeRepo) FindMany(_ context.Context) ([]conversation.Conversation, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	return f.conversations, nil
}

func (f *fakeRepo) AddMessage(_ context.Context, id string, msg conversation.Message) (conversation.AppendResult, error) {
	if f.appendErr != nil {
		return conversation.AppendResult{}, f.appendErr
	}
	if f.appended == nil {
		f.appended = make(map[string][]conversation.Message)
	}
	f.appended[id] = append(f.appended[id], msg)
	return conversation.AppendResult{Messages: f.appended[id]}, nil
}

type fakeTransport struct {
	posts   []string
	texts   []string
	postErr error
}

func (f *fakeTransport) Post(channel, text, thread string) (string, error) {
	if f.postErr != nil {
		return "", f.postErr
	}
	f.posts = append(f.posts, channel)
	f.texts = append(f.texts, text)
	return strconv.Itoa(len(f.posts)), nil
}

// fakeLLM fails whenever the seeded history contains failOn.
type fakeLLM struct {
	resp   llm.Response
	failOn string
	calls  int
}

func (f *fakeLLM) Generate(_ context.Context, msgs []llm.Message) (llm.Response, error) {
	f.calls++
	if f.failOn != "" {
		for _, m := range msgs {
			if strings.Contains(m.Content, f.failOn) {
				return llm.Response{}, errors.New("generation blew up")
			}
		}
	}
	return f.resp, nil
}

func conv(id string, active bool, contents ...string) conversation.Conversation {
	c := conversation.Conversation{ID: id, Active: active}
	for _, text := range contents {
		c.Messages = append(c.Messages, conversation.Message{Role: conversation.RoleUser, Content: text})
	}
	return c
}

func newTestOrchestrator(repo Repository, client llm.Client, tr Transport) *Orchestrator {
	return NewOrchestrator(repo, client, tr, zap.NewNop())
}

func TestRunSkipsInactiveConversations(t *testing.T) {
	repo := &fakeRepo{conversations: []conversation.Conversation{
		conv("tg-100", true, "hello"),
		conv("tg-200", false, "hello"),
	}}
	tr := &fakeTransport{}
	o := newTestOrchestrator(repo, &fakeLLM{resp: llm.Response{Content: "check-in"}}, tr)

	res, err := o.Run(context.Background())
	require.NoError(t, err)

	require.Equal(t, 1, res.Delivered)
	require.Equal(t, 1, res.Skipped)
	require.Equal(t, []string{"100"}, tr.posts)

	appended := repo.appended["tg-100"]
	require.Len(t, appended, 1)
	require.Equal(t, conversation.RoleSystem, appended[0].Role)
	require.Equal(t, "Daily Prompt: check-in", appended[0].Content)
	require.Empty(t, repo.appended["tg-200"])
}

func TestRunEmptyHistoryShortCircuits(t *testing.T) {
	repo := &fakeRepo{conversations: []conversation.Conversation{
		conv("tg-100", true),
	}}
	tr := &fakeTransport{}
	fl := &fakeLLM{resp: llm.Response{Content: "unused"}}
	o := newTestOrchestrator(repo, fl, tr)

	res, err := o.Run(context.Background())
	require.NoError(t, err)

	require.Equal(t, 1, res.Empty)
	require.Zero(t, res.Delivered)
	require.Zero(t, fl.calls)
	require.Empty(t, tr.posts)
	require.Empty(t, repo.appended)
}

func TestRunListingFailureAbortsBatch(t *testing.T) {
	repo := &fakeRepo{listErr: errors.New("store unreachable")}
	tr := &fakeTransport{}
	o := newTestOrchestrator(repo, &fakeLLM{}, tr)

	_, err := o.Run(context.Background())
	require.Error(t, err)
	require.Empty(t, tr.posts)
	require.Empty(t, repo.appended)
}

func TestRunGenerationFailureDeliversFallback(t *testing.T) {
	repo := &fakeRepo{conversations: []conversation.Conversation{
		conv("tg-100", true, "broken history"),
		conv("tg-200", true, "fine history"),
	}}
	tr := &fakeTransport{}
	o := newTestOrchestrator(repo, &fakeLLM{resp: llm.Response{Content: "check-in"}, failOn: "broken"}, tr)

	res, err := o.Run(context.Background())
	require.NoError(t, err)

	// The failed conversation still got a delivery, and the failure is
	// reported on its own counter.
	require.Equal(t, 2, res.Delivered)
	require.Equal(t, 1, res.PromptFallbacks)
	require.Len(t, tr.posts, 2)
	require.Len(t, repo.appended["tg-100"], 1)
	require.Len(t, repo.appended["tg-200"], 1)
	require.Equal(t, "check-in", tr.texts[1])
}

func TestRunDeliveryFailureSkipsRecording(t *testing.T) {
	repo := &fakeRepo{conversations: []conversation.Conversation{
		conv("tg-100", true, "hello"),
	}}
	tr := &fakeTransport{postErr: errors.New("channel gone")}
	o := newTestOrchestrator(repo, &fakeLLM{resp: llm.Response{Content: "check-in"}}, tr)

	res, err := o.Run(context.Background())
	require.NoError(t, err)
	require.Equal(t, 1, res.DeliveryFailures)
	require.Zero(t, res.Delivered)
	require.Empty(t, repo.appended)
}

func TestResultStatusMentionsCounts(t *testing.T) {
	res := Result{Total: 3, Delivered: 2, Skipped: 1}
	require.Contains(t, res.Status(), "delivered 2 of 3")
}
