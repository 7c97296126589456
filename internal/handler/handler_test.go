package handler

import (
	"context"
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"github.com/set-night/primeminister/internal/config"
	"github.com/set-night/primeminister/internal/council"
	"github.com/set-night/primeminister/internal/domain"
	"github.com/set-night/primeminister/internal/telegram"
)

type fakeMessenger struct {
	mu        sync.Mutex
	sent      []string
	edits     []string
	keyboards int
	answered  []string
}

func (f *fakeMessenger) SendMessage(_ context.Context, p *bot.SendMessageParams) (*models.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, p.Text)
	return &models.Message{ID: 100 + len(f.sent)}, nil
}

func (f *fakeMessenger) SendChatAction(context.Context, *bot.SendChatActionParams) (bool, error) {
	return true, nil
}

func (f *fakeMessenger) EditMessageText(_ context.Context, p *bot.EditMessageTextParams) (*models.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.edits = append(f.edits, p.Text)
	return &models.Message{ID: p.MessageID}, nil
}

func (f *fakeMessenger) EditMessageReplyMarkup(_ context.Context, p *bot.EditMessageReplyMarkupParams) (*models.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.keyboards++
	return &models.Message{ID: p.MessageID}, nil
}

func (f *fakeMessenger) AnswerCallbackQuery(_ context.Context, p *bot.AnswerCallbackQueryParams) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.answered = append(f.answered, p.Text)
	return true, nil
}

func (f *fakeMessenger) all() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return strings.Join(f.sent, "\n") + "\n" + strings.Join(f.edits, "\n")
}

type stubProvider struct {
	calls atomic.Int32
	fail  bool
}

func (p *stubProvider) Complete(_ context.Context, req domain.CompletionRequest) (*domain.Completion, error) {
	p.calls.Add(1)
	if p.fail {
		return nil, errors.Join(domain.ErrProvider, errors.New("offline"))
	}
	switch req.Stage {
	case domain.StageVote:
		return &domain.Completion{Text: "1"}, nil
	case domain.StageDecision, domain.StageSynthesis:
		return &domain.Completion{Text: "Go ahead."}, nil
	default:
		return &domain.Completion{Text: req.Caller + " says yes"}, nil
	}
}

func newTestHandler(p council.Provider) (*Handler, *fakeMessenger) {
	c := &domain.Council{
		Mode:  domain.ModeCouncil,
		Model: "pm",
		Members: []domain.Member{
			{Name: "A", Model: "m", Personality: "A - first", Voter: true},
			{Name: "B", Model: "m", Personality: "B - second", Voter: true},
		},
	}
	m := &fakeMessenger{}
	h := New(Deps{
		Messenger:    m,
		Cfg:          &config.Config{},
		Orchestrator: council.New(c, p),
	})
	return h, m
}

func textUpdate(chatID int64, text string) *models.Update {
	return &models.Update{Message: &models.Message{
		ID:   7,
		Chat: models.Chat{ID: chatID, Type: models.ChatTypePrivate},
		Text: text,
	}}
}

func TestHandleTextRepliesWithDecision(t *testing.T) {
	h, m := newTestHandler(&stubProvider{})

	h.HandleText(context.Background(), nil, textUpdate(42, "Should we launch?"))

	out := m.all()
	for _, want := range []string{deliberatingText, "PRIME MINISTER'S DECISION", "Go ahead.", "✅ The council has decided."} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
	if !h.chats.TryBegin(42) {
		t.Error("chat still marked busy after the session")
	}
}

func TestHandleTextBusyChat(t *testing.T) {
	p := &stubProvider{}
	h, m := newTestHandler(p)
	h.chats.TryBegin(42)

	h.HandleText(context.Background(), nil, textUpdate(42, "again?"))

	if p.calls.Load() != 0 {
		t.Errorf("provider called %d times for a busy chat", p.calls.Load())
	}
	if !strings.Contains(m.all(), "still working") {
		t.Errorf("output = %q", m.all())
	}
}

func TestHandleTextNoResponses(t *testing.T) {
	h, m := newTestHandler(&stubProvider{fail: true})

	h.HandleText(context.Background(), nil, textUpdate(1, "anyone?"))

	if !strings.Contains(m.all(), "No council member could answer") {
		t.Errorf("output = %q", m.all())
	}
	if strings.Contains(m.all(), "PRIME MINISTER'S DECISION") {
		t.Error("decision sent for a failed session")
	}
}

func TestHandleAskUsage(t *testing.T) {
	p := &stubProvider{}
	h, m := newTestHandler(p)

	h.HandleAsk(context.Background(), nil, textUpdate(1, "/ask"))

	if !strings.Contains(m.all(), "Usage: /ask") || p.calls.Load() != 0 {
		t.Errorf("output = %q, calls = %d", m.all(), p.calls.Load())
	}
}

func TestModeCommandAndCallback(t *testing.T) {
	h, m := newTestHandler(&stubProvider{})

	h.handleMode(context.Background(), nil, textUpdate(5, "/mode advisor"))
	if h.chats.Mode(5) != domain.ModeAdvisor {
		t.Fatalf("mode = %s", h.chats.Mode(5))
	}

	h.handleMode(context.Background(), nil, textUpdate(5, "/mode senate"))
	if h.chats.Mode(5) != domain.ModeAdvisor || !strings.Contains(m.all(), "Unknown mode") {
		t.Errorf("bad mode accepted: %s", h.chats.Mode(5))
	}

	h.handleModeSelect(context.Background(), nil, &models.Update{CallbackQuery: &models.CallbackQuery{
		ID:   "cb",
		Data: telegram.CallbackModeCouncil,
		Message: models.MaybeInaccessibleMessage{
			Type:    models.MaybeInaccessibleMessageTypeMessage,
			Message: &models.Message{ID: 3, Chat: models.Chat{ID: 5}},
		},
	}})
	if h.chats.Mode(5) != domain.ModeCouncil {
		t.Errorf("callback did not switch mode: %s", h.chats.Mode(5))
	}
	if len(m.answered) != 1 || m.keyboards != 1 {
		t.Errorf("answered = %v, keyboards = %d", m.answered, m.keyboards)
	}
}

func TestCommandArgs(t *testing.T) {
	tests := map[string]string{
		"/ask":                 "",
		"/ask  what now ":      "what now",
		"/ask@pm_bot hi there": "hi there",
		"plain question":       "plain question",
	}
	for in, want := range tests {
		if got := commandArgs(in); got != want {
			t.Errorf("commandArgs(%q) = %q, want %q", in, got, want)
		}
	}
}
