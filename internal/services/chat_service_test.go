package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/AcademiaHub/module-service/internal/config"
	"github.com/AcademiaHub/module-service/internal/models"
	"github.com/AcademiaHub/module-service/internal/repositories"
	"github.com/AcademiaHub/module-service/internal/validator"
)

// upstreamRecorder fakes the model endpoint and captures what we sent it.
type upstreamRecorder struct {
	mu       sync.Mutex
	requests []chatUpstreamRequest
	reply    string
	status   int
}

func (u *upstreamRecorder) handler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req chatUpstreamRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		u.mu.Lock()
		u.requests = append(u.requests, req)
		u.mu.Unlock()

		if u.status != 0 {
			http.Error(w, "model overloaded", u.status)
			return
		}

		if req.Stream {
			// Line-delimited chunks, last one carries done=true.
			for i, chunk := range strings.SplitAfter(u.reply, " ") {
				done := i == strings.Count(u.reply, " ")
				json.NewEncoder(w).Encode(chatUpstreamResponse{
					Message: chatTurn{Role: "assistant", Content: chunk},
					Done:    done,
				})
			}
			return
		}
		json.NewEncoder(w).Encode(chatUpstreamResponse{
			Message: chatTurn{Role: "assistant", Content: u.reply},
			Done:    true,
		})
	}
}

func (u *upstreamRecorder) lastRequest(t *testing.T) chatUpstreamRequest {
	t.Helper()
	u.mu.Lock()
	defer u.mu.Unlock()
	if len(u.requests) == 0 {
		t.Fatal("no upstream requests recorded")
	}
	return u.requests[len(u.requests)-1]
}

func newChatFixture(t *testing.T, upstream *upstreamRecorder) (*MockRepository, ChatService) {
	t.Helper()
	server := httptest.NewServer(upstream.handler())
	t.Cleanup(server.Close)

	repo := NewMockRepository()
	svc := NewChatService(repo, nil, testLogger(), validator.New(), config.ChatConfig{
		Endpoint:     server.URL,
		Model:        "llama3",
		SystemPrompt: "You are a helpful assistant.",
	})
	return repo, svc
}

func TestChatService_Ask(t *testing.T) {
	upstream := &upstreamRecorder{reply: "Enrollment is capped at four modules."}
	repo, svc := newChatFixture(t, upstream)
	userID := "student-1"

	resp, err := svc.Ask(context.Background(), &userID, &ChatRequest{Message: "How many modules can I take?"})
	if err != nil {
		t.Fatalf("Ask() error = %v", err)
	}
	if resp.Message.Content != upstream.reply {
		t.Errorf("Ask() content = %q, want %q", resp.Message.Content, upstream.reply)
	}

	sent := upstream.lastRequest(t)
	if sent.Model != "llama3" {
		t.Errorf("upstream model = %q, want llama3", sent.Model)
	}
	if sent.Stream {
		t.Error("Ask() requested a streamed reply")
	}
	if len(sent.Messages) != 2 || sent.Messages[0].Role != "system" || sent.Messages[1].Role != "user" {
		t.Errorf("upstream turns = %+v, want system then user", sent.Messages)
	}

	// Both sides of the exchange are stored for the authenticated caller.
	stored, total, err := repo.Chat().ListByUser(context.Background(), nil, userID, repositories.ChatHistoryFilters{})
	if err != nil {
		t.Fatalf("ListByUser() error = %v", err)
	}
	if total != 2 {
		t.Fatalf("stored %d turns, want 2", total)
	}
	if stored[0].Role != models.ChatRoleUser || stored[1].Role != models.ChatRoleAssistant {
		t.Errorf("stored roles = %q/%q, want user/assistant", stored[0].Role, stored[1].Role)
	}
	if stored[1].Content != upstream.reply {
		t.Errorf("stored assistant turn = %q, want %q", stored[1].Content, upstream.reply)
	}
}

func TestChatService_AskAnonymousNotPersisted(t *testing.T) {
	upstream := &upstreamRecorder{reply: "Hello."}
	repo, svc := newChatFixture(t, upstream)

	if _, err := svc.Ask(context.Background(), nil, &ChatRequest{Message: "Hi"}); err != nil {
		t.Fatalf("Ask() error = %v", err)
	}

	_, total, err := repo.Chat().ListByUser(context.Background(), nil, "", repositories.ChatHistoryFilters{})
	if err != nil {
		t.Fatalf("ListByUser() error = %v", err)
	}
	if total != 0 {
		t.Errorf("anonymous ask stored %d turns, want 0", total)
	}
}

func TestChatService_AskReplaysHistory(t *testing.T) {
	upstream := &upstreamRecorder{reply: "Four."}
	_, svc := newChatFixture(t, upstream)
	userID := "student-1"

	ctx := context.Background()
	if _, err := svc.Ask(ctx, &userID, &ChatRequest{Message: "How many modules?"}); err != nil {
		t.Fatalf("first Ask() error = %v", err)
	}
	if _, err := svc.Ask(ctx, &userID, &ChatRequest{Message: "And who grades them?"}); err != nil {
		t.Fatalf("second Ask() error = %v", err)
	}

	// system + first exchange (2 turns) + new user message
	sent := upstream.lastRequest(t)
	if len(sent.Messages) != 4 {
		t.Fatalf("second ask sent %d turns, want 4", len(sent.Messages))
	}
	if sent.Messages[1].Content != "How many modules?" || sent.Messages[2].Role != "assistant" {
		t.Errorf("history not replayed in order: %+v", sent.Messages)
	}
}

func TestChatService_AskValidation(t *testing.T) {
	upstream := &upstreamRecorder{reply: "unused"}
	_, svc := newChatFixture(t, upstream)

	_, err := svc.Ask(context.Background(), nil, &ChatRequest{})
	if !errors.Is(err, ErrValidationFailed) {
		t.Errorf("Ask() with empty message error = %v, want ErrValidationFailed", err)
	}
}

func TestChatService_AskUpstreamError(t *testing.T) {
	upstream := &upstreamRecorder{status: http.StatusServiceUnavailable}
	repo, svc := newChatFixture(t, upstream)
	userID := "student-1"

	if _, err := svc.Ask(context.Background(), &userID, &ChatRequest{Message: "Hi"}); !errors.Is(err, ErrUpstream) {
		t.Fatalf("Ask() error = %v, want ErrUpstream", err)
	}

	_, total, _ := repo.Chat().ListByUser(context.Background(), nil, userID, repositories.ChatHistoryFilters{})
	if total != 0 {
		t.Errorf("failed ask stored %d turns, want 0", total)
	}
}

func TestChatService_AskStream(t *testing.T) {
	upstream := &upstreamRecorder{reply: "Modules close when full."}
	repo, svc := newChatFixture(t, upstream)
	userID := "student-1"

	var out bytes.Buffer
	if err := svc.AskStream(context.Background(), &userID, &ChatRequest{Message: "When do modules close?"}, &out); err != nil {
		t.Fatalf("AskStream() error = %v", err)
	}

	// The relayed stream is line-delimited JSON chunks.
	var assembled strings.Builder
	for _, line := range strings.Split(strings.TrimSpace(out.String()), "\n") {
		var chunk chatUpstreamResponse
		if err := json.Unmarshal([]byte(line), &chunk); err != nil {
			t.Fatalf("relayed chunk is not valid JSON: %v", err)
		}
		assembled.WriteString(chunk.Message.Content)
	}
	if assembled.String() != upstream.reply {
		t.Errorf("assembled stream = %q, want %q", assembled.String(), upstream.reply)
	}

	stored, total, err := repo.Chat().ListByUser(context.Background(), nil, userID, repositories.ChatHistoryFilters{})
	if err != nil {
		t.Fatalf("ListByUser() error = %v", err)
	}
	if total != 2 {
		t.Fatalf("stored %d turns, want 2", total)
	}
	if stored[1].Content != upstream.reply {
		t.Errorf("stored assistant turn = %q, want %q", stored[1].Content, upstream.reply)
	}
}

func TestChatService_History(t *testing.T) {
	upstream := &upstreamRecorder{reply: "Noted."}
	_, svc := newChatFixture(t, upstream)
	userID := "student-1"

	ctx := context.Background()
	for _, q := range []string{"first", "second"} {
		if _, err := svc.Ask(ctx, &userID, &ChatRequest{Message: q}); err != nil {
			t.Fatalf("Ask(%q) error = %v", q, err)
		}
	}

	resp, err := svc.History(ctx, userID, repositories.ChatHistoryFilters{Limit: 2})
	if err != nil {
		t.Fatalf("History() error = %v", err)
	}
	if resp.Total != 4 {
		t.Errorf("History() total = %d, want 4", resp.Total)
	}
	if len(resp.Messages) != 2 {
		t.Errorf("History() returned %d messages, want 2 with limit", len(resp.Messages))
	}
	if resp.Messages[0].Content != "first" {
		t.Errorf("History() first message = %q, want oldest first", resp.Messages[0].Content)
	}
}
