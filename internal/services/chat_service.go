package services

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/AcademiaHub/module-service/internal/config"
	"github.com/AcademiaHub/module-service/internal/models"
	"github.com/AcademiaHub/module-service/internal/repositories"
	"github.com/AcademiaHub/module-service/internal/validator"
)

// historyWindow bounds how many stored turns are replayed to the model.
const historyWindow = 20

type chatService struct {
	repo      repositories.Repository
	db        *gorm.DB
	logger    *slog.Logger
	validator *validator.Validator
	cfg       config.ChatConfig
	client    *http.Client
}

func NewChatService(repo repositories.Repository, db *gorm.DB, logger *slog.Logger, v *validator.Validator, cfg config.ChatConfig) ChatService {
	return &chatService{
		repo:      repo,
		db:        db,
		logger:    logger,
		validator: v,
		cfg:       cfg,
		client:    &http.Client{Timeout: 120 * time.Second},
	}
}

// wire types for the model endpoint

type chatTurn struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatUpstreamRequest struct {
	Model    string     `json:"model"`
	Messages []chatTurn `json:"messages"`
	Stream   bool       `json:"stream"`
}

type chatUpstreamResponse struct {
	Message chatTurn `json:"message"`
	Done    bool     `json:"done"`
}

// Ask sends one message to the assistant and returns the full reply. When
// the caller is authenticated both turns are persisted under their id.
func (s *chatService) Ask(ctx context.Context, userID *string, req *ChatRequest) (*ChatResponse, error) {
	if err := s.validator.Validate(req); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrValidationFailed, err.Error())
	}

	turns, err := s.buildTurns(ctx, userID, req.Message)
	if err != nil {
		return nil, err
	}

	body, err := s.callUpstream(ctx, chatUpstreamRequest{
		Model:    s.cfg.Model,
		Messages: turns,
		Stream:   false,
	})
	if err != nil {
		return nil, err
	}
	defer body.Close()

	var upstream chatUpstreamResponse
	if err := json.NewDecoder(body).Decode(&upstream); err != nil {
		return nil, fmt.Errorf("failed to decode assistant response: %w", err)
	}

	s.persistTurns(ctx, userID, req.Message, upstream.Message.Content)

	return &ChatResponse{
		Message: ChatResponseMessage{Content: upstream.Message.Content},
	}, nil
}

// AskStream relays the assistant's chunked reply to out as it arrives,
// then persists the assembled conversation turn.
func (s *chatService) AskStream(ctx context.Context, userID *string, req *ChatRequest, out io.Writer) error {
	if err := s.validator.Validate(req); err != nil {
		return fmt.Errorf("%w: %s", ErrValidationFailed, err.Error())
	}

	turns, err := s.buildTurns(ctx, userID, req.Message)
	if err != nil {
		return err
	}

	body, err := s.callUpstream(ctx, chatUpstreamRequest{
		Model:    s.cfg.Model,
		Messages: turns,
		Stream:   true,
	})
	if err != nil {
		return err
	}
	defer body.Close()

	var assembled bytes.Buffer
	flusher, _ := out.(http.Flusher)

	scanner := bufio.NewScanner(body)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(bytes.TrimSpace(line)) == 0 {
			continue
		}

		var chunk chatUpstreamResponse
		if err := json.Unmarshal(line, &chunk); err != nil {
			s.logger.Warn("skipping malformed assistant chunk", "error", err)
			continue
		}
		assembled.WriteString(chunk.Message.Content)

		if _, err := out.Write(append(line, '\n')); err != nil {
			return fmt.Errorf("failed to relay assistant chunk: %w", err)
		}
		if flusher != nil {
			flusher.Flush()
		}

		if chunk.Done {
			break
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("failed to read assistant stream: %w", err)
	}

	s.persistTurns(ctx, userID, req.Message, assembled.String())

	return nil
}

// History returns the caller's stored conversation
func (s *chatService) History(ctx context.Context, userID string, filters repositories.ChatHistoryFilters) (*ChatHistoryResponse, error) {
	messages, total, err := s.repo.Chat().ListByUser(ctx, s.db, userID, filters)
	if err != nil {
		return nil, fmt.Errorf("failed to load chat history: %w", err)
	}

	return &ChatHistoryResponse{
		Messages: messages,
		Total:    total,
	}, nil
}

func (s *chatService) callUpstream(ctx context.Context, payload chatUpstreamRequest) (io.ReadCloser, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to encode assistant request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, s.cfg.Endpoint, bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to build assistant request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("assistant endpoint unreachable: %v: %w", err, ErrUpstream)
	}
	if resp.StatusCode != http.StatusOK {
		defer resp.Body.Close()
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("assistant endpoint returned %d: %s: %w", resp.StatusCode, snippet, ErrUpstream)
	}

	return resp.Body, nil
}

// buildTurns assembles system prompt, recent stored history and the new
// message into the upstream conversation.
func (s *chatService) buildTurns(ctx context.Context, userID *string, message string) ([]chatTurn, error) {
	turns := []chatTurn{{Role: "system", Content: s.cfg.SystemPrompt}}

	if userID != nil {
		history, _, err := s.repo.Chat().ListByUser(ctx, s.db, *userID, repositories.ChatHistoryFilters{Limit: historyWindow})
		if err != nil {
			return nil, fmt.Errorf("failed to load chat history: %w", err)
		}
		for _, msg := range history {
			turns = append(turns, chatTurn{Role: string(msg.Role), Content: msg.Content})
		}
	}

	return append(turns, chatTurn{Role: "user", Content: message}), nil
}

// persistTurns stores both sides of the exchange for authenticated users.
// Persistence failures are logged, not surfaced: the caller already has
// the reply.
func (s *chatService) persistTurns(ctx context.Context, userID *string, question, answer string) {
	if userID == nil {
		return
	}

	meta, err := json.Marshal(map[string]string{"model": s.cfg.Model})
	if err != nil {
		meta = nil
	}

	messages := []*models.ChatMessage{
		{UserID: userID, Role: models.ChatRoleUser, Content: question},
		{UserID: userID, Role: models.ChatRoleAssistant, Content: answer, Meta: datatypes.JSON(meta)},
	}
	if err := s.repo.Chat().CreateBatch(ctx, s.db, messages); err != nil {
		s.logger.Error("failed to persist chat turns", "user_id", *userID, "error", err)
	}
}
