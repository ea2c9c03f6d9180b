package services

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/rmail/rmail/internal/models"
)

const chatFailureReply = "Sorry, something went wrong."

// AssistantServiceImpl implements AssistantService. The transcript is
// append-only; actions returned by the backend run sequentially, never
// concurrently, with a short pause before each one so a human can follow
// what the assistant is doing.
type AssistantServiceImpl struct {
	client    BackendClient
	workspace Workspace
	composer  ComposeService
	notifier  Notifier
	logger    *zap.Logger

	actionDelay time.Duration
	settleDelay time.Duration
	sleep       func(time.Duration)

	mu       sync.Mutex
	messages []models.ChatMessage
	acting   atomic.Bool
}

// NewAssistantService creates a new assistant orchestrator.
func NewAssistantService(client BackendClient, workspace Workspace, composer ComposeService, notifier Notifier, actionDelay, settleDelay time.Duration, logger *zap.Logger) *AssistantServiceImpl {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AssistantServiceImpl{
		client:      client,
		workspace:   workspace,
		composer:    composer,
		notifier:    notifier,
		logger:      logger,
		actionDelay: actionDelay,
		settleDelay: settleDelay,
		sleep:       time.Sleep,
	}
}

// SetSleep overrides the pacing sleeper. Intended for tests.
func (s *AssistantServiceImpl) SetSleep(sleep func(time.Duration)) {
	if sleep != nil {
		s.sleep = sleep
	}
}

// SendMessage appends the user turn, posts it with a state snapshot, then
// appends the assistant turn and runs its action plan. A failed backend
// call becomes a synthetic failure entry; there is no retry.
func (s *AssistantServiceImpl) SendMessage(ctx context.Context, text string) error {
	if strings.TrimSpace(text) == "" {
		return fmt.Errorf("%w: message cannot be empty", ErrInvalidInput)
	}

	s.append(models.ChatMessage{
		ID:        uuid.NewString(),
		Role:      models.RoleUser,
		Content:   text,
		Timestamp: time.Now().UTC(),
	})

	reply, err := s.client.Chat(ctx, models.ChatRequest{
		Message: text,
		Context: s.workspace.ChatContext(),
	})
	if err != nil {
		s.logger.Warn("assistant chat failed", zap.Error(err))
		s.append(models.ChatMessage{
			ID:        uuid.NewString(),
			Role:      models.RoleAssistant,
			Content:   chatFailureReply,
			Timestamp: time.Now().UTC(),
		})
		return fmt.Errorf("%w: %v", ErrChatFailed, err)
	}

	s.append(models.ChatMessage{
		ID:        uuid.NewString(),
		Role:      models.RoleAssistant,
		Content:   reply.Message,
		Actions:   reply.Actions,
		Timestamp: time.Now().UTC(),
	})

	if len(reply.Actions) > 0 {
		s.Execute(ctx, reply.Actions)
	}
	return nil
}

// Execute interprets an action plan in order. A missing target reports
// "not found" and continues; it never aborts the remaining sequence. The
// acting flag is advisory state for consumers, not a lock.
func (s *AssistantServiceImpl) Execute(ctx context.Context, actions models.ActionList) {
	if len(actions) == 0 {
		return
	}
	s.acting.Store(true)
	defer s.acting.Store(false)

	for _, action := range actions {
		s.sleep(s.actionDelay)
		switch a := action.(type) {
		case models.NavigateAction:
			s.notifier.Info(fmt.Sprintf("Navigating to %s...", a.View))
			s.workspace.Navigate(a.View)

		case models.ComposeAction:
			s.notifier.Info("Opening compose...")
			s.composer.Show()
			s.workspace.Navigate(models.ViewInbox)
			s.sleep(s.settleDelay)
			s.composer.SetDraft(models.Draft{To: a.To, Subject: a.Subject, Body: a.Body})

		case models.OpenEmailAction:
			email, ok := s.workspace.FindEmail(a.EmailID)
			if !ok {
				s.notifier.Error("Email not found")
				continue
			}
			s.notifier.Info(fmt.Sprintf("Opening: %q", email.Subject))
			if err := s.workspace.OpenEmail(ctx, a.EmailID); err != nil {
				s.logger.Warn("open email failed", zap.String("id", a.EmailID), zap.Error(err))
			}

		case models.FilterAction:
			s.notifier.Info("Applying filters...")
			s.workspace.ApplyFilter(ctx, a.Filter())

		case models.ClearFiltersAction:
			s.notifier.Info("Clearing filters...")
			s.workspace.ClearFilters(ctx)

		case models.ReplyAction:
			email, ok := s.workspace.FindEmail(a.EmailID)
			if !ok {
				s.notifier.Error("Email not found")
				continue
			}
			s.notifier.Info(fmt.Sprintf("Replying to %s...", email.FromName))
			s.composer.Show()
			s.sleep(s.settleDelay)
			s.composer.SetDraft(models.ReplyDraft(email, s.workspace.UserEmail(), a.Body))

		case models.SendAction:
			draft, _ := s.composer.Current()
			if draft.To == "" || draft.Subject == "" {
				continue
			}
			s.notifier.Info("Sending email...")
			if err := s.workspace.SendDraft(ctx); err != nil {
				s.logger.Warn("assistant send failed", zap.Error(err))
			}
		}
	}
}

// LoadHistory replaces the transcript with the backend's stored one, if
// any exists.
func (s *AssistantServiceImpl) LoadHistory(ctx context.Context) error {
	messages, err := s.client.ChatHistory(ctx)
	if err != nil {
		s.logger.Debug("chat history unavailable", zap.Error(err))
		return fmt.Errorf("load chat history: %w", err)
	}
	if len(messages) == 0 {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.messages = messages
	return nil
}

// ClearChat clears the backend transcript best-effort and the local one
// unconditionally.
func (s *AssistantServiceImpl) ClearChat(ctx context.Context) error {
	if err := s.client.ClearChatHistory(ctx); err != nil {
		s.logger.Debug("backend chat clear failed", zap.Error(err))
	}
	s.ClearLocal()
	return nil
}

// ClearLocal empties the local transcript only.
func (s *AssistantServiceImpl) ClearLocal() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.messages = nil
}

// Restore seeds the transcript from a cached snapshot.
func (s *AssistantServiceImpl) Restore(messages []models.ChatMessage) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.messages = append([]models.ChatMessage(nil), messages...)
}

// Messages returns a copy of the transcript.
func (s *AssistantServiceImpl) Messages() []models.ChatMessage {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.ChatMessage, len(s.messages))
	copy(out, s.messages)
	return out
}

// Acting reports whether an action plan is currently running.
func (s *AssistantServiceImpl) Acting() bool {
	return s.acting.Load()
}

func (s *AssistantServiceImpl) append(msg models.ChatMessage) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.messages = append(s.messages, msg)
}
