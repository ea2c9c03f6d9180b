package services

import (
	"context"
	"sync"

	"github.com/stretchr/testify/mock"

	"github.com/rmail/rmail/internal/models"
)

// MockBackendClient mocks the REST surface.
type MockBackendClient struct {
	mock.Mock
}

func (m *MockBackendClient) AuthStatus(ctx context.Context) (models.Session, error) {
	args := m.Called(ctx)
	return args.Get(0).(models.Session), args.Error(1)
}

func (m *MockBackendClient) LoginURL(ctx context.Context) (string, error) {
	args := m.Called(ctx)
	return args.String(0), args.Error(1)
}

func (m *MockBackendClient) ExchangeCode(ctx context.Context, code string) (string, error) {
	args := m.Called(ctx, code)
	return args.String(0), args.Error(1)
}

func (m *MockBackendClient) Logout(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *MockBackendClient) ListEmails(ctx context.Context, folder models.Folder, filter models.Filter) ([]models.Email, error) {
	args := m.Called(ctx, folder, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Email), args.Error(1)
}

func (m *MockBackendClient) GetThread(ctx context.Context, threadID string) ([]models.Email, error) {
	args := m.Called(ctx, threadID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Email), args.Error(1)
}

func (m *MockBackendClient) MarkRead(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockBackendClient) ToggleStar(ctx context.Context, id string) (bool, error) {
	args := m.Called(ctx, id)
	return args.Bool(0), args.Error(1)
}

func (m *MockBackendClient) SendEmail(ctx context.Context, req models.SendRequest) (models.Email, error) {
	args := m.Called(ctx, req)
	return args.Get(0).(models.Email), args.Error(1)
}

func (m *MockBackendClient) Chat(ctx context.Context, req models.ChatRequest) (models.ChatReply, error) {
	args := m.Called(ctx, req)
	return args.Get(0).(models.ChatReply), args.Error(1)
}

func (m *MockBackendClient) ChatHistory(ctx context.Context) ([]models.ChatMessage, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.ChatMessage), args.Error(1)
}

func (m *MockBackendClient) ClearChatHistory(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

// recordingNotifier captures notifications for assertions.
type recordingNotifier struct {
	mu       sync.Mutex
	infos    []string
	successs []string
	warnings []string
	errors   []string
}

func (n *recordingNotifier) Info(message string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.infos = append(n.infos, message)
}

func (n *recordingNotifier) Success(message string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.successs = append(n.successs, message)
}

func (n *recordingNotifier) Warning(message string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.warnings = append(n.warnings, message)
}

func (n *recordingNotifier) Error(message string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.errors = append(n.errors, message)
}

func (n *recordingNotifier) allErrors() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := make([]string, len(n.errors))
	copy(out, n.errors)
	return out
}

// fakeWorkspace records the operations the action interpreter performs, in
// order, so tests can assert on sequencing.
type fakeWorkspace struct {
	mu        sync.Mutex
	ops       []string
	emails    map[string]models.Email
	userEmail string
	view      models.View
	sendErr   error
}

func newFakeWorkspace() *fakeWorkspace {
	return &fakeWorkspace{
		emails:    map[string]models.Email{},
		userEmail: "me@example.com",
		view:      models.ViewInbox,
	}
}

func (w *fakeWorkspace) record(op string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.ops = append(w.ops, op)
}

func (w *fakeWorkspace) operations() []string {
	w.mu.Lock()
	defer w.mu.Unlock()
	out := make([]string, len(w.ops))
	copy(out, w.ops)
	return out
}

func (w *fakeWorkspace) Navigate(view models.View) {
	w.mu.Lock()
	w.view = view
	w.mu.Unlock()
	w.record("navigate:" + string(view))
}

func (w *fakeWorkspace) OpenEmail(_ context.Context, emailID string) error {
	w.mu.Lock()
	w.view = models.ViewDetail
	w.mu.Unlock()
	w.record("open:" + emailID)
	return nil
}

func (w *fakeWorkspace) ApplyFilter(_ context.Context, filter models.Filter) {
	w.record("filter:" + filter.Sender + ":" + filter.Keyword)
}

func (w *fakeWorkspace) ClearFilters(_ context.Context) {
	w.record("clear_filters")
}

func (w *fakeWorkspace) SendDraft(_ context.Context) error {
	w.record("send_draft")
	return w.sendErr
}

func (w *fakeWorkspace) FindEmail(emailID string) (models.Email, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	e, ok := w.emails[emailID]
	return e, ok
}

func (w *fakeWorkspace) UserEmail() string { return w.userEmail }

func (w *fakeWorkspace) ChatContext() models.ChatContext {
	w.mu.Lock()
	defer w.mu.Unlock()
	return models.ChatContext{CurrentView: w.view, UserEmail: w.userEmail}
}
