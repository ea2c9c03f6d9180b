package services

import (
	"context"

	"github.com/rmail/rmail/internal/models"
)

// BackendClient is the REST surface the services consume. Implemented by
// api.Client; mocked in tests.
type BackendClient interface {
	AuthStatus(ctx context.Context) (models.Session, error)
	LoginURL(ctx context.Context) (string, error)
	ExchangeCode(ctx context.Context, code string) (string, error)
	Logout(ctx context.Context) error

	ListEmails(ctx context.Context, folder models.Folder, filter models.Filter) ([]models.Email, error)
	GetThread(ctx context.Context, threadID string) ([]models.Email, error)
	MarkRead(ctx context.Context, id string) error
	ToggleStar(ctx context.Context, id string) (bool, error)
	SendEmail(ctx context.Context, req models.SendRequest) (models.Email, error)

	Chat(ctx context.Context, req models.ChatRequest) (models.ChatReply, error)
	ChatHistory(ctx context.Context) ([]models.ChatMessage, error)
	ClearChatHistory(ctx context.Context) error
}

// SessionService owns authentication and connection status.
type SessionService interface {
	// RefreshStatus returns the current session. Without a stored
	// credential it short-circuits to disconnected with no network call.
	// A 401 clears the credential; any other failure returns the last
	// known status unchanged.
	RefreshStatus(ctx context.Context) (models.Session, error)

	// Login requests the authorization URL that the consumer must
	// navigate to. Session state is not altered.
	Login(ctx context.Context) (string, error)

	// ExchangeCallback trades an authorization code for a credential,
	// persists it, and refreshes the status.
	ExchangeCallback(ctx context.Context, code string) (models.Session, error)

	// Logout invalidates the backend session best-effort and
	// unconditionally clears the local credential and session state.
	Logout(ctx context.Context) error

	// Current returns the cached session without a network call.
	Current() models.Session
}

// EmailStore holds the per-folder ordered collections and applies all
// mutations against them. An email id never appears twice within one
// folder, no matter how fetches, pushes, and optimistic edits interleave.
type EmailStore interface {
	Fetch(ctx context.Context, folder models.Folder, override *models.Filter) error
	FetchAll(ctx context.Context) error
	MarkRead(ctx context.Context, emailID string) error
	ToggleStar(ctx context.Context, emailID string) error
	Send(ctx context.Context, draft models.Draft) error
	MergePush(event models.PushEvent)
	Thread(ctx context.Context, threadID string) ([]models.Email, error)

	Folder(folder models.Folder) []models.Email
	Find(emailID string) (models.Email, bool)
	UnreadCount() int
	Restore(folder models.Folder, emails []models.Email)
	Clear()
}

// FilterService holds the committed filter predicate set. Each commit fires
// the change hook exactly once.
type FilterService interface {
	Apply(ctx context.Context, filter models.Filter)
	Clear(ctx context.Context)
	Active() models.Filter
	OnChange(hook func(ctx context.Context, filter models.Filter))
}

// ComposeService holds the pending outgoing-message draft and the
// visibility of the compose surface.
type ComposeService interface {
	Open(draft models.Draft)
	Show()
	SetDraft(draft models.Draft)
	Close()
	Reset()
	Current() (models.Draft, bool)
}

// AssistantService owns the chat transcript and interprets assistant
// action plans against the rest of the client.
type AssistantService interface {
	SendMessage(ctx context.Context, text string) error
	Execute(ctx context.Context, actions models.ActionList)
	LoadHistory(ctx context.Context) error
	ClearChat(ctx context.Context) error
	ClearLocal()
	Restore(messages []models.ChatMessage)
	Messages() []models.ChatMessage
	Acting() bool
}

// Workspace is the slice of application state the action interpreter and
// the session flow act through: view switching, email opening, filtering,
// and draft submission. Implemented by the app; mocked in tests.
type Workspace interface {
	Navigate(view models.View)
	OpenEmail(ctx context.Context, emailID string) error
	ApplyFilter(ctx context.Context, filter models.Filter)
	ClearFilters(ctx context.Context)
	SendDraft(ctx context.Context) error
	FindEmail(emailID string) (models.Email, bool)
	UserEmail() string
	ChatContext() models.ChatContext
}
