package models

// Folder identifies one of the named email collections.
type Folder string

const (
	FolderInbox Folder = "inbox"
	FolderSent  Folder = "sent"
)

// Valid reports whether the folder is one of the known collections.
func (f Folder) Valid() bool {
	return f == FolderInbox || f == FolderSent
}

// View identifies the surface the client is currently presenting.
type View string

const (
	ViewInbox   View = "inbox"
	ViewSent    View = "sent"
	ViewDetail  View = "detail"
	ViewCompose View = "compose"
)

// SessionMode describes the connection mode reported by the backend.
type SessionMode string

const (
	ModeDisconnected SessionMode = "disconnected"
	ModeLive         SessionMode = "live"
)

// Session holds the authentication and connection status of the client.
type Session struct {
	Configured bool        `json:"configured"`
	Email      string      `json:"email"`
	Mode       SessionMode `json:"mode"`
	CanLogin   bool        `json:"can_login"`
}

// DisconnectedSession is the status used when no credential is held or the
// backend rejected the one we had.
func DisconnectedSession() Session {
	return Session{Configured: false, Email: "", Mode: ModeDisconnected, CanLogin: true}
}

// Email is a single message as served by the backend. Identity is ID and
// must be unique within a folder collection. Only IsRead and Starred are
// mutated after fetch; everything else is treated as immutable.
type Email struct {
	ID        string `json:"id"`
	ThreadID  string `json:"thread_id,omitempty"`
	MessageID string `json:"message_id,omitempty"`
	FromName  string `json:"from_name"`
	FromEmail string `json:"from_email"`
	ToName    string `json:"to_name"`
	ToEmail   string `json:"to_email"`
	Subject   string `json:"subject"`
	Preview   string `json:"preview"`
	Body      string `json:"body"`
	BodyHTML  string `json:"body_html,omitempty"`
	Date      string `json:"date"` // ISO-8601, backend ordering is authoritative
	IsRead    bool   `json:"is_read"`
	Starred   bool   `json:"starred"`
	Folder    Folder `json:"folder"`
}

// Filter is the active search predicate set. All fields empty means
// "no constraint" and must behave exactly like no filter at all.
type Filter struct {
	Sender     string `json:"sender,omitempty"`
	Keyword    string `json:"keyword,omitempty"`
	DateFrom   string `json:"date_from,omitempty"`
	DateTo     string `json:"date_to,omitempty"`
	UnreadOnly bool   `json:"unread_only,omitempty"`
}

// IsEmpty reports whether the filter imposes no constraint.
func (f Filter) IsEmpty() bool {
	return f == Filter{}
}

// ReplyContext carries the original message identifiers forward so the
// backend can thread a reply correctly.
type ReplyContext struct {
	MessageID string `json:"message_id"`
	ThreadID  string `json:"thread_id"`
}

// Draft is a pending outgoing message.
type Draft struct {
	To      string        `json:"to"`
	Subject string        `json:"subject"`
	Body    string        `json:"body"`
	Reply   *ReplyContext `json:"reply,omitempty"`
}

// SendRequest is the payload for the backend send endpoint.
type SendRequest struct {
	ToEmail          string `json:"to_email"`
	ToName           string `json:"to_name"`
	Subject          string `json:"subject"`
	Body             string `json:"body"`
	ReplyToMessageID string `json:"reply_to_message_id,omitempty"`
	ThreadID         string `json:"thread_id,omitempty"`
}

// Push event types delivered over the live channel.
const (
	EventNewEmail  = "new_email"
	EventEmailSent = "email_sent"
	EventPing      = "ping"
	EventPong      = "pong"
)

// PushEvent is the envelope of a server-initiated message on the live
// channel. Unrecognized types are discarded by the channel.
type PushEvent struct {
	Type  string `json:"type"`
	Email *Email `json:"email,omitempty"`
}

// ChatContext is the snapshot of client state sent alongside every chat
// message. Bodies are bounded to an excerpt; full content never leaves the
// client through this path.
type ChatContext struct {
	CurrentView          View   `json:"currentView"`
	SelectedEmailID      string `json:"selectedEmailId"`
	SelectedEmailSubject string `json:"selectedEmailSubject"`
	SelectedEmailFrom    string `json:"selectedEmailFrom"`
	SelectedEmailBody    string `json:"selectedEmailBody"`
	TotalInbox           int    `json:"totalInbox"`
	TotalSent            int    `json:"totalSent"`
	UnreadCount          int    `json:"unreadCount"`
	ActiveFilters        Filter `json:"activeFilters"`
	UserEmail            string `json:"userEmail"`
}

// ContextBodyLimit bounds the selected-email excerpt included in ChatContext.
const ContextBodyLimit = 500
