package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestActionListDecodesKnownVariants(t *testing.T) {
	payload := `[
		{"type": "navigate", "view": "sent"},
		{"type": "compose", "to": "ana@example.com", "subject": "Hi", "body": "Hello"},
		{"type": "open_email", "email_id": "42"},
		{"type": "filter", "sender": "bob", "unread_only": true},
		{"type": "clear_filters"},
		{"type": "reply", "email_id": "42", "body": "Thanks!"},
		{"type": "send"}
	]`

	var actions ActionList
	require.NoError(t, json.Unmarshal([]byte(payload), &actions))
	require.Len(t, actions, 7)

	assert.Equal(t, NavigateAction{View: ViewSent}, actions[0])
	assert.Equal(t, ComposeAction{To: "ana@example.com", Subject: "Hi", Body: "Hello"}, actions[1])
	assert.Equal(t, OpenEmailAction{EmailID: "42"}, actions[2])
	assert.Equal(t, FilterAction{Sender: "bob", UnreadOnly: true}, actions[3])
	assert.Equal(t, ClearFiltersAction{}, actions[4])
	assert.Equal(t, ReplyAction{EmailID: "42", Body: "Thanks!"}, actions[5])
	assert.Equal(t, SendAction{}, actions[6])
}

func TestActionListDropsUnknownVariants(t *testing.T) {
	payload := `[
		{"type": "navigate", "view": "inbox"},
		{"type": "archive_all", "folder": "inbox"},
		{"type": "send"},
		{"no_type_at_all": true}
	]`

	var actions ActionList
	require.NoError(t, json.Unmarshal([]byte(payload), &actions))
	require.Len(t, actions, 2)
	assert.Equal(t, ActionNavigate, actions[0].ActionType())
	assert.Equal(t, ActionSend, actions[1].ActionType())
}

func TestActionListMarshalKeepsTypeTag(t *testing.T) {
	actions := ActionList{
		NavigateAction{View: ViewDetail},
		OpenEmailAction{EmailID: "7"},
		ClearFiltersAction{},
	}

	data, err := json.Marshal(actions)
	require.NoError(t, err)

	var decoded ActionList
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, actions, decoded)
}

func TestFilterActionToFilter(t *testing.T) {
	a := FilterAction{Sender: "ana", Keyword: "invoice", DateFrom: "2025-01-01", UnreadOnly: true}
	f := a.Filter()
	assert.Equal(t, "ana", f.Sender)
	assert.Equal(t, "invoice", f.Keyword)
	assert.Equal(t, "2025-01-01", f.DateFrom)
	assert.True(t, f.UnreadOnly)
	assert.False(t, f.IsEmpty())
	assert.True(t, FilterAction{}.Filter().IsEmpty())
}
