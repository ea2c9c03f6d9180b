package models

import (
	"encoding/json"
)

// ActionType tags each variant of the assistant action union.
type ActionType string

const (
	ActionNavigate     ActionType = "navigate"
	ActionCompose      ActionType = "compose"
	ActionOpenEmail    ActionType = "open_email"
	ActionFilter       ActionType = "filter"
	ActionClearFilters ActionType = "clear_filters"
	ActionReply        ActionType = "reply"
	ActionSend         ActionType = "send"
)

// Action is one step of an assistant-authored plan. The set of variants is
// closed: adding a kind means adding a concrete type here and a case in the
// interpreter, which the compiler then checks.
type Action interface {
	ActionType() ActionType
}

// NavigateAction switches the current view.
type NavigateAction struct {
	View View `json:"view"`
}

func (NavigateAction) ActionType() ActionType { return ActionNavigate }

// ComposeAction opens the compose surface with pre-filled fields.
type ComposeAction struct {
	To      string `json:"to,omitempty"`
	Subject string `json:"subject,omitempty"`
	Body    string `json:"body,omitempty"`
}

func (ComposeAction) ActionType() ActionType { return ActionCompose }

// OpenEmailAction opens a specific email by id.
type OpenEmailAction struct {
	EmailID string `json:"email_id"`
}

func (OpenEmailAction) ActionType() ActionType { return ActionOpenEmail }

// FilterAction applies a filter built from the provided fields; fields the
// assistant omits reset to empty.
type FilterAction struct {
	Sender     string `json:"sender,omitempty"`
	Keyword    string `json:"keyword,omitempty"`
	DateFrom   string `json:"date_from,omitempty"`
	DateTo     string `json:"date_to,omitempty"`
	UnreadOnly bool   `json:"unread_only,omitempty"`
}

func (FilterAction) ActionType() ActionType { return ActionFilter }

// Filter converts the action payload into a committed filter value.
func (a FilterAction) Filter() Filter {
	return Filter{
		Sender:     a.Sender,
		Keyword:    a.Keyword,
		DateFrom:   a.DateFrom,
		DateTo:     a.DateTo,
		UnreadOnly: a.UnreadOnly,
	}
}

// ClearFiltersAction resets the active filter.
type ClearFiltersAction struct{}

func (ClearFiltersAction) ActionType() ActionType { return ActionClearFilters }

// ReplyAction opens a pre-filled reply to an existing email.
type ReplyAction struct {
	EmailID string `json:"email_id"`
	Body    string `json:"body,omitempty"`
}

func (ReplyAction) ActionType() ActionType { return ActionReply }

// SendAction submits the current compose draft.
type SendAction struct{}

func (SendAction) ActionType() ActionType { return ActionSend }

// ActionList decodes the backend's action array. Variants with an
// unrecognized type tag are dropped, not errored: the assistant contract
// allows the backend to grow new kinds ahead of the client.
type ActionList []Action

func (l *ActionList) UnmarshalJSON(data []byte) error {
	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	out := make(ActionList, 0, len(raw))
	for _, item := range raw {
		var tag struct {
			Type ActionType `json:"type"`
		}
		if err := json.Unmarshal(item, &tag); err != nil {
			continue
		}
		action, err := decodeAction(tag.Type, item)
		if err != nil || action == nil {
			continue
		}
		out = append(out, action)
	}
	*l = out
	return nil
}

func decodeAction(t ActionType, data []byte) (Action, error) {
	switch t {
	case ActionNavigate:
		var a NavigateAction
		return a, json.Unmarshal(data, &a)
	case ActionCompose:
		var a ComposeAction
		return a, json.Unmarshal(data, &a)
	case ActionOpenEmail:
		var a OpenEmailAction
		return a, json.Unmarshal(data, &a)
	case ActionFilter:
		var a FilterAction
		return a, json.Unmarshal(data, &a)
	case ActionClearFilters:
		return ClearFiltersAction{}, nil
	case ActionReply:
		var a ReplyAction
		return a, json.Unmarshal(data, &a)
	case ActionSend:
		return SendAction{}, nil
	default:
		return nil, nil
	}
}

func (l ActionList) MarshalJSON() ([]byte, error) {
	out := make([]map[string]interface{}, 0, len(l))
	for _, action := range l {
		encoded, err := json.Marshal(action)
		if err != nil {
			return nil, err
		}
		entry := map[string]interface{}{}
		if err := json.Unmarshal(encoded, &entry); err != nil {
			return nil, err
		}
		entry["type"] = action.ActionType()
		out = append(out, entry)
	}
	return json.Marshal(out)
}
