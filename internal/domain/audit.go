package domain

import (
	"encoding/json"
	"time"
)

// AuditLog records a lifecycle action on an account or category.
type AuditLog struct {
	CreatedAt    time.Time
	BeforeState  JSON
	AfterState   JSON
	ID           string
	UserID       string
	ResourceType string
	ResourceID   string
	RequestID    string
	ErrorMessage string
	Action       AuditAction
	Status       AuditStatus
}

// JSON is a snapshot of an entity as stored in the audit trail.
type JSON map[string]any

type AuditAction string

const (
	AuditActionAccountOpen         AuditAction = "account.open"
	AuditActionAccountClose        AuditAction = "account.close"
	AuditActionAccountStatusChange AuditAction = "account.status_change"
	AuditActionCategoryDelete      AuditAction = "category.delete"
)

type AuditStatus string

const (
	AuditStatusSuccess AuditStatus = "success"
	AuditStatusFailure AuditStatus = "failure"
)

// MarshalState flattens v into a JSON object via its json tags.
// Values that do not encode to an object yield a map with an "error" key.
func MarshalState(v any) JSON {
	if v == nil {
		return nil
	}

	raw, err := json.Marshal(v)
	if err != nil {
		return JSON{"error": err.Error()}
	}

	state := JSON{}
	if err := json.Unmarshal(raw, &state); err != nil {
		return JSON{"error": "state is not an object"}
	}

	return state
}

// AuditFilter narrows an audit trail query. Empty fields match everything.
type AuditFilter struct {
	UserID       string
	ResourceType string
	ResourceID   string
	Action       AuditAction
	Limit        int
	Offset       int
}
