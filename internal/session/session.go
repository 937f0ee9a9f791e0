// Package session tracks per-conversation workflow state for the admin
// registration and deletion forms. Sessions are keyed by conversation
// identity and live only while a workflow is in progress.
package session

// Stage is the current step of an admin workflow.
type Stage string

const (
	StageAwaitingFile       Stage = "awaiting_file"
	StageAwaitingCode       Stage = "awaiting_code"
	StageAwaitingName       Stage = "awaiting_name"
	StageAwaitingDeleteCode Stage = "awaiting_delete_code"
)

// Session is the transient form state of one admin conversation.
type Session struct {
	Stage         Stage
	FileID        string // pending media file reference
	FileKind      string // "video" or "document", for display only
	PendingCode   string // accepted code awaiting a name
	SuggestedCode string // allocator suggestion made at /addmovie time
	SuggestedName string // caption-derived name suggestion
}

// Store holds sessions keyed by conversation identity. Get returns nil
// when no session exists.
type Store interface {
	Get(chatKey string) (*Session, error)
	Put(chatKey string, s Session) error
	Clear(chatKey string) error
}
