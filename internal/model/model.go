// Package model defines domain entities shared by the stores, the controller and the CLI.
package model

import "time"

// Role identifies the author of a chat message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool { return r == RoleUser || r == RoleAssistant }

// User is the public part of an account. It never carries credentials.
type User struct {
	UID         string `json:"uid"`
	Name        string `json:"name"`
	Email       string `json:"email"` // lowercased, unique
	AvatarColor string `json:"avatarColor"`
}

// Credential is a registry record: the public user plus password material.
// It is stored inside the registry only and never handed to callers.
type Credential struct {
	User
	PasswordHash []byte `json:"passwordHash"` // Argon2id(password, PasswordSalt)
	PasswordSalt []byte `json:"passwordSalt"`
}

// Message is a single immutable chat turn.
type Message struct {
	ID        string    `json:"id"`
	Role      Role      `json:"role"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

// Session is one mentoring conversation. Messages[0] is always the assistant greeting.
type Session struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Messages  []Message `json:"messages"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Clone returns a deep copy so callers cannot mutate store-owned state.
func (s Session) Clone() Session {
	cpy := s
	cpy.Messages = append([]Message(nil), s.Messages...)
	return cpy
}

// SnapshotVersion is the only export format version written and accepted.
const SnapshotVersion = "1.0"

// Snapshot is the downloadable backup of a user's session collection.
type Snapshot struct {
	Version    string    `json:"version"`
	ExportDate time.Time `json:"exportDate"`
	User       User      `json:"user"`
	Sessions   []Session `json:"sessions"`
}

// Review is the structured feedback returned for a code snippet.
type Review struct {
	LogicalIssues          string `json:"logicalIssues"`
	EfficiencyConcerns     string `json:"efficiencyConcerns"`
	ImprovementSuggestions string `json:"improvementSuggestions"`
}

// Stats summarizes the local data of the active user.
type Stats struct {
	Sessions     int
	Messages     int
	StorageBytes int // size of the serialized session collection
}
