package chat

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/and161185/guidecode/internal/model"
)

// HydrationError describes why persisted or imported data was rejected.
// It wraps errs.ErrSessionHydration or errs.ErrInvalidBackupFormat.
type HydrationError struct {
	Kind   error
	Reason string
}

func (e *HydrationError) Error() string { return fmt.Sprintf("%v: %s", e.Kind, e.Reason) }

func (e *HydrationError) Unwrap() error { return e.Kind }

// wire types keep timestamps optional so missing values are detected instead of
// silently becoming the zero time.
type wireMessage struct {
	ID        string     `json:"id"`
	Role      model.Role `json:"role"`
	Content   string     `json:"content"`
	Timestamp *time.Time `json:"timestamp"`
}

type wireSession struct {
	ID        string        `json:"id"`
	Title     string        `json:"title"`
	Messages  []wireMessage `json:"messages"`
	UpdatedAt *time.Time    `json:"updatedAt"`
}

type wireSnapshot struct {
	Version  string         `json:"version"`
	Sessions *[]wireSession `json:"sessions"`
}

// decodeCollection parses a persisted session collection.
func decodeCollection(raw []byte, kind error) ([]model.Session, error) {
	var ws []wireSession
	if err := json.Unmarshal(raw, &ws); err != nil {
		return nil, &HydrationError{Kind: kind, Reason: err.Error()}
	}
	return validate(ws, kind)
}

// decodeSnapshot parses an exported backup. Only the sessions field is required.
func decodeSnapshot(raw []byte, kind error) ([]model.Session, error) {
	var snap wireSnapshot
	if err := json.Unmarshal(raw, &snap); err != nil {
		return nil, &HydrationError{Kind: kind, Reason: err.Error()}
	}
	if snap.Sessions == nil {
		return nil, &HydrationError{Kind: kind, Reason: "missing sessions field"}
	}
	return validate(*snap.Sessions, kind)
}

func validate(ws []wireSession, kind error) ([]model.Session, error) {
	out := make([]model.Session, 0, len(ws))
	seen := make(map[string]struct{}, len(ws))
	for i, w := range ws {
		if w.ID == "" {
			return nil, &HydrationError{Kind: kind, Reason: fmt.Sprintf("session[%d]: empty id", i)}
		}
		if _, dup := seen[w.ID]; dup {
			return nil, &HydrationError{Kind: kind, Reason: fmt.Sprintf("session[%d]: duplicate id %q", i, w.ID)}
		}
		seen[w.ID] = struct{}{}
		if w.UpdatedAt == nil {
			return nil, &HydrationError{Kind: kind, Reason: fmt.Sprintf("session[%d]: missing updatedAt", i)}
		}
		if len(w.Messages) == 0 {
			return nil, &HydrationError{Kind: kind, Reason: fmt.Sprintf("session[%d]: no messages", i)}
		}

		s := model.Session{
			ID:        w.ID,
			Title:     w.Title,
			UpdatedAt: w.UpdatedAt.UTC(),
			Messages:  make([]model.Message, 0, len(w.Messages)),
		}
		for j, m := range w.Messages {
			switch {
			case m.ID == "":
				return nil, &HydrationError{Kind: kind, Reason: fmt.Sprintf("session[%d].message[%d]: empty id", i, j)}
			case !m.Role.Valid():
				return nil, &HydrationError{Kind: kind, Reason: fmt.Sprintf("session[%d].message[%d]: unknown role %q", i, j, m.Role)}
			case m.Timestamp == nil:
				return nil, &HydrationError{Kind: kind, Reason: fmt.Sprintf("session[%d].message[%d]: missing timestamp", i, j)}
			}
			s.Messages = append(s.Messages, model.Message{
				ID:        m.ID,
				Role:      m.Role,
				Content:   m.Content,
				Timestamp: m.Timestamp.UTC(),
			})
		}
		out = append(out, s)
	}
	return out, nil
}
