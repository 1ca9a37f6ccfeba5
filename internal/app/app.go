// Package app wires identity, sessions and the mentor into the operations the
// user interface exposes.
package app

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/and161185/guidecode/internal/chat"
	"github.com/and161185/guidecode/internal/errs"
	"github.com/and161185/guidecode/internal/llm"
	"github.com/and161185/guidecode/internal/model"
)

// Identity is the authentication provider the controller depends on.
type Identity interface {
	Register(ctx context.Context, email, password, displayName string) (model.User, error)
	Authenticate(ctx context.Context, email, password string) (model.User, error)
	EndSession(ctx context.Context) error
	Subscribe(ctx context.Context, fn func(*model.User)) (func(), error)
}

// App is the application controller.
type App struct {
	id       Identity
	sessions *chat.Store
	mentor   llm.Mentor
	log      *zap.Logger
	unsub    func()

	mu       sync.Mutex
	inflight map[string]struct{}
}

// New builds the controller and binds the session store to identity changes.
// The current user's sessions are loaded before New returns.
func New(ctx context.Context, id Identity, sessions *chat.Store, mentor llm.Mentor, log *zap.Logger) (*App, error) {
	if log == nil {
		log = zap.NewNop()
	}
	loadCtx := context.WithoutCancel(ctx)
	unsub, err := id.Subscribe(ctx, func(u *model.User) {
		sessions.OnUserChanged(loadCtx, u)
	})
	if err != nil {
		return nil, fmt.Errorf("subscribe to identity: %w", err)
	}
	return &App{
		id:       id,
		sessions: sessions,
		mentor:   mentor,
		log:      log,
		unsub:    unsub,
		inflight: make(map[string]struct{}),
	}, nil
}

// Close detaches the controller from identity events.
func (a *App) Close() { a.unsub() }

// User returns the signed-in user, or nil.
func (a *App) User() *model.User { return a.sessions.User() }

// SignUp validates the form and registers the account.
func (a *App) SignUp(ctx context.Context, form SignUpForm) (model.User, error) {
	if err := form.Validate(); err != nil {
		return model.User{}, err
	}
	return a.id.Register(ctx, form.Email, form.Password, form.Name)
}

// SignIn authenticates an existing account.
func (a *App) SignIn(ctx context.Context, email, password string) (model.User, error) {
	if err := validateSignIn(email); err != nil {
		return model.User{}, err
	}
	return a.id.Authenticate(ctx, email, password)
}

// SignOut ends the session. Stored sessions stay on the device.
func (a *App) SignOut(ctx context.Context) error {
	return a.id.EndSession(ctx)
}

// NewChat starts a greeted session and selects it.
func (a *App) NewChat(ctx context.Context) (model.Session, error) {
	return a.sessions.CreateSession(ctx)
}

// Sessions lists the user's sessions, newest first.
func (a *App) Sessions() []model.Session { return a.sessions.Sessions() }

// Session returns a session by id, or the active one when id is empty.
func (a *App) Session(id string) (model.Session, error) {
	id, err := a.resolve(id)
	if err != nil {
		return model.Session{}, err
	}
	return a.sessions.Session(id)
}

// Active returns the selected session id.
func (a *App) Active() string { return a.sessions.Active() }

// Select makes id the active session.
func (a *App) Select(ctx context.Context, id string) error { return a.sessions.Select(ctx, id) }

// Send appends the user's text, asks the mentor and appends the reply.
// On generation failure the user message stays and the error wraps
// errs.ErrGenerationFailure. A second Send to a session that is still waiting
// fails with errs.ErrSendInFlight.
func (a *App) Send(ctx context.Context, sessionID, text string) (model.Message, error) {
	if strings.TrimSpace(text) == "" {
		return model.Message{}, errs.ErrEmptyInput
	}
	sessionID, err := a.resolve(sessionID)
	if err != nil {
		return model.Message{}, err
	}
	if !a.acquire(sessionID) {
		return model.Message{}, errs.ErrSendInFlight
	}
	defer a.release(sessionID)

	if _, err := a.sessions.AppendUserMessage(ctx, sessionID, text); err != nil {
		return model.Message{}, err
	}
	sess, err := a.sessions.Session(sessionID)
	if err != nil {
		return model.Message{}, err
	}

	reply, err := a.mentor.Guide(ctx, sess.Messages)
	if err != nil {
		a.log.Warn("mentor reply failed", zap.String("session", sessionID), zap.Error(err))
		return model.Message{}, generationFailure(err)
	}
	return a.sessions.AppendAssistantMessage(ctx, sessionID, reply)
}

// Rename retitles a session. Blank titles are ignored.
func (a *App) Rename(ctx context.Context, id, title string) error {
	return a.sessions.RenameSession(ctx, id, title)
}

// Delete removes a session.
func (a *App) Delete(ctx context.Context, id string) error {
	return a.sessions.DeleteSession(ctx, id)
}

// Clear resets a session to its greeting.
func (a *App) Clear(ctx context.Context, id string) error {
	id, err := a.resolve(id)
	if err != nil {
		return err
	}
	return a.sessions.ResetSession(ctx, id)
}

// Export returns the indented backup document and its suggested file name.
func (a *App) Export() ([]byte, string, error) {
	snap, err := a.sessions.ExportSnapshot()
	if err != nil {
		return nil, "", err
	}
	b, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return nil, "", err
	}
	return b, BackupFileName(snap), nil
}

// BackupFileName is the download name of a snapshot.
func BackupFileName(snap model.Snapshot) string {
	return "guidecode-backup-" + snap.ExportDate.Format("2006-01-02") + ".json"
}

// Import restores a backup produced by Export.
func (a *App) Import(ctx context.Context, raw []byte) error {
	return a.sessions.ImportSnapshot(ctx, raw)
}

// FactoryReset deletes every stored session of the signed-in user.
func (a *App) FactoryReset(ctx context.Context) error {
	return a.sessions.Wipe(ctx)
}

// Review asks the mentor to critique a code attempt.
func (a *App) Review(ctx context.Context, code, language string) (model.Review, error) {
	if strings.TrimSpace(code) == "" {
		return model.Review{}, errs.ErrEmptyInput
	}
	rv, err := a.mentor.Review(ctx, code, language)
	if err != nil {
		a.log.Warn("code review failed", zap.String("language", language), zap.Error(err))
		return model.Review{}, generationFailure(err)
	}
	return rv, nil
}

// Stats summarizes the user's stored data.
func (a *App) Stats() (model.Stats, error) { return a.sessions.Stats() }

// generationFailure marks err as errs.ErrGenerationFailure unless the mentor
// already did.
func generationFailure(err error) error {
	if errors.Is(err, errs.ErrGenerationFailure) {
		return err
	}
	return fmt.Errorf("%w: %w", errs.ErrGenerationFailure, err)
}

func (a *App) resolve(id string) (string, error) {
	if a.sessions.User() == nil {
		return "", errs.ErrNoActiveUser
	}
	if id != "" {
		return id, nil
	}
	if id = a.sessions.Active(); id == "" {
		return "", fmt.Errorf("no active session: %w", errs.ErrNotFound)
	}
	return id, nil
}

func (a *App) acquire(id string) bool {
	a.mu.Lock()
	defer a.mu.Unlock()

	if _, busy := a.inflight[id]; busy {
		return false
	}
	a.inflight[id] = struct{}{}
	return true
}

func (a *App) release(id string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	delete(a.inflight, id)
}
