// Package chat keeps the active user's mentoring sessions in memory and
// mirrors every change to that user's storage key.
package chat

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/gofrs/uuid/v5"
	"go.uber.org/zap"

	"github.com/and161185/guidecode/internal/errs"
	"github.com/and161185/guidecode/internal/kv"
	"github.com/and161185/guidecode/internal/model"
)

const (
	// KeyPrefix is prepended to the user id to form the storage key.
	KeyPrefix = "guidecode_sessions_"

	// ActiveKeyPrefix is prepended to the user id to form the key of the
	// selected session id.
	ActiveKeyPrefix = "guidecode_active_"

	// DefaultTitle is the title of a session with no user message yet.
	DefaultTitle = "New Discussion"

	// TitleLimit is the number of characters kept when deriving a title.
	TitleLimit = 25
)

// Key returns the storage key of uid's session collection.
func Key(uid string) string { return KeyPrefix + uid }

// ActiveKey returns the storage key of uid's selected session.
func ActiveKey(uid string) string { return ActiveKeyPrefix + uid }

// Greeting is the first message of every session.
func Greeting(name string) string {
	return fmt.Sprintf("Hello %s! I'm your GuideCode Mentor. What coding challenge should we tackle today?", name)
}

// DeriveTitle builds a session title from the first user message.
func DeriveTitle(text string) string {
	if utf8.RuneCountInString(text) <= TitleLimit {
		return text
	}
	r := []rune(text)
	return string(r[:TitleLimit]) + "…"
}

// Store is the session collection of the active user. It is safe for concurrent use.
type Store struct {
	kv    kv.Store
	log   *zap.Logger
	now   func() time.Time
	newID func() (uuid.UUID, error)

	mu       sync.Mutex
	user     *model.User
	sessions []model.Session
	active   string
}

// Option configures a Store.
type Option func(*Store)

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option { return func(s *Store) { s.log = l } }

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option { return func(s *Store) { s.now = now } }

// NewStore constructs an empty session store over a profile.
func NewStore(store kv.Store, opts ...Option) *Store {
	s := &Store{
		kv:    store,
		log:   zap.NewNop(),
		now:   time.Now,
		newID: uuid.NewV4,
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// OnUserChanged follows the identity signal. A nil user clears memory without
// writing; a user loads that user's collection, treating corrupt data as empty.
// The stored selection is restored when it still names a session, otherwise
// the first session is selected.
func (s *Store) OnUserChanged(ctx context.Context, u *model.User) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.sessions = nil
	s.active = ""
	if u == nil {
		s.user = nil
		return
	}
	cpy := *u
	s.user = &cpy

	raw, ok, err := s.kv.Get(ctx, Key(u.UID))
	if err != nil {
		s.log.Error("load sessions", zap.String("uid", u.UID), zap.Error(err))
		return
	}
	if !ok {
		return
	}
	sessions, err := decodeCollection([]byte(raw), errs.ErrSessionHydration)
	if err != nil {
		s.log.Warn("session hydration failed", zap.String("uid", u.UID), zap.Error(err))
		return
	}
	s.sessions = sessions
	if len(sessions) == 0 {
		return
	}
	s.active = sessions[0].ID

	id, ok, err := s.kv.Get(ctx, ActiveKey(u.UID))
	switch {
	case err != nil:
		s.log.Warn("load selection", zap.String("uid", u.UID), zap.Error(err))
	case ok && s.index(id) >= 0:
		s.active = id
	}
}

// User returns the user whose collection is loaded, or nil.
func (s *Store) User() *model.User {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.user == nil {
		return nil
	}
	cpy := *s.user
	return &cpy
}

// Sessions returns a copy of the collection, most recently created first.
func (s *Store) Sessions() []model.Session {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.copySessions()
}

// Session returns one session by id.
func (s *Store) Session(id string) (model.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.index(id)
	if i < 0 {
		return model.Session{}, errs.ErrNotFound
	}
	return s.sessions[i].Clone(), nil
}

// Active returns the selected session id, or "" when none is selected.
func (s *Store) Active() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.active
}

// Select makes id the active session and remembers it for the next load.
func (s *Store) Select(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.user == nil {
		return errs.ErrNoActiveUser
	}
	if s.index(id) < 0 {
		return errs.ErrNotFound
	}
	if err := s.saveActive(ctx, id); err != nil {
		return err
	}
	s.active = id
	return nil
}

// CreateSession inserts a greeted session at the front and selects it.
func (s *Store) CreateSession(ctx context.Context) (model.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.user == nil {
		return model.Session{}, errs.ErrNoActiveUser
	}
	sid, err := s.newID()
	if err != nil {
		return model.Session{}, err
	}
	greet, err := s.message(model.RoleAssistant, Greeting(s.user.Name))
	if err != nil {
		return model.Session{}, err
	}
	sess := model.Session{
		ID:        sid.String(),
		Title:     DefaultTitle,
		Messages:  []model.Message{greet},
		UpdatedAt: greet.Timestamp,
	}

	next := make([]model.Session, 0, len(s.sessions)+1)
	next = append(next, sess)
	next = append(next, s.sessions...)
	if err := s.commit(ctx, next); err != nil {
		return model.Session{}, err
	}
	s.adoptActive(ctx, sess.ID)
	return sess.Clone(), nil
}

// AppendUserMessage adds a user turn. The first user turn also names the session.
func (s *Store) AppendUserMessage(ctx context.Context, id, text string) (model.Message, error) {
	return s.appendMessage(ctx, id, model.RoleUser, text)
}

// AppendAssistantMessage adds a mentor turn.
func (s *Store) AppendAssistantMessage(ctx context.Context, id, text string) (model.Message, error) {
	return s.appendMessage(ctx, id, model.RoleAssistant, text)
}

func (s *Store) appendMessage(ctx context.Context, id string, role model.Role, text string) (model.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i, err := s.lookup(id)
	if err != nil {
		return model.Message{}, err
	}
	msg, err := s.message(role, text)
	if err != nil {
		return model.Message{}, err
	}

	next := s.copySessions()
	sess := next[i].Clone()
	if role == model.RoleUser && len(sess.Messages) <= 1 {
		sess.Title = DeriveTitle(text)
	}
	sess.Messages = append(sess.Messages, msg)
	sess.UpdatedAt = msg.Timestamp
	next[i] = sess

	if err := s.commit(ctx, next); err != nil {
		return model.Message{}, err
	}
	return msg, nil
}

// RenameSession replaces the title. A blank title is ignored.
func (s *Store) RenameSession(ctx context.Context, id, title string) error {
	title = strings.TrimSpace(title)
	if title == "" {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	i, err := s.lookup(id)
	if err != nil {
		return err
	}
	next := s.copySessions()
	next[i].Title = title
	return s.commit(ctx, next)
}

// DeleteSession removes a session. Deleting the active one leaves no selection.
func (s *Store) DeleteSession(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	i, err := s.lookup(id)
	if err != nil {
		return err
	}
	next := make([]model.Session, 0, len(s.sessions)-1)
	next = append(next, s.sessions[:i]...)
	next = append(next, s.sessions[i+1:]...)
	if err := s.commit(ctx, next); err != nil {
		return err
	}
	if s.active == id {
		s.adoptActive(ctx, "")
	}
	return nil
}

// ResetSession drops every message after the greeting.
func (s *Store) ResetSession(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	i, err := s.lookup(id)
	if err != nil {
		return err
	}
	next := s.copySessions()
	sess := next[i].Clone()
	if len(sess.Messages) > 1 {
		sess.Messages = sess.Messages[:1:1]
	}
	next[i] = sess
	return s.commit(ctx, next)
}

// ExportSnapshot captures the whole collection for backup.
func (s *Store) ExportSnapshot() (model.Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.user == nil {
		return model.Snapshot{}, errs.ErrNoActiveUser
	}
	return model.Snapshot{
		Version:    model.SnapshotVersion,
		ExportDate: s.stamp(),
		User:       *s.user,
		Sessions:   s.copySessions(),
	}, nil
}

// ImportSnapshot replaces the collection with a backup and selects its first
// session. Invalid input leaves the current state untouched.
func (s *Store) ImportSnapshot(ctx context.Context, raw []byte) error {
	sessions, err := decodeSnapshot(raw, errs.ErrInvalidBackupFormat)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.user == nil {
		return errs.ErrNoActiveUser
	}
	if err := s.commit(ctx, sessions); err != nil {
		return err
	}
	active := ""
	if len(sessions) > 0 {
		active = sessions[0].ID
	}
	s.adoptActive(ctx, active)
	s.log.Info("sessions imported", zap.String("uid", s.user.UID), zap.Int("count", len(sessions)))
	return nil
}

// Wipe deletes the active user's stored collection and clears memory.
func (s *Store) Wipe(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.user == nil {
		return errs.ErrNoActiveUser
	}
	if err := s.kv.Delete(ctx, Key(s.user.UID)); err != nil {
		return fmt.Errorf("wipe sessions: %w", err)
	}
	s.sessions = nil
	s.adoptActive(ctx, "")
	s.log.Info("sessions wiped", zap.String("uid", s.user.UID))
	return nil
}

// Stats summarizes the collection.
func (s *Store) Stats() (model.Stats, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.user == nil {
		return model.Stats{}, errs.ErrNoActiveUser
	}
	st := model.Stats{Sessions: len(s.sessions)}
	for _, sess := range s.sessions {
		st.Messages += len(sess.Messages)
	}
	b, err := encode(s.sessions)
	if err != nil {
		return model.Stats{}, err
	}
	st.StorageBytes = len(b)
	return st, nil
}

// commit writes next through to storage and adopts it on success. Caller holds mu.
func (s *Store) commit(ctx context.Context, next []model.Session) error {
	if s.user == nil {
		return errs.ErrNoActiveUser
	}
	b, err := encode(next)
	if err != nil {
		return err
	}
	if err := s.kv.Set(ctx, Key(s.user.UID), string(b)); err != nil {
		return fmt.Errorf("persist sessions: %w", err)
	}
	s.sessions = next
	return nil
}

// saveActive stores the selected session id; "" removes it. Caller holds mu.
func (s *Store) saveActive(ctx context.Context, id string) error {
	key := ActiveKey(s.user.UID)
	var err error
	if id == "" {
		err = s.kv.Delete(ctx, key)
	} else {
		err = s.kv.Set(ctx, key, id)
	}
	if err != nil {
		return fmt.Errorf("persist selection: %w", err)
	}
	return nil
}

// adoptActive selects id after the collection was committed. A failed write of
// the selection is logged only. Caller holds mu.
func (s *Store) adoptActive(ctx context.Context, id string) {
	s.active = id
	if err := s.saveActive(ctx, id); err != nil {
		s.log.Warn("selection not saved", zap.String("uid", s.user.UID), zap.Error(err))
	}
}

func encode(sessions []model.Session) ([]byte, error) {
	if sessions == nil {
		sessions = []model.Session{}
	}
	return json.Marshal(sessions)
}

func (s *Store) lookup(id string) (int, error) {
	if s.user == nil {
		return -1, errs.ErrNoActiveUser
	}
	i := s.index(id)
	if i < 0 {
		return -1, fmt.Errorf("session %q: %w", id, errs.ErrNotFound)
	}
	return i, nil
}

func (s *Store) index(id string) int {
	for i := range s.sessions {
		if s.sessions[i].ID == id {
			return i
		}
	}
	return -1
}

func (s *Store) copySessions() []model.Session {
	out := make([]model.Session, len(s.sessions))
	for i := range s.sessions {
		out[i] = s.sessions[i].Clone()
	}
	return out
}

func (s *Store) message(role model.Role, text string) (model.Message, error) {
	id, err := s.newID()
	if err != nil {
		return model.Message{}, err
	}
	return model.Message{ID: id.String(), Role: role, Content: text, Timestamp: s.stamp()}, nil
}

func (s *Store) stamp() time.Time {
	return s.now().UTC().Truncate(time.Millisecond)
}

// IsHydrationError reports whether err came from rejecting stored or imported data.
func IsHydrationError(err error) bool {
	var he *HydrationError
	return errors.As(err, &he)
}
