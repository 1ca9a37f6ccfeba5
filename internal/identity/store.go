// Package identity emulates an authentication provider on top of a local key-value profile.
//
// The registry of accounts and the active session both live in a kv.Store, so
// the "signed in" state survives restarts of the process the same way it
// survives page reloads in a browser.
package identity

import (
	"context"
	"encoding/json"
	"fmt"
	"math/rand/v2"
	"strings"
	"sync"
	"time"

	"github.com/gofrs/uuid/v5"
	"go.uber.org/zap"

	pkgcrypto "github.com/and161185/guidecode/internal/crypto"
	"github.com/and161185/guidecode/internal/errs"
	"github.com/and161185/guidecode/internal/kv"
	"github.com/and161185/guidecode/internal/model"
)

// Storage keys.
const (
	RegistryKey = "guidecode_mock_users_db"
	SessionKey  = "guidecode_mock_session"
)

// DefaultLatency is the artificial network delay applied to Register and Authenticate.
const DefaultLatency = 800 * time.Millisecond

// AvatarPalette is the set of color tags assigned at sign-up.
var AvatarPalette = []string{"indigo", "emerald", "blue", "rose"}

// Listener receives the active user, or nil when signed out.
type Listener = func(u *model.User)

type subscriber struct {
	id int
	fn Listener
}

// Store is the mock identity provider. It is safe for concurrent use.
//
// Listeners are invoked synchronously and one event at a time, so each
// listener observes a total order of events. A listener must not call back
// into the Store that is notifying it.
type Store struct {
	kv      kv.Store
	log     *zap.Logger
	latency time.Duration
	pick    func(n int) int

	// regMu makes the registry read-modify-write atomic within the process.
	regMu sync.Mutex

	// emitMu serializes active-session writes together with their notifications.
	emitMu sync.Mutex

	mu      sync.Mutex
	subs    []subscriber
	nextSub int
}

// Option configures a Store.
type Option func(*Store)

// WithLatency overrides DefaultLatency. Zero disables the delay.
func WithLatency(d time.Duration) Option { return func(s *Store) { s.latency = d } }

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option { return func(s *Store) { s.log = l } }

// NewStore constructs an identity store over a profile.
func NewStore(store kv.Store, opts ...Option) *Store {
	s := &Store{
		kv:      store,
		log:     zap.NewNop(),
		latency: DefaultLatency,
		pick:    rand.IntN,
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// NormalizeEmail is the registry key form of an email address.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Register creates an account, signs it in and notifies listeners.
func (s *Store) Register(ctx context.Context, email, password, displayName string) (model.User, error) {
	if err := s.wait(ctx); err != nil {
		return model.User{}, err
	}

	normalized := NormalizeEmail(email)

	s.regMu.Lock()
	db, err := s.loadRegistry(ctx)
	if err != nil {
		s.regMu.Unlock()
		return model.User{}, err
	}
	if _, exists := db[normalized]; exists {
		s.regMu.Unlock()
		return model.User{}, errs.ErrDuplicateAccount
	}

	uid, err := uuid.NewV4()
	if err != nil {
		s.regMu.Unlock()
		return model.User{}, err
	}
	hash, salt, err := pkgcrypto.NewDigest(password)
	if err != nil {
		s.regMu.Unlock()
		return model.User{}, err
	}
	u := model.User{
		UID:         uid.String(),
		Name:        strings.TrimSpace(displayName),
		Email:       normalized,
		AvatarColor: AvatarPalette[s.pick(len(AvatarPalette))],
	}
	db[normalized] = model.Credential{User: u, PasswordHash: hash, PasswordSalt: salt}
	err = s.saveRegistry(ctx, db)
	s.regMu.Unlock()
	if err != nil {
		return model.User{}, err
	}

	if err := s.activate(ctx, &u); err != nil {
		return model.User{}, err
	}
	s.log.Info("account registered", zap.String("uid", u.UID))
	return u, nil
}

// Authenticate signs in an existing account.
// Unknown email and wrong password both yield errs.ErrInvalidCredentials.
func (s *Store) Authenticate(ctx context.Context, email, password string) (model.User, error) {
	if err := s.wait(ctx); err != nil {
		return model.User{}, err
	}

	s.regMu.Lock()
	db, err := s.loadRegistry(ctx)
	s.regMu.Unlock()
	if err != nil {
		return model.User{}, err
	}

	rec, ok := db[NormalizeEmail(email)]
	if !ok {
		pkgcrypto.Decoy(password)
		return model.User{}, errs.ErrInvalidCredentials
	}
	if !pkgcrypto.Matches(password, rec.PasswordSalt, rec.PasswordHash) {
		return model.User{}, errs.ErrInvalidCredentials
	}

	u := rec.User
	if err := s.activate(ctx, &u); err != nil {
		return model.User{}, err
	}
	s.log.Info("signed in", zap.String("uid", u.UID))
	return u, nil
}

// EndSession clears the active session and notifies listeners with nil.
func (s *Store) EndSession(ctx context.Context) error {
	s.emitMu.Lock()
	defer s.emitMu.Unlock()

	if err := s.kv.Delete(ctx, SessionKey); err != nil {
		return fmt.Errorf("clear session: %w", err)
	}
	s.deliver(nil)
	s.log.Info("signed out")
	return nil
}

// Current returns the active user, or nil when signed out.
// A corrupt stored session is treated as signed out.
func (s *Store) Current(ctx context.Context) (*model.User, error) {
	raw, ok, err := s.kv.Get(ctx, SessionKey)
	if err != nil {
		return nil, fmt.Errorf("read session: %w", err)
	}
	if !ok {
		return nil, nil
	}
	var u model.User
	if err := json.Unmarshal([]byte(raw), &u); err != nil || u.UID == "" {
		s.log.Warn("ignoring corrupt active session", zap.Error(err))
		return nil, nil
	}
	return &u, nil
}

// Subscribe registers fn, invokes it immediately with the current user and
// then on every sign-up, sign-in and sign-out. The returned func unsubscribes.
func (s *Store) Subscribe(ctx context.Context, fn Listener) (func(), error) {
	s.emitMu.Lock()
	defer s.emitMu.Unlock()

	cur, err := s.Current(ctx)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	id := s.nextSub
	s.nextSub++
	s.subs = append(s.subs, subscriber{id: id, fn: fn})
	s.mu.Unlock()

	fn(cur)

	var once sync.Once
	return func() {
		once.Do(func() { s.unsubscribe(id) })
	}, nil
}

func (s *Store) unsubscribe(id int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, sub := range s.subs {
		if sub.id == id {
			s.subs = append(s.subs[:i:i], s.subs[i+1:]...)
			return
		}
	}
}

// activate persists u as the active session and notifies listeners.
func (s *Store) activate(ctx context.Context, u *model.User) error {
	b, err := json.Marshal(u)
	if err != nil {
		return err
	}

	s.emitMu.Lock()
	defer s.emitMu.Unlock()

	if err := s.kv.Set(ctx, SessionKey, string(b)); err != nil {
		return fmt.Errorf("write session: %w", err)
	}
	cpy := *u
	s.deliver(&cpy)
	return nil
}

// deliver calls every listener in registration order. Caller holds emitMu.
func (s *Store) deliver(u *model.User) {
	s.mu.Lock()
	subs := append([]subscriber(nil), s.subs...)
	s.mu.Unlock()

	for _, sub := range subs {
		if u == nil {
			sub.fn(nil)
			continue
		}
		cpy := *u
		sub.fn(&cpy)
	}
}

func (s *Store) loadRegistry(ctx context.Context) (map[string]model.Credential, error) {
	raw, ok, err := s.kv.Get(ctx, RegistryKey)
	if err != nil {
		return nil, fmt.Errorf("read registry: %w", err)
	}
	db := map[string]model.Credential{}
	if !ok {
		return db, nil
	}
	if err := json.Unmarshal([]byte(raw), &db); err != nil {
		return nil, fmt.Errorf("decode registry: %w", err)
	}
	return db, nil
}

func (s *Store) saveRegistry(ctx context.Context, db map[string]model.Credential) error {
	b, err := json.Marshal(db)
	if err != nil {
		return err
	}
	if err := s.kv.Set(ctx, RegistryKey, string(b)); err != nil {
		return fmt.Errorf("write registry: %w", err)
	}
	return nil
}

// wait simulates network latency.
func (s *Store) wait(ctx context.Context) error {
	if s.latency <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(s.latency)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
