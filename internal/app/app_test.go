package app

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap/zaptest"

	"github.com/and161185/guidecode/internal/chat"
	"github.com/and161185/guidecode/internal/errs"
	"github.com/and161185/guidecode/internal/identity"
	"github.com/and161185/guidecode/internal/kv"
	"github.com/and161185/guidecode/internal/model"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// stubMentor answers from fields and can block until released.
type stubMentor struct {
	reply   string
	err     error
	started chan struct{}
	release chan struct{}
	got     []model.Message
}

func (s *stubMentor) Guide(ctx context.Context, history []model.Message) (string, error) {
	s.got = history
	if s.started != nil {
		close(s.started)
		<-s.release
	}
	return s.reply, s.err
}

func (s *stubMentor) Review(ctx context.Context, code, language string) (model.Review, error) {
	if s.err != nil {
		return model.Review{}, s.err
	}
	return model.Review{LogicalIssues: language + ": " + code}, nil
}

type fixture struct {
	app    *App
	mem    *kv.Memory
	mentor *stubMentor
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()
	mem := kv.NewMemory()
	log := zaptest.NewLogger(t)
	id := identity.NewStore(mem, identity.WithLatency(0), identity.WithLogger(log))
	sessions := chat.NewStore(mem, chat.WithLogger(log))
	mentor := &stubMentor{reply: "### 1. UNDERSTANDING\nok"}

	a, err := New(ctx, id, sessions, mentor, log)
	require.NoError(t, err)
	t.Cleanup(a.Close)
	return &fixture{app: a, mem: mem, mentor: mentor}
}

func (f *fixture) signUp(t *testing.T, email, name string) model.User {
	t.Helper()
	u, err := f.app.SignUp(context.Background(), SignUpForm{Email: email, Password: "secret1", Confirm: "secret1", Name: name})
	require.NoError(t, err)
	return u
}

func TestSignUp_Validation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	tests := []struct {
		name string
		form SignUpForm
		want error
		msg  string
	}{
		{"bad email", SignUpForm{Email: "nope", Password: "secret1", Confirm: "secret1", Name: "A"}, errs.ErrInvalidEmail, "Please enter a valid email address."},
		{"no name", SignUpForm{Email: "a@b.io", Password: "secret1", Confirm: "secret1", Name: "  "}, errs.ErrMissingName, "Please enter your name."},
		{"short password", SignUpForm{Email: "a@b.io", Password: "12345", Confirm: "12345", Name: "A"}, errs.ErrWeakPassword, "Password must be at least 6 characters."},
		{"mismatch", SignUpForm{Email: "a@b.io", Password: "secret1", Confirm: "secret2", Name: "A"}, errs.ErrPasswordMismatch, "Passwords do not match."},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.app.SignUp(ctx, tt.form)
			require.ErrorIs(t, err, tt.want)
			assert.Equal(t, tt.msg, FriendlyMessage(err))
		})
	}
	assert.Nil(t, f.app.User())
}

func TestSignUp_DuplicateMessage(t *testing.T) {
	f := newFixture(t)
	f.signUp(t, "dup@example.com", "Dup")

	_, err := f.app.SignUp(context.Background(), SignUpForm{Email: "DUP@example.com", Password: "secret1", Confirm: "secret1", Name: "Dup"})
	require.ErrorIs(t, err, errs.ErrDuplicateAccount)
	assert.Equal(t, "An account already exists with this email. Try logging in instead.", FriendlyMessage(err))
}

func TestSignIn_WrongPasswordMessage(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.signUp(t, "w@example.com", "W")
	require.NoError(t, f.app.SignOut(ctx))

	_, err := f.app.SignIn(ctx, "w@example.com", "bad-password")
	require.ErrorIs(t, err, errs.ErrInvalidCredentials)
	assert.Equal(t, "Invalid login credentials. Please check your email and password.", FriendlyMessage(err))
}

func TestSend_AppendsReplyAndTitle(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.signUp(t, "s@example.com", "Sam")
	sess, err := f.app.NewChat(ctx)
	require.NoError(t, err)

	reply, err := f.app.Send(ctx, "", "Find the longest palindrome substring")
	require.NoError(t, err)
	assert.Equal(t, model.RoleAssistant, reply.Role)
	assert.Equal(t, "### 1. UNDERSTANDING\nok", reply.Content)

	require.Len(t, f.mentor.got, 2)
	assert.Equal(t, model.RoleUser, f.mentor.got[1].Role)

	got, err := f.app.Session(sess.ID)
	require.NoError(t, err)
	assert.Len(t, got.Messages, 3)
	assert.Equal(t, "Find the longest palindro…", got.Title)
}

func TestSend_GenerationFailureKeepsUserMessage(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.signUp(t, "g@example.com", "G")
	sess, _ := f.app.NewChat(ctx)
	f.mentor.err = errors.New("boom")

	_, err := f.app.Send(ctx, sess.ID, "help")
	require.ErrorIs(t, err, errs.ErrGenerationFailure)
	assert.Equal(t, GenerationFailed, FriendlyMessage(err))

	got, _ := f.app.Session(sess.ID)
	require.Len(t, got.Messages, 2)
	assert.Equal(t, "help", got.Messages[1].Content)
}

func TestSend_MentorFailureWrappedOnce(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.signUp(t, "o@example.com", "O")
	sess, _ := f.app.NewChat(ctx)
	f.mentor.err = fmt.Errorf("%w: quota exhausted", errs.ErrGenerationFailure)

	_, err := f.app.Send(ctx, sess.ID, "help")
	require.ErrorIs(t, err, errs.ErrGenerationFailure)
	assert.Equal(t, 1, strings.Count(err.Error(), errs.ErrGenerationFailure.Error()), err.Error())

	_, err = f.app.Review(ctx, "x", "Go")
	require.ErrorIs(t, err, errs.ErrGenerationFailure)
	assert.Equal(t, 1, strings.Count(err.Error(), errs.ErrGenerationFailure.Error()), err.Error())
}

func TestSend_InFlightGuard(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.signUp(t, "i@example.com", "I")
	sess, _ := f.app.NewChat(ctx)

	f.mentor.started = make(chan struct{})
	f.mentor.release = make(chan struct{})

	done := make(chan error, 1)
	go func() {
		_, err := f.app.Send(ctx, sess.ID, "first")
		done <- err
	}()
	<-f.mentor.started

	_, err := f.app.Send(ctx, sess.ID, "second")
	require.ErrorIs(t, err, errs.ErrSendInFlight)

	close(f.mentor.release)
	require.NoError(t, <-done)

	got, _ := f.app.Session(sess.ID)
	assert.Len(t, got.Messages, 3)
}

func TestSend_Guards(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.app.Send(ctx, "", "hi")
	require.ErrorIs(t, err, errs.ErrNoActiveUser)

	f.signUp(t, "e@example.com", "E")
	_, err = f.app.Send(ctx, "", "hi")
	require.ErrorIs(t, err, errs.ErrNotFound)

	_, err = f.app.Send(ctx, "", "   ")
	require.ErrorIs(t, err, errs.ErrEmptyInput)
}

func TestSignOutAndBack_RestoresSessions(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.signUp(t, "r@example.com", "R")
	sess, _ := f.app.NewChat(ctx)

	require.NoError(t, f.app.SignOut(ctx))
	assert.Nil(t, f.app.User())
	assert.Empty(t, f.app.Sessions())

	f.signUp(t, "other@example.com", "O")
	assert.Empty(t, f.app.Sessions())
	require.NoError(t, f.app.SignOut(ctx))

	_, err := f.app.SignIn(ctx, "r@example.com", "secret1")
	require.NoError(t, err)
	require.Len(t, f.app.Sessions(), 1)
	assert.Equal(t, sess.ID, f.app.Active())
}

func TestExportImportAndReset(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.signUp(t, "x@example.com", "X")
	_, _ = f.app.NewChat(ctx)
	_, err := f.app.Send(ctx, "", "question")
	require.NoError(t, err)

	raw, name, err := f.app.Export()
	require.NoError(t, err)
	assert.Regexp(t, `^guidecode-backup-\d{4}-\d{2}-\d{2}\.json$`, name)
	assert.Contains(t, string(raw), "\n  \"version\": \"1.0\"")

	require.NoError(t, f.app.FactoryReset(ctx))
	assert.Empty(t, f.app.Sessions())

	err = f.app.Import(ctx, []byte(`{"version":"1.0"}`))
	assert.Equal(t, ImportFailure, FriendlyMessage(err))

	require.NoError(t, f.app.Import(ctx, raw))
	require.Len(t, f.app.Sessions(), 1)

	st, err := f.app.Stats()
	require.NoError(t, err)
	assert.Equal(t, 1, st.Sessions)
	assert.Equal(t, 3, st.Messages)
}

func TestReview(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	rv, err := f.app.Review(ctx, "x := 1", "Go")
	require.NoError(t, err)
	assert.Equal(t, "Go: x := 1", rv.LogicalIssues)

	_, err = f.app.Review(ctx, " ", "Go")
	require.ErrorIs(t, err, errs.ErrEmptyInput)

	f.mentor.err = errors.New("no key")
	_, err = f.app.Review(ctx, "x", "Go")
	require.ErrorIs(t, err, errs.ErrGenerationFailure)
}

func TestFriendlyAuthMessage(t *testing.T) {
	assert.Equal(t, "No account found with this email. Please sign up instead.", FriendlyAuthMessage(errs.CodeUserNotFound))
	assert.Equal(t, "Incorrect password. Please try again.", FriendlyAuthMessage(errs.CodeWrongPassword))
	assert.Equal(t, GenericFailure, FriendlyAuthMessage("auth/unknown"))
	assert.Equal(t, GenericFailure, FriendlyMessage(errors.New("disk full")))
}

func TestFriendlyMessage_Alerts(t *testing.T) {
	assert.Empty(t, FriendlyMessage(nil))
	assert.Equal(t, ImportFailure, FriendlyMessage(fmt.Errorf("import: %w", errs.ErrInvalidBackupFormat)))
	assert.Equal(t, GenerationFailed, FriendlyMessage(fmt.Errorf("%w: timeout", errs.ErrGenerationFailure)))
	assert.Equal(t, "Invalid login credentials. Please check your email and password.", FriendlyMessage(errs.ErrInvalidCredentials))
	assert.Equal(t, "Passwords do not match.", FriendlyMessage(&ValidationError{Err: errs.ErrPasswordMismatch, Msg: "Passwords do not match."}))
}

func TestValidEmail(t *testing.T) {
	for _, ok := range []string{"a@b.io", "First.Last@Example.COM", `"odd name"@x.org`, "u@[10.0.0.1]"} {
		assert.True(t, ValidEmail(ok), ok)
	}
	for _, bad := range []string{"", "a@b", "a b@c.io", "@c.io", "a@.io"} {
		assert.False(t, ValidEmail(bad), bad)
	}
}
