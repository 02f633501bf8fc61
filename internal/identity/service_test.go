package identity

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/todo-team/todolist/internal/apperr"
	"github.com/todo-team/todolist/internal/logging"
	"github.com/todo-team/todolist/internal/notification"
	"github.com/todo-team/todolist/internal/otp"
)

type outbox struct {
	mu   sync.Mutex
	sent []notification.Message
	err  error
}

func (o *outbox) Send(_ context.Context, msg notification.Message) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.sent = append(o.sent, msg)
	return o.err
}

type clock struct{ t time.Time }

func (c *clock) now() time.Time          { return c.t }
func (c *clock) advance(d time.Duration) { c.t = c.t.Add(d) }

type fixture struct {
	svc   *Service
	repo  Repository
	mail  *outbox
	clock *clock
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	clk := &clock{t: time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)}
	repo := NewMemoryRepository()
	mail := &outbox{}
	svc := NewService(repo,
		otp.NewIssuer(10*time.Minute, otp.WithClock(clk.now)),
		mail,
		logging.Discard(),
		WithClock(clk.now),
		WithBcryptCost(bcrypt.MinCost),
	)
	return fixture{svc: svc, repo: repo, mail: mail, clock: clk}
}

func validInput() RegisterInput {
	return RegisterInput{
		PersonalID:      "1234567890123",
		Name:            "Alice",
		Email:           "a@x.io",
		Password:        "Abc123",
		ConfirmPassword: "Abc123",
	}
}

func (f fixture) pendingOTP(t *testing.T, email string) string {
	t.Helper()
	user, err := f.repo.FindByEmail(context.Background(), email)
	require.NoError(t, err)
	return user.OTP
}

func TestRegisterVerifyAuthenticate(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	user, err := f.svc.Register(ctx, validInput())
	require.NoError(t, err)
	assert.False(t, user.IsVerified)
	assert.Equal(t, RoleUser, user.Role)
	assert.Len(t, user.OTP, 6)
	assert.Equal(t, f.clock.now().Add(10*time.Minute), user.OTPExpiresAt)
	assert.NotEqual(t, []byte("Abc123"), user.PasswordHash)

	require.Len(t, f.mail.sent, 1)
	assert.Equal(t, notification.KindVerifyEmail, f.mail.sent[0].Kind)
	assert.Equal(t, "a@x.io", f.mail.sent[0].Destination)
	assert.Contains(t, f.mail.sent[0].Body, user.OTP)

	require.NoError(t, f.svc.VerifyOTP(ctx, "a@x.io", user.OTP))
	stored, err := f.repo.FindByEmail(ctx, "a@x.io")
	require.NoError(t, err)
	assert.True(t, stored.IsVerified)
	assert.Empty(t, stored.OTP)
	assert.True(t, stored.OTPExpiresAt.IsZero())

	authed, err := f.svc.Authenticate(ctx, "a@x.io", "Abc123")
	require.NoError(t, err)
	assert.Equal(t, user.ID, authed.ID)
}

func TestRegisterValidationOrder(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*RegisterInput)
		want   string
	}{
		{"missing field", func(in *RegisterInput) { in.PersonalID = "" }, msgFillAllFields},
		{"short name", func(in *RegisterInput) { in.Name = "Al"; in.Email = "bad" }, msgNameTooShort},
		{"mismatch before email", func(in *RegisterInput) { in.ConfirmPassword = "Abc124"; in.Email = "bad" }, msgPasswordMismatch},
		{"email", func(in *RegisterInput) { in.Email = "not-an-email" }, msgInvalidEmail},
		{"too short", func(in *RegisterInput) { in.Password, in.ConfirmPassword = "Ab1", "Ab1" }, msgWeakPassword},
		{"too long", func(in *RegisterInput) {
			in.Password = "Abcdefghij1234567890x"
			in.ConfirmPassword = in.Password
		}, msgWeakPassword},
		{"no digit", func(in *RegisterInput) { in.Password, in.ConfirmPassword = "Abcdef", "Abcdef" }, msgWeakPassword},
		{"no upper", func(in *RegisterInput) { in.Password, in.ConfirmPassword = "abc123", "abc123" }, msgWeakPassword},
		{"no lower", func(in *RegisterInput) { in.Password, in.ConfirmPassword = "ABC123", "ABC123" }, msgWeakPassword},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			f := newFixture(t)
			in := validInput()
			tc.mutate(&in)
			_, err := f.svc.Register(context.Background(), in)
			require.ErrorIs(t, err, apperr.ErrValidation)
			assert.Equal(t, tc.want, err.Error())
			assert.Empty(t, f.mail.sent)
		})
	}
}

func TestRegisterDuplicateEmail(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_, err := f.svc.Register(ctx, validInput())
	require.NoError(t, err)

	_, err = f.svc.Register(ctx, validInput())
	require.ErrorIs(t, err, apperr.ErrDuplicateEmail)
	assert.Equal(t, msgEmailRegistered, err.Error())
}

func TestRegisterSurvivesMailFailure(t *testing.T) {
	f := newFixture(t)
	f.mail.err = errors.New("smtp unavailable")

	_, err := f.svc.Register(context.Background(), validInput())
	require.NoError(t, err)
	_, err = f.repo.FindByEmail(context.Background(), "a@x.io")
	assert.NoError(t, err)
}

func TestVerifyOTPFailures(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_, err := f.svc.Register(ctx, validInput())
	require.NoError(t, err)
	code := f.pendingOTP(t, "a@x.io")

	err = f.svc.VerifyOTP(ctx, "nobody@x.io", code)
	require.ErrorIs(t, err, apperr.ErrNotFound)
	assert.Equal(t, msgUnknownEmail, err.Error())
	assert.Equal(t, http.StatusBadRequest, statusOf(err))

	wrong := "000000"
	if code == wrong {
		wrong = "111111"
	}
	assert.ErrorIs(t, f.svc.VerifyOTP(ctx, "a@x.io", wrong), apperr.ErrInvalidOTP)

	f.clock.advance(10*time.Minute + time.Second)
	assert.ErrorIs(t, f.svc.VerifyOTP(ctx, "a@x.io", code), apperr.ErrInvalidOTP)

	stored, err := f.repo.FindByEmail(ctx, "a@x.io")
	require.NoError(t, err)
	assert.False(t, stored.IsVerified)
}

func TestVerifyOTPAtExactExpiry(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_, err := f.svc.Register(ctx, validInput())
	require.NoError(t, err)

	f.clock.advance(10 * time.Minute)
	assert.NoError(t, f.svc.VerifyOTP(ctx, "a@x.io", f.pendingOTP(t, "a@x.io")))
}

func TestVerifyOTPTwiceFails(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_, err := f.svc.Register(ctx, validInput())
	require.NoError(t, err)
	code := f.pendingOTP(t, "a@x.io")

	require.NoError(t, f.svc.VerifyOTP(ctx, "a@x.io", code))
	assert.ErrorIs(t, f.svc.VerifyOTP(ctx, "a@x.io", code), apperr.ErrInvalidOTP)
}

func TestResendOTPReplacesCode(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_, err := f.svc.Register(ctx, validInput())
	require.NoError(t, err)
	first := f.pendingOTP(t, "a@x.io")

	f.clock.advance(9 * time.Minute)
	// Force a different code so the old one is provably dead.
	for {
		require.NoError(t, f.svc.ResendOTP(ctx, "a@x.io"))
		if f.pendingOTP(t, "a@x.io") != first {
			break
		}
	}
	second := f.pendingOTP(t, "a@x.io")

	last := f.mail.sent[len(f.mail.sent)-1]
	assert.Equal(t, notification.KindResendOTP, last.Kind)
	assert.Contains(t, last.Body, second)

	assert.ErrorIs(t, f.svc.VerifyOTP(ctx, "a@x.io", first), apperr.ErrInvalidOTP)

	// The fresh code carries its own window.
	f.clock.advance(5 * time.Minute)
	assert.NoError(t, f.svc.VerifyOTP(ctx, "a@x.io", second))
}

func TestResendOTPUnknownEmail(t *testing.T) {
	f := newFixture(t)
	err := f.svc.ResendOTP(context.Background(), "ghost@x.io")
	require.ErrorIs(t, err, apperr.ErrNotFound)
	assert.Equal(t, msgUserNotFound, err.Error())
	assert.Equal(t, http.StatusBadRequest, statusOf(err))
	assert.Empty(t, f.mail.sent)
}

func TestAuthenticateUnverified(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_, err := f.svc.Register(ctx, validInput())
	require.NoError(t, err)

	_, err = f.svc.Authenticate(ctx, "a@x.io", "Abc123")
	require.ErrorIs(t, err, apperr.ErrVerificationRequired)

	var appErr *apperr.Error
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, true, appErr.Fields["needsVerification"])
	assert.Equal(t, "a@x.io", appErr.Fields["email"])
}

func TestAuthenticateExpiredRegistrationIsRemoved(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_, err := f.svc.Register(ctx, validInput())
	require.NoError(t, err)

	f.clock.advance(11 * time.Minute)
	_, err = f.svc.Authenticate(ctx, "a@x.io", "Abc123")
	require.ErrorIs(t, err, apperr.ErrRegistrationExpired)

	var appErr *apperr.Error
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, true, appErr.Fields["registrationExpired"])

	_, err = f.repo.FindByEmail(ctx, "a@x.io")
	assert.ErrorIs(t, err, apperr.ErrNotFound)

	_, err = f.svc.Register(ctx, validInput())
	assert.NoError(t, err)
}

func TestAuthenticateRejectsBadCredentials(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_, err := f.svc.Register(ctx, validInput())
	require.NoError(t, err)
	require.NoError(t, f.svc.VerifyOTP(ctx, "a@x.io", f.pendingOTP(t, "a@x.io")))

	_, err = f.svc.Authenticate(ctx, "a@x.io", "Wrong123")
	require.ErrorIs(t, err, apperr.ErrInvalidCredentials)
	assert.Equal(t, msgInvalidCredentials, err.Error())

	_, err = f.svc.Authenticate(ctx, "ghost@x.io", "Abc123")
	assert.ErrorIs(t, err, apperr.ErrInvalidCredentials)

	_, err = f.svc.Authenticate(ctx, "", "Abc123")
	assert.ErrorIs(t, err, apperr.ErrValidation)
}

func TestAuthenticateWrongPasswordKeepsExpiredRegistration(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_, err := f.svc.Register(ctx, validInput())
	require.NoError(t, err)

	f.clock.advance(time.Hour)
	_, err = f.svc.Authenticate(ctx, "a@x.io", "Wrong123")
	require.ErrorIs(t, err, apperr.ErrInvalidCredentials)

	_, err = f.repo.FindByEmail(ctx, "a@x.io")
	assert.NoError(t, err)
}

func TestAddUser(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	user, err := f.svc.AddUser(ctx, NewUserInput{PersonalID: "p1", Name: "Bob", Email: "b@x.io", Password: "whatever", Role: "admin"})
	require.NoError(t, err)
	assert.True(t, user.IsVerified)
	assert.Equal(t, RoleAdmin, user.Role)
	assert.Empty(t, f.mail.sent)

	_, err = f.svc.Authenticate(ctx, "b@x.io", "whatever")
	assert.NoError(t, err)

	_, err = f.svc.AddUser(ctx, NewUserInput{PersonalID: "p2", Name: "Bob", Email: "b@x.io", Password: "x"})
	require.ErrorIs(t, err, apperr.ErrDuplicateEmail)
	assert.Equal(t, msgEmailExists, err.Error())

	_, err = f.svc.AddUser(ctx, NewUserInput{Name: "Carl", Email: "c@x.io", Password: "x"})
	require.ErrorIs(t, err, apperr.ErrValidation)
	assert.Equal(t, msgAdminRequiredFields, err.Error())

	_, err = f.svc.AddUser(ctx, NewUserInput{PersonalID: "p3", Name: "Carl", Email: "c@x.io", Password: "x", Role: "root"})
	assert.ErrorIs(t, err, apperr.ErrValidation)
}

func TestUpdateUser(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	user, err := f.svc.AddUser(ctx, NewUserInput{PersonalID: "p1", Name: "Bob", Email: "b@x.io", Password: "Old123"})
	require.NoError(t, err)

	name := "Robert"
	pw := "New123"
	other := "Nope123"

	// A lone password is ignored.
	updated, err := f.svc.UpdateUser(ctx, user.ID, UpdateInput{Name: &name, Password: &pw})
	require.NoError(t, err)
	assert.Equal(t, "Robert", updated.Name)
	_, err = f.svc.Authenticate(ctx, "b@x.io", "Old123")
	require.NoError(t, err)

	_, err = f.svc.UpdateUser(ctx, user.ID, UpdateInput{Password: &pw, ConfirmPassword: &other})
	require.ErrorIs(t, err, apperr.ErrValidation)

	_, err = f.svc.UpdateUser(ctx, user.ID, UpdateInput{Password: &pw, ConfirmPassword: &pw})
	require.NoError(t, err)
	_, err = f.svc.Authenticate(ctx, "b@x.io", "New123")
	assert.NoError(t, err)

	_, err = f.svc.UpdateUser(ctx, "missing", UpdateInput{Name: &name})
	require.ErrorIs(t, err, apperr.ErrNotFound)
	assert.Equal(t, "User not found.", err.Error())
}

func TestUpdateUserEmailConflict(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_, err := f.svc.AddUser(ctx, NewUserInput{PersonalID: "p1", Name: "Bob", Email: "b@x.io", Password: "x"})
	require.NoError(t, err)
	carl, err := f.svc.AddUser(ctx, NewUserInput{PersonalID: "p2", Name: "Carl", Email: "c@x.io", Password: "x"})
	require.NoError(t, err)

	taken := "b@x.io"
	_, err = f.svc.UpdateUser(ctx, carl.ID, UpdateInput{Email: &taken})
	assert.ErrorIs(t, err, apperr.ErrDuplicateEmail)

	moved := "carl@x.io"
	_, err = f.svc.UpdateUser(ctx, carl.ID, UpdateInput{Email: &moved})
	require.NoError(t, err)
	_, err = f.repo.FindByEmail(ctx, "c@x.io")
	assert.ErrorIs(t, err, apperr.ErrNotFound)
	_, err = f.repo.FindByEmail(ctx, "carl@x.io")
	assert.NoError(t, err)
}

func TestDeleteUser(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	user, err := f.svc.AddUser(ctx, NewUserInput{PersonalID: "p1", Name: "Bob", Email: "b@x.io", Password: "x"})
	require.NoError(t, err)

	require.NoError(t, f.svc.DeleteUser(ctx, user.ID))
	assert.ErrorIs(t, f.svc.DeleteUser(ctx, user.ID), apperr.ErrNotFound)

	_, err = f.svc.Get(ctx, user.ID)
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestNormalizeRole(t *testing.T) {
	assert.Equal(t, RoleAdmin, NormalizeRole("admin"))
	assert.Equal(t, RoleAdmin, NormalizeRole(" Admin "))
	assert.Equal(t, RoleUser, NormalizeRole(""))
	assert.Equal(t, RoleUser, NormalizeRole("superuser"))
}

func TestDocumentOmitsSecrets(t *testing.T) {
	user := User{ID: "u1", Name: "Alice", Email: "a@x.io", PasswordHash: []byte("hash"), OTP: "123456", Role: ""}
	raw, err := json.Marshal(user.Document())
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(raw, &decoded))
	assert.Equal(t, "u1", decoded["_id"])
	assert.Equal(t, "user", decoded["role"])
	assert.NotContains(t, decoded, "password")
	assert.NotContains(t, decoded, "otp")
	assert.NotContains(t, string(raw), "123456")
}

func TestEnsureAdmin(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	require.NoError(t, f.svc.EnsureAdmin(ctx, "root@x.io", "Root123"))
	root, err := f.svc.Authenticate(ctx, "root@x.io", "Root123")
	require.NoError(t, err)
	assert.Equal(t, RoleAdmin, root.Role)

	// Idempotent; the stored password wins.
	require.NoError(t, f.svc.EnsureAdmin(ctx, "root@x.io", "Other123"))
	_, err = f.svc.Authenticate(ctx, "root@x.io", "Root123")
	require.NoError(t, err)

	plain, err := f.svc.AddUser(ctx, NewUserInput{PersonalID: "p", Name: "Pat", Email: "pat@x.io", Password: "x"})
	require.NoError(t, err)
	require.NoError(t, f.svc.EnsureAdmin(ctx, "pat@x.io", "ignored"))
	promoted, err := f.svc.Get(ctx, plain.ID)
	require.NoError(t, err)
	assert.Equal(t, RoleAdmin, promoted.Role)
}

func statusOf(err error) int {
	var appErr *apperr.Error
	if errors.As(err, &appErr) {
		return appErr.Status()
	}
	return 0
}

func TestRegisterTrimsName(t *testing.T) {
	f := newFixture(t)
	in := validInput()
	in.Name = "Al "
	_, err := f.svc.Register(context.Background(), in)
	require.ErrorIs(t, err, apperr.ErrValidation)
	assert.Equal(t, msgNameTooShort, err.Error())

	in.Name = "  Alice  "
	user, err := f.svc.Register(context.Background(), in)
	require.NoError(t, err)
	assert.Equal(t, "Alice", user.Name)
}
