package client

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"regexp"
	"sync"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/todo-team/todolist/internal/config"
	"github.com/todo-team/todolist/internal/logging"
	"github.com/todo-team/todolist/internal/middleware"
	"github.com/todo-team/todolist/internal/notification"
	"github.com/todo-team/todolist/internal/routes"
)

func newClient(t *testing.T, handler http.Handler, opts ...Option) (*Client, *Session) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	session := NewSession(NewMemoryStore())
	c, err := New(srv.URL, session, opts...)
	require.NoError(t, err)
	return c, session
}

func TestNewRejectsBadURL(t *testing.T) {
	_, err := New("::nope", NewSession(NewMemoryStore()))
	assert.Error(t, err)
}

func TestSignInSavesSnapshotAndAttachesBearer(t *testing.T) {
	var gotAuth string
	mux := http.NewServeMux()
	mux.HandleFunc("/service/user/signin", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"message": "Sign In successfully!",
			"token":   "abc",
			"user":    map[string]string{"id": "u1", "name": "Alice", "email": "a@x.io", "role": "user"},
		})
	})
	mux.HandleFunc("/service/todo/get_all", func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		_, _ = w.Write([]byte(`[]`))
	})
	c, session := newClient(t, mux)

	snap, err := c.SignIn(context.Background(), "a@x.io", "Secret1")
	require.NoError(t, err)
	assert.Equal(t, "abc", snap.Token)
	assert.Equal(t, "u1", snap.User.ID)

	current, ok := session.Current()
	require.True(t, ok)
	assert.Equal(t, snap, current)

	todos, err := c.Todos(context.Background())
	require.NoError(t, err)
	assert.Empty(t, todos)
	assert.Equal(t, "Bearer abc", gotAuth)
}

func TestProtectedCallsNeedSession(t *testing.T) {
	called := false
	c, _ := newClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))
	_, err := c.UserInfo(context.Background())
	assert.ErrorIs(t, err, ErrSignedOut)
	assert.False(t, called)
}

func TestErrorFlagsAreDecoded(t *testing.T) {
	c, session := newClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"message":"Please verify your email first.","needsVerification":true,"email":"a@x.io"}`))
	}))

	_, err := c.SignIn(context.Background(), "a@x.io", "Secret1")
	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusBadRequest, apiErr.Status)
	email, ok := NeedsVerification(err)
	assert.True(t, ok)
	assert.Equal(t, "a@x.io", email)
	assert.False(t, RegistrationExpired(err))
	assert.Equal(t, http.StatusBadRequest, StatusOf(err))

	_, ok = session.Current()
	assert.False(t, ok, "failed sign-in must not touch the session")
}

func TestErrorWithoutJSONBodyUsesStatusText(t *testing.T) {
	c, _ := newClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	_, err := c.ResendOTP(context.Background(), "a@x.io")
	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusText(http.StatusBadGateway), apiErr.Message)
}

func TestIdempotencyKeysOnCreate(t *testing.T) {
	var mu sync.Mutex
	keys := []string{}
	c, session := newClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		keys = append(keys, r.Header.Get("Idempotency-Key"))
		mu.Unlock()
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"_id":"t1","todo_name":"milk"}`))
	}), WithIdempotencyKeys())
	require.NoError(t, session.Save(alice))

	_, err := c.AddTodo(context.Background(), TodoRequest{Name: "milk"})
	require.NoError(t, err)
	_, err = c.UpdateTodo(context.Background(), "t1", TodoPatch{})
	require.NoError(t, err)

	require.Len(t, keys, 2)
	assert.NotEmpty(t, keys[0])
	assert.Empty(t, keys[1], "only create calls carry a key")
}

var otpPattern = regexp.MustCompile(`>(\d{6})<`)

type inbox struct {
	mu    sync.Mutex
	codes map[string]string
}

func (i *inbox) Send(_ context.Context, msg notification.Message) error {
	i.mu.Lock()
	defer i.mu.Unlock()
	if m := otpPattern.FindStringSubmatch(msg.Body); m != nil {
		i.codes[msg.Destination] = m[1]
	}
	return nil
}

func (i *inbox) code(email string) string {
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.codes[email]
}

func TestClientAgainstAPI(t *testing.T) {
	mail := &inbox{codes: map[string]string{}}
	logger := logging.Discard()
	app := fiber.New(fiber.Config{ErrorHandler: middleware.ErrorHandler(logger)})
	require.NoError(t, routes.Setup(app, routes.Deps{
		Cfg: config.Config{
			AppEnv:      "development",
			StoreDriver: config.StoreMemory,
			Auth: config.AuthConfig{
				AccessSecret:      "access",
				RefreshSecret:     "refresh",
				AccessTokenTTL:    time.Hour,
				RefreshTokenTTL:   24 * time.Hour,
				RefreshCookiePath: "/service/user/refresh_token",
				OTPTTL:            10 * time.Minute,
			},
			Admin: config.AdminConfig{Email: "root@x.io", Password: "Root123"},
		},
		Logger:   logger,
		Notifier: mail,
	}))

	c, session := newClient(t, adaptor.FiberApp(app))
	ctx := context.Background()
	guard := NewGuard(session, DefaultRoutes())

	assert.Equal(t, SignInRoute, guard.Check("/todos").Redirect)

	_, err := c.SignUp(ctx, SignUpRequest{
		PersonalID: "p-1", Name: "Alice", Email: "alice@x.io",
		Password: "Secret1", ConfirmPassword: "Secret1",
	})
	require.NoError(t, err)

	_, err = c.SignIn(ctx, "alice@x.io", "Secret1")
	email, ok := NeedsVerification(err)
	require.True(t, ok, "unverified sign-in asks for the OTP: %v", err)
	assert.Equal(t, "alice@x.io", email)

	_, err = c.VerifyOTP(ctx, "alice@x.io", mail.code("alice@x.io"))
	require.NoError(t, err)

	snap, err := c.SignIn(ctx, "alice@x.io", "Secret1")
	require.NoError(t, err)
	assert.Equal(t, RoleUser, snap.User.Role)
	assert.True(t, guard.Check("/todos").Allowed)
	assert.Equal(t, HomeRoute, guard.Check("/admin").Redirect)

	me, err := c.UserInfo(ctx)
	require.NoError(t, err)
	assert.Equal(t, snap.User.ID, me.ID)

	created, err := c.AddTodo(ctx, TodoRequest{Name: "milk"})
	require.NoError(t, err)
	done := true
	updated, err := c.UpdateTodo(ctx, created.ID, TodoPatch{Done: &done})
	require.NoError(t, err)
	assert.True(t, updated.Done)

	todos, err := c.Todos(ctx)
	require.NoError(t, err)
	require.Len(t, todos, 1)

	_, err = c.DeleteTodo(ctx, created.ID)
	require.NoError(t, err)

	_, err = c.ListUsers(ctx)
	assert.Equal(t, http.StatusForbidden, StatusOf(err))

	token, err := c.Refresh(ctx)
	require.NoError(t, err)
	assert.NotEmpty(t, token)
	assert.Equal(t, token, session.Token())

	require.NoError(t, c.SignOut())
	assert.Equal(t, SignInRoute, guard.Check("/todos").Redirect)

	_, err = c.SignIn(ctx, "root@x.io", "Root123")
	require.NoError(t, err)
	assert.True(t, guard.Check("/admin").Allowed)

	users, err := c.ListUsers(ctx)
	require.NoError(t, err)
	assert.Len(t, users, 2)

	added, err := c.AddUser(ctx, NewUserRequest{
		PersonalID: "p-2", Name: "Bob", Email: "bob@x.io",
		Password: "Secret2", Role: RoleAdmin,
	})
	require.NoError(t, err)
	assert.Equal(t, RoleAdmin, added.Role)

	name := "Robert"
	patched, err := c.UpdateUser(ctx, added.ID, UserPatch{Name: &name})
	require.NoError(t, err)
	assert.Equal(t, "Robert", patched.Name)

	_, err = c.DeleteUser(ctx, added.ID)
	require.NoError(t, err)
	_, err = c.DeleteUser(ctx, added.ID)
	assert.Equal(t, http.StatusNotFound, StatusOf(err))
}
