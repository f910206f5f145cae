package testutil

import (
	"encoding/json"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"sync"
	"testing"

	todo "github.com/ovaphlow/pitchfork/todo-client-go/internal/todo/entity"
	user "github.com/ovaphlow/pitchfork/todo-client-go/internal/user/entity"
)

// Backend is an in-memory todo API with one account.
type Backend struct {
	*Server

	mu       sync.Mutex
	User     user.User
	Password string
	Token    string
	todos    map[int64]todo.Todo
	nextID   int64
}

// NewBackend starts a backend for the account alice@example.com /
// password1 whose token is "tok".
func NewBackend(t *testing.T) *Backend {
	t.Helper()
	b := &Backend{
		Server:   NewServer(t),
		User:     user.User{ID: 1, Name: "Alice", Email: "alice@example.com", Status: user.StatusActive, Type: user.TypeRegular},
		Password: "password1",
		Token:    "tok",
		todos:    map[int64]todo.Todo{},
		nextID:   1,
	}
	b.Handle("POST /auth/signin", b.signin)
	b.Handle("POST /auth/signup", b.signup)
	b.Handle("GET /user", b.authed(b.profile))
	b.Handle("PATCH /user/profile", b.authed(b.updateProfile))
	b.Handle("POST /auth/change-password", b.authed(b.changePassword))
	b.Handle("GET /todo/list", b.authed(b.list))
	b.Handle("POST /todo", b.authed(b.create))
	b.Handle("PATCH /todo/{id}", b.authed(b.update))
	b.Handle("DELETE /todo/{id}", b.authed(b.remove))
	return b
}

// Todos returns the stored todos ordered by id.
func (b *Backend) Todos() []todo.Todo {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]todo.Todo, 0, len(b.todos))
	for _, t := range b.todos {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Seed stores t and returns it with its assigned id.
func (b *Backend) Seed(t todo.Todo) todo.Todo {
	b.mu.Lock()
	defer b.mu.Unlock()
	t.ID = b.nextID
	b.nextID++
	t.UserID = b.User.ID
	if t.Status == "" {
		t.Status = todo.StatusPending
	}
	b.todos[t.ID] = t
	return t
}

// SetToken changes the token the backend accepts.
func (b *Backend) SetToken(tok string) {
	b.mu.Lock()
	b.Token = tok
	b.mu.Unlock()
}

// CurrentPassword returns the account password.
func (b *Backend) CurrentPassword() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.Password
}

func (b *Backend) authed(next Responder) Responder {
	return func(r *http.Request, body []byte) (int, any) {
		b.mu.Lock()
		want := "Bearer " + b.Token
		b.mu.Unlock()
		if r.Header.Get("Authorization") != want {
			return http.StatusUnauthorized, Envelope("Unauthorized", nil)
		}
		return next(r, body)
	}
}

func (b *Backend) signin(_ *http.Request, body []byte) (int, any) {
	var in struct{ Email, Password string }
	if err := json.Unmarshal(body, &in); err != nil {
		return http.StatusBadRequest, Envelope("Invalid payload", nil)
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if in.Email != b.User.Email || in.Password != b.Password {
		return http.StatusBadRequest, Envelope("Invalid email or password", nil)
	}
	return http.StatusOK, Envelope("Signed in", map[string]any{"user": b.User, "token": b.Token})
}

func (b *Backend) signup(_ *http.Request, body []byte) (int, any) {
	var in struct{ Name, Email, Password string }
	if err := json.Unmarshal(body, &in); err != nil {
		return http.StatusBadRequest, Envelope("Invalid payload", nil)
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if strings.EqualFold(in.Email, b.User.Email) {
		return http.StatusConflict, Envelope("Email already registered", nil)
	}
	b.User = user.User{ID: b.User.ID + 1, Name: in.Name, Email: in.Email, Status: user.StatusPending, Type: user.TypeRegular}
	b.Password = in.Password
	b.Token = "tok-" + strconv.FormatInt(b.User.ID, 10)
	return http.StatusCreated, Envelope("Signed up", map[string]any{"user": b.User, "token": b.Token})
}

func (b *Backend) profile(*http.Request, []byte) (int, any) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return http.StatusOK, Envelope("ok", b.User)
}

func (b *Backend) updateProfile(_ *http.Request, body []byte) (int, any) {
	var in user.UpdateProfileRequest
	if err := json.Unmarshal(body, &in); err != nil {
		return http.StatusBadRequest, Envelope("Invalid payload", nil)
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.User.Name = strings.TrimSpace(in.FirstName + " " + in.LastName)
	b.User.Email = in.Email
	return http.StatusOK, Envelope("Profile updated", b.User)
}

func (b *Backend) changePassword(_ *http.Request, body []byte) (int, any) {
	var in user.ChangePasswordRequest
	if err := json.Unmarshal(body, &in); err != nil {
		return http.StatusBadRequest, Envelope("Invalid payload", nil)
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if in.CurrentPassword != b.Password {
		return http.StatusBadRequest, Envelope("Current password is incorrect", nil)
	}
	b.Password = in.NewPassword
	return http.StatusOK, map[string]any{"message": "Password changed", "data": nil}
}

func (b *Backend) list(*http.Request, []byte) (int, any) {
	return http.StatusOK, Envelope("ok", b.Todos())
}

func (b *Backend) create(_ *http.Request, body []byte) (int, any) {
	var in todo.CreateRequest
	if err := json.Unmarshal(body, &in); err != nil || in.Title == "" {
		return http.StatusBadRequest, Envelope("Title is required", nil)
	}
	t := b.Seed(todo.Todo{Title: in.Title, Description: in.Description, DueDate: in.DueDate})
	return http.StatusCreated, Envelope("Todo created", t)
}

func (b *Backend) update(r *http.Request, body []byte) (int, any) {
	id, _ := strconv.ParseInt(r.PathValue("id"), 10, 64)
	var in todo.UpdateRequest
	if err := json.Unmarshal(body, &in); err != nil {
		return http.StatusBadRequest, Envelope("Invalid payload", nil)
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	t, ok := b.todos[id]
	if !ok {
		return http.StatusNotFound, Envelope("Todo not found", nil)
	}
	if in.Title != nil {
		t.Title = *in.Title
	}
	if in.Description != nil {
		t.Description = in.Description
	}
	if in.Status != nil {
		t.Status = *in.Status
	}
	if in.DueDate != nil {
		t.DueDate = in.DueDate
	}
	b.todos[id] = t
	return http.StatusOK, Envelope("Todo updated", t)
}

func (b *Backend) remove(r *http.Request, _ []byte) (int, any) {
	id, _ := strconv.ParseInt(r.PathValue("id"), 10, 64)
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, ok := b.todos[id]; !ok {
		return http.StatusNotFound, Envelope("Todo not found", nil)
	}
	delete(b.todos, id)
	return http.StatusOK, map[string]any{"message": "Todo deleted", "data": nil}
}
