package screen

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/ovaphlow/pitchfork/todo-client-go/internal/apiclient"
	"github.com/ovaphlow/pitchfork/todo-client-go/internal/auth"
	"github.com/ovaphlow/pitchfork/todo-client-go/internal/session"
	"github.com/ovaphlow/pitchfork/todo-client-go/internal/session/repo"
	"github.com/ovaphlow/pitchfork/todo-client-go/internal/testutil"
	"github.com/ovaphlow/pitchfork/todo-client-go/internal/todo"
	todoentity "github.com/ovaphlow/pitchfork/todo-client-go/internal/todo/entity"
	"github.com/ovaphlow/pitchfork/todo-client-go/internal/user"
	userentity "github.com/ovaphlow/pitchfork/todo-client-go/internal/user/entity"
	"github.com/ovaphlow/pitchfork/todo-client-go/internal/validation"
)

var fixedNow = time.Date(2026, 3, 14, 15, 9, 0, 0, time.UTC)

type recorder struct {
	mu    sync.Mutex
	names []Name
}

func (r *recorder) Navigate(n Name) {
	r.mu.Lock()
	r.names = append(r.names, n)
	r.mu.Unlock()
}

func (r *recorder) last() Name {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.names) == 0 {
		return ""
	}
	return r.names[len(r.names)-1]
}

type fixture struct {
	backend  *testutil.Backend
	store    *session.Store
	nav      *recorder
	app      *App
	auth     *auth.Service
	users    *user.UserService
	cache    *todo.Cache
	validate *validation.Validator
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	b := testutil.NewBackend(t)
	store := session.NewStore(repo.NewMemoryStorage(), nil)
	client := apiclient.New(apiclient.Config{BaseURL: b.URL}, store, nil)
	nav := &recorder{}
	f := &fixture{
		backend:  b,
		store:    store,
		nav:      nav,
		app:      NewApp(store, nav, nil),
		auth:     auth.NewService(auth.NewAPI(client), store, nil),
		users:    user.NewUserService(user.NewAPI(client), store, nil),
		cache:    todo.NewCache(todo.NewAPI(client)),
		validate: validation.New(func() time.Time { return fixedNow }),
	}
	t.Cleanup(f.app.Close)
	if err := f.app.Start(context.Background()); err != nil {
		t.Fatalf("start: %v", err)
	}
	return f
}

func (f *fixture) signIn(t *testing.T) {
	t.Helper()
	if err := f.store.Login(context.Background(), f.backend.User, f.backend.Token); err != nil {
		t.Fatalf("login: %v", err)
	}
}

func (f *fixture) tasks() *Tasks {
	return NewTasks(f.cache, f.validate, func() time.Time { return fixedNow })
}

func strp(s string) *string { return &s }

func TestStartWithoutSessionOpensLogin(t *testing.T) {
	f := newFixture(t)
	if got := f.nav.last(); got != LoginScreen {
		t.Errorf("screen = %q, want login", got)
	}
	f.app.Navigate(ProfileScreen)
	if f.app.Current() != LoginScreen {
		t.Errorf("protected screen reachable while signed out")
	}
	f.app.Navigate(SignupScreen)
	if f.app.Current() != SignupScreen {
		t.Errorf("signup should be reachable while signed out")
	}
}

func TestLoginSubmit(t *testing.T) {
	f := newFixture(t)
	c := NewLogin(f.auth, f.validate, f.app)
	ctx := context.Background()

	err := c.Submit(ctx, auth.SigninRequest{Email: "nope", Password: "short"})
	if _, ok := validation.FieldErrors(err); !ok {
		t.Fatalf("err = %v, want field errors", err)
	}
	form := c.Form()
	if form.Fields["email"] != "Invalid email address" || form.Fields["password"] != "Password must be at least 8 characters" {
		t.Errorf("fields = %v", form.Fields)
	}
	if n := f.backend.Count(http.MethodPost, "/auth/signin"); n != 0 {
		t.Fatalf("invalid form dispatched %d requests", n)
	}

	err = c.Submit(ctx, auth.SigninRequest{Email: "alice@example.com", Password: "wrongpass"})
	if err == nil || c.Form().Error != "Invalid email or password" {
		t.Errorf("err = %v, form = %+v", err, c.Form())
	}
	if f.nav.last() != LoginScreen {
		t.Errorf("failed signin navigated to %q", f.nav.last())
	}

	if err := c.Submit(ctx, auth.SigninRequest{Email: "alice@example.com", Password: "password1"}); err != nil {
		t.Fatalf("submit: %v", err)
	}
	if f.nav.last() != TasksScreen {
		t.Errorf("screen = %q, want tasks", f.nav.last())
	}
	form = c.Form()
	if form.Error != "" || form.Fields != nil || form.Submitting {
		t.Errorf("form after success = %+v", form)
	}
}

func TestSignupSubmit(t *testing.T) {
	f := newFixture(t)
	c := NewSignup(f.auth, f.validate, f.app)

	err := c.Submit(context.Background(), auth.SignupRequest{Name: "Al", Email: "al@example.com", Password: "password1"})
	if fe, ok := validation.FieldErrors(err); !ok || fe["name"] != "Name must be at least 3 characters" {
		t.Fatalf("err = %v", err)
	}

	if err := c.Submit(context.Background(), auth.SignupRequest{Name: "Bob", Email: "bob@example.com", Password: "password1"}); err != nil {
		t.Fatalf("submit: %v", err)
	}
	if !f.store.IsAuthenticated() || f.nav.last() != TasksScreen {
		t.Errorf("authenticated = %v, screen = %q", f.store.IsAuthenticated(), f.nav.last())
	}
}

func TestTasksMutationsRefetch(t *testing.T) {
	f := newFixture(t)
	f.signIn(t)
	c := f.tasks()
	ctx := context.Background()

	if err := c.Load(ctx); err != nil {
		t.Fatalf("load: %v", err)
	}
	if !c.Loaded() || len(c.Items()) != 0 {
		t.Fatalf("items = %+v", c.Items())
	}

	if err := c.Add(ctx, todoentity.CreateRequest{Title: "Write report", DueDate: strp("2026-03-14T20:30:00+02:00")}); err != nil {
		t.Fatalf("add: %v", err)
	}
	items := c.Items()
	if len(items) != 1 {
		t.Fatalf("items after add = %+v", items)
	}
	if items[0].DueDate == nil || *items[0].DueDate != "2026-03-14T18:30:00Z" {
		t.Errorf("due date sent as %v", items[0].DueDate)
	}
	if c.Form().Notice != "Task created!" {
		t.Errorf("notice = %q", c.Form().Notice)
	}
	id := items[0].ID

	if err := c.Toggle(ctx, items[0]); err != nil {
		t.Fatalf("toggle: %v", err)
	}
	if got, _ := c.Find(id); got.Status != todoentity.StatusCompleted {
		t.Errorf("status = %q", got.Status)
	}
	got, _ := c.Find(id)
	if err := c.Toggle(ctx, got); err != nil {
		t.Fatalf("toggle: %v", err)
	}
	if got, _ := c.Find(id); got.Status != todoentity.StatusPending {
		t.Errorf("status after second toggle = %q", got.Status)
	}

	if err := c.Edit(ctx, id, todoentity.UpdateRequest{Title: strp("Send report")}); err != nil {
		t.Fatalf("edit: %v", err)
	}
	if got, _ := c.Find(id); got.Title != "Send report" {
		t.Errorf("title = %q", got.Title)
	}

	if err := c.Delete(ctx, id); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if len(c.Items()) != 0 || c.Form().Notice != "Task deleted" {
		t.Errorf("items = %+v, form = %+v", c.Items(), c.Form())
	}

	// load + one list per successful mutation
	if n := f.backend.Count(http.MethodGet, "/todo/list"); n != 6 {
		t.Errorf("list fetched %d times, want 6", n)
	}

	if err := c.Delete(ctx, id); err == nil {
		t.Fatal("second delete should fail")
	}
	if c.Form().Error != "Todo not found" {
		t.Errorf("error = %q", c.Form().Error)
	}
}

func TestTasksValidationBlocksDispatch(t *testing.T) {
	f := newFixture(t)
	f.signIn(t)
	c := f.tasks()
	ctx := context.Background()

	tests := []struct {
		name  string
		req   todoentity.CreateRequest
		field string
		msg   string
	}{
		{"empty title", todoentity.CreateRequest{Title: ""}, "title", "Title is required"},
		{"past due date", todoentity.CreateRequest{Title: "x", DueDate: strp("2026-03-14T15:08:00Z")}, "due_date", "Date & time cannot be in the past"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := c.Add(ctx, tt.req)
			fe, ok := validation.FieldErrors(err)
			if !ok || fe[tt.field] != tt.msg {
				t.Errorf("err = %v", err)
			}
			if c.Form().Fields[tt.field] != tt.msg {
				t.Errorf("form fields = %v", c.Form().Fields)
			}
		})
	}

	bad := todoentity.Status("archived")
	if err := c.Edit(ctx, 1, todoentity.UpdateRequest{Status: &bad}); err == nil {
		t.Error("expected invalid status")
	}
	if n := f.backend.Count(http.MethodPost, "/todo"); n != 0 {
		t.Errorf("invalid forms dispatched %d creates", n)
	}
	if n := f.backend.Count(http.MethodPatch, "/todo/1"); n != 0 {
		t.Errorf("invalid forms dispatched %d updates", n)
	}
}

func TestTasksViewAndSummary(t *testing.T) {
	f := newFixture(t)
	f.signIn(t)
	f.backend.Seed(todoentity.Todo{Title: "Buy milk", DueDate: strp("2026-03-14T18:00:00Z")})
	f.backend.Seed(todoentity.Todo{Title: "Call mom", Status: todoentity.StatusInProgress, DueDate: strp("2026-03-15T09:00:00Z")})
	f.backend.Seed(todoentity.Todo{Title: "Pay bills", Status: todoentity.StatusCompleted})

	c := f.tasks()
	if err := c.Load(context.Background()); err != nil {
		t.Fatalf("load: %v", err)
	}

	tests := []struct {
		cat    Category
		search string
		want   []string
	}{
		{AllTasks, "", []string{"Buy milk", "Call mom", "Pay bills"}},
		{Today, "", []string{"Buy milk"}},
		{InProgress, "", []string{"Call mom"}},
		{Completed, "", []string{"Pay bills"}},
		{AllTasks, "MILK", []string{"Buy milk"}},
		{Completed, "milk", nil},
	}
	for _, tt := range tests {
		rows := c.View(tt.cat, tt.search)
		var titles []string
		for _, r := range rows {
			titles = append(titles, r.Title)
		}
		if len(titles) != len(tt.want) {
			t.Errorf("%s/%q = %v, want %v", tt.cat, tt.search, titles, tt.want)
			continue
		}
		for i := range titles {
			if titles[i] != tt.want[i] {
				t.Errorf("%s/%q = %v, want %v", tt.cat, tt.search, titles, tt.want)
				break
			}
		}
	}

	rows := c.View(AllTasks, "")
	if rows[0].Due != "Today, 6:00 PM" || rows[1].Due != "Tomorrow, 9:00 AM" || rows[2].Due != "" {
		t.Errorf("due labels = %q %q %q", rows[0].Due, rows[1].Due, rows[2].Due)
	}

	want := Summary{Total: 3, Completed: 1, Today: 1, InProgress: 1}
	if got := c.Summary(); got != want {
		t.Errorf("summary = %+v, want %+v", got, want)
	}
}

func TestUnmountDropsLateResponse(t *testing.T) {
	f := newFixture(t)
	f.signIn(t)
	c := f.tasks()

	release := make(chan struct{})
	f.backend.Handle("GET /todo/list", func(*http.Request, []byte) (int, any) {
		<-release
		return http.StatusOK, testutil.Envelope("ok", []todoentity.Todo{{ID: 7, Title: "late"}})
	})

	done := make(chan error)
	go func() { done <- c.Load(context.Background()) }()
	c.Unmount()
	close(release)
	if err := <-done; err != nil {
		t.Fatalf("load: %v", err)
	}
	if c.Loaded() || len(c.Items()) != 0 {
		t.Errorf("unmounted controller took the late list: %+v", c.Items())
	}

	l := NewLogin(f.auth, f.validate, f.app)
	l.Unmount()
	before := len(f.nav.names)
	if err := l.Submit(context.Background(), auth.SigninRequest{Email: "alice@example.com", Password: "password1"}); err != nil {
		t.Fatalf("submit: %v", err)
	}
	if len(f.nav.names) != before {
		t.Error("unmounted login navigated")
	}
}

func TestUnauthorizedNavigatesToLogin(t *testing.T) {
	f := newFixture(t)
	f.signIn(t)
	f.app.Navigate(TasksScreen)
	f.backend.SetToken("rotated")

	c := f.tasks()
	err := c.Load(context.Background())
	if !errors.Is(err, apiclient.ErrUnauthorized) {
		t.Fatalf("err = %v", err)
	}
	if f.nav.last() != LoginScreen {
		t.Errorf("screen = %q, want login", f.nav.last())
	}
	if c.Form().Error != "Unauthorized" {
		t.Errorf("error = %q", c.Form().Error)
	}
	if f.store.IsAuthenticated() {
		t.Error("session should be cleared")
	}
}

func TestLogoutNavigatesToLogin(t *testing.T) {
	f := newFixture(t)
	f.signIn(t)
	f.app.Navigate(TasksScreen)
	if err := f.auth.Logout(context.Background()); err != nil {
		t.Fatalf("logout: %v", err)
	}
	if f.nav.last() != LoginScreen {
		t.Errorf("screen = %q, want login", f.nav.last())
	}
}

func TestProfileLoadAndSave(t *testing.T) {
	f := newFixture(t)
	f.signIn(t)
	c := NewProfile(f.users, f.validate)
	ctx := context.Background()

	if c.User() != nil {
		t.Fatal("user before load")
	}
	if err := c.Load(ctx); err != nil {
		t.Fatalf("load: %v", err)
	}
	if c.User().Email != "alice@example.com" {
		t.Errorf("user = %+v", c.User())
	}

	err := c.Save(ctx, userentity.UpdateProfileRequest{FirstName: "", LastName: "L", Email: "x"})
	fe, ok := validation.FieldErrors(err)
	if !ok || fe["first_name"] != "First name is required" || fe["email"] != "Invalid email address" {
		t.Fatalf("err = %v", err)
	}

	if err := c.Save(ctx, userentity.UpdateProfileRequest{FirstName: "Alice", LastName: "Liddell", Email: "alice@wonder.land"}); err != nil {
		t.Fatalf("save: %v", err)
	}
	if c.User().Name != "Alice Liddell" || c.Form().Notice != "Profile updated!" {
		t.Errorf("user = %+v, form = %+v", c.User(), c.Form())
	}
	if f.store.User().Email != "alice@wonder.land" {
		t.Error("session user not refreshed")
	}
}

func TestChangePasswordSubmit(t *testing.T) {
	f := newFixture(t)
	f.signIn(t)
	c := NewChangePassword(f.users, f.validate)
	ctx := context.Background()

	err := c.Submit(ctx, userentity.ChangePasswordRequest{CurrentPassword: "password1", NewPassword: "password2", ConfirmPassword: "password3"})
	if fe, ok := validation.FieldErrors(err); !ok || fe["confirm_password"] != "Passwords don't match" {
		t.Fatalf("err = %v", err)
	}

	err = c.Submit(ctx, userentity.ChangePasswordRequest{CurrentPassword: "password9", NewPassword: "password2", ConfirmPassword: "password2"})
	if err == nil || c.Form().Error != "Current password is incorrect" {
		t.Errorf("err = %v, form = %+v", err, c.Form())
	}

	if err := c.Submit(ctx, userentity.ChangePasswordRequest{CurrentPassword: "password1", NewPassword: "password2", ConfirmPassword: "password2"}); err != nil {
		t.Fatalf("submit: %v", err)
	}
	if c.Form().Notice != "Password updated!" || !f.store.IsAuthenticated() {
		t.Errorf("form = %+v", c.Form())
	}
}
