package screen

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/ovaphlow/pitchfork/todo-client-go/internal/session"
)

// App routes between screens. It sends the user to the login screen
// whenever the session ends and keeps protected screens out of reach
// without one.
type App struct {
	session *session.Store
	nav     Navigator
	logger  *zap.SugaredLogger

	mu          sync.Mutex
	current     Name
	unsubscribe func()
}

func NewApp(store *session.Store, nav Navigator, logger *zap.SugaredLogger) *App {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	a := &App{session: store, nav: nav, logger: logger}
	a.unsubscribe = store.Subscribe(a.onSession)
	return a
}

func (a *App) onSession(ev session.Event) {
	switch ev.Kind {
	case session.Invalidated, session.LoggedOut:
		a.logger.Debugw("session ended", "event", ev.Kind.String(), "reason", ev.Reason)
		a.Navigate(LoginScreen)
	}
}

// Start restores the persisted session and opens the task list, or the
// login screen when there is no session.
func (a *App) Start(ctx context.Context) error {
	err := a.session.Restore(ctx)
	a.Navigate(TasksScreen)
	return err
}

// Navigate moves to n. Protected screens redirect to login while signed
// out.
func (a *App) Navigate(n Name) {
	if n.Protected() && !a.session.IsAuthenticated() {
		n = LoginScreen
	}
	a.mu.Lock()
	a.current = n
	a.mu.Unlock()
	a.nav.Navigate(n)
}

// Current returns the last screen navigated to.
func (a *App) Current() Name {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.current
}

// Close stops following the session.
func (a *App) Close() {
	a.unsubscribe()
}
