package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/ovaphlow/pitchfork/todo-client-go/internal/apiclient"
	"github.com/ovaphlow/pitchfork/todo-client-go/internal/auth"
	"github.com/ovaphlow/pitchfork/todo-client-go/internal/screen"
	"github.com/ovaphlow/pitchfork/todo-client-go/internal/session"
	"github.com/ovaphlow/pitchfork/todo-client-go/internal/session/repo"
	"github.com/ovaphlow/pitchfork/todo-client-go/internal/todo"
	"github.com/ovaphlow/pitchfork/todo-client-go/internal/user"
	"github.com/ovaphlow/pitchfork/todo-client-go/internal/validation"
	"github.com/ovaphlow/pitchfork/todo-client-go/pkg/utilities"
)

func main() {
	// best-effort: without a .env the real environment and defaults apply
	_ = godotenv.Load()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	cfg, rest, err := ParseGlobal(args, stderr)
	if err != nil {
		return 2
	}
	if len(rest) == 0 {
		fmt.Fprintln(stderr, "missing command")
		printCommands(stderr)
		return 2
	}

	lg, err := utilities.Init(cfg.Log)
	if err != nil {
		fmt.Fprintf(stderr, "failed to init logger: %v\n", err)
		return 1
	}
	defer lg.Sync()
	sugar := lg.Sugar()

	storage, err := repo.Open(cfg.Storage)
	if err != nil {
		fmt.Fprintf(stderr, "open session storage: %v\n", err)
		return 1
	}
	defer storage.Close()

	c := newCLI(cfg, storage, stdout, stderr, sugar)
	defer c.app.Close()

	if err := c.app.Start(ctx); err != nil {
		// an unreadable session behaves like no session
		sugar.Warnw("restore session", "err", err)
	}
	return c.dispatch(ctx, rest[0], rest[1:])
}

type cli struct {
	stdout, stderr io.Writer
	logger         *zap.SugaredLogger
	now            func() time.Time

	session  *session.Store
	nav      *terminalNavigator
	app      *screen.App
	auth     *auth.Service
	users    *user.UserService
	todos    *todo.Cache
	validate *validation.Validator
}

func newCLI(cfg Config, storage repo.Storage, stdout, stderr io.Writer, logger *zap.SugaredLogger) *cli {
	store := session.NewStore(storage, logger.Named("session"))
	client := apiclient.New(cfg.API, store, logger.Named("api"))
	nav := &terminalNavigator{out: stderr}
	return &cli{
		stdout:   stdout,
		stderr:   stderr,
		logger:   logger,
		now:      time.Now,
		session:  store,
		nav:      nav,
		app:      screen.NewApp(store, nav, logger.Named("app")),
		auth:     auth.NewService(auth.NewAPI(client), store, logger.Named("auth")),
		users:    user.NewUserService(user.NewAPI(client), store, logger.Named("user")),
		todos:    todo.NewCache(todo.NewAPI(client)),
		validate: validation.New(nil),
	}
}

// terminalNavigator tells the user when a running command lost its session.
// Navigation during startup is silent.
type terminalNavigator struct {
	out   io.Writer
	armed bool
}

func (n *terminalNavigator) Navigate(to screen.Name) {
	if n.armed && to == screen.LoginScreen {
		fmt.Fprintln(n.out, "Your session has ended. Sign in again with: todo signin -email EMAIL -password PASSWORD")
	}
}
