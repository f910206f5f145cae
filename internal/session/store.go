// Package session holds the signed-in user and bearer token for the process
// and writes every change through to durable storage.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/ovaphlow/pitchfork/todo-client-go/internal/session/repo"
	"github.com/ovaphlow/pitchfork/todo-client-go/internal/user/entity"
	"github.com/ovaphlow/pitchfork/todo-client-go/pkg/utilities"
)

// Storage slots. The names are local to this client.
const (
	TokenSlot = "auth_token"
	UserSlot  = "auth_user"
	IDSlot    = "auth_session_id"
)

var ErrEmptyToken = errors.New("session: empty token")

type EventKind int

const (
	LoggedIn EventKind = iota + 1
	LoggedOut
	// Invalidated is emitted when the API rejects the token.
	Invalidated
)

func (k EventKind) String() string {
	switch k {
	case LoggedIn:
		return "logged_in"
	case LoggedOut:
		return "logged_out"
	case Invalidated:
		return "invalidated"
	default:
		return "unknown"
	}
}

type Event struct {
	Kind   EventKind
	User   *entity.User
	Reason string
}

// Store is the single source of truth for the current session. It is safe
// for concurrent use; Restore, Login and Logout are applied one at a time in
// call order.
type Store struct {
	storage repo.Storage
	logger  *zap.SugaredLogger
	now     func() time.Time

	// ops serializes mutations so a Login issued during Restore lands after it
	ops sync.Mutex

	mu       sync.RWMutex
	user     *entity.User
	token    string
	id       string
	loading  bool
	restored bool

	subMu   sync.Mutex
	subs    map[int]func(Event)
	nextSub int
}

// NewStore returns an empty store in the loading state. Call Restore once at
// startup.
func NewStore(storage repo.Storage, logger *zap.SugaredLogger) *Store {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &Store{
		storage: storage,
		logger:  logger,
		now:     time.Now,
		loading: true,
		subs:    map[int]func(Event){},
	}
}

// Restore adopts the persisted session if both slots are present, the user
// record decodes and the token has not expired. Anything else clears the
// persisted slots and leaves the store empty. Only the first call has effect.
func (s *Store) Restore(ctx context.Context) error {
	s.ops.Lock()
	defer s.ops.Unlock()

	s.mu.RLock()
	done := s.restored
	s.mu.RUnlock()
	if done {
		return nil
	}
	defer func() {
		s.mu.Lock()
		s.loading = false
		s.restored = true
		s.mu.Unlock()
	}()

	token, hasToken, err := s.storage.Get(ctx, TokenSlot)
	if err != nil {
		if repo.Unreadable(err) {
			return s.discard(ctx, err.Error())
		}
		return fmt.Errorf("read token slot: %w", err)
	}
	raw, hasUser, err := s.storage.Get(ctx, UserSlot)
	if err != nil {
		if repo.Unreadable(err) {
			return s.discard(ctx, err.Error())
		}
		return fmt.Errorf("read user slot: %w", err)
	}
	if !hasToken && !hasUser {
		return nil
	}

	u, reason := s.check(token, raw)
	if reason != "" {
		return s.discard(ctx, reason)
	}

	id, _, err := s.storage.Get(ctx, IDSlot)
	if err != nil {
		return fmt.Errorf("read session id slot: %w", err)
	}

	s.mu.Lock()
	s.user, s.token, s.id = u, token, id
	s.mu.Unlock()
	s.logger.Debugw("session restored", "user_id", u.ID, "session_id", id)
	return nil
}

func (s *Store) discard(ctx context.Context, reason string) error {
	s.logger.Infow("discarding persisted session", "reason", reason)
	if err := s.storage.Remove(ctx, TokenSlot, UserSlot, IDSlot); err != nil {
		return fmt.Errorf("clear persisted session: %w", err)
	}
	return nil
}

func (s *Store) check(token, raw string) (*entity.User, string) {
	if token == "" || raw == "" {
		return nil, "partial"
	}
	var u entity.User
	if err := json.Unmarshal([]byte(raw), &u); err != nil {
		return nil, "malformed user"
	}
	if u.ID == 0 {
		return nil, "user without id"
	}
	if TokenExpired(token, s.now()) {
		return nil, "token expired"
	}
	return &u, ""
}

// Login replaces the session and persists it.
func (s *Store) Login(ctx context.Context, u entity.User, token string) error {
	if token == "" {
		return ErrEmptyToken
	}
	raw, err := json.Marshal(u)
	if err != nil {
		return fmt.Errorf("encode user: %w", err)
	}

	s.ops.Lock()
	id := utilities.NewSessionID()
	if err := s.persist(ctx, token, string(raw), id); err != nil {
		s.ops.Unlock()
		return err
	}
	s.mu.Lock()
	s.user, s.token, s.id = &u, token, id
	s.mu.Unlock()
	s.ops.Unlock()

	s.logger.Infow("signed in", "user_id", u.ID, "session_id", id)
	s.emit(Event{Kind: LoggedIn, User: &u})
	return nil
}

func (s *Store) persist(ctx context.Context, token, user, id string) error {
	if err := s.storage.Set(ctx, TokenSlot, token); err != nil {
		return fmt.Errorf("persist token: %w", err)
	}
	if err := s.storage.Set(ctx, UserSlot, user); err != nil {
		return fmt.Errorf("persist user: %w", err)
	}
	if err := s.storage.Set(ctx, IDSlot, id); err != nil {
		return fmt.Errorf("persist session id: %w", err)
	}
	return nil
}

// UpdateUser replaces the stored user record of an active session, keeping
// the token.
func (s *Store) UpdateUser(ctx context.Context, u entity.User) error {
	raw, err := json.Marshal(u)
	if err != nil {
		return fmt.Errorf("encode user: %w", err)
	}
	s.ops.Lock()
	defer s.ops.Unlock()
	if !s.IsAuthenticated() {
		return nil
	}
	if err := s.storage.Set(ctx, UserSlot, string(raw)); err != nil {
		return fmt.Errorf("persist user: %w", err)
	}
	s.mu.Lock()
	s.user = &u
	s.mu.Unlock()
	return nil
}

// Logout clears the session and erases the persisted slots.
func (s *Store) Logout(ctx context.Context) error {
	return s.clear(ctx, Event{Kind: LoggedOut})
}

// Invalidate logs out because the server rejected the session and notifies
// subscribers with an Invalidated event.
func (s *Store) Invalidate(ctx context.Context, reason string) error {
	return s.clear(ctx, Event{Kind: Invalidated, Reason: reason})
}

func (s *Store) clear(ctx context.Context, ev Event) error {
	s.ops.Lock()
	s.mu.Lock()
	ev.User = s.user
	s.user, s.token, s.id = nil, "", ""
	s.mu.Unlock()
	err := s.storage.Remove(ctx, TokenSlot, UserSlot, IDSlot)
	s.ops.Unlock()

	s.logger.Infow("session cleared", "event", ev.Kind.String(), "reason", ev.Reason)
	s.emit(ev)
	if err != nil {
		return fmt.Errorf("erase persisted session: %w", err)
	}
	return nil
}

// Subscribe registers fn for session events. Listeners run synchronously on
// the goroutine that changed the session. The returned func unsubscribes.
func (s *Store) Subscribe(fn func(Event)) func() {
	s.subMu.Lock()
	id := s.nextSub
	s.nextSub++
	s.subs[id] = fn
	s.subMu.Unlock()
	return func() {
		s.subMu.Lock()
		delete(s.subs, id)
		s.subMu.Unlock()
	}
}

func (s *Store) emit(ev Event) {
	s.subMu.Lock()
	fns := make([]func(Event), 0, len(s.subs))
	for _, fn := range s.subs {
		fns = append(fns, fn)
	}
	s.subMu.Unlock()
	for _, fn := range fns {
		fn(ev)
	}
}

func (s *Store) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token
}

// User returns a copy of the signed-in user, or nil.
func (s *Store) User() *entity.User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.user == nil {
		return nil
	}
	u := *s.user
	return &u
}

// ID is the local session id, used to correlate logs.
func (s *Store) ID() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.id
}

func (s *Store) IsAuthenticated() bool {
	return s.Token() != ""
}

// Loading reports whether Restore has not completed yet.
func (s *Store) Loading() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loading
}
