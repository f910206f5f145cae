package session

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/ovaphlow/pitchfork/todo-client-go/internal/session/repo"
	"github.com/ovaphlow/pitchfork/todo-client-go/internal/user/entity"
)

var alice = entity.User{ID: 1, Name: "Alice", Email: "alice@example.com", Status: entity.StatusActive, Type: entity.TypeRegular}

func TestLoginRestoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	storage := repo.NewMemoryStorage()

	first := NewStore(storage, nil)
	if err := first.Restore(ctx); err != nil {
		t.Fatalf("restore empty: %v", err)
	}
	if first.IsAuthenticated() {
		t.Fatal("fresh store should be empty")
	}
	if err := first.Login(ctx, alice, "tok"); err != nil {
		t.Fatalf("login: %v", err)
	}

	// simulated restart: a new store over the same storage
	second := NewStore(storage, nil)
	if !second.Loading() {
		t.Error("expected loading before restore")
	}
	if err := second.Restore(ctx); err != nil {
		t.Fatalf("restore: %v", err)
	}
	if second.Loading() {
		t.Error("expected loading false after restore")
	}
	if second.Token() != "tok" {
		t.Errorf("token = %q, want tok", second.Token())
	}
	if u := second.User(); u == nil || *u != alice {
		t.Errorf("user = %+v, want %+v", u, alice)
	}
	if second.ID() == "" || second.ID() != first.ID() {
		t.Errorf("session id = %q, want %q", second.ID(), first.ID())
	}

	if err := second.Logout(ctx); err != nil {
		t.Fatalf("logout: %v", err)
	}
	third := NewStore(storage, nil)
	if err := third.Restore(ctx); err != nil {
		t.Fatalf("restore after logout: %v", err)
	}
	if third.IsAuthenticated() || third.User() != nil {
		t.Error("expected empty session after logout")
	}
}

func TestRestoreDiscardsInvalidState(t *testing.T) {
	expired := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": "1",
		"exp": time.Now().Add(-time.Hour).Unix(),
	})
	expiredTok, err := expired.SignedString([]byte("test"))
	if err != nil {
		t.Fatalf("sign: %v", err)
	}

	tests := []struct {
		name  string
		slots map[string]string
	}{
		{"token only", map[string]string{TokenSlot: "tok"}},
		{"user only", map[string]string{UserSlot: `{"id":1}`}},
		{"malformed user", map[string]string{TokenSlot: "tok", UserSlot: "{not json"}},
		{"user without id", map[string]string{TokenSlot: "tok", UserSlot: `{"name":"x"}`}},
		{"empty token", map[string]string{TokenSlot: "", UserSlot: `{"id":1}`}},
		{"expired jwt", map[string]string{TokenSlot: expiredTok, UserSlot: `{"id":1}`}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			storage := repo.NewMemoryStorage()
			for k, v := range tt.slots {
				storage.Set(ctx, k, v)
			}
			s := NewStore(storage, nil)
			if err := s.Restore(ctx); err != nil {
				t.Fatalf("restore: %v", err)
			}
			if s.IsAuthenticated() {
				t.Error("expected empty session")
			}
			for _, slot := range []string{TokenSlot, UserSlot} {
				if _, ok, _ := storage.Get(ctx, slot); ok {
					t.Errorf("slot %s not cleared", slot)
				}
			}
		})
	}
}

func TestRestoreDiscardsUnreadableFile(t *testing.T) {
	tests := []struct {
		name       string
		passphrase string
		write      func(t *testing.T, path string)
	}{
		{"truncated json", "", func(t *testing.T, path string) {
			if err := os.WriteFile(path, []byte("{truncated"), 0o600); err != nil {
				t.Fatalf("write: %v", err)
			}
		}},
		{"wrong type", "", func(t *testing.T, path string) {
			if err := os.WriteFile(path, []byte(`["tok"]`), 0o600); err != nil {
				t.Fatalf("write: %v", err)
			}
		}},
		{"garbage ciphertext", "s3cret", func(t *testing.T, path string) {
			if err := os.WriteFile(path, []byte("short"), 0o600); err != nil {
				t.Fatalf("write: %v", err)
			}
		}},
		{"wrong passphrase", "s3cret", func(t *testing.T, path string) {
			other := repo.NewFileStorage(path, "another")
			if err := other.Set(context.Background(), TokenSlot, "tok"); err != nil {
				t.Fatalf("seed: %v", err)
			}
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			path := filepath.Join(t.TempDir(), "session.json")
			tt.write(t, path)

			s := NewStore(repo.NewFileStorage(path, tt.passphrase), nil)
			if err := s.Restore(ctx); err != nil {
				t.Fatalf("restore: %v", err)
			}
			if s.IsAuthenticated() || s.Loading() {
				t.Fatal("expected an empty, loaded session")
			}
			if _, err := os.Stat(path); !errors.Is(err, fs.ErrNotExist) {
				t.Errorf("unreadable file kept: stat err = %v", err)
			}

			if err := s.Login(ctx, alice, "tok"); err != nil {
				t.Fatalf("login: %v", err)
			}
			if !s.IsAuthenticated() {
				t.Error("expected session after login")
			}

			again := NewStore(repo.NewFileStorage(path, tt.passphrase), nil)
			if err := again.Restore(ctx); err != nil {
				t.Fatalf("second restore: %v", err)
			}
			if again.Token() != "tok" {
				t.Errorf("token after restart = %q, want tok", again.Token())
			}
		})
	}
}

func TestRestoreKeepsUnexpiredJWT(t *testing.T) {
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"exp": time.Now().Add(time.Hour).Unix()})
	signed, _ := tok.SignedString([]byte("test"))

	ctx := context.Background()
	storage := repo.NewMemoryStorage()
	storage.Set(ctx, TokenSlot, signed)
	storage.Set(ctx, UserSlot, `{"id":7,"name":"Bob"}`)

	s := NewStore(storage, nil)
	if err := s.Restore(ctx); err != nil {
		t.Fatalf("restore: %v", err)
	}
	if !s.IsAuthenticated() || s.User().ID != 7 {
		t.Errorf("expected session for user 7, got %+v", s.User())
	}
}

func TestLoginRejectsEmptyToken(t *testing.T) {
	s := NewStore(repo.NewMemoryStorage(), nil)
	if err := s.Login(context.Background(), alice, ""); err != ErrEmptyToken {
		t.Errorf("err = %v, want ErrEmptyToken", err)
	}
}

func TestInvalidateEmitsOnce(t *testing.T) {
	ctx := context.Background()
	s := NewStore(repo.NewMemoryStorage(), nil)
	s.Login(ctx, alice, "tok")

	var mu sync.Mutex
	var events []Event
	unsubscribe := s.Subscribe(func(ev Event) {
		mu.Lock()
		events = append(events, ev)
		mu.Unlock()
	})

	if err := s.Invalidate(ctx, "unauthorized"); err != nil {
		t.Fatalf("invalidate: %v", err)
	}
	if s.IsAuthenticated() {
		t.Error("expected session cleared")
	}
	if len(events) != 1 || events[0].Kind != Invalidated || events[0].Reason != "unauthorized" {
		t.Fatalf("events = %+v", events)
	}
	if events[0].User == nil || events[0].User.ID != alice.ID {
		t.Errorf("event user = %+v", events[0].User)
	}

	unsubscribe()
	s.Logout(ctx)
	if len(events) != 1 {
		t.Errorf("unsubscribed listener still called: %+v", events)
	}
}

func TestUpdateUser(t *testing.T) {
	ctx := context.Background()
	storage := repo.NewMemoryStorage()
	s := NewStore(storage, nil)

	// no session: nothing stored
	if err := s.UpdateUser(ctx, alice); err != nil {
		t.Fatalf("update without session: %v", err)
	}
	if _, ok, _ := storage.Get(ctx, UserSlot); ok {
		t.Fatal("user slot written without a session")
	}

	s.Login(ctx, alice, "tok")
	renamed := alice
	renamed.Name = "Alice L."
	if err := s.UpdateUser(ctx, renamed); err != nil {
		t.Fatalf("update: %v", err)
	}
	if s.User().Name != "Alice L." || s.Token() != "tok" {
		t.Errorf("user = %+v token = %q", s.User(), s.Token())
	}
}

// blockingStorage holds the first Get until released, simulating a slow
// restore.
type blockingStorage struct {
	*repo.MemoryStorage
	started chan struct{}
	release chan struct{}
	once    sync.Once
}

func (b *blockingStorage) Get(ctx context.Context, slot string) (string, bool, error) {
	b.once.Do(func() {
		close(b.started)
		<-b.release
	})
	return b.MemoryStorage.Get(ctx, slot)
}

func TestLoginDuringRestoreWins(t *testing.T) {
	ctx := context.Background()
	storage := &blockingStorage{
		MemoryStorage: repo.NewMemoryStorage(),
		started:       make(chan struct{}),
		release:       make(chan struct{}),
	}
	storage.MemoryStorage.Set(ctx, TokenSlot, "old")
	storage.MemoryStorage.Set(ctx, UserSlot, `{"id":2,"name":"Old"}`)

	s := NewStore(storage, nil)
	restored := make(chan error, 1)
	go func() { restored <- s.Restore(ctx) }()
	<-storage.started

	loggedIn := make(chan error, 1)
	go func() { loggedIn <- s.Login(ctx, alice, "new") }()

	close(storage.release)
	if err := <-restored; err != nil {
		t.Fatalf("restore: %v", err)
	}
	if err := <-loggedIn; err != nil {
		t.Fatalf("login: %v", err)
	}

	if s.Token() != "new" || s.User().ID != alice.ID {
		t.Errorf("session = %q %+v, want login to win", s.Token(), s.User())
	}
	if v, _, _ := storage.MemoryStorage.Get(ctx, TokenSlot); v != "new" {
		t.Errorf("persisted token = %q, want new", v)
	}
}

func TestTokenExpired(t *testing.T) {
	now := time.Now()
	if TokenExpired("opaque-token", now) {
		t.Error("opaque token treated as expired")
	}
	noExp, _ := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"sub": "1"}).SignedString([]byte("k"))
	if TokenExpired(noExp, now) {
		t.Error("jwt without exp treated as expired")
	}
	atNow, _ := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"exp": now.Unix()}).SignedString([]byte("k"))
	if !TokenExpired(atNow, now.Add(time.Second)) {
		t.Error("jwt past exp not expired")
	}
}
