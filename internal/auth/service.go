package auth

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/ovaphlow/pitchfork/todo-client-go/internal/session"
)

// ErrNoPayload is returned when a successful signin or signup response
// carries no user or token.
var ErrNoPayload = errors.New("auth: response has no user or token")

// Service signs the user in and out, keeping the session store current.
type Service struct {
	api     *API
	session *session.Store
	logger  *zap.SugaredLogger
}

func NewService(api *API, store *session.Store, logger *zap.SugaredLogger) *Service {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &Service{api: api, session: store, logger: logger}
}

// Signin authenticates and starts a session.
func (s *Service) Signin(ctx context.Context, req SigninRequest) (*Payload, error) {
	p, err := s.api.Signin(ctx, req)
	if err != nil {
		s.logger.Debugw("signin failed", "err", err)
		return nil, fmt.Errorf("signin: %w", err)
	}
	return s.start(ctx, p)
}

// Signup creates the account and starts a session with it.
func (s *Service) Signup(ctx context.Context, req SignupRequest) (*Payload, error) {
	p, err := s.api.Signup(ctx, req)
	if err != nil {
		s.logger.Debugw("signup failed", "err", err)
		return nil, fmt.Errorf("signup: %w", err)
	}
	return s.start(ctx, p)
}

func (s *Service) start(ctx context.Context, p *Payload) (*Payload, error) {
	if p == nil || p.Token == "" || p.User.ID == 0 {
		return nil, ErrNoPayload
	}
	if err := s.session.Login(ctx, p.User, p.Token); err != nil {
		return nil, err
	}
	return p, nil
}

// Logout ends the session locally. The API has no logout endpoint.
func (s *Service) Logout(ctx context.Context) error {
	return s.session.Logout(ctx)
}
