package user

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/ovaphlow/pitchfork/todo-client-go/internal/session"
	"github.com/ovaphlow/pitchfork/todo-client-go/internal/user/entity"
)

// UserService wraps the account API and keeps the session's copy of the user
// in step with what the server returns.
type UserService struct {
	api     *API
	session *session.Store
	logger  *zap.SugaredLogger
}

func NewUserService(api *API, store *session.Store, logger *zap.SugaredLogger) *UserService {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &UserService{api: api, session: store, logger: logger}
}

// Profile fetches the current user and refreshes the session record.
func (s *UserService) Profile(ctx context.Context) (*entity.User, error) {
	u, err := s.api.GetProfile(ctx)
	if err != nil {
		return nil, fmt.Errorf("get profile: %w", err)
	}
	s.remember(ctx, u)
	return u, nil
}

// UpdateProfile applies req and refreshes the session record.
func (s *UserService) UpdateProfile(ctx context.Context, req entity.UpdateProfileRequest) (*entity.User, error) {
	u, err := s.api.UpdateProfile(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("update profile: %w", err)
	}
	s.remember(ctx, u)
	return u, nil
}

func (s *UserService) ChangePassword(ctx context.Context, req entity.ChangePasswordRequest) error {
	if err := s.api.ChangePassword(ctx, req); err != nil {
		return fmt.Errorf("change password: %w", err)
	}
	return nil
}

func (s *UserService) remember(ctx context.Context, u *entity.User) {
	if u == nil || u.ID == 0 {
		return
	}
	if err := s.session.UpdateUser(ctx, *u); err != nil {
		// the server already has the change; only the local copy is stale
		s.logger.Warnw("refresh session user failed", "err", err)
	}
}
