package user

import (
	"context"
	"net/http"

	"github.com/ovaphlow/pitchfork/todo-client-go/internal/apiclient"
	"github.com/ovaphlow/pitchfork/todo-client-go/internal/user/entity"
)

// API is the client for the signed-in user's account endpoints.
type API struct {
	client *apiclient.Client
}

func NewAPI(c *apiclient.Client) *API {
	return &API{client: c}
}

// GetProfile fetches the signed-in user. GET /user
func (a *API) GetProfile(ctx context.Context) (*entity.User, error) {
	return apiclient.Do[entity.User](ctx, a.client, http.MethodGet, "/user", nil, apiclient.WithAuth)
}

// UpdateProfile changes profile fields. PATCH /user/profile
func (a *API) UpdateProfile(ctx context.Context, req entity.UpdateProfileRequest) (*entity.User, error) {
	return apiclient.Do[entity.User](ctx, a.client, http.MethodPatch, "/user/profile", req, apiclient.WithAuth)
}

// ChangePassword replaces the password. The response carries no data.
// POST /auth/change-password
func (a *API) ChangePassword(ctx context.Context, req entity.ChangePasswordRequest) error {
	_, err := a.client.Call(ctx, http.MethodPost, "/auth/change-password", req, apiclient.WithAuth)
	return err
}
