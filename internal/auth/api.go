package auth

import (
	"context"
	"net/http"

	"github.com/ovaphlow/pitchfork/todo-client-go/internal/apiclient"
)

// API is the client for the unauthenticated /auth endpoints.
type API struct {
	client *apiclient.Client
}

func NewAPI(c *apiclient.Client) *API {
	return &API{client: c}
}

// Signup creates an account. POST /auth/signup
func (a *API) Signup(ctx context.Context, req SignupRequest) (*Payload, error) {
	return apiclient.Do[Payload](ctx, a.client, http.MethodPost, "/auth/signup", req, apiclient.NoAuth)
}

// Signin exchanges credentials for a token. POST /auth/signin
func (a *API) Signin(ctx context.Context, req SigninRequest) (*Payload, error) {
	return apiclient.Do[Payload](ctx, a.client, http.MethodPost, "/auth/signin", req, apiclient.NoAuth)
}
