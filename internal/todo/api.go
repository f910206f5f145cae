package todo

import (
	"context"
	"net/http"
	"strconv"

	"github.com/ovaphlow/pitchfork/todo-client-go/internal/apiclient"
	"github.com/ovaphlow/pitchfork/todo-client-go/internal/todo/entity"
)

// API is the client for the /todo endpoints. Every call is authenticated.
type API struct {
	client *apiclient.Client
}

func NewAPI(c *apiclient.Client) *API {
	return &API{client: c}
}

// List returns the user's todos. GET /todo/list
func (a *API) List(ctx context.Context) ([]entity.Todo, error) {
	out, err := apiclient.Do[[]entity.Todo](ctx, a.client, http.MethodGet, "/todo/list", nil, apiclient.WithAuth)
	if err != nil || out == nil {
		return nil, err
	}
	return *out, nil
}

// Create adds a todo. POST /todo
func (a *API) Create(ctx context.Context, req entity.CreateRequest) (*entity.Todo, error) {
	return apiclient.Do[entity.Todo](ctx, a.client, http.MethodPost, "/todo", req, apiclient.WithAuth)
}

// Update applies the non-nil fields of req. PATCH /todo/{id}
func (a *API) Update(ctx context.Context, id int64, req entity.UpdateRequest) (*entity.Todo, error) {
	return apiclient.Do[entity.Todo](ctx, a.client, http.MethodPatch, todoPath(id), req, apiclient.WithAuth)
}

// Delete removes a todo. A success response carries no data. DELETE /todo/{id}
func (a *API) Delete(ctx context.Context, id int64) error {
	_, err := a.client.Call(ctx, http.MethodDelete, todoPath(id), nil, apiclient.WithAuth)
	return err
}

func todoPath(id int64) string {
	return "/todo/" + strconv.FormatInt(id, 10)
}
