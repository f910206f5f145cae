package todo

import (
	"context"
	"fmt"
	"sync"

	"github.com/ovaphlow/pitchfork/todo-client-go/internal/todo/entity"
)

// Cache holds the last fetched todo list. Mutations go straight to the API
// and drop the cached list; the next List fetches it again.
type Cache struct {
	api *API

	mu    sync.Mutex
	items []entity.Todo
	valid bool
	// gen is bumped on every invalidation so a fetch that started before a
	// mutation does not repopulate the cache with stale data.
	gen uint64
}

func NewCache(api *API) *Cache {
	return &Cache{api: api}
}

// List returns the cached list, fetching it if needed.
func (c *Cache) List(ctx context.Context) ([]entity.Todo, error) {
	c.mu.Lock()
	if c.valid {
		items := append([]entity.Todo(nil), c.items...)
		c.mu.Unlock()
		return items, nil
	}
	gen := c.gen
	c.mu.Unlock()

	items, err := c.api.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list todos: %w", err)
	}

	c.mu.Lock()
	if gen == c.gen {
		c.items = append([]entity.Todo(nil), items...)
		c.valid = true
	}
	c.mu.Unlock()
	return items, nil
}

// Refresh drops the cached list and fetches it again.
func (c *Cache) Refresh(ctx context.Context) ([]entity.Todo, error) {
	c.Invalidate()
	return c.List(ctx)
}

// Invalidate drops the cached list.
func (c *Cache) Invalidate() {
	c.mu.Lock()
	c.items = nil
	c.valid = false
	c.gen++
	c.mu.Unlock()
}

func (c *Cache) Create(ctx context.Context, req entity.CreateRequest) (*entity.Todo, error) {
	defer c.Invalidate()
	t, err := c.api.Create(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("create todo: %w", err)
	}
	return t, nil
}

func (c *Cache) Update(ctx context.Context, id int64, req entity.UpdateRequest) (*entity.Todo, error) {
	defer c.Invalidate()
	t, err := c.api.Update(ctx, id, req)
	if err != nil {
		return nil, fmt.Errorf("update todo %d: %w", id, err)
	}
	return t, nil
}

func (c *Cache) Delete(ctx context.Context, id int64) error {
	defer c.Invalidate()
	if err := c.api.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete todo %d: %w", id, err)
	}
	return nil
}
