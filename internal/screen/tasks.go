package screen

import (
	"context"
	"strings"
	"time"

	"github.com/ovaphlow/pitchfork/todo-client-go/internal/apiclient"
	"github.com/ovaphlow/pitchfork/todo-client-go/internal/todo"
	"github.com/ovaphlow/pitchfork/todo-client-go/internal/todo/entity"
	"github.com/ovaphlow/pitchfork/todo-client-go/internal/validation"
)

// Category is a sidebar filter of the task list.
type Category string

const (
	AllTasks   Category = "all"
	Today      Category = "today"
	InProgress Category = "inprogress"
	Completed  Category = "completed"
)

// Row is a todo as the list shows it.
type Row struct {
	entity.Todo
	// Due is the display form of DueDate, empty when there is none.
	Due string
}

// Summary counts the loaded todos.
type Summary struct {
	Total      int
	Completed  int
	Today      int
	InProgress int
}

type Tasks struct {
	controller
	todos    *todo.Cache
	validate *validation.Validator
	now      func() time.Time

	items  []entity.Todo
	loaded bool
}

func NewTasks(cache *todo.Cache, v *validation.Validator, now func() time.Time) *Tasks {
	if now == nil {
		now = time.Now
	}
	return &Tasks{todos: cache, validate: v, now: now}
}

// Load fetches the list, from the cache when it is still valid.
func (c *Tasks) Load(ctx context.Context) error {
	items, err := c.todos.List(ctx)
	c.apply(func() {
		if err != nil {
			c.form.Error = apiclient.Message(err)
			return
		}
		c.form.Error = ""
		c.items = items
		c.loaded = true
	})
	return err
}

// Refresh drops the cached list and loads it again.
func (c *Tasks) Refresh(ctx context.Context) error {
	c.todos.Invalidate()
	return c.Load(ctx)
}

// Add creates a todo. The due date is accepted in any layout the
// validator takes and sent as UTC RFC 3339.
func (c *Tasks) Add(ctx context.Context, req entity.CreateRequest) error {
	if err := c.check(c.validate.CreateTodo(req)); err != nil {
		return err
	}
	due, err := normalizeDue(req.DueDate)
	if err != nil {
		return c.check(err)
	}
	req.DueDate = due
	if !c.begin() {
		return nil
	}
	_, err = c.todos.Create(ctx, req)
	return c.settle(ctx, err, "Task created!")
}

// Edit applies the set fields of req to todo id.
func (c *Tasks) Edit(ctx context.Context, id int64, req entity.UpdateRequest) error {
	if err := c.check(c.validate.UpdateTodo(req)); err != nil {
		return err
	}
	due, err := normalizeDue(req.DueDate)
	if err != nil {
		return c.check(err)
	}
	req.DueDate = due
	if !c.begin() {
		return nil
	}
	_, err = c.todos.Update(ctx, id, req)
	return c.settle(ctx, err, "Task updated!")
}

func (c *Tasks) SetStatus(ctx context.Context, id int64, status entity.Status) error {
	return c.Edit(ctx, id, entity.UpdateRequest{Status: &status})
}

// Toggle marks t completed, or back to pending when it already is.
func (c *Tasks) Toggle(ctx context.Context, t entity.Todo) error {
	next := entity.StatusCompleted
	if t.Status == entity.StatusCompleted {
		next = entity.StatusPending
	}
	return c.SetStatus(ctx, t.ID, next)
}

func (c *Tasks) Delete(ctx context.Context, id int64) error {
	if !c.begin() {
		return nil
	}
	err := c.todos.Delete(ctx, id)
	return c.settle(ctx, err, "Task deleted")
}

// settle records a mutation result and reloads the list after a success.
func (c *Tasks) settle(ctx context.Context, err error, notice string) error {
	if !c.finish(err, notice) || err != nil {
		return err
	}
	return c.Load(ctx)
}

// Loaded reports whether a list has been fetched at least once.
func (c *Tasks) Loaded() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.loaded
}

// Items returns the loaded todos in server order.
func (c *Tasks) Items() []entity.Todo {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]entity.Todo(nil), c.items...)
}

// Find returns the loaded todo with the given id.
func (c *Tasks) Find(id int64) (entity.Todo, bool) {
	for _, t := range c.Items() {
		if t.ID == id {
			return t, true
		}
	}
	return entity.Todo{}, false
}

// View returns the todos in cat whose title contains search, ignoring
// case.
func (c *Tasks) View(cat Category, search string) []Row {
	now := c.now()
	search = strings.ToLower(search)
	var rows []Row
	for _, t := range c.Items() {
		if !inCategory(t, cat, now) || !strings.Contains(strings.ToLower(t.Title), search) {
			continue
		}
		r := Row{Todo: t}
		if t.DueDate != nil {
			r.Due = validation.FormatDueDate(*t.DueDate, now)
		}
		rows = append(rows, r)
	}
	return rows
}

func (c *Tasks) Summary() Summary {
	now := c.now()
	var s Summary
	for _, t := range c.Items() {
		s.Total++
		if t.Status == entity.StatusCompleted {
			s.Completed++
		}
		if t.Status == entity.StatusInProgress {
			s.InProgress++
		}
		if inCategory(t, Today, now) {
			s.Today++
		}
	}
	return s
}

func inCategory(t entity.Todo, cat Category, now time.Time) bool {
	switch cat {
	case Today:
		d, ok := t.Due()
		if !ok {
			return false
		}
		d = d.In(now.Location())
		y1, m1, d1 := d.Date()
		y2, m2, d2 := now.Date()
		return y1 == y2 && m1 == m2 && d1 == d2
	case InProgress:
		return t.Status == entity.StatusInProgress
	case Completed:
		return t.Status == entity.StatusCompleted
	default:
		return true
	}
}

func normalizeDue(due *string) (*string, error) {
	if due == nil || *due == "" {
		return nil, nil
	}
	s, err := validation.NormalizeDueDate(*due)
	if err != nil {
		return nil, validation.Errors{"due_date": err.Error()}
	}
	return &s, nil
}
