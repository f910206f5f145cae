package screen

import (
	"maps"
	"sync"

	"github.com/ovaphlow/pitchfork/todo-client-go/internal/apiclient"
	"github.com/ovaphlow/pitchfork/todo-client-go/internal/validation"
)

// FormState is what a screen shows around its form.
type FormState struct {
	// Fields holds per-field validation messages keyed by JSON name.
	Fields validation.Errors
	// Error is the message of the last failed request.
	Error string
	// Notice confirms the last successful action.
	Notice     string
	Submitting bool
}

// controller carries the state every screen shares. After Unmount all
// results are dropped.
type controller struct {
	mu        sync.Mutex
	form      FormState
	unmounted bool
}

// Form returns a copy of the current form state.
func (c *controller) Form() FormState {
	c.mu.Lock()
	defer c.mu.Unlock()
	f := c.form
	f.Fields = maps.Clone(c.form.Fields)
	return f
}

// Unmount detaches the controller from its screen.
func (c *controller) Unmount() {
	c.mu.Lock()
	c.unmounted = true
	c.mu.Unlock()
}

// apply runs fn under the lock unless the controller is unmounted. It
// reports whether fn ran.
func (c *controller) apply(fn func()) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.unmounted {
		return false
	}
	fn()
	return true
}

// check records the field errors of a failed validation. A nil err clears
// them.
func (c *controller) check(err error) error {
	c.apply(func() {
		c.form.Fields = nil
		if fe, ok := validation.FieldErrors(err); ok {
			c.form.Fields = fe
		}
	})
	return err
}

func (c *controller) begin() bool {
	return c.apply(func() {
		c.form.Fields = nil
		c.form.Error = ""
		c.form.Notice = ""
		c.form.Submitting = true
	})
}

// finish records the outcome of a request. It reports false when the
// result was dropped.
func (c *controller) finish(err error, notice string) bool {
	return c.apply(func() {
		c.form.Submitting = false
		if err != nil {
			c.form.Error = apiclient.Message(err)
			return
		}
		c.form.Notice = notice
	})
}
