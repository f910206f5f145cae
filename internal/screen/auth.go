package screen

import (
	"context"

	"github.com/ovaphlow/pitchfork/todo-client-go/internal/auth"
	"github.com/ovaphlow/pitchfork/todo-client-go/internal/validation"
)

type Login struct {
	controller
	auth     *auth.Service
	validate *validation.Validator
	nav      Navigator
}

func NewLogin(svc *auth.Service, v *validation.Validator, nav Navigator) *Login {
	return &Login{auth: svc, validate: v, nav: nav}
}

// Submit signs in and moves to the task list. Invalid input is reported
// on the form without calling the API.
func (c *Login) Submit(ctx context.Context, req auth.SigninRequest) error {
	if err := c.check(c.validate.Signin(req)); err != nil {
		return err
	}
	if !c.begin() {
		return nil
	}
	_, err := c.auth.Signin(ctx, req)
	if !c.finish(err, "") || err != nil {
		return err
	}
	c.nav.Navigate(TasksScreen)
	return nil
}

type Signup struct {
	controller
	auth     *auth.Service
	validate *validation.Validator
	nav      Navigator
}

func NewSignup(svc *auth.Service, v *validation.Validator, nav Navigator) *Signup {
	return &Signup{auth: svc, validate: v, nav: nav}
}

// Submit creates the account, which also signs it in, and moves to the
// task list.
func (c *Signup) Submit(ctx context.Context, req auth.SignupRequest) error {
	if err := c.check(c.validate.Signup(req)); err != nil {
		return err
	}
	if !c.begin() {
		return nil
	}
	_, err := c.auth.Signup(ctx, req)
	if !c.finish(err, "") || err != nil {
		return err
	}
	c.nav.Navigate(TasksScreen)
	return nil
}
