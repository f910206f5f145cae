package screen

import (
	"context"

	"github.com/ovaphlow/pitchfork/todo-client-go/internal/apiclient"
	"github.com/ovaphlow/pitchfork/todo-client-go/internal/user"
	"github.com/ovaphlow/pitchfork/todo-client-go/internal/user/entity"
	"github.com/ovaphlow/pitchfork/todo-client-go/internal/validation"
)

type Profile struct {
	controller
	users    *user.UserService
	validate *validation.Validator
	user     *entity.User
}

func NewProfile(users *user.UserService, v *validation.Validator) *Profile {
	return &Profile{users: users, validate: v}
}

func (c *Profile) Load(ctx context.Context) error {
	u, err := c.users.Profile(ctx)
	c.apply(func() {
		if err != nil {
			c.form.Error = apiclient.Message(err)
			return
		}
		c.user = u
	})
	return err
}

// User returns the last loaded or saved account, nil before Load.
func (c *Profile) User() *entity.User {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.user == nil {
		return nil
	}
	u := *c.user
	return &u
}

func (c *Profile) Save(ctx context.Context, req entity.UpdateProfileRequest) error {
	if err := c.check(c.validate.UpdateProfile(req)); err != nil {
		return err
	}
	if !c.begin() {
		return nil
	}
	u, err := c.users.UpdateProfile(ctx, req)
	if c.finish(err, "Profile updated!") && err == nil && u != nil {
		c.apply(func() { c.user = u })
	}
	return err
}

type ChangePassword struct {
	controller
	users    *user.UserService
	validate *validation.Validator
}

func NewChangePassword(users *user.UserService, v *validation.Validator) *ChangePassword {
	return &ChangePassword{users: users, validate: v}
}

// Submit changes the password. The session stays signed in.
func (c *ChangePassword) Submit(ctx context.Context, req entity.ChangePasswordRequest) error {
	if err := c.check(c.validate.ChangePassword(req)); err != nil {
		return err
	}
	if !c.begin() {
		return nil
	}
	err := c.users.ChangePassword(ctx, req)
	c.finish(err, "Password updated!")
	return err
}
