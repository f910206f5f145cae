// Package validation checks request payloads before they are sent. Failures
// are reported per field and never reach the network.
package validation

import (
	"errors"
	"fmt"
	"reflect"
	"sort"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/ovaphlow/pitchfork/todo-client-go/internal/auth"
	todo "github.com/ovaphlow/pitchfork/todo-client-go/internal/todo/entity"
	user "github.com/ovaphlow/pitchfork/todo-client-go/internal/user/entity"
)

// Errors maps a JSON field name to the first message reported for it.
type Errors map[string]string

func (e Errors) Error() string {
	fields := make([]string, 0, len(e))
	for f := range e {
		fields = append(fields, f)
	}
	sort.Strings(fields)
	parts := make([]string, 0, len(fields))
	for _, f := range fields {
		parts = append(parts, f+": "+e[f])
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// FieldErrors extracts the field map from err, if it carries one.
func FieldErrors(err error) (Errors, bool) {
	var fe Errors
	if errors.As(err, &fe) {
		return fe, true
	}
	return nil, false
}

const (
	msgPassword = "Password must be at least 8 characters"
	msgEmail    = "Invalid email address"
	msgPastDue  = "Date & time cannot be in the past"
)

// messages is keyed by "<json field>.<tag>"; bare tags are the fallback.
var messages = map[string]string{
	"name.min":                 "Name must be at least 3 characters",
	"password.min":             msgPassword,
	"current_password.min":     msgPassword,
	"new_password.min":         msgPassword,
	"confirm_password.min":     msgPassword,
	"confirm_password.eqfield": "Passwords don't match",
	"title.min":                "Title is required",
	"first_name.min":           "First name is required",
	"last_name.min":            "Last name is required",
	"status.oneof":             "Invalid status",
	"email":                    msgEmail,
	"duedate":                  msgPastDue,
}

// Validator runs the payload rules. The clock drives the due date rule.
type Validator struct {
	now func() time.Time
	v   *validator.Validate
}

// New builds a Validator. A nil clock means time.Now.
func New(now func() time.Time) *Validator {
	if now == nil {
		now = time.Now
	}
	vd := &Validator{now: now, v: validator.New(validator.WithRequiredStructEnabled())}
	vd.v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return f.Name
		}
		return name
	})
	err := vd.v.RegisterValidation("duedate", func(fl validator.FieldLevel) bool {
		return DueDateAllowed(fl.Field().String(), vd.now())
	})
	if err != nil {
		panic(fmt.Sprintf("register duedate validation: %v", err))
	}
	return vd
}

// Signup requires a name of 3+ characters, a valid email and an 8+ character password.
func (vd *Validator) Signup(req auth.SignupRequest) error { return vd.check(req) }

// Signin requires a valid email and an 8+ character password.
func (vd *Validator) Signin(req auth.SigninRequest) error { return vd.check(req) }

// CreateTodo requires a title; a due date, when given, must not be in the past.
func (vd *Validator) CreateTodo(req todo.CreateRequest) error { return vd.check(req) }

// UpdateTodo checks only the fields present in req.
func (vd *Validator) UpdateTodo(req todo.UpdateRequest) error { return vd.check(req) }

func (vd *Validator) UpdateProfile(req user.UpdateProfileRequest) error { return vd.check(req) }

func (vd *Validator) ChangePassword(req user.ChangePasswordRequest) error { return vd.check(req) }

func (vd *Validator) check(payload any) error {
	err := vd.v.Struct(payload)
	if err == nil {
		return nil
	}
	var ves validator.ValidationErrors
	if !errors.As(err, &ves) {
		return fmt.Errorf("validate: %w", err)
	}
	out := Errors{}
	for _, fe := range ves {
		field := fe.Field()
		if _, seen := out[field]; seen {
			continue
		}
		out[field] = message(field, fe.Tag())
	}
	return out
}

func message(field, tag string) string {
	if m, ok := messages[field+"."+tag]; ok {
		return m
	}
	if m, ok := messages[tag]; ok {
		return m
	}
	return "Invalid value"
}
