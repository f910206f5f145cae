package auth

import "github.com/ovaphlow/pitchfork/todo-client-go/internal/user/entity"

// SignupRequest is the body of POST /auth/signup.
type SignupRequest struct {
	Name     string `json:"name" validate:"min=3"`
	Email    string `json:"email" validate:"email"`
	Password string `json:"password" validate:"min=8"`
}

// SigninRequest is the body of POST /auth/signin.
type SigninRequest struct {
	Email    string `json:"email" validate:"email"`
	Password string `json:"password" validate:"min=8"`
}

// Payload is the data returned by signup and signin.
type Payload struct {
	User  entity.User `json:"user"`
	Token string      `json:"token"`
}
