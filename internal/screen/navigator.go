// Package screen holds the controllers behind each screen of the client.
// They validate input, call the domain services and keep the form state a
// front end renders. None of them draw anything.
package screen

// Name identifies a screen the Navigator can move to.
type Name string

const (
	LoginScreen          Name = "login"
	SignupScreen         Name = "signup"
	TasksScreen          Name = "tasks"
	ProfileScreen        Name = "profile"
	ChangePasswordScreen Name = "change-password"
)

// Protected reports whether n requires a session.
func (n Name) Protected() bool {
	switch n {
	case LoginScreen, SignupScreen:
		return false
	default:
		return true
	}
}

type Navigator interface {
	Navigate(Name)
}

// NavigatorFunc adapts a function to Navigator.
type NavigatorFunc func(Name)

func (f NavigatorFunc) Navigate(n Name) { f(n) }
