package entity

import "time"

type Status string

const (
	StatusPending    Status = "pending"
	StatusInProgress Status = "inprogress"
	StatusCompleted  Status = "completed"
	StatusCancelled  Status = "cancelled"
)

// Statuses lists every status in display order.
var Statuses = []Status{StatusPending, StatusInProgress, StatusCompleted, StatusCancelled}

// Todo is a task owned by the session's user.
type Todo struct {
	ID          int64   `json:"id"`
	Title       string  `json:"title"`
	Description *string `json:"description"`
	Status      Status  `json:"status"`
	DueDate     *string `json:"due_date"`
	UserID      int64   `json:"user_id"`
	CreatedAt   string  `json:"created_at"`
	UpdatedAt   string  `json:"updated_at"`
	CreatedBy   int64   `json:"created_by"`
	UpdatedBy   int64   `json:"updated_by"`
}

// Due returns the parsed due date, if the todo has one.
func (t Todo) Due() (time.Time, bool) {
	if t.DueDate == nil || *t.DueDate == "" {
		return time.Time{}, false
	}
	d, err := time.Parse(time.RFC3339Nano, *t.DueDate)
	if err != nil {
		return time.Time{}, false
	}
	return d, true
}

// CreateRequest is the body of POST /todo.
type CreateRequest struct {
	Title       string  `json:"title" validate:"min=1"`
	Description *string `json:"description,omitempty"`
	DueDate     *string `json:"due_date,omitempty" validate:"omitempty,duedate"`
}

// UpdateRequest is the body of PATCH /todo/{id}. Nil fields are left
// untouched by the server.
type UpdateRequest struct {
	Title       *string `json:"title,omitempty"`
	Description *string `json:"description,omitempty"`
	Status      *Status `json:"status,omitempty" validate:"omitempty,oneof=pending inprogress completed cancelled"`
	DueDate     *string `json:"due_date,omitempty" validate:"omitempty,duedate"`
}
