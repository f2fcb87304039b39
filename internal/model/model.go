package model

type User struct {
	ID       int    `json:"id"`
	Username string `json:"username"`
}

type Profile struct {
	ID          int     `json:"id"`
	UserProfile int     `json:"user_profile"`
	Img         *string `json:"img"`
}

type Category struct {
	ID   int    `json:"id"`
	Item string `json:"item"`
}

type Credentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type TokenPair struct {
	Refresh string `json:"refresh"`
	Access  string `json:"access"`
}

// Task is the read form returned by the API. The *Name, *Item and *Username
// fields are computed by the server.
type Task struct {
	ID                  int    `json:"id"`
	Task                string `json:"task"`
	Description         string `json:"description"`
	Criteria            string `json:"criteria"`
	Status              string `json:"status"`
	StatusName          string `json:"status_name"`
	Category            int    `json:"category"`
	CategoryItem        string `json:"category_item"`
	Estimate            int    `json:"estimate"`
	Responsible         int    `json:"responsible"`
	ResponsibleUsername string `json:"responsible_username"`
	Owner               int    `json:"owner"`
	OwnerUsername       string `json:"owner_username"`
	CreatedAt           string `json:"created_at"`
	UpdatedAt           string `json:"updated_at"`
}

// TaskDraft is the write form. ID 0 means the task has not been created yet.
type TaskDraft struct {
	ID          int    `json:"id"`
	Task        string `json:"task"`
	Description string `json:"description"`
	Criteria    string `json:"criteria"`
	Status      string `json:"status"`
	Category    int    `json:"category"`
	Estimate    int    `json:"estimate"`
	Responsible int    `json:"responsible"`
}

func (t Task) Draft() TaskDraft {
	return TaskDraft{
		ID:          t.ID,
		Task:        t.Task,
		Description: t.Description,
		Criteria:    t.Criteria,
		Status:      t.Status,
		Category:    t.Category,
		Estimate:    t.Estimate,
		Responsible: t.Responsible,
	}
}

// IsZero reports whether t is the empty default (no task selected).
func (t Task) IsZero() bool { return t == Task{} }

// IsZero reports whether d is the empty default (no form open).
func (d TaskDraft) IsZero() bool { return d == TaskDraft{} }

// IsNew reports whether saving d creates a task rather than updating one.
func (d TaskDraft) IsNew() bool { return d.ID == 0 }

// NewTaskDraft is the draft the board opens for "new task".
func NewTaskDraft(responsible int) TaskDraft {
	return TaskDraft{
		Status:      StatusNotStarted,
		Category:    1,
		Estimate:    1,
		Responsible: responsible,
	}
}

const (
	StatusNotStarted = "1"
	StatusInProgress = "2"
	StatusDone       = "3"
)

// StatusCodes lists the selectable status codes in display order.
var StatusCodes = []string{StatusNotStarted, StatusInProgress, StatusDone}

// StatusLabel is used when the server label is not available (e.g. in the edit form).
func StatusLabel(code string) string {
	switch code {
	case StatusNotStarted:
		return "Not started"
	case StatusInProgress:
		return "In progress"
	case StatusDone:
		return "Done"
	default:
		return code
	}
}
