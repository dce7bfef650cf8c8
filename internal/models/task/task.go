package task

import (
	"fmt"
	"time"
	"unicode/utf8"
)

type Priority string
type Status string
type Category string

const PriorityLow Priority = "Low"
const PriorityMedium Priority = "Medium"
const PriorityHigh Priority = "High"

const StatusPending Status = "Pending"
const StatusInProgress Status = "In Progress"
const StatusCompleted Status = "Completed"

const CategoryWork Category = "Work"
const CategoryPersonal Category = "Personal"
const CategoryStudy Category = "Study"

const TitleMaxLen = 100
const DescriptionMaxLen = 500

type Task struct {
	ID          int64      `json:"id" db:"id"`
	Title       string     `json:"title" db:"title"`
	Description string     `json:"description" db:"description"`
	DueDate     *time.Time `json:"dueDate" db:"due_date"`
	Priority    Priority   `json:"priority" db:"priority"`
	Status      Status     `json:"status" db:"status"`
	Category    Category   `json:"category" db:"category"`
	Version     int        `json:"-" db:"version"`
}

type Violation struct {
	Field  string `json:"field"`
	Reason string `json:"reason"`
}

// Validate проверяет ограничения полей и возвращает список нарушений.
// Пустой список означает валидную задачу.
func (t *Task) Validate() []Violation {
	violations := []Violation{}

	if t.Title == "" {
		violations = append(violations, Violation{Field: "title", Reason: "поле обязательно"})
	} else if utf8.RuneCountInString(t.Title) > TitleMaxLen {
		violations = append(violations, Violation{
			Field:  "title",
			Reason: fmt.Sprintf("длина не может превышать %d символов", TitleMaxLen),
		})
	}

	if utf8.RuneCountInString(t.Description) > DescriptionMaxLen {
		violations = append(violations, Violation{
			Field:  "description",
			Reason: fmt.Sprintf("длина не может превышать %d символов", DescriptionMaxLen),
		})
	}

	switch t.Priority {
	case PriorityLow, PriorityMedium, PriorityHigh:
	case "":
		violations = append(violations, Violation{Field: "priority", Reason: "поле обязательно"})
	default:
		violations = append(violations, Violation{Field: "priority", Reason: "допустимы только Low, Medium или High"})
	}

	switch t.Status {
	case StatusPending, StatusInProgress, StatusCompleted:
	case "":
		violations = append(violations, Violation{Field: "status", Reason: "поле обязательно"})
	default:
		violations = append(violations, Violation{Field: "status", Reason: "допустимы только Pending, In Progress или Completed"})
	}

	switch t.Category {
	case CategoryWork, CategoryPersonal, CategoryStudy:
	case "":
		violations = append(violations, Violation{Field: "category", Reason: "поле обязательно"})
	default:
		violations = append(violations, Violation{Field: "category", Reason: "допустимы только Work, Personal или Study"})
	}

	return violations
}

// Clone возвращает независимую копию задачи.
func (t *Task) Clone() *Task {
	copied := *t
	if t.DueDate != nil {
		due := *t.DueDate
		copied.DueDate = &due
	}
	return &copied
}
