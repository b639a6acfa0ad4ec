package service

import (
	"fmt"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/chepyr/go-project-tracker/shared/models"
	"github.com/google/uuid"
)

const (
	maxProjectName        = 100
	maxProjectDescription = 500
	maxTaskTitle          = 200
	maxTaskDescription    = 1000
	maxUserName           = 100
	maxTagName            = 50
)

var emailRegex = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)

func IsValidEmail(email string) bool {
	return emailRegex.MatchString(email)
}

func normalizeEmail(email string) (string, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if !IsValidEmail(email) {
		return "", BadRequest("Invalid email")
	}
	return email, nil
}

func checkName(name string, max int, field string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" || utf8.RuneCountInString(name) > max {
		return "", BadRequest(fmt.Sprintf("%s is required and must be <= %d characters", field, max))
	}
	return name, nil
}

func checkDescription(desc *string, max int) error {
	if desc != nil && utf8.RuneCountInString(*desc) > max {
		return BadRequest(fmt.Sprintf("Description must be <= %d characters", max))
	}
	return nil
}

func checkDates(start, end *time.Time) error {
	if start != nil && end != nil && end.Before(*start) {
		return BadRequest("End date must not be before start date")
	}
	return nil
}

func (in *TaskInput) normalize() error {
	var err error
	if in.Title, err = checkName(in.Title, maxTaskTitle, "Title"); err != nil {
		return err
	}
	if err := checkDescription(in.Description, maxTaskDescription); err != nil {
		return err
	}
	if in.Status == "" {
		in.Status = models.TaskStatusToDo
	}
	if !in.Status.Valid() {
		return BadRequest("Invalid task status")
	}
	if in.Priority == "" {
		in.Priority = models.TaskPriorityMedium
	}
	if !in.Priority.Valid() {
		return BadRequest("Invalid task priority")
	}
	in.Assignments = dedupeIDs(in.Assignments)
	if in.Tags, err = normalizeTags(in.Tags); err != nil {
		return err
	}
	return nil
}

func (c *TaskChanges) normalize() error {
	if c.Title != nil {
		title, err := checkName(*c.Title, maxTaskTitle, "Title")
		if err != nil {
			return err
		}
		c.Title = &title
	}
	if err := checkDescription(c.Description, maxTaskDescription); err != nil {
		return err
	}
	if c.Status != nil && !c.Status.Valid() {
		return BadRequest("Invalid task status")
	}
	if c.Priority != nil && !c.Priority.Valid() {
		return BadRequest("Invalid task priority")
	}
	if c.Assignments != nil {
		ids := dedupeIDs(*c.Assignments)
		c.Assignments = &ids
	}
	if c.Tags != nil {
		tags, err := normalizeTags(*c.Tags)
		if err != nil {
			return err
		}
		c.Tags = &tags
	}
	return nil
}

func (in *CreateProjectInput) normalize() error {
	var err error
	if in.Name, err = checkName(in.Name, maxProjectName, "Name"); err != nil {
		return err
	}
	if err := checkDescription(in.Description, maxProjectDescription); err != nil {
		return err
	}
	if in.Status == "" {
		in.Status = models.ProjectStatusActive
	}
	if !in.Status.Valid() {
		return BadRequest("Invalid project status")
	}
	if err := checkDates(in.StartDate, in.EndDate); err != nil {
		return err
	}
	for i := range in.Tasks {
		if err := in.Tasks[i].normalize(); err != nil {
			return err
		}
	}
	return nil
}

func (in *UpdateProjectInput) normalize() error {
	if in.Name != nil {
		name, err := checkName(*in.Name, maxProjectName, "Name")
		if err != nil {
			return err
		}
		in.Name = &name
	}
	if err := checkDescription(in.Description, maxProjectDescription); err != nil {
		return err
	}
	if in.Status != nil && !in.Status.Valid() {
		return BadRequest("Invalid project status")
	}
	if in.Tasks == nil {
		return nil
	}
	for i := range in.Tasks.Create {
		if err := in.Tasks.Create[i].normalize(); err != nil {
			return err
		}
	}
	for i := range in.Tasks.Update {
		if in.Tasks.Update[i].ID == uuid.Nil {
			return BadRequest("Task id is required")
		}
		if err := in.Tasks.Update[i].normalize(); err != nil {
			return err
		}
	}
	in.Tasks.Delete = dedupeIDs(in.Tasks.Delete)
	return nil
}

func dedupeIDs(ids []uuid.UUID) []uuid.UUID {
	seen := make(map[uuid.UUID]struct{}, len(ids))
	out := make([]uuid.UUID, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

func normalizeTags(refs []string) ([]string, error) {
	seen := make(map[string]struct{}, len(refs))
	out := make([]string, 0, len(refs))
	for _, ref := range refs {
		ref = strings.TrimSpace(ref)
		if ref == "" || utf8.RuneCountInString(ref) > maxTagName {
			return nil, BadRequest(fmt.Sprintf("Tag must be 1-%d characters", maxTagName))
		}
		if _, ok := seen[ref]; ok {
			continue
		}
		seen[ref] = struct{}{}
		out = append(out, ref)
	}
	return out, nil
}
