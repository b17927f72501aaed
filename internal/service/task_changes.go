package service

import (
	"time"

	"github.com/google/uuid"

	"task-board-api/internal/domain"
)

// taskChanges collects column updates and the mutation events they imply.
// Setting a field to its current value records nothing.
type taskChanges struct {
	task   *domain.Task
	actor  domain.Actor
	fields map[string]interface{}
	events []domain.MutationEvent

	// parent of a subtask that just entered completed
	completedParent *uuid.UUID
	// primary assignee that must leave the additional assignee set
	promoted *uuid.UUID
	assigned *uuid.UUID
}

func newTaskChanges(task *domain.Task, actor domain.Actor) *taskChanges {
	return &taskChanges{task: task, actor: actor, fields: make(map[string]interface{})}
}

func (c *taskChanges) empty() bool {
	return len(c.fields) == 0
}

func (c *taskChanges) emit(kind domain.EventKind, field domain.TaskField, oldValue, newValue string) {
	c.events = append(c.events, domain.NewMutationEvent(c.task, kind, field, oldValue, newValue, c.actor))
}

func (c *taskChanges) set(column string, value interface{}) {
	c.fields[column] = value
}

func (c *taskChanges) status(status domain.TaskStatus) {
	old := c.task.Status
	if old == status {
		return
	}
	c.task.Status = status
	c.set("status", status)
	c.emit(domain.EventStatusChanged, domain.FieldStatus, string(old), string(status))

	if status == domain.TaskStatusCompleted && c.task.ParentTaskID != nil {
		parent := *c.task.ParentTaskID
		c.completedParent = &parent
	}
}

func (c *taskChanges) priority(priority domain.TaskPriority) {
	old := c.task.Priority
	if old == priority {
		return
	}
	c.task.Priority = priority
	c.set("priority", priority)
	c.emit(domain.EventPriorityChanged, domain.FieldPriority, string(old), string(priority))
}

func (c *taskChanges) progress(progress int) {
	progress = domain.ClampProgress(progress)
	old := c.task.Progress
	if old == progress {
		return
	}
	c.task.Progress = progress
	c.set("progress", progress)
	c.emit(domain.EventProgressChanged, domain.FieldProgress, itoa(old), itoa(progress))
}

// assignee sets or clears the primary assignee. Unassignment emits task_assigned with an empty new value.
func (c *taskChanges) assignee(userID *uuid.UUID) {
	old := c.task.AssigneeID
	if sameID(old, userID) {
		return
	}
	c.task.AssigneeID = copyID(userID)
	c.set("assignee_id", c.task.AssigneeID)
	c.emit(domain.EventTaskAssigned, domain.FieldAssignee, idString(old), idString(userID))

	if userID != nil {
		c.assigned = copyID(userID)
		for _, extra := range c.task.AdditionalAssigneeIDs {
			if extra == *userID {
				c.promoted = copyID(userID)
				c.task.AdditionalAssigneeIDs = domain.NormalizeAssignees(c.task.AdditionalAssigneeIDs, userID)
				break
			}
		}
	}
}

func (c *taskChanges) dueDate(due *time.Time) {
	old := c.task.DueDate
	if sameTime(old, due) {
		return
	}
	var next *time.Time
	if due != nil {
		u := due.UTC()
		next = &u
	}
	c.task.DueDate = next
	c.set("due_date", next)
	c.emit(domain.EventDueDateChanged, domain.FieldDueDate, timeString(old), timeString(next))
}

func (c *taskChanges) title(title string) {
	if c.task.Title == title {
		return
	}
	c.task.Title = title
	c.set("title", title)
}

func (c *taskChanges) description(description string) {
	if c.task.Description == description {
		return
	}
	c.task.Description = description
	c.set("description", description)
}

func (c *taskChanges) tags(tags []string) {
	before := string(c.task.Tags)
	c.task.SetTags(tags)
	if string(c.task.Tags) == before {
		return
	}
	c.set("tags", c.task.Tags)
}

func sameID(a, b *uuid.UUID) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

func copyID(id *uuid.UUID) *uuid.UUID {
	if id == nil {
		return nil
	}
	v := *id
	return &v
}

func idString(id *uuid.UUID) string {
	if id == nil {
		return ""
	}
	return id.String()
}

func sameTime(a, b *time.Time) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return a.Equal(*b)
}

func timeString(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}
