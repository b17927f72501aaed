package domain

import "github.com/google/uuid"

// TaskScope identifies one task position sequence: a group of a project,
// or the project's ungrouped pseudo-group when GroupID is nil.
type TaskScope struct {
	ProjectID uuid.UUID
	GroupID   *uuid.UUID
}

// UngroupedScope returns the ungrouped pseudo-group of a project
func UngroupedScope(projectID uuid.UUID) TaskScope {
	return TaskScope{ProjectID: projectID}
}

// GroupScope returns the scope of a real group
func GroupScope(projectID, groupID uuid.UUID) TaskScope {
	id := groupID
	return TaskScope{ProjectID: projectID, GroupID: &id}
}

// ScopeOf returns the scope for an optional group id
func ScopeOf(projectID uuid.UUID, groupID *uuid.UUID) TaskScope {
	if groupID == nil {
		return UngroupedScope(projectID)
	}
	return GroupScope(projectID, *groupID)
}

// IsUngrouped reports whether s is the ungrouped pseudo-group
func (s TaskScope) IsUngrouped() bool {
	return s.GroupID == nil
}

// Equal compares two scopes by value
func (s TaskScope) Equal(other TaskScope) bool {
	if s.ProjectID != other.ProjectID {
		return false
	}
	if s.GroupID == nil || other.GroupID == nil {
		return s.GroupID == nil && other.GroupID == nil
	}
	return *s.GroupID == *other.GroupID
}

// Key returns the lock key for this position sequence
func (s TaskScope) Key() string {
	if s.GroupID == nil {
		return "tasks:" + s.ProjectID.String() + ":ungrouped"
	}
	return "tasks:" + s.ProjectID.String() + ":" + s.GroupID.String()
}

// GroupIDString returns the group id, or "" for the ungrouped pseudo-group
func (s TaskScope) GroupIDString() string {
	if s.GroupID == nil {
		return ""
	}
	return s.GroupID.String()
}

// ColumnScopeKey is the lock key for a project's column sequence
func ColumnScopeKey(projectID uuid.UUID) string {
	return "columns:" + projectID.String()
}

// GroupScopeKey is the lock key for a project's group sequence
func GroupScopeKey(projectID uuid.UUID) string {
	return "groups:" + projectID.String()
}
