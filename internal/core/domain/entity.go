package domain

import "time"

// EntityStatus is the lifecycle flag of an entity. Deleting through the API
// removes the record; "deleted" is a user-selectable soft state.
type EntityStatus string

const (
	StatusActive   EntityStatus = "active"
	StatusArchived EntityStatus = "archived"
	StatusDeleted  EntityStatus = "deleted"
)

func (s EntityStatus) Valid() bool {
	switch s {
	case StatusActive, StatusArchived, StatusDeleted:
		return true
	}
	return false
}

type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
)

func (p Priority) Valid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh:
		return true
	}
	return false
}

// Entity is a titled record owned by exactly one user.
type Entity struct {
	ID          string       `json:"id"          bson:"_id"`
	Title       string       `json:"title"       bson:"title"`
	Description *string      `json:"description" bson:"description,omitempty"`
	Category    string       `json:"category"    bson:"category"`
	Status      EntityStatus `json:"status"      bson:"status"`
	Priority    Priority     `json:"priority"    bson:"priority"`
	UserID      string       `json:"userId"      bson:"user_id"`
	CreatedAt   time.Time    `json:"createdAt"   bson:"created_at"`
	UpdatedAt   time.Time    `json:"updatedAt"   bson:"updated_at"`
}

// EntityFilter narrows a listing. Zero values mean "any".
// Search matches title or description, case-insensitively.
type EntityFilter struct {
	Category string
	Status   EntityStatus
	Priority Priority
	Search   string
}

// EntityPatch carries a partial update. Nil fields are left untouched;
// ClearDescription removes the description.
type EntityPatch struct {
	Title            *string
	Description      *string
	ClearDescription bool
	Category         *string
	Status           *EntityStatus
	Priority         *Priority
}

// Apply copies the set fields of p onto e.
func (p EntityPatch) Apply(e *Entity) {
	if p.Title != nil {
		e.Title = *p.Title
	}
	if p.ClearDescription {
		e.Description = nil
	} else if p.Description != nil {
		d := *p.Description
		e.Description = &d
	}
	if p.Category != nil {
		e.Category = *p.Category
	}
	if p.Status != nil {
		e.Status = *p.Status
	}
	if p.Priority != nil {
		e.Priority = *p.Priority
	}
}
