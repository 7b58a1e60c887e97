package models

import "time"

// ProjectCreate is the input for creating a project
type ProjectCreate struct {
	Name         string   `json:"name" validate:"required"`
	Description  string   `json:"description" validate:"required"`
	SupervisorID string   `json:"supervisorId"`
	Min          *int     `json:"min,omitempty" validate:"omitempty,gte=0"`
	Max          *int     `json:"max,omitempty" validate:"omitempty,gte=1"`
	State        State    `json:"state" validate:"required,projectstate"`
	Tags         []string `json:"tags" validate:"dive,required"`
}

// ProjectUpdate is a partial update. Nil fields are left untouched; a non-nil
// Tags or Users slice replaces the whole set, so an empty slice clears it.
type ProjectUpdate struct {
	Name        *string  `json:"name,omitempty" validate:"omitempty,min=1"`
	Description *string  `json:"description,omitempty" validate:"omitempty,min=1"`
	Min         *int     `json:"min,omitempty" validate:"omitempty,gte=0"`
	Max         *int     `json:"max,omitempty" validate:"omitempty,gte=1"`
	State       *State   `json:"state,omitempty" validate:"omitempty,projectstate"`
	Tags        []string `json:"tags,omitempty" validate:"omitempty,dive,required"`
	Users       []string `json:"users,omitempty"`
}

// IsEmpty reports whether the update carries no field at all.
func (u ProjectUpdate) IsEmpty() bool {
	return u.Name == nil && u.Description == nil && u.Min == nil && u.Max == nil &&
		u.State == nil && u.Tags == nil && u.Users == nil
}

// ProjectDetails is the read-side view of a project with its relations expanded
type ProjectDetails struct {
	ID          int           `json:"id"`
	Name        string        `json:"name"`
	Description string        `json:"description"`
	Supervisor  *UserDetails  `json:"supervisor"`
	State       State         `json:"state"`
	Created     time.Time     `json:"created"`
	Tags        []string      `json:"tags"`
	Users       []UserDetails `json:"users"`
	Min         *int          `json:"min,omitempty"`
	Max         *int          `json:"max,omitempty"`
}

// HasMember reports whether userID is listed in the project's users.
func (d ProjectDetails) HasMember(userID string) bool {
	for _, u := range d.Users {
		if u.ID == userID {
			return true
		}
	}
	return false
}
