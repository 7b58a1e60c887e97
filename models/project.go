package models

import "time"

// Project represents a thesis project posted by a supervisor
type Project struct {
	ID           int       `json:"id" db:"id" gorm:"primaryKey;autoIncrement"`
	Name         string    `json:"name" db:"name" gorm:"type:text;not null"`
	Description  string    `json:"description" db:"description" gorm:"type:text;not null"`
	Created      time.Time `json:"created" db:"created" gorm:"not null"`
	SupervisorID string    `json:"supervisorId" db:"supervisor_id" gorm:"type:text;not null;index:idx_project_supervisor_id"`
	Min          *int      `json:"min,omitempty" db:"min" gorm:"type:integer"`
	Max          *int      `json:"max,omitempty" db:"max" gorm:"type:integer"`
	State        State     `json:"state" db:"state" gorm:"type:text;not null;default:Open;index:idx_project_state"`

	Tags  []*Tag  `json:"tags,omitempty" gorm:"many2many:project_tags;"`
	Users []*User `json:"users,omitempty" gorm:"many2many:project_users;"`
}

// HasMember reports whether userID is in the project's membership set.
func (p *Project) HasMember(userID string) bool {
	for _, u := range p.Users {
		if u.ID == userID {
			return true
		}
	}
	return false
}

// IsFull reports whether the project has reached its maximum group size.
// A project without a maximum is never full.
func (p *Project) IsFull() bool {
	return p.Max != nil && len(p.Users) >= *p.Max
}

// MemberIDs returns the ids of the joined users.
func (p *Project) MemberIDs() []string {
	ids := make([]string, 0, len(p.Users))
	for _, u := range p.Users {
		ids = append(ids, u.ID)
	}
	return ids
}
