package models

// DefaultImage is the profile picture every user starts with
const DefaultImage = "/images/noimage.jpeg"

// User represents a supervisor or a student. The ID is issued by the identity provider.
//
// The projects a user has joined are not stored on the user; they are read from
// the project_users join table owned by Project.Users.
type User struct {
	ID         string `json:"id" db:"id" gorm:"type:text;primaryKey"`
	Name       string `json:"name" db:"name" gorm:"type:text;not null"`
	Email      string `json:"email" db:"email" gorm:"type:text;not null"`
	Supervisor bool   `json:"supervisor" db:"supervisor" gorm:"not null;default:false"`
	Image      string `json:"image" db:"image" gorm:"type:text;not null;default:/images/noimage.jpeg"`
}
