package models

// UserCreate is the input for creating a user from identity-provider claims
type UserCreate struct {
	ID         string `json:"id" validate:"required"`
	Name       string `json:"name" validate:"required"`
	Email      string `json:"email" validate:"required,email"`
	Supervisor bool   `json:"supervisor"`
}

// UserUpdate is a partial update of a user. Image is set by the upload flow.
type UserUpdate struct {
	Name       *string     `json:"name,omitempty" validate:"omitempty,min=1"`
	Email      *string     `json:"email,omitempty" validate:"omitempty,email"`
	Supervisor *bool       `json:"supervisor,omitempty"`
	Image      *FileUpload `json:"-"`
}

// FileUpload describes an uploaded file. Path is filled in once the content is stored.
type FileUpload struct {
	Name    string
	Content []byte
	Path    string
}

// UserDetails is the read-side view of a user
type UserDetails struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	Email      string `json:"email"`
	Supervisor bool   `json:"supervisor"`
	Image      string `json:"image"`
}

// Details projects a user into its read-side view.
func (u *User) Details() UserDetails {
	return UserDetails{
		ID:         u.ID,
		Name:       u.Name,
		Email:      u.Email,
		Supervisor: u.Supervisor,
		Image:      u.Image,
	}
}
