package models

// Status is the outcome of a repository write. The zero value is StatusUnknown,
// which is what every write returns alongside a non-nil error.
type Status int

const (
	StatusUnknown Status = iota
	StatusCreated
	StatusUpdated
	StatusDeleted
	StatusNotFound
	StatusBadRequest
	StatusConflict
)

func (s Status) String() string {
	switch s {
	case StatusCreated:
		return "Created"
	case StatusUpdated:
		return "Updated"
	case StatusDeleted:
		return "Deleted"
	case StatusNotFound:
		return "NotFound"
	case StatusBadRequest:
		return "BadRequest"
	case StatusConflict:
		return "Conflict"
	default:
		return "Unknown"
	}
}
