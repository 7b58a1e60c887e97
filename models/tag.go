package models

// Tag represents a deduplicated label shared between projects
type Tag struct {
	ID   int    `json:"id" db:"id" gorm:"primaryKey;autoIncrement"`
	Name string `json:"name" db:"name" gorm:"type:text;not null;uniqueIndex:idx_tag_name"`
}

// TagNames returns the names of the given tags in order.
func TagNames(tags []*Tag) []string {
	names := make([]string, 0, len(tags))
	for _, t := range tags {
		names = append(names, t.Name)
	}
	return names
}
