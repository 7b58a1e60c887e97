package database

import (
	"context"
	"errors"
	"fmt"

	"github.com/coproject/backend/models"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

type TagRepo struct {
	db     *gorm.DB
	logger zerolog.Logger
}

func NewTagRepo(db *gorm.DB) *TagRepo {
	return &TagRepo{
		db:     db,
		logger: log.With().Str("repo", "TagRepo").Logger(),
	}
}

// TagWithCount is a tag together with the number of projects referencing it
type TagWithCount struct {
	ID       int    `json:"id"`
	Name     string `json:"name"`
	Projects int64  `json:"projects"`
}

// FindAll returns every tag with the number of projects using it, ordered by name
func (r *TagRepo) FindAll(ctx context.Context) ([]TagWithCount, error) {
	var tags []TagWithCount
	err := r.db.WithContext(ctx).
		Model(&models.Tag{}).
		Select("tags.id, tags.name, COUNT(project_tags.project_id) AS projects").
		Joins("LEFT JOIN project_tags ON project_tags.tag_id = tags.id").
		Group("tags.id, tags.name").
		Order("tags.name").
		Scan(&tags).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list tags: %w", err)
	}
	return tags, nil
}

// Resolve returns the tag for every name, creating the missing ones.
//
// New tags are committed right away on the repo's own connection, outside any
// transaction of the caller. The name column is unique: when a concurrent
// resolver inserts the same name first, the insert fails and the winner is reused.
func (r *TagRepo) Resolve(ctx context.Context, names []string) ([]*models.Tag, error) {
	tags := make([]*models.Tag, 0, len(names))
	seen := make(map[string]bool, len(names))

	for _, name := range names {
		if seen[name] {
			continue
		}
		seen[name] = true

		tag, err := r.findByName(ctx, name)
		if err != nil {
			return nil, err
		}
		if tag == nil {
			tag, err = r.create(ctx, name)
			if err != nil {
				return nil, err
			}
		}
		tags = append(tags, tag)
	}

	return tags, nil
}

func (r *TagRepo) findByName(ctx context.Context, name string) (*models.Tag, error) {
	var tag models.Tag
	err := r.db.WithContext(ctx).Where("name = ?", name).Take(&tag).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find tag %q: %w", name, err)
	}
	return &tag, nil
}

func (r *TagRepo) create(ctx context.Context, name string) (*models.Tag, error) {
	tag := &models.Tag{Name: name}
	err := r.db.WithContext(ctx).Create(tag).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		r.logger.Debug().Str("tag", name).Msg("tag created concurrently, reusing existing row")
		existing, findErr := r.findByName(ctx, name)
		if findErr != nil {
			return nil, findErr
		}
		if existing == nil {
			return nil, fmt.Errorf("tag %q vanished after duplicate insert: %w", name, err)
		}
		return existing, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create tag %q: %w", name, err)
	}
	return tag, nil
}
