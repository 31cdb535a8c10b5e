package media

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/recall-labs/immersive/internal/domains/knowledge"
)

type GormMediaRepo struct {
	db *gorm.DB
}

func NewGormMediaRepo(db *gorm.DB) *GormMediaRepo {
	return &GormMediaRepo{db: db}
}

// Create implements knowledge.MediaRepository.
func (g *GormMediaRepo) Create(ctx context.Context, entry knowledge.CreateMediaEntry) (*knowledge.MediaEntry, error) {
	me := &MediaEntity{}
	me.FromCreate(entry)
	if err := g.db.WithContext(ctx).Create(me).Error; err != nil {
		return nil, fmt.Errorf("create media entry: %w", err)
	}
	return me.ToDomain(), nil
}

// FindByLabel implements knowledge.MediaRepository.
func (g *GormMediaRepo) FindByLabel(ctx context.Context, label string) (*knowledge.MediaEntry, error) {
	var me MediaEntity
	err := g.db.WithContext(ctx).Where("label = ?", label).First(&me).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, knowledge.ErrUnknownLabel
	}
	if err != nil {
		return nil, fmt.Errorf("find media entry %q: %w", label, err)
	}
	return me.ToDomain(), nil
}

// List implements knowledge.MediaRepository.
func (g *GormMediaRepo) List(ctx context.Context) ([]knowledge.MediaEntry, error) {
	var entities []MediaEntity
	if err := g.db.WithContext(ctx).Order("created_at").Find(&entities).Error; err != nil {
		return nil, fmt.Errorf("list media entries: %w", err)
	}
	out := make([]knowledge.MediaEntry, 0, len(entities))
	for i := range entities {
		out = append(out, *entities[i].ToDomain())
	}
	return out, nil
}
