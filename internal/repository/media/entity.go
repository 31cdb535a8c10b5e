package media

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/recall-labs/immersive/internal/domains/knowledge"
)

// MediaEntity represents the database entity for a knowledge-base media entry.
type MediaEntity struct {
	ID             uuid.UUID `gorm:"primaryKey;type:char(36);not null"`
	Label          string    `gorm:"column:label;type:varchar(255);not null;uniqueIndex"`
	Title          string    `gorm:"column:title;type:varchar(255)"`
	TitleImagePath string    `gorm:"column:title_image_path;type:varchar(512)"`
	TranscriptPath string    `gorm:"column:transcript_path;type:varchar(512);not null"`
	VideoPath      string    `gorm:"column:video_path;type:varchar(512)"`
	CreatedAt      time.Time `gorm:"autoCreateTime(3)"`
}

func (MediaEntity) TableName() string {
	return "media_entries"
}

func (m *MediaEntity) BeforeCreate(tx *gorm.DB) error {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	return nil
}

// ToDomain converts MediaEntity to the domain MediaEntry.
func (m *MediaEntity) ToDomain() *knowledge.MediaEntry {
	return &knowledge.MediaEntry{
		ID:             m.ID,
		Label:          m.Label,
		Title:          m.Title,
		TitleImagePath: m.TitleImagePath,
		TranscriptPath: m.TranscriptPath,
		VideoPath:      m.VideoPath,
		CreatedAt:      m.CreatedAt,
	}
}

// FromCreate fills the entity from a create payload.
func (m *MediaEntity) FromCreate(c knowledge.CreateMediaEntry) {
	m.Label = c.Label
	m.Title = c.Title
	m.TitleImagePath = c.TitleImagePath
	m.TranscriptPath = c.TranscriptPath
	m.VideoPath = c.VideoPath
}
