package knowledge

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// MediaEntry is one ingested media event in the knowledge base: a label the
// assistant can select, plus the artifacts the ingest pipeline produced.
type MediaEntry struct {
	ID             uuid.UUID `json:"id"`
	Label          string    `json:"label"`
	Title          string    `json:"title"`
	TitleImagePath string    `json:"titleImagePath,omitempty"`
	TranscriptPath string    `json:"transcriptPath"`
	VideoPath      string    `json:"videoPath,omitempty"`
	CreatedAt      time.Time `json:"createdAt"`
}

// CreateMediaEntry is the write payload the ingest pipeline posts after
// processing a video.
type CreateMediaEntry struct {
	Label          string `json:"label" binding:"required"`
	Title          string `json:"title"`
	TitleImagePath string `json:"titleImagePath"`
	TranscriptPath string `json:"transcriptPath" binding:"required"`
	VideoPath      string `json:"videoPath"`
}

// MediaRepository persists media entries.
type MediaRepository interface {
	Create(ctx context.Context, entry CreateMediaEntry) (*MediaEntry, error)
	FindByLabel(ctx context.Context, label string) (*MediaEntry, error)
	List(ctx context.Context) ([]MediaEntry, error)
}
