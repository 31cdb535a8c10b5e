package knowledge

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/go-redis/redis"

	"github.com/recall-labs/immersive/pkg/Logger"
)

// ErrUnknownLabel is returned when a label has no media entry.
var ErrUnknownLabel = errors.New("unknown media label")

const indexCacheTTL = time.Hour

// Service is the knowledge-base gateway: label lookup, selection metadata and
// indexed-content query. Indexes are built lazily per label and cached.
type Service interface {
	List(ctx context.Context) ([]MediaEntry, error)
	Get(ctx context.Context, label string) (*MediaEntry, error)
	Register(ctx context.Context, entry CreateMediaEntry) (*MediaEntry, error)
	// Query searches the label's indexed transcript and always returns a
	// locatable snippet; a stand-in interval when nothing matched.
	Query(ctx context.Context, label, query string) (*Snippet, error)
}

type service struct {
	repo   MediaRepository
	rc     *redis.Client
	logger *Logger.Logger

	mu      sync.Mutex
	indexes map[string]*Index
}

func New(repo MediaRepository, rc *redis.Client, logger *Logger.Logger) Service {
	return &service{
		repo:    repo,
		rc:      rc,
		logger:  logger,
		indexes: make(map[string]*Index),
	}
}

// List implements Service.
func (s *service) List(ctx context.Context) ([]MediaEntry, error) {
	return s.repo.List(ctx)
}

// Get implements Service.
func (s *service) Get(ctx context.Context, label string) (*MediaEntry, error) {
	return s.repo.FindByLabel(ctx, label)
}

// Register implements Service.
func (s *service) Register(ctx context.Context, entry CreateMediaEntry) (*MediaEntry, error) {
	created, err := s.repo.Create(ctx, entry)
	if err != nil {
		return nil, err
	}
	// A re-ingested label invalidates any cached index.
	s.mu.Lock()
	delete(s.indexes, entry.Label)
	s.mu.Unlock()
	if s.rc != nil {
		s.rc.Del(indexCacheKey(entry.Label))
	}
	return created, nil
}

// Query implements Service.
func (s *service) Query(ctx context.Context, label, query string) (*Snippet, error) {
	idx, err := s.ensureIndex(ctx, label)
	if err != nil {
		if errors.Is(err, ErrUnknownLabel) {
			return nil, err
		}
		s.logger.Warnf("index for %q unavailable, using stand-in: %v", label, err)
		snippet := standInSnippet()
		return &snippet, nil
	}

	if snippet, ok := idx.Search(query); ok {
		return &snippet, nil
	}
	snippet := standInSnippet()
	return &snippet, nil
}

func indexCacheKey(label string) string {
	return fmt.Sprintf("kb:index:%s", label)
}

// ensureIndex returns the label's index, building it from the transcript on
// first use. Built indexes are kept in memory and shared through redis so
// each label is only chunked once across processes.
func (s *service) ensureIndex(ctx context.Context, label string) (*Index, error) {
	s.mu.Lock()
	if idx, ok := s.indexes[label]; ok {
		s.mu.Unlock()
		return idx, nil
	}
	s.mu.Unlock()

	if idx := s.cachedIndex(label); idx != nil {
		s.storeIndex(label, idx)
		return idx, nil
	}

	entry, err := s.repo.FindByLabel(ctx, label)
	if err != nil {
		return nil, err
	}

	idx, err := BuildIndex(label, entry.TranscriptPath)
	if err != nil {
		return nil, fmt.Errorf("build index for %q: %w", label, err)
	}
	s.logger.Infof("built index for %q: %d chunks", label, len(idx.Chunks))

	s.storeIndex(label, idx)
	s.cacheIndex(label, idx)
	return idx, nil
}

func (s *service) storeIndex(label string, idx *Index) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.indexes[label] = idx
}

func (s *service) cachedIndex(label string) *Index {
	if s.rc == nil {
		return nil
	}
	raw, err := s.rc.Get(indexCacheKey(label)).Result()
	if err != nil {
		return nil
	}
	var idx Index
	if err := json.Unmarshal([]byte(raw), &idx); err != nil {
		s.logger.Warnf("dropping corrupt cached index for %q: %v", label, err)
		s.rc.Del(indexCacheKey(label))
		return nil
	}
	return &idx
}

func (s *service) cacheIndex(label string, idx *Index) {
	if s.rc == nil {
		return
	}
	data, err := json.Marshal(idx)
	if err != nil {
		return
	}
	if err := s.rc.Set(indexCacheKey(label), data, indexCacheTTL).Err(); err != nil {
		s.logger.Debugf("index cache write for %q failed: %v", label, err)
	}
}
