package media

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/recall-labs/immersive/internal/domains/knowledge"
	"github.com/recall-labs/immersive/pkg/Logger"
)

type fakeKnowledge struct {
	entries     []knowledge.MediaEntry
	registered  []knowledge.CreateMediaEntry
	registerErr error
}

func (f *fakeKnowledge) List(ctx context.Context) ([]knowledge.MediaEntry, error) {
	return f.entries, nil
}

func (f *fakeKnowledge) Get(ctx context.Context, label string) (*knowledge.MediaEntry, error) {
	for i := range f.entries {
		if f.entries[i].Label == label {
			return &f.entries[i], nil
		}
	}
	return nil, knowledge.ErrUnknownLabel
}

func (f *fakeKnowledge) Register(ctx context.Context, entry knowledge.CreateMediaEntry) (*knowledge.MediaEntry, error) {
	if f.registerErr != nil {
		return nil, f.registerErr
	}
	f.registered = append(f.registered, entry)
	created := knowledge.MediaEntry{
		ID:             uuid.New(),
		Label:          entry.Label,
		Title:          entry.Title,
		TranscriptPath: entry.TranscriptPath,
	}
	f.entries = append(f.entries, created)
	return &created, nil
}

func (f *fakeKnowledge) Query(ctx context.Context, label, query string) (*knowledge.Snippet, error) {
	return nil, knowledge.ErrUnknownLabel
}

func setupRouter(kb *fakeKnowledge) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	NewHandler(kb, Logger.New(true)).RegisterRoutes(r)
	return r
}

func TestListMedia(t *testing.T) {
	kb := &fakeKnowledge{entries: []knowledge.MediaEntry{
		{ID: uuid.New(), Label: "concert", Title: "Concert Night"},
		{ID: uuid.New(), Label: "keynote", Title: "Product Keynote"},
	}}
	router := setupRouter(kb)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/media", nil)
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
	}
	var resp ListMediaResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(resp.Entries) != 2 {
		t.Errorf("got %d entries, want 2", len(resp.Entries))
	}
}

func TestGetMedia(t *testing.T) {
	kb := &fakeKnowledge{entries: []knowledge.MediaEntry{
		{ID: uuid.New(), Label: "concert", Title: "Concert Night"},
	}}
	router := setupRouter(kb)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/media/concert", nil)
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
	}
	var entry knowledge.MediaEntry
	if err := json.Unmarshal(w.Body.Bytes(), &entry); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if entry.Title != "Concert Night" {
		t.Errorf("title = %q, want %q", entry.Title, "Concert Night")
	}
}

func TestGetMediaUnknownLabel(t *testing.T) {
	router := setupRouter(&fakeKnowledge{})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/media/nope", nil)
	router.ServeHTTP(w, req)

	if w.Code != http.StatusNotFound {
		t.Errorf("status = %d, want %d", w.Code, http.StatusNotFound)
	}
}

func TestRegisterMedia(t *testing.T) {
	kb := &fakeKnowledge{}
	router := setupRouter(kb)

	body, _ := json.Marshal(knowledge.CreateMediaEntry{
		Label:          "concert",
		Title:          "Concert Night",
		TranscriptPath: "transcripts/concert.srt",
	})
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/media", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)

	if w.Code != http.StatusCreated {
		t.Fatalf("status = %d, want %d: %s", w.Code, http.StatusCreated, w.Body.String())
	}
	if len(kb.registered) != 1 || kb.registered[0].Label != "concert" {
		t.Errorf("registered = %+v, want one concert entry", kb.registered)
	}
}

func TestRegisterMediaMissingFields(t *testing.T) {
	kb := &fakeKnowledge{}
	router := setupRouter(kb)

	// label and transcriptPath are required
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/media", bytes.NewReader([]byte(`{"title":"Untitled"}`)))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want %d", w.Code, http.StatusBadRequest)
	}
	if len(kb.registered) != 0 {
		t.Errorf("registered = %+v, want none", kb.registered)
	}
}

func TestRegisterMediaServiceError(t *testing.T) {
	kb := &fakeKnowledge{registerErr: errors.New("db down")}
	router := setupRouter(kb)

	body, _ := json.Marshal(knowledge.CreateMediaEntry{
		Label:          "concert",
		TranscriptPath: "transcripts/concert.srt",
	})
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/media", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)

	if w.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want %d", w.Code, http.StatusInternalServerError)
	}
}
