package media

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/recall-labs/immersive/internal/domains/knowledge"
	"github.com/recall-labs/immersive/pkg/Logger"
)

// Handler handles media-catalogue HTTP requests
type Handler struct {
	knowledge knowledge.Service
	logger    *Logger.Logger
}

// NewHandler creates a new media handler
func NewHandler(kb knowledge.Service, logger *Logger.Logger) *Handler {
	return &Handler{
		knowledge: kb,
		logger:    logger,
	}
}

type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

type ListMediaResponse struct {
	Entries []knowledge.MediaEntry `json:"entries"`
}

type RegisterMediaResponse struct {
	Message string               `json:"message"`
	Entry   knowledge.MediaEntry `json:"entry"`
}

// RegisterRoutes registers the media catalogue endpoints.
func (h *Handler) RegisterRoutes(router gin.IRouter) {
	group := router.Group("/media")
	{
		group.GET("", h.ListMedia)
		group.GET("/:label", h.GetMedia)
		group.POST("", h.RegisterMedia)
	}
}

// ListMedia handles listing all registered media entries
// @Summary List media entries
// @Description List every media entry registered in the knowledge base
// @Tags Media
// @Produce json
// @Success 200 {object} ListMediaResponse "Media entries"
// @Failure 500 {object} ErrorResponse "Internal server error"
// @Router /media [get]
func (h *Handler) ListMedia(c *gin.Context) {
	entries, err := h.knowledge.List(c.Request.Context())
	if err != nil {
		h.logger.Errorf("list media error: %v", err)
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "Internal server error"})
		return
	}

	c.JSON(http.StatusOK, ListMediaResponse{Entries: entries})
}

// GetMedia handles getting one media entry by label
// @Summary Get media entry by label
// @Description Get a single media entry by its label
// @Tags Media
// @Produce json
// @Param label path string true "Media label"
// @Success 200 {object} knowledge.MediaEntry "Media entry"
// @Failure 404 {object} ErrorResponse "Media entry not found"
// @Failure 500 {object} ErrorResponse "Internal server error"
// @Router /media/{label} [get]
func (h *Handler) GetMedia(c *gin.Context) {
	label := c.Param("label")

	entry, err := h.knowledge.Get(c.Request.Context(), label)
	if err != nil {
		if errors.Is(err, knowledge.ErrUnknownLabel) {
			c.JSON(http.StatusNotFound, ErrorResponse{Error: "Media entry not found"})
			return
		}
		h.logger.Errorf("get media %q error: %v", label, err)
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "Internal server error"})
		return
	}

	c.JSON(http.StatusOK, entry)
}

// RegisterMedia handles registering a processed video in the knowledge base
// @Summary Register a media entry
// @Description Register a processed video's transcript and assets under a label
// @Tags Media
// @Accept json
// @Produce json
// @Param request body knowledge.CreateMediaEntry true "Media registration data"
// @Success 201 {object} RegisterMediaResponse "Media entry registered"
// @Failure 400 {object} ErrorResponse "Invalid request data"
// @Failure 500 {object} ErrorResponse "Internal server error"
// @Router /media [post]
func (h *Handler) RegisterMedia(c *gin.Context) {
	var req knowledge.CreateMediaEntry
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "Invalid request data",
			Details: err.Error(),
		})
		return
	}

	entry, err := h.knowledge.Register(c.Request.Context(), req)
	if err != nil {
		h.logger.Errorf("register media %q error: %v", req.Label, err)
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "Internal server error"})
		return
	}

	c.JSON(http.StatusCreated, RegisterMediaResponse{
		Message: "Media entry registered successfully",
		Entry:   *entry,
	})
}
