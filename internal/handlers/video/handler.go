package video

import (
	"fmt"
	"io"
	"net/http"
	"os"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/recall-labs/immersive/pkg/Logger"
)

// chunkSize is the streaming granularity for ranged responses.
const chunkSize = 1024 * 1024 // 1MB chunks

// Handler serves the video asset with byte-range support so a scrubbing
// display client can seek without downloading the whole file.
type Handler struct {
	assetPath string
	logger    *Logger.Logger
}

func NewHandler(assetPath string, logger *Logger.Logger) *Handler {
	return &Handler{
		assetPath: assetPath,
		logger:    logger,
	}
}

// RegisterRoutes registers the video delivery route.
func (h *Handler) RegisterRoutes(router gin.IRouter) {
	router.GET("/video", h.StreamVideo)
}

// StreamVideo serves the asset
// @Summary Stream the video asset
// @Description Serves the configured video file, honoring byte-range requests with 206 partial content
// @Tags Video
// @Produce octet-stream
// @Param Range header string false "Byte range, eg bytes=0-1023"
// @Success 200 {file} binary "Full video"
// @Success 206 {file} binary "Requested byte range"
// @Failure 416 "Requested range not satisfiable"
// @Router /video [get]
func (h *Handler) StreamVideo(c *gin.Context) {
	info, err := os.Stat(h.assetPath)
	if err != nil {
		h.logger.Errorf("video asset missing: %v", err)
		c.Status(http.StatusNotFound)
		return
	}
	size := info.Size()

	rangeHeader := c.GetHeader("Range")
	if rangeHeader == "" {
		h.serveFull(c, size)
		return
	}

	start, end, err := parseRange(rangeHeader, size)
	if err != nil {
		h.logger.Debugf("unsatisfiable range %q: %v", rangeHeader, err)
		c.Status(http.StatusRequestedRangeNotSatisfiable)
		return
	}

	h.serveRange(c, start, end, size)
}

func (h *Handler) serveFull(c *gin.Context, size int64) {
	f, err := os.Open(h.assetPath)
	if err != nil {
		c.Status(http.StatusInternalServerError)
		return
	}
	defer f.Close()

	c.Header("Content-Length", strconv.FormatInt(size, 10))
	c.Header("Content-Type", "video/mp4")
	c.Header("Accept-Ranges", "bytes")
	c.Status(http.StatusOK)
	h.stream(c, f, size)
}

func (h *Handler) serveRange(c *gin.Context, start, end, size int64) {
	f, err := os.Open(h.assetPath)
	if err != nil {
		c.Status(http.StatusInternalServerError)
		return
	}
	defer f.Close()

	if _, err := f.Seek(start, io.SeekStart); err != nil {
		c.Status(http.StatusInternalServerError)
		return
	}

	length := end - start + 1
	c.Header("Content-Range", fmt.Sprintf("bytes %d-%d/%d", start, end, size))
	c.Header("Content-Length", strconv.FormatInt(length, 10))
	c.Header("Content-Type", "video/mp4")
	c.Header("Accept-Ranges", "bytes")
	c.Status(http.StatusPartialContent)
	h.stream(c, f, length)
}

// stream copies up to length bytes in fixed-size chunks, stopping early when
// the source is exhausted or the client goes away. The file handle is owned
// by the caller's defer, released on every exit path.
func (h *Handler) stream(c *gin.Context, f *os.File, length int64) {
	buf := make([]byte, chunkSize)
	remaining := length
	for remaining > 0 {
		n := int64(len(buf))
		if remaining < n {
			n = remaining
		}
		read, err := f.Read(buf[:n])
		if read > 0 {
			if _, werr := c.Writer.Write(buf[:read]); werr != nil {
				h.logger.Debugf("client stopped reading video: %v", werr)
				return
			}
			c.Writer.Flush()
			remaining -= int64(read)
		}
		if err != nil {
			if err != io.EOF {
				h.logger.Warnf("video read: %v", err)
			}
			return
		}
	}
}

// parseRange parses a "bytes=start-end" header. Start is required, end
// defaults to the last byte; either bound at or past the asset size is
// unsatisfiable.
func parseRange(header string, size int64) (start, end int64, err error) {
	value := strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(header), "bytes="))
	parts := strings.SplitN(value, "-", 2)
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("malformed range %q", header)
	}

	start, err = strconv.ParseInt(strings.TrimSpace(parts[0]), 10, 64)
	if err != nil {
		return 0, 0, fmt.Errorf("bad range start: %w", err)
	}

	end = size - 1
	if endPart := strings.TrimSpace(parts[1]); endPart != "" {
		end, err = strconv.ParseInt(endPart, 10, 64)
		if err != nil {
			return 0, 0, fmt.Errorf("bad range end: %w", err)
		}
	}

	if start < 0 || start >= size || end >= size {
		return 0, 0, fmt.Errorf("range [%d, %d] outside asset of %d bytes", start, end, size)
	}
	if end < start {
		return 0, 0, fmt.Errorf("range end %d before start %d", end, start)
	}
	return start, end, nil
}
