package display

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/recall-labs/immersive/pkg/Logger"
	"github.com/recall-labs/immersive/pkg/playback"
)

// Handler accepts display-client connections onto the playback control
// channel. Displays connect independently of any voice session; the channel
// decides who receives playback commands.
type Handler struct {
	logger   *Logger.Logger
	channel  *playback.Channel
	upgrader websocket.Upgrader
}

func NewHandler(logger *Logger.Logger, channel *playback.Channel) *Handler {
	return &Handler{
		logger:  logger,
		channel: channel,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				// TODO: Implement proper origin checking for production
				return true
			},
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
	}
}

// RegisterRoutes registers the display channel endpoint.
func (h *Handler) RegisterRoutes(router gin.IRouter) {
	router.GET("/ws/display", h.HandleDisplaySocket)
}

// HandleDisplaySocket upgrades the connection, registers it with the channel
// and pumps inbound messages until the client goes away. Inbound text from a
// display is opaque: echoed back to the sender and broadcast to every
// display.
func (h *Handler) HandleDisplaySocket(c *gin.Context) {
	sock, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Errorf("display ws upgrade failed: %v", err)
		return
	}
	defer sock.Close()

	conn := playback.NewDisplayConn(sock)
	h.channel.Connect(conn)
	defer h.channel.Disconnect(conn)

	for {
		_, data, err := sock.ReadMessage()
		if err != nil {
			h.logger.Debugf("display %s read loop ending: %v", conn.ID, err)
			return
		}

		// Display-originated text is opaque: acknowledge the sender,
		// then fan out to every display.
		if err := conn.Send([]byte(fmt.Sprintf("Message text was: %s", data))); err != nil {
			h.logger.Debugf("display %s echo failed: %v", conn.ID, err)
			return
		}
		h.channel.Broadcast([]byte(fmt.Sprintf("Broadcast: %s", data)))
	}
}
