package signal

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/dkeye/voxroom/internal/app/orch"
	"github.com/dkeye/voxroom/internal/config"
	"github.com/dkeye/voxroom/internal/core"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

type SignalWSController struct {
	Orch    *orch.Orchestrator
	cfg     config.WebSocketConfig
	limiter *UserRateLimiter
}

func NewSignalWSController(o *orch.Orchestrator, ws config.WebSocketConfig, relay config.RelayConfig) *SignalWSController {
	if ws.SendBuffer <= 0 {
		ws.SendBuffer = 64
	}
	if ws.WriteWait <= 0 {
		ws.WriteWait = 5 * time.Second
	}
	if ws.PongWait <= 0 {
		ws.PongWait = 60 * time.Second
	}
	if ws.PingPeriod <= 0 || ws.PingPeriod >= ws.PongWait {
		ws.PingPeriod = ws.PongWait * 9 / 10
	}
	return &SignalWSController{
		Orch:    o,
		cfg:     ws,
		limiter: NewUserRateLimiter(relay.RateLimit, relay.RateInterval),
	}
}

// wsSignalConn is the core.SignalConnection over one websocket. Frames are
// queued on send and written by writePump.
type wsSignalConn struct {
	conn *websocket.Conn
	send chan core.Frame

	mu     sync.RWMutex
	closed bool
}

func (c *wsSignalConn) TrySend(f core.Frame) error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.closed {
		return core.ErrConnClosed
	}
	select {
	case c.send <- f:
	default:
		return core.ErrBackpressure
	}
	return nil
}

func (c *wsSignalConn) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	close(c.send)
	_ = c.conn.Close()
	c.mu.Unlock()
}

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

func (ctl *SignalWSController) HandleSignal(ctx context.Context, c *gin.Context) {
	token := c.GetString("client_token")
	ws, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("ws upgrade")
		return
	}
	if ctl.cfg.ReadLimit > 0 {
		ws.SetReadLimit(ctl.cfg.ReadLimit)
	}

	id := core.ConnID(uuid.NewString())
	conn := &wsSignalConn{
		conn: ws,
		send: make(chan core.Frame, ctl.cfg.SendBuffer),
	}
	log.Info().Str("module", "signal").Str("sid", string(id)).Str("client", token).Msg("new WS connection")

	ctl.Orch.Connect(id, conn, token)
	ctx, cancel := context.WithCancel(ctx)
	go ctl.writePump(ctx, conn)
	go ctl.readPump(ctx, cancel, id, conn)
}
