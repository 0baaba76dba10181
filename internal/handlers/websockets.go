package handlers

import (
	"net/http"
	"slices"
	"time"

	"chamber_control/internal/models"
	"chamber_control/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
	maxMsgSize = 1 << 12 // 4 KB

	// the snapshot changes at most once per control tick
	defaultCheckEvery = time.Second
	minCheckEvery     = 50 * time.Millisecond
	maxCheckEvery     = service.DefaultPollInterval

	msgState = "state"
	msgError = "error"
)

// stateMessage is pushed whenever the controller snapshot changes.
type stateMessage struct {
	Type   string                  `json:"type"`
	State  *models.ControllerState `json:"state,omitempty"`
	Active *SlotResponse           `json:"active,omitempty"`
	Error  string                  `json:"error,omitempty"`
}

var upgrader = websocket.Upgrader{
	// read-only stream on the operator network
	CheckOrigin: func(r *http.Request) bool { return true },
}

// @Summary      Controller state stream
// @Description  WebSocket. Sends the state on connect and again whenever the control loop writes a different snapshot.
// @Tags         controller
// @Param        check  query  string  false  "How often to look for a new snapshot (Go duration, 50ms..20s)"  example(1s)
// @Router       /ws [get]
func (h *Handler) wsConnect(c *gin.Context) {
	checkEvery := checkInterval(c.Query("check"))

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		if h.log != nil {
			h.log.Errorw("ws_upgrade_failed", "err", err)
		}
		return
	}
	defer func() { _ = conn.Close() }()

	conn.SetReadLimit(maxMsgSize)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	closed := make(chan struct{})
	go drainClient(conn, closed)

	ctx := c.Request.Context()
	last, err := h.services.Monitoring.GetState(ctx)
	if err != nil {
		if h.log != nil {
			h.log.Errorw("ws_get_state_failed", "err", err)
		}
		return
	}
	if err := h.pushState(conn, last); err != nil {
		return
	}

	check := time.NewTicker(checkEvery)
	ping := time.NewTicker(pingPeriod)
	defer check.Stop()
	defer ping.Stop()

	stateErr := false
	for {
		select {
		case <-closed:
			return
		case <-ctx.Done():
			return
		case <-ping.C:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-check.C:
			st, err := h.services.Monitoring.GetState(ctx)
			if err != nil {
				// report once per outage, keep the stream open
				if !stateErr {
					stateErr = true
					if h.log != nil {
						h.log.Warnw("ws_get_state_failed", "err", err)
					}
					if werr := write(conn, stateMessage{Type: msgError, Error: errGetState}); werr != nil {
						return
					}
				}
				continue
			}
			stateErr = false
			if sameSnapshot(last, st) {
				continue
			}
			last = st
			if err := h.pushState(conn, st); err != nil {
				return
			}
		}
	}
}

func (h *Handler) pushState(conn *websocket.Conn, st models.ControllerState) error {
	msg := stateMessage{Type: msgState, State: &st}
	if h.services.Scheduler != nil {
		if slot, ok := h.services.Scheduler.Active(time.Now()); ok {
			active := toSlotResponse(slot)
			msg.Active = &active
		}
	}
	err := write(conn, msg)
	if err != nil && h.log != nil {
		h.log.Infow("ws_write_failed", "err", err)
	}
	return err
}

func write(conn *websocket.Conn, msg stateMessage) error {
	_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
	return conn.WriteJSON(msg)
}

// drainClient consumes control frames and reports when the client goes away.
func drainClient(conn *websocket.Conn, closed chan<- struct{}) {
	defer close(closed)
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}

// checkInterval parses ?check=, falling back to the default when absent or
// out of range.
func checkInterval(q string) time.Duration {
	if q == "" {
		return defaultCheckEvery
	}
	d, err := time.ParseDuration(q)
	if err != nil || d < minCheckEvery || d > maxCheckEvery {
		return defaultCheckEvery
	}
	return d
}

// sameSnapshot ignores UpdatedAt: the idle baseline is stamped on every read.
func sameSnapshot(a, b models.ControllerState) bool {
	return a.Mode == b.Mode &&
		a.Slot == b.Slot &&
		a.LightOn == b.LightOn &&
		a.HeaterOn == b.HeaterOn &&
		sameTemp(a.CurrentTempC, b.CurrentTempC) &&
		sameTemp(a.TargetTempC, b.TargetTempC) &&
		slices.Equal(a.ErrorCodes, b.ErrorCodes)
}

func sameTemp(a, b *float64) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}
