package server

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/contactkeval/option-greeks-sim/internal/live"
	"github.com/contactkeval/option-greeks-sim/internal/logger"
	"github.com/contactkeval/option-greeks-sim/internal/simulate"
)

const writeWait = 10 * time.Second

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// LiveMessage is one frame of the live stream. Exactly one field is set.
type LiveMessage struct {
	Snapshot *simulate.Snapshot `json:"snapshot,omitempty"`
	Done     *live.Result       `json:"done,omitempty"`
	Error    string             `json:"error,omitempty"`
}

// live streams a simulation in incremental mode, one snapshot per tick, and
// finishes with a Done frame. Contract and schedule errors are reported as
// plain HTTP errors before the upgrade.
func (s *Server) live(c *gin.Context) {
	var req LiveRequest
	if !bind(c, &req) {
		return
	}
	kind, err := req.kind()
	if err != nil {
		fail(c, err)
		return
	}
	now := s.now()
	spec, valuation, err := req.spec(now)
	if err != nil {
		fail(c, err)
		return
	}
	if err := checkHorizon(spec, valuation, s.cfg.MaxDays); err != nil {
		fail(c, err)
		return
	}
	sim, err := simulate.NewSeeded(kind, spec, valuation, req.seed(now))
	if err != nil {
		fail(c, err)
		return
	}

	cfg := live.Config{Schedule: s.cfg.Schedule, MaxTicks: s.cfg.MaxTicks}
	if req.Schedule != "" {
		cfg.Schedule = req.Schedule
	}
	if req.MaxTicks > 0 && req.MaxTicks < cfg.MaxTicks {
		cfg.MaxTicks = req.MaxTicks
	}

	var conn *websocket.Conn
	send := func(msg LiveMessage) error {
		_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
		return conn.WriteJSON(msg)
	}
	runner, err := live.NewRunner(sim, func(snap simulate.Snapshot) error {
		return send(LiveMessage{Snapshot: &snap})
	}, cfg)
	if err != nil {
		fail(c, badRequest{err})
		return
	}

	conn, err = upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		logger.Errorf("live %s: upgrade: %v", sim.RunID(), err)
		return
	}
	defer conn.Close()

	ctx, cancel := context.WithCancel(c.Request.Context())
	defer cancel()
	// The client never sends data; a failed read means it went away.
	go func() {
		defer cancel()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	res, err := runner.Run(ctx)
	if err != nil {
		logger.Errorf("live %s: %v", res.RunID, err)
		_ = send(LiveMessage{Done: &res, Error: err.Error()})
	} else {
		_ = send(LiveMessage{Done: &res})
	}
	_ = conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, res.Reason),
		time.Now().Add(writeWait))
}
