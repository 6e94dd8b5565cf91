package httpapi

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	sonic "github.com/bytedance/sonic"
	"github.com/gorilla/websocket"
	"github.com/riskibarqy/nations-cup/internal/domain/match"
	"github.com/riskibarqy/nations-cup/internal/usecase"
)

// ReplayConfig paces timeline replays. Speed is match minutes per wall clock second.
type ReplayConfig struct {
	DefaultSpeed float64
	MaxSpeed     float64
	WriteTimeout time.Duration
}

func (c ReplayConfig) normalize() ReplayConfig {
	if c.DefaultSpeed <= 0 {
		c.DefaultSpeed = 30
	}
	if c.MaxSpeed <= 0 {
		c.MaxSpeed = 6000
	}
	if c.DefaultSpeed > c.MaxSpeed {
		c.DefaultSpeed = c.MaxSpeed
	}
	if c.WriteTimeout <= 0 {
		c.WriteTimeout = 5 * time.Second
	}
	return c
}

type replayMessage struct {
	Type  string       `json:"type"`
	Index int          `json:"index,omitempty"`
	Event *match.Event `json:"event,omitempty"`
	Total int          `json:"total,omitempty"`
}

var replayUpgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 4096,
	// Replays are read only, so any origin may watch.
	CheckOrigin: func(*http.Request) bool { return true },
}

// ReplayMatch streams a stored timeline over a websocket, one event per
// message, then an "end" message.
func (h *Handler) ReplayMatch(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.ReplayMatch")
	defer span.End()

	speed, err := h.parseReplaySpeed(r.URL.Query().Get("speed"))
	if err != nil {
		writeError(w, err)
		return
	}

	matchID := pathID(r, "matchID")
	events, err := h.matchService.GetTimeline(ctx, matchID)
	if err != nil {
		h.logger.WarnContext(ctx, "replay match failed", "match_id", matchID, "error", err)
		writeError(w, err)
		return
	}

	conn, err := replayUpgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.WarnContext(ctx, "replay upgrade failed", "match_id", matchID, "error", err)
		return
	}
	defer func() {
		_ = conn.Close()
	}()

	closed := make(chan struct{})
	go func() {
		defer close(closed)
		for {
			if _, _, err := conn.NextReader(); err != nil {
				return
			}
		}
	}()

	send := func(msg replayMessage) error {
		payload, err := sonic.Marshal(msg)
		if err != nil {
			return err
		}
		_ = conn.SetWriteDeadline(time.Now().Add(h.replay.WriteTimeout))
		return conn.WriteMessage(websocket.TextMessage, payload)
	}

	previous := 0.0
	for i := range events {
		ev := events[i]
		if wait := replayDelay(ev.Minute-previous, speed); wait > 0 {
			timer := time.NewTimer(wait)
			select {
			case <-closed:
				timer.Stop()
				return
			case <-ctx.Done():
				timer.Stop()
				return
			case <-timer.C:
			}
		}
		previous = ev.Minute

		if err := send(replayMessage{Type: "event", Index: i, Event: &ev}); err != nil {
			h.logger.WarnContext(ctx, "replay write failed", "match_id", matchID, "error", err)
			return
		}
	}

	if err := send(replayMessage{Type: "end", Total: len(events)}); err != nil {
		return
	}
	_ = conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, "replay finished"),
		time.Now().Add(h.replay.WriteTimeout),
	)
}

func (h *Handler) parseReplaySpeed(raw string) (float64, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return h.replay.DefaultSpeed, nil
	}

	speed, err := strconv.ParseFloat(raw, 64)
	if err != nil || speed <= 0 || speed > h.replay.MaxSpeed {
		return 0, fmt.Errorf("%w: speed must be a number in (0, %g]", usecase.ErrInvalidInput, h.replay.MaxSpeed)
	}
	return speed, nil
}

func replayDelay(minutes, speed float64) time.Duration {
	if minutes <= 0 || speed <= 0 {
		return 0
	}
	return time.Duration(minutes / speed * float64(time.Second))
}
