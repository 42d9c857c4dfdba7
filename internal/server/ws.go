/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"nhooyr.io/websocket"
	"nhooyr.io/websocket/wsjson"

	"github.com/friendsincode/lessonboard/internal/render"
	"github.com/friendsincode/lessonboard/internal/telemetry"
)

const (
	pingInterval = 15 * time.Second
	writeTimeout = 5 * time.Second
)

// streamMessage is one websocket frame sent to a renderer.
type streamMessage struct {
	Type     string          `json:"type"` // hello or command
	ClientID string          `json:"client_id,omitempty"`
	Replay   int             `json:"replay,omitempty"`
	Command  *render.Command `json:"command,omitempty"`
}

// handleRenderStream sends a hello frame, replays the latest command per key, then streams
// new commands until the renderer disconnects.
func (s *Server) handleRenderStream(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{InsecureSkipVerify: true})
	if err != nil {
		s.logger.Error().Err(err).Msg("websocket accept failed")
		return
	}
	defer conn.Close(websocket.StatusInternalError, "server error")

	// Renderers never send; CloseRead handles control frames and cancels ctx on disconnect.
	ctx := conn.CloseRead(r.Context())

	sub, replay := s.bus.Subscribe()
	defer s.bus.Unsubscribe(sub)

	telemetry.RendererClients.Inc()
	defer telemetry.RendererClients.Dec()

	logger := s.logger.With().Str("client_id", sub.ID).Logger()
	logger.Info().Str("remote", r.RemoteAddr).Int("replay", len(replay)).Msg("renderer connected")
	defer logger.Info().Msg("renderer disconnected")

	if err := writeFrame(ctx, conn, streamMessage{Type: "hello", ClientID: sub.ID, Replay: len(replay)}); err != nil {
		return
	}
	for i := range replay {
		if err := writeFrame(ctx, conn, streamMessage{Type: "command", Command: &replay[i]}); err != nil {
			return
		}
	}

	ping := time.NewTicker(pingInterval)
	defer ping.Stop()

	for {
		select {
		case <-ctx.Done():
			conn.Close(websocket.StatusNormalClosure, "")
			return
		case <-ping.C:
			pingCtx, cancel := context.WithTimeout(ctx, writeTimeout)
			err := conn.Ping(pingCtx)
			cancel()
			if err != nil {
				logger.Debug().Err(err).Msg("renderer ping failed")
				return
			}
		case cmd, ok := <-sub.C:
			if !ok {
				// Evicted for falling behind; the renderer reconnects and gets a fresh replay.
				logger.Warn().Msg("renderer fell behind, closing stream")
				conn.Close(websocket.StatusTryAgainLater, "resync")
				return
			}
			if err := writeFrame(ctx, conn, streamMessage{Type: "command", Command: &cmd}); err != nil {
				if !errors.Is(err, context.Canceled) {
					logger.Warn().Err(err).Msg("renderer write failed")
				}
				return
			}
		}
	}
}

func writeFrame(ctx context.Context, conn *websocket.Conn, msg streamMessage) error {
	ctx, cancel := context.WithTimeout(ctx, writeTimeout)
	defer cancel()
	return wsjson.Write(ctx, conn, msg)
}
