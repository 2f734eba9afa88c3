package server

import (
	"context"
	"net/http"
	"time"

	"nhooyr.io/websocket"
)

// handleLogStream upgrades to a websocket, replays the log backlog and then
// follows live output until the client disconnects.
func (s *Server) handleLogStream(w http.ResponseWriter, r *http.Request) {
	if s.stream == nil {
		s.writeError(w, http.StatusNotFound, "log streaming disabled")
		return
	}

	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: []string{"*"},
	})
	if err != nil {
		s.log.Warn().Err(err).Msg("Websocket accept failed")
		return
	}
	defer conn.Close(websocket.StatusInternalError, "stream closed")

	history, lines, cancel := s.stream.Subscribe()
	defer cancel()

	ctx := r.Context()

	for _, line := range history {
		if err := s.writeLine(ctx, conn, line); err != nil {
			return
		}
	}

	// Reads are discarded but keep ping/pong and close frames flowing.
	go func() {
		for {
			if _, _, err := conn.Read(ctx); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case <-ctx.Done():
			conn.Close(websocket.StatusNormalClosure, "")
			return
		case line, ok := <-lines:
			if !ok {
				conn.Close(websocket.StatusNormalClosure, "")
				return
			}
			if err := s.writeLine(ctx, conn, line); err != nil {
				return
			}
		}
	}
}

func (s *Server) writeLine(ctx context.Context, conn *websocket.Conn, line []byte) error {
	writeCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	return conn.Write(writeCtx, websocket.MessageText, line)
}
