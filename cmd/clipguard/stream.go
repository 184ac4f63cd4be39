// cmd/clipguard/stream.go
package main

import (
	"net/http"
	"strconv"

	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 4096,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// handleAnalyzeStream runs one analysis over a websocket, emitting
// progress events as the pipeline advances. The stream always ends with
// exactly one terminal event: "result" on success, "error" otherwise.
func (s *Server) handleAnalyzeStream(w http.ResponseWriter, r *http.Request) {
	defer RecoverFromPanic("analyze-stream")

	req := AnalyzeRequest{
		VideoID:     r.URL.Query().Get("video_id"),
		Title:       r.URL.Query().Get("title"),
		Description: r.URL.Query().Get("description"),
	}
	if maxClaims := r.URL.Query().Get("max_claims"); maxClaims != "" {
		if n, err := strconv.Atoi(maxClaims); err == nil {
			req.MaxClaims = n
		}
	}
	if req.VideoID == "" {
		respondWithError(w, http.StatusBadRequest, "video_id is required")
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		Logger().Error("Websocket upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	Logger().Info("Streaming analysis for video %s", req.VideoID)

	// Progress events are funneled through a channel so a single
	// goroutine owns all writes to the connection.
	events := make(chan ProgressEvent, 16)
	done := make(chan struct{})
	go func() {
		defer close(done)
		for ev := range events {
			if err := conn.WriteJSON(ev); err != nil {
				Logger().Warning("Websocket write failed: %v", err)
				return
			}
		}
	}()

	verdict, err := s.orchestrator.Analyze(r.Context(), req, func(ev ProgressEvent) {
		select {
		case events <- ev:
		default:
			Logger().Debug("Dropping progress event, stream backlogged")
		}
	})

	if err != nil {
		sendTerminal(events, done, ProgressEvent{Type: "error", Message: err.Error()})
	} else {
		sendTerminal(events, done, ProgressEvent{Type: "result", Result: &verdict})
	}
	close(events)
	<-done
}

// sendTerminal delivers the terminal event unless the writer goroutine
// already exited on a dead connection, in which case the event is
// discarded instead of blocking the handler forever.
func sendTerminal(events chan<- ProgressEvent, done <-chan struct{}, ev ProgressEvent) {
	select {
	case events <- ev:
	case <-done:
	}
}
