// cmd/clipguard/stream_test.go
package main

import (
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSendTerminalWhenWriterGone(t *testing.T) {
	// Nobody reads events and the writer is gone: the send must return
	// instead of blocking.
	events := make(chan ProgressEvent)
	done := make(chan struct{})
	close(done)

	finished := make(chan struct{})
	go func() {
		sendTerminal(events, done, ProgressEvent{Type: "result"})
		close(finished)
	}()

	select {
	case <-finished:
	case <-time.After(time.Second):
		t.Fatal("terminal send blocked after the writer exited")
	}
}

func TestAnalyzeStreamEndsWithOneTerminalEvent(t *testing.T) {
	s := newTestServer(newFakeOracle())
	srv := httptest.NewServer(s.httpServer.Handler)
	defer srv.Close()

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") +
		"/api/analyze/stream?video_id=vid1&title=nothing+factual"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	defer conn.Close()

	var terminals int
	for {
		var ev ProgressEvent
		if err := conn.ReadJSON(&ev); err != nil {
			break
		}
		switch ev.Type {
		case "result":
			terminals++
			assert.NotNil(t, ev.Result)
		case "error":
			terminals++
		}
	}
	assert.Equal(t, 1, terminals)
}

func TestAnalyzeStreamClientGoneDoesNotHang(t *testing.T) {
	s := newTestServer(newFakeOracle())
	srv := httptest.NewServer(s.httpServer.Handler)
	defer srv.Close()

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") +
		"/api/analyze/stream?video_id=vid1"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	conn.Close()

	// The handler must still finish so the server can drain its
	// connections on shutdown.
	finished := make(chan struct{})
	go func() {
		srv.CloseClientConnections()
		srv.Close()
		close(finished)
	}()

	select {
	case <-finished:
	case <-time.After(5 * time.Second):
		t.Fatal("server did not shut down after the client disconnected")
	}
}
