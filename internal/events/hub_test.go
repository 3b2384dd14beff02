package events

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	qt "github.com/frankban/quicktest"
	"github.com/gorilla/websocket"
)

func TestHub_BroadcastsToClients(t *testing.T) {
	c := qt.New(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	hub := NewHub(slog.New(slog.NewTextHandler(io.Discard, nil)))
	go hub.Run(ctx)

	upgrader := Upgrader(func(*http.Request) bool { return true })
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = hub.Serve(upgrader, w, r, "tester")
	}))
	defer srv.Close()

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http"), nil)
	c.Assert(err, qt.IsNil)
	defer conn.Close()

	// Registration is asynchronous; publish until the client sees a message.
	deadline := time.Now().Add(2 * time.Second)
	_ = conn.SetReadDeadline(deadline)
	go func() {
		for time.Now().Before(deadline) {
			hub.Publish(PDFUploaded, map[string]string{"unique_id": "pdf_1_abcdef"})
			time.Sleep(20 * time.Millisecond)
		}
	}()

	_, data, err := conn.ReadMessage()
	c.Assert(err, qt.IsNil)

	var msg Message
	c.Assert(json.Unmarshal(data, &msg), qt.IsNil)
	c.Assert(msg.Type, qt.Equals, PDFUploaded)
	c.Assert(string(msg.Payload), qt.JSONEquals, map[string]string{"unique_id": "pdf_1_abcdef"})
}

func TestHub_PublishNeverBlocks(t *testing.T) {
	hub := NewHub(slog.New(slog.NewTextHandler(io.Discard, nil)))
	// Run is not started, so the buffer fills and later events are dropped.
	for range 200 {
		hub.Publish(FolderCreated, map[string]int{"id": 1})
	}
}

func TestHub_Subscribe(t *testing.T) {
	c := qt.New(t)
	ctx, cancel := context.WithCancel(context.Background())

	hub := NewHub(slog.New(slog.NewTextHandler(io.Discard, nil)))
	go hub.Run(ctx)

	msgs, unsubscribe, ok := hub.Subscribe("tester")
	c.Assert(ok, qt.IsTrue)

	hub.Publish(FolderDeleted, map[string]int64{"id": 7})
	select {
	case data := <-msgs:
		var msg Message
		c.Assert(json.Unmarshal(data, &msg), qt.IsNil)
		c.Assert(msg.Type, qt.Equals, FolderDeleted)
	case <-time.After(2 * time.Second):
		c.Fatal("no event received")
	}

	unsubscribe()
	_, open := <-msgs
	c.Assert(open, qt.IsFalse)

	cancel()
	// Once stopped, the hub refuses new subscribers instead of blocking.
	deadline := time.Now().Add(2 * time.Second)
	for {
		_, _, ok := hub.Subscribe("late")
		if !ok {
			break
		}
		if time.Now().After(deadline) {
			c.Fatal("hub still accepting subscribers after stop")
		}
		time.Sleep(10 * time.Millisecond)
	}
}
