package sse

import (
	"context"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func waitForCount(t *testing.T, b *Broker, want int) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if b.ClientCount() == want {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("client count never reached %d (now %d)", want, b.ClientCount())
}

func TestSubscribePublishReceive(t *testing.T) {
	b := NewBroker()
	defer b.Close()

	ch := b.Subscribe()
	waitForCount(t, b, 1)

	b.PublishNoteEvent("updated", "notes/a.md")

	select {
	case msg := <-ch:
		got := string(msg)
		want := "event: note.updated\ndata: {\"path\":\"notes/a.md\"}\n\n"
		if got != want {
			t.Errorf("message = %q, want %q", got, want)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("no event received")
	}
}

func TestUnsubscribe(t *testing.T) {
	b := NewBroker()
	defer b.Close()

	ch := b.Subscribe()
	waitForCount(t, b, 1)

	b.Unsubscribe(ch)
	waitForCount(t, b, 0)

	// Channel is closed on unsubscribe.
	select {
	case _, ok := <-ch:
		if ok {
			t.Error("channel should be closed, not carrying data")
		}
	case <-time.After(2 * time.Second):
		t.Fatal("channel not closed")
	}
}

func TestClose_Idempotent(t *testing.T) {
	b := NewBroker()
	ch := b.Subscribe()
	waitForCount(t, b, 1)

	b.Close()
	b.Close()

	if _, ok := <-ch; ok {
		t.Error("client channel should be closed after broker shutdown")
	}
	if n := b.ClientCount(); n != 0 {
		t.Errorf("count after close = %d", n)
	}

	// Operations after close must not block or panic.
	b.Publish(Event{Type: "note.updated", Data: map[string]string{"path": "x.md"}})
	b.Unsubscribe(ch)
	if ch2 := b.Subscribe(); ch2 != nil {
		if _, ok := <-ch2; ok {
			t.Error("subscribe after close should hand back a closed channel")
		}
	}
}

// flushRecorder signals on every Flush so tests can wait for writes
// without racing the handler goroutine.
type flushRecorder struct {
	*httptest.ResponseRecorder
	flushed chan struct{}
}

func (f *flushRecorder) Flush() {
	f.ResponseRecorder.Flush()
	select {
	case f.flushed <- struct{}{}:
	default:
	}
}

func TestServeHTTP_StreamsEvents(t *testing.T) {
	b := NewBroker()
	defer b.Close()

	ctx, cancel := context.WithCancel(context.Background())
	req := httptest.NewRequest("GET", "/events", nil).WithContext(ctx)
	w := &flushRecorder{ResponseRecorder: httptest.NewRecorder(), flushed: make(chan struct{}, 4)}

	done := make(chan struct{})
	go func() {
		b.ServeHTTP(w, req)
		close(done)
	}()

	// First flush happens right after the headers are written.
	select {
	case <-w.flushed:
	case <-time.After(2 * time.Second):
		t.Fatal("handler never flushed headers")
	}

	waitForCount(t, b, 1)
	b.PublishNoteEvent("created", "fresh.md")

	// Wait for the event write to be flushed, then disconnect the client.
	select {
	case <-w.flushed:
	case <-time.After(2 * time.Second):
		t.Fatal("event never flushed")
	}
	cancel()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("handler did not return after client disconnect")
	}

	body := w.Body.String()
	if !strings.Contains(body, "event: note.created\n") {
		t.Errorf("body = %q", body)
	}
	if !strings.Contains(body, `data: {"path":"fresh.md"}`) {
		t.Errorf("body = %q", body)
	}
	if ct := w.Header().Get("Content-Type"); ct != "text/event-stream" {
		t.Errorf("content type = %q", ct)
	}

	waitForCount(t, b, 0)
}
