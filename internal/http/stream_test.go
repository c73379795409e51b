package http

import (
	"bufio"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/RagnarAgustsson/HandritiB/internal/domain"
)

type streamEvent struct {
	Type    string `json:"type"`
	ID      string `json:"id"`
	Content string `json:"content"`
}

// readEvents decodes SSE data frames into a channel until the body closes.
func readEvents(body *bufio.Scanner, out chan<- streamEvent) {
	defer close(out)
	for body.Scan() {
		line := body.Text()
		if !strings.HasPrefix(line, "data: ") {
			continue
		}
		var ev streamEvent
		if err := json.Unmarshal([]byte(strings.TrimPrefix(line, "data: ")), &ev); err != nil {
			continue
		}
		out <- ev
	}
}

func nextEvent(t *testing.T, events <-chan streamEvent) streamEvent {
	t.Helper()
	select {
	case ev, ok := <-events:
		if !ok {
			t.Fatal("stream closed before expected event")
		}
		return ev
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for stream event")
	}
	return streamEvent{}
}

func TestStreamDeliversOnlyNewNotesAndChangedSummaries(t *testing.T) {
	engine, store := setupTestServer(t, nil)

	server := httptest.NewServer(engine)
	defer server.Close()

	sess, _ := store.CreateSession("owner-1", "live", domain.ProfileMeeting)
	chunk, _ := store.CreateChunk(sess.ID, 0, "first transcript", 20)
	store.CreateNote(sess.ID, chunk.ID, "n1", "s1")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, server.URL+"/api/sessions/"+sess.ID+"/stream", nil)
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	req.Header.Set(identityHeader, "owner-1")

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("open stream: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	events := make(chan streamEvent, 16)
	go readEvents(bufio.NewScanner(resp.Body), events)

	// The opening poll replays existing state.
	if ev := nextEvent(t, events); ev.Type != "note" || ev.Content != "n1" {
		t.Fatalf("expected note n1, got %+v", ev)
	}
	if ev := nextEvent(t, events); ev.Type != "summary" || ev.Content != "s1" {
		t.Fatalf("expected summary s1, got %+v", ev)
	}

	// A new note with an unchanged rolling summary yields a note event only.
	chunk2, _ := store.CreateChunk(sess.ID, 1, "second transcript", 20)
	store.CreateNote(sess.ID, chunk2.ID, "n2", "s1")

	if ev := nextEvent(t, events); ev.Type != "note" || ev.Content != "n2" {
		t.Fatalf("expected note n2, got %+v", ev)
	}

	// A changed summary comes through after its note.
	chunk3, _ := store.CreateChunk(sess.ID, 2, "third transcript", 20)
	store.CreateNote(sess.ID, chunk3.ID, "n3", "s2")

	if ev := nextEvent(t, events); ev.Type != "note" || ev.Content != "n3" {
		t.Fatalf("expected note n3, got %+v", ev)
	}
	if ev := nextEvent(t, events); ev.Type != "summary" || ev.Content != "s2" {
		t.Fatalf("expected summary s2, got %+v", ev)
	}

	cancel()
}

func TestStreamRequiresOwnership(t *testing.T) {
	engine, store := setupTestServer(t, nil)

	sess, _ := store.CreateSession("owner-1", "private", domain.ProfileMeeting)

	req := httptest.NewRequest(http.MethodGet, "/api/sessions/"+sess.ID+"/stream", nil)
	req.Header.Set(identityHeader, "owner-2")
	rec := httptest.NewRecorder()

	engine.ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for foreign stream, got %d", rec.Code)
	}
}
