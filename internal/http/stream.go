package http

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// Live update events. The type field discriminates; payloads are
// newline-delimited JSON in standard SSE data frames.
type noteEvent struct {
	Type    string `json:"type"`
	ID      string `json:"id"`
	Content string `json:"content"`
}

type summaryEvent struct {
	Type    string `json:"type"`
	Content string `json:"content"`
}

// handleStream is the live update channel: a one-way SSE stream that
// polls the store on a fixed interval and pushes what changed since the
// last poll.
//
// Delivery is at-least-once per note append and per distinct summary
// value, in persistence order. Ownership is checked once at open, not per
// poll. A store read failure closes the stream; reconnecting is the
// client's job.
func (a *API) handleStream(c *gin.Context) {
	sess, ok := a.ownedSession(c)
	if !ok {
		return
	}

	flusher, ok := c.Writer.(http.Flusher)
	if !ok {
		respondMessage(c, http.StatusInternalServerError, "streaming unsupported")
		return
	}

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache, no-transform")
	c.Header("Connection", "keep-alive")
	c.Writer.WriteHeader(http.StatusOK)
	flusher.Flush()

	if a.metrics != nil {
		a.metrics.LiveStreamsOpen.Inc()
		defer a.metrics.LiveStreamsOpen.Dec()
	}

	send := func(event any) error {
		data, err := json.Marshal(event)
		if err != nil {
			return err
		}
		if _, err := fmt.Fprintf(c.Writer, "data: %s\n\n", data); err != nil {
			return err
		}
		flusher.Flush()
		return nil
	}

	// Cursor state: how many notes have been delivered, and the last
	// rolling summary value pushed.
	delivered := 0
	lastSummary := ""

	poll := func() error {
		notes, err := a.store.ListNotes(sess.ID)
		if err != nil {
			return err
		}

		for _, note := range notes[delivered:] {
			if err := send(noteEvent{Type: "note", ID: note.ID, Content: note.Content}); err != nil {
				return err
			}
		}
		delivered = len(notes)

		if len(notes) > 0 {
			latest := notes[len(notes)-1].RollingSummary
			if latest != "" && latest != lastSummary {
				if err := send(summaryEvent{Type: "summary", Content: latest}); err != nil {
					return err
				}
				lastSummary = latest
			}
		}
		return nil
	}

	if err := poll(); err != nil {
		return
	}

	interval := a.cfg.LivePollInterval
	if interval <= 0 {
		interval = 1500 * time.Millisecond
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	ctx := c.Request.Context()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := poll(); err != nil {
				return
			}
		}
	}
}
