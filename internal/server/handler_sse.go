package server

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/me/gotr/internal/events"
)

// handleSSEEvents streams scheduler events via Server-Sent Events.
// GET /api/v1/events
func (s *Server) handleSSEEvents(w http.ResponseWriter, r *http.Request) {
	// Set headers for SSE.
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no") // Disable nginx buffering

	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "SSE not supported", http.StatusInternalServerError)
		return
	}

	// Bridge the bus onto a local channel; the bus drops on overflow so a
	// stalled client cannot back-pressure the scheduler.
	ch := make(chan events.Event, 256)
	unsub := s.bus.Subscribe(func(ev events.Event) {
		select {
		case ch <- ev:
		default:
		}
	})
	defer unsub()

	// Initial snapshot so late subscribers see current state.
	units, _ := s.scheduler.Snapshot()
	if err := sendSSEEvent(w, flusher, "init", units); err != nil {
		s.logger.Debug("sse client disconnected", "error", err)
		return
	}

	heartbeat := time.NewTicker(15 * time.Second)
	defer heartbeat.Stop()

	for {
		select {
		case <-r.Context().Done():
			return
		case ev := <-ch:
			if err := sendSSEEvent(w, flusher, string(ev.Type), ev); err != nil {
				s.logger.Debug("sse client disconnected")
				return
			}
			if ev.Type == events.TypeRunCompleted {
				return
			}
		case <-heartbeat.C:
			fmt.Fprintf(w, ": heartbeat\n\n")
			flusher.Flush()
		}
	}
}

func sendSSEEvent(w http.ResponseWriter, flusher http.Flusher, event string, data any) error {
	jsonData, err := json.Marshal(data)
	if err != nil {
		return err
	}

	_, err = fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event, jsonData)
	if err != nil {
		return err
	}
	flusher.Flush()
	return nil
}
