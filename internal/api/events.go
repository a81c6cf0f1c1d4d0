package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"subforge/internal/logging"
)

const (
	eventBatch     = 100
	eventKeepAlive = 25 * time.Second
)

// events streams hub notifications as Server-Sent Events. A reconnecting
// client resumes after the Last-Event-ID header, or ?since= when the header
// is absent. Without either, the stream starts with the next notification.
func (s *Server) events(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		writeJSON(w, http.StatusInternalServerError, errorBody{Error: "streaming unsupported"})
		return
	}
	hub := s.wb.Hub()
	since := hub.Last()
	cursor := strings.TrimSpace(r.Header.Get("Last-Event-ID"))
	if cursor == "" {
		cursor = strings.TrimSpace(r.URL.Query().Get("since"))
	}
	if cursor != "" {
		parsed, err := strconv.ParseUint(cursor, 10, 64)
		if err != nil {
			badRequest(w, "event cursor must be a sequence number")
			return
		}
		since = parsed
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	logger := logging.WithContext(r.Context(), s.logger)
	for {
		ctx, cancel := context.WithTimeout(r.Context(), eventKeepAlive)
		batch, next, err := hub.Fetch(ctx, since, eventBatch, true)
		cancel()
		for _, n := range batch {
			data, encErr := json.Marshal(n)
			if encErr != nil {
				logger.Warn("encode notification failed", logging.Error(encErr))
				continue
			}
			if _, werr := fmt.Fprintf(w, "id: %d\nevent: %s\ndata: %s\n\n", n.Sequence, n.Type, data); werr != nil {
				return
			}
		}
		if len(batch) > 0 {
			since = next
		}
		switch {
		case r.Context().Err() != nil:
			return
		case errors.Is(err, context.DeadlineExceeded) && len(batch) == 0:
			if _, werr := fmt.Fprint(w, ": keep-alive\n\n"); werr != nil {
				return
			}
		}
		flusher.Flush()
	}
}
