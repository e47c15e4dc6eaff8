package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/vetwatch/vetwatch/internal/chat"
)

// sseWriter delivers relay frames as server-sent events. Headers are set
// on the first frame so an error before any frame can still use a normal
// JSON status response.
type sseWriter struct {
	w       http.ResponseWriter
	flusher http.Flusher
	started bool
}

func newSSEWriter(w http.ResponseWriter) (*sseWriter, error) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		return nil, errors.New("streaming not supported")
	}
	return &sseWriter{w: w, flusher: flusher}, nil
}

// WriteFrame implements chat.FrameWriter. A write error means the client
// disconnected.
func (s *sseWriter) WriteFrame(f chat.Frame) error {
	if !s.started {
		s.w.Header().Set("Content-Type", "text/event-stream")
		s.w.Header().Set("Cache-Control", "no-cache")
		s.w.Header().Set("Connection", "keep-alive")
		s.started = true
	}

	payload, err := json.Marshal(f)
	if err != nil {
		return fmt.Errorf("marshaling frame: %w", err)
	}
	if _, err := fmt.Fprintf(s.w, "data: %s\n\n", payload); err != nil {
		return err
	}
	s.flusher.Flush()
	return nil
}
