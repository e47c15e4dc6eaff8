package gateway

import (
	"bufio"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"strings"
	"sync"
)

// Stream is a finite, non-restartable sequence of completion deltas.
// Consume it with Recv until a Done delta (or error), or abandon it with
// Close; an abandoned stream stops pulling from the upstream body.
type Stream struct {
	events chan streamEvent
	cancel context.CancelFunc
	once   sync.Once
}

type streamEvent struct {
	delta Delta
	err   error
}

// Recv returns the next delta. After the Done delta (or an error) has been
// delivered, subsequent calls return io.EOF.
func (s *Stream) Recv() (Delta, error) {
	ev, ok := <-s.events
	if !ok {
		return Delta{}, io.EOF
	}
	return ev.delta, ev.err
}

// Close abandons the stream and releases the upstream connection. Safe to
// call multiple times and concurrently with Recv.
func (s *Stream) Close() {
	s.once.Do(s.cancel)
}

func newStream(ctx context.Context, cancel context.CancelFunc, body io.ReadCloser) *Stream {
	s := &Stream{
		events: make(chan streamEvent),
		cancel: cancel,
	}
	go s.consume(ctx, body)
	return s
}

// consume reads SSE lines from body and turns them into deltas. Malformed
// frames are logged and skipped; a literal [DONE] payload or EOF terminates
// the sequence with a final Done delta.
func (s *Stream) consume(ctx context.Context, body io.ReadCloser) {
	defer close(s.events)
	defer body.Close()

	scanner := bufio.NewScanner(body)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, ":") {
			continue
		}
		if !strings.HasPrefix(line, "data: ") {
			continue
		}
		payload := line[len("data: "):]

		if payload == "[DONE]" {
			s.send(ctx, streamEvent{delta: Delta{Done: true}})
			return
		}

		var chunk streamChunk
		if err := json.Unmarshal([]byte(payload), &chunk); err != nil {
			slog.Warn("skipping malformed stream frame", "error", err)
			continue
		}
		if len(chunk.Choices) == 0 || chunk.Choices[0].Delta.Content == "" {
			// Frames without delta content (role announcements, keepalives)
			// contribute nothing but do not end the stream.
			continue
		}
		if !s.send(ctx, streamEvent{delta: Delta{Content: chunk.Choices[0].Delta.Content, Model: chunk.Model}}) {
			return
		}
	}

	if err := scanner.Err(); err != nil && ctx.Err() == nil {
		s.send(ctx, streamEvent{err: mapTransportErr(err)})
		return
	}
	// Upstream closed without [DONE]; treat as normal completion.
	s.send(ctx, streamEvent{delta: Delta{Done: true}})
}

// send delivers an event unless the stream has been abandoned.
func (s *Stream) send(ctx context.Context, ev streamEvent) bool {
	select {
	case s.events <- ev:
		return true
	case <-ctx.Done():
		return false
	}
}
