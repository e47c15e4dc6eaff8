package chat

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/vetwatch/vetwatch/internal/agent"
	"github.com/vetwatch/vetwatch/internal/conversation"
	"github.com/vetwatch/vetwatch/internal/gateway"
)

// frameCollector records frames and optionally fails on a given type.
type frameCollector struct {
	frames   []Frame
	failType string
}

func (c *frameCollector) WriteFrame(f Frame) error {
	if c.failType != "" && f.Type == c.failType {
		return errors.New("client gone")
	}
	c.frames = append(c.frames, f)
	return nil
}

func newTestService(t *testing.T, upstream http.Handler) (*Service, *conversation.Manager) {
	t.Helper()

	cfg := gateway.Config{Timeout: 5 * time.Second, StreamTimeout: 5 * time.Second}
	if upstream != nil {
		srv := httptest.NewServer(upstream)
		t.Cleanup(srv.Close)
		cfg.BaseURL = srv.URL
	} else {
		cfg.SimLatency = time.Millisecond
	}

	conv := conversation.NewManager(nil)
	return NewService(agent.NewRegistry(), gateway.NewClient(cfg), conv), conv
}

func completionHandler(content string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprintf(w, `{"model":"test-model","choices":[{"message":{"content":%q}}],"usage":{"prompt_tokens":10,"completion_tokens":5,"total_tokens":15}}`, content)
	})
}

func sseHandler(chunks ...string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		fl := w.(http.Flusher)
		for _, c := range chunks {
			fmt.Fprintf(w, "data: {\"model\":\"test-model\",\"choices\":[{\"delta\":{\"content\":%q}}]}\n\n", c)
			fl.Flush()
		}
		fmt.Fprint(w, "data: [DONE]\n\n")
		fl.Flush()
	})
}

func TestChatRecordsTurn(t *testing.T) {
	svc, conv := newTestService(t, completionHandler("check the inlet filters"))

	reply, err := svc.Chat(context.Background(), Request{
		PersonaID: "sampler",
		Message:   "sampler reads zero",
		UserID:    "u1",
	})
	if err != nil {
		t.Fatalf("Chat error: %v", err)
	}
	if reply.Content != "check the inlet filters" {
		t.Errorf("Content = %q", reply.Content)
	}
	if reply.Persona.ID != "sampler" || reply.Persona.Name != "Dr. Wen" {
		t.Errorf("Persona = %+v", reply.Persona)
	}
	if reply.Model != "test-model" || reply.Usage.Total != 15 {
		t.Errorf("metadata = model %q usage %+v", reply.Model, reply.Usage)
	}

	// Default session key is userID-personaID.
	hist := conv.History("u1-sampler")
	if len(hist) != 2 || hist[0].Content != "sampler reads zero" || hist[1].Content != "check the inlet filters" {
		t.Errorf("History = %+v", hist)
	}
}

func TestChatHistoryFeedsNextTurn(t *testing.T) {
	var gotMessages int
	upstream := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			Messages []gateway.Message `json:"messages"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Errorf("decoding request: %v", err)
		}
		gotMessages = len(body.Messages)
		completionHandler("ok").ServeHTTP(w, r)
	})
	svc, _ := newTestService(t, upstream)

	req := Request{PersonaID: "analyst", Message: "first", SessionKey: "s1"}
	if _, err := svc.Chat(context.Background(), req); err != nil {
		t.Fatalf("first Chat error: %v", err)
	}
	req.Message = "second"
	if _, err := svc.Chat(context.Background(), req); err != nil {
		t.Fatalf("second Chat error: %v", err)
	}

	// system + 2 history entries + new user message.
	if gotMessages != 4 {
		t.Errorf("second request carried %d messages, want 4", gotMessages)
	}
}

func TestChatUnknownPersona(t *testing.T) {
	upstream := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("unknown persona must not reach the gateway")
	})
	svc, _ := newTestService(t, upstream)

	_, err := svc.Chat(context.Background(), Request{PersonaID: "nobody", Message: "hi"})
	if !errors.Is(err, agent.ErrPersonaNotFound) {
		t.Errorf("err = %v, want ErrPersonaNotFound", err)
	}
}

func TestChatUpstreamFailure(t *testing.T) {
	upstream := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "gateway exploded", http.StatusServiceUnavailable)
	})
	svc, conv := newTestService(t, upstream)

	_, err := svc.Chat(context.Background(), Request{PersonaID: "sampler", Message: "hi", SessionKey: "s1"})
	var ue *gateway.UpstreamError
	if !errors.As(err, &ue) || ue.StatusCode != http.StatusServiceUnavailable {
		t.Fatalf("err = %v, want UpstreamError 503", err)
	}
	if hist := conv.History("s1"); len(hist) != 0 {
		t.Errorf("failed turn must not be recorded, got %+v", hist)
	}
}

func TestStreamChatFrameSequence(t *testing.T) {
	svc, conv := newTestService(t, sseHandler("Hel", "lo"))
	w := &frameCollector{}

	err := svc.StreamChat(context.Background(), Request{
		PersonaID: "scout", Message: "latest outbreaks?", SessionKey: "s1",
	}, w)
	if err != nil {
		t.Fatalf("StreamChat error: %v", err)
	}

	types := make([]string, len(w.frames))
	for i, f := range w.frames {
		types[i] = f.Type
	}
	want := []string{"start", "chunk", "chunk", "end"}
	if len(types) != len(want) {
		t.Fatalf("frames = %v, want %v", types, want)
	}
	for i := range want {
		if types[i] != want[i] {
			t.Fatalf("frames = %v, want %v", types, want)
		}
	}

	if w.frames[0].Agent == nil || w.frames[0].Agent.ID != "scout" || w.frames[0].Agent.Name != "Mr. Lei" {
		t.Errorf("start frame agent = %+v", w.frames[0].Agent)
	}
	if w.frames[1].Content != "Hel" || w.frames[2].Content != "lo" {
		t.Errorf("chunk contents = %q, %q", w.frames[1].Content, w.frames[2].Content)
	}
	if w.frames[3].Metadata == nil {
		t.Error("end frame missing metadata")
	}

	hist := conv.History("s1")
	if len(hist) != 2 || hist[1].Content != "Hello" {
		t.Errorf("History = %+v, want assembled transcript", hist)
	}
}

func TestStreamChatErrorAfterStart(t *testing.T) {
	upstream := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "bad gateway", http.StatusBadGateway)
	})
	svc, conv := newTestService(t, upstream)
	w := &frameCollector{}

	err := svc.StreamChat(context.Background(), Request{
		PersonaID: "reporter", Message: "brief please", SessionKey: "s1",
	}, w)
	if err != nil {
		t.Fatalf("StreamChat error: %v (failure after start is reported in-band)", err)
	}

	if len(w.frames) != 2 || w.frames[0].Type != "start" || w.frames[1].Type != "error" {
		t.Fatalf("frames = %+v, want start then error", w.frames)
	}
	if hist := conv.History("s1"); len(hist) != 0 {
		t.Errorf("failed stream must not be recorded, got %+v", hist)
	}
}

func TestStreamChatUnknownPersonaEmitsNothing(t *testing.T) {
	upstream := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("unknown persona must not reach the gateway")
	})
	svc, _ := newTestService(t, upstream)
	w := &frameCollector{}

	err := svc.StreamChat(context.Background(), Request{PersonaID: "nobody", Message: "hi"}, w)
	if !errors.Is(err, agent.ErrPersonaNotFound) {
		t.Errorf("err = %v, want ErrPersonaNotFound", err)
	}
	if len(w.frames) != 0 {
		t.Errorf("frames = %+v, want none", w.frames)
	}
}

func TestStreamChatClientGoneAbandons(t *testing.T) {
	svc, conv := newTestService(t, sseHandler("Hel", "lo"))
	w := &frameCollector{failType: "chunk"}

	err := svc.StreamChat(context.Background(), Request{
		PersonaID: "sampler", Message: "hi", SessionKey: "s1",
	}, w)
	if err == nil {
		t.Fatal("StreamChat should surface the write failure")
	}
	if hist := conv.History("s1"); len(hist) != 0 {
		t.Errorf("abandoned stream must not be recorded, got %+v", hist)
	}
}
