package main

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

type recordedRequest struct {
	Method string
	Path   string
	Body   string
	Auth   string
}

type testServer struct {
	server   *httptest.Server
	requests []recordedRequest
}

func newTestServer(t *testing.T, responses map[string]string) *testServer {
	t.Helper()
	ts := &testServer{}

	ts.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body bytes.Buffer
		body.ReadFrom(r.Body)

		ts.requests = append(ts.requests, recordedRequest{
			Method: r.Method,
			Path:   r.URL.RequestURI(),
			Body:   body.String(),
			Auth:   r.Header.Get("Authorization"),
		})

		key := r.Method + " " + r.URL.Path
		if resp, ok := responses[key]; ok {
			w.Header().Set("Content-Type", "application/json")
			w.Write([]byte(resp))
			return
		}

		w.WriteHeader(404)
		w.Write([]byte(`{"error":{"message":"not found","type":"not_found"}}`))
	}))

	t.Cleanup(ts.server.Close)
	return ts
}

func (ts *testServer) client() *apiClient {
	return &apiClient{
		baseURL:    ts.server.URL,
		token:      "test-token",
		httpClient: ts.server.Client(),
	}
}

func TestClientSendsBearerToken(t *testing.T) {
	ts := newTestServer(t, map[string]string{
		"GET /api/agents": `{"success":true,"data":[]}`,
	})

	resp, err := ts.client().get(context.Background(), "/api/agents")
	if err != nil {
		t.Fatalf("get error: %v", err)
	}
	var agents []any
	if err := decodeData(resp, &agents); err != nil {
		t.Fatalf("decodeData error: %v", err)
	}

	if len(ts.requests) != 1 || ts.requests[0].Auth != "Bearer test-token" {
		t.Errorf("requests = %+v", ts.requests)
	}
}

func TestClientOmitsAuthWithoutToken(t *testing.T) {
	ts := newTestServer(t, map[string]string{
		"GET /health": `{"status":"ok"}`,
	})

	c := ts.client()
	c.token = ""
	resp, err := c.get(context.Background(), "/health")
	if err != nil {
		t.Fatalf("get error: %v", err)
	}
	resp.Body.Close()

	if ts.requests[0].Auth != "" {
		t.Errorf("Authorization = %q, want empty", ts.requests[0].Auth)
	}
}

func TestDecodeDataUnwrapsEnvelope(t *testing.T) {
	ts := newTestServer(t, map[string]string{
		"POST /api/agents/chat": `{"success":true,"data":{"content":"check the filters"}}`,
	})

	resp, err := ts.client().post(context.Background(), "/api/agents/chat", map[string]any{
		"agentId": "sampler", "message": "sampler reads zero",
	})
	if err != nil {
		t.Fatalf("post error: %v", err)
	}

	var data struct {
		Content string `json:"content"`
	}
	if err := decodeData(resp, &data); err != nil {
		t.Fatalf("decodeData error: %v", err)
	}
	if data.Content != "check the filters" {
		t.Errorf("Content = %q", data.Content)
	}

	if !strings.Contains(ts.requests[0].Body, `"agentId":"sampler"`) {
		t.Errorf("request body = %q", ts.requests[0].Body)
	}
}

func TestDecodeDataSurfacesServerError(t *testing.T) {
	ts := newTestServer(t, nil)

	resp, err := ts.client().get(context.Background(), "/api/agents/nobody")
	if err != nil {
		t.Fatalf("get error: %v", err)
	}

	err = decodeData(resp, nil)
	if err == nil || !strings.Contains(err.Error(), "404") {
		t.Errorf("err = %v, want 404 in message", err)
	}
}
