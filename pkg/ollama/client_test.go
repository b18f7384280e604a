package ollama

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestEmbed(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/embeddings" {
			t.Errorf("path = %s", r.URL.Path)
		}
		var req embedRequest
		json.NewDecoder(r.Body).Decode(&req)
		if req.Model != "test-embed" {
			t.Errorf("model = %s", req.Model)
		}
		json.NewEncoder(w).Encode(embedResponse{Embedding: []float64{0.25, -0.5}})
	}))
	defer srv.Close()

	c := New(srv.URL, "test-embed", "test-chat")
	vec, err := c.Embed(context.Background(), "이낙연")
	if err != nil {
		t.Fatalf("Embed: %v", err)
	}
	if len(vec) != 2 || vec[0] != 0.25 || vec[1] != -0.5 {
		t.Errorf("vec = %v", vec)
	}
}

func TestEmbed_ServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := New(srv.URL, "m", "m")
	if _, err := c.Embed(context.Background(), "x"); err == nil {
		t.Fatal("Embed succeeded on 500")
	}
}

func TestComplete(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req generateRequest
		json.NewDecoder(r.Body).Decode(&req)
		if req.Stream {
			t.Error("Complete must not stream")
		}
		if req.Options["num_predict"] != float64(48) {
			t.Errorf("num_predict = %v", req.Options["num_predict"])
		}
		if req.Options["temperature"] != float64(0) {
			t.Errorf("temperature = %v", req.Options["temperature"])
		}
		json.NewEncoder(w).Encode(generateResponse{Response: ` ["이낙연"] `, Done: true})
	}))
	defer srv.Close()

	c := New(srv.URL, "m", "test-chat")
	out, err := c.Complete(context.Background(), "prompt", 48)
	if err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if out != `["이낙연"]` {
		t.Errorf("out = %q, want trimmed response", out)
	}
}

func TestStream(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req generateRequest
		json.NewDecoder(r.Body).Decode(&req)
		if !req.Stream {
			t.Error("Stream must stream")
		}
		for _, part := range []string{"이낙연은 ", "전 국무총리", "입니다."} {
			json.NewEncoder(w).Encode(generateResponse{Response: part})
		}
		json.NewEncoder(w).Encode(generateResponse{Done: true})
	}))
	defer srv.Close()

	c := New(srv.URL, "m", "test-chat")
	ch, err := c.Stream(context.Background(), "prompt")
	if err != nil {
		t.Fatalf("Stream: %v", err)
	}

	var b strings.Builder
	for chunk := range ch {
		if chunk.Err != nil {
			t.Fatalf("chunk error: %v", chunk.Err)
		}
		b.WriteString(chunk.Text)
	}
	if got := b.String(); got != "이낙연은 전 국무총리입니다." {
		t.Errorf("streamed = %q", got)
	}
}

func TestStream_BadStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "model not found", http.StatusNotFound)
	}))
	defer srv.Close()

	c := New(srv.URL, "m", "missing")
	if _, err := c.Stream(context.Background(), "p"); err == nil {
		t.Fatal("Stream succeeded on 404")
	}
}

func TestStream_ContextCancel(t *testing.T) {
	blocked := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintln(w, `{"response":"첫"}`)
		if f, ok := w.(http.Flusher); ok {
			f.Flush()
		}
		<-blocked
	}))
	defer srv.Close()
	defer close(blocked)

	ctx, cancel := context.WithCancel(context.Background())
	c := New(srv.URL, "m", "test-chat")
	ch, err := c.Stream(ctx, "p")
	if err != nil {
		t.Fatalf("Stream: %v", err)
	}

	<-ch // first chunk
	cancel()

	// Channel must close rather than hang.
	for range ch {
	}
}
