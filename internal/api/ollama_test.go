package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/ShayCichocki/o1/pkg/models"
)

func TestOllamaClient_Complete(t *testing.T) {
	var got chatRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/chat/completions" {
			t.Errorf("path = %q", r.URL.Path)
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decode: %v", err)
		}
		io.WriteString(w, `{"choices":[{"message":{"role":"assistant","content":"step one"},"finish_reason":"stop"}],"usage":{"prompt_tokens":5,"completion_tokens":2}}`)
	}))
	defer srv.Close()

	client := NewOllamaClient(OllamaConfig{BaseURL: srv.URL + "/"})
	text, err := client.Complete(context.Background(), OllamaCapable, "sys", "task")
	if err != nil {
		t.Fatalf("Complete failed: %v", err)
	}
	if text != "step one" {
		t.Errorf("text = %q, want %q", text, "step one")
	}

	if got.Model != OllamaCapable {
		t.Errorf("model = %q", got.Model)
	}
	if got.Stream {
		t.Error("stream should be false")
	}
	want := []chatMessage{
		{Role: string(models.RoleSystem), Content: "sys"},
		{Role: string(models.RoleUser), Content: "task"},
	}
	if len(got.Messages) != len(want) {
		t.Fatalf("messages = %+v, want %+v", got.Messages, want)
	}
	for i := range want {
		if got.Messages[i] != want[i] {
			t.Errorf("messages[%d] = %+v, want %+v", i, got.Messages[i], want[i])
		}
	}

	in, out := client.Tracker().Total()
	if in != 5 || out != 2 {
		t.Errorf("tokens = %d/%d, want 5/2", in, out)
	}
}

func TestOllamaClient_Errors(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
	}{
		{"server error", http.StatusInternalServerError, `model not loaded`},
		{"malformed json", http.StatusOK, `{not json`},
		{"no choices", http.StatusOK, `{"choices":[]}`},
		{"empty content", http.StatusOK, `{"choices":[{"message":{"role":"assistant","content":"  "}}]}`},
		{"error payload", http.StatusOK, `{"error":{"message":"quota"}}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				io.WriteString(w, tt.body)
			}))
			defer srv.Close()

			client := NewOllamaClient(OllamaConfig{BaseURL: srv.URL})
			_, err := client.Complete(context.Background(), "m", "s", "u")
			if !errors.Is(err, ErrGeneration) {
				t.Fatalf("error = %v, want ErrGeneration", err)
			}
			var genErr *GenerationError
			if !errors.As(err, &genErr) || genErr.Backend != "ollama" {
				t.Errorf("error = %#v, want ollama GenerationError", err)
			}
		})
	}
}

func TestOllamaClient_Unreachable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	client := NewOllamaClient(OllamaConfig{BaseURL: url})
	if _, err := client.Complete(context.Background(), "m", "s", "u"); !errors.Is(err, ErrGeneration) {
		t.Errorf("error = %v, want ErrGeneration", err)
	}
}

func TestNewOllamaClient_Defaults(t *testing.T) {
	client := NewOllamaClient(OllamaConfig{})
	if client.baseURL != DefaultOllamaURL {
		t.Errorf("baseURL = %q, want %q", client.baseURL, DefaultOllamaURL)
	}
	if client.httpClient == nil {
		t.Error("httpClient should not be nil")
	}
}
