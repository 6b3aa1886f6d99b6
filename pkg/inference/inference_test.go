package inference

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestRequest(t *testing.T) {
	var gotBody chatRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := json.NewDecoder(r.Body).Decode(&gotBody); err != nil {
			t.Errorf("bad request body: %v", err)
		}
		json.NewEncoder(w).Encode(map[string]any{
			"choices": []map[string]any{
				{"message": map[string]string{"role": "assistant", "content": "term:simpler"}},
			},
		})
	}))
	defer server.Close()

	client := NewHTTPClient(server.URL, "test-model", "")
	answer, err := client.Request(context.Background(), "simplify these", "some article text")
	if err != nil {
		t.Fatalf("Request() error: %v", err)
	}
	if answer != "term:simpler" {
		t.Errorf("answer = %q", answer)
	}

	if gotBody.Model != "test-model" {
		t.Errorf("model = %q", gotBody.Model)
	}
	if len(gotBody.Messages) != 1 {
		t.Fatalf("got %d messages, want 1", len(gotBody.Messages))
	}
	if gotBody.Messages[0].Content != "simplify these\n\nsome article text" {
		t.Errorf("content = %q", gotBody.Messages[0].Content)
	}
}

func TestRequestErrors(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
	}{
		{
			name: "http error status",
			handler: func(w http.ResponseWriter, r *http.Request) {
				http.Error(w, "rate limited", http.StatusTooManyRequests)
			},
		},
		{
			name: "error payload",
			handler: func(w http.ResponseWriter, r *http.Request) {
				json.NewEncoder(w).Encode(map[string]any{
					"error": map[string]string{"message": "model not found"},
				})
			},
		},
		{
			name: "empty choices",
			handler: func(w http.ResponseWriter, r *http.Request) {
				json.NewEncoder(w).Encode(map[string]any{"choices": []any{}})
			},
		},
		{
			name: "garbage body",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte("not json"))
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(tt.handler)
			defer server.Close()

			client := NewHTTPClient(server.URL, "m", "")
			if _, err := client.Request(context.Background(), "p", "c"); err == nil {
				t.Error("expected an error")
			}
		})
	}
}

func TestRequestHonorsContext(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	defer server.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	client := NewHTTPClient(server.URL, "m", "")
	if _, err := client.Request(ctx, "p", "c"); err == nil {
		t.Error("expected context cancellation error")
	}
}
