package command

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/kbukum/hybridstt/logger"
)

func TestForward(t *testing.T) {
	var got Request
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/commands" {
			t.Errorf("request = %s %s", r.Method, r.URL.Path)
		}
		if auth := r.Header.Get("Authorization"); auth != "Bearer tok" {
			t.Errorf("Authorization = %q", auth)
		}
		if id := r.Header.Get("X-Request-Id"); id != "req-7" {
			t.Errorf("X-Request-Id = %q", id)
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Fatalf("decode: %v", err)
		}
		_, _ = w.Write([]byte(`{"response":"lights on","action":"lights.on"}`))
	}))
	defer srv.Close()

	f, err := New(Config{Enabled: true, URL: srv.URL + "/commands", Token: "tok"}, nil)
	if err != nil {
		t.Fatal(err)
	}
	ctx := logger.ContextWithRequestID(context.Background(), "req-7")
	resp := f.Forward(ctx, "turn on the lights", map[string]any{"language": "en"}, "")
	if !resp.Success || resp.Response != "lights on" {
		t.Fatalf("Forward() = %+v", resp)
	}
	if resp.ActionTaken == nil || *resp.ActionTaken != "lights.on" {
		t.Errorf("ActionTaken = %v", resp.ActionTaken)
	}
	if got.Text != "turn on the lights" || got.Source != DefaultSource || got.Metadata["language"] != "en" {
		t.Errorf("payload = %+v", got)
	}
}

func TestForward_Failures(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	f, err := New(Config{Enabled: true, URL: srv.URL}, nil)
	if err != nil {
		t.Fatal(err)
	}
	resp := f.Forward(context.Background(), "hello", nil, "test")
	if resp.Success {
		t.Fatal("Success = true for a 502")
	}
	if !strings.Contains(resp.Response, "502") {
		t.Errorf("Response = %q, want the status", resp.Response)
	}
	if resp.ActionTaken != nil {
		t.Errorf("ActionTaken = %v", *resp.ActionTaken)
	}
}

func TestForward_Disabled(t *testing.T) {
	f, err := New(Config{}, nil)
	if err != nil {
		t.Fatal(err)
	}
	if f.IsAvailable(context.Background()) {
		t.Error("disabled forwarder reports available")
	}
	resp := f.Forward(context.Background(), "hello", nil, "")
	if resp.Success || !strings.Contains(resp.Response, "not configured") {
		t.Errorf("Forward() = %+v", resp)
	}
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{"disabled", Config{}, false},
		{"valid", Config{Enabled: true, URL: "https://llm.internal/cmd"}, false},
		{"missing url", Config{Enabled: true}, true},
		{"bad scheme", Config{Enabled: true, URL: "ftp://x"}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.cfg.Validate(); (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
