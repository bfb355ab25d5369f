package app

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/kbukum/hybridstt/audio/audiotest"
	"github.com/kbukum/hybridstt/hybrid"
	"github.com/kbukum/hybridstt/server/middleware"
	"github.com/kbukum/hybridstt/storage"
	"github.com/kbukum/hybridstt/transcription/local"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if !cfg.Hybrid.FallbackToLocal || !cfg.Speaker.Mandatory {
		t.Errorf("true-by-default switches lost: fallback=%v mandatory=%v", cfg.Hybrid.FallbackToLocal, cfg.Speaker.Mandatory)
	}
	if cfg.Hybrid.PrimaryService != hybrid.PrimaryRemote || cfg.Hybrid.MinConfidence != 0.85 {
		t.Errorf("hybrid defaults = %+v", cfg.Hybrid)
	}
	if cfg.Name != ServiceName {
		t.Errorf("name = %q", cfg.Name)
	}
}

func TestLoad_FileAndEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yml")
	yml := `
name: hybridstt
environment: staging
hybrid:
  fallback_to_local: false
  min_confidence: 0.7
speaker:
  mandatory: false
`
	if err := os.WriteFile(path, []byte(yml), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	t.Setenv("REMOTE_API_KEY", "sk-from-env")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	cfg.ApplyDefaults()
	if cfg.Hybrid.FallbackToLocal {
		t.Error("explicit fallback_to_local: false was overridden")
	}
	if cfg.Speaker.Mandatory {
		t.Error("explicit speaker.mandatory: false was overridden")
	}
	if cfg.Hybrid.MinConfidence != 0.7 {
		t.Errorf("min_confidence = %v", cfg.Hybrid.MinConfidence)
	}
	if cfg.Hybrid.MinSpeakerMatch != 0.90 {
		t.Errorf("unset min_speaker_match = %v, want default", cfg.Hybrid.MinSpeakerMatch)
	}
	if cfg.Remote.APIKey != "sk-from-env" {
		t.Errorf("remote.api_key = %q", cfg.Remote.APIKey)
	}
}

func TestConfigValidate_NamesSection(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{"short speaker key", func(c *Config) { c.Speaker.Enabled, c.Speaker.EncryptionKey = true, "short" }, "speaker"},
		{"bad primary", func(c *Config) { c.Hybrid.PrimaryService = "cloud" }, "hybrid"},
		{"command without url", func(c *Config) { c.Command.Enabled = true }, "command"},
		{"auth without credentials", func(c *Config) { c.Auth.Enabled = true }, "auth"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			cfg.ApplyDefaults()
			err := cfg.Validate()
			if err == nil || !strings.HasPrefix(err.Error(), tt.want) {
				t.Fatalf("Validate() = %v, want %s error", err, tt.want)
			}
		})
	}
}

// fakeOpenAI serves the endpoints the remote backend uses.
func fakeOpenAI(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/audio/transcriptions", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer sk-test" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"text":" hello world ","language":"en","duration":1.0}`))
	})
	mux.HandleFunc("/models", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"data":[{"id":"whisper-1"}]}`))
	})
	ts := httptest.NewServer(mux)
	t.Cleanup(ts.Close)
	return ts
}

func buildTestServices(t *testing.T, mutate func(*Config)) (*gin.Engine, *Config) {
	t.Helper()
	ts := fakeOpenAI(t)
	cfg := DefaultConfig()
	cfg.Remote.BaseURL = ts.URL
	cfg.Remote.APIKey = "sk-test"
	cfg.Local.BaseURL = ts.URL
	if mutate != nil {
		mutate(cfg)
	}
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}

	engine, err := local.NewEngine(cfg.Local, nil)
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}
	svc, err := BuildServices(cfg, Infra{
		Fragments: storage.NewMemory(),
		Model:     local.NewModel(engine, false),
	})
	if err != nil {
		t.Fatalf("BuildServices: %v", err)
	}
	if svc.Verifier != nil {
		t.Fatal("verifier built while speaker verification is disabled")
	}

	r := gin.New()
	if err := Mount(r, cfg, svc.Handler); err != nil {
		t.Fatalf("Mount: %v", err)
	}
	return r, cfg
}

func transcribeRequest(t *testing.T, headers map[string]string) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	fw, err := w.CreateFormFile("audio", "clip.wav")
	if err != nil {
		t.Fatalf("CreateFormFile: %v", err)
	}
	_, _ = fw.Write(audiotest.WAV(16000, 1, 1))
	_ = w.WriteField("language", "en")
	_ = w.Close()

	req := httptest.NewRequest(http.MethodPost, "/v1/transcribe", &buf)
	req.Header.Set("Content-Type", w.FormDataContentType())
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	return req
}

func TestBuildServices_TranscribesThroughRemote(t *testing.T) {
	r, _ := buildTestServices(t, nil)

	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, transcribeRequest(t, nil))
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d body=%s", rr.Code, rr.Body)
	}
	var res hybrid.Result
	if err := json.Unmarshal(rr.Body.Bytes(), &res); err != nil {
		t.Fatalf("body: %v", err)
	}
	if res.Source != hybrid.SourceRemote || res.Text != "hello world" {
		t.Errorf("result = %+v", res)
	}
	if res.Metadata.FallbackUsed || res.Metadata.ChunksProcessed != 1 || res.Metadata.Language != "en" {
		t.Errorf("metadata = %+v", res.Metadata)
	}
}

func TestBuildServices_Status(t *testing.T) {
	r, _ := buildTestServices(t, nil)

	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/v1/status", http.NoBody))
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d", rr.Code)
	}
	var st map[string]any
	_ = json.Unmarshal(rr.Body.Bytes(), &st)
	if st["remote"] != "ready" {
		t.Errorf("remote = %v", st["remote"])
	}
	if st["local"] == "ready" {
		t.Errorf("local sidecar has no /health but reported ready")
	}
	if st["primary_service"] != "remote" || st["fallback_enabled"] != true {
		t.Errorf("status = %v", st)
	}
}

func TestMount_RequiresAPIKeyWhenAuthEnabled(t *testing.T) {
	r, _ := buildTestServices(t, func(c *Config) {
		c.Auth.Enabled = true
		c.Auth.APIKeys = []string{"key-1"}
	})

	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, transcribeRequest(t, nil))
	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("without key: status = %d", rr.Code)
	}

	rr = httptest.NewRecorder()
	r.ServeHTTP(rr, transcribeRequest(t, map[string]string{middleware.HeaderAPIKey: "key-1"}))
	if rr.Code != http.StatusOK {
		t.Fatalf("with key: status = %d body=%s", rr.Code, rr.Body)
	}
}

func TestDescribeSpeaker_MasksKey(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Speaker.Enabled = true
	cfg.Speaker.EncryptionKey = "super-secret-voiceprint-key"
	cfg.ApplyDefaults()
	got := describeSpeaker(cfg.Speaker)
	if strings.Contains(got, "secret") {
		t.Fatalf("key leaked: %q", got)
	}
	if !strings.HasPrefix(got, "mandatory aes-gcm") {
		t.Errorf("describeSpeaker = %q", got)
	}
}
