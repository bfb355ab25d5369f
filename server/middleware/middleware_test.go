package middleware

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/kbukum/hybridstt/auth"
	"github.com/kbukum/hybridstt/auth/authctx"
	"github.com/kbukum/hybridstt/auth/jwt"
	"github.com/kbukum/hybridstt/logger"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func errorCode(t *testing.T, body []byte) string {
	t.Helper()
	var resp struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		t.Fatalf("response is not valid JSON: %v (%s)", err, body)
	}
	return resp.Error.Code
}

func TestRecovery_Panic(t *testing.T) {
	r := gin.New()
	r.Use(Recovery(logger.NewNop()))
	r.GET("/boom", func(*gin.Context) { panic("test panic") })

	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/boom", http.NoBody))

	if rr.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rr.Code)
	}
	if code := errorCode(t, rr.Body.Bytes()); code != "INTERNAL_ERROR" {
		t.Fatalf("code = %q", code)
	}
	if strings.Contains(rr.Body.String(), "test panic") {
		t.Fatal("panic value leaked into response")
	}
}

func TestRequestID(t *testing.T) {
	var seen string
	h := RequestID()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = logger.RequestIDFromContext(r.Context())
	}))

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", http.NoBody))
	if seen == "" || rr.Header().Get(HeaderRequestID) != seen {
		t.Fatalf("generated id: ctx=%q header=%q", seen, rr.Header().Get(HeaderRequestID))
	}

	rr = httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/", http.NoBody)
	req.Header.Set(HeaderRequestID, "custom-id-123")
	h.ServeHTTP(rr, req)
	if seen != "custom-id-123" || rr.Header().Get(HeaderRequestID) != "custom-id-123" {
		t.Fatalf("existing id not preserved: %q", seen)
	}
}

func TestRequestLogger(t *testing.T) {
	var buf bytes.Buffer
	log := logger.NewWithWriter(&logger.Config{Level: "debug", Format: "json"}, "test", &buf)
	h := RequestLogger(log)(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusCreated)
	}))

	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/v1/transcribe", http.NoBody))
	if !strings.Contains(buf.String(), `"status":201`) || !strings.Contains(buf.String(), `"path":"/v1/transcribe"`) {
		t.Fatalf("log line missing fields: %s", buf.String())
	}

	buf.Reset()
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/health", http.NoBody))
	if buf.Len() != 0 {
		t.Fatalf("health probe should not be logged: %s", buf.String())
	}
}

func TestBodySizeLimit(t *testing.T) {
	h := BodySizeLimit(8)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, err := io.ReadAll(r.Body); err != nil {
			w.WriteHeader(http.StatusRequestEntityTooLarge)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))

	tests := []struct {
		name string
		body string
		want int
	}{
		{"under limit", "1234", http.StatusOK},
		{"declared over limit", "123456789", http.StatusRequestEntityTooLarge},
	}
	for _, tt := range tests {
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/", strings.NewReader(tt.body)))
		if rr.Code != tt.want {
			t.Errorf("%s: got %d, want %d", tt.name, rr.Code, tt.want)
		}
	}

	// Unknown length is enforced while reading.
	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/", io.NopCloser(strings.NewReader("123456789")))
	req.ContentLength = -1
	h.ServeHTTP(rr, req)
	if rr.Code != http.StatusRequestEntityTooLarge {
		t.Fatalf("streamed body: got %d", rr.Code)
	}
}

func TestCORS(t *testing.T) {
	cfg := CORSConfig{
		AllowedOrigins: []string{"https://example.com"},
		AllowedMethods: []string{"GET", "POST"},
	}
	called := false
	h := CORS(cfg)(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		called = true
	}))

	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/", http.NoBody)
	req.Header.Set("Origin", "https://example.com")
	h.ServeHTTP(rr, req)
	if got := rr.Header().Get("Access-Control-Allow-Origin"); got != "https://example.com" {
		t.Fatalf("allow-origin = %q", got)
	}

	rr = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, "/", http.NoBody)
	req.Header.Set("Origin", "https://evil.com")
	h.ServeHTTP(rr, req)
	if got := rr.Header().Get("Access-Control-Allow-Origin"); got != "" {
		t.Fatalf("disallowed origin got %q", got)
	}

	called = false
	rr = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodOptions, "/v1/transcribe", http.NoBody)
	req.Header.Set("Origin", "https://example.com")
	req.Header.Set("Access-Control-Request-Method", "POST")
	h.ServeHTTP(rr, req)
	if rr.Code != http.StatusNoContent || called {
		t.Fatalf("preflight: code=%d called=%v", rr.Code, called)
	}
}

func newAuthRouter(t *testing.T) (*gin.Engine, *jwt.Service[*jwt.Claims]) {
	t.Helper()
	jcfg := &jwt.Config{Secret: "0123456789abcdef0123456789abcdef"}
	reg, err := auth.FromConfig(auth.Config{Enabled: true, APIKeys: []string{"secret-key"}, JWT: jcfg})
	if err != nil {
		t.Fatal(err)
	}
	svc, err := jwt.NewService(jcfg, jwt.NewClaims)
	if err != nil {
		t.Fatal(err)
	}

	r := gin.New()
	r.Use(Auth(AuthConfig{Registry: reg, SkipPaths: []string{"/health"}}))
	whoami := func(c *gin.Context) {
		p, ok := authctx.Get[*auth.Principal](c.Request.Context())
		if !ok {
			c.String(http.StatusOK, "none")
			return
		}
		c.String(http.StatusOK, p.Scheme+":"+p.Subject+":"+logger.UserIDFromContext(c.Request.Context()))
	}
	r.GET("/health", whoami)
	r.GET("/v1/me", whoami)
	return r, svc
}

func TestAuth(t *testing.T) {
	r, svc := newAuthRouter(t)
	token, err := svc.GenerateAccess("alice")
	if err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name     string
		path     string
		headers  map[string]string
		wantCode int
		wantBody string
	}{
		{"skip path", "/health", nil, http.StatusOK, "none"},
		{"missing", "/v1/me", nil, http.StatusUnauthorized, ""},
		{"api key", "/v1/me", map[string]string{HeaderAPIKey: "secret-key"}, http.StatusOK, "api_key::"},
		{"bad api key", "/v1/me", map[string]string{HeaderAPIKey: "nope"}, http.StatusUnauthorized, ""},
		{"bearer", "/v1/me", map[string]string{"Authorization": "Bearer " + token}, http.StatusOK, "jwt:alice:alice"},
		{"bad bearer", "/v1/me", map[string]string{"Authorization": "Bearer abc"}, http.StatusUnauthorized, ""},
		{"basic scheme", "/v1/me", map[string]string{"Authorization": "Basic abc"}, http.StatusUnauthorized, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, tt.path, http.NoBody)
			for k, v := range tt.headers {
				req.Header.Set(k, v)
			}
			rr := httptest.NewRecorder()
			r.ServeHTTP(rr, req)
			if rr.Code != tt.wantCode {
				t.Fatalf("code = %d, want %d (%s)", rr.Code, tt.wantCode, rr.Body.String())
			}
			if tt.wantCode == http.StatusOK && rr.Body.String() != tt.wantBody {
				t.Fatalf("body = %q, want %q", rr.Body.String(), tt.wantBody)
			}
			if tt.wantCode == http.StatusUnauthorized {
				if code := errorCode(t, rr.Body.Bytes()); code != "UNAUTHORIZED" {
					t.Fatalf("error code = %q", code)
				}
			}
		})
	}
}

func TestRateLimit(t *testing.T) {
	r := gin.New()
	r.Use(RateLimit(RateLimitConfig{
		RequestsPerMinute: 2,
		KeyFunc:           func(c *gin.Context) string { return c.GetHeader("X-Caller") },
	}))
	r.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })

	do := func(caller string) int {
		req := httptest.NewRequest(http.MethodGet, "/", http.NoBody)
		req.Header.Set("X-Caller", caller)
		rr := httptest.NewRecorder()
		r.ServeHTTP(rr, req)
		return rr.Code
	}

	for i := 0; i < 2; i++ {
		if code := do("a"); code != http.StatusOK {
			t.Fatalf("request %d: %d", i, code)
		}
	}
	if code := do("a"); code != http.StatusTooManyRequests {
		t.Fatalf("third request: %d", code)
	}
	if code := do("b"); code != http.StatusOK {
		t.Fatalf("other caller limited: %d", code)
	}
}

func TestChain_Order(t *testing.T) {
	var order []string
	mk := func(name string) Middleware {
		return func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				order = append(order, name+"-before")
				next.ServeHTTP(w, r)
				order = append(order, name+"-after")
			})
		}
	}
	h := Chain(mk("m1"), mk("m2"))(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		order = append(order, "handler")
	}))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", http.NoBody))

	want := []string{"m1-before", "m2-before", "handler", "m2-after", "m1-after"}
	if strings.Join(order, ",") != strings.Join(want, ",") {
		t.Fatalf("order = %v", order)
	}
}
