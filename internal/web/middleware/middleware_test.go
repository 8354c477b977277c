package middleware

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/JonMunkholm/eleitores/internal/config"
	"github.com/JonMunkholm/eleitores/internal/core"
	"github.com/JonMunkholm/eleitores/internal/logging"
)

// ---- APIKeyAuth Tests ----

func TestAPIKeyAuth(t *testing.T) {
	ok := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})

	tests := []struct {
		name   string
		cfg    config.SecurityConfig
		key    string
		status int
	}{
		{"auth disabled", config.SecurityConfig{}, "", http.StatusNoContent},
		{"missing key", config.SecurityConfig{RequireAPIKey: true, APIKeys: []string{"k1"}}, "", http.StatusUnauthorized},
		{"wrong key", config.SecurityConfig{RequireAPIKey: true, APIKeys: []string{"k1"}}, "nope", http.StatusForbidden},
		{"valid key", config.SecurityConfig{RequireAPIKey: true, APIKeys: []string{"k1", "k2"}}, "k2", http.StatusNoContent},
		{"no keys configured", config.SecurityConfig{RequireAPIKey: true}, "k1", http.StatusForbidden},
		{"bearer token", config.SecurityConfig{RequireAPIKey: true, APIKeys: []string{"k1"}}, "bearer:k1", http.StatusNoContent},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := tt.cfg
			h := APIKeyAuth(&cfg)(ok)

			req := httptest.NewRequest(http.MethodGet, "/api/import/fields", nil)
			if token, ok := strings.CutPrefix(tt.key, "bearer:"); ok {
				req.Header.Set("Authorization", "Bearer "+token)
			} else if tt.key != "" {
				req.Header.Set(APIKeyHeader, tt.key)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)

			if rec.Code != tt.status {
				t.Errorf("status = %d, want %d", rec.Code, tt.status)
			}
		})
	}
}

// ---- TrustedRealIP Tests ----

func TestTrustedRealIP(t *testing.T) {
	tests := []struct {
		name       string
		trusted    []string
		remoteAddr string
		headers    map[string]string
		want       string
	}{
		{
			name:       "untrusted source ignores headers",
			trusted:    []string{"10.0.0.0/8"},
			remoteAddr: "203.0.113.7:5000",
			headers:    map[string]string{"X-Real-IP": "1.2.3.4"},
			want:       "203.0.113.7",
		},
		{
			name:       "trusted proxy X-Real-IP",
			trusted:    []string{"10.0.0.0/8"},
			remoteAddr: "10.1.2.3:5000",
			headers:    map[string]string{"X-Real-IP": "198.51.100.9"},
			want:       "198.51.100.9",
		},
		{
			name:       "X-Forwarded-For skips trusted hops from the right",
			trusted:    []string{"127.0.0.1", "10.0.0.0/8"},
			remoteAddr: "127.0.0.1:5000",
			headers:    map[string]string{"X-Forwarded-For": "198.51.100.9, 10.0.0.1"},
			want:       "198.51.100.9",
		},
		{
			name:       "X-Forwarded-For ignores spoofed left hops",
			trusted:    []string{"127.0.0.1"},
			remoteAddr: "127.0.0.1:5000",
			headers:    map[string]string{"X-Forwarded-For": "1.1.1.1, 198.51.100.9"},
			want:       "198.51.100.9",
		},
		{
			name:       "malformed trusted entry is dropped",
			trusted:    []string{"not-a-cidr"},
			remoteAddr: "127.0.0.1:5000",
			headers:    map[string]string{"X-Real-IP": "198.51.100.9"},
			want:       "127.0.0.1",
		},
		{
			name:       "ipv6 peer",
			trusted:    nil,
			remoteAddr: "[2001:db8::1]:5000",
			want:       "2001:db8::1",
		},
		{
			name:       "trusted proxy invalid header kept",
			trusted:    []string{"127.0.0.1/32"},
			remoteAddr: "127.0.0.1:5000",
			headers:    map[string]string{"X-Real-IP": "not-an-ip"},
			want:       "127.0.0.1",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got string
			h := TrustedRealIP(tt.trusted)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				got = ClientIP(r)
			}))

			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.RemoteAddr = tt.remoteAddr
			for k, v := range tt.headers {
				req.Header.Set(k, v)
			}
			h.ServeHTTP(httptest.NewRecorder(), req)

			if got != tt.want {
				t.Errorf("ClientIP = %q, want %q", got, tt.want)
			}
		})
	}
}

// ---- Operator Tests ----

func TestOperator(t *testing.T) {
	tests := []struct {
		name   string
		header string
		want   string
	}{
		{"present", "7f0c2a52-4c1e-4b8e-9d4e-8f1d2b3c4a5e", "7f0c2a52-4c1e-4b8e-9d4e-8f1d2b3c4a5e"},
		{"trimmed", "  op-1 ", "op-1"},
		{"absent", "", ""},
		{"too long", strings.Repeat("a", 65), ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got string
			h := Operator(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				got = core.OperatorFromContext(r.Context())
			}))

			req := httptest.NewRequest(http.MethodPost, "/api/import/sessions", nil)
			if tt.header != "" {
				req.Header.Set(OperatorHeader, tt.header)
			}
			h.ServeHTTP(httptest.NewRecorder(), req)

			if got != tt.want {
				t.Errorf("operator = %q, want %q", got, tt.want)
			}
		})
	}
}

// ---- Logger Tests ----

func TestLogger_CapturesStatus(t *testing.T) {
	h := Logger(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
		w.WriteHeader(http.StatusOK)
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	if rec.Code != http.StatusTeapot {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusTeapot)
	}
}

func TestLogger_IncludesRequestFields(t *testing.T) {
	var buf bytes.Buffer
	prev := slog.Default()
	slog.SetDefault(logging.New(&buf, "debug", "json"))
	t.Cleanup(func() { slog.SetDefault(prev) })

	h := TrustedRealIP(nil)(Operator(Logger(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "missing", http.StatusNotFound)
	}))))

	req := httptest.NewRequest(http.MethodGet, "/api/import/sessions/x", nil)
	req.RemoteAddr = "203.0.113.7:5000"
	req.Header.Set(OperatorHeader, "op-9")
	h.ServeHTTP(httptest.NewRecorder(), req)

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("log line is not JSON: %v (%q)", err, buf.String())
	}
	want := map[string]any{
		"level":       "WARN",
		"msg":         "request",
		"status":      float64(http.StatusNotFound),
		"client_ip":   "203.0.113.7",
		"operator_id": "op-9",
		"path":        "/api/import/sessions/x",
	}
	for k, v := range want {
		if entry[k] != v {
			t.Errorf("%s = %v, want %v", k, entry[k], v)
		}
	}
}
