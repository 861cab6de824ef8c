package security

import (
	"bytes"
	"crypto/tls"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"backoffice/internal/log"
)

func TestHeadersMiddleware(t *testing.T) {
	h := NewHeadersMiddleware(DefaultHeadersConfig()).Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Contains(t, rec.Header().Get("Content-Security-Policy"), "https://unpkg.com")
	assert.Equal(t, "DENY", rec.Header().Get("X-Frame-Options"))
	assert.Empty(t, rec.Header().Get("Strict-Transport-Security"), "no HSTS over plain http")

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.TLS = &tls.ConnectionState{}
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, "max-age=31536000; includeSubDomains", rec.Header().Get("Strict-Transport-Security"))
}

func TestHeadersMiddlewareSkipsEmpty(t *testing.T) {
	cfg := DefaultHeadersConfig()
	cfg.CSP = ""
	h := NewHeadersMiddleware(cfg).Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	_, present := rec.Header()["Content-Security-Policy"]
	assert.False(t, present)
}

func TestStaticAssetMiddleware(t *testing.T) {
	h := StaticAssetMiddleware(3600)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/static/app.css", nil))
	assert.Equal(t, "public, max-age=3600", rec.Header().Get("Cache-Control"))
}

func TestClientIP(t *testing.T) {
	d := NewDetector()
	tests := []struct {
		name   string
		remote string
		xff    string
		xri    string
		want   string
	}{
		{"direct", "203.0.113.7:5555", "", "", "203.0.113.7"},
		{"untrusted peer ignores xff", "203.0.113.7:5555", "1.2.3.4", "", "203.0.113.7"},
		{"trusted proxy xff", "10.1.2.3:80", "198.51.100.4, 10.1.2.3", "", "198.51.100.4"},
		{"trusted proxy real ip", "127.0.0.1:80", "", "198.51.100.9", "198.51.100.9"},
		{"trusted proxy junk header", "192.168.1.1:80", "not-an-ip", "", "192.168.1.1"},
		{"unparseable remote", "pipe", "", "", "pipe"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodGet, "/", nil)
			r.RemoteAddr = tt.remote
			if tt.xff != "" {
				r.Header.Set("X-Forwarded-For", tt.xff)
			}
			if tt.xri != "" {
				r.Header.Set("X-Real-IP", tt.xri)
			}
			assert.Equal(t, tt.want, d.ClientIP(r))
		})
	}
	assert.Equal(t, int64(0), d.GetMetrics().SpoofedForwarding, "ClientIP does not count")
}

func TestInspect(t *testing.T) {
	d := NewDetector()
	clean := httptest.NewRequest(http.MethodGet, "/reports/financial", nil)
	assert.Empty(t, d.Inspect(clean))

	scan := httptest.NewRequest(http.MethodGet, "/static/../.env", nil)
	assert.NotEmpty(t, d.Inspect(scan))

	scanner := httptest.NewRequest(http.MethodGet, "/", nil)
	scanner.Header.Set("User-Agent", "sqlmap/1.7")
	assert.Equal(t, "scanner sqlmap", d.Inspect(scanner))

	spoof := httptest.NewRequest(http.MethodGet, "/", nil)
	spoof.RemoteAddr = "203.0.113.7:5555"
	spoof.Header.Set("X-Forwarded-For", "10.0.0.1")
	assert.Empty(t, d.Inspect(spoof))

	m := d.GetMetrics()
	assert.Equal(t, int64(2), m.SuspiciousRequests)
	assert.Equal(t, int64(1), m.SpoofedForwarding)
}

func TestDetectorMiddleware(t *testing.T) {
	var buf bytes.Buffer
	logger := log.New(log.Config{Output: &buf})
	d := NewDetector()
	called := 0
	h := d.Middleware(logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { called++ }))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest("TRACE", "/", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/?next=../../etc/passwd", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 1, called)
	assert.Contains(t, buf.String(), "Suspicious request")
}
