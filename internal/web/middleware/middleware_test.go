package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/kozaktomas/campus-attendance/internal/logger"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestCORS(t *testing.T) {
	handler := CORS([]string{"https://attendance.example.edu"})(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))

	tests := []struct {
		name       string
		method     string
		origin     string
		wantOrigin string
		wantStatus int
	}{
		{"allowed origin", http.MethodGet, "https://attendance.example.edu", "https://attendance.example.edu", http.StatusTeapot},
		{"localhost", http.MethodGet, "http://localhost:5173", "http://localhost:5173", http.StatusTeapot},
		{"foreign origin", http.MethodGet, "https://evil.example.com", "", http.StatusTeapot},
		{"no origin", http.MethodGet, "", "", http.StatusTeapot},
		{"preflight", http.MethodOptions, "https://attendance.example.edu", "https://attendance.example.edu", http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, "/api/v1/health", nil)
			if tt.origin != "" {
				req.Header.Set("Origin", tt.origin)
			}
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)

			if got := rec.Header().Get("Access-Control-Allow-Origin"); got != tt.wantOrigin {
				t.Errorf("Allow-Origin = %q, want %q", got, tt.wantOrigin)
			}
			if rec.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
		})
	}
}

func TestSecurityHeaders(t *testing.T) {
	rec := httptest.NewRecorder()
	SecurityHeaders()(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {})).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	if rec.Header().Get("X-Frame-Options") != "DENY" {
		t.Error("missing X-Frame-Options")
	}
	if rec.Header().Get("X-Content-Type-Options") != "nosniff" {
		t.Error("missing X-Content-Type-Options")
	}

	directives := map[string]string{}
	for _, d := range strings.Split(rec.Header().Get("Content-Security-Policy"), ";") {
		name, value, _ := strings.Cut(strings.TrimSpace(d), " ")
		directives[name] = value
	}
	tests := []struct {
		directive string
		want      string
	}{
		{"default-src", "'self'"},
		{"img-src", "'self' data: blob:"},
		{"script-src", "'self'"},
		{"style-src", "'self' 'unsafe-inline'"},
	}
	for _, tt := range tests {
		if got := directives[tt.directive]; got != tt.want {
			t.Errorf("%s = %q, want %q", tt.directive, got, tt.want)
		}
	}
}

func TestLimitConcurrent(t *testing.T) {
	release := make(chan struct{})
	entered := make(chan struct{}, 2)
	var rejected atomic.Int32

	handler := LimitConcurrent(2, func(*http.Request) { rejected.Add(1) })(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		entered <- struct{}{}
		<-release
	}))

	var wg sync.WaitGroup
	for range 2 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/video_feed", nil))
		}()
	}
	<-entered
	<-entered

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/video_feed", nil))
	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("expected 503 for third stream, got %d", rec.Code)
	}
	if rejected.Load() != 1 {
		t.Errorf("expected 1 rejection, got %d", rejected.Load())
	}

	close(release)
	wg.Wait()

	rec = httptest.NewRecorder()
	go func() { <-entered }()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/video_feed", nil))
	if rec.Code == http.StatusServiceUnavailable {
		t.Error("slot was not released")
	}
}

func TestInFlight(t *testing.T) {
	var counter atomic.Int64
	var during int64
	handler := InFlight(&counter)(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		during = counter.Load()
	}))
	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	if during != 1 || counter.Load() != 0 {
		t.Errorf("during=%d after=%d", during, counter.Load())
	}
}

func TestRequestLogger(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	log := &logger.Logger{SugaredLogger: zap.New(core).Sugar()}

	tests := []struct {
		status    int
		wantLevel zapcore.Level
	}{
		{http.StatusOK, zapcore.InfoLevel},
		{http.StatusConflict, zapcore.WarnLevel},
		{http.StatusServiceUnavailable, zapcore.ErrorLevel},
	}

	for _, tt := range tests {
		handler := RequestLogger(log)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(tt.status)
		}))
		handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest("GET", "/api/v1/students", nil))

		entries := logs.TakeAll()
		if len(entries) != 1 {
			t.Fatalf("status %d: expected 1 log entry, got %d", tt.status, len(entries))
		}
		if entries[0].Level != tt.wantLevel {
			t.Errorf("status %d: expected level %v, got %v", tt.status, tt.wantLevel, entries[0].Level)
		}
		fields := entries[0].ContextMap()
		if fields["path"] != "/api/v1/students" {
			t.Errorf("expected path field, got %v", fields["path"])
		}
		if fields["status"] != int64(tt.status) {
			t.Errorf("expected status %d, got %v", tt.status, fields["status"])
		}
	}
}
