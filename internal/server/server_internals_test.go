package server

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/example/go-tokwalk/internal/config"
	"github.com/example/go-tokwalk/internal/tokenizer"
)

// --- New & WithShutdownTimeout ---

func TestNew_ShutdownTimeoutFromConfig(t *testing.T) {
	cfg := config.DefaultConfig()

	s := New(cfg, nil)
	if s.shutdownTimeout != 10*time.Second {
		t.Errorf("shutdownTimeout = %v; want 10s", s.shutdownTimeout)
	}

	cfg.Server.ShutdownTimeout = 0
	if got := New(cfg, nil).shutdownTimeout; got != 10*time.Second {
		t.Errorf("zero config shutdownTimeout = %v; want 10s", got)
	}
}

func TestWithShutdownTimeout_Chaining(t *testing.T) {
	s := New(config.DefaultConfig(), nil)
	returned := s.WithShutdownTimeout(5 * time.Second)
	// Must return the same *Server for chaining.
	if returned != s {
		t.Error("WithShutdownTimeout should return the same *Server")
	}

	if s.shutdownTimeout != 5*time.Second {
		t.Errorf("shutdownTimeout = %v; want 5s", s.shutdownTimeout)
	}
}

// --- statusFor ---

func TestStatusFor(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{fmt.Errorf("%w: x", tokenizer.ErrUnknownModel), http.StatusNotFound},
		{fmt.Errorf("%w: x", tokenizer.ErrUnknownEncoding), http.StatusNotFound},
		{tokenizer.ErrModelEncodingMismatch, http.StatusConflict},
		{tokenizer.ErrEncodingHandleMismatch, http.StatusConflict},
		{tokenizer.ErrNoEncodingSpecified, http.StatusBadRequest},
		{tokenizer.ErrInvalidArgument, http.StatusBadRequest},
		{errors.New("download failed"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		if got := statusFor(tt.err); got != tt.want {
			t.Errorf("statusFor(%v) = %d; want %d", tt.err, got, tt.want)
		}
	}
}

// --- ParseLogLevel ---

func TestParseLogLevel(t *testing.T) {
	tests := []struct {
		in      string
		want    slog.Level
		wantErr bool
	}{
		{"", slog.LevelInfo, false},
		{"INFO", slog.LevelInfo, false},
		{"debug", slog.LevelDebug, false},
		{"warning", slog.LevelWarn, false},
		{"error", slog.LevelError, false},
		{"loud", slog.LevelInfo, true},
	}

	for _, tt := range tests {
		got, err := ParseLogLevel(tt.in)
		if (err != nil) != tt.wantErr || got != tt.want {
			t.Errorf("ParseLogLevel(%q) = %v, %v", tt.in, got, err)
		}
	}
}

// --- workers ---

func TestRun_WithoutSemaphore(t *testing.T) {
	h := &handler{opts: defaultOptions()}
	if h.sem != nil {
		t.Fatal("zero-value handler should have no semaphore")
	}

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/", nil)

	ran := false
	if _, ok := h.run(rec, req, "test", "stub", func() { ran = true }); !ok || !ran {
		t.Errorf("run without semaphore: ok=%v ran=%v", ok, ran)
	}
}
