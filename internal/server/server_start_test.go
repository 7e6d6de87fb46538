package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/example/go-tokwalk/internal/config"
	"github.com/example/go-tokwalk/internal/service"
	"github.com/example/go-tokwalk/internal/testutil"
	"github.com/example/go-tokwalk/internal/tokenizer"
)

func TestStart_LifecycleHealthTokenizeAndShutdown(t *testing.T) {
	// Find an available port.
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}

	addr := ln.Addr().String()
	ln.Close() // free it for the server

	cfg := config.DefaultConfig()
	cfg.Server.ListenAddr = addr
	cfg.Encoding.Name = "cl100k_base"

	cache := tokenizer.NewCacheWith(func(name string) (tokenizer.Encoder, error) {
		return testutil.ByteEncoder{Encoding: name}, nil
	})

	svc, err := service.New(service.WithCache(cache))
	if err != nil {
		t.Fatalf("service.New: %v", err)
	}

	s := New(cfg, svc).WithShutdownTimeout(2 * time.Second)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	errCh := make(chan error, 1)

	go func() {
		errCh <- s.Start(ctx)
	}()

	// Wait for the server to be ready.
	for range 50 {
		err = ProbeHTTP(addr)
		if err == nil {
			break
		}

		time.Sleep(20 * time.Millisecond)
	}

	if err != nil {
		t.Fatalf("server never became ready: %v", err)
	}

	client := &http.Client{Timeout: 2 * time.Second}

	resp, err := client.Post(fmt.Sprintf("http://%s/v1/count", addr), "application/json",
		strings.NewReader(`{"text":"abc"}`))
	if err != nil {
		t.Fatalf("POST /v1/count: %v", err)
	}
	defer resp.Body.Close()

	var body map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}

	if body["encoding"] != "cl100k_base" || body["count"] != float64(3) {
		t.Errorf("count body = %v", body)
	}

	// Graceful shutdown.
	cancel()

	select {
	case err := <-errCh:
		if err != nil {
			t.Fatalf("Start() returned error on shutdown: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Start() did not return within 5s of context cancel")
	}
}

func TestStart_ListenErrorReturned(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	defer ln.Close()

	cfg := config.DefaultConfig()
	cfg.Server.ListenAddr = ln.Addr().String()

	err = New(cfg, nil).Start(context.Background())
	if err == nil {
		t.Fatal("Start() = nil; want listen error for busy port")
	}
}

func TestProbeHTTP_Unreachable(t *testing.T) {
	if err := ProbeHTTP("127.0.0.1:1"); err == nil {
		t.Error("ProbeHTTP() = nil; want error")
	}
}

