package server

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"superstore-dashboard/internal/config"
	"superstore-dashboard/internal/services"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
}

func TestServer_Routes(t *testing.T) {
	dashboard := func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte("page"))
	}
	srv := NewServer(services.NewAnalytics(services.WithLogger(testLogger())), testLogger(), &TemplateHandlers{Dashboard: dashboard})

	tests := []struct {
		method string
		path   string
		status int
	}{
		{"GET", "/", http.StatusOK},
		{"GET", "/health", http.StatusServiceUnavailable},
		{"GET", "/metrics", http.StatusOK},
		{"GET", "/api/monthly-sales", http.StatusOK},
		{"GET", "/api/forecast", http.StatusUnprocessableEntity},
		{"GET", "/nope", http.StatusNotFound},
		{"POST", "/api/view", http.StatusMethodNotAllowed},
	}

	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			w := httptest.NewRecorder()
			srv.ServeHTTP(w, httptest.NewRequest(tt.method, tt.path, nil))

			if w.Code != tt.status {
				t.Errorf("status = %d, want %d", w.Code, tt.status)
			}
		})
	}
}

func TestGracefulServer_ShutdownRunsHooks(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	addr := ln.Addr().String()
	ln.Close()

	cfg := config.Default()
	cfg.Server.ShutdownTimeout = 5 * time.Second
	httpServer := &http.Server{Addr: addr, Handler: http.NotFoundHandler()}

	gs := NewGracefulServer(httpServer, testLogger(), cfg)

	var ran atomic.Int32
	gs.RegisterShutdownHook("ok", func(ctx context.Context) error {
		ran.Add(1)
		return nil
	})
	gs.RegisterShutdownHook("broken", func(ctx context.Context) error {
		ran.Add(1)
		return errors.New("flush failed")
	})

	ctx, cancel := context.WithCancel(context.Background())
	errc := make(chan error, 1)
	go func() { errc <- gs.ListenAndServe(ctx) }()

	// wait for the listener
	deadline := time.Now().Add(2 * time.Second)
	for {
		conn, err := net.Dial("tcp", addr)
		if err == nil {
			conn.Close()
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("server did not start: %v", err)
		}
		time.Sleep(10 * time.Millisecond)
	}

	cancel()

	select {
	case err := <-errc:
		if err == nil || !strings.Contains(err.Error(), "broken") {
			t.Errorf("error = %v, want the failing hook reported", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("shutdown did not complete")
	}
	if got := ran.Load(); got != 2 {
		t.Errorf("hooks run = %d, want 2", got)
	}
}
