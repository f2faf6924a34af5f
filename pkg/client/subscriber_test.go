package client

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/teslashibe/go-eyeguard/pkg/pipeline"
)

var upgrader = websocket.Upgrader{}

// streamServer sends records on each connection, then drops it.
func streamServer(t *testing.T, records ...string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		for _, rec := range records {
			if err := conn.WriteMessage(websocket.TextMessage, []byte(rec)); err != nil {
				return
			}
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

func wsURL(srv *httptest.Server) string {
	return "ws" + strings.TrimPrefix(srv.URL, "http")
}

func TestNew(t *testing.T) {
	if _, err := New(WithURL("")); err == nil {
		t.Error("New() with empty URL should fail")
	}

	s, err := New(WithReconnectDelay(-1))
	if err != nil {
		t.Fatalf("New(): %v", err)
	}
	if s.cfg.URL != DefaultURL || s.cfg.ReconnectDelay != DefaultReconnectDelay {
		t.Errorf("cfg = %+v", s.cfg)
	}
}

func TestSubscriber_ReceivesAndReconnects(t *testing.T) {
	srv := streamServer(t,
		`{"seq":1,"strain_index":20}`,
		`not json`,
		`{"seq":2,"strain_index":85}`,
	)

	var (
		mu          sync.Mutex
		got         []pipeline.Metrics
		connects    int
		disconnects int
	)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	s, err := New(
		WithURL(wsURL(srv)),
		WithReconnectDelay(10*time.Millisecond),
		OnMetrics(func(m pipeline.Metrics) {
			mu.Lock()
			got = append(got, m)
			mu.Unlock()
		}),
		OnConnected(func() {
			mu.Lock()
			connects++
			mu.Unlock()
		}),
		OnDisconnect(func(error) {
			mu.Lock()
			disconnects++
			n := disconnects
			mu.Unlock()
			if n == 2 {
				cancel()
			}
		}),
	)
	if err != nil {
		t.Fatalf("New(): %v", err)
	}

	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()

	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Errorf("Run() = %v, want context.Canceled", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Run() did not return")
	}

	mu.Lock()
	defer mu.Unlock()
	if connects != 2 {
		t.Errorf("connects = %d, want 2", connects)
	}
	if len(got) != 4 || got[0].Seq != 1 || got[1].StrainIndex != 85 {
		t.Errorf("records = %+v", got)
	}
	if s.Received() != 4 {
		t.Errorf("Received() = %d, want 4", s.Received())
	}
	if s.IsConnected() {
		t.Error("IsConnected() after Run returned")
	}
}

func TestSubscriber_RetriesUntilCancelled(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	t.Cleanup(srv.Close)

	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()

	s, err := New(WithURL(wsURL(srv)), WithReconnectDelay(20*time.Millisecond))
	if err != nil {
		t.Fatalf("New(): %v", err)
	}

	if err := s.Run(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("Run() = %v, want deadline exceeded", err)
	}
	if s.Attempts() < 2 {
		t.Errorf("Attempts() = %d, want retries", s.Attempts())
	}
}

func TestSubscriber_CancelWhileConnected(t *testing.T) {
	hold := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		<-hold
	}))
	t.Cleanup(func() {
		close(hold)
		srv.Close()
	})

	ctx, cancel := context.WithCancel(context.Background())
	connected := make(chan struct{})
	s, err := New(WithURL(wsURL(srv)), OnConnected(func() { close(connected) }))
	if err != nil {
		t.Fatalf("New(): %v", err)
	}

	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()

	<-connected
	cancel()

	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Errorf("Run() = %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Run() blocked after cancel")
	}
}
