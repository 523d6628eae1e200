package websocket

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	applog "invoicing/internal/log"
	"invoicing/internal/session"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

func receive(t *testing.T, c *Client) (Event, bool) {
	t.Helper()
	select {
	case data := <-c.Send:
		var ev Event
		if err := json.Unmarshal(data, &ev); err != nil {
			t.Fatalf("bad frame: %v", err)
		}
		return ev, true
	case <-time.After(100 * time.Millisecond):
		return Event{}, false
	}
}

func TestPublishRoutesToOwnerAndDirectors(t *testing.T) {
	hub := NewHub(applog.Discard())
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go hub.Run(ctx)

	owner := uuid.New()
	ownerClient := &Client{Hub: hub, Send: make(chan []byte, 4), AgentID: owner}
	otherClient := &Client{Hub: hub, Send: make(chan []byte, 4), AgentID: uuid.New()}
	director := &Client{Hub: hub, Send: make(chan []byte, 4), AgentID: uuid.New(), Director: true}
	for _, c := range []*Client{ownerClient, otherClient, director} {
		hub.register <- c
	}

	hub.Publish(EventInvoiceCreated, owner, map[string]string{"invoice_number": "INV-1"})

	if ev, ok := receive(t, ownerClient); !ok || ev.Type != EventInvoiceCreated || ev.AgentID != owner {
		t.Fatalf("owner did not receive event: %+v", ev)
	}
	if ev, ok := receive(t, director); !ok || ev.Type != EventInvoiceCreated {
		t.Fatalf("director did not receive event: %+v", ev)
	}
	if _, ok := receive(t, otherClient); ok {
		t.Fatalf("unrelated agent received event")
	}
}

func TestRunClosesClientsOnShutdown(t *testing.T) {
	hub := NewHub(applog.Discard())
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		hub.Run(ctx)
		close(done)
	}()

	c := &Client{Hub: hub, Send: make(chan []byte, 1), AgentID: uuid.New()}
	hub.register <- c
	cancel()
	<-done

	if _, open := <-c.Send; open {
		t.Fatalf("send queue left open after shutdown")
	}

	left := make(chan bool)
	go func() {
		hub.leave(c)
		left <- hub.join(&Client{Hub: hub, Send: make(chan []byte, 1), AgentID: uuid.New()})
	}()
	select {
	case joined := <-left:
		if joined {
			t.Fatalf("stopped hub accepted a new client")
		}
	case <-time.After(time.Second):
		t.Fatalf("leave or join blocked after shutdown")
	}
}

func TestServeWsRejectsBadTokens(t *testing.T) {
	gin.SetMode(gin.TestMode)
	hub := NewHub(applog.Discard())
	auth := func(_ context.Context, token string) (*session.Session, error) {
		return nil, errors.New("unknown session")
	}

	r := gin.New()
	r.GET("/ws", func(c *gin.Context) { ServeWs(hub, c, auth) })

	for _, target := range []string{"/ws", "/ws?token=bogus"} {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, target, nil))
		if w.Code != http.StatusUnauthorized {
			t.Fatalf("%s: status = %d, want 401", target, w.Code)
		}
	}
}
