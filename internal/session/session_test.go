package session

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"invoicing/internal/model"

	"github.com/google/uuid"
)

var epoch = time.Date(2026, 3, 9, 9, 0, 0, 0, time.UTC)

func agentSession(role model.Role) *Session {
	return New(&model.Agent{ID: uuid.New(), Name: "Ana", Role: role}, epoch, time.Hour)
}

func TestNavigate(t *testing.T) {
	invoiceID := uuid.New()

	tests := []struct {
		name    string
		role    model.Role
		from    Screen
		to      Screen
		invoice *uuid.UUID
		wantErr bool
	}{
		{"dashboard to create", model.RoleAgent, ScreenDashboard, ScreenCreate, nil, false},
		{"dashboard to view", model.RoleAgent, ScreenDashboard, ScreenView, &invoiceID, false},
		{"dashboard to all invoices", model.RoleDirector, ScreenDashboard, ScreenAllInvoices, nil, false},
		{"create back to dashboard", model.RoleAgent, ScreenCreate, ScreenDashboard, nil, false},
		{"view to all invoices", model.RoleAgent, ScreenView, ScreenAllInvoices, nil, false},
		{"all invoices to view", model.RoleDirector, ScreenAllInvoices, ScreenView, &invoiceID, false},
		{"create to view", model.RoleAgent, ScreenCreate, ScreenView, &invoiceID, true},
		{"all invoices to create", model.RoleAgent, ScreenAllInvoices, ScreenCreate, nil, true},
		{"view without invoice", model.RoleAgent, ScreenDashboard, ScreenView, nil, true},
		{"director cannot create", model.RoleDirector, ScreenDashboard, ScreenCreate, nil, true},
		{"unknown screen", model.RoleAgent, ScreenDashboard, Screen("settings"), nil, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := agentSession(tt.role)
			s.Screen = tt.from

			err := s.Navigate(tt.to, tt.invoice)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Navigate() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidTransition) {
					t.Fatalf("expected ErrInvalidTransition, got %v", err)
				}
				if s.Screen != tt.from {
					t.Fatalf("screen changed on failed move: %s", s.Screen)
				}
				return
			}
			if s.Screen != tt.to {
				t.Fatalf("screen = %s, want %s", s.Screen, tt.to)
			}
			if (tt.to == ScreenView) != (s.InvoiceID != nil) {
				t.Fatalf("invoice id = %v on screen %s", s.InvoiceID, s.Screen)
			}
		})
	}
}

func TestMemoryStore(t *testing.T) {
	now := epoch
	store := NewMemoryStore(func() time.Time { return now })
	ctx := context.Background()
	s := agentSession(model.RoleAgent)

	if err := store.Save(ctx, s); !errors.Is(err, ErrNotFound) {
		t.Fatalf("Save before Create = %v, want ErrNotFound", err)
	}
	if err := store.Create(ctx, s); err != nil {
		t.Fatalf("Create: %v", err)
	}
	got, err := store.Get(ctx, s.ID)
	if err != nil || got.AgentID != s.AgentID || got.Screen != ScreenDashboard {
		t.Fatalf("Get = %+v, %v", got, err)
	}

	got.Screen = ScreenCreate
	if again, _ := store.Get(ctx, s.ID); again.Screen != ScreenDashboard {
		t.Fatalf("store returned a shared reference")
	}

	now = epoch.Add(2 * time.Hour)
	if _, err := store.Get(ctx, s.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected expiry, got %v", err)
	}

	now = epoch
	_ = store.Create(ctx, s)
	_ = store.Delete(ctx, s.ID)
	if _, err := store.Get(ctx, s.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected deleted session, got %v", err)
	}
	if err := store.Save(ctx, s); !errors.Is(err, ErrNotFound) {
		t.Fatalf("Save after Delete = %v, want ErrNotFound", err)
	}
	if _, err := store.Get(ctx, s.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("Save recreated a deleted session")
	}
}

func TestRedisStore(t *testing.T) {
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		t.Skip("REDIS_ADDR not set")
	}
	ctx := context.Background()
	rdb, err := Connect(ctx, addr)
	if err != nil {
		t.Skipf("redis unavailable: %v", err)
	}
	defer rdb.Close()

	s := New(&model.Agent{ID: uuid.New(), Name: "Ana", Role: model.RoleAgent}, time.Now(), time.Minute)
	store := NewRedisStore(rdb, nil)
	if err := store.Create(ctx, s); err != nil {
		t.Fatalf("Create: %v", err)
	}
	s.Screen = ScreenAllInvoices
	if err := store.Save(ctx, s); err != nil {
		t.Fatalf("Save: %v", err)
	}
	got, err := store.Get(ctx, s.ID)
	if err != nil || got.AgentID != s.AgentID {
		t.Fatalf("Get = %+v, %v", got, err)
	}
	if got.Screen != ScreenAllInvoices {
		t.Fatalf("Save did not overwrite: screen %q", got.Screen)
	}
	if err := store.Delete(ctx, s.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := store.Get(ctx, s.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if err := store.Save(ctx, s); !errors.Is(err, ErrNotFound) {
		t.Fatalf("Save after Delete = %v, want ErrNotFound", err)
	}
}

func TestTokenRoundTrip(t *testing.T) {
	secret := []byte("test-secret")
	s := New(&model.Agent{ID: uuid.New(), Role: model.RoleDirector}, time.Now(), time.Hour)

	token, err := Sign(s, secret)
	if err != nil {
		t.Fatalf("Sign: %v", err)
	}
	claims, err := Parse(token, secret)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if claims.SessionID != s.ID || claims.Subject != s.AgentID.String() || claims.Role != "director" {
		t.Fatalf("unexpected claims: %+v", claims)
	}

	if _, err := Parse(token, []byte("other")); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken for wrong key, got %v", err)
	}

	expired := New(&model.Agent{ID: uuid.New(), Role: model.RoleAgent}, time.Now().Add(-2*time.Hour), time.Hour)
	old, _ := Sign(expired, secret)
	if _, err := Parse(old, secret); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken for expired token, got %v", err)
	}
}
