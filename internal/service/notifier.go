package service

import "github.com/google/uuid"

// Notifier pushes realtime invoice events to connected clients.
type Notifier interface {
	Publish(eventType string, owner uuid.UUID, data any)
}

type noopNotifier struct{}

func (noopNotifier) Publish(string, uuid.UUID, any) {}
