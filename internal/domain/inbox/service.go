package inbox

import (
	"context"
	"fmt"

	"github.com/google/uuid"
)

// EventTypeCreated is pushed to the recipient's live connections after a
// notification is stored.
const EventTypeCreated = "notification.created"

// Pusher delivers live events to an account's open connections.
type Pusher interface {
	Push(account uuid.UUID, eventType string, payload any)
}

type Service struct {
	notifications NotificationRepository
	pusher        Pusher
}

func NewService(notifications NotificationRepository) *Service {
	return &Service{notifications: notifications}
}

// WithPusher enables live delivery of new notifications.
func (s *Service) WithPusher(p Pusher) *Service {
	s.pusher = p
	return s
}

func (s *Service) CreateNotification(ctx context.Context, n *Notification) error {
	if n.RecipientID == uuid.Nil {
		return fmt.Errorf("recipient_id is required")
	}
	if n.Title == "" || n.Message == "" {
		return fmt.Errorf("title and message are required")
	}
	if err := s.notifications.Create(ctx, n); err != nil {
		return err
	}
	if s.pusher != nil {
		s.pusher.Push(n.RecipientID, EventTypeCreated, n)
	}
	return nil
}

func (s *Service) ListNotifications(ctx context.Context, recipientID uuid.UUID, unreadOnly bool, limit, offset int) ([]*Notification, int, error) {
	return s.notifications.ListByRecipient(ctx, recipientID, unreadOnly, limit, offset)
}

func (s *Service) MarkRead(ctx context.Context, id, recipientID uuid.UUID) error {
	return s.notifications.MarkRead(ctx, id, recipientID)
}
