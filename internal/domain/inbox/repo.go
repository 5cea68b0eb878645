package inbox

import (
	"context"

	"github.com/google/uuid"
)

type NotificationRepository interface {
	Create(ctx context.Context, n *Notification) error
	ListByRecipient(ctx context.Context, recipientID uuid.UUID, unreadOnly bool, limit, offset int) ([]*Notification, int, error)
	// MarkRead returns ErrNotificationNotFound unless id belongs to recipientID.
	MarkRead(ctx context.Context, id, recipientID uuid.UUID) error
}
