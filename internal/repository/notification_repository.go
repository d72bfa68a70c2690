package repository

import (
	"context"
	"errors"

	"school/internal/domain/model"
)

var ErrNotificationNotFound = errors.New("notification not found")

type NotificationRepository interface {
	Create(ctx context.Context, n *model.Notification) error
	ListByRecipient(ctx context.Context, recipientID string) ([]model.Notification, error)
	// MarkReadは受信者本人の行だけを対象にする。対象が無ければErrNotificationNotFound
	MarkRead(ctx context.Context, id string, recipientID string) error
}
