package notify

import (
	"context"

	"school/internal/domain/model"
	"school/internal/repository"
	"school/internal/usecase"
)

// DBに通知行を積むだけのシンプルなsink。
// 配送（WebSocket等）は別系統の関心なのでここでは持たない
type NotificationStore struct {
	repo  repository.NotificationRepository
	idGen usecase.IDGenerator
}

func NewNotificationStore(repo repository.NotificationRepository, idGen usecase.IDGenerator) *NotificationStore {
	return &NotificationStore{repo: repo, idGen: idGen}
}

func (s *NotificationStore) Notify(ctx context.Context, recipientID string, title string, message string, kind model.NotificationType) error {
	n := &model.Notification{
		ID:          s.idGen.NewID(),
		RecipientID: recipientID,
		Title:       title,
		Message:     message,
		Kind:        kind,
	}
	return s.repo.Create(ctx, n)
}
