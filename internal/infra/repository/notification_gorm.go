package repository

import (
	"context"

	"gorm.io/gorm"

	"school/internal/domain/model"
	repo "school/internal/repository"
)

type notificationGormRepository struct {
	db *gorm.DB
}

func NewNotificationRepository(db *gorm.DB) repo.NotificationRepository {
	return &notificationGormRepository{db: db}
}

func (r *notificationGormRepository) Create(ctx context.Context, n *model.Notification) error {
	return r.db.WithContext(ctx).Create(n).Error
}

func (r *notificationGormRepository) ListByRecipient(ctx context.Context, recipientID string) ([]model.Notification, error) {
	var list []model.Notification

	err := r.db.WithContext(ctx).
		Where("recipient_id = ?", recipientID).
		Order("created_at DESC").
		Find(&list).Error

	return list, err
}

func (r *notificationGormRepository) MarkRead(ctx context.Context, id string, recipientID string) error {
	result := r.db.WithContext(ctx).
		Model(&model.Notification{}).
		Where("id = ? AND recipient_id = ?", id, recipientID).
		Update("is_read", true)
	if result.Error != nil {
		return result.Error
	}

	//他人の通知は行が引っかからないのでここに落ちる
	if result.RowsAffected == 0 {
		return repo.ErrNotificationNotFound
	}
	return nil
}
