package repository

import (
	"context"

	"gorm.io/gorm"

	"school/internal/domain/model"
	repo "school/internal/repository"
)

type reviewRequestGormRepository struct {
	db *gorm.DB
}

func NewReviewRequestRepository(db *gorm.DB) repo.ReviewRequestRepository {
	return &reviewRequestGormRepository{db: db}
}

func (r *reviewRequestGormRepository) Create(ctx context.Context, req *model.CourseReviewRequest) error {
	return r.db.WithContext(ctx).Create(req).Error
}

func (r *reviewRequestGormRepository) ListByCourse(ctx context.Context, courseID string) ([]model.CourseReviewRequest, error) {
	var list []model.CourseReviewRequest

	err := r.db.WithContext(ctx).
		Where("course_id = ?", courseID).
		Order("created_at").
		Find(&list).Error

	return list, err
}
