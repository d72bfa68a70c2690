package repository

import (
	"context"

	"school/internal/domain/model"
)

// 追記専用。更新・削除は無い
type ReviewRequestRepository interface {
	Create(ctx context.Context, req *model.CourseReviewRequest) error
	ListByCourse(ctx context.Context, courseID string) ([]model.CourseReviewRequest, error)
}
