package repository

import (
	"context"
	"errors"

	"school/internal/domain/model"
)

var ErrCourseNotFound = errors.New("course not found")

type CourseRepository interface {
	FindByID(ctx context.Context, id string) (*model.Course, error)
	ListByStatus(ctx context.Context, status model.CourseStatus) ([]model.Course, error)
}
