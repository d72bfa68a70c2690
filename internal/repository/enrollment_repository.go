package repository

import (
	"context"
	"errors"

	"school/internal/domain/model"
)

var (
	ErrEnrollmentNotFound = errors.New("enrollment not found")
	// (student, course) の一意制約違反
	ErrEnrollmentExists = errors.New("enrollment already exists")
)

// 受講権の保存・検索・更新の約束
type EnrollmentRepository interface {
	Create(ctx context.Context, enrollment *model.Enrollment) error
	FindByID(ctx context.Context, id string) (*model.Enrollment, error)
	FindByStudentAndCourse(ctx context.Context, studentID string, courseID string) (*model.Enrollment, error)
	ListByStudent(ctx context.Context, studentID string) ([]model.Enrollment, error)
	ListByStatus(ctx context.Context, status model.EnrollmentStatus) ([]model.Enrollment, error)
	Update(ctx context.Context, enrollment *model.Enrollment) error
	DeleteByID(ctx context.Context, id string) error
}
