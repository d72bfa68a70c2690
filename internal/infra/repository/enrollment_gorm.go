package repository

import (
	"context"
	"errors"
	"strings"

	"gorm.io/gorm"

	"school/internal/domain/model"
	repo "school/internal/repository"
)

type enrollmentGormRepository struct {
	db *gorm.DB
}

func NewEnrollmentRepository(db *gorm.DB) repo.EnrollmentRepository {
	return &enrollmentGormRepository{db: db}
}

func (r *enrollmentGormRepository) Create(ctx context.Context, enrollment *model.Enrollment) error {
	err := r.db.WithContext(ctx).Create(enrollment).Error
	if err != nil {
		// (student, course) の一意制約違反
		if errors.Is(err, gorm.ErrDuplicatedKey) || strings.Contains(err.Error(), "duplicate key") {
			return repo.ErrEnrollmentExists
		}
		return err
	}
	return nil
}

func (r *enrollmentGormRepository) FindByID(ctx context.Context, id string) (*model.Enrollment, error) {
	var e model.Enrollment

	err := r.db.WithContext(ctx).
		Where("id = ?", id).
		First(&e).Error

	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, repo.ErrEnrollmentNotFound
		}
		return nil, err
	}

	return &e, nil
}

func (r *enrollmentGormRepository) FindByStudentAndCourse(ctx context.Context, studentID string, courseID string) (*model.Enrollment, error) {
	var e model.Enrollment

	err := r.db.WithContext(ctx).
		Where("student_id = ? AND course_id = ?", studentID, courseID).
		First(&e).Error

	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, repo.ErrEnrollmentNotFound
		}
		return nil, err
	}

	return &e, nil
}

func (r *enrollmentGormRepository) ListByStudent(ctx context.Context, studentID string) ([]model.Enrollment, error) {
	var list []model.Enrollment

	err := r.db.WithContext(ctx).
		Where("student_id = ?", studentID).
		Order("created_at").
		Find(&list).Error

	return list, err
}

func (r *enrollmentGormRepository) ListByStatus(ctx context.Context, status model.EnrollmentStatus) ([]model.Enrollment, error) {
	var list []model.Enrollment

	err := r.db.WithContext(ctx).
		Where("status = ?", status).
		Find(&list).Error

	return list, err
}

func (r *enrollmentGormRepository) Update(ctx context.Context, enrollment *model.Enrollment) error {
	result := r.db.WithContext(ctx).Save(enrollment)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return repo.ErrEnrollmentNotFound
	}
	return nil
}

func (r *enrollmentGormRepository) DeleteByID(ctx context.Context, id string) error {
	result := r.db.WithContext(ctx).
		Where("id = ?", id).
		Delete(&model.Enrollment{})

	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return repo.ErrEnrollmentNotFound
	}

	return nil
}
