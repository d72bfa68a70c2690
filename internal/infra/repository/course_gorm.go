package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"school/internal/domain/model"
	repo "school/internal/repository"
)

type courseGormRepository struct {
	db *gorm.DB
}

func NewCourseRepository(db *gorm.DB) repo.CourseRepository {
	return &courseGormRepository{db: db}
}

func (r *courseGormRepository) FindByID(ctx context.Context, id string) (*model.Course, error) {
	var c model.Course

	err := r.db.WithContext(ctx).
		Where("id = ?", id).
		First(&c).Error

	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, repo.ErrCourseNotFound
		}
		return nil, err
	}

	return &c, nil
}

func (r *courseGormRepository) ListByStatus(ctx context.Context, status model.CourseStatus) ([]model.Course, error) {
	var list []model.Course

	err := r.db.WithContext(ctx).
		Where("status = ?", status).
		Order("created_at").
		Find(&list).Error

	return list, err
}
