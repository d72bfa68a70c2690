package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"school/internal/domain/model"
	repo "school/internal/repository"
)

type lessonGormRepository struct {
	db *gorm.DB
}

func NewLessonRepository(db *gorm.DB) repo.LessonRepository {
	return &lessonGormRepository{db: db}
}

func (r *lessonGormRepository) FindByID(ctx context.Context, id string) (*model.Lesson, error) {
	var l model.Lesson

	err := r.db.WithContext(ctx).
		Where("id = ?", id).
		First(&l).Error

	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, repo.ErrLessonNotFound
		}
		return nil, err
	}

	return &l, nil
}

// モジュール内のレッスンを表示順で返す
func (r *lessonGormRepository) ListByModuleID(ctx context.Context, moduleID string) ([]model.Lesson, error) {
	var list []model.Lesson

	err := r.db.WithContext(ctx).
		Where("module_id = ?", moduleID).
		Order("position").
		Find(&list).Error

	return list, err
}

type moduleGormRepository struct {
	db *gorm.DB
}

func NewModuleRepository(db *gorm.DB) repo.ModuleRepository {
	return &moduleGormRepository{db: db}
}

func (r *moduleGormRepository) FindByID(ctx context.Context, id string) (*model.Module, error) {
	var m model.Module

	err := r.db.WithContext(ctx).
		Where("id = ?", id).
		First(&m).Error

	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, repo.ErrModuleNotFound
		}
		return nil, err
	}

	return &m, nil
}

type lessonFileGormRepository struct {
	db *gorm.DB
}

func NewLessonFileRepository(db *gorm.DB) repo.LessonFileRepository {
	return &lessonFileGormRepository{db: db}
}

func (r *lessonFileGormRepository) FindByID(ctx context.Context, id string) (*model.LessonFile, error) {
	var f model.LessonFile

	err := r.db.WithContext(ctx).
		Where("id = ?", id).
		First(&f).Error

	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, repo.ErrFileNotFound
		}
		return nil, err
	}

	return &f, nil
}

func (r *lessonFileGormRepository) ListByLessonID(ctx context.Context, lessonID string) ([]model.LessonFile, error) {
	var list []model.LessonFile

	err := r.db.WithContext(ctx).
		Where("lesson_id = ?", lessonID).
		Order("created_at").
		Find(&list).Error

	return list, err
}

func (r *lessonFileGormRepository) CountByLessonID(ctx context.Context, lessonID string) (int64, error) {
	var count int64

	err := r.db.WithContext(ctx).
		Model(&model.LessonFile{}).
		Where("lesson_id = ?", lessonID).
		Count(&count).Error

	return count, err
}
