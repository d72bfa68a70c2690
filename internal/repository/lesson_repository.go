package repository

import (
	"context"
	"errors"

	"school/internal/domain/model"
)

var (
	ErrLessonNotFound = errors.New("lesson not found")
	ErrModuleNotFound = errors.New("module not found")
	ErrFileNotFound   = errors.New("file not found")
)

type LessonRepository interface {
	FindByID(ctx context.Context, id string) (*model.Lesson, error)
	ListByModuleID(ctx context.Context, moduleID string) ([]model.Lesson, error)
}

type ModuleRepository interface {
	FindByID(ctx context.Context, id string) (*model.Module, error)
}

// レッスン添付ファイルのメタデータ
type LessonFileRepository interface {
	FindByID(ctx context.Context, id string) (*model.LessonFile, error)
	ListByLessonID(ctx context.Context, lessonID string) ([]model.LessonFile, error)
	CountByLessonID(ctx context.Context, lessonID string) (int64, error)
}
