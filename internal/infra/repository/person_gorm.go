package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"school/internal/domain/model"
	repo "school/internal/repository"
)

type personGormRepository struct {
	db *gorm.DB
}

func NewPersonRepository(db *gorm.DB) repo.PersonRepository {
	return &personGormRepository{db: db}
}

func (r *personGormRepository) Create(ctx context.Context, person *model.Person) error {
	return r.db.WithContext(ctx).Create(person).Error
}

func (r *personGormRepository) FindByID(ctx context.Context, id string) (*model.Person, error) {
	var p model.Person

	err := r.db.WithContext(ctx).
		Where("id = ?", id).
		First(&p).Error

	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, repo.ErrPersonNotFound
		}
		return nil, err
	}

	return &p, nil
}

func (r *personGormRepository) FindByEmail(ctx context.Context, email string) (*model.Person, error) {
	var p model.Person

	err := r.db.WithContext(ctx).
		Where("email = ?", email).
		First(&p).Error

	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, repo.ErrPersonNotFound
		}
		return nil, err
	}

	return &p, nil
}

func (r *personGormRepository) ListByRole(ctx context.Context, role model.Role) ([]model.Person, error) {
	var list []model.Person

	err := r.db.WithContext(ctx).
		Where("role = ?", role).
		Find(&list).Error

	return list, err
}

func (r *personGormRepository) Update(ctx context.Context, person *model.Person) error {
	result := r.db.WithContext(ctx).Save(person)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return repo.ErrPersonNotFound
	}
	return nil
}
