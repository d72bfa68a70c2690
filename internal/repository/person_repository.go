package repository

import (
	"context"
	"errors"

	"school/internal/domain/model"
)

var ErrPersonNotFound = errors.New("person not found")

type PersonRepository interface {
	Create(ctx context.Context, person *model.Person) error
	FindByID(ctx context.Context, id string) (*model.Person, error)
	FindByEmail(ctx context.Context, email string) (*model.Person, error)
	ListByRole(ctx context.Context, role model.Role) ([]model.Person, error)
	Update(ctx context.Context, person *model.Person) error
}
