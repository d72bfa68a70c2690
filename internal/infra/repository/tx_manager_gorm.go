package repository

import (
	"context"

	"gorm.io/gorm"

	repo "school/internal/repository"
)

type txReposGorm struct {
	refreshTokens  repo.RefreshTokenRepository
	enrollments    repo.EnrollmentRepository
	courses        repo.CourseRepository
	persons        repo.PersonRepository
	reviewRequests repo.ReviewRequestRepository
}

func (r *txReposGorm) RefreshTokens() repo.RefreshTokenRepository   { return r.refreshTokens }
func (r *txReposGorm) Enrollments() repo.EnrollmentRepository       { return r.enrollments }
func (r *txReposGorm) Courses() repo.CourseRepository               { return r.courses }
func (r *txReposGorm) Persons() repo.PersonRepository               { return r.persons }
func (r *txReposGorm) ReviewRequests() repo.ReviewRequestRepository { return r.reviewRequests }

type TxManagerGorm struct {
	db *gorm.DB
}

func NewTxManagerGorm(db *gorm.DB) *TxManagerGorm {
	return &TxManagerGorm{db: db}
}

func (tm *TxManagerGorm) WithinTx(ctx context.Context, fn func(r repo.TxRepos) error) error {
	return tm.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		//repoはtxを持ったDBで作り直す
		r := &txReposGorm{
			refreshTokens:  NewRefreshTokenRepository(tx),
			enrollments:    NewEnrollmentRepository(tx),
			courses:        NewCourseRepository(tx),
			persons:        NewPersonRepository(tx),
			reviewRequests: NewReviewRequestRepository(tx),
		}
		return fn(r)
	})
}
