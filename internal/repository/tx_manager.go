package repository

import "context"

// トランザクション内で使えるリポジトリ群。
// rotateやsweepは必ずこの中で行を読み直してから書く
type TxRepos interface {
	RefreshTokens() RefreshTokenRepository
	Enrollments() EnrollmentRepository
	Courses() CourseRepository
	Persons() PersonRepository
	ReviewRequests() ReviewRequestRepository
}

// usecaseからTxの開始/commit/rollbackを隠す。
// fnがerrorを返したら全部ロールバック（部分コミットは無い）
type TransactionManager interface {
	WithinTx(ctx context.Context, fn func(r TxRepos) error) error
}
