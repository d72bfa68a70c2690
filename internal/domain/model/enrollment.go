package model

import "time"

type EnrollmentStatus string

const (
	EnrollmentStatusActive  EnrollmentStatus = "ACTIVE"
	EnrollmentStatusBlocked EnrollmentStatus = "BLOCKED"
)

// 受講権。コンテンツ可視性の判断はすべてこの行が根拠になる。
// (StudentID, CourseID) で一意。
type Enrollment struct {
	ID        string           `json:"id" gorm:"type:uuid;primaryKey"`
	StudentID string           `json:"student_id" gorm:"type:uuid;not null;uniqueIndex:idx_enrollment_student_course"`
	CourseID  string           `json:"course_id" gorm:"type:uuid;not null;uniqueIndex:idx_enrollment_student_course"`
	Status    EnrollmentStatus `json:"status" gorm:"type:varchar(20);not null;default:'ACTIVE';index"`
	ExpiresAt *time.Time       `json:"expires_at"` // 明示期限。nilならコース側のaccess_durationから導出
	Timestamp Timestamp        `json:"timestamps" gorm:"embedded"`
}

// 実効期限を返す。nilは「時間では失効しない」
// 明示のExpiresAtが優先、なければ作成日+コースのアクセス日数
func (e *Enrollment) EffectiveExpiry(accessDurationDays *int) *time.Time {
	if e.ExpiresAt != nil {
		return e.ExpiresAt
	}
	if accessDurationDays != nil {
		t := e.Timestamp.CreatedAt.AddDate(0, 0, *accessDurationDays)
		return &t
	}
	return nil
}
