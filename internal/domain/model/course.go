package model

type CourseStatus string

const (
	CourseStatusDraft     CourseStatus = "DRAFT"
	CourseStatusPublished CourseStatus = "PUBLISHED"
	CourseStatusArchived  CourseStatus = "ARCHIVED"
)

// コース。関連はIDで持つ（オブジェクトグラフは持たない）
type Course struct {
	ID                 string       `json:"id" gorm:"type:uuid;primaryKey"`
	Name               string       `json:"name" gorm:"not null"`
	Description        string       `json:"description"`
	Status             CourseStatus `json:"status" gorm:"type:varchar(20);not null;default:'DRAFT'"`
	Price              int64        `json:"price"`
	AccessDurationDays *int         `json:"access_duration_days"` // nilなら期限なし
	NextCourseID       *string      `json:"next_course_id" gorm:"type:uuid"`
	CreatedByID        *string      `json:"created_by_id" gorm:"type:uuid;index"`
	Timestamp          Timestamp    `json:"timestamps" gorm:"embedded"`
}
