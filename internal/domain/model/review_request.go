package model

import "time"

type ReviewRequestStatus string

const (
	ReviewRequestStatusApproved ReviewRequestStatus = "APPROVED"
)

// レビュー提出の追記専用ログ。延長処理のたびに1行増える
type CourseReviewRequest struct {
	ID               string              `json:"id" gorm:"type:uuid;primaryKey"`
	PersonID         string              `json:"person_id" gorm:"type:uuid;not null;index"`
	CourseID         string              `json:"course_id" gorm:"type:uuid;not null;index"`
	VideoURL         string              `json:"video_url"`
	OriginalFilename string              `json:"original_filename"`
	Status           ReviewRequestStatus `json:"status" gorm:"type:varchar(20);not null;default:'APPROVED'"` // 今は自動承認
	CreatedAt        time.Time           `json:"created_at" gorm:"not null;autoCreateTime"`
}
