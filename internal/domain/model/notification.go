package model

import "time"

type NotificationType string

const (
	NotificationTypeGeneric              NotificationType = "GENERIC"
	NotificationTypeSystem               NotificationType = "SYSTEM"
	NotificationTypeCoursePurchased      NotificationType = "COURSE_PURCHASED"
	NotificationTypeCourseAccessExtended NotificationType = "COURSE_ACCESS_EXTENDED"
	NotificationTypeCourseExpiringSoon   NotificationType = "COURSE_EXPIRING_SOON"
	NotificationTypeNewUserRegistration  NotificationType = "NEW_USER_REGISTRATION"
)

type Notification struct {
	ID          string           `json:"id" gorm:"type:uuid;primaryKey"`
	RecipientID string           `json:"recipient_id" gorm:"type:uuid;not null;index"`
	Title       string           `json:"title" gorm:"not null"`
	Message     string           `json:"message"`
	Kind        NotificationType `json:"kind" gorm:"type:varchar(40);not null;default:'GENERIC'"`
	LinkURL     *string          `json:"link_url"`
	IsRead      bool             `json:"is_read" gorm:"not null;default:false"`
	CreatedAt   time.Time        `json:"created_at" gorm:"not null;autoCreateTime"`
}
