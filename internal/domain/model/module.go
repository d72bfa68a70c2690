package model

// コース内のモジュール。未割り当て（CourseIDがnil）も許す
type Module struct {
	ID          string    `json:"id" gorm:"type:uuid;primaryKey"`
	CourseID    *string   `json:"course_id" gorm:"type:uuid;index"`
	Name        string    `json:"name" gorm:"not null"`
	Description string    `json:"description"`
	Position    int       `json:"position" gorm:"not null;default:0"`
	CreatedByID *string   `json:"created_by_id" gorm:"type:uuid;index"`
	Timestamp   Timestamp `json:"timestamps" gorm:"embedded"`
}
