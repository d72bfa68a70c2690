package model

// レッスン。VideoURLは有料コンテンツなので出すかどうかはAccessGuardが決める
type Lesson struct {
	ID              string    `json:"id" gorm:"type:uuid;primaryKey"`
	ModuleID        *string   `json:"module_id" gorm:"type:uuid;index"`
	Name            string    `json:"name" gorm:"not null"`
	Description     string    `json:"description"`
	VideoURL        *string   `json:"video_url"`
	DurationMinutes int       `json:"duration_minutes"`
	Position        int       `json:"position" gorm:"not null;default:0"`
	CreatedByID     *string   `json:"created_by_id" gorm:"type:uuid;index"`
	Timestamp       Timestamp `json:"timestamps" gorm:"embedded"`
}
