package model

// レッスン添付ファイルのメタデータ。実体はオブジェクトストレージ側
type LessonFile struct {
	ID           string    `json:"id" gorm:"type:uuid;primaryKey"`
	LessonID     string    `json:"lesson_id" gorm:"type:uuid;not null;index"`
	FileName     string    `json:"file_name" gorm:"not null"`
	OriginalName string    `json:"original_name"`
	ContentType  string    `json:"content_type"`
	FileSize     int64     `json:"file_size"`
	ObjectName   string    `json:"-" gorm:"not null"` // ストレージ内のキー
	BucketName   string    `json:"-"`
	UploadedByID *string   `json:"uploaded_by_id" gorm:"type:uuid"`
	Timestamp    Timestamp `json:"timestamps" gorm:"embedded"`
}
