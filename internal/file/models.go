package file

import "time"

// StoredFile is the metadata record of an uploaded file.
type StoredFile struct {
	ID               int64     `gorm:"column:id;primaryKey;autoIncrement"`
	OwnerID          int64     `gorm:"column:owner_user_id;not null;index"`
	OriginalFilename string    `gorm:"column:original_filename;size:255;not null"`
	StoredFilename   string    `gorm:"column:stored_filename;size:255;not null;uniqueIndex"`
	ContentType      string    `gorm:"column:content_type;size:255;not null"`
	SizeBytes        int64     `gorm:"column:size_bytes;not null"`
	UploadPath       string    `gorm:"column:upload_path;size:1024;not null"`
	Checksum         string    `gorm:"column:checksum;size:64;not null"`
	CreatedAt        time.Time `gorm:"column:created_at;not null;autoCreateTime"`
}

// TableName pins the table name shared with the SQL migrations.
func (StoredFile) TableName() string {
	return "stored_files"
}
