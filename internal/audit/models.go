package audit

import "time"

// LinkAudit records one signed-link issuance. Rows are never updated.
type LinkAudit struct {
	ID              int64     `gorm:"column:id;primaryKey;autoIncrement"`
	FileID          int64     `gorm:"column:file_id;not null;index"`
	RequesterUserID int64     `gorm:"column:requester_user_id;not null;index"`
	TTLSeconds      int64     `gorm:"column:ttl_seconds;not null"`
	CreatedAt       time.Time `gorm:"column:created_at;not null;autoCreateTime"`
}

// TableName pins the table name shared with the SQL migrations.
func (LinkAudit) TableName() string {
	return "link_audits"
}

// View is an audit joined with the current name of its file.
type View struct {
	ID              int64     `gorm:"column:id"`
	FileID          int64     `gorm:"column:file_id"`
	Filename        string    `gorm:"column:filename"`
	RequesterUserID int64     `gorm:"column:requester_user_id"`
	TTLSeconds      int64     `gorm:"column:ttl_seconds"`
	CreatedAt       time.Time `gorm:"column:created_at"`
}
