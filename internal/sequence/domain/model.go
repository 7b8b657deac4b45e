package domain

import "time"

// DocumentCounter holds the last issued value for one numbering bucket.
type DocumentCounter struct {
	FiscalYear  int    `gorm:"primaryKey;autoIncrement:false"`
	Month       int    `gorm:"primaryKey;autoIncrement:false"`
	AccountCode string `gorm:"primaryKey;type:text"`
	UnitCode    string `gorm:"primaryKey;type:text"`
	LastValue   int64  `gorm:"not null;default:0"`
	UpdatedAt   time.Time
}

// TableName sets the database table name.
func (DocumentCounter) TableName() string { return "document_counters" }
