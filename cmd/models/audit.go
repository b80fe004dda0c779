package models

import (
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// AuditLog is append-only. No service exposes an update or delete path.
type AuditLog struct {
	gorm.Model
	Action      string         `gorm:"column:action;size:100;not null;index" json:"action"`
	PerformedBy uint           `gorm:"column:performed_by;not null;index" json:"performed_by"`
	TargetType  ResourceType   `gorm:"column:target_type;size:20" json:"target_type,omitempty"`
	TargetID    uint           `gorm:"column:target_id" json:"target_id,omitempty"`
	Details     datatypes.JSON `gorm:"column:details;type:json" json:"details,omitempty"`
}

func (AuditLog) TableName() string {
	return "audit_logs"
}

const (
	ReportOpen     = "open"
	ReportResolved = "resolved"
)

type Report struct {
	gorm.Model
	ReporterID uint         `gorm:"column:reporter_id;not null;index" json:"reporter_id"`
	TargetType ResourceType `gorm:"column:target_type;size:20;not null" json:"target_type"`
	TargetID   uint         `gorm:"column:target_id;not null" json:"target_id"`
	Reason     string       `gorm:"column:reason;type:text;not null" json:"reason"`
	Status     string       `gorm:"column:status;size:20;not null;default:open" json:"status"`

	Reporter *User `gorm:"foreignKey:ReporterID" json:"reporter,omitempty"`
}

func (Report) TableName() string {
	return "reports"
}
