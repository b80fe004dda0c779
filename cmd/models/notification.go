package models

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Notification types emitted by the event consumers.
const (
	NotificationCollabInvite    = "collab_invite"
	NotificationCollabWithdrawn = "collab_withdrawn"
	NotificationCollabRemoved   = "collab_removed"
	NotificationCollabAccepted  = "collab_accepted"
	NotificationCollabDeclined  = "collab_declined"
	NotificationFavorite        = "favorite"
	NotificationOrderPlaced     = "order_placed"
	NotificationMessage         = "message"
)

type Notification struct {
	gorm.Model
	UserID  uint           `gorm:"column:user_id;not null;index" json:"user_id"`
	Type    string         `gorm:"column:type;size:50;not null" json:"type"`
	Message string         `gorm:"column:message;type:text;not null" json:"message"`
	Link    string         `gorm:"column:link;size:500" json:"link"`
	Seen    bool           `gorm:"column:seen;default:false" json:"seen"`
	Meta    datatypes.JSON `gorm:"column:meta;type:json" json:"meta,omitempty"`
}

// Device is a registered Expo push token for a user. Unregistering
// hard-deletes so the same token can come back later.
type Device struct {
	ID         uint      `gorm:"primarykey" json:"id"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
	UserID     uint      `gorm:"column:user_id;not null;index;uniqueIndex:idx_token_user" json:"user_id"`
	Token      string    `gorm:"column:token;not null;uniqueIndex:idx_token_user" json:"token"`
	DeviceType string    `gorm:"column:device_type;type:varchar(50)" json:"device_type"`
	DeviceName string    `gorm:"column:device_name;type:varchar(100)" json:"device_name,omitempty"`
}
