package models

import (
	"time"

	"gorm.io/gorm"
)

const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

type User struct {
	gorm.Model
	FullName     string `gorm:"column:full_name;size:255;not null" json:"full_name"`
	Email        string `gorm:"column:email;size:255;not null;uniqueIndex" json:"email"`
	PasswordHash string `gorm:"column:password_hash;size:255;not null" json:"-"`
	Role         string `gorm:"column:role;size:50;not null;default:user" json:"role"`
	Bio          string `gorm:"column:bio;type:text" json:"bio"`
	AvatarPath   string `gorm:"column:avatar_path;size:500" json:"avatar_path"`
	CoverPath    string `gorm:"column:cover_path;size:500" json:"cover_path"`
	Address      string `gorm:"column:address;size:500" json:"address"`
	IsBlocked    bool   `gorm:"column:is_blocked;default:false" json:"is_blocked"`

	// Optimistic concurrency: user rows are mutated from almost every service,
	// so a conflicting concurrent save fails instead of silently overwriting.
	Version int `gorm:"column:version;not null;default:0" json:"-"`

	EmailVerified         bool      `gorm:"column:email_verified;default:false" json:"email_verified"`
	EmailVerificationCode string    `gorm:"size:6" json:"-"`
	VerificationExpiry    time.Time `json:"-"`
}

// UserBlock records that blocker no longer wants to see blocked's
// messages or comments. Hard-deletes on unblock so a later re-block
// passes the unique index.
type UserBlock struct {
	ID        uint      `gorm:"primarykey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	BlockerID uint      `gorm:"column:blocker_id;not null;uniqueIndex:idx_blocker_blocked" json:"blocker_id"`
	BlockedID uint      `gorm:"column:blocked_id;not null;uniqueIndex:idx_blocker_blocked" json:"blocked_id"`
	Blocker   *User     `gorm:"foreignKey:BlockerID" json:"-"`
	Blocked   *User     `gorm:"foreignKey:BlockedID" json:"blocked,omitempty"`
}

func (UserBlock) TableName() string {
	return "user_blocks"
}

// SaveUserVersioned persists changes to a user row only if nobody else
// saved it since it was read. Returns gorm.ErrRecordNotFound on a
// version conflict; callers re-read and retry.
func SaveUserVersioned(db *gorm.DB, user *User) error {
	current := user.Version
	user.Version++
	result := db.Model(&User{}).
		Where("id = ? AND version = ?", user.ID, current).
		Select("*").Omit("id", "created_at").
		Updates(user)
	if result.Error != nil {
		user.Version = current
		return result.Error
	}
	if result.RowsAffected == 0 {
		user.Version = current
		return gorm.ErrRecordNotFound
	}
	return nil
}
