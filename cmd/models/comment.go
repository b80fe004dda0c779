package models

import (
	"time"

	"gorm.io/gorm"
)

// ResourceType enumerates the kinds of documents a comment, report or
// notification link can point at.
type ResourceType string

const (
	ResourceUser    ResourceType = "User"
	ResourceProduct ResourceType = "Product"
	ResourceEvent   ResourceType = "Event"
	ResourceGallery ResourceType = "Gallery"
	ResourceArticle ResourceType = "Article"
)

func ValidResourceType(rt ResourceType) bool {
	switch rt {
	case ResourceUser, ResourceProduct, ResourceEvent, ResourceGallery, ResourceArticle:
		return true
	}
	return false
}

const (
	ReactionLike    = "like"
	ReactionDislike = "dislike"
)

type Comment struct {
	gorm.Model
	UserID       uint         `gorm:"column:user_id;not null;index" json:"user_id"`
	ResourceType ResourceType `gorm:"column:resource_type;size:20;not null;index:idx_comment_resource" json:"resource_type"`
	ResourceID   uint         `gorm:"column:resource_id;not null;index:idx_comment_resource" json:"resource_id"`
	ParentID     *uint        `gorm:"column:parent_id;index" json:"parent_id,omitempty"`
	Content      string       `gorm:"column:content;type:text;not null" json:"content"`

	User      *User             `gorm:"foreignKey:UserID" json:"user,omitempty"`
	Reactions []CommentReaction `gorm:"foreignKey:CommentID" json:"reactions,omitempty"`
}

// CommentReaction is a like or dislike. One row per (comment, user); a
// user switching sides updates the row rather than adding a second one.
// Reactions hard-delete so the same user can react again later.
type CommentReaction struct {
	ID        uint      `gorm:"primarykey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
	CommentID uint      `gorm:"column:comment_id;not null;uniqueIndex:idx_comment_user" json:"comment_id"`
	UserID    uint      `gorm:"column:user_id;not null;uniqueIndex:idx_comment_user" json:"user_id"`
	Kind      string    `gorm:"column:kind;size:10;not null" json:"kind"`
}

func (CommentReaction) TableName() string {
	return "comment_reactions"
}
