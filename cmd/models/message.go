package models

import "gorm.io/gorm"

type Message struct {
	gorm.Model
	SenderID   uint   `gorm:"column:sender_id;not null;index" json:"sender_id"`
	ReceiverID uint   `gorm:"column:receiver_id;not null;index" json:"receiver_id"`
	Content    string `gorm:"column:content;type:text;not null" json:"content"`
	IsRead     bool   `gorm:"column:is_read;default:false" json:"is_read"`

	Sender      *User               `gorm:"foreignKey:SenderID" json:"sender,omitempty"`
	Receiver    *User               `gorm:"foreignKey:ReceiverID" json:"receiver,omitempty"`
	Attachments []MessageAttachment `gorm:"foreignKey:MessageID;constraint:OnDelete:CASCADE" json:"attachments,omitempty"`
}

func (Message) TableName() string {
	return "messages"
}

type MessageAttachment struct {
	gorm.Model
	MessageID uint   `gorm:"column:message_id;not null;index" json:"message_id"`
	URL       string `gorm:"column:url;size:500;not null" json:"url"`
	Kind      string `gorm:"column:kind;size:20;not null;default:image" json:"kind"`
}

func (MessageAttachment) TableName() string {
	return "message_attachments"
}
