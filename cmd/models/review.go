package models

import "time"

// Review is one rating per (user, product); the unique index rejects a
// second review from the same buyer. Deleted reviews go away for good,
// so the buyer may review the product again afterwards.
type Review struct {
	ID        uint      `gorm:"primarykey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
	UserID    uint      `gorm:"column:user_id;not null;uniqueIndex:idx_review_user_product" json:"user_id"`
	ProductID uint      `gorm:"column:product_id;not null;uniqueIndex:idx_review_user_product" json:"product_id"`
	Rating    float64   `gorm:"column:rating;not null" json:"rating"`
	Body      string    `gorm:"column:body;type:text" json:"body"`

	User    *User    `gorm:"foreignKey:UserID" json:"user,omitempty"`
	Product *Product `gorm:"foreignKey:ProductID" json:"-"`
}

func (Review) TableName() string {
	return "reviews"
}
