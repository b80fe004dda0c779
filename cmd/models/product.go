package models

import "gorm.io/gorm"

const (
	MediaKindImage = "image"
	MediaKindVideo = "video"
	MediaKindAudio = "audio"
)

type Product struct {
	gorm.Model
	UserID      uint    `gorm:"column:user_id;not null;index" json:"user_id"`
	Title       string  `gorm:"column:title;size:255;not null" json:"title"`
	Description string  `gorm:"column:description;type:text" json:"description"`
	ForSale     bool    `gorm:"column:for_sale;default:false" json:"for_sale"`
	Price       float64 `gorm:"column:price;default:0" json:"price"`
	Quantity    int     `gorm:"column:quantity;default:0" json:"quantity"`

	AverageRating float64 `gorm:"column:average_rating;default:0" json:"average_rating"`
	TotalReviews  int     `gorm:"column:total_reviews;default:0" json:"total_reviews"`

	User    *User          `gorm:"foreignKey:UserID" json:"user,omitempty"`
	Media   []ProductMedia `gorm:"foreignKey:ProductID;constraint:OnDelete:CASCADE" json:"media,omitempty"`
	Reviews []Review       `gorm:"foreignKey:ProductID" json:"reviews,omitempty"`
}

type ProductMedia struct {
	gorm.Model
	ProductID uint   `gorm:"column:product_id;not null;index" json:"product_id"`
	Kind      string `gorm:"column:kind;size:20;not null;default:image" json:"kind"`
	URL       string `gorm:"column:url;size:500;not null" json:"url"`
	Position  int    `gorm:"column:position;default:0" json:"position"`
}

func (ProductMedia) TableName() string {
	return "product_media"
}
