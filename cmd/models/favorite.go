package models

import "time"

// Favorite marks a product or event as saved by a user. Gallery and
// article favorites keep their own tables since they never mix with the
// cart's item-type machinery. Favorites hard-delete: toggling one off
// and on again recreates the row under the same unique index.
type Favorite struct {
	ID        uint      `gorm:"primarykey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UserID    uint      `gorm:"column:user_id;not null;uniqueIndex:idx_fav_user_item" json:"user_id"`
	ItemType  ItemType  `gorm:"column:item_type;size:20;not null;default:Product;uniqueIndex:idx_fav_user_item" json:"item_type"`
	ItemID    uint      `gorm:"column:item_id;not null;uniqueIndex:idx_fav_user_item" json:"item_id"`
}

func (Favorite) TableName() string {
	return "favorites"
}

type FavoriteGallery struct {
	ID        uint      `gorm:"primarykey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UserID    uint      `gorm:"column:user_id;not null;uniqueIndex:idx_fav_user_gallery" json:"user_id"`
	GalleryID uint      `gorm:"column:gallery_id;not null;uniqueIndex:idx_fav_user_gallery" json:"gallery_id"`
}

func (FavoriteGallery) TableName() string {
	return "favorite_galleries"
}

type FavoriteArticle struct {
	ID        uint      `gorm:"primarykey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UserID    uint      `gorm:"column:user_id;not null;uniqueIndex:idx_fav_user_article" json:"user_id"`
	ArticleID uint      `gorm:"column:article_id;not null;uniqueIndex:idx_fav_user_article" json:"article_id"`
}

func (FavoriteArticle) TableName() string {
	return "favorite_articles"
}
