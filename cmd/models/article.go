package models

import "gorm.io/gorm"

var ArticleCategories = []string{
	"news",
	"tutorial",
	"exhibition",
	"interview",
	"opinion",
}

func ValidArticleCategory(category string) bool {
	for _, c := range ArticleCategories {
		if c == category {
			return true
		}
	}
	return false
}

type Article struct {
	gorm.Model
	UserID    uint   `gorm:"column:user_id;not null;index" json:"user_id"`
	Title     string `gorm:"column:title;size:255;not null" json:"title"`
	Category  string `gorm:"column:category;size:50;not null" json:"category"`
	Content   string `gorm:"column:content;type:text;not null" json:"content"`
	CoverPath string `gorm:"column:cover_path;size:500" json:"cover_path"`

	User *User `gorm:"foreignKey:UserID" json:"user,omitempty"`
}
