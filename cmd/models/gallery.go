package models

import (
	"time"

	"gorm.io/gorm"
)

const (
	CollaboratorPending  = "pending"
	CollaboratorAccepted = "accepted"
)

type Gallery struct {
	gorm.Model
	OwnerID     uint   `gorm:"column:owner_id;not null;index" json:"owner_id"`
	Title       string `gorm:"column:title;size:255;not null" json:"title"`
	Description string `gorm:"column:description;type:text" json:"description"`
	IsPublic    bool   `gorm:"column:is_public;not null" json:"is_public"`

	Owner         *User                 `gorm:"foreignKey:OwnerID" json:"owner,omitempty"`
	Collaborators []GalleryCollaborator `gorm:"foreignKey:GalleryID" json:"collaborators,omitempty"`
	Products      []GalleryProduct      `gorm:"foreignKey:GalleryID" json:"products,omitempty"`
}

// GalleryCollaborator holds both accepted collaborators and outstanding
// invites, distinguished by Status. The unique (gallery, user) index keeps
// the two sets disjoint; the owner never gets a row. Link rows hard-delete
// so a withdrawn or removed user can be invited again.
type GalleryCollaborator struct {
	ID        uint      `gorm:"primarykey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
	GalleryID uint      `gorm:"column:gallery_id;not null;uniqueIndex:idx_gallery_user" json:"gallery_id"`
	UserID    uint      `gorm:"column:user_id;not null;uniqueIndex:idx_gallery_user" json:"user_id"`
	Status    string    `gorm:"column:status;size:20;not null;default:pending" json:"status"`
	User      *User     `gorm:"foreignKey:UserID" json:"user,omitempty"`
}

func (GalleryCollaborator) TableName() string {
	return "gallery_collaborators"
}

// GalleryProduct is a gallery membership with a display position. Positions
// within one gallery stay a dense 0..n-1 permutation after every reorder.
type GalleryProduct struct {
	ID        uint      `gorm:"primarykey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
	GalleryID uint      `gorm:"column:gallery_id;not null;uniqueIndex:idx_gallery_product" json:"gallery_id"`
	ProductID uint      `gorm:"column:product_id;not null;uniqueIndex:idx_gallery_product" json:"product_id"`
	Position  int       `gorm:"column:position;not null;default:0" json:"position"`
	Product   *Product  `gorm:"foreignKey:ProductID" json:"product,omitempty"`
}

func (GalleryProduct) TableName() string {
	return "gallery_products"
}
