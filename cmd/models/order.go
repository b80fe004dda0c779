package models

import (
	"time"

	"gorm.io/gorm"
)

// ItemType discriminates what a cart or order line points at.
type ItemType string

const (
	ItemTypeProduct ItemType = "Product"
	ItemTypeEvent   ItemType = "Event"
)

// NormalizeItemType applies the storage-layer default: an empty
// discriminator means Product.
func NormalizeItemType(it ItemType) ItemType {
	if it == "" {
		return ItemTypeProduct
	}
	return it
}

func ValidItemType(it ItemType) bool {
	return it == ItemTypeProduct || it == ItemTypeEvent
}

const (
	OrderPending   = "Pending"
	OrderDelivered = "Delivered"
	OrderCancelled = "Cancelled"
)

// Cart rows hard-delete so a cleared or removed line can be re-added
// without tripping the unique index.
type CartItem struct {
	ID        uint      `gorm:"primarykey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
	UserID    uint      `gorm:"column:user_id;not null;uniqueIndex:idx_cart_user_item" json:"user_id"`
	ItemType  ItemType  `gorm:"column:item_type;size:20;not null;default:Product;uniqueIndex:idx_cart_user_item" json:"item_type"`
	ItemID    uint      `gorm:"column:item_id;not null;uniqueIndex:idx_cart_user_item" json:"item_id"`
	Quantity  int       `gorm:"column:quantity;not null;default:1" json:"quantity"`
}

func (CartItem) TableName() string {
	return "cart_items"
}

type Order struct {
	gorm.Model
	UserID    uint   `gorm:"column:user_id;not null;index" json:"user_id"`
	Reference string `gorm:"column:reference;size:64;not null;uniqueIndex" json:"reference"`
	Status    string `gorm:"column:status;size:20;not null;default:Pending" json:"status"`

	Total float64 `gorm:"column:total;not null" json:"total"`

	ShippingName    string `gorm:"column:shipping_name;size:255" json:"shipping_name"`
	ShippingAddress string `gorm:"column:shipping_address;size:500" json:"shipping_address"`
	ShippingCity    string `gorm:"column:shipping_city;size:100" json:"shipping_city"`
	ShippingCountry string `gorm:"column:shipping_country;size:100" json:"shipping_country"`
	ShippingPhone   string `gorm:"column:shipping_phone;size:20" json:"shipping_phone"`

	PaymentReference string `gorm:"column:payment_reference;size:128" json:"payment_reference,omitempty"`
	Paid             bool   `gorm:"column:paid;default:false" json:"paid"`

	User  *User       `gorm:"foreignKey:UserID" json:"user,omitempty"`
	Items []OrderItem `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE" json:"items"`
}

// OrderItem snapshots the line at checkout time; price changes after the
// fact do not rewrite history.
type OrderItem struct {
	gorm.Model
	OrderID  uint     `gorm:"column:order_id;not null;index" json:"order_id"`
	ItemType ItemType `gorm:"column:item_type;size:20;not null;default:Product" json:"item_type"`
	ItemID   uint     `gorm:"column:item_id;not null" json:"item_id"`
	Title    string   `gorm:"column:title;size:255;not null" json:"title"`
	Price    float64  `gorm:"column:price;not null" json:"price"`
	Quantity int      `gorm:"column:quantity;not null" json:"quantity"`
}

func (OrderItem) TableName() string {
	return "order_items"
}
