package order

import (
	"fmt"

	"github.com/artcorner/art-corner-server/cmd/models"
	"gorm.io/gorm"
)

// resolvedItem is the common view of anything a cart line can point at.
type resolvedItem struct {
	Type        models.ItemType
	ID          uint
	OwnerID     uint
	Title       string
	Price       float64
	Purchasable bool
	Available   int
}

// resolveItem performs the single tagged lookup for a cart line. The
// discriminator decides the table; no fallback probing across tables.
func resolveItem(db *gorm.DB, itemType models.ItemType, itemID uint) (*resolvedItem, error) {
	switch models.NormalizeItemType(itemType) {
	case models.ItemTypeEvent:
		var event models.Event
		if err := db.First(&event, itemID).Error; err != nil {
			return nil, err
		}
		return &resolvedItem{
			Type:        models.ItemTypeEvent,
			ID:          event.ID,
			OwnerID:     event.UserID,
			Title:       event.Title,
			Price:       event.Price,
			Purchasable: true,
			Available:   event.Capacity,
		}, nil
	case models.ItemTypeProduct:
		var product models.Product
		if err := db.First(&product, itemID).Error; err != nil {
			return nil, err
		}
		return &resolvedItem{
			Type:        models.ItemTypeProduct,
			ID:          product.ID,
			OwnerID:     product.UserID,
			Title:       product.Title,
			Price:       product.Price,
			Purchasable: product.ForSale,
			Available:   product.Quantity,
		}, nil
	}
	return nil, fmt.Errorf("unknown item type %q", itemType)
}

// decrementStock reserves quantity for one resolved line inside the
// checkout transaction. The guarded UPDATE makes oversell impossible
// even under concurrent checkouts.
func decrementStock(tx *gorm.DB, item *resolvedItem, quantity int) error {
	var result *gorm.DB
	switch item.Type {
	case models.ItemTypeEvent:
		result = tx.Model(&models.Event{}).
			Where("id = ? AND capacity >= ?", item.ID, quantity).
			Update("capacity", gorm.Expr("capacity - ?", quantity))
	default:
		result = tx.Model(&models.Product{}).
			Where("id = ? AND quantity >= ?", item.ID, quantity).
			Update("quantity", gorm.Expr("quantity - ?", quantity))
	}
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("insufficient stock for %s %d", item.Type, item.ID)
	}
	return nil
}
