package favorite

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/artcorner/art-corner-server/cmd/models"
	"github.com/artcorner/art-corner-server/cmd/utils"
	"github.com/artcorner/art-corner-server/service/events"
	"github.com/gorilla/mux"
	"gorm.io/gorm"
)

type Handler struct {
	db  *gorm.DB
	bus *events.Bus
}

func NewHandler(db *gorm.DB, bus *events.Bus) *Handler {
	return &Handler{db: db, bus: bus}
}

func (h *Handler) RegisterRoutes(router *mux.Router) {
	auth := utils.AuthMiddleware(h.db)

	router.HandleFunc("/favorites", auth(h.GetFavorites)).Methods("GET")
	router.HandleFunc("/favorites/products/{id}", auth(h.ToggleItem(models.ItemTypeProduct))).Methods("POST")
	router.HandleFunc("/favorites/events/{id}", auth(h.ToggleItem(models.ItemTypeEvent))).Methods("POST")
	router.HandleFunc("/favorites/galleries/{id}", auth(h.ToggleGallery)).Methods("POST")
	router.HandleFunc("/favorites/articles/{id}", auth(h.ToggleArticle)).Methods("POST")
}

// ToggleItem adds or removes a product/event favorite. The owner gets
// notified on the add edge only, and never about their own favorite.
func (h *Handler) ToggleItem(itemType models.ItemType) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := utils.GetUserIDFromContext(r.Context())
		if err != nil {
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}

		itemID, err := strconv.ParseUint(mux.Vars(r)["id"], 10, 64)
		if err != nil {
			http.Error(w, "Invalid item ID", http.StatusBadRequest)
			return
		}

		var ownerID uint
		var title string
		var resourceType models.ResourceType
		switch itemType {
		case models.ItemTypeEvent:
			var event models.Event
			if err := h.db.First(&event, itemID).Error; err != nil {
				http.Error(w, "Event not found", http.StatusNotFound)
				return
			}
			ownerID, title, resourceType = event.UserID, event.Title, models.ResourceEvent
		default:
			var product models.Product
			if err := h.db.First(&product, itemID).Error; err != nil {
				http.Error(w, "Product not found", http.StatusNotFound)
				return
			}
			ownerID, title, resourceType = product.UserID, product.Title, models.ResourceProduct
		}

		var existing models.Favorite
		err = h.db.Where("user_id = ? AND item_type = ? AND item_id = ?", userID, itemType, itemID).
			First(&existing).Error
		if err == nil {
			if err := h.db.Delete(&existing).Error; err != nil {
				http.Error(w, "Error removing favorite", http.StatusInternalServerError)
				return
			}
			utils.RespondWithJSON(w, http.StatusOK, map[string]interface{}{
				"favorited": false,
			})
			return
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			http.Error(w, "Error toggling favorite", http.StatusInternalServerError)
			return
		}

		favorite := models.Favorite{
			UserID:   userID,
			ItemType: itemType,
			ItemID:   uint(itemID),
		}

		tx := h.db.Begin()
		if err := tx.Create(&favorite).Error; err != nil {
			tx.Rollback()
			http.Error(w, "Error saving favorite", http.StatusInternalServerError)
			return
		}
		if userID != ownerID {
			if err := h.bus.Publish(tx, events.FavoriteAdded{
				ActorID:      userID,
				OwnerID:      ownerID,
				ResourceType: resourceType,
				ResourceID:   uint(itemID),
				Title:        title,
			}); err != nil {
				tx.Rollback()
				http.Error(w, "Error saving favorite", http.StatusInternalServerError)
				return
			}
		}
		if err := tx.Commit().Error; err != nil {
			http.Error(w, "Error saving favorite", http.StatusInternalServerError)
			return
		}

		utils.RespondWithJSON(w, http.StatusOK, map[string]interface{}{
			"favorited": true,
			"favorite":  favorite,
		})
	}
}

func (h *Handler) ToggleGallery(w http.ResponseWriter, r *http.Request) {
	userID, err := utils.GetUserIDFromContext(r.Context())
	if err != nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	galleryID, err := strconv.ParseUint(mux.Vars(r)["id"], 10, 64)
	if err != nil {
		http.Error(w, "Invalid gallery ID", http.StatusBadRequest)
		return
	}

	var gallery models.Gallery
	if err := h.db.First(&gallery, galleryID).Error; err != nil {
		http.Error(w, "Gallery not found", http.StatusNotFound)
		return
	}

	var existing models.FavoriteGallery
	err = h.db.Where("user_id = ? AND gallery_id = ?", userID, galleryID).First(&existing).Error
	if err == nil {
		if err := h.db.Delete(&existing).Error; err != nil {
			http.Error(w, "Error removing favorite", http.StatusInternalServerError)
			return
		}
		utils.RespondWithJSON(w, http.StatusOK, map[string]interface{}{"favorited": false})
		return
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		http.Error(w, "Error toggling favorite", http.StatusInternalServerError)
		return
	}

	favorite := models.FavoriteGallery{UserID: userID, GalleryID: uint(galleryID)}

	tx := h.db.Begin()
	if err := tx.Create(&favorite).Error; err != nil {
		tx.Rollback()
		http.Error(w, "Error saving favorite", http.StatusInternalServerError)
		return
	}
	if userID != gallery.OwnerID {
		if err := h.bus.Publish(tx, events.FavoriteAdded{
			ActorID:      userID,
			OwnerID:      gallery.OwnerID,
			ResourceType: models.ResourceGallery,
			ResourceID:   uint(galleryID),
			Title:        gallery.Title,
		}); err != nil {
			tx.Rollback()
			http.Error(w, "Error saving favorite", http.StatusInternalServerError)
			return
		}
	}
	if err := tx.Commit().Error; err != nil {
		http.Error(w, "Error saving favorite", http.StatusInternalServerError)
		return
	}

	utils.RespondWithJSON(w, http.StatusOK, map[string]interface{}{
		"favorited": true,
		"favorite":  favorite,
	})
}

func (h *Handler) ToggleArticle(w http.ResponseWriter, r *http.Request) {
	userID, err := utils.GetUserIDFromContext(r.Context())
	if err != nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	articleID, err := strconv.ParseUint(mux.Vars(r)["id"], 10, 64)
	if err != nil {
		http.Error(w, "Invalid article ID", http.StatusBadRequest)
		return
	}

	var article models.Article
	if err := h.db.First(&article, articleID).Error; err != nil {
		http.Error(w, "Article not found", http.StatusNotFound)
		return
	}

	var existing models.FavoriteArticle
	err = h.db.Where("user_id = ? AND article_id = ?", userID, articleID).First(&existing).Error
	if err == nil {
		if err := h.db.Delete(&existing).Error; err != nil {
			http.Error(w, "Error removing favorite", http.StatusInternalServerError)
			return
		}
		utils.RespondWithJSON(w, http.StatusOK, map[string]interface{}{"favorited": false})
		return
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		http.Error(w, "Error toggling favorite", http.StatusInternalServerError)
		return
	}

	favorite := models.FavoriteArticle{UserID: userID, ArticleID: uint(articleID)}

	tx := h.db.Begin()
	if err := tx.Create(&favorite).Error; err != nil {
		tx.Rollback()
		http.Error(w, "Error saving favorite", http.StatusInternalServerError)
		return
	}
	if userID != article.UserID {
		if err := h.bus.Publish(tx, events.FavoriteAdded{
			ActorID:      userID,
			OwnerID:      article.UserID,
			ResourceType: models.ResourceArticle,
			ResourceID:   uint(articleID),
			Title:        article.Title,
		}); err != nil {
			tx.Rollback()
			http.Error(w, "Error saving favorite", http.StatusInternalServerError)
			return
		}
	}
	if err := tx.Commit().Error; err != nil {
		http.Error(w, "Error saving favorite", http.StatusInternalServerError)
		return
	}

	utils.RespondWithJSON(w, http.StatusOK, map[string]interface{}{
		"favorited": true,
		"favorite":  favorite,
	})
}

// GetFavorites returns the caller's saved items grouped by kind, with
// the referenced records resolved.
func (h *Handler) GetFavorites(w http.ResponseWriter, r *http.Request) {
	userID, err := utils.GetUserIDFromContext(r.Context())
	if err != nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	var itemFavorites []models.Favorite
	if err := h.db.Where("user_id = ?", userID).Order("created_at DESC").
		Find(&itemFavorites).Error; err != nil {
		http.Error(w, "Error retrieving favorites", http.StatusInternalServerError)
		return
	}

	var productIDs, eventIDs []uint
	for _, f := range itemFavorites {
		if f.ItemType == models.ItemTypeEvent {
			eventIDs = append(eventIDs, f.ItemID)
		} else {
			productIDs = append(productIDs, f.ItemID)
		}
	}

	products := make([]models.Product, 0)
	if len(productIDs) > 0 {
		h.db.Preload("Media").Where("id IN ?", productIDs).Find(&products)
	}
	eventList := make([]models.Event, 0)
	if len(eventIDs) > 0 {
		h.db.Where("id IN ?", eventIDs).Find(&eventList)
	}

	galleries := make([]models.Gallery, 0)
	if err := h.db.
		Joins("JOIN favorite_galleries fg ON fg.gallery_id = galleries.id").
		Where("fg.user_id = ?", userID).
		Find(&galleries).Error; err != nil {
		http.Error(w, "Error retrieving favorites", http.StatusInternalServerError)
		return
	}

	articles := make([]models.Article, 0)
	if err := h.db.
		Joins("JOIN favorite_articles fa ON fa.article_id = articles.id").
		Where("fa.user_id = ?", userID).
		Find(&articles).Error; err != nil {
		http.Error(w, "Error retrieving favorites", http.StatusInternalServerError)
		return
	}

	utils.RespondWithJSON(w, http.StatusOK, map[string]interface{}{
		"products":  products,
		"events":    eventList,
		"galleries": galleries,
		"articles":  articles,
	})
}
