package admin

import (
	"encoding/json"
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
	admin := utils.AdminMiddleware(h.db)

	router.HandleFunc("/admin/users/{id}/block", admin(h.BlockUser)).Methods("PUT")
	router.HandleFunc("/admin/users/{id}/unblock", admin(h.UnblockUser)).Methods("PUT")
	router.HandleFunc("/admin/users/{id}", admin(h.DeleteUser)).Methods("DELETE")
	router.HandleFunc("/admin/orders", admin(h.GetAllOrders)).Methods("GET")
	router.HandleFunc("/admin/orders/{id}/status", admin(h.UpdateOrderStatus)).Methods("PUT")
	router.HandleFunc("/admin/audit-logs", admin(h.GetAuditLogs)).Methods("GET")
}

func (h *Handler) BlockUser(w http.ResponseWriter, r *http.Request) {
	adminID, err := utils.GetUserIDFromContext(r.Context())
	if err != nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	userID, err := strconv.ParseUint(mux.Vars(r)["id"], 10, 64)
	if err != nil {
		http.Error(w, "Invalid user ID", http.StatusBadRequest)
		return
	}
	if uint(userID) == adminID {
		http.Error(w, "You cannot block yourself", http.StatusBadRequest)
		return
	}

	var user models.User
	if err := h.db.First(&user, userID).Error; err != nil {
		http.Error(w, "User not found", http.StatusNotFound)
		return
	}
	if user.IsBlocked {
		utils.RespondWithJSON(w, http.StatusOK, map[string]string{"message": "User is already blocked"})
		return
	}

	tx := h.db.Begin()
	if err := tx.Model(&models.User{}).Where("id = ?", userID).Update("is_blocked", true).Error; err != nil {
		tx.Rollback()
		http.Error(w, "Error blocking user", http.StatusInternalServerError)
		return
	}
	if err := h.bus.Publish(tx, events.UserBlocked{AdminID: adminID, UserID: uint(userID)}); err != nil {
		tx.Rollback()
		http.Error(w, "Error blocking user", http.StatusInternalServerError)
		return
	}
	if err := tx.Commit().Error; err != nil {
		http.Error(w, "Error blocking user", http.StatusInternalServerError)
		return
	}

	utils.RespondWithJSON(w, http.StatusOK, map[string]string{"message": "User blocked"})
}

func (h *Handler) UnblockUser(w http.ResponseWriter, r *http.Request) {
	adminID, err := utils.GetUserIDFromContext(r.Context())
	if err != nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	userID, err := strconv.ParseUint(mux.Vars(r)["id"], 10, 64)
	if err != nil {
		http.Error(w, "Invalid user ID", http.StatusBadRequest)
		return
	}

	var user models.User
	if err := h.db.First(&user, userID).Error; err != nil {
		http.Error(w, "User not found", http.StatusNotFound)
		return
	}
	if !user.IsBlocked {
		utils.RespondWithJSON(w, http.StatusOK, map[string]string{"message": "User is not blocked"})
		return
	}

	tx := h.db.Begin()
	if err := tx.Model(&models.User{}).Where("id = ?", userID).Update("is_blocked", false).Error; err != nil {
		tx.Rollback()
		http.Error(w, "Error unblocking user", http.StatusInternalServerError)
		return
	}
	if err := h.bus.Publish(tx, events.UserUnblocked{AdminID: adminID, UserID: uint(userID)}); err != nil {
		tx.Rollback()
		http.Error(w, "Error unblocking user", http.StatusInternalServerError)
		return
	}
	if err := tx.Commit().Error; err != nil {
		http.Error(w, "Error unblocking user", http.StatusInternalServerError)
		return
	}

	utils.RespondWithJSON(w, http.StatusOK, map[string]string{"message": "User unblocked"})
}

// DeleteUser removes an account and the content it owns: products,
// galleries, events, articles and the membership rows hanging off them.
// Comments the user wrote stay, attributed to the deleted account.
func (h *Handler) DeleteUser(w http.ResponseWriter, r *http.Request) {
	adminID, err := utils.GetUserIDFromContext(r.Context())
	if err != nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	userID, err := strconv.ParseUint(mux.Vars(r)["id"], 10, 64)
	if err != nil {
		http.Error(w, "Invalid user ID", http.StatusBadRequest)
		return
	}
	if uint(userID) == adminID {
		http.Error(w, "You cannot delete yourself", http.StatusBadRequest)
		return
	}

	var user models.User
	if err := h.db.First(&user, userID).Error; err != nil {
		http.Error(w, "User not found", http.StatusNotFound)
		return
	}

	tx := h.db.Begin()
	if err := purgeUserContent(tx, uint(userID)); err != nil {
		tx.Rollback()
		http.Error(w, "Error deleting user content", http.StatusInternalServerError)
		return
	}
	if err := tx.Delete(&user).Error; err != nil {
		tx.Rollback()
		http.Error(w, "Error deleting user", http.StatusInternalServerError)
		return
	}
	if err := h.bus.Publish(tx, events.UserDeleted{AdminID: adminID, UserID: uint(userID)}); err != nil {
		tx.Rollback()
		http.Error(w, "Error deleting user", http.StatusInternalServerError)
		return
	}
	if err := tx.Commit().Error; err != nil {
		http.Error(w, "Error deleting user", http.StatusInternalServerError)
		return
	}

	utils.RespondWithJSON(w, http.StatusOK, map[string]string{"message": "User deleted"})
}

func purgeUserContent(tx *gorm.DB, userID uint) error {
	var productIDs []uint
	if err := tx.Model(&models.Product{}).Where("user_id = ?", userID).Pluck("id", &productIDs).Error; err != nil {
		return err
	}
	if len(productIDs) > 0 {
		for _, table := range []interface{}{
			&models.GalleryProduct{}, &models.Review{}, &models.ProductMedia{},
		} {
			if err := tx.Where("product_id IN ?", productIDs).Delete(table).Error; err != nil {
				return err
			}
		}
		if err := tx.Where("item_type = ? AND item_id IN ?", models.ItemTypeProduct, productIDs).
			Delete(&models.CartItem{}).Error; err != nil {
			return err
		}
		if err := tx.Where("item_type = ? AND item_id IN ?", models.ItemTypeProduct, productIDs).
			Delete(&models.Favorite{}).Error; err != nil {
			return err
		}
		if err := tx.Where("id IN ?", productIDs).Delete(&models.Product{}).Error; err != nil {
			return err
		}
	}

	var eventIDs []uint
	if err := tx.Model(&models.Event{}).Where("user_id = ?", userID).Pluck("id", &eventIDs).Error; err != nil {
		return err
	}
	if len(eventIDs) > 0 {
		if err := tx.Where("event_id IN ?", eventIDs).Delete(&models.EventParticipant{}).Error; err != nil {
			return err
		}
		if err := tx.Where("item_type = ? AND item_id IN ?", models.ItemTypeEvent, eventIDs).
			Delete(&models.CartItem{}).Error; err != nil {
			return err
		}
		if err := tx.Where("item_type = ? AND item_id IN ?", models.ItemTypeEvent, eventIDs).
			Delete(&models.Favorite{}).Error; err != nil {
			return err
		}
		if err := tx.Where("id IN ?", eventIDs).Delete(&models.Event{}).Error; err != nil {
			return err
		}
	}

	var galleryIDs []uint
	if err := tx.Model(&models.Gallery{}).Where("owner_id = ?", userID).Pluck("id", &galleryIDs).Error; err != nil {
		return err
	}
	if len(galleryIDs) > 0 {
		for _, table := range []interface{}{
			&models.GalleryCollaborator{}, &models.GalleryProduct{}, &models.FavoriteGallery{},
		} {
			if err := tx.Where("gallery_id IN ?", galleryIDs).Delete(table).Error; err != nil {
				return err
			}
		}
		if err := tx.Where("id IN ?", galleryIDs).Delete(&models.Gallery{}).Error; err != nil {
			return err
		}
	}

	var articleIDs []uint
	if err := tx.Model(&models.Article{}).Where("user_id = ?", userID).Pluck("id", &articleIDs).Error; err != nil {
		return err
	}
	if len(articleIDs) > 0 {
		if err := tx.Where("article_id IN ?", articleIDs).Delete(&models.FavoriteArticle{}).Error; err != nil {
			return err
		}
		if err := tx.Where("id IN ?", articleIDs).Delete(&models.Article{}).Error; err != nil {
			return err
		}
	}

	// Rows the user holds in other people's content.
	if err := tx.Where("user_id = ?", userID).Delete(&models.GalleryCollaborator{}).Error; err != nil {
		return err
	}
	if err := tx.Where("user_id = ?", userID).Delete(&models.EventParticipant{}).Error; err != nil {
		return err
	}
	for _, table := range []interface{}{
		&models.CartItem{}, &models.Favorite{}, &models.FavoriteGallery{},
		&models.FavoriteArticle{}, &models.Notification{}, &models.Device{},
	} {
		if err := tx.Where("user_id = ?", userID).Delete(table).Error; err != nil {
			return err
		}
	}
	if err := tx.Where("blocker_id = ? OR blocked_id = ?", userID, userID).
		Delete(&models.UserBlock{}).Error; err != nil {
		return err
	}

	return nil
}

func (h *Handler) GetAllOrders(w http.ResponseWriter, r *http.Request) {
	page, perPage := utils.ParsePaginationParams(r)

	query := h.db.Model(&models.Order{})
	if status := r.URL.Query().Get("status"); status != "" {
		query = query.Where("status = ?", status)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		http.Error(w, "Error retrieving orders", http.StatusInternalServerError)
		return
	}

	var orders []models.Order
	if err := query.
		Preload("User").Preload("Items").
		Order("created_at DESC").
		Offset((page - 1) * perPage).Limit(perPage).
		Find(&orders).Error; err != nil {
		http.Error(w, "Error retrieving orders", http.StatusInternalServerError)
		return
	}

	utils.RespondWithJSON(w, http.StatusOK, map[string]interface{}{
		"orders":     orders,
		"pagination": utils.NewPaginationMeta(page, perPage, total),
	})
}

func (h *Handler) UpdateOrderStatus(w http.ResponseWriter, r *http.Request) {
	adminID, err := utils.GetUserIDFromContext(r.Context())
	if err != nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	orderID, err := strconv.ParseUint(mux.Vars(r)["id"], 10, 64)
	if err != nil {
		http.Error(w, "Invalid order ID", http.StatusBadRequest)
		return
	}

	var body struct {
		Status string `json:"status"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	switch body.Status {
	case models.OrderPending, models.OrderDelivered, models.OrderCancelled:
	default:
		http.Error(w, "Invalid order status", http.StatusBadRequest)
		return
	}

	var order models.Order
	if err := h.db.First(&order, orderID).Error; err != nil {
		http.Error(w, "Order not found", http.StatusNotFound)
		return
	}

	order.Status = body.Status

	tx := h.db.Begin()
	if err := tx.Save(&order).Error; err != nil {
		tx.Rollback()
		http.Error(w, "Error updating order", http.StatusInternalServerError)
		return
	}
	if err := h.bus.Publish(tx, events.OrderStatusChanged{
		AdminID: adminID,
		OrderID: order.ID,
		Status:  body.Status,
	}); err != nil {
		tx.Rollback()
		http.Error(w, "Error updating order", http.StatusInternalServerError)
		return
	}
	if err := tx.Commit().Error; err != nil {
		http.Error(w, "Error updating order", http.StatusInternalServerError)
		return
	}

	utils.RespondWithJSON(w, http.StatusOK, order)
}

func (h *Handler) GetAuditLogs(w http.ResponseWriter, r *http.Request) {
	page, perPage := utils.ParsePaginationParams(r)

	query := h.db.Model(&models.AuditLog{})
	if action := r.URL.Query().Get("action"); action != "" {
		query = query.Where("action = ?", action)
	}
	if performedBy := r.URL.Query().Get("performed_by"); performedBy != "" {
		query = query.Where("performed_by = ?", performedBy)
	}
	if targetType := r.URL.Query().Get("target_type"); targetType != "" {
		query = query.Where("target_type = ?", targetType)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		http.Error(w, "Error retrieving audit logs", http.StatusInternalServerError)
		return
	}

	var logs []models.AuditLog
	if err := query.
		Order("created_at DESC").
		Offset((page - 1) * perPage).Limit(perPage).
		Find(&logs).Error; err != nil {
		http.Error(w, "Error retrieving audit logs", http.StatusInternalServerError)
		return
	}

	utils.RespondWithJSON(w, http.StatusOK, map[string]interface{}{
		"audit_logs": logs,
		"pagination": utils.NewPaginationMeta(page, perPage, total),
	})
}
